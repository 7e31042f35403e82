package validate

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/spec"
	"github.com/adammathes/ttverify/pkg/ttml"
)

// ResourceValidator inspects external resources of one kind. The core
// supplies designators and locations; it never decodes payloads itself.
type ResourceValidator interface {
	// Sniff returns the media type detected from the resource content, or
	// "" when the content is not recognized.
	Sniff(uri string) (string, error)
	// Validate checks the resource against its declared media type and
	// reports problems through rep.
	Validate(rep Reporter, uri, mime string, loc ttml.Location) bool
}

var (
	pngMagic  = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegMagic = []byte{0xff, 0xd8, 0xff}
	gifMagic  = []byte("GIF8")
)

type signature struct {
	mime   string
	offset int
	magic  []byte
}

var signatures = map[spec.ResourceKind][]signature{
	spec.ResourceImage: {
		{"image/png", 0, pngMagic},
		{"image/jpeg", 0, jpegMagic},
		{"image/gif", 0, gifMagic},
	},
	spec.ResourceFont: {
		{"font/otf", 0, []byte("OTTO")},
		{"font/ttf", 0, []byte{0x00, 0x01, 0x00, 0x00}},
		{"font/woff", 0, []byte("wOFF")},
		{"font/woff2", 0, []byte("wOF2")},
		{"font/collection", 0, []byte("ttcf")},
	},
	spec.ResourceAudio: {
		{"audio/mpeg", 0, []byte("ID3")},
		{"audio/mpeg", 0, []byte{0xff, 0xfb}},
		{"audio/wav", 8, []byte("WAVE")},
		{"audio/ogg", 0, []byte("OggS")},
		{"audio/flac", 0, []byte("fLaC")},
		{"audio/mp4", 4, []byte("ftyp")},
	},
}

// aliases maps alternative media type spellings to the sniffed form.
var aliases = map[string]string{
	"application/font-sfnt": "font/ttf",
	"application/font-woff": "font/woff",
	"audio/x-wav":           "audio/wav",
	"audio/wave":            "audio/wav",
	"audio/mp3":             "audio/mpeg",
}

// detectType matches data against the signatures of kind.
func detectType(kind spec.ResourceKind, data []byte) string {
	for _, s := range signatures[kind] {
		if len(data) >= s.offset+len(s.magic) && bytes.Equal(data[s.offset:s.offset+len(s.magic)], s.magic) {
			return s.mime
		}
	}
	if kind == spec.ResourceImage && looksLikeSVG(data) {
		return "image/svg+xml"
	}
	return ""
}

func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}

// SignatureValidator recognizes resources by their leading bytes. Relative
// designators are resolved against BaseDir; remote resources are not
// fetched.
type SignatureValidator struct {
	Kind    spec.ResourceKind
	BaseDir string
}

// DefaultResourceValidators returns signature validators for every kind.
func DefaultResourceValidators(baseDir string) map[spec.ResourceKind]ResourceValidator {
	m := make(map[spec.ResourceKind]ResourceValidator, 4)
	for _, k := range []spec.ResourceKind{spec.ResourceImage, spec.ResourceFont, spec.ResourceAudio, spec.ResourceData} {
		m[k] = &SignatureValidator{Kind: k, BaseDir: baseDir}
	}
	return m
}

func (v *SignatureValidator) path(uri string) (string, bool) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", false
	}
	switch u.Scheme {
	case "":
	case "file":
		return u.Path, true
	default:
		return "", false
	}
	if filepath.IsAbs(u.Path) {
		return u.Path, true
	}
	return filepath.Join(v.BaseDir, filepath.FromSlash(u.Path)), true
}

// Sniff reads the start of a local resource.
func (v *SignatureValidator) Sniff(uri string) (string, error) {
	p, local := v.path(uri)
	if !local {
		return "", nil
	}
	f, err := os.Open(p)
	if err != nil {
		return "", fmt.Errorf("opening resource: %w", err)
	}
	defer f.Close()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("reading resource: %w", err)
	}
	return detectType(v.Kind, head[:n]), nil
}

// Validate compares the sniffed type with the declared one. Opaque data is
// accepted as long as it can be read.
func (v *SignatureValidator) Validate(rep Reporter, uri, mime string, loc ttml.Location) bool {
	if _, local := v.path(uri); !local {
		return true
	}
	got, err := v.Sniff(uri)
	if err != nil {
		return !rep.LogWarning(loc, report.ResourceUnreadable, v.Kind, uri, err)
	}
	if v.Kind == spec.ResourceData {
		return true
	}
	if got == "" {
		return !rep.LogWarning(loc, report.ResourceUnrecognize, v.Kind, uri)
	}
	if mime == "" {
		return true
	}
	if normalizeMIME(mime) != got {
		return !rep.LogWarning(loc, report.ResourceMismatch, v.Kind, uri, mime, got)
	}
	return true
}

func normalizeMIME(m string) string {
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	m = strings.ToLower(strings.TrimSpace(m))
	if a, ok := aliases[m]; ok {
		return a
	}
	return m
}

// resourceKindOf maps a resource element to its kind. Source elements take
// the kind of their parent.
func resourceKindOf(n *ttml.Node) (spec.ResourceKind, bool) {
	switch n.Kind {
	case ttml.KindImage:
		return spec.ResourceImage, true
	case ttml.KindFont:
		return spec.ResourceFont, true
	case ttml.KindAudio:
		return spec.ResourceAudio, true
	case ttml.KindData:
		return spec.ResourceData, true
	case ttml.KindSource:
		if n.Parent != nil && n.Parent.Kind != ttml.KindSource {
			return resourceKindOf(n.Parent)
		}
	}
	return 0, false
}

// isExternal reports whether src designates a resource outside the document.
func isExternal(src string) bool {
	return src != "" && !strings.HasPrefix(src, "#")
}

// verifyResource checks a resource element's declared type and, when a
// collaborator is registered for its kind, the resource itself.
func verifyResource(ctx *Context, node *ttml.Node) bool {
	kind, ok := resourceKindOf(node)
	if !ok {
		return true
	}
	src, _ := node.Text(ttml.AttrSrc)
	src = strings.TrimSpace(src)
	mime, hasType := node.Text(ttml.AttrType)
	mime = strings.TrimSpace(mime)

	pass := true
	if isExternal(src) && !hasType {
		pass = ctx.warn(report.WarnMissingSourceType, node.Location, report.MissingSourceType, kind, src) && pass
	}
	if hasType && mime != "" && !ctx.Model.SupportsResourceType(kind, mime) {
		pass = ctx.fail(node.Location, report.UnsupportedType, kind, mime) && pass
	}
	if !isExternal(src) || !ctx.Reporter.IsWarningEnabled(report.WarnResourceChecks) {
		return pass
	}
	if rv, registered := ctx.Resources[kind]; registered && rv != nil {
		ctx.Log.Debug().Str("kind", kind.String()).Str("src", src).Msg("checking resource")
		pass = rv.Validate(ctx.Reporter, src, mime, node.Location) && pass
	}
	return pass
}
