// Package spec describes the revisions of the timed text format: their
// namespaces, id-reference rules, and standard profile, feature and extension
// designations.
//
// A Model is immutable once constructed and may be shared by any number of
// concurrent verification runs.
package spec

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adammathes/ttverify/pkg/ttml"
)

// Revision identifies a version of the format.
type Revision int

const (
	TTML1 Revision = iota + 1
	TTML2
)

func (r Revision) String() string {
	switch r {
	case TTML1:
		return "ttml1"
	case TTML2:
		return "ttml2"
	}
	return fmt.Sprintf("revision(%d)", int(r))
}

// Namespaces holds the namespace URIs of a revision.
type Namespaces struct {
	TT        string
	Parameter string
	Styling   string
	Metadata  string
	Profile   string
	Feature   string
	Extension string
}

// RefConstraint restricts what an id-reference attribute may point at.
type RefConstraint struct {
	Target ttml.Kind
	// Ancestors lists permissible ancestor chains of the target, nearest
	// first. An empty list means any position is acceptable.
	Ancestors [][]ttml.Kind
	// Multiple is set for IDREFS-valued attributes.
	Multiple bool
}

// Model is the immutable descriptor of one revision.
type Model struct {
	rev        Revision
	ns         Namespaces
	ids        []ttml.QName
	refs       map[ttml.QName]RefConstraint
	profiles   map[string]bool
	features   map[string]bool
	extensions map[string]bool
	resources  map[ResourceKind]map[string]bool
	elements   ttml.KindMask
}

// ResourceKind classifies external resources referenced by a document.
type ResourceKind int

const (
	ResourceImage ResourceKind = iota + 1
	ResourceFont
	ResourceAudio
	ResourceData
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceImage:
		return "image"
	case ResourceFont:
		return "font"
	case ResourceAudio:
		return "audio"
	case ResourceData:
		return "data"
	}
	return "resource"
}

// Revision returns the model's revision.
func (m *Model) Revision() Revision { return m.rev }

// Name returns the revision name, e.g. "ttml2".
func (m *Model) Name() string { return m.rev.String() }

// Namespaces returns the namespace URIs of the revision.
func (m *Model) Namespaces() Namespaces { return m.ns }

// SupportsElement reports whether elements of kind k are defined by the revision.
func (m *Model) SupportsElement(k ttml.Kind) bool { return m.elements.Has(k) }

// IDAttributes returns the attributes that declare element identifiers,
// in lookup order.
func (m *Model) IDAttributes() []ttml.QName {
	return append([]ttml.QName(nil), m.ids...)
}

// IDReference returns the constraint for an id-reference attribute.
func (m *Model) IDReference(attr ttml.QName) (RefConstraint, bool) {
	c, ok := m.refs[attr]
	return c, ok
}

// IDReferenceAttributes returns every id-reference attribute in a stable order.
func (m *Model) IDReferenceAttributes() []ttml.QName {
	out := make([]ttml.QName, 0, len(m.refs))
	for q := range m.refs {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// IsStandardProfile reports whether designation names a standard profile.
func (m *Model) IsStandardProfile(designation string) bool { return m.profiles[designation] }

// IsStandardFeature reports whether designation names a standard feature.
func (m *Model) IsStandardFeature(designation string) bool { return m.features[designation] }

// IsExtension reports whether designation names a known extension.
func (m *Model) IsExtension(designation string) bool { return m.extensions[designation] }

// IsDesignation reports membership in the union of standard feature and
// extension designations.
func (m *Model) IsDesignation(designation string) bool {
	return m.features[designation] || m.extensions[designation]
}

// StandardProfiles returns the standard profile designations, sorted.
func (m *Model) StandardProfiles() []string { return sortedKeys(m.profiles) }

// StandardFeatures returns the standard feature designations, sorted.
func (m *Model) StandardFeatures() []string { return sortedKeys(m.features) }

// Extensions returns the known extension designations, sorted.
func (m *Model) Extensions() []string { return sortedKeys(m.extensions) }

// SupportsResourceType reports whether mime is a supported type for kind.
// Parameters after ';' are ignored.
func (m *Model) SupportsResourceType(kind ResourceKind, mime string) bool {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	return m.resources[kind][mime]
}

// WithExtensions returns a copy of m that additionally recognizes the given
// extension designations. m is not modified.
func (m *Model) WithExtensions(designations ...string) *Model {
	if len(designations) == 0 {
		return m
	}
	c := *m
	c.extensions = make(map[string]bool, len(m.extensions)+len(designations))
	for d := range m.extensions {
		c.extensions[d] = true
	}
	for _, d := range designations {
		c.extensions[d] = true
	}
	return &c
}

// ForRevision returns the shared model of rev, or nil if rev is unknown.
func ForRevision(rev Revision) *Model {
	switch rev {
	case TTML1:
		return ttml1
	case TTML2:
		return ttml2
	}
	return nil
}

// Lookup returns the model for a revision name such as "ttml1" or "TTML2".
func Lookup(name string) (*Model, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ttml1", "1", "dfxp":
		return ttml1, nil
	case "ttml2", "2", "":
		return ttml2, nil
	}
	return nil, fmt.Errorf("unknown revision %q", name)
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func set(prefix string, names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[prefix+n] = true
	}
	return m
}

func merge(a map[string]bool, b map[string]bool) map[string]bool {
	m := make(map[string]bool, len(a)+len(b))
	for k := range a {
		m[k] = true
	}
	for k := range b {
		m[k] = true
	}
	return m
}
