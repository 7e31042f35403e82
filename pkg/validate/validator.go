package validate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/spec"
	"github.com/adammathes/ttverify/pkg/ttml"
)

// Options configures validation behavior.
type Options struct {
	// Model selects the revision to validate against. When nil the revision
	// is detected from the document.
	Model *spec.Model

	// Policy controls optional warnings and their escalation to errors.
	Policy report.Policy

	// Extensions registers additional extension designations.
	Extensions []string

	// Resources overrides the resource collaborators. When nil, signature
	// validators rooted at the document directory are used.
	Resources map[spec.ResourceKind]ResourceValidator

	// Snapshots are documents derived from the one being validated, e.g.
	// intermediate synchronic documents. They are bound by xml:id.
	Snapshots       []*ttml.Node
	SnapshotChecker SnapshotChecker

	Logger *zerolog.Logger
}

// Validate runs all validation checks on a timed text file and returns a report.
func Validate(path string) (*report.Report, error) {
	return ValidateWithOptions(path, Options{})
}

// ValidateWithOptions runs validation with the given options. Errors are
// returned only when the file cannot be read; malformed documents produce a
// report with a fatal message.
func ValidateWithOptions(path string, opts Options) (*report.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc, err := ttml.Parse(f, path)
	if err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		r := report.NewReport()
		r.Document = path
		r.AddWithLocation(report.Fatal, report.ParseFailure, report.Format(report.ParseFailure, err), path)
		return r, nil
	}
	if opts.Resources == nil {
		opts.Resources = DefaultResourceValidators(filepath.Dir(path))
	}
	return ValidateDocument(doc, opts), nil
}

// ValidateDocument validates an already parsed document.
func ValidateDocument(doc *ttml.Document, opts Options) *report.Report {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	model := opts.Model
	if model == nil {
		model = DetectRevision(doc.Root)
	}
	model = model.WithExtensions(opts.Extensions...)

	r := report.NewReport()
	r.Document = doc.Path
	r.Revision = model.Name()
	rep := report.NewReporter(r, opts.Policy)

	ctx := NewContext(model, rep)
	ctx.Log = log.With().Str("document", doc.Path).Str("revision", model.Name()).Logger()
	ctx.Resources = opts.Resources

	// Phase 1: semantic walk
	ok := VerifyTree(ctx, doc.Root)

	// Phase 2: derived documents
	if len(opts.Snapshots) > 0 {
		ok = VerifySnapshots(ctx, doc.Root, opts.Snapshots, opts.SnapshotChecker) && ok
	}

	ctx.Log.Info().
		Bool("passed", ok).
		Int("errors", r.ErrorCount()).
		Int("warnings", r.WarningCount()).
		Msg("validation finished")
	return r
}

// DetectRevision chooses the revision declared by the document: an explicit
// ttp:version, then a TTML1 profile designator, and TTML2 otherwise.
func DetectRevision(root *ttml.Node) *spec.Model {
	if root != nil {
		if v, ok := root.Text(ttp("version")); ok {
			switch strings.TrimSpace(v) {
			case "1":
				return spec.ForRevision(spec.TTML1)
			case "2":
				return spec.ForRevision(spec.TTML2)
			}
		}
		if p, ok := root.Text(ttp("profile")); ok && strings.Contains(p, "/dfxp-") {
			return spec.ForRevision(spec.TTML1)
		}
	}
	return spec.ForRevision(spec.TTML2)
}
