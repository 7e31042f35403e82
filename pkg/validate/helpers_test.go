package validate

import (
	"strings"
	"testing"

	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/spec"
	"github.com/adammathes/ttverify/pkg/ttml"
)

const nsDecl = `xmlns="http://www.w3.org/ns/ttml" ` +
	`xmlns:tts="http://www.w3.org/ns/ttml#styling" ` +
	`xmlns:ttp="http://www.w3.org/ns/ttml#parameter" ` +
	`xmlns:ttm="http://www.w3.org/ns/ttml#metadata"`

const presentationProfile = `ttp:profile="http://www.w3.org/ns/ttml/profile/dfxp-presentation"`

// cleanBody is a minimal document body that produces no diagnostics.
const cleanBody = `<head><layout><region xml:id="r1" tts:extent="10% 10%"/></layout></head>` +
	`<body><div><p region="r1" begin="00:00:01.000" end="00:00:02.000">Hello</p></div></body>`

func parseDoc(t *testing.T, rootAttrs, inner string) *ttml.Document {
	t.Helper()
	src := `<tt ` + nsDecl + ` xml:lang="en" ` + rootAttrs + `>` + inner + `</tt>`
	d, err := ttml.Parse(strings.NewReader(src), "test.ttml")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return d
}

func newTestContext(rev spec.Revision, p report.Policy) (*Context, *report.Reporter) {
	rep := report.NewReporter(nil, p)
	return NewContext(spec.ForRevision(rev), rep), rep
}

func verify(t *testing.T, rev spec.Revision, d *ttml.Document) (*report.Report, bool) {
	t.Helper()
	ctx, rep := newTestContext(rev, report.Policy{})
	ok := VerifyTree(ctx, d.Root)
	return rep.Report(), ok
}

func checkIDs(r *report.Report) []string {
	ids := make([]string, len(r.Messages))
	for i, m := range r.Messages {
		ids[i] = m.CheckID
	}
	return ids
}

func expectNoMessages(t *testing.T, r *report.Report) {
	t.Helper()
	for _, m := range r.Messages {
		t.Errorf("unexpected message: %s", m)
	}
}

func findKind(root *ttml.Node, k ttml.Kind) *ttml.Node {
	var found *ttml.Node
	root.Walk(func(n *ttml.Node) bool {
		if found == nil && n.Kind == k {
			found = n
		}
		return found == nil
	})
	return found
}
