package validate

import (
	"strings"
	"testing"

	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/spec"
	"github.com/adammathes/ttverify/pkg/ttml"
)

func TestBuilderRejectsBadDescriptors(t *testing.T) {
	_, err := NewBuilder("bad", ttml.NSStyling).Add(
		Descriptor{Name: tts("color")},
		Descriptor{Name: tts("opacity"), Verifier: anyText},
		Descriptor{Name: tts("opacity"), Verifier: anyText},
		Descriptor{Name: ttp("frameRate"), Verifier: anyText},
	).Build()
	if err == nil {
		t.Fatal("expected build error")
	}
	for _, want := range []string{"no value verifier", "duplicate descriptor", "outside namespace"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestBuilderDefaultsAccessor(t *testing.T) {
	tbl := NewBuilder("t", "").Add(Descriptor{Name: ttml.Local("x"), Verifier: anyText}).MustBuild()
	d, _ := tbl.Lookup(ttml.Local("x"))
	n := ttml.Elem(ttml.KindP)
	d.Access.Set(n, ttml.Text("1"))
	if v, ok := d.Access.Get(n); !ok || v.String() != "1" {
		t.Errorf("accessor round trip = %v, %v", v, ok)
	}
}

func TestTableApply(t *testing.T) {
	base := NewBuilder("base", "").Add(
		Descriptor{Name: ttml.Local("a"), Verifier: anyText},
		Descriptor{Name: ttml.Local("b"), Verifier: anyText},
		Descriptor{Name: ttml.Local("c"), Verifier: anyText},
	).MustBuild()

	derived, err := base.Apply("derived", Delta{
		Remove:  []ttml.QName{ttml.Local("a")},
		Replace: []Descriptor{{Name: ttml.Local("b"), Verifier: anyText, Padding: true}},
		Add:     []Descriptor{{Name: ttml.Local("d"), Verifier: anyText}},
	})
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, d := range derived.Descriptors() {
		names = append(names, d.Name.Local)
	}
	if got := strings.Join(names, ","); got != "b,c,d" {
		t.Errorf("derived order = %s", got)
	}
	if d, _ := derived.Lookup(ttml.Local("b")); !d.Padding {
		t.Error("replacement not applied")
	}
	if d, _ := base.Lookup(ttml.Local("b")); d.Padding {
		t.Error("base table was modified")
	}
	if _, ok := base.Lookup(ttml.Local("a")); !ok {
		t.Error("base lost a removed descriptor")
	}

	if _, err := base.Apply("x", Delta{Remove: []ttml.QName{ttml.Local("zz")}}); err == nil {
		t.Error("removing an unknown descriptor should fail")
	}
	if _, err := base.Apply("x", Delta{Replace: []Descriptor{{Name: ttml.Local("zz"), Verifier: anyText}}}); err == nil {
		t.Error("replacing an unknown descriptor should fail")
	}
}

func TestRevisionTablesDiffer(t *testing.T) {
	m1, m2 := spec.ForRevision(spec.TTML1), spec.ForRevision(spec.TTML2)
	if _, ok := StyleTable(m1).Lookup(tts("textShadow")); ok {
		t.Error("textShadow is not a ttml1 style")
	}
	if _, ok := StyleTable(m2).Lookup(tts("textShadow")); !ok {
		t.Error("textShadow missing from ttml2 styles")
	}
	if _, ok := ParameterTable(m2).Lookup(ttp("version")); !ok {
		t.Error("ttp:version missing from ttml2 parameters")
	}
	if _, ok := CoreTable(m1).Lookup(ttml.AttrAnimate); ok {
		t.Error("animate is not a ttml1 attribute")
	}
}

func lexicalTable() *Table {
	called := VerifierFunc(func(ctx *Context, a Attribute, v ttml.Value) bool {
		return v.String() != "bad"
	})
	return NewBuilder("lex", "").Add(Descriptor{Name: ttml.Local("v"), Verifier: called}).MustBuild()
}

func TestLexicalChecks(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", report.EmptyValue},
		{"  ", report.AllSpaceValue},
		{" x", report.PaddedValue},
		{"x ", report.PaddedValue},
		{"bad", report.InvalidValue},
		{"good", ""},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			ctx, rep := newTestContext(spec.TTML2, report.Policy{})
			n := ttml.Elem(ttml.KindP).With(ttml.Local("v"), tt.value)
			ok := VerifyAttributes(ctx, n, lexicalTable())
			msgs := rep.Report().Messages
			if tt.want == "" {
				if !ok || len(msgs) != 0 {
					t.Errorf("ok=%v messages=%v", ok, msgs)
				}
				return
			}
			if ok {
				t.Error("expected failure")
			}
			if len(msgs) != 1 || msgs[0].CheckID != tt.want {
				t.Errorf("messages = %v, want one %s", msgs, tt.want)
			}
		})
	}
}

func TestPaddingPermitted(t *testing.T) {
	tbl := NewBuilder("pad", "").Add(Descriptor{Name: ttml.Local("v"), Verifier: anyText, Padding: true}).MustBuild()
	ctx, rep := newTestContext(spec.TTML2, report.Policy{})
	n := ttml.Elem(ttml.KindP).With(ttml.Local("v"), " x ")
	if !VerifyAttributes(ctx, n, tbl) {
		t.Errorf("padded value rejected: %v", rep.Report().Messages)
	}
	n = ttml.Elem(ttml.KindP).With(ttml.Local("v"), "   ")
	if VerifyAttributes(ctx, n, tbl) {
		t.Error("all-space value accepted")
	}
}

func TestStructuredValuesSkipLexicalChecks(t *testing.T) {
	ctx, rep := newTestContext(spec.TTML2, report.Policy{})
	n := ttml.Elem(ttml.KindTT)
	n.SetAttr(ttp("frameRate"), ttml.Int(25))
	if !VerifyAttributes(ctx, n, ParameterTable(ctx.Model)) {
		t.Errorf("structured value rejected: %v", rep.Report().Messages)
	}
}

func TestRequiredAttribute(t *testing.T) {
	ctx, rep := newTestContext(spec.TTML1, report.Policy{})
	if VerifyAttributes(ctx, ttml.Elem(ttml.KindTT), CoreTable(ctx.Model)) {
		t.Fatal("tt without xml:lang accepted")
	}
	if got := rep.Report().WithCheckID(report.MissingAttribute); len(got) != 1 {
		t.Errorf("messages = %v", rep.Report().Messages)
	}
}

func TestVerifyForeignAttributes(t *testing.T) {
	ctx, rep := newTestContext(spec.TTML2, report.Policy{})
	n := ttml.Elem(ttml.KindP).
		With(tts("bogus"), "1").
		With(ttp("frameRate"), "25").
		With(tts("color"), "red")
	ok := VerifyForeignAttributes(ctx, n, StyleTable(ctx.Model))
	ok = VerifyForeignAttributes(ctx, n, ParameterTable(ctx.Model)) && ok
	if ok {
		t.Fatal("expected failure")
	}
	got := checkIDs(rep.Report())
	if len(got) != 2 || got[0] != report.UnknownAttribute || got[1] != report.AttributeNotAllowed {
		t.Errorf("check ids = %v", got)
	}
}

// Only region styles carry defaults; they are the only ones written back.
func TestDefaultsOnlyOnStyles(t *testing.T) {
	for _, rev := range []spec.Revision{spec.TTML1, spec.TTML2} {
		m := spec.ForRevision(rev)
		for _, table := range []*Table{CoreTable(m), ParameterTable(m), TimingTable(m), MetadataTable(m)} {
			for _, d := range table.Descriptors() {
				if d.HasDefault {
					t.Errorf("%s: %s has default %q but no engine applies it", rev, d.Name, d.Default)
				}
			}
		}
	}
}
