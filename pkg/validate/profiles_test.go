package validate

import (
	"testing"

	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/spec"
	"github.com/adammathes/ttverify/pkg/ttml"
)

const ttml2Presentation = "http://www.w3.org/ns/ttml/profile/ttml2-presentation"

func TestResolveDesignation(t *testing.T) {
	tests := []struct {
		base, designation, want string
	}{
		{"http://example/features/", "#something", "http://example/features/#something"},
		{"http://www.w3.org/ns/ttml/feature/", "#color", "http://www.w3.org/ns/ttml/feature/#color"},
		{"http://example/features/", "http://other/x#y", "http://other/x#y"},
		{"http://example/a/b", "../c#d", "http://example/c#d"},
	}
	for _, tt := range tests {
		got, err := ResolveDesignation(tt.base, tt.designation)
		if err != nil {
			t.Errorf("%s + %s: %v", tt.base, tt.designation, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s + %s = %s, want %s", tt.base, tt.designation, got, tt.want)
		}
	}
	if _, err := ResolveDesignation("http://example/", "%zz"); err == nil {
		t.Error("malformed designation resolved")
	}
}

func profileDoc(t *testing.T, profile string) *ttml.Document {
	t.Helper()
	return parseDoc(t, `ttp:version="2"`, `<head>`+profile+`</head><body/>`)
}

func TestExtensionDesignations(t *testing.T) {
	d := profileDoc(t, `<ttp:profile use="`+ttml2Presentation+`">`+
		`<ttp:extensions xml:base="http://example.com/ext/"><ttp:extension>#foo</ttp:extension></ttp:extensions></ttp:profile>`)

	r := ValidateDocument(d, Options{Resources: map[spec.ResourceKind]ResourceValidator{}})
	got := r.WithCheckID(report.BadDesignation)
	if len(got) != 1 {
		t.Fatalf("unregistered extension: %v", r.Messages)
	}
	if got[0].Args[0] != "#foo" || got[0].Args[1] != "http://example.com/ext/" {
		t.Errorf("args = %v", got[0].Args)
	}

	r = ValidateDocument(d, Options{Extensions: []string{"http://example.com/ext/#foo"}})
	if !r.IsValid() {
		t.Errorf("registered extension rejected: %v", r.Messages)
	}
	if spec.ForRevision(spec.TTML2).IsExtension("http://example.com/ext/#foo") {
		t.Error("registering an extension modified the shared model")
	}
}

func TestStandardFeatureDesignations(t *testing.T) {
	d := profileDoc(t, `<ttp:profile use="`+ttml2Presentation+`">`+
		`<ttp:features><ttp:feature>#color</ttp:feature><ttp:feature value="optional">#textShadow</ttp:feature>`+
		`<ttp:feature>#noSuchFeature</ttp:feature><ttp:feature>#color</ttp:feature></ttp:features></ttp:profile>`)
	r, ok := verify(t, spec.TTML2, d)
	if ok {
		t.Fatal("unknown feature accepted")
	}
	if got := checkIDs(r); len(got) != 2 || got[0] != report.BadDesignation || got[1] != report.DuplicateDesignation {
		t.Errorf("check ids = %v", got)
	}
	if dup := r.WithCheckID(report.DuplicateDesignation); dup[0].Severity != report.Warning {
		t.Errorf("duplicate severity = %s", dup[0].Severity)
	}
}

func TestNestedProfileTypeMismatch(t *testing.T) {
	d := profileDoc(t, `<ttp:profile use="`+ttml2Presentation+`"><ttp:profile type="content"/><ttp:profile/></ttp:profile>`)
	r, ok := verify(t, spec.TTML2, d)
	if ok {
		t.Fatal("content profile nested in processor profile accepted")
	}
	got := r.WithCheckID(report.ProfileTypeMismatch)
	if len(got) != 1 {
		t.Fatalf("messages = %v", r.Messages)
	}
	if got[0].Args[0] != ProfileContent || got[0].Args[1] != ProfileProcessor {
		t.Errorf("args = %v", got[0].Args)
	}
}

func TestProfileTypeDefaults(t *testing.T) {
	outer := ttml.Elem(ttml.KindProfile).With(ttml.AttrType, ProfileContent)
	inner := ttml.Elem(ttml.KindProfile)
	outer.Append(inner)
	if got := ProfileType(inner); got != ProfileContent {
		t.Errorf("nested type = %s", got)
	}
	if got := ProfileType(ttml.Elem(ttml.KindProfile)); got != ProfileProcessor {
		t.Errorf("top level type = %s", got)
	}
	if got := ProfileCombine(outer); got != CombineReplace {
		t.Errorf("default combine = %s", got)
	}
}

func TestProfileDeclarationWarnings(t *testing.T) {
	tests := []struct {
		name   string
		attrs  string
		head   string
		policy report.Policy
		want   []string
		valid  bool
	}{
		{"none declared", ``, ``, report.Policy{}, []string{report.MissingProfile}, true},
		{"none declared disabled", ``, ``,
			report.Policy{Warnings: map[string]bool{report.WarnMissingProfile: false}}, nil, true},
		{"attribute and element", presentationProfile,
			`<ttp:profile use="http://www.w3.org/ns/ttml/profile/dfxp-presentation"/>`,
			report.Policy{}, []string{report.IgnoredProfileAttr}, true},
		{"unknown designator", `ttp:profile="http://example.com/profile"`, ``,
			report.Policy{}, []string{report.UnknownProfile}, true},
		{"unknown designator escalated", `ttp:profile="http://example.com/profile"`, ``,
			report.Policy{Escalate: map[string]bool{report.UnknownProfile: true}}, []string{report.UnknownProfile}, false},
		{"relative designator", `ttp:profile="dfxp-presentation"`, ``,
			report.Policy{}, []string{report.RelativeDesignator}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := parseDoc(t, tt.attrs, `<head>`+tt.head+`</head><body/>`)
			ctx, rep := newTestContext(spec.TTML1, tt.policy)
			ok := VerifyTree(ctx, d.Root)
			if ok != tt.valid {
				t.Errorf("ok = %v, want %v", ok, tt.valid)
			}
			got := checkIDs(rep.Report())
			if len(got) != len(tt.want) {
				t.Fatalf("check ids = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("check ids = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestEffectiveFeatures(t *testing.T) {
	color := "http://www.w3.org/ns/ttml/feature/#color"
	build := func(combine string) *ttml.Node {
		p := ttml.Elem(ttml.KindProfile)
		if combine != "" {
			p.With(ttml.AttrCombine, combine)
		}
		p.Append(ttml.Elem(ttml.KindFeatures).Append(
			ttml.Elem(ttml.KindFeature).With(ttml.AttrValue, ValueOptional).AppendText("#color"),
		))
		nested := ttml.Elem(ttml.KindProfile).Append(ttml.Elem(ttml.KindFeatures).Append(
			ttml.Elem(ttml.KindFeature).AppendText("#color"),
			ttml.Elem(ttml.KindFeature).With(ttml.AttrValue, ValueProhibited).AppendText("#opacity"),
		))
		return p.Append(nested)
	}
	m := spec.ForRevision(spec.TTML2)
	for combine, want := range map[string]string{
		"":                      ValueRequired,
		CombineReplace:          ValueRequired,
		CombineMostRestrictive:  ValueRequired,
		CombineLeastRestrictive: ValueOptional,
	} {
		got := EffectiveFeatures(m, build(combine))
		if got[color] != want {
			t.Errorf("combine %q: #color = %q, want %q", combine, got[color], want)
		}
		if got["http://www.w3.org/ns/ttml/feature/#opacity"] != ValueProhibited {
			t.Errorf("combine %q: nested-only designation lost: %v", combine, got)
		}
	}
}
