package validate

import (
	"math/big"
	"net/url"
	"strings"

	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/spec"
	"github.com/adammathes/ttverify/pkg/ttml"
)

var rootOnly = ttml.Kinds(ttml.KindTT)

func rootParam(local string, v ValueVerifier) Descriptor {
	return Descriptor{Name: ttp(local), Verifier: v, On: rootOnly}
}

var (
	positiveIntValue = text(func(_ *spec.Model, s string) bool {
		_, ok := positiveInteger(s)
		return ok
	})
	ratioValue = text(func(_ *spec.Model, s string) bool {
		_, ok := parseRatio(s)
		return ok
	})
	absoluteURI = text(func(_ *spec.Model, s string) bool {
		u, err := url.Parse(s)
		return err == nil && u.IsAbs()
	})
	// profile designator lists, optionally wrapped as all(...) or any(...)
	designatorList = text(func(_ *spec.Model, s string) bool {
		s = strings.TrimSpace(s)
		for _, fn := range []string{"all(", "any("} {
			if strings.HasPrefix(s, fn) && strings.HasSuffix(s, ")") {
				s = s[len(fn) : len(s)-1]
				break
			}
		}
		f := strings.Fields(s)
		if len(f) == 0 {
			return false
		}
		for _, d := range f {
			if _, err := url.Parse(d); err != nil {
				return false
			}
		}
		return true
	})
)

var ttml1Parameters = NewBuilder("ttml1 parameters", ttml.NSParameter).Add(
	rootParam("cellResolution", ratioValue),
	rootParam(ParamClockMode, enumeration("local", "gps", "utc")),
	rootParam(ParamDropMode, enumeration(DropNone, DropNTSC, DropPAL)),
	rootParam(ParamFrameRate, positiveIntValue),
	rootParam(ParamFrameRateMultiplier, ratioValue),
	rootParam(ParamMarkerMode, enumeration("continuous", "discontinuous")),
	rootParam("pixelAspectRatio", ratioValue),
	rootParam("profile", uriValue),
	rootParam(ParamSubFrameRate, positiveIntValue),
	rootParam(ParamTickRate, positiveIntValue),
	rootParam(ParamTimeBase, enumeration(TimeBaseMedia, TimeBaseSMPTE, TimeBaseClock)),
).MustBuild()

var ttml2Parameters = ttml1Parameters.MustApply("ttml2 parameters", Delta{
	Add: []Descriptor{
		rootParam("contentProfileCombination", enumeration("leastRestrictive", "mostRestrictive", "replace")),
		rootParam("contentProfiles", designatorList),
		rootParam("displayAspectRatio", ratioValue),
		rootParam("inferProcessorProfileSource", enumeration("combined", "first")),
		rootParam("permitFeatureNarrowing", enumeration("true", "false")),
		rootParam("permitFeatureWidening", enumeration("true", "false")),
		rootParam("processorProfileCombination", enumeration("leastRestrictive", "mostRestrictive", "replace")),
		rootParam("processorProfiles", designatorList),
		rootParam("validation", enumeration("required", "optional", "prohibited")),
		rootParam("validationAction", enumeration("abort", "warn", "ignore")),
		rootParam("version", enumeration("1", "2")),
	},
})

var (
	contentAndRegion = ttml.ContentKinds.Union(ttml.Kinds(ttml.KindRegion))
	regionRefHosts   = ttml.Kinds(ttml.KindBody, ttml.KindDiv, ttml.KindP, ttml.KindSpan,
		ttml.KindSet, ttml.KindAnimate, ttml.KindImage)
	styleRefHosts = ttml.Kinds(ttml.KindBody, ttml.KindDiv, ttml.KindP, ttml.KindSpan, ttml.KindBr,
		ttml.KindRegion, ttml.KindStyle)
)

var ttml1Core = NewBuilder("ttml1 core", "").Add(
	Descriptor{Name: ttml.XMLID, Verifier: ncName},
	Descriptor{Name: ttml.XMLLang, Verifier: languageValue, Empty: true, Required: rootOnly},
	Descriptor{Name: ttml.XMLSpace, Verifier: enumeration("default", "preserve")},
	Descriptor{Name: ttml.XMLBase, Verifier: uriValue,
		On: ttml.Kinds(ttml.KindTT, ttml.KindFeatures, ttml.KindExtensions)},
	Descriptor{Name: ttml.AttrRegion, Verifier: ncName, On: regionRefHosts},
	Descriptor{Name: ttml.AttrStyle, Verifier: idrefs, On: styleRefHosts},
).MustBuild()

var ttml2Core = ttml1Core.MustApply("ttml2 core", Delta{
	Replace: []Descriptor{
		{Name: ttml.XMLBase, Verifier: uriValue},
		{Name: ttml.AttrStyle, Verifier: idrefs,
			On: styleRefHosts.Union(ttml.Kinds(ttml.KindInitial, ttml.KindImage))},
	},
	Add: []Descriptor{
		{Name: ttml.AttrAnimate, Verifier: idrefs, On: contentAndRegion},
		{Name: ttml.AttrCondition, Verifier: anyText,
			On: contentAndRegion.Union(ttml.Kinds(ttml.KindStyle, ttml.KindInitial, ttml.KindSet,
				ttml.KindAnimate, ttml.KindSource, ttml.KindImage, ttml.KindAudio))},
	},
})

func local(name string, v ValueVerifier, required bool, kinds ...ttml.Kind) Descriptor {
	d := Descriptor{Name: ttml.Local(name), Verifier: v, On: ttml.Kinds(kinds...)}
	if required {
		d.Required = d.On
	}
	return d
}

var (
	mimeValue = text(func(_ *spec.Model, s string) bool {
		i := strings.IndexByte(s, '/')
		return i > 0 && i < len(s)-1
	})
	repeatCountValue = text(func(_ *spec.Model, s string) bool {
		return s == "indefinite" || nonNegativeNumberString(s)
	})
)

func nonNegativeNumberString(s string) bool {
	return isNumber(s) && !strings.HasPrefix(s, "-")
}

func localTable(name string, ds ...Descriptor) *Table {
	return NewBuilder(name, "").Add(ds...).MustBuild()
}

var ttml1Local = map[ttml.Kind]*Table{
	ttml.KindAgent: localTable("agent", local("type", enumeration("person", "character", "group", "organization", "other"), true, ttml.KindAgent)),
	ttml.KindName:  localTable("name", local("type", enumeration("full", "family", "given", "alias", "other"), true, ttml.KindName)),
	ttml.KindActor: localTable("actor", local("agent", ncName, true, ttml.KindActor)),
	ttml.KindProfile: localTable("profile",
		local("use", uriValue, false, ttml.KindProfile)),
	ttml.KindFeature:   localTable("feature", local("value", enumeration("optional", "required", "use"), false, ttml.KindFeature)),
	ttml.KindExtension: localTable("extension", local("value", enumeration("optional", "required", "use"), false, ttml.KindExtension)),
}

var ttml2Local = func() map[ttml.Kind]*Table {
	m := make(map[ttml.Kind]*Table, len(ttml1Local)+8)
	for k, t := range ttml1Local {
		m[k] = t
	}
	presence := enumeration("optional", "required", "prohibited", "use")
	m[ttml.KindProfile] = ttml1Local[ttml.KindProfile].MustApply("ttml2 profile", Delta{
		Add: []Descriptor{
			local("type", enumeration("content", "processor"), false, ttml.KindProfile),
			local("combine", enumeration("leastRestrictive", "mostRestrictive", "replace"), false, ttml.KindProfile),
			local("designator", absoluteURI, false, ttml.KindProfile),
		},
	})
	m[ttml.KindFeature] = localTable("feature", local("value", presence, false, ttml.KindFeature))
	m[ttml.KindExtension] = localTable("extension", local("value", presence, false, ttml.KindExtension))
	m[ttml.KindAnimate] = localTable("animate",
		local("calcMode", enumeration("discrete", "linear", "paced", "spline"), false, ttml.KindAnimate),
		local("fill", enumeration("freeze", "remove"), false, ttml.KindAnimate),
		local("keySplines", anyText, false, ttml.KindAnimate),
		local("keyTimes", anyText, false, ttml.KindAnimate),
		local("repeatCount", repeatCountValue, false, ttml.KindAnimate),
	)
	m[ttml.KindSet] = localTable("set",
		local("fill", enumeration("freeze", "remove"), false, ttml.KindSet),
		local("repeatCount", repeatCountValue, false, ttml.KindSet),
	)
	resource := func(k ttml.Kind, extra ...Descriptor) *Table {
		ds := []Descriptor{
			local("src", uriValue, false, k),
			local("type", mimeValue, false, k),
		}
		return localTable(k.String(), append(ds, extra...)...)
	}
	m[ttml.KindImage] = resource(ttml.KindImage)
	m[ttml.KindAudio] = resource(ttml.KindAudio)
	m[ttml.KindFont] = resource(ttml.KindFont,
		local("family", anyText, false, ttml.KindFont),
		local("style", enumeration("normal", "italic", "oblique"), false, ttml.KindFont),
		local("weight", enumeration("normal", "bold"), false, ttml.KindFont),
		local("range", anyText, false, ttml.KindFont),
	)
	m[ttml.KindData] = resource(ttml.KindData,
		local("encoding", enumeration("base16", "base32", "base32hex", "base64", "base64url"), false, ttml.KindData),
		local("length", text(func(_ *spec.Model, s string) bool { return isInteger(s) && !strings.HasPrefix(s, "-") }), false, ttml.KindData),
	)
	m[ttml.KindSource] = resource(ttml.KindSource,
		local("format", anyText, false, ttml.KindSource),
	)
	return m
}()

// VerifyParameters verifies the core, ttp: and element specific attributes
// of node, and its identifier and id references.
func VerifyParameters(ctx *Context, node *ttml.Node) bool {
	rs := rulesFor(ctx.Model)
	ok := VerifyAttributes(ctx, node, rs.core)
	ok = VerifyAttributes(ctx, node, rs.parameters) && ok
	if t, has := rs.local[node.Kind]; has {
		ok = VerifyAttributes(ctx, node, t) && ok
	}
	ok = verifyIdentifier(ctx, node) && ok
	ok = verifyReferences(ctx, node) && ok
	if node.Kind == ttml.KindTT {
		ok = verifyParameterConsistency(ctx, node) && ok
	}
	return ok
}

func verifyIdentifier(ctx *Context, node *ttml.Node) bool {
	first, dup := ctx.dups[node]
	if !dup {
		return true
	}
	return ctx.fail(node.Location, report.DuplicateID, node.ID(), first.Location)
}

// verifyReferences checks every id reference on node: the target must exist,
// be of the expected kind, and sit in a permitted position.
func verifyReferences(ctx *Context, node *ttml.Node) bool {
	ok := true
	for _, q := range ctx.Model.IDReferenceAttributes() {
		val, present := node.Text(q)
		if !present {
			continue
		}
		if q.Space == "" && !unqualifiedKnown(ctx, node.Kind, q) {
			continue
		}
		c, _ := ctx.Model.IDReference(q)
		ids := strings.Fields(val)
		// a list on a single reference attribute already fails as an NCName
		if !c.Multiple && len(ids) > 1 {
			continue
		}
		for _, id := range ids {
			target, found := ctx.Element(id)
			switch {
			case !found:
				ok = ctx.fail(node.Location, report.BadReference, id, q)
			case target.Kind != c.Target:
				ok = ctx.fail(node.Location, report.ReferenceTargetKind, id, q, target.Name, c.Target)
			case !inPermittedPosition(target, c.Ancestors):
				ok = ctx.fail(node.Location, report.ReferencePosition, id, q, target.Name)
			}
		}
	}
	return ok
}

// inPermittedPosition reports whether n's ancestors, nearest first, match
// one of chains.
func inPermittedPosition(n *ttml.Node, chains [][]ttml.Kind) bool {
	if len(chains) == 0 {
		return true
	}
outer:
	for _, chain := range chains {
		p := n.Parent
		for _, k := range chain {
			if p == nil || p.Kind != k {
				continue outer
			}
			p = p.Parent
		}
		return true
	}
	return false
}

// unqualifiedKnown reports whether an unqualified attribute is defined for
// kind by the core, timing or element specific tables.
func unqualifiedKnown(ctx *Context, k ttml.Kind, q ttml.QName) bool {
	rs := rulesFor(ctx.Model)
	for _, t := range []*Table{rs.core, rs.timing, rs.local[k]} {
		if t == nil {
			continue
		}
		if d, ok := t.Lookup(q); ok && d.Permitted(k) {
			return true
		}
	}
	return false
}

// verifyUnqualifiedAttributes reports unqualified attributes that no table
// defines, and defined ones used where they are not permitted.
func verifyUnqualifiedAttributes(ctx *Context, node *ttml.Node) bool {
	rs := rulesFor(ctx.Model)
	ok := true
	for _, a := range node.AttrsIn("") {
		if unqualifiedKnown(ctx, node.Kind, a.Name) {
			continue
		}
		known := false
		for _, t := range []*Table{rs.core, rs.timing} {
			if _, has := t.Lookup(a.Name); has {
				known = true
			}
		}
		for _, t := range rs.local {
			if _, has := t.Lookup(a.Name); has {
				known = true
			}
		}
		if known {
			ok = ctx.fail(node.Location, report.AttributeNotAllowed, a.Name, node.Name)
		} else {
			ok = ctx.fail(node.Location, report.UnknownAttribute, a.Name)
		}
	}
	return ok
}

// verifyParameterConsistency warns about parameters that have no effect
// under the selected time base, and drop modes used with frame rates they
// were not designed for.
func verifyParameterConsistency(ctx *Context, root *ttml.Node) bool {
	p := ctx.Params
	ok := true
	ignored := func(param, cond string) {
		if root.HasAttr(ttp(param)) {
			ok = ctx.warn(report.WarnParameterConsistency, root.Location, report.ParameterIgnored, ttp(param), cond) && ok
		}
	}
	if p.TimeBase != TimeBaseSMPTE {
		ignored(ParamDropMode, "ttp:timeBase is smpte")
		ignored(ParamMarkerMode, "ttp:timeBase is smpte")
	}
	if p.TimeBase != TimeBaseClock {
		ignored(ParamClockMode, "ttp:timeBase is clock")
	}
	if p.DropMode != DropNone {
		ntsc := p.FrameRate == 30 && p.FrameRateMultiplier.Cmp(ntscMultiplier) == 0
		if !ntsc {
			ok = ctx.warn(report.WarnParameterConsistency, root.Location, report.DropModeRate,
				p.DropMode, p.FrameRate, p.FrameRateMultiplier.RatString()) && ok
		}
	}
	return ok
}

var ntscMultiplier = big.NewRat(1000, 1001)
