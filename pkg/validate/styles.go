package validate

import (
	"strings"

	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/spec"
	"github.com/adammathes/ttverify/pkg/ttml"
)

func tts(local string) ttml.QName { return ttml.Name(ttml.NSStyling, local) }

// Kinds that may carry style attributes, and kinds that specify styles
// rather than use them.
var (
	styleHosts = ttml.Kinds(ttml.KindBody, ttml.KindDiv, ttml.KindP, ttml.KindSpan, ttml.KindBr,
		ttml.KindRegion, ttml.KindStyle, ttml.KindInitial, ttml.KindSet, ttml.KindAnimate)
	styleSpecifiers = ttml.Kinds(ttml.KindStyle, ttml.KindInitial, ttml.KindSet, ttml.KindAnimate)

	allContent   = ttml.Kinds(ttml.KindBody, ttml.KindDiv, ttml.KindP, ttml.KindSpan, ttml.KindRegion)
	regionOnly   = ttml.Kinds(ttml.KindRegion)
	spanOnly     = ttml.Kinds(ttml.KindSpan)
	paragraph    = ttml.Kinds(ttml.KindP)
	paraAndSpan  = ttml.Kinds(ttml.KindP, ttml.KindSpan)
	rootAndHosts = styleHosts.Union(ttml.Kinds(ttml.KindTT))
)

// style builds a style descriptor. Region applicable styles default to
// their initial value so that regions can be resolved eagerly.
func style(local string, applies ttml.KindMask, inherited bool, initial string, v ValueVerifier) Descriptor {
	d := Descriptor{
		Name:      tts(local),
		Verifier:  v,
		On:        styleHosts,
		Applies:   applies,
		Inherited: inherited,
		Initial:   initial,
	}
	if applies.Has(ttml.KindRegion) {
		d.Default = initial
		d.HasDefault = true
	}
	return d
}

var ttml1Styles = NewBuilder("ttml1 styles", ttml.NSStyling).Add(
	style("backgroundColor", allContent, false, "transparent", colorValue),
	style("color", spanOnly, true, "white", colorValue),
	style("direction", paraAndSpan, true, "ltr", enumeration("ltr", "rtl")),
	style("display", allContent, false, "auto", enumeration("auto", "none")),
	style("displayAlign", regionOnly, false, "before", enumeration("before", "center", "after")),
	withOn(style("extent", ttml.Kinds(ttml.KindTT, ttml.KindRegion), false, "auto", lengthPair(true, true)), rootAndHosts),
	style("fontFamily", spanOnly, true, "default", fontFamilyValue),
	style("fontSize", spanOnly, true, "1c", fontSizeValue),
	style("fontStyle", spanOnly, true, "normal", enumeration("normal", "italic", "oblique")),
	style("fontWeight", spanOnly, true, "normal", enumeration("normal", "bold")),
	style("lineHeight", paragraph, true, "normal", lineHeightValue),
	style("opacity", regionOnly, false, "1.0", opacityValue),
	style("origin", regionOnly, false, "auto", lengthPair(true, false)),
	style("overflow", regionOnly, false, "hidden", enumeration("visible", "hidden")),
	style("padding", regionOnly, false, "0px", paddingValue),
	style("showBackground", regionOnly, false, "always", enumeration("always", "whenActive")),
	style("textAlign", paragraph, true, "start", enumeration("left", "center", "right", "start", "end")),
	style("textDecoration", spanOnly, true, "none", textDecorationValue),
	style("textOutline", spanOnly, true, "none", textOutlineValue),
	style("unicodeBidi", paraAndSpan, false, "normal", enumeration("normal", "embed", "bidiOverride")),
	style("visibility", allContent, true, "visible", enumeration("visible", "hidden")),
	style("wrapOption", spanOnly, true, "wrap", enumeration("wrap", "noWrap")),
	style("writingMode", regionOnly, false, "lrtb", enumeration("lrtb", "rltb", "tbrl", "tblr", "lr", "rl", "tb")),
	style("zIndex", regionOnly, false, "auto", zIndexValue),
).MustBuild()

var (
	blockAndRegion = ttml.Kinds(ttml.KindDiv, ttml.KindP, ttml.KindRegion)
	withImage      = allContent.Union(ttml.Kinds(ttml.KindImage))
	rubyHosts      = ttml.Kinds(ttml.KindSpan)
)

var ttml2Styles = ttml1Styles.MustApply("ttml2 styles", Delta{
	Replace: []Descriptor{
		style("backgroundColor", withImage, false, "transparent", colorValue),
		style("display", withImage, false, "auto", enumeration("auto", "none", "inlineBlock")),
		style("displayAlign", blockAndRegion, false, "before", enumeration("before", "center", "after", "justify")),
		withOn(style("extent", ttml.Kinds(ttml.KindTT, ttml.KindRegion, ttml.KindDiv, ttml.KindP, ttml.KindImage), false, "auto",
			lengthPair(true, true, "contain", "cover")), rootAndHosts.Union(ttml.Kinds(ttml.KindImage))),
		style("opacity", withImage, false, "1.0", opacityValue),
		style("origin", ttml.Kinds(ttml.KindRegion, ttml.KindDiv, ttml.KindP), false, "auto", lengthPair(true, false)),
		style("textAlign", paragraph, true, "start", enumeration("left", "center", "right", "start", "end", "justify")),
		style("unicodeBidi", paraAndSpan, false, "normal", enumeration("normal", "embed", "bidiOverride", "isolate")),
	},
	Add: []Descriptor{
		style("backgroundClip", withImage, false, "border", enumeration("border", "padding", "content")),
		style("backgroundExtent", withImage, false, "auto", lengthPair(true, true, "contain", "cover")),
		style("backgroundImage", withImage, false, "none", imageValue),
		style("backgroundOrigin", withImage, false, "padding", enumeration("border", "padding", "content")),
		style("backgroundPosition", withImage, false, "0% 0%", positionValue),
		style("backgroundRepeat", withImage, false, "repeat", enumeration("repeat", "repeatX", "repeatY", "noRepeat")),
		style("bpd", ttml.Kinds(ttml.KindDiv, ttml.KindP, ttml.KindSpan), false, "auto", autoOrLength),
		style("disparity", regionOnly, false, "0px", text(func(m *spec.Model, s string) bool {
			_, ok := parseLength(m, s)
			return ok
		})),
		style("fontKerning", spanOnly, true, "normal", enumeration("none", "normal")),
		style("fontSelectionStrategy", spanOnly, true, "auto", enumeration("auto", "character")),
		style("fontShear", spanOnly, true, "0%", percentageValue),
		style("fontVariant", spanOnly, true, "normal", fontVariantValue),
		style("ipd", ttml.Kinds(ttml.KindDiv, ttml.KindP, ttml.KindSpan), false, "auto", autoOrLength),
		style("letterSpacing", spanOnly, true, "normal", normalOrLength),
		style("lineShear", paragraph, true, "0%", percentageValue),
		style("luminanceGain", regionOnly, false, "1.0", nonNegativeNumber),
		style("position", regionOnly, false, "center", positionValue),
		style("ruby", rubyHosts, false, "none",
			enumeration("none", "container", "base", "baseContainer", "text", "textContainer", "delimiter")),
		style("rubyAlign", rubyHosts, true, "center",
			enumeration("start", "center", "end", "spaceAround", "spaceBetween", "withBase")),
		style("rubyPosition", rubyHosts, true, "outside", enumeration("before", "after", "outside")),
		style("rubyReserve", paragraph, true, "none", rubyReserveValue),
		style("shear", paragraph, true, "0%", percentageValue),
		style("textCombine", spanOnly, true, "none", enumeration("none", "all")),
		style("textEmphasis", spanOnly, true, "none", textEmphasisValue),
		style("textOrientation", spanOnly, true, "mixed", enumeration("mixed", "sideways", "upright")),
		style("textShadow", spanOnly, true, "none", textShadowValue),
	},
})

func withOn(d Descriptor, on ttml.KindMask) Descriptor {
	d.On = on
	return d
}

var fontVariantValue = text(func(_ *spec.Model, s string) bool {
	if s == "normal" {
		return true
	}
	allowed := map[string]bool{"super": true, "sub": true, "full": true, "half": true, "ruby": true}
	seen := map[string]bool{}
	for _, t := range strings.Fields(s) {
		if !allowed[t] || seen[t] {
			return false
		}
		seen[t] = true
	}
	return len(seen) > 0
})

var rubyReserveValue = text(func(m *spec.Model, s string) bool {
	f := strings.Fields(s)
	if len(f) == 0 || len(f) > 2 {
		return false
	}
	if f[0] == "none" {
		return len(f) == 1
	}
	switch f[0] {
	case "before", "after", "both", "outside":
	default:
		return false
	}
	return len(f) == 1 || f[1] == "auto" || nonNegativeLength(m, f[1])
})

// DoesStyleApply reports whether the named style applies to elements of
// kind k.
func DoesStyleApply(m *spec.Model, k ttml.Kind, name ttml.QName) bool {
	d, ok := StyleTable(m).Lookup(name)
	return ok && d.Applies.Has(k)
}

// IsInheritable reports whether the named style is inherited into elements
// of kind k.
func IsInheritable(m *spec.Model, k ttml.Kind, name ttml.QName) bool {
	rs := rulesFor(m)
	if rs.notInherited[styleKey{k, name}] {
		return false
	}
	d, ok := rs.styles.Lookup(name)
	return ok && d.Inherited
}

// initialOverrides returns the session's initial value overrides.
func initialOverrides(ctx *Context) map[ttml.QName]string {
	if v, ok := ctx.Get(storeInitialOverrides); ok {
		return v.(map[ttml.QName]string)
	}
	m := make(map[ttml.QName]string)
	ctx.Set(storeInitialOverrides, m)
	return m
}

// regionDefaults returns the styles written to regions as defaults.
func regionDefaults(ctx *Context) map[*ttml.Node]map[ttml.QName]bool {
	if v, ok := ctx.Get(storeRegionDefaults); ok {
		return v.(map[*ttml.Node]map[ttml.QName]bool)
	}
	m := make(map[*ttml.Node]map[ttml.QName]bool)
	ctx.Set(storeRegionDefaults, m)
	return m
}

// IsDefaulted reports whether the value of name on node was written as a
// region default rather than specified in the document.
func IsDefaulted(ctx *Context, node *ttml.Node, name ttml.QName) bool {
	return regionDefaults(ctx)[node][name]
}

// InitialValue returns the initial value of the named style, honoring
// overrides declared by initial elements earlier in the document.
func InitialValue(ctx *Context, name ttml.QName) (string, bool) {
	if v, ok := initialOverrides(ctx)[name]; ok {
		return v, true
	}
	d, ok := StyleTable(ctx.Model).Lookup(name)
	if !ok {
		return "", false
	}
	return d.Initial, true
}

// verifiable reports whether a style value on kind k is checked. Values are
// checked where they apply, where they may be inherited into content, and on
// elements whose purpose is to specify styles.
func verifiable(m *spec.Model, k ttml.Kind, d *Descriptor) bool {
	if d.Applies.Has(k) || styleSpecifiers.Has(k) {
		return true
	}
	return allContent.Has(k) && IsInheritable(m, k, d.Name)
}

// VerifyStyles verifies the style attributes of node and performs the
// element specific style rules: initial overrides, set cardinality and
// region defaults.
func VerifyStyles(ctx *Context, node *ttml.Node) bool {
	table := StyleTable(ctx.Model)
	ok := verifyAttributes(ctx, node, table, hooks{
		skip: func(d *Descriptor) bool {
			if verifiable(ctx.Model, node.Kind, d) {
				return false
			}
			if node.HasAttr(d.Name) && ctx.Reporter.IsWarningEnabled(report.WarnNonApplicableStyle) {
				ctx.info(node.Location, report.StyleNotApplicable, d.Name, node.Name)
			}
			return true
		},
	})

	switch node.Kind {
	case ttml.KindSet:
		if n := len(node.AttrsIn(ttml.NSStyling)); n > 1 {
			ok = ctx.fail(node.Location, report.StyleCardinality, node.Name, n)
		}
	case ttml.KindInitial:
		if ok {
			recordInitial(ctx, node)
		}
	case ttml.KindRegion:
		writeRegionDefaults(ctx, node, table)
	}
	return ok
}

func recordInitial(ctx *Context, node *ttml.Node) {
	overrides := initialOverrides(ctx)
	for _, a := range node.AttrsIn(ttml.NSStyling) {
		if prev, seen := overrides[a.Name]; seen {
			ctx.info(node.Location, report.InitialRedefined, a.Name, prev)
		}
		overrides[a.Name] = a.Value.String()
	}
}

// writeRegionDefaults writes the default of every region style the region
// does not specify. Written names are remembered so that the cascade still
// prefers values received through referential or nested styling.
func writeRegionDefaults(ctx *Context, region *ttml.Node, table *Table) {
	written := regionDefaults(ctx)
	for _, d := range table.Descriptors() {
		if !d.HasDefault || !d.Permitted(region.Kind) {
			continue
		}
		if _, present := d.Access.Get(region); present {
			continue
		}
		d.Access.Set(region, ttml.Text(d.Default))
		if written[region] == nil {
			written[region] = make(map[ttml.QName]bool)
		}
		written[region][d.Name] = true
	}
}

// styledValue returns the value a node receives through referential
// styling, or nested styling for regions.
func styledValue(ctx *Context, node *ttml.Node, name ttml.QName) (string, bool) {
	if v, ok := referencedValue(ctx, node, name, map[*ttml.Node]bool{}); ok {
		return v, true
	}
	if node.Kind != ttml.KindRegion {
		return "", false
	}
	var val string
	var found bool
	for _, s := range node.ElementsOf(ttml.KindStyle) {
		if v, ok := specifiedOrReferenced(ctx, s, name, map[*ttml.Node]bool{}); ok {
			val, found = v, true
		}
	}
	return val, found
}

// referencedValue follows node's style references. Later references take
// precedence over earlier ones.
func referencedValue(ctx *Context, node *ttml.Node, name ttml.QName, visiting map[*ttml.Node]bool) (string, bool) {
	refs, ok := node.Text(ttml.AttrStyle)
	if !ok {
		return "", false
	}
	var val string
	var found bool
	for _, id := range strings.Fields(refs) {
		target, ok := ctx.Element(id)
		if !ok || target.Kind != ttml.KindStyle {
			continue
		}
		if v, ok := specifiedOrReferenced(ctx, target, name, visiting); ok {
			val, found = v, true
		}
	}
	return val, found
}

func specifiedOrReferenced(ctx *Context, s *ttml.Node, name ttml.QName, visiting map[*ttml.Node]bool) (string, bool) {
	if visiting[s] {
		return "", false
	}
	visiting[s] = true
	defer delete(visiting, s)
	if v, ok := s.Text(name); ok {
		return v, true
	}
	return referencedValue(ctx, s, name, visiting)
}

// ComputedStyle resolves the value of a style on node by the cascade:
// specified, referential, nested, inherited, then initial.
func ComputedStyle(ctx *Context, node *ttml.Node, name ttml.QName) (string, bool) {
	if _, ok := StyleTable(ctx.Model).Lookup(name); !ok {
		return "", false
	}
	for n := node; n != nil; n = n.Parent {
		v, specified := n.Text(name)
		if specified && !IsDefaulted(ctx, n, name) {
			return v, true
		}
		if sv, ok := styledValue(ctx, n, name); ok {
			return sv, true
		}
		if specified {
			return v, true
		}
		if !IsInheritable(ctx.Model, n.Kind, name) || !allContent.Has(n.Kind) {
			break
		}
		if n.Kind == ttml.KindBody {
			break
		}
	}
	return InitialValue(ctx, name)
}

// verifyStyleChain reports a style element whose references lead back to
// itself.
func verifyStyleChain(ctx *Context, node *ttml.Node) bool {
	if !node.HasAttr(ttml.AttrStyle) {
		return true
	}
	seen := map[*ttml.Node]bool{}
	var reaches func(n *ttml.Node) bool
	reaches = func(n *ttml.Node) bool {
		refs, _ := n.Text(ttml.AttrStyle)
		for _, id := range strings.Fields(refs) {
			t, ok := ctx.Element(id)
			if !ok || t.Kind != ttml.KindStyle {
				continue
			}
			if t == node {
				return true
			}
			if seen[t] {
				continue
			}
			seen[t] = true
			if reaches(t) {
				return true
			}
		}
		return false
	}
	if reaches(node) {
		return ctx.fail(node.Location, report.StyleReferenceCycle, node.ID())
	}
	return true
}
