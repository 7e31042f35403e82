package validate

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/spec"
	"github.com/adammathes/ttverify/pkg/ttml"
)

// Profile types.
const (
	ProfileContent   = "content"
	ProfileProcessor = "processor"
)

// Combination methods for nested profiles.
const (
	CombineReplace          = "replace"
	CombineLeastRestrictive = "leastRestrictive"
	CombineMostRestrictive  = "mostRestrictive"
)

// ResolveDesignation resolves a feature or extension designation against
// base. Absolute designations are returned unchanged.
func ResolveDesignation(base, designation string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(designation))
	if err != nil {
		return "", fmt.Errorf("designation %q: %w", designation, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("designation base %q: %w", base, err)
	}
	return b.ResolveReference(ref).String(), nil
}

// designationBase returns the base for designations in a features or
// extensions container.
func designationBase(m *spec.Model, container *ttml.Node) string {
	if b, ok := container.Text(ttml.XMLBase); ok && strings.TrimSpace(b) != "" {
		return strings.TrimSpace(b)
	}
	if container.Kind == ttml.KindExtensions {
		return m.Namespaces().Extension
	}
	return m.Namespaces().Feature
}

// profileElements returns the top level profile elements of the document.
func profileElements(root *ttml.Node) []*ttml.Node {
	var out []*ttml.Node
	for _, h := range root.ElementsOf(ttml.KindHead) {
		out = append(out, h.ElementsOf(ttml.KindProfile)...)
	}
	return out
}

var profileAttributes = []string{"profile", "contentProfiles", "processorProfiles"}

// verifyProfileDeclarations checks how the document declares the profiles
// it conforms to.
func verifyProfileDeclarations(ctx *Context, root *ttml.Node) bool {
	ok := true
	elements := profileElements(root)
	var attrs []ttml.QName
	for _, name := range profileAttributes {
		if d, has := ParameterTable(ctx.Model).Lookup(ttp(name)); has && root.HasAttr(d.Name) {
			attrs = append(attrs, d.Name)
		}
	}

	switch {
	case len(elements) > 0 && root.HasAttr(ttp("profile")):
		ok = ctx.warn(report.WarnIgnoredProfileAttribute, root.Location, report.IgnoredProfileAttr) && ok
	case len(elements) == 0 && len(attrs) == 0:
		ok = ctx.warn(report.WarnMissingProfile, root.Location, report.MissingProfile) && ok
	}

	for _, q := range attrs {
		v, _ := root.Text(q)
		for _, d := range designators(v) {
			ok = verifyProfileDesignator(ctx, root, d) && ok
		}
	}
	return ok
}

// designators splits a profile designator list, unwrapping all(...) and
// any(...).
func designators(v string) []string {
	v = strings.TrimSpace(v)
	for _, fn := range []string{"all(", "any("} {
		if strings.HasPrefix(v, fn) && strings.HasSuffix(v, ")") {
			v = v[len(fn) : len(v)-1]
		}
	}
	return strings.Fields(v)
}

func verifyProfileDesignator(ctx *Context, node *ttml.Node, d string) bool {
	u, err := url.Parse(d)
	if err != nil || !u.IsAbs() {
		return ctx.fail(node.Location, report.RelativeDesignator, d)
	}
	if ctx.Model.IsStandardProfile(d) {
		return true
	}
	return ctx.warn(report.WarnUnknownProfile, node.Location, report.UnknownProfile, d)
}

// ProfileType returns the type of a profile element. Nested profiles
// without a type take their parent's; top level ones are processor
// profiles.
func ProfileType(p *ttml.Node) string {
	if t, ok := p.Text(ttml.AttrType); ok {
		return strings.TrimSpace(t)
	}
	if p.Parent != nil && p.Parent.Kind == ttml.KindProfile {
		return ProfileType(p.Parent)
	}
	return ProfileProcessor
}

// ProfileCombine returns how a profile combines its nested profiles.
func ProfileCombine(p *ttml.Node) string {
	if c, ok := p.Text(ttml.AttrCombine); ok {
		return strings.TrimSpace(c)
	}
	return CombineReplace
}

// verifyProfileElement checks a profile element's designator and its type
// against an enclosing profile.
func verifyProfileElement(ctx *Context, node *ttml.Node) bool {
	ok := true
	if use, has := node.Text(ttml.AttrUse); has {
		ok = verifyProfileDesignator(ctx, node, strings.TrimSpace(use)) && ok
	}
	if parent := node.Parent; parent != nil && parent.Kind == ttml.KindProfile {
		if pt, ct := ProfileType(parent), ProfileType(node); pt != ct {
			ok = ctx.fail(node.Location, report.ProfileTypeMismatch, ct, pt) && ok
		}
	}
	return ok
}

// verifyDesignations checks every feature or extension designation in a
// features or extensions container.
func verifyDesignations(ctx *Context, container *ttml.Node) bool {
	child := ttml.KindFeature
	if container.Kind == ttml.KindExtensions {
		child = ttml.KindExtension
	}
	base := designationBase(ctx.Model, container)
	seen := map[string]bool{}
	ok := true
	for _, e := range container.ElementsOf(child) {
		value := strings.TrimSpace(e.TextContent())
		resolved, err := ResolveDesignation(base, value)
		if err != nil || !ctx.Model.IsDesignation(resolved) {
			ok = ctx.fail(e.Location, report.BadDesignation, value, base) && ok
			continue
		}
		if seen[resolved] {
			ok = ctx.warnAlways(e.Location, report.DuplicateDesignation, resolved) && ok
		}
		seen[resolved] = true
	}
	return ok
}

// Designation values.
const (
	ValueOptional   = "optional"
	ValueRequired   = "required"
	ValueProhibited = "prohibited"
	ValueUse        = "use"
)

// EffectiveFeatures returns the resolved designations of profile and its
// nested profiles mapped to their values. Nested profiles are merged using
// the profile's combine method.
func EffectiveFeatures(m *spec.Model, profile *ttml.Node) map[string]string {
	out := map[string]string{}
	for _, container := range profile.Elements() {
		if container.Kind != ttml.KindFeatures && container.Kind != ttml.KindExtensions {
			continue
		}
		base := designationBase(m, container)
		for _, e := range container.Elements() {
			if e.Kind != ttml.KindFeature && e.Kind != ttml.KindExtension {
				continue
			}
			resolved, err := ResolveDesignation(base, e.TextContent())
			if err != nil {
				continue
			}
			v, ok := e.Text(ttml.AttrValue)
			if !ok {
				v = ValueRequired
			}
			out[resolved] = strings.TrimSpace(v)
		}
	}
	method := ProfileCombine(profile)
	for _, nested := range profile.ElementsOf(ttml.KindProfile) {
		for d, v := range EffectiveFeatures(m, nested) {
			prev, has := out[d]
			if !has {
				out[d] = v
				continue
			}
			out[d] = combineValues(method, prev, v)
		}
	}
	return out
}

var restrictiveness = map[string]int{
	ValueOptional:   0,
	ValueUse:        1,
	ValueRequired:   2,
	ValueProhibited: 2,
}

func combineValues(method, prev, next string) string {
	switch method {
	case CombineLeastRestrictive:
		if restrictiveness[next] < restrictiveness[prev] {
			return next
		}
		return prev
	case CombineMostRestrictive:
		if restrictiveness[next] > restrictiveness[prev] {
			return next
		}
		return prev
	}
	return next
}
