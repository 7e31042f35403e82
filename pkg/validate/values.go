package validate

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"

	"github.com/adammathes/ttverify/pkg/spec"
	"github.com/adammathes/ttverify/pkg/ttml"
)

// Lexical grammars shared by the value verifiers.
var (
	lengthRe  = regexp.MustCompile(`^([+-]?)(\d+(?:\.\d+)?|\.\d+)(px|em|c|%|rw|rh)$`)
	numberRe  = regexp.MustCompile(`^[+-]?(\d+(?:\.\d+)?|\.\d+)$`)
	integerRe = regexp.MustCompile(`^[+-]?\d+$`)
	ncNameRe  = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_.\-\p{Mn}\p{Mc}]*$`)
	hexColor  = regexp.MustCompile(`^#([0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)
	rgbColor  = regexp.MustCompile(`^rgb\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*\)$`)
	rgbaColor = regexp.MustCompile(`^rgba\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*\)$`)
)

var namedColors = map[string]bool{
	"transparent": true, "black": true, "silver": true, "gray": true, "white": true,
	"maroon": true, "red": true, "purple": true, "fuchsia": true, "magenta": true,
	"green": true, "lime": true, "olive": true, "yellow": true, "navy": true,
	"blue": true, "teal": true, "aqua": true, "cyan": true,
}

var genericFamilies = map[string]bool{
	"default": true, "monospace": true, "sansSerif": true, "serif": true,
	"monospaceSansSerif": true, "monospaceSerif": true,
	"proportionalSansSerif": true, "proportionalSerif": true,
}

// Length is a parsed length expression.
type Length struct {
	Value    float64
	Unit     string
	Negative bool
}

// parseLength parses a scalar or percentage length. Root-relative units are
// only accepted by revisions that define them.
func parseLength(m *spec.Model, s string) (Length, bool) {
	g := lengthRe.FindStringSubmatch(s)
	if g == nil {
		return Length{}, false
	}
	if (g[3] == "rw" || g[3] == "rh") && m.Revision() < spec.TTML2 {
		return Length{}, false
	}
	f, err := strconv.ParseFloat(g[2], 64)
	if err != nil {
		return Length{}, false
	}
	neg := g[1] == "-"
	if neg {
		f = -f
	}
	return Length{Value: f, Unit: g[3], Negative: neg}, true
}

func nonNegativeLength(m *spec.Model, s string) bool {
	l, ok := parseLength(m, s)
	return ok && !l.Negative
}

func isColor(s string) bool {
	if namedColors[s] || hexColor.MatchString(s) {
		return true
	}
	var g []string
	if g = rgbColor.FindStringSubmatch(s); g == nil {
		g = rgbaColor.FindStringSubmatch(s)
	}
	if g == nil {
		return false
	}
	for _, c := range g[1:] {
		if n, err := strconv.Atoi(c); err != nil || n > 255 {
			return false
		}
	}
	return true
}

func isNumber(s string) bool { return numberRe.MatchString(s) }

func isInteger(s string) bool { return integerRe.MatchString(s) }

func positiveInteger(s string) (int, bool) {
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// isNCName reports whether s is an XML non-colonized name.
func isNCName(s string) bool { return ncNameRe.MatchString(s) }

// textOf returns the lexical form of v, or ok=false for structured values
// that a text grammar cannot judge.
func textOf(v ttml.Value) (string, bool) {
	t, ok := v.(ttml.Text)
	return string(t), ok
}

// text adapts a predicate over lexical values. Structured values pass.
func text(pred func(m *spec.Model, s string) bool) ValueVerifier {
	return VerifierFunc(func(ctx *Context, a Attribute, v ttml.Value) bool {
		s, ok := textOf(v)
		if !ok {
			return true
		}
		return pred(a.Model, s)
	})
}

// enumeration accepts exactly one of the given tokens.
func enumeration(tokens ...string) ValueVerifier {
	allowed := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		allowed[t] = true
	}
	return text(func(_ *spec.Model, s string) bool { return allowed[s] })
}

var (
	anyText    = text(func(*spec.Model, string) bool { return true })
	colorValue = text(func(_ *spec.Model, s string) bool { return isColor(s) })
	ncName     = text(func(_ *spec.Model, s string) bool { return isNCName(s) })
)

// idrefs accepts a whitespace separated list of NCNames.
var idrefs = text(func(_ *spec.Model, s string) bool {
	f := strings.Fields(s)
	if len(f) == 0 {
		return false
	}
	for _, id := range f {
		if !isNCName(id) {
			return false
		}
	}
	return true
})

var uriValue = text(func(_ *spec.Model, s string) bool {
	_, err := url.Parse(s)
	return err == nil
})

var languageValue = text(func(_ *spec.Model, s string) bool {
	if s == "" {
		return true
	}
	_, err := language.Parse(s)
	return err == nil
})

// lengthPair accepts "auto" (when allowed) or two lengths.
func lengthPair(auto bool, nonNegative bool, keywords ...string) ValueVerifier {
	return text(func(m *spec.Model, s string) bool {
		if auto && s == "auto" {
			return true
		}
		for _, k := range keywords {
			if s == k {
				return true
			}
		}
		f := strings.Fields(s)
		if len(f) != 2 {
			return false
		}
		for _, c := range f {
			l, ok := parseLength(m, c)
			if !ok || (nonNegative && l.Negative) {
				return false
			}
		}
		return true
	})
}

var paddingValue = text(func(m *spec.Model, s string) bool {
	f := strings.Fields(s)
	if len(f) < 1 || len(f) > 4 {
		return false
	}
	for _, c := range f {
		if !nonNegativeLength(m, c) {
			return false
		}
	}
	return true
})

var fontSizeValue = text(func(m *spec.Model, s string) bool {
	f := strings.Fields(s)
	if len(f) < 1 || len(f) > 2 {
		return false
	}
	for _, c := range f {
		l, ok := parseLength(m, c)
		if !ok || l.Negative || l.Value == 0 {
			return false
		}
	}
	return true
})

var lineHeightValue = text(func(m *spec.Model, s string) bool {
	return s == "normal" || nonNegativeLength(m, s)
})

// fontFamilyValue accepts a comma separated list of family names. Quoted
// names may contain commas; unquoted names are whitespace separated
// identifiers.
var fontFamilyValue = text(func(_ *spec.Model, s string) bool {
	items, ok := splitFamilies(s)
	if !ok || len(items) == 0 {
		return false
	}
	for _, it := range items {
		if it == "" {
			return false
		}
	}
	return true
})

func splitFamilies(s string) ([]string, bool) {
	var out []string
	var cur strings.Builder
	var quote rune
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			cur.WriteRune(r)
		case r == ',':
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if quote != 0 {
		return nil, false
	}
	return append(out, strings.TrimSpace(cur.String())), true
}

var opacityValue = text(func(_ *spec.Model, s string) bool {
	if !isNumber(s) {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && f >= 0 && f <= 1
})

var zIndexValue = text(func(_ *spec.Model, s string) bool {
	return s == "auto" || isInteger(s)
})

// textDecorationValue accepts "none" or a set of decorations with at most
// one token from each group.
var textDecorationValue = text(func(_ *spec.Model, s string) bool {
	if s == "none" {
		return true
	}
	groups := map[string]string{
		"underline": "u", "noUnderline": "u",
		"lineThrough": "l", "noLineThrough": "l",
		"overline": "o", "noOverline": "o",
	}
	seen := map[string]bool{}
	f := strings.Fields(s)
	if len(f) == 0 {
		return false
	}
	for _, t := range f {
		g, ok := groups[t]
		if !ok || seen[g] {
			return false
		}
		seen[g] = true
	}
	return true
})

// textOutlineValue accepts "none" or [color] thickness [blur].
var textOutlineValue = text(func(m *spec.Model, s string) bool {
	if s == "none" {
		return true
	}
	f := strings.Fields(s)
	if len(f) > 0 && isColor(f[0]) {
		f = f[1:]
	}
	if len(f) < 1 || len(f) > 2 {
		return false
	}
	for _, c := range f {
		if !nonNegativeLength(m, c) {
			return false
		}
	}
	return true
})

// textShadowValue accepts "none" or comma separated shadows of the form
// x y [blur] [color].
var textShadowValue = text(func(m *spec.Model, s string) bool {
	if s == "none" {
		return true
	}
	for _, shadow := range strings.Split(s, ",") {
		f := strings.Fields(shadow)
		if len(f) > 0 && isColor(f[len(f)-1]) {
			f = f[:len(f)-1]
		}
		if len(f) < 2 || len(f) > 3 {
			return false
		}
		for i, c := range f {
			l, ok := parseLength(m, c)
			if !ok || (i == 2 && l.Negative) {
				return false
			}
		}
	}
	return true
})

var positionKeywords = map[string]bool{
	"left": true, "center": true, "right": true, "top": true, "bottom": true,
}

// positionValue accepts one to four components, each a keyword or a length.
var positionValue = text(func(m *spec.Model, s string) bool {
	f := strings.Fields(s)
	if len(f) < 1 || len(f) > 4 {
		return false
	}
	for _, c := range f {
		if positionKeywords[c] {
			continue
		}
		if _, ok := parseLength(m, c); !ok {
			return false
		}
	}
	return true
})

var autoOrLength = text(func(m *spec.Model, s string) bool {
	if s == "auto" {
		return true
	}
	_, ok := parseLength(m, s)
	return ok
})

var normalOrLength = text(func(m *spec.Model, s string) bool {
	if s == "normal" {
		return true
	}
	_, ok := parseLength(m, s)
	return ok
})

var percentageValue = text(func(m *spec.Model, s string) bool {
	l, ok := parseLength(m, s)
	return ok && l.Unit == "%"
})

var nonNegativeNumber = text(func(_ *spec.Model, s string) bool {
	if !isNumber(s) {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && f >= 0
})

var imageValue = text(func(_ *spec.Model, s string) bool {
	if s == "none" {
		return true
	}
	_, err := url.Parse(s)
	return err == nil
})

// textEmphasisValue accepts "none", "auto" or style, color and position
// tokens in any order, each at most once.
var textEmphasisValue = text(func(_ *spec.Model, s string) bool {
	if s == "none" || s == "auto" {
		return true
	}
	styles := map[string]bool{
		"filled": true, "open": true, "circle": true, "dot": true, "sesame": true,
	}
	positions := map[string]bool{"before": true, "after": true, "outside": true}
	var haveColor, havePos bool
	for _, t := range strings.Fields(s) {
		switch {
		case styles[t]:
		case positions[t] && !havePos:
			havePos = true
		case isColor(t) && !haveColor:
			haveColor = true
		case t == "current":
		case strings.HasPrefix(t, `"`) && strings.HasSuffix(t, `"`) && len(t) > 2:
		default:
			return false
		}
	}
	return true
})
