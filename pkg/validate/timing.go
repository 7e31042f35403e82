package validate

import (
	"math/big"
	"strings"

	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/spec"
	"github.com/adammathes/ttverify/pkg/ttml"
)

// Timing parameter names, as used by Parameters.Defaulted.
const (
	ParamFrameRate           = "frameRate"
	ParamFrameRateMultiplier = "frameRateMultiplier"
	ParamSubFrameRate        = "subFrameRate"
	ParamTickRate            = "tickRate"
	ParamDropMode            = "dropMode"
	ParamTimeBase            = "timeBase"
	ParamClockMode           = "clockMode"
	ParamMarkerMode          = "markerMode"
)

// Drop modes and time bases.
const (
	DropNone = "nonDrop"
	DropNTSC = "dropNTSC"
	DropPAL  = "dropPAL"

	TimeBaseMedia = "media"
	TimeBaseSMPTE = "smpte"
	TimeBaseClock = "clock"
)

// Parameters are the resolved timing parameters of a document.
type Parameters struct {
	FrameRate           int
	FrameRateMultiplier *big.Rat
	SubFrameRate        int
	TickRate            int
	DropMode            string
	TimeBase            string
	ClockMode           string
	MarkerMode          string

	explicit map[string]bool
}

// DefaultParameters returns the parameters of a document that sets none.
func DefaultParameters() *Parameters {
	return &Parameters{
		FrameRate:           30,
		FrameRateMultiplier: big.NewRat(1, 1),
		SubFrameRate:        1,
		TickRate:            1,
		DropMode:            DropNone,
		TimeBase:            TimeBaseMedia,
		ClockMode:           "utc",
		MarkerMode:          "discontinuous",
		explicit:            map[string]bool{},
	}
}

// Defaulted reports whether the named parameter took its default value
// because the document did not set it validly.
func (p *Parameters) Defaulted(name string) bool { return !p.explicit[name] }

// EffectiveFrameRate is frameRate × frameRateMultiplier.
func (p *Parameters) EffectiveFrameRate() *big.Rat {
	r := big.NewRat(int64(p.FrameRate), 1)
	return r.Mul(r, p.FrameRateMultiplier)
}

// EffectiveTickRate is the tick rate used for "t" offsets. A defaulted tick
// rate follows an explicit frame rate.
func (p *Parameters) EffectiveTickRate() *big.Rat {
	if p.Defaulted(ParamTickRate) && !p.Defaulted(ParamFrameRate) {
		return big.NewRat(int64(p.FrameRate)*int64(p.SubFrameRate), 1)
	}
	return big.NewRat(int64(p.TickRate), 1)
}

func ttp(local string) ttml.QName { return ttml.Name(ttml.NSParameter, local) }

// ResolveParameters reads the timing parameters declared on root. Values
// that do not parse keep their defaults; they are reported by parameter
// attribute verification.
func ResolveParameters(root *ttml.Node) *Parameters {
	p := DefaultParameters()
	if root == nil {
		return p
	}
	get := func(name string) (string, bool) {
		v, ok := root.Text(ttp(name))
		return strings.TrimSpace(v), ok
	}
	positive := func(name string, dst *int) {
		if s, ok := get(name); ok {
			if n, ok := positiveInteger(s); ok {
				*dst = n
				p.explicit[name] = true
			}
		}
	}
	token := func(name string, dst *string, allowed ...string) {
		s, ok := get(name)
		if !ok {
			return
		}
		for _, a := range allowed {
			if s == a {
				*dst = s
				p.explicit[name] = true
				return
			}
		}
	}

	positive(ParamFrameRate, &p.FrameRate)
	positive(ParamSubFrameRate, &p.SubFrameRate)
	positive(ParamTickRate, &p.TickRate)
	if s, ok := get(ParamFrameRateMultiplier); ok {
		if r, ok := parseRatio(s); ok {
			p.FrameRateMultiplier = r
			p.explicit[ParamFrameRateMultiplier] = true
		}
	}
	token(ParamDropMode, &p.DropMode, DropNone, DropNTSC, DropPAL)
	token(ParamTimeBase, &p.TimeBase, TimeBaseMedia, TimeBaseSMPTE, TimeBaseClock)
	token(ParamClockMode, &p.ClockMode, "local", "gps", "utc")
	token(ParamMarkerMode, &p.MarkerMode, "continuous", "discontinuous")
	return p
}

// parseRatio parses "numerator denominator" with positive integers.
func parseRatio(s string) (*big.Rat, bool) {
	f := strings.Fields(s)
	if len(f) != 2 {
		return nil, false
	}
	n, ok1 := positiveInteger(f[0])
	d, ok2 := positiveInteger(f[1])
	if !ok1 || !ok2 {
		return nil, false
	}
	return big.NewRat(int64(n), int64(d)), true
}

var (
	timedKinds = ttml.Kinds(ttml.KindBody, ttml.KindDiv, ttml.KindP, ttml.KindSpan, ttml.KindBr,
		ttml.KindRegion, ttml.KindSet, ttml.KindAnimate, ttml.KindAudio, ttml.KindImage)
	containerKinds = ttml.Kinds(ttml.KindBody, ttml.KindDiv, ttml.KindP, ttml.KindSpan)
)

// timeValue verifies the grammar and component ranges of a time expression.
var timeValue = VerifierFunc(func(ctx *Context, a Attribute, v ttml.Value) bool {
	s, ok := textOf(v)
	if !ok {
		return true
	}
	t, err := ParseTime(s)
	if err != nil {
		return false
	}
	if err := t.CheckRanges(ctx.Params); err != nil {
		ctx.Log.Debug().Str("attribute", a.Name.String()).Err(err).Msg("time expression out of range")
		return false
	}
	return true
})

var timingTable = NewBuilder("timing", "").Add(
	Descriptor{Name: ttml.AttrBegin, Verifier: timeValue, On: timedKinds},
	Descriptor{Name: ttml.AttrEnd, Verifier: timeValue, On: timedKinds},
	Descriptor{Name: ttml.AttrDur, Verifier: timeValue, On: timedKinds},
	Descriptor{Name: ttml.AttrTimeContainer, Verifier: enumeration("par", "seq"), On: containerKinds},
).MustBuild()

// VerifyTiming verifies the timing attributes of node, then applies the
// checks that depend on the resolved parameters and on node's position.
func VerifyTiming(ctx *Context, node *ttml.Node) bool {
	ok := VerifyAttributes(ctx, node, TimingTable(ctx.Model))

	exprs := map[ttml.QName]*TimeExpression{}
	for _, q := range []ttml.QName{ttml.AttrBegin, ttml.AttrEnd, ttml.AttrDur} {
		s, present := node.Text(q)
		if !present {
			continue
		}
		t, err := ParseTime(s)
		if err != nil {
			continue
		}
		exprs[q] = t
		if t.UsesFrames() && ctx.Params.TimeBase == TimeBaseClock {
			ok = ctx.fail(node.Location, report.FramesWithClockBase, s) && ok
		}
		if t.IsDroppedFrame(ctx.Params.DropMode) {
			ok = ctx.fail(node.Location, report.DroppedFrameReference, s) && ok
		}
	}

	if b, e := exprs[ttml.AttrBegin], exprs[ttml.AttrEnd]; b != nil && e != nil {
		bs, es := b.InSeconds(ctx.Params), e.InSeconds(ctx.Params)
		if es.Cmp(bs) < 0 {
			ok = ctx.warn(report.WarnEndBeforeBegin, node.Location, report.EndBeforeBegin,
				Canonical(es), Canonical(bs)) && ok
		}
	}

	if ctx.Model.Revision() >= spec.TTML2 && len(exprs) > 0 {
		ok = verifyInlineTiming(ctx, node, exprs) && ok
	}
	return ok
}

// verifyInlineTiming flags timing on inline elements placed directly in a
// block container other than a paragraph.
func verifyInlineTiming(ctx *Context, node *ttml.Node, exprs map[ttml.QName]*TimeExpression) bool {
	if !ttml.InlineKinds.Has(node.Kind) {
		return true
	}
	name := firstTimingAttr(exprs)
	if p := node.Parent; p == nil || p.Kind == ttml.KindForeign || p.Kind == ttml.KindUnknown {
		ctx.info(node.Location, report.TimingInlineInBlock, name, node.Name)
		return true
	}
	switch node.Parent.Kind {
	case ttml.KindBody, ttml.KindDiv:
		return ctx.fail(node.Location, report.TimingInlineInBlock, name, node.Name)
	}
	return true
}

func firstTimingAttr(exprs map[ttml.QName]*TimeExpression) ttml.QName {
	for _, q := range []ttml.QName{ttml.AttrBegin, ttml.AttrEnd, ttml.AttrDur} {
		if _, ok := exprs[q]; ok {
			return q
		}
	}
	return ttml.QName{}
}
