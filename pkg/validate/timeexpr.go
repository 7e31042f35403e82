package validate

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// TimeForm distinguishes the lexical forms of a time expression.
type TimeForm int

const (
	ClockTime TimeForm = iota + 1
	ClockTimeWithFrames
	OffsetTime
)

// TimeExpression is a parsed begin, end or dur value.
type TimeExpression struct {
	Form TimeForm
	Text string

	// Clock forms.
	Hours, Minutes, Seconds int64
	Fraction                *big.Rat // fractional seconds, clock time only
	Frames                  int64
	SubFrames               int64
	HasSubFrames            bool

	// Offset form.
	Count  *big.Rat
	Metric string
}

var (
	clockRe  = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2})(?:(\.\d+)|:(\d{2,})(?:\.(\d+))?)?$`)
	offsetRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)(h|ms|m|s|f|t)$`)
)

// ParseTime parses a time expression.
func ParseTime(s string) (*TimeExpression, error) {
	if g := clockRe.FindStringSubmatch(s); g != nil {
		t := &TimeExpression{Form: ClockTime, Text: s, Fraction: new(big.Rat)}
		var err error
		if t.Hours, err = atoi64(g[1]); err != nil {
			return nil, fmt.Errorf("time expression %q: hours: %w", s, err)
		}
		t.Minutes, _ = atoi64(g[2])
		t.Seconds, _ = atoi64(g[3])
		switch {
		case g[4] != "":
			if _, ok := t.Fraction.SetString("0" + g[4]); !ok {
				return nil, fmt.Errorf("time expression %q: bad fraction", s)
			}
		case g[5] != "":
			t.Form = ClockTimeWithFrames
			if t.Frames, err = atoi64(g[5]); err != nil {
				return nil, fmt.Errorf("time expression %q: frames: %w", s, err)
			}
			if g[6] != "" {
				if t.SubFrames, err = atoi64(g[6]); err != nil {
					return nil, fmt.Errorf("time expression %q: sub-frames: %w", s, err)
				}
				t.HasSubFrames = true
			}
		}
		return t, nil
	}
	if g := offsetRe.FindStringSubmatch(s); g != nil {
		c, ok := new(big.Rat).SetString(g[1])
		if !ok {
			return nil, fmt.Errorf("time expression %q: bad count", s)
		}
		return &TimeExpression{Form: OffsetTime, Text: s, Count: c, Metric: g[2]}, nil
	}
	return nil, fmt.Errorf("time expression %q: unrecognized syntax", s)
}

func atoi64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// UsesFrames reports whether the expression depends on the frame rate.
func (t *TimeExpression) UsesFrames() bool {
	return t.Form == ClockTimeWithFrames || (t.Form == OffsetTime && t.Metric == "f")
}

// InSeconds converts the expression to seconds using p.
func (t *TimeExpression) InSeconds(p *Parameters) *big.Rat {
	if t.Form == OffsetTime {
		r := new(big.Rat).Set(t.Count)
		switch t.Metric {
		case "h":
			return r.Mul(r, big.NewRat(3600, 1))
		case "m":
			return r.Mul(r, big.NewRat(60, 1))
		case "ms":
			return r.Quo(r, big.NewRat(1000, 1))
		case "f":
			return r.Quo(r, p.EffectiveFrameRate())
		case "t":
			return r.Quo(r, p.EffectiveTickRate())
		}
		return r
	}

	whole := new(big.Int).Mul(big.NewInt(t.Hours), big.NewInt(3600))
	whole.Add(whole, big.NewInt(t.Minutes*60+t.Seconds))
	if t.Form == ClockTime {
		r := new(big.Rat).SetInt(whole)
		return r.Add(r, t.Fraction)
	}

	frames := big.NewRat(t.Frames, 1)
	if t.HasSubFrames {
		frames.Add(frames, big.NewRat(t.SubFrames, int64(p.SubFrameRate)))
	}
	if p.DropMode != DropNone {
		// time code labels are converted to a frame count first
		n := new(big.Int).Mul(whole, big.NewInt(int64(p.FrameRate)))
		n.Sub(n, t.droppedFrames(p.DropMode))
		count := new(big.Rat).SetInt(n)
		count.Add(count, frames)
		return count.Quo(count, p.EffectiveFrameRate())
	}
	frames.Quo(frames, p.EffectiveFrameRate())
	return frames.Add(frames, new(big.Rat).SetInt(whole))
}

// droppedFrames is the number of frame labels skipped before the
// expression's time code.
func (t *TimeExpression) droppedFrames(mode string) *big.Int {
	hh, mm := big.NewInt(t.Hours), t.Minutes
	var perHour, perMinutes, size int64
	switch mode {
	case DropNTSC:
		perHour, perMinutes, size = 54, mm-mm/10, 2
	case DropPAL:
		perHour, perMinutes, size = 27, mm/2-mm/20, 4
	default:
		return new(big.Int)
	}
	n := new(big.Int).Mul(hh, big.NewInt(perHour))
	n.Add(n, big.NewInt(perMinutes))
	return n.Mul(n, big.NewInt(size))
}

// IsDroppedFrame reports whether a clock time with frames names a frame
// label that does not exist under mode.
func (t *TimeExpression) IsDroppedFrame(mode string) bool {
	if t.Form != ClockTimeWithFrames || t.Seconds != 0 {
		return false
	}
	switch mode {
	case DropNTSC:
		return t.Minutes%10 != 0 && t.Frames < 2
	case DropPAL:
		return t.Minutes%2 == 0 && t.Minutes%20 != 0 && t.Frames < 4
	}
	return false
}

// CheckRanges verifies component ranges against p.
func (t *TimeExpression) CheckRanges(p *Parameters) error {
	if t.Form == OffsetTime {
		return nil
	}
	if t.Minutes > 59 {
		return fmt.Errorf("minutes %d out of range", t.Minutes)
	}
	if t.Seconds > 59 {
		return fmt.Errorf("seconds %d out of range", t.Seconds)
	}
	if t.Form == ClockTimeWithFrames {
		if t.Frames >= int64(p.FrameRate) {
			return fmt.Errorf("frames %d not less than frame rate %d", t.Frames, p.FrameRate)
		}
		if t.HasSubFrames && t.SubFrames >= int64(p.SubFrameRate) {
			return fmt.Errorf("sub-frames %d not less than sub-frame rate %d", t.SubFrames, p.SubFrameRate)
		}
	}
	return nil
}

var nanosPerSecond = big.NewInt(1_000_000_000)

// Canonical renders seconds as decimal seconds rounded to the nearest
// nanosecond, e.g. "10.6s".
func Canonical(seconds *big.Rat) string {
	scaled := new(big.Rat).Mul(seconds, new(big.Rat).SetInt(nanosPerSecond))
	num, den := scaled.Num(), scaled.Denom()
	// round half up: (2n + d) / 2d
	q := new(big.Int).Mul(num, big.NewInt(2))
	q.Add(q, den)
	q.Quo(q, new(big.Int).Mul(den, big.NewInt(2)))

	whole, frac := new(big.Int).QuoRem(q, nanosPerSecond, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String() + "s"
	}
	digits := fmt.Sprintf("%09d", frac.Int64())
	return whole.String() + "." + strings.TrimRight(digits, "0") + "s"
}

// CanonicalTime parses s and returns its canonical form under p.
func CanonicalTime(s string, p *Parameters) (string, error) {
	t, err := ParseTime(s)
	if err != nil {
		return "", err
	}
	return Canonical(t.InSeconds(p)), nil
}
