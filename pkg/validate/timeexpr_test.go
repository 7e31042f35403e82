package validate

import (
	"math/big"
	"testing"

	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/spec"
	"github.com/adammathes/ttverify/pkg/ttml"
)

func paramsFor(t *testing.T, attrs map[string]string) *Parameters {
	t.Helper()
	root := ttml.Elem(ttml.KindTT)
	for k, v := range attrs {
		root.With(ttp(k), v)
	}
	return ResolveParameters(root)
}

func TestClockTimeWithFrames(t *testing.T) {
	p := paramsFor(t, map[string]string{"frameRate": "25"})
	te, err := ParseTime("00:00:10:15")
	if err != nil {
		t.Fatal(err)
	}
	if got := te.InSeconds(p); got.Cmp(big.NewRat(106, 10)) != 0 {
		t.Errorf("seconds = %s, want 10.6", got.RatString())
	}
	if got := Canonical(te.InSeconds(p)); got != "10.6s" {
		t.Errorf("canonical = %s", got)
	}
}

func TestParseTimeForms(t *testing.T) {
	p := DefaultParameters()
	tests := []struct {
		expr string
		want string
	}{
		{"00:00:01", "1s"},
		{"01:02:03.5", "3723.5s"},
		{"00:00:00:15", "0.5s"},
		{"1.5h", "5400s"},
		{"2m", "120s"},
		{"3s", "3s"},
		{"250ms", "0.25s"},
		{"10f", "0.333333333s"},
		{"7t", "7s"},
		{"0.0000000005s", "0.000000001s"},
	}
	for _, tt := range tests {
		got, err := CanonicalTime(tt.expr, p)
		if err != nil {
			t.Errorf("%s: %v", tt.expr, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s = %s, want %s", tt.expr, got, tt.want)
		}
	}
}

func TestParseTimeRejects(t *testing.T) {
	for _, s := range []string{"", "1", "1x", "-1s", "1:00:00", "00:00", "00:00:00:", "s", "1.s", "00:00:00.5:10"} {
		if _, err := ParseTime(s); err == nil {
			t.Errorf("ParseTime(%q) succeeded", s)
		}
	}
}

func TestLargeClockTimes(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"10000000000000000:00:00", "36000000000000000000s"},
		{"3000000000000000:00:00", "10800000000000000000s"},
		{"3000000000000000:00:00.5", "10800000000000000000.5s"},
	}
	for _, tt := range tests {
		got, err := CanonicalTime(tt.expr, DefaultParameters())
		if err != nil {
			t.Fatalf("%s: %v", tt.expr, err)
		}
		if got != tt.want {
			t.Errorf("CanonicalTime(%q) = %q, want %q", tt.expr, got, tt.want)
		}
	}

	ntsc := paramsFor(t, map[string]string{"frameRate": "30", "frameRateMultiplier": "1000 1001", "dropMode": "dropNTSC", "timeBase": "smpte"})
	te, err := ParseTime("1000000000000000:00:00:00")
	if err != nil {
		t.Fatal(err)
	}
	if te.InSeconds(ntsc).Sign() <= 0 {
		t.Errorf("drop frame time = %s, want positive", te.InSeconds(ntsc).RatString())
	}

	for _, s := range []string{"99999999999999999999:00:00", "00:00:00:99999999999999999999"} {
		if _, err := ParseTime(s); err == nil {
			t.Errorf("ParseTime(%q) succeeded", s)
		}
	}
}

func TestCanonicalIdempotent(t *testing.T) {
	params := []*Parameters{
		DefaultParameters(),
		paramsFor(t, map[string]string{"frameRate": "25", "subFrameRate": "2"}),
		paramsFor(t, map[string]string{"frameRate": "30", "frameRateMultiplier": "1000 1001", "dropMode": "dropNTSC", "timeBase": "smpte"}),
		paramsFor(t, map[string]string{"tickRate": "10000000"}),
	}
	exprs := []string{
		"00:00:10:15", "00:00:10:01.1", "01:10:00:29", "12:34:56.789", "0.1h", "17m",
		"33.333333333s", "1ms", "1234f", "77777t", "00:00:00.0000000001",
	}
	for _, p := range params {
		for _, e := range exprs {
			first, err := CanonicalTime(e, p)
			if err != nil {
				t.Fatalf("%s: %v", e, err)
			}
			second, err := CanonicalTime(first, p)
			if err != nil {
				t.Fatalf("%s -> %s: %v", e, first, err)
			}
			if first != second {
				t.Errorf("%s: canonical %s re-canonicalized to %s", e, first, second)
			}
		}
	}
}

func TestFrameRateDefaultDistinction(t *testing.T) {
	implicit := paramsFor(t, nil)
	explicit := paramsFor(t, map[string]string{"frameRate": "30"})

	te, err := ParseTime("10f")
	if err != nil {
		t.Fatal(err)
	}
	if te.InSeconds(implicit).Cmp(te.InSeconds(explicit)) != 0 {
		t.Errorf("defaulted %s != explicit %s", te.InSeconds(implicit).RatString(), te.InSeconds(explicit).RatString())
	}
	if !implicit.Defaulted(ParamFrameRate) {
		t.Error("implicit frame rate should be defaulted")
	}
	if explicit.Defaulted(ParamFrameRate) {
		t.Error("explicit frame rate should not be defaulted")
	}
}

func TestTickRateFollowsExplicitFrameRate(t *testing.T) {
	te, _ := ParseTime("50t")
	p := paramsFor(t, map[string]string{"frameRate": "25"})
	if got := Canonical(te.InSeconds(p)); got != "2s" {
		t.Errorf("derived tick rate: %s", got)
	}
	p = paramsFor(t, map[string]string{"frameRate": "25", "tickRate": "10"})
	if got := Canonical(te.InSeconds(p)); got != "5s" {
		t.Errorf("explicit tick rate: %s", got)
	}
	if got := Canonical(te.InSeconds(DefaultParameters())); got != "50s" {
		t.Errorf("default tick rate: %s", got)
	}
}

func TestInvalidParametersKeepDefaults(t *testing.T) {
	p := paramsFor(t, map[string]string{"frameRate": "0", "dropMode": "sometimes", "frameRateMultiplier": "1"})
	if p.FrameRate != 30 || !p.Defaulted(ParamFrameRate) {
		t.Errorf("frame rate = %d, defaulted=%v", p.FrameRate, p.Defaulted(ParamFrameRate))
	}
	if p.DropMode != DropNone || !p.Defaulted(ParamDropMode) {
		t.Errorf("drop mode = %s", p.DropMode)
	}
	if p.FrameRateMultiplier.Cmp(big.NewRat(1, 1)) != 0 {
		t.Errorf("multiplier = %s", p.FrameRateMultiplier.RatString())
	}
}

func TestDropFrame(t *testing.T) {
	ntsc := paramsFor(t, map[string]string{
		"timeBase": "smpte", "frameRate": "30", "frameRateMultiplier": "1000 1001", "dropMode": "dropNTSC",
	})
	te, _ := ParseTime("00:01:00:02")
	if got := Canonical(te.InSeconds(ntsc)); got != "60.06s" {
		t.Errorf("dropNTSC 00:01:00:02 = %s, want 60.06s", got)
	}

	dropped, _ := ParseTime("00:01:00:00")
	if !dropped.IsDroppedFrame(DropNTSC) {
		t.Error("00:01:00:00 is a dropped NTSC label")
	}
	tenth, _ := ParseTime("00:10:00:00")
	if tenth.IsDroppedFrame(DropNTSC) {
		t.Error("every tenth minute keeps its first labels")
	}
	pal, _ := ParseTime("00:02:00:03")
	if !pal.IsDroppedFrame(DropPAL) {
		t.Error("00:02:00:03 is a dropped PAL label")
	}
	if pal.IsDroppedFrame(DropNone) {
		t.Error("nothing is dropped without a drop mode")
	}
}

func TestCheckRanges(t *testing.T) {
	p := paramsFor(t, map[string]string{"frameRate": "25", "subFrameRate": "2"})
	for expr, valid := range map[string]bool{
		"00:59:59:24":   true,
		"00:60:00":      false,
		"00:00:60":      false,
		"00:00:00:25":   false,
		"00:00:00:10.1": true,
		"00:00:00:10.2": false,
		"99999h":        true,
	} {
		te, err := ParseTime(expr)
		if err != nil {
			t.Fatalf("%s: %v", expr, err)
		}
		if got := te.CheckRanges(p) == nil; got != valid {
			t.Errorf("%s: valid=%v, want %v", expr, got, valid)
		}
	}
}

func TestVerifyTimingContext(t *testing.T) {
	d := parseDoc(t, presentationProfile+` ttp:timeBase="clock"`,
		`<body><div><p begin="10f" end="00:00:01">x</p></div></body>`)
	r, ok := verify(t, spec.TTML2, d)
	if ok {
		t.Fatal("frames under clock time base accepted")
	}
	if got := r.WithCheckID(report.FramesWithClockBase); len(got) != 1 {
		t.Errorf("messages = %v", r.Messages)
	}
}

func TestEndBeforeBeginWarning(t *testing.T) {
	d := parseDoc(t, presentationProfile, `<body><div><p begin="5s" end="2s">x</p></div></body>`)
	r, ok := verify(t, spec.TTML2, d)
	if !ok {
		t.Errorf("warning should not fail verification: %v", r.Messages)
	}
	got := r.WithCheckID(report.EndBeforeBegin)
	if len(got) != 1 || got[0].Severity != report.Warning {
		t.Fatalf("messages = %v", r.Messages)
	}
	if got[0].Args[0] != "2s" || got[0].Args[1] != "5s" {
		t.Errorf("args = %v", got[0].Args)
	}
}

func TestInlineTimingInBlockContext(t *testing.T) {
	src := `<body><div><span begin="1s">x</span><p><span begin="1s">y</span></p></div></body>`

	r, ok := verify(t, spec.TTML2, parseDoc(t, presentationProfile, src))
	if ok {
		t.Fatal("timed span directly in div accepted")
	}
	got := r.WithCheckID(report.TimingInlineInBlock)
	if len(got) != 1 || got[0].Severity != report.Error {
		t.Errorf("messages = %v", r.Messages)
	}

	r, _ = verify(t, spec.TTML1, parseDoc(t, presentationProfile, src))
	if got := r.WithCheckID(report.TimingInlineInBlock); len(got) != 0 {
		t.Errorf("ttml1 should not apply the inline rule: %v", got)
	}
}

func TestInlineTimingUndeterminedContext(t *testing.T) {
	ctx, rep := newTestContext(spec.TTML2, report.Policy{})
	span := ttml.Elem(ttml.KindSpan).With(ttml.AttrBegin, "1s")
	if !VerifyTiming(ctx, span) {
		t.Errorf("detached span failed: %v", rep.Report().Messages)
	}
	got := rep.Report().WithCheckID(report.TimingInlineInBlock)
	if len(got) != 1 || got[0].Severity != report.Info {
		t.Errorf("messages = %v", rep.Report().Messages)
	}
}
