// Command ttfuzz generates randomized synthetic TTML documents with injected
// faults and optionally checks that ttverify reports every one of them.
package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	flag "github.com/spf13/pflag"

	"github.com/adammathes/ttverify/pkg/validate"
)

// Fault describes a single mutation applied to a generated document.
type Fault struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Expect      string `json:"expect"`
}

// DocSpec describes the parameters used to generate a document.
type DocSpec struct {
	ID            int     `json:"id"`
	Revision      int     `json:"revision"`
	Faults        []Fault `json:"faults"`
	Filename      string  `json:"filename"`
	NumParagraphs int     `json:"num_paragraphs"`
}

// faultFunc mutates a document builder to inject a fault.
type faultFunc struct {
	name        string
	description string
	expect      string // message key the fault must produce
	revision    int    // 0 for both revisions
	weight      int    // relative probability weight
	apply       func(b *ttmlBuilder, rng *rand.Rand)
}

var allFaults = []faultFunc{
	// === Document faults ===
	{
		name:        "malformed_xml",
		description: "Leave an element unclosed",
		expect:      "DOC-001",
		weight:      1,
		apply: func(b *ttmlBuilder, rng *rand.Rand) {
			b.malformed = true
		},
	},
	{
		name:        "unknown_element",
		description: "Add an element unknown to the TT namespace",
		expect:      "ELT-001",
		weight:      3,
		apply: func(b *ttmlBuilder, rng *rand.Rand) {
			options := []string{"blink", "marquee", "paragraph", "caption"}
			b.unknownElement = options[rng.Intn(len(options))]
		},
	},
	{
		name:        "initial_in_ttml1",
		description: "Use the initial element in a TTML1 document",
		expect:      "ELT-001",
		revision:    1,
		weight:      2,
		apply: func(b *ttmlBuilder, rng *rand.Rand) {
			b.initial = true
		},
	},
	{
		name:        "unknown_attribute",
		description: "Put an unqualified attribute on a paragraph",
		expect:      "ATT-005",
		weight:      2,
		apply: func(b *ttmlBuilder, rng *rand.Rand) {
			b.unknownAttribute = true
		},
	},

	// === Identifier faults ===
	{
		name:        "duplicate_id",
		description: "Reuse the region identifier on a division",
		expect:      "ATT-007",
		weight:      3,
		apply: func(b *ttmlBuilder, rng *rand.Rand) {
			b.divID = "r1"
		},
	},
	{
		name:        "dangling_region",
		description: "Reference a region that does not exist",
		expect:      "ATT-008",
		weight:      3,
		apply: func(b *ttmlBuilder, rng *rand.Rand) {
			b.paragraphRegion = "nowhere"
		},
	},

	// === Styling faults ===
	{
		name:        "invalid_color",
		description: "Use an unrecognized named color",
		expect:      "ATT-004",
		weight:      4,
		apply: func(b *ttmlBuilder, rng *rand.Rand) {
			options := []string{"blurple", "#12345", "rgb(1,2)"}
			b.color = options[rng.Intn(len(options))]
		},
	},
	{
		name:        "invalid_extent",
		description: "Give the region a negative extent",
		expect:      "ATT-004",
		weight:      3,
		apply: func(b *ttmlBuilder, rng *rand.Rand) {
			options := []string{"-5px 10px", "wide"}
			b.extent = options[rng.Intn(len(options))]
		},
	},
	{
		name:        "style_cycle",
		description: "Make two styles reference each other",
		expect:      "STY-003",
		weight:      2,
		apply: func(b *ttmlBuilder, rng *rand.Rand) {
			b.styleCycle = true
		},
	},

	// === Timing faults ===
	{
		name:        "end_before_begin",
		description: "Swap begin and end on a paragraph",
		expect:      "TIM-002",
		weight:      4,
		apply: func(b *ttmlBuilder, rng *rand.Rand) {
			b.swapTimes = true
		},
	},
	{
		name:        "frames_with_clock_base",
		description: "Use a frame count under the clock time base",
		expect:      "TIM-003",
		weight:      2,
		apply: func(b *ttmlBuilder, rng *rand.Rand) {
			b.clockFrames = true
		},
	},
	{
		name:        "timed_span_in_div",
		description: "Put a timed span directly inside a division",
		expect:      "TIM-005",
		revision:    2,
		weight:      2,
		apply: func(b *ttmlBuilder, rng *rand.Rand) {
			b.spanInDiv = true
		},
	},

	// === Profile faults ===
	{
		name:        "omit_profile",
		description: "Declare no profile",
		expect:      "PRF-005",
		weight:      3,
		apply: func(b *ttmlBuilder, rng *rand.Rand) {
			b.omitProfile = true
		},
	},

	// === Metadata faults ===
	{
		name:        "actor_outside_character",
		description: "Place ttm:actor in an agent of type group",
		expect:      "MET-001",
		weight:      2,
		apply: func(b *ttmlBuilder, rng *rand.Rand) {
			b.actorInGroup = true
		},
	},
	{
		name:        "empty_agent_name",
		description: "Leave ttm:name blank",
		expect:      "MET-003",
		weight:      2,
		apply: func(b *ttmlBuilder, rng *rand.Rand) {
			b.agentName = "   "
		},
	},
}

type ttmlBuilder struct {
	revision      int
	numParagraphs int

	malformed        bool
	unknownElement   string
	initial          bool
	unknownAttribute bool
	divID            string
	paragraphRegion  string
	color            string
	extent           string
	styleCycle       bool
	swapTimes        bool
	clockFrames      bool
	spanInDiv        bool
	omitProfile      bool
	actorInGroup     bool
	agentName        string
}

func newBuilder(revision, numParagraphs int) *ttmlBuilder {
	return &ttmlBuilder{
		revision:        revision,
		numParagraphs:   numParagraphs,
		paragraphRegion: "r1",
		color:           "yellow",
		extent:          "80% 15%",
		agentName:       "Sam Reader",
	}
}

func (b *ttmlBuilder) build() []byte {
	var s strings.Builder
	s.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	s.WriteString(`<tt xmlns="http://www.w3.org/ns/ttml"` +
		` xmlns:tts="http://www.w3.org/ns/ttml#styling"` +
		` xmlns:ttp="http://www.w3.org/ns/ttml#parameter"` +
		` xmlns:ttm="http://www.w3.org/ns/ttml#metadata"` +
		` xml:lang="en"`)
	switch {
	case b.revision == 2:
		s.WriteString(` ttp:version="2"`)
		if !b.omitProfile {
			s.WriteString(` ttp:contentProfiles="http://www.w3.org/ns/ttml/profile/ttml2-presentation"`)
		}
	case !b.omitProfile:
		s.WriteString(` ttp:profile="http://www.w3.org/ns/ttml/profile/dfxp-presentation"`)
	}
	if b.clockFrames {
		s.WriteString(` ttp:timeBase="clock"`)
	}
	s.WriteString(">\n")

	s.WriteString("  <head>\n    <metadata>\n")
	fmt.Fprintf(&s, "      <ttm:agent xml:id=\"narrator\" type=\"person\"><ttm:name type=\"full\">%s</ttm:name></ttm:agent>\n", b.agentName)
	if b.actorInGroup {
		s.WriteString("      <ttm:agent xml:id=\"crew\" type=\"group\"><ttm:name type=\"full\">Crew</ttm:name><ttm:actor agent=\"narrator\"/></ttm:agent>\n")
	}
	s.WriteString("    </metadata>\n    <styling>\n")
	if b.initial {
		s.WriteString("      <initial tts:color=\"white\"/>\n")
	}
	fmt.Fprintf(&s, "      <style xml:id=\"s1\" tts:color=\"%s\"/>\n", b.color)
	if b.styleCycle {
		s.WriteString("      <style xml:id=\"s2\" style=\"s3\"/>\n      <style xml:id=\"s3\" style=\"s2\"/>\n")
	}
	s.WriteString("    </styling>\n    <layout>\n")
	fmt.Fprintf(&s, "      <region xml:id=\"r1\" tts:origin=\"10%% 80%%\" tts:extent=\"%s\"/>\n", b.extent)
	s.WriteString("    </layout>\n  </head>\n")

	s.WriteString("  <body style=\"s1\">\n")
	if b.divID != "" {
		fmt.Fprintf(&s, "    <div xml:id=\"%s\">\n", b.divID)
	} else {
		s.WriteString("    <div>\n")
	}
	if b.spanInDiv {
		s.WriteString("      <span begin=\"1s\">Loose</span>\n")
	}
	if b.clockFrames {
		s.WriteString("      <p region=\"r1\" begin=\"0s\" end=\"10f\">Frames</p>\n")
	}
	if b.unknownElement != "" {
		fmt.Fprintf(&s, "      <%s>Unknown</%s>\n", b.unknownElement, b.unknownElement)
	}
	for i := 0; i < b.numParagraphs; i++ {
		begin, end := fmt.Sprintf("%ds", 2*i+1), fmt.Sprintf("%ds", 2*i+2)
		if b.swapTimes && i == 0 {
			begin, end = end, begin
		}
		extra := ""
		if b.unknownAttribute && i == 0 {
			extra = ` emphasis="strong"`
		}
		fmt.Fprintf(&s, "      <p region=\"%s\" begin=\"%s\" end=\"%s\" ttm:agent=\"narrator\"%s>Line %d</p>\n",
			b.paragraphRegion, begin, end, extra, i+1)
	}
	if !b.malformed {
		s.WriteString("    </div>\n")
	}
	s.WriteString("  </body>\n</tt>\n")
	return []byte(s.String())
}

func generateDocument(id int, rng *rand.Rand, baseline bool) (*DocSpec, []byte) {
	// 50% each revision
	revision := 1
	if rng.Float64() < 0.5 {
		revision = 2
	}
	numParagraphs := 1 + rng.Intn(6)
	b := newBuilder(revision, numParagraphs)

	spec := &DocSpec{
		ID:            id,
		Revision:      revision,
		NumParagraphs: numParagraphs,
		Filename:      fmt.Sprintf("synth_%03d.ttml", id),
	}
	if baseline {
		return spec, b.build()
	}

	// 15% valid, 45% one fault, 30% two, 10% three
	r := rng.Float64()
	var numFaults int
	switch {
	case r < 0.15:
		numFaults = 0
	case r < 0.60:
		numFaults = 1
	case r < 0.90:
		numFaults = 2
	default:
		numFaults = 3
	}

	var applicable []faultFunc
	for _, f := range allFaults {
		if f.revision == 0 || f.revision == revision {
			applicable = append(applicable, f)
		}
	}

	used := map[string]bool{}
	for i := 0; i < numFaults; i++ {
		total := 0
		for _, f := range applicable {
			if !used[f.name] {
				total += f.weight
			}
		}
		if total == 0 {
			break
		}
		pick := rng.Intn(total)
		cumulative := 0
		for _, f := range applicable {
			if used[f.name] {
				continue
			}
			cumulative += f.weight
			if pick < cumulative {
				used[f.name] = true
				f.apply(b, rng)
				spec.Faults = append(spec.Faults, Fault{Name: f.name, Description: f.description, Expect: f.expect})
				// A malformed document hides every other fault.
				if f.name == "malformed_xml" {
					for _, g := range applicable {
						used[g.name] = true
					}
				} else {
					used["malformed_xml"] = true
				}
				break
			}
		}
	}
	return spec, b.build()
}

// check validates the generated document and returns the expected keys
// that were not reported.
func check(path string, spec DocSpec) ([]string, error) {
	rpt, err := validate.Validate(path)
	if err != nil {
		return nil, err
	}
	var got []string
	for _, m := range rpt.Messages {
		got = append(got, m.CheckID)
	}
	var missing []string
	for _, f := range spec.Faults {
		if !slices.Contains(got, f.Expect) {
			missing = append(missing, f.Expect)
		}
	}
	if len(spec.Faults) == 0 && !rpt.IsValid() {
		missing = append(missing, "valid")
	}
	return missing, nil
}

func main() {
	count := flag.IntP("count", "n", 100, "number of documents to generate")
	outDir := flag.StringP("out", "o", "testdata/synthetic", "output directory")
	seed := flag.Int64("seed", 42, "random seed")
	baseline := flag.Bool("baseline", false, "generate fault free documents only")
	verify := flag.Bool("check", false, "validate each document and report missed faults")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", *outDir, err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(*seed))

	var specs []DocSpec
	misses := 0
	for i := 1; i <= *count; i++ {
		spec, data := generateDocument(i, rng, *baseline)

		path := filepath.Join(*outDir, spec.Filename)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", path, err)
			os.Exit(1)
		}
		specs = append(specs, *spec)

		faultNames := make([]string, len(spec.Faults))
		for j, f := range spec.Faults {
			faultNames[j] = f.Name
		}
		faultStr := "valid (no faults)"
		if len(faultNames) > 0 {
			faultStr = strings.Join(faultNames, ", ")
		}
		status := ""
		if *verify {
			missing, err := check(path, *spec)
			switch {
			case err != nil:
				status = " ERROR " + err.Error()
				misses++
			case len(missing) > 0:
				status = " MISSED " + strings.Join(missing, ",")
				misses++
			default:
				status = " ok"
			}
		}
		fmt.Printf("[%3d] %s ttml%d %dp: %s%s\n", i, spec.Filename, spec.Revision, spec.NumParagraphs, faultStr, status)
	}

	manifestPath := filepath.Join(*outDir, "manifest.json")
	manifestData, err := json.MarshalIndent(specs, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode manifest: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(manifestPath, manifestData, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write manifest: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nGenerated %d documents in %s\n", *count, *outDir)
	fmt.Printf("Manifest: %s\n", manifestPath)
	if misses > 0 {
		fmt.Printf("%d documents did not produce their expected messages\n", misses)
		os.Exit(1)
	}
}
