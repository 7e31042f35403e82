// generate-test-ttml.go creates TTML documents of various sizes for benchmarking.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type corpusSize struct {
	name     string
	divs     int
	parasPer int
}

var sizes = []corpusSize{
	{"tiny-1div", 1, 5},
	{"small-5div", 5, 20},
	{"medium-20div", 20, 50},
	{"large-50div", 50, 100},
	{"xlarge-100div", 100, 200},
}

func main() {
	dir := "benchmarks/corpus"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir %s: %v\n", dir, err)
		os.Exit(1)
	}

	for _, s := range sizes {
		path := filepath.Join(dir, s.name+".ttml")
		if err := os.WriteFile(path, []byte(generateTTML(s.divs, s.parasPer)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s: %v\n", path, err)
			os.Exit(1)
		}
		fi, _ := os.Stat(path)
		fmt.Printf("Generated %s (%d KB)\n", path, fi.Size()/1024)
	}
}

var loremLines = []string{
	"Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
	"Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.",
	"Ut enim ad minim veniam, quis nostrud exercitation ullamco.",
	"Duis aute irure dolor in reprehenderit in voluptate velit esse.",
	"Excepteur sint occaecat cupidatat non proident.",
}

// generateTTML builds a TTML1 presentation document with divs divisions of
// parasPer timed paragraphs each, cycling through regions and styles.
func generateTTML(divs, parasPer int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<tt xmlns="http://www.w3.org/ns/ttml"
    xmlns:tts="http://www.w3.org/ns/ttml#styling"
    xmlns:ttp="http://www.w3.org/ns/ttml#parameter"
    xmlns:ttm="http://www.w3.org/ns/ttml#metadata"
    xml:lang="en"
    ttp:profile="http://www.w3.org/ns/ttml/profile/dfxp-presentation"
    ttp:frameRate="25">
  <head>
    <metadata>
      <ttm:title>Benchmark</ttm:title>
      <ttm:agent xml:id="speaker1" type="person"><ttm:name type="full">First Speaker</ttm:name></ttm:agent>
      <ttm:agent xml:id="speaker2" type="person"><ttm:name type="full">Second Speaker</ttm:name></ttm:agent>
    </metadata>
    <styling>
      <style xml:id="base" tts:fontFamily="proportionalSansSerif"/>
      <style xml:id="yellow" style="base" tts:color="yellow"/>
      <style xml:id="white" style="base" tts:color="white" tts:fontStyle="italic"/>
    </styling>
    <layout>
      <region xml:id="top" tts:origin="10% 5%" tts:extent="80% 15%" tts:displayAlign="before"/>
      <region xml:id="bottom" tts:origin="10% 80%" tts:extent="80% 15%" tts:displayAlign="after"/>
    </layout>
  </head>
  <body>
`)
	sec := 0
	for i := 0; i < divs; i++ {
		region := "bottom"
		if i%4 == 3 {
			region = "top"
		}
		fmt.Fprintf(&b, "    <div region=\"%s\">\n", region)
		for j := 0; j < parasPer; j++ {
			line := loremLines[(i+j)%len(loremLines)]
			style := "yellow"
			if j%3 == 0 {
				style = "white"
			}
			agent := "speaker1"
			if j%2 == 1 {
				agent = "speaker2"
			}
			begin := clock(sec, 0)
			end := clock(sec+1, 12)
			if j%5 == 0 {
				fmt.Fprintf(&b, "      <p begin=\"%s\" end=\"%s\" style=\"%s\" ttm:agent=\"%s\">%s<br/><span tts:fontWeight=\"bold\">%s</span></p>\n",
					begin, end, style, agent, line, loremLines[j%len(loremLines)])
			} else {
				fmt.Fprintf(&b, "      <p begin=\"%s\" end=\"%s\" style=\"%s\" ttm:agent=\"%s\">%s</p>\n",
					begin, end, style, agent, line)
			}
			sec += 2
		}
		b.WriteString("    </div>\n")
	}
	b.WriteString("  </body>\n</tt>\n")
	return b.String()
}

func clock(sec, frames int) string {
	return fmt.Sprintf("%02d:%02d:%02d:%02d", sec/3600, sec/60%60, sec%60, frames)
}
