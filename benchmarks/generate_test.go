package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adammathes/ttverify/pkg/validate"
)

func TestGeneratedCorpusIsValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.ttml")
	if err := os.WriteFile(path, []byte(generateTTML(3, 12)), 0o644); err != nil {
		t.Fatal(err)
	}
	rpt, err := validate.Validate(path)
	if err != nil {
		t.Fatal(err)
	}
	if !rpt.IsValid() || rpt.WarningCount() != 0 {
		for _, m := range rpt.Messages {
			t.Errorf("unexpected: %s", m)
		}
	}
}

func BenchmarkValidate(b *testing.B) {
	dir := b.TempDir()
	for _, s := range sizes[:3] {
		path := filepath.Join(dir, s.name+".ttml")
		if err := os.WriteFile(path, []byte(generateTTML(s.divs, s.parasPer)), 0o644); err != nil {
			b.Fatal(err)
		}
		b.Run(s.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := validate.Validate(path); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
