package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/spec"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

const tomlConfig = `
revision = "TTML1"
treat_warnings_as_errors = false
escalate = ["TIM-002", " PRF-003 "]
extension_designations = ["http://example.com/ext/#captions"]
log_level = "debug"

[warnings]
missingProfile = false
nonApplicableStyle = true
`

const yamlConfig = `
revision: ttml1
escalate: [TIM-002, PRF-003]
extension_designations:
  - http://example.com/ext/#captions
log_level: debug
warnings:
  missingProfile: false
  nonApplicableStyle: true
`

func TestLoadFormats(t *testing.T) {
	for _, p := range []string{
		writeConfig(t, "ttverify.toml", tomlConfig),
		writeConfig(t, "ttverify.yaml", yamlConfig),
		writeConfig(t, "ttverify.yml", yamlConfig),
	} {
		cfg, err := Load(p)
		if err != nil {
			t.Fatalf("%s: %v", p, err)
		}
		if cfg.Revision != "ttml1" {
			t.Errorf("%s: revision = %q", p, cfg.Revision)
		}
		if m, err := cfg.Model(); err != nil || m.Revision() != spec.TTML1 {
			t.Errorf("%s: model = %v, %v", p, m, err)
		}
		if cfg.Level() != zerolog.DebugLevel {
			t.Errorf("%s: level = %v", p, cfg.Level())
		}
		pol := cfg.Policy()
		if pol.Warnings[report.WarnMissingProfile] || !pol.Warnings[report.WarnNonApplicableStyle] {
			t.Errorf("%s: warnings = %v", p, pol.Warnings)
		}
		if !pol.Escalate[report.EndBeforeBegin] || !pol.Escalate[report.UnknownProfile] || len(pol.Escalate) != 2 {
			t.Errorf("%s: escalate = %v", p, pol.Escalate)
		}
		if len(cfg.Extensions) != 1 || cfg.Extensions[0] != "http://example.com/ext/#captions" {
			t.Errorf("%s: extensions = %v", p, cfg.Extensions)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "empty.toml", ""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Revision != RevisionAuto || cfg.Level() != zerolog.InfoLevel || cfg.TreatWarningsAsErrors {
		t.Errorf("defaults = %+v", cfg)
	}
	if m, err := cfg.Model(); m != nil || err != nil {
		t.Errorf("auto revision model = %v, %v", m, err)
	}

	cfg, err = Load(writeConfig(t, "empty.yaml", ""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Revision != RevisionAuto {
		t.Errorf("yaml defaults = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
		want string
	}{
		{"unknown format", "c.json", `{}`, "unsupported format"},
		{"bad toml", "c.toml", `revision = `, "config parse failed"},
		{"unknown toml key", "c.toml", `colour = "red"`, "unknown key colour"},
		{"unknown yaml key", "c.yaml", `colour: red`, "config parse failed"},
		{"unknown revision", "c.toml", `revision = "ttml3"`, "unknown revision"},
		{"unknown warning", "c.toml", "[warnings]\nloudness = true", `unknown warning "loudness"`},
		{"unknown key", "c.yaml", `escalate: [XYZ-001]`, `unknown message key "XYZ-001"`},
		{"relative extension", "c.yaml", `extension_designations: ["#mine"]`, "not an absolute URI"},
		{"bad level", "c.toml", `log_level = "chatty"`, "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.file, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file loaded")
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Revision = "ttml9"
	cfg.Escalate = []string{"NOPE"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"ttml9", "NOPE"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}
