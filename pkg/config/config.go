// Package config loads verifier settings from TOML or YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/spec"
)

// RevisionAuto selects the revision declared by each document.
const RevisionAuto = "auto"

// Config holds the settings of a verification run.
type Config struct {
	Revision              string          `toml:"revision" yaml:"revision"`
	Warnings              map[string]bool `toml:"warnings" yaml:"warnings"`
	Escalate              []string        `toml:"escalate" yaml:"escalate"`
	TreatWarningsAsErrors bool            `toml:"treat_warnings_as_errors" yaml:"treat_warnings_as_errors"`
	Extensions            []string        `toml:"extension_designations" yaml:"extension_designations"`
	LogLevel              string          `toml:"log_level" yaml:"log_level"`
}

// Default returns the settings used when no file is given. The log level
// is left unset so the caller's logging profile applies.
func Default() Config {
	return Config{
		Revision: RevisionAuto,
		Warnings: map[string]bool{},
	}
}

// Load reads the file at path. The format is chosen by extension: .toml,
// .yaml or .yml. Unset keys keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		meta, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
		if err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("config parse failed (%s): unknown key %s", path, undecoded[0])
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("config load failed (%s): unsupported format %q", path, ext)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Revision = strings.ToLower(strings.TrimSpace(c.Revision))
	if c.Revision == "" {
		c.Revision = RevisionAuto
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.Warnings == nil {
		c.Warnings = map[string]bool{}
	}
	c.Escalate = trimAll(c.Escalate)
	c.Extensions = trimAll(c.Extensions)
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if v := strings.TrimSpace(s); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Validate reports every setting that the verifier would not understand.
func (c Config) Validate() error {
	var errs []error
	if c.Revision != RevisionAuto {
		if _, err := spec.Lookup(c.Revision); err != nil {
			errs = append(errs, err)
		}
	}
	for _, name := range sortedNames(c.Warnings) {
		if _, known := report.DefaultWarnings[name]; !known {
			errs = append(errs, fmt.Errorf("unknown warning %q", name))
		}
	}
	keys := map[string]bool{}
	for _, k := range report.Keys() {
		keys[k] = true
	}
	for _, k := range c.Escalate {
		if !keys[k] {
			errs = append(errs, fmt.Errorf("unknown message key %q", k))
		}
	}
	for _, d := range c.Extensions {
		if u, err := url.Parse(d); err != nil || !u.IsAbs() {
			errs = append(errs, fmt.Errorf("extension designation %q is not an absolute URI", d))
		}
	}
	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			errs = append(errs, fmt.Errorf("log level: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Model returns the forced model, or nil when the revision is detected per
// document.
func (c Config) Model() (*spec.Model, error) {
	if c.Revision == RevisionAuto || c.Revision == "" {
		return nil, nil
	}
	return spec.Lookup(c.Revision)
}

// Policy converts the warning settings into a reporting policy.
func (c Config) Policy() report.Policy {
	p := report.Policy{
		Warnings:         make(map[string]bool, len(c.Warnings)),
		Escalate:         make(map[string]bool, len(c.Escalate)),
		WarningsAsErrors: c.TreatWarningsAsErrors,
	}
	for k, v := range c.Warnings {
		p.Warnings[k] = v
	}
	for _, k := range c.Escalate {
		p.Escalate[k] = true
	}
	return p
}

// Level returns the configured log level, defaulting to info.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

func sortedNames(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
