package godog_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/adammathes/ttverify/pkg/report"
	"github.com/adammathes/ttverify/pkg/spec"
	"github.com/adammathes/ttverify/pkg/validate"
	"github.com/cucumber/godog"
)

// testdataRoot returns the absolute path to the testdata directory.
func testdataRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(dir, "testdata")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repo root (no go.mod)")
		}
		dir = parent
	}
}

func TestFeatures(t *testing.T) {
	root := testdataRoot(t)
	featuresDir := filepath.Join(root, "features")
	fixturesDir := filepath.Join(root, "fixtures")

	suite := godog.TestSuite{
		ScenarioInitializer: func(ctx *godog.ScenarioContext) {
			initializeScenario(ctx, fixturesDir)
		},
		Options: &godog.Options{
			Format:        "pretty",
			Paths:         []string{featuresDir},
			TestingT:      t,
			StopOnFailure: false,
			Strict:        false,
		},
	}

	if suite.Run() != 0 {
		// godog already reported failures through the testing.T integration.
	}
}

// scenarioState holds per-scenario state for step definitions.
type scenarioState struct {
	fixturesDir string
	basePath    string // relative path inside fixtures, e.g. "invalid/timing"
	result      *report.Report
	lastMessage string

	// assertedIndices tracks which messages have been matched by an
	// assertion step. Used by "no other errors or warnings".
	assertedIndices map[int]bool

	// configuration
	model      *spec.Model
	warnings   map[string]bool
	escalate   map[string]bool
	extensions []string
}

func (s *scenarioState) markAsserted(idx int) {
	if s.assertedIndices == nil {
		s.assertedIndices = make(map[int]bool)
	}
	s.assertedIndices[idx] = true
}

func (s *scenarioState) fixtureFullPath(name string) (string, error) {
	full := filepath.Join(s.fixturesDir, s.basePath, name)
	if _, err := os.Stat(full); err != nil {
		return full, fmt.Errorf("fixture file not found: %s", full)
	}
	return full, nil
}

func (s *scenarioState) options() validate.Options {
	return validate.Options{
		Model:      s.model,
		Extensions: s.extensions,
		Policy: report.Policy{
			Warnings: s.warnings,
			Escalate: s.escalate,
		},
	}
}

func formatMessages(msgs []report.Message) string {
	if len(msgs) == 0 {
		return "  (none)"
	}
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString("  ")
		b.WriteString(m.String())
		b.WriteString("\n")
	}
	return b.String()
}

// assertCount marks every message of sev with code as asserted and checks
// there were exactly n of them.
func (s *scenarioState) assertCount(sev report.Severity, code string, n int) error {
	if s.result == nil {
		return fmt.Errorf("no validation result available")
	}
	count := 0
	for i, m := range s.result.Messages {
		if m.Severity == sev && m.CheckID == code {
			count++
			s.lastMessage = m.Message
			s.markAsserted(i)
		}
	}
	if count != n {
		return fmt.Errorf("expected %s %s reported %d times, got %d.\nGot messages:\n%s",
			strings.ToLower(string(sev)), code, n, count, formatMessages(s.result.Messages))
	}
	return nil
}

func (s *scenarioState) assertReported(sev report.Severity, code string) error {
	if s.result == nil {
		return fmt.Errorf("no validation result available")
	}
	for i, m := range s.result.Messages {
		if m.Severity == sev && m.CheckID == code && !s.assertedIndices[i] {
			s.lastMessage = m.Message
			s.markAsserted(i)
			return nil
		}
	}
	return fmt.Errorf("expected %s %s but it was not reported.\nGot messages:\n%s",
		strings.ToLower(string(sev)), code, formatMessages(s.result.Messages))
}

func (s *scenarioState) assertTable(sev report.Severity, table *godog.Table) error {
	if s.result == nil {
		return fmt.Errorf("no validation result available")
	}
	for _, row := range table.Rows {
		if len(row.Cells) < 2 {
			continue
		}
		code := strings.TrimSpace(row.Cells[0].Value)
		text := strings.TrimSpace(row.Cells[1].Value)
		found := false
		for i, m := range s.result.Messages {
			if m.Severity == sev && m.CheckID == code && strings.Contains(m.Message, text) && !s.assertedIndices[i] {
				found = true
				s.markAsserted(i)
				break
			}
		}
		if !found {
			return fmt.Errorf("expected %s %s with message containing %q not found.\nGot:\n%s",
				strings.ToLower(string(sev)), code, text, formatMessages(s.result.Messages))
		}
	}
	return nil
}

func (s *scenarioState) unasserted() []string {
	var out []string
	for i, m := range s.result.Messages {
		if s.assertedIndices[i] {
			continue
		}
		if m.Severity == report.Fatal || m.Severity == report.Error || m.Severity == report.Warning {
			out = append(out, m.String())
		}
	}
	return out
}

func initializeScenario(ctx *godog.ScenarioContext, fixturesDir string) {
	s := &scenarioState{fixturesDir: fixturesDir}

	// ----------------------------------------------------------------
	// Setup steps
	// ----------------------------------------------------------------

	ctx.Step(`^test files located at '([^']*)'$`, func(path string) error {
		s.basePath = strings.Trim(path, "/")
		return nil
	})

	ctx.Step(`^(?:the )?validator (?:is )?configured for (TTML1|TTML2) rules$`, func(rev string) error {
		m, err := spec.Lookup(strings.ToLower(rev))
		if err != nil {
			return err
		}
		s.model = m
		return nil
	})

	ctx.Step(`^optional warning (\w+) is (enabled|disabled)$`, func(name, state string) error {
		if _, ok := report.DefaultWarnings[name]; !ok {
			return fmt.Errorf("unknown optional warning %q", name)
		}
		if s.warnings == nil {
			s.warnings = make(map[string]bool)
		}
		s.warnings[name] = state == "enabled"
		return nil
	})

	ctx.Step(`^message ([A-Z]+-\d+) is escalated to an error$`, func(code string) error {
		if s.escalate == nil {
			s.escalate = make(map[string]bool)
		}
		s.escalate[code] = true
		return nil
	})

	ctx.Step(`^extension designation '([^']*)' is registered$`, func(d string) error {
		s.extensions = append(s.extensions, d)
		return nil
	})

	// ----------------------------------------------------------------
	// Check steps
	// ----------------------------------------------------------------

	ctx.Step(`^checking (?:file|document) '([^']*)'$`, func(name string) error {
		s.result = nil
		s.lastMessage = ""
		s.assertedIndices = nil
		path, err := s.fixtureFullPath(name)
		if err != nil {
			return err
		}
		r, err := validate.ValidateWithOptions(path, s.options())
		if err != nil {
			return fmt.Errorf("validating %s: %w", name, err)
		}
		s.result = r
		return nil
	})

	// ----------------------------------------------------------------
	// "No errors" assertions
	// ----------------------------------------------------------------

	ctx.Step(`^no errors or warnings are reported\s*$`, func() error {
		if s.result == nil {
			return fmt.Errorf("no validation result available")
		}
		if issues := s.unasserted(); len(issues) > 0 {
			return fmt.Errorf("expected no errors or warnings, but got:\n  %s", strings.Join(issues, "\n  "))
		}
		return nil
	})

	ctx.Step(`^no other errors or warnings are reported\s*$`, func() error {
		if s.result == nil {
			return fmt.Errorf("no validation result available")
		}
		if issues := s.unasserted(); len(issues) > 0 {
			return fmt.Errorf("unexpected errors/warnings:\n  %s", strings.Join(issues, "\n  "))
		}
		return nil
	})

	// ----------------------------------------------------------------
	// Severity assertions
	// ----------------------------------------------------------------

	ctx.Step(`^error ([A-Z]+-\d+\w*) is reported (\d+) times?$`, func(code string, n int) error {
		return s.assertCount(report.Error, code, n)
	})
	ctx.Step(`^(?:the )?error ([A-Z]+-\d+\w*) is reported$`, func(code string) error {
		return s.assertReported(report.Error, code)
	})
	ctx.Step(`^fatal error ([A-Z]+-\d+\w*) is reported$`, func(code string) error {
		return s.assertReported(report.Fatal, code)
	})
	ctx.Step(`^warning ([A-Z]+-\d+\w*) is reported (\d+) times?$`, func(code string, n int) error {
		return s.assertCount(report.Warning, code, n)
	})
	ctx.Step(`^warning ([A-Z]+-\d+\w*) is reported$`, func(code string) error {
		return s.assertReported(report.Warning, code)
	})
	ctx.Step(`^info ([A-Z]+-\d+\w*) is reported (\d+) times?$`, func(code string, n int) error {
		return s.assertCount(report.Info, code, n)
	})
	ctx.Step(`^info ([A-Z]+-\d+\w*) is reported$`, func(code string) error {
		return s.assertReported(report.Info, code)
	})

	// ----------------------------------------------------------------
	// Message content assertions
	// ----------------------------------------------------------------

	ctx.Step(`^the message contains '([^']*)'$`, func(text string) error {
		if s.result == nil {
			return fmt.Errorf("no validation result available")
		}
		if strings.Contains(s.lastMessage, text) {
			return nil
		}
		return fmt.Errorf("last message %q does not contain %q.\nGot messages:\n%s",
			s.lastMessage, text, formatMessages(s.result.Messages))
	})

	// ----------------------------------------------------------------
	// Table-based assertions
	// ----------------------------------------------------------------

	ctx.Step(`^the following errors are reported$`, func(table *godog.Table) error {
		return s.assertTable(report.Error, table)
	})
	ctx.Step(`^(?:the )?following warnings are reported$`, func(table *godog.Table) error {
		return s.assertTable(report.Warning, table)
	})

	// ----------------------------------------------------------------
	// Report assertions
	// ----------------------------------------------------------------

	ctx.Step(`^the document is (valid|invalid)$`, func(want string) error {
		if s.result == nil {
			return fmt.Errorf("no validation result available")
		}
		if got := s.result.IsValid(); got != (want == "valid") {
			return fmt.Errorf("expected document to be %s.\nGot messages:\n%s", want, formatMessages(s.result.Messages))
		}
		return nil
	})

	ctx.Step(`^the report revision is '([^']*)'$`, func(want string) error {
		if s.result == nil {
			return fmt.Errorf("no validation result available")
		}
		if s.result.Revision != want {
			return fmt.Errorf("revision = %q, want %q", s.result.Revision, want)
		}
		return nil
	})
}
