package report

import (
	"fmt"

	"github.com/adammathes/ttverify/pkg/ttml"
)

// Names of optional warnings. Each is queried through IsWarningEnabled
// before the corresponding diagnostic is produced.
const (
	WarnMissingProfile          = "missingProfile"
	WarnIgnoredProfileAttribute = "ignoredProfileAttribute"
	WarnMissingSourceType       = "missingTypeForExternalSource"
	WarnNonApplicableStyle      = "nonApplicableStyle"
	WarnParameterConsistency    = "parameterConsistency"
	WarnEndBeforeBegin          = "endBeforeBegin"
	WarnUnknownProfile          = "unknownProfileDesignator"
	WarnUnboundSnapshot         = "unboundSnapshotElement"
	WarnResourceChecks          = "resourceChecks"
)

// DefaultWarnings is the enablement used when a name is not configured.
var DefaultWarnings = map[string]bool{
	WarnMissingProfile:          true,
	WarnIgnoredProfileAttribute: true,
	WarnMissingSourceType:       true,
	WarnNonApplicableStyle:      false,
	WarnParameterConsistency:    true,
	WarnEndBeforeBegin:          true,
	WarnUnknownProfile:          true,
	WarnUnboundSnapshot:         true,
	WarnResourceChecks:          true,
}

// Policy decides which optional warnings are produced and which warnings
// are escalated to errors.
type Policy struct {
	// Warnings overrides DefaultWarnings by name.
	Warnings map[string]bool
	// Escalate lists message keys whose warnings are recorded as errors.
	Escalate map[string]bool
	// WarningsAsErrors escalates every warning.
	WarningsAsErrors bool
}

// Reporter records diagnostics into a Report according to a Policy.
// A Reporter belongs to a single verification run.
type Reporter struct {
	report *Report
	policy Policy
}

// NewReporter returns a Reporter writing into r. A nil r allocates a report.
func NewReporter(r *Report, p Policy) *Reporter {
	if r == nil {
		r = NewReport()
	}
	return &Reporter{report: r, policy: p}
}

// Report returns the underlying report.
func (rp *Reporter) Report() *Report { return rp.report }

// IsWarningEnabled reports whether the named optional warning is enabled.
func (rp *Reporter) IsWarningEnabled(name string) bool {
	if v, ok := rp.policy.Warnings[name]; ok {
		return v
	}
	if v, ok := DefaultWarnings[name]; ok {
		return v
	}
	return true
}

// LogInfo records an informational message. It always returns false.
func (rp *Reporter) LogInfo(loc ttml.Location, key string, args ...any) bool {
	rp.add(Info, loc, key, args)
	return false
}

// LogWarning records a warning and reports whether it was escalated to an
// error by the policy.
func (rp *Reporter) LogWarning(loc ttml.Location, key string, args ...any) bool {
	if rp.policy.WarningsAsErrors || rp.policy.Escalate[key] {
		rp.add(Error, loc, key, args)
		return true
	}
	rp.add(Warning, loc, key, args)
	return false
}

// LogError records an error. It always returns true.
func (rp *Reporter) LogError(loc ttml.Location, key string, args ...any) bool {
	rp.add(Error, loc, key, args)
	return true
}

func (rp *Reporter) add(sev Severity, loc ttml.Location, key string, args []any) {
	strs := make([]string, len(args))
	for i, a := range args {
		strs[i] = fmt.Sprint(a)
	}
	rp.report.Messages = append(rp.report.Messages, Message{
		Severity: sev,
		CheckID:  key,
		Message:  Format(key, args...),
		Args:     strs,
		Location: loc.String(),
	})
}
