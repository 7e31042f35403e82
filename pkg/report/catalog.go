package report

import (
	"fmt"
	"strings"
)

// Message keys emitted by the validator.
const (
	EmptyValue          = "ATT-001"
	AllSpaceValue       = "ATT-002"
	PaddedValue         = "ATT-003"
	InvalidValue        = "ATT-004"
	UnknownAttribute    = "ATT-005"
	AttributeNotAllowed = "ATT-006"
	DuplicateID         = "ATT-007"
	BadReference        = "ATT-008"
	ReferenceTargetKind = "ATT-009"
	ReferencePosition   = "ATT-010"
	MissingAttribute    = "ATT-011"

	UnknownElement = "ELT-001"

	StyleNotApplicable  = "STY-001"
	StyleCardinality    = "STY-002"
	StyleReferenceCycle = "STY-003"
	InitialRedefined    = "STY-004"

	ParameterIgnored      = "TIM-001"
	EndBeforeBegin        = "TIM-002"
	FramesWithClockBase   = "TIM-003"
	DropModeRate          = "TIM-004"
	TimingInlineInBlock   = "TIM-005"
	DroppedFrameReference = "TIM-006"

	BadDesignation       = "PRF-001"
	ProfileTypeMismatch  = "PRF-002"
	UnknownProfile       = "PRF-003"
	IgnoredProfileAttr   = "PRF-004"
	MissingProfile       = "PRF-005"
	RelativeDesignator   = "PRF-006"
	DuplicateDesignation = "PRF-007"

	ActorPlacement   = "MET-001"
	ActorAgentType   = "MET-002"
	EmptyAgentName   = "MET-003"
	MissingAgentName = "MET-004"

	MissingSourceType   = "RES-001"
	UnsupportedType     = "RES-002"
	ResourceMismatch    = "RES-003"
	ResourceUnreadable  = "RES-004"
	ResourceUnrecognize = "RES-005"

	UnboundSnapshotElement = "ISD-001"

	ParseFailure = "DOC-001"
)

// catalog maps message keys to format strings. Arguments are positional.
var catalog = map[string]string{
	EmptyValue:          "Empty value not permitted on attribute %s",
	AllSpaceValue:       "All-space value not permitted on attribute %s",
	PaddedValue:         "Padding not permitted on attribute %s value '%s'",
	InvalidValue:        "Invalid %s value '%s'",
	UnknownAttribute:    "Unknown attribute %s",
	AttributeNotAllowed: "Attribute %s not permitted on %s",
	DuplicateID:         "Duplicate identifier '%s', first declared at %s",
	BadReference:        "Bad reference '%s' in %s: no element with that identifier",
	ReferenceTargetKind: "Reference '%s' in %s targets %s, expected %s",
	ReferencePosition:   "Reference '%s' in %s targets %s outside its permitted context",
	MissingAttribute:    "Missing required attribute %s on %s",

	UnknownElement: "Unknown element %s",

	StyleNotApplicable:  "Style %s does not apply to %s and is ignored",
	StyleCardinality:    "Element %s specifies %d style attributes, at most one is permitted",
	StyleReferenceCycle: "Style reference cycle through '%s'",
	InitialRedefined:    "Initial value of %s redefined, previous value '%s'",

	ParameterIgnored:      "Parameter %s is ignored unless %s",
	EndBeforeBegin:        "End time %s precedes begin time %s",
	FramesWithClockBase:   "Frame based time expression '%s' not permitted with clock time base",
	DropModeRate:          "Drop mode %s used with frame rate %s and multiplier %s",
	TimingInlineInBlock:   "Timing attribute %s on %s in inline-in-block context",
	DroppedFrameReference: "Time expression '%s' references a dropped frame",

	BadDesignation:       "Bad designation '%s', resolved against base '%s'",
	ProfileTypeMismatch:  "Profile type '%s' does not match enclosing profile type '%s'",
	UnknownProfile:       "Unknown profile designator '%s'",
	IgnoredProfileAttr:   "Attribute ttp:profile ignored because profile elements are present",
	MissingProfile:       "Document does not declare a profile",
	RelativeDesignator:   "Profile designator '%s' must be an absolute URI",
	DuplicateDesignation: "Designation '%s' declared more than once",

	ActorPlacement:   "ttm:actor must be a child of a ttm:agent of type 'character'",
	ActorAgentType:   "ttm:actor references agent '%s' of type '%s'",
	EmptyAgentName:   "ttm:name has no content",
	MissingAgentName: "ttm:agent '%s' has no ttm:name",

	MissingSourceType:   "External %s source '%s' does not specify a type",
	UnsupportedType:     "Unsupported %s type '%s'",
	ResourceMismatch:    "%s resource '%s' declared as '%s' but content is '%s'",
	ResourceUnreadable:  "%s resource '%s' could not be read: %s",
	ResourceUnrecognize: "%s resource '%s' has unrecognized content",

	UnboundSnapshotElement: "Snapshot element '%s' has no binding in the source document",

	ParseFailure: "Document could not be parsed: %s",
}

// Format renders the message for key with positional arguments. Unknown
// keys fall back to the key followed by the arguments.
func Format(key string, args ...any) string {
	if f, ok := catalog[key]; ok {
		return fmt.Sprintf(f, args...)
	}
	if len(args) == 0 {
		return key
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return key + ": " + strings.Join(parts, ", ")
}

// Keys returns every known message key.
func Keys() []string {
	out := make([]string, 0, len(catalog))
	for k := range catalog {
		out = append(out, k)
	}
	return out
}
