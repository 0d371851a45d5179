package domain

import (
	"strings"

	dErrors "vozsegura/pkg/domain-errors"
)

// Severity is the triage severity assigned when a complaint is classified.
// Invariant: the value is one of the supported severities.
//
// Usage: construct via ParseSeverity at trust boundaries; direct casting
// bypasses validation.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

var validSeverities = map[Severity]bool{
	SeverityLow:      true,
	SeverityMedium:   true,
	SeverityHigh:     true,
	SeverityCritical: true,
}

// ParseSeverity constructs a Severity from external input, case-insensitively.
//
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseSeverity(s string) (Severity, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "severity cannot be empty")
	}
	v := Severity(s)
	if !v.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid severity")
	}
	return v, nil
}

func (s Severity) IsValid() bool {
	return validSeverities[s]
}

func (s Severity) String() string {
	return string(s)
}

// ComplaintType is the category assigned when a complaint is classified.
type ComplaintType string

const (
	ComplaintTypeFraud          ComplaintType = "FRAUD"
	ComplaintTypeCorruption     ComplaintType = "CORRUPTION"
	ComplaintTypeHarassment     ComplaintType = "HARASSMENT"
	ComplaintTypeDiscrimination ComplaintType = "DISCRIMINATION"
	ComplaintTypeSafety         ComplaintType = "SAFETY"
	ComplaintTypeLaborRights    ComplaintType = "LABOR_RIGHTS"
	ComplaintTypeEnvironment    ComplaintType = "ENVIRONMENT"
	ComplaintTypeOther          ComplaintType = "OTHER"
)

var validComplaintTypes = map[ComplaintType]bool{
	ComplaintTypeFraud:          true,
	ComplaintTypeCorruption:     true,
	ComplaintTypeHarassment:     true,
	ComplaintTypeDiscrimination: true,
	ComplaintTypeSafety:         true,
	ComplaintTypeLaborRights:    true,
	ComplaintTypeEnvironment:    true,
	ComplaintTypeOther:          true,
}

// ParseComplaintType constructs a ComplaintType from external input,
// case-insensitively.
//
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseComplaintType(s string) (ComplaintType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "complaint type cannot be empty")
	}
	v := ComplaintType(s)
	if !v.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid complaint type")
	}
	return v, nil
}

func (c ComplaintType) IsValid() bool {
	return validComplaintTypes[c]
}

func (c ComplaintType) String() string {
	return string(c)
}
