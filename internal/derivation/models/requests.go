package models

import (
	"strings"
	"time"

	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
)

// Actor identifies who performs an administrative change. Handle is the
// pseudonymous staff handle recorded in audit.
type Actor struct {
	Handle id.IdentityHandle
	Role   string
}

type CreatePolicyRequest struct {
	Name          string
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
}

func (r *CreatePolicyRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "policy name is required")
	}
	if r.EffectiveFrom.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "effective_from is required")
	}
	r.EffectiveFrom = DateOf(r.EffectiveFrom)
	if r.EffectiveTo != nil {
		to := DateOf(*r.EffectiveTo)
		if to.Before(r.EffectiveFrom) {
			return dErrors.New(dErrors.CodeValidation, "effective_to must not precede effective_from")
		}
		r.EffectiveTo = &to
	}
	return nil
}

type CreateRuleRequest struct {
	PolicyID           id.PolicyID
	SeverityMatch      *id.Severity
	ComplaintTypeMatch *id.ComplaintType
	PriorityOrder      int
	DestinationID      id.DestinationID
}

func (r *CreateRuleRequest) Validate() error {
	if r.PolicyID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "policy_id is required")
	}
	return validateRuleFields(r.SeverityMatch, r.ComplaintTypeMatch, r.PriorityOrder, r.DestinationID)
}

func validateRuleFields(severity *id.Severity, complaintType *id.ComplaintType, priority int, destinationID id.DestinationID) error {
	if destinationID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "destination_id is required")
	}
	if priority < 0 {
		return dErrors.New(dErrors.CodeValidation, "priority_order must not be negative")
	}
	if severity != nil && !severity.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid severity_match")
	}
	if complaintType != nil && !complaintType.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid complaint_type_match")
	}
	return nil
}

// UpdateRuleRequest replaces the match pattern, priority and destination of a rule.
type UpdateRuleRequest struct {
	RuleID             id.RuleID
	SeverityMatch      *id.Severity
	ComplaintTypeMatch *id.ComplaintType
	PriorityOrder      int
	DestinationID      id.DestinationID
}

func (r *UpdateRuleRequest) Validate() error {
	if r.RuleID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "rule id is required")
	}
	return validateRuleFields(r.SeverityMatch, r.ComplaintTypeMatch, r.PriorityOrder, r.DestinationID)
}

type CreateDestinationRequest struct {
	Name     string
	Code     string
	Endpoint string
}

func (r *CreateDestinationRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Code = strings.ToUpper(strings.TrimSpace(r.Code))
	r.Endpoint = strings.TrimSpace(r.Endpoint)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "destination name is required")
	}
	if r.Code == "" {
		return dErrors.New(dErrors.CodeValidation, "destination code is required")
	}
	return ValidateEndpoint(r.Endpoint)
}

type UpdateDestinationRequest struct {
	DestinationID id.DestinationID
	Name          string
	Endpoint      string
}

func (r *UpdateDestinationRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Endpoint = strings.TrimSpace(r.Endpoint)
	if r.DestinationID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "destination id is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "destination name is required")
	}
	return ValidateEndpoint(r.Endpoint)
}
