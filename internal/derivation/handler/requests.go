package handler

import (
	"strings"
	"time"

	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// CreatePolicyRequest is the body of POST /admin/policies. Dates are calendar
// dates (YYYY-MM-DD).
type CreatePolicyRequest struct {
	Name          string  `json:"name"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to,omitempty"`

	parsedFrom time.Time
	parsedTo   *time.Time
}

func (r *CreatePolicyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Name) > 200 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 200 characters")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	from, err := parseDate(r.EffectiveFrom, "effective_from")
	if err != nil {
		return err
	}
	r.parsedFrom = from
	if r.EffectiveTo != nil {
		to, err := parseDate(*r.EffectiveTo, "effective_to")
		if err != nil {
			return err
		}
		r.parsedTo = &to
	}
	return nil
}

// NewVersionRequest is the body of POST /admin/policies/{policyID}/versions.
type NewVersionRequest struct {
	EffectiveFrom string `json:"effective_from"`

	parsedFrom time.Time
}

func (r *NewVersionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	from, err := parseDate(r.EffectiveFrom, "effective_from")
	if err != nil {
		return err
	}
	r.parsedFrom = from
	return nil
}

// RuleRequest is the body for creating and replacing a rule. An omitted or
// null match field is a wildcard.
type RuleRequest struct {
	SeverityMatch      *string `json:"severity_match"`
	ComplaintTypeMatch *string `json:"complaint_type_match"`
	PriorityOrder      *int    `json:"priority_order"`
	DestinationID      int64   `json:"destination_id"`

	severity      *id.Severity
	complaintType *id.ComplaintType
}

func (r *RuleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.PriorityOrder == nil {
		return dErrors.New(dErrors.CodeValidation, "priority_order is required")
	}
	if r.DestinationID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "destination_id is required")
	}
	if r.SeverityMatch != nil {
		s, err := id.ParseSeverity(*r.SeverityMatch)
		if err != nil {
			return err
		}
		r.severity = &s
	}
	if r.ComplaintTypeMatch != nil {
		t, err := id.ParseComplaintType(*r.ComplaintTypeMatch)
		if err != nil {
			return err
		}
		r.complaintType = &t
	}
	return nil
}

// CreateDestinationRequest is the body of POST /admin/destinations.
type CreateDestinationRequest struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Endpoint string `json:"endpoint"`
}

func (r *CreateDestinationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Name) > 200 || len(r.Code) > 64 || len(r.Endpoint) > 2048 {
		return dErrors.New(dErrors.CodeValidation, "field too long")
	}
	if strings.TrimSpace(r.Code) == "" {
		return dErrors.New(dErrors.CodeValidation, "code is required")
	}
	return nil
}

// UpdateDestinationRequest is the body of PUT /admin/destinations/{destinationID}.
type UpdateDestinationRequest struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

func (r *UpdateDestinationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Name) > 200 || len(r.Endpoint) > 2048 {
		return dErrors.New(dErrors.CodeValidation, "field too long")
	}
	return nil
}

func parseDate(s, field string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, field+" must be a date in YYYY-MM-DD form")
	}
	return t, nil
}
