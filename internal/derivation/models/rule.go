package models

import (
	"time"

	id "vozsegura/pkg/domain"
)

// Rule maps a severity/type pattern to a destination. A nil match field is a
// wildcard.
type Rule struct {
	ID                 id.RuleID         `json:"id"`
	PolicyID           id.PolicyID       `json:"policy_id"`
	SeverityMatch      *id.Severity      `json:"severity_match,omitempty"`
	ComplaintTypeMatch *id.ComplaintType `json:"complaint_type_match,omitempty"`
	PriorityOrder      int               `json:"priority_order"`
	DestinationID      id.DestinationID  `json:"destination_id"`
	Active             bool              `json:"active"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// Specificity counts the non-wildcard match fields (0..2).
func (r *Rule) Specificity() int {
	n := 0
	if r.SeverityMatch != nil {
		n++
	}
	if r.ComplaintTypeMatch != nil {
		n++
	}
	return n
}

// Matches reports whether the rule's pattern accepts the classification.
// Activity is not considered.
func (r *Rule) Matches(severity id.Severity, complaintType id.ComplaintType) bool {
	if r.SeverityMatch != nil && *r.SeverityMatch != severity {
		return false
	}
	if r.ComplaintTypeMatch != nil && *r.ComplaintTypeMatch != complaintType {
		return false
	}
	return true
}

func (r *Rule) IsActive() bool {
	return r.Active
}

func (r *Rule) Deactivate(now time.Time) {
	r.Active = false
	r.UpdatedAt = now
}

// Copy returns a deep copy of the rule.
func (r *Rule) Copy() *Rule {
	c := *r
	if r.SeverityMatch != nil {
		s := *r.SeverityMatch
		c.SeverityMatch = &s
	}
	if r.ComplaintTypeMatch != nil {
		t := *r.ComplaintTypeMatch
		c.ComplaintTypeMatch = &t
	}
	return &c
}

// Clone returns a copy of the rule detached from its ids, for policy versioning.
func (r *Rule) Clone(policyID id.PolicyID, now time.Time) *Rule {
	c := r.Copy()
	c.ID = 0
	c.PolicyID = policyID
	c.CreatedAt = now
	c.UpdatedAt = now
	return c
}
