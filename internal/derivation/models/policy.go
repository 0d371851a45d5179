// Package models holds the derivation rule set: policies, their ordered rules,
// and the destination authorities rules point at.
package models

import (
	"time"

	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
)

// Policy is a versioned, date-bounded rule set. Once any of its rules matched
// a real complaint (InUse) the rule set is frozen; changes go into a new version.
type Policy struct {
	ID            id.PolicyID `json:"id"`
	Name          string      `json:"name"`
	Version       int         `json:"version"`
	EffectiveFrom time.Time   `json:"effective_from"`
	EffectiveTo   *time.Time  `json:"effective_to,omitempty"`
	Active        bool        `json:"active"`
	InUse         bool        `json:"in_use"`
	CreatedBy     string      `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (p *Policy) IsActive() bool {
	return p.Active
}

// EffectiveOn reports whether the policy qualifies for a complaint classified on date.
func (p *Policy) EffectiveOn(date time.Time) bool {
	d := DateOf(date)
	if !p.Active || DateOf(p.EffectiveFrom).After(d) {
		return false
	}
	return p.EffectiveTo == nil || !DateOf(*p.EffectiveTo).Before(d)
}

// CanDeactivate checks if the policy can be retired.
func (p *Policy) CanDeactivate() error {
	if !p.Active {
		return dErrors.New(dErrors.CodeConflict, "policy is already retired")
	}
	return nil
}

func (p *Policy) Deactivate(now time.Time) {
	p.Active = false
	p.UpdatedAt = now
}

// CanModifyRules rejects rule changes on a policy that has already routed complaints.
func (p *Policy) CanModifyRules() error {
	if p.InUse {
		return dErrors.New(dErrors.CodeConflict, "policy is in use; create a new version to change its rules")
	}
	if !p.Active {
		return dErrors.New(dErrors.CodeConflict, "policy is retired")
	}
	return nil
}

// ComparePolicies orders policies newest-effective first, ties by highest id.
func ComparePolicies(a, b *Policy) int {
	if c := DateOf(b.EffectiveFrom).Compare(DateOf(a.EffectiveFrom)); c != 0 {
		return c
	}
	switch {
	case a.ID > b.ID:
		return -1
	case a.ID < b.ID:
		return 1
	default:
		return 0
	}
}
