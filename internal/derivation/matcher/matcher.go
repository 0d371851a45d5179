// Package matcher selects the single derivation rule that applies to a
// classified complaint.
//
// Among active rules whose pattern accepts the classification, the winner is
// the lowest PriorityOrder; ties go to the more specific rule (more non-wildcard
// fields), then to the lowest rule id. Priority always beats specificity.
package matcher

import (
	"context"
	"slices"

	"vozsegura/internal/derivation/models"
	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
)

// Select returns the winning rule, or false when none applies. Pure.
func Select(rules []models.ResolvedRule, severity id.Severity, complaintType id.ComplaintType) (models.ResolvedRule, bool) {
	candidates := make([]models.ResolvedRule, 0, len(rules))
	for _, r := range rules {
		if !r.Rule.Active {
			continue
		}
		if !r.Rule.Matches(severity, complaintType) {
			continue
		}
		candidates = append(candidates, r)
	}
	if len(candidates) == 0 {
		return models.ResolvedRule{}, false
	}
	return slices.MinFunc(candidates, compare), true
}

func compare(a, b models.ResolvedRule) int {
	if a.Rule.PriorityOrder != b.Rule.PriorityOrder {
		return a.Rule.PriorityOrder - b.Rule.PriorityOrder
	}
	if sa, sb := a.Rule.Specificity(), b.Rule.Specificity(); sa != sb {
		return sb - sa
	}
	switch {
	case a.Rule.ID < b.Rule.ID:
		return -1
	case a.Rule.ID > b.Rule.ID:
		return 1
	default:
		return 0
	}
}

// RuleSource loads the resolved (rule, destination) read model of a policy.
type RuleSource interface {
	ResolvedRules(ctx context.Context, policyID id.PolicyID) ([]models.ResolvedRule, error)
}

// Matcher resolves the winning rule of a stored policy.
type Matcher struct {
	rules RuleSource
}

func New(rules RuleSource) *Matcher {
	return &Matcher{rules: rules}
}

// MatchRule returns the winning rule and its destination, or nil when no
// active rule of the policy accepts the classification.
func (m *Matcher) MatchRule(ctx context.Context, policyID id.PolicyID, severity id.Severity, complaintType id.ComplaintType) (*models.Match, error) {
	if !severity.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid severity")
	}
	if !complaintType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid complaint type")
	}
	rules, err := m.rules.ResolvedRules(ctx, policyID)
	if err != nil {
		return nil, err
	}
	winner, ok := Select(rules, severity, complaintType)
	if !ok {
		return nil, nil
	}
	return &models.Match{
		PolicyID:    policyID,
		Rule:        winner.Rule,
		Destination: winner.Destination,
	}, nil
}
