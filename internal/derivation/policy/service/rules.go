package service

import (
	"context"
	"fmt"

	"vozsegura/internal/derivation/models"
	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
	"vozsegura/pkg/platform/audit"
	"vozsegura/pkg/requestcontext"
)

// CreateRule adds a rule to a policy that has not routed any complaint yet.
func (s *Service) CreateRule(ctx context.Context, req models.CreateRuleRequest, actor models.Actor) (*models.Rule, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var created *models.Rule
	err := s.mutate(ctx, audit.EventRuleCreated, actor, func(ctx context.Context) (string, error) {
		if err := s.lockEditablePolicy(ctx, req.PolicyID); err != nil {
			return "", err
		}
		if err := s.requireActiveDestination(ctx, req.DestinationID); err != nil {
			return "", err
		}
		now := requestcontext.Now(ctx)
		r := &models.Rule{
			PolicyID:           req.PolicyID,
			SeverityMatch:      req.SeverityMatch,
			ComplaintTypeMatch: req.ComplaintTypeMatch,
			PriorityOrder:      req.PriorityOrder,
			DestinationID:      req.DestinationID,
			Active:             true,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := s.store.CreateRule(ctx, r); err != nil {
			return "", translate(err, "rule")
		}
		created = r
		return fmt.Sprintf("rule_id=%s policy_id=%s priority=%d destination_id=%s", r.ID, r.PolicyID, r.PriorityOrder, r.DestinationID), nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateRule replaces a rule's pattern, priority and destination.
func (s *Service) UpdateRule(ctx context.Context, req models.UpdateRuleRequest, actor models.Actor) (*models.Rule, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var updated *models.Rule
	err := s.mutate(ctx, audit.EventRuleUpdated, actor, func(ctx context.Context) (string, error) {
		r, err := s.store.GetRule(ctx, req.RuleID)
		if err != nil {
			return "", translate(err, "rule")
		}
		if err := s.lockEditablePolicy(ctx, r.PolicyID); err != nil {
			return "", err
		}
		if !r.IsActive() {
			return "", dErrors.New(dErrors.CodeConflict, "rule is deactivated")
		}
		if err := s.requireActiveDestination(ctx, req.DestinationID); err != nil {
			return "", err
		}
		before := fmt.Sprintf("priority=%d destination_id=%s specificity=%d", r.PriorityOrder, r.DestinationID, r.Specificity())
		r.SeverityMatch = req.SeverityMatch
		r.ComplaintTypeMatch = req.ComplaintTypeMatch
		r.PriorityOrder = req.PriorityOrder
		r.DestinationID = req.DestinationID
		r.UpdatedAt = requestcontext.Now(ctx)
		if err := s.store.UpdateRule(ctx, r); err != nil {
			return "", translate(err, "rule")
		}
		updated = r
		after := fmt.Sprintf("priority=%d destination_id=%s specificity=%d", r.PriorityOrder, r.DestinationID, r.Specificity())
		return fmt.Sprintf("rule_id=%s before={%s} after={%s}", r.ID, before, after), nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeactivateRule soft-deletes a rule.
func (s *Service) DeactivateRule(ctx context.Context, ruleID id.RuleID, actor models.Actor) (*models.Rule, error) {
	var deactivated *models.Rule
	err := s.mutate(ctx, audit.EventRuleDeactivated, actor, func(ctx context.Context) (string, error) {
		r, err := s.store.GetRule(ctx, ruleID)
		if err != nil {
			return "", translate(err, "rule")
		}
		if err := s.lockEditablePolicy(ctx, r.PolicyID); err != nil {
			return "", err
		}
		if !r.IsActive() {
			return "", dErrors.New(dErrors.CodeConflict, "rule is already deactivated")
		}
		r.Deactivate(requestcontext.Now(ctx))
		if err := s.store.UpdateRule(ctx, r); err != nil {
			return "", translate(err, "rule")
		}
		deactivated = r
		return fmt.Sprintf("rule_id=%s active=true->false", r.ID), nil
	})
	if err != nil {
		return nil, err
	}
	return deactivated, nil
}

// ListRules returns every rule of a policy, active or not, in priority order.
func (s *Service) ListRules(ctx context.Context, policyID id.PolicyID) ([]*models.Rule, error) {
	if _, err := s.store.GetPolicy(ctx, policyID); err != nil {
		return nil, translate(err, "policy")
	}
	rules, err := s.store.ListRules(ctx, policyID)
	if err != nil {
		return nil, translate(err, "rules")
	}
	return rules, nil
}

func (s *Service) lockEditablePolicy(ctx context.Context, policyID id.PolicyID) error {
	p, err := s.store.LockPolicy(ctx, policyID)
	if err != nil {
		return translate(err, "policy")
	}
	return p.CanModifyRules()
}

func (s *Service) requireActiveDestination(ctx context.Context, destID id.DestinationID) error {
	d, err := s.store.GetDestination(ctx, destID)
	if err != nil {
		return translate(err, "destination")
	}
	if !d.IsActive() {
		return dErrors.New(dErrors.CodeValidation, "destination is inactive")
	}
	return nil
}
