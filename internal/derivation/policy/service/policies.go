package service

import (
	"context"
	"fmt"
	"time"

	"vozsegura/internal/derivation/models"
	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
	"vozsegura/pkg/platform/audit"
	"vozsegura/pkg/requestcontext"
)

// CreatePolicy stores a new active policy at version 1.
func (s *Service) CreatePolicy(ctx context.Context, req models.CreatePolicyRequest, actor models.Actor) (*models.Policy, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	p := &models.Policy{
		Name:          req.Name,
		Version:       1,
		EffectiveFrom: req.EffectiveFrom,
		EffectiveTo:   req.EffectiveTo,
		Active:        true,
		CreatedBy:     actor.Handle.String(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := s.mutate(ctx, audit.EventPolicyCreated, actor, func(ctx context.Context) (string, error) {
		if err := s.store.CreatePolicy(ctx, p); err != nil {
			return "", translate(err, "policy")
		}
		return fmt.Sprintf("policy_id=%s version=%d effective_from=%s", p.ID, p.Version, p.EffectiveFrom.Format(time.DateOnly)), nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "policy created", "policy_id", p.ID.String())
	return p, nil
}

// RetirePolicy soft-deletes a policy. Complaints already derived under it keep
// their destination.
func (s *Service) RetirePolicy(ctx context.Context, policyID id.PolicyID, actor models.Actor) (*models.Policy, error) {
	var retired *models.Policy
	err := s.mutate(ctx, audit.EventPolicyRetired, actor, func(ctx context.Context) (string, error) {
		p, err := s.store.LockPolicy(ctx, policyID)
		if err != nil {
			return "", translate(err, "policy")
		}
		if err := p.CanDeactivate(); err != nil {
			return "", err
		}
		p.Deactivate(requestcontext.Now(ctx))
		if err := s.store.UpdatePolicy(ctx, p); err != nil {
			return "", translate(err, "policy")
		}
		retired = p
		return fmt.Sprintf("policy_id=%s active=true->false", p.ID), nil
	})
	if err != nil {
		return nil, err
	}
	return retired, nil
}

// NewPolicyVersion copies the active rules of a policy into a new policy with
// the next version number. This is the only way to change an in-use rule set.
func (s *Service) NewPolicyVersion(ctx context.Context, sourceID id.PolicyID, effectiveFrom time.Time, actor models.Actor) (*models.Policy, error) {
	if effectiveFrom.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "effective_from is required")
	}
	var created *models.Policy
	err := s.mutate(ctx, audit.EventPolicyVersioned, actor, func(ctx context.Context) (string, error) {
		src, err := s.store.LockPolicy(ctx, sourceID)
		if err != nil {
			return "", translate(err, "policy")
		}
		if !src.IsActive() {
			return "", dErrors.New(dErrors.CodeConflict, "cannot version a retired policy")
		}
		now := requestcontext.Now(ctx)
		next := &models.Policy{
			Name:          src.Name,
			Version:       src.Version + 1,
			EffectiveFrom: models.DateOf(effectiveFrom),
			Active:        true,
			CreatedBy:     actor.Handle.String(),
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.store.CreatePolicy(ctx, next); err != nil {
			return "", translate(err, "policy")
		}

		rules, err := s.store.ListRules(ctx, src.ID)
		if err != nil {
			return "", translate(err, "rules")
		}
		copied := 0
		for _, r := range rules {
			if !r.IsActive() {
				continue
			}
			if err := s.store.CreateRule(ctx, r.Clone(next.ID, now)); err != nil {
				return "", translate(err, "rule")
			}
			copied++
		}
		created = next
		return fmt.Sprintf("source_policy_id=%s policy_id=%s version=%d rules=%d", src.ID, next.ID, next.Version, copied), nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetPolicy returns a policy for administrators. The read is audited best-effort.
func (s *Service) GetPolicy(ctx context.Context, policyID id.PolicyID, actor models.Actor) (*models.Policy, error) {
	p, err := s.store.GetPolicy(ctx, policyID)
	if err != nil {
		return nil, translate(err, "policy")
	}
	if !actor.Handle.IsNil() {
		_ = s.auditor.Record(ctx, audit.Event{
			Type:    audit.EventPolicyViewed,
			Outcome: audit.OutcomeSuccess,
			Actor:   actor.Handle.String(),
			Details: "policy_id=" + p.ID.String(),
		}, audit.BestEffort)
	}
	return p, nil
}

func (s *Service) ListPolicies(ctx context.Context) ([]*models.Policy, error) {
	policies, err := s.store.ListPolicies(ctx)
	if err != nil {
		return nil, translate(err, "policies")
	}
	return policies, nil
}
