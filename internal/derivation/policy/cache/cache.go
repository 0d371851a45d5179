// Package cache holds the read-side cache of effective policies and resolved
// rules. The policy service owns the cache instance and invalidates it after
// every committed administrative change.
package cache

import (
	"context"
	"time"

	"vozsegura/internal/derivation/models"
	id "vozsegura/pkg/domain"
)

// Cache is the policy read cache. A miss is (nil, false, nil); errors are
// infrastructure failures the caller may treat as misses.
//
// Callers read Generation before loading from the store and pass it to Put.
// A Put whose generation was superseded by Invalidate is dropped.
type Cache interface {
	Generation(ctx context.Context) (int64, error)
	GetEffective(ctx context.Context, onDate time.Time) (*models.Policy, bool, error)
	PutEffective(ctx context.Context, gen int64, onDate time.Time, policy *models.Policy) error
	GetRules(ctx context.Context, policyID id.PolicyID) ([]models.ResolvedRule, bool, error)
	PutRules(ctx context.Context, gen int64, policyID id.PolicyID, rules []models.ResolvedRule) error
	Invalidate(ctx context.Context) error
}

func dateKey(t time.Time) string {
	return models.DateOf(t).Format(time.DateOnly)
}

func copyRules(rules []models.ResolvedRule) []models.ResolvedRule {
	out := make([]models.ResolvedRule, len(rules))
	for i, r := range rules {
		out[i] = models.ResolvedRule{Rule: *r.Rule.Copy(), Destination: r.Destination}
	}
	return out
}

func copyPolicy(p *models.Policy) *models.Policy {
	c := *p
	if p.EffectiveTo != nil {
		to := *p.EffectiveTo
		c.EffectiveTo = &to
	}
	return &c
}
