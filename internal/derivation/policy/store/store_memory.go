// Package store persists derivation policies, rules and destinations.
package store

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"vozsegura/internal/derivation/models"
	id "vozsegura/pkg/domain"
	"vozsegura/pkg/platform/sentinel"
)

var (
	// ErrNotFound is returned when a policy, rule or destination does not exist.
	ErrNotFound = sentinel.ErrNotFound
	// ErrConflict is returned when a destination code is already taken.
	ErrConflict = sentinel.ErrConflict
)

// InMemoryStore keeps the rule set in maps. Values are copied on the way in
// and out so callers never share state with the store.
type InMemoryStore struct {
	mu           sync.RWMutex
	policies     map[id.PolicyID]models.Policy
	rules        map[id.RuleID]models.Rule
	destinations map[id.DestinationID]models.Destination
	nextPolicy   id.PolicyID
	nextRule     id.RuleID
	nextDest     id.DestinationID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		policies:     make(map[id.PolicyID]models.Policy),
		rules:        make(map[id.RuleID]models.Rule),
		destinations: make(map[id.DestinationID]models.Destination),
	}
}

// Snapshot copies the rule set; the returned func puts it back.
func (s *InMemoryStore) Snapshot() func() {
	s.mu.RLock()
	policies := maps.Clone(s.policies)
	rules := make(map[id.RuleID]models.Rule, len(s.rules))
	for k, r := range s.rules {
		rules[k] = *r.Copy()
	}
	destinations := maps.Clone(s.destinations)
	nextPolicy, nextRule, nextDest := s.nextPolicy, s.nextRule, s.nextDest
	s.mu.RUnlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.policies = policies
		s.rules = rules
		s.destinations = destinations
		s.nextPolicy, s.nextRule, s.nextDest = nextPolicy, nextRule, nextDest
	}
}

func (s *InMemoryStore) CreatePolicy(_ context.Context, p *models.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPolicy++
	p.ID = s.nextPolicy
	s.policies[p.ID] = *p
	return nil
}

func (s *InMemoryStore) GetPolicy(_ context.Context, policyID id.PolicyID) (*models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[policyID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// LockPolicy is GetPolicy; the memory transaction runner already serializes writers.
func (s *InMemoryStore) LockPolicy(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	return s.GetPolicy(ctx, policyID)
}

func (s *InMemoryStore) UpdatePolicy(_ context.Context, p *models.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[p.ID]; !ok {
		return ErrNotFound
	}
	s.policies[p.ID] = *p
	return nil
}

func (s *InMemoryStore) ListPolicies(_ context.Context) ([]*models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Policy, 0, len(s.policies))
	for _, p := range s.policies {
		out = append(out, &p)
	}
	slices.SortFunc(out, models.ComparePolicies)
	return out, nil
}

func (s *InMemoryStore) FindEffectivePolicy(_ context.Context, onDate time.Time) (*models.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var best *models.Policy
	for _, p := range s.policies {
		if !p.EffectiveOn(onDate) {
			continue
		}
		if best == nil || models.ComparePolicies(&p, best) < 0 {
			best = &p
		}
	}
	return best, nil
}

func (s *InMemoryStore) MarkInUse(_ context.Context, policyID id.PolicyID, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.policies[policyID]
	if !ok {
		return false, ErrNotFound
	}
	if p.InUse {
		return false, nil
	}
	p.InUse = true
	p.UpdatedAt = now
	s.policies[policyID] = p
	return true, nil
}

func (s *InMemoryStore) CreateRule(_ context.Context, r *models.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[r.PolicyID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.destinations[r.DestinationID]; !ok {
		return ErrNotFound
	}
	s.nextRule++
	r.ID = s.nextRule
	s.rules[r.ID] = *r.Copy()
	return nil
}

func (s *InMemoryStore) GetRule(_ context.Context, ruleID id.RuleID) (*models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[ruleID]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Copy(), nil
}

func (s *InMemoryStore) UpdateRule(_ context.Context, r *models.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rules[r.ID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := s.destinations[r.DestinationID]; !ok {
		return ErrNotFound
	}
	updated := r.Copy()
	updated.PolicyID = existing.PolicyID
	updated.CreatedAt = existing.CreatedAt
	s.rules[r.ID] = *updated
	return nil
}

func (s *InMemoryStore) ListRules(_ context.Context, policyID id.PolicyID) ([]*models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Rule
	for _, r := range s.rules {
		if r.PolicyID == policyID {
			out = append(out, r.Copy())
		}
	}
	slices.SortFunc(out, compareRules)
	return out, nil
}

func (s *InMemoryStore) ResolvedRules(ctx context.Context, policyID id.PolicyID) ([]models.ResolvedRule, error) {
	rules, err := s.ListRules(ctx, policyID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ResolvedRule, 0, len(rules))
	for _, r := range rules {
		dest, ok := s.destinations[r.DestinationID]
		if !ok {
			continue
		}
		out = append(out, models.ResolvedRule{Rule: *r, Destination: dest})
	}
	return out, nil
}

func (s *InMemoryStore) CreateDestination(_ context.Context, d *models.Destination) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.destinations {
		if existing.Code == d.Code {
			return ErrConflict
		}
	}
	s.nextDest++
	d.ID = s.nextDest
	s.destinations[d.ID] = *d
	return nil
}

func (s *InMemoryStore) GetDestination(_ context.Context, destID id.DestinationID) (*models.Destination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.destinations[destID]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

func (s *InMemoryStore) FindDestinationByCode(_ context.Context, code string) (*models.Destination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.destinations {
		if d.Code == code {
			return &d, nil
		}
	}
	return nil, ErrNotFound
}

func (s *InMemoryStore) UpdateDestination(_ context.Context, d *models.Destination) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.destinations[d.ID]; !ok {
		return ErrNotFound
	}
	s.destinations[d.ID] = *d
	return nil
}

func (s *InMemoryStore) ListDestinations(_ context.Context) ([]*models.Destination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Destination, 0, len(s.destinations))
	for _, d := range s.destinations {
		out = append(out, &d)
	}
	slices.SortFunc(out, func(a, b *models.Destination) int {
		return int(a.ID - b.ID)
	})
	return out, nil
}

func compareRules(a, b *models.Rule) int {
	if a.PriorityOrder != b.PriorityOrder {
		return a.PriorityOrder - b.PriorityOrder
	}
	return int(a.ID - b.ID)
}
