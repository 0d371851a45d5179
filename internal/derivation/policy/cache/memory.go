package cache

import (
	"context"
	"sync"
	"time"

	"vozsegura/internal/derivation/models"
	id "vozsegura/pkg/domain"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Memory is a process-local Cache with a fixed TTL and an injected clock.
type Memory struct {
	mu        sync.RWMutex
	ttl       time.Duration
	now       func() time.Time
	gen       int64
	effective map[string]entry[*models.Policy]
	rules     map[id.PolicyID]entry[[]models.ResolvedRule]
}

// MemoryOption configures the Memory cache.
type MemoryOption func(*Memory)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		m.now = now
	}
}

func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		ttl:       ttl,
		now:       time.Now,
		effective: make(map[string]entry[*models.Policy]),
		rules:     make(map[id.PolicyID]entry[[]models.ResolvedRule]),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) GetEffective(_ context.Context, onDate time.Time) (*models.Policy, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.effective[dateKey(onDate)]
	if !ok || !m.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return copyPolicy(e.value), true, nil
}

func (m *Memory) Generation(context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen, nil
}

func (m *Memory) PutEffective(_ context.Context, gen int64, onDate time.Time, policy *models.Policy) error {
	if policy == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return nil
	}
	now := m.now()
	prune(m.effective, now)
	m.effective[dateKey(onDate)] = entry[*models.Policy]{value: copyPolicy(policy), expiresAt: now.Add(m.ttl)}
	return nil
}

func (m *Memory) GetRules(_ context.Context, policyID id.PolicyID) ([]models.ResolvedRule, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.rules[policyID]
	if !ok || !m.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return copyRules(e.value), true, nil
}

func (m *Memory) PutRules(_ context.Context, gen int64, policyID id.PolicyID, rules []models.ResolvedRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return nil
	}
	now := m.now()
	prune(m.rules, now)
	m.rules[policyID] = entry[[]models.ResolvedRule]{value: copyRules(rules), expiresAt: now.Add(m.ttl)}
	return nil
}

func (m *Memory) Invalidate(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gen++
	clear(m.effective)
	clear(m.rules)
	return nil
}

// size counts stored entries, expired or not.
func (m *Memory) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.effective) + len(m.rules)
}

func prune[K comparable, T any](entries map[K]entry[T], now time.Time) {
	for k, e := range entries {
		if !now.Before(e.expiresAt) {
			delete(entries, k)
		}
	}
}
