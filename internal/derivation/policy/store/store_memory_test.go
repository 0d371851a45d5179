package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"vozsegura/internal/derivation/models"
	id "vozsegura/pkg/domain"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.now = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) policy(from time.Time, to *time.Time) *models.Policy {
	p := &models.Policy{Name: "p", Version: 1, EffectiveFrom: from, EffectiveTo: to, Active: true, CreatedAt: s.now, UpdatedAt: s.now}
	s.Require().NoError(s.store.CreatePolicy(s.ctx, p))
	return p
}

func (s *InMemoryStoreSuite) TestFindEffectivePolicy() {
	jan := models.DateOf(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	mar := models.DateOf(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	endFeb := models.DateOf(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC))

	s.Run("none qualifies", func() {
		p, err := s.store.FindEffectivePolicy(s.ctx, jan)
		s.Require().NoError(err)
		s.Nil(p)
	})

	older := s.policy(jan, nil)
	newer := s.policy(mar, nil)
	bounded := s.policy(jan, &endFeb)

	s.Run("newest effective_from wins, ties to highest id", func() {
		p, err := s.store.FindEffectivePolicy(s.ctx, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))
		s.Require().NoError(err)
		s.Equal(bounded.ID, p.ID)
	})

	s.Run("later date picks the newer policy", func() {
		p, err := s.store.FindEffectivePolicy(s.ctx, mar)
		s.Require().NoError(err)
		s.Equal(newer.ID, p.ID)
	})

	s.Run("retired policies are skipped", func() {
		newer.Deactivate(s.now)
		s.Require().NoError(s.store.UpdatePolicy(s.ctx, newer))
		p, err := s.store.FindEffectivePolicy(s.ctx, mar)
		s.Require().NoError(err)
		s.Equal(older.ID, p.ID)
	})
}

func (s *InMemoryStoreSuite) TestMarkInUse() {
	p := s.policy(s.now, nil)

	changed, err := s.store.MarkInUse(s.ctx, p.ID, s.now)
	s.Require().NoError(err)
	s.True(changed)

	changed, err = s.store.MarkInUse(s.ctx, p.ID, s.now)
	s.Require().NoError(err)
	s.False(changed)

	_, err = s.store.MarkInUse(s.ctx, 999, s.now)
	s.ErrorIs(err, ErrNotFound)
}

func (s *InMemoryStoreSuite) TestRulesAndDestinations() {
	p := s.policy(s.now, nil)
	dest := &models.Destination{Name: "Fiscalia", Code: "FISCALIA", Endpoint: "https://fiscalia.example", Active: true}
	s.Require().NoError(s.store.CreateDestination(s.ctx, dest))

	s.Run("duplicate code conflicts", func() {
		err := s.store.CreateDestination(s.ctx, &models.Destination{Code: "FISCALIA"})
		s.ErrorIs(err, ErrConflict)
	})

	s.Run("rule requires existing destination", func() {
		err := s.store.CreateRule(s.ctx, &models.Rule{PolicyID: p.ID, DestinationID: 42})
		s.ErrorIs(err, ErrNotFound)
	})

	high := id.SeverityHigh
	r := &models.Rule{PolicyID: p.ID, SeverityMatch: &high, PriorityOrder: 10, DestinationID: dest.ID, Active: true}
	s.Require().NoError(s.store.CreateRule(s.ctx, r))

	s.Run("stored rule is not aliased", func() {
		*r.SeverityMatch = id.SeverityLow
		got, err := s.store.GetRule(s.ctx, r.ID)
		s.Require().NoError(err)
		s.Equal(id.SeverityHigh, *got.SeverityMatch)
	})

	s.Run("resolved rules carry the destination", func() {
		resolved, err := s.store.ResolvedRules(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Require().Len(resolved, 1)
		s.Equal("Fiscalia", resolved[0].Destination.Name)
	})
}

func TestInMemoryStore_ListRulesOrdered(t *testing.T) {
	st := NewInMemoryStore()
	ctx := context.Background()
	p := &models.Policy{Active: true}
	require.NoError(t, st.CreatePolicy(ctx, p))
	d := &models.Destination{Code: "Q"}
	require.NoError(t, st.CreateDestination(ctx, d))
	for _, prio := range []int{30, 10, 20} {
		require.NoError(t, st.CreateRule(ctx, &models.Rule{PolicyID: p.ID, PriorityOrder: prio, DestinationID: d.ID}))
	}

	rules, err := st.ListRules(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, []int{10, 20, 30}, []int{rules[0].PriorityOrder, rules[1].PriorityOrder, rules[2].PriorityOrder})
}
