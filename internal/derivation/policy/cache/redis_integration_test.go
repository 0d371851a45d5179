//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vozsegura/internal/derivation/models"
	"vozsegura/internal/derivation/policy/cache"
	id "vozsegura/pkg/domain"
	"vozsegura/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *cache.Redis
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.cache = cache.NewRedis(s.redis.Client, 5*time.Minute)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestEffectiveRoundTripAndInvalidate() {
	ctx := context.Background()
	on := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	policy := &models.Policy{ID: 3, Name: "2026", Version: 2, EffectiveFrom: on, Active: true}

	gen, err := s.cache.Generation(ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.cache.PutEffective(ctx, gen, on, policy))
	got, ok, err := s.cache.GetEffective(ctx, on)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(id.PolicyID(3), got.ID)
	s.Equal(2, got.Version)

	s.Require().NoError(s.cache.Invalidate(ctx))
	_, ok, err = s.cache.GetEffective(ctx, on)
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.cache.PutEffective(ctx, gen, on, policy))
	_, ok, err = s.cache.GetEffective(ctx, on)
	s.Require().NoError(err)
	s.False(ok, "a write for a superseded generation stays unreachable")
}

func (s *RedisCacheSuite) TestRulesRoundTrip() {
	ctx := context.Background()
	high := id.SeverityHigh
	rules := []models.ResolvedRule{{
		Rule:        models.Rule{ID: 1, PolicyID: 3, SeverityMatch: &high, PriorityOrder: 10, DestinationID: 2, Active: true},
		Destination: models.Destination{ID: 2, Name: "Fiscalia", Code: "FISCALIA", Endpoint: "https://fiscalia.example", Active: true},
	}}

	gen, err := s.cache.Generation(ctx)
	s.Require().NoError(err)
	s.Require().NoError(s.cache.PutRules(ctx, gen, 3, rules))
	got, ok, err := s.cache.GetRules(ctx, 3)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Len(got, 1)
	s.Equal(id.SeverityHigh, *got[0].Rule.SeverityMatch)
	s.Equal(1, got[0].Rule.Specificity())
}
