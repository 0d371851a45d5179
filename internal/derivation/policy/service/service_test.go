package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vozsegura/internal/derivation/models"
	"vozsegura/internal/derivation/policy/cache"
	policystore "vozsegura/internal/derivation/policy/store"
	"vozsegura/internal/identity/pseudonym"
	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
	"vozsegura/pkg/platform/audit"
	"vozsegura/pkg/platform/audit/recorder"
	auditmemory "vozsegura/pkg/platform/audit/store/memory"
	txcontext "vozsegura/pkg/platform/tx"
	"vozsegura/pkg/requestcontext"
)

type countingStore struct {
	*policystore.InMemoryStore
	effectiveCalls int
	rulesCalls     int
}

func (c *countingStore) FindEffectivePolicy(ctx context.Context, onDate time.Time) (*models.Policy, error) {
	c.effectiveCalls++
	return c.InMemoryStore.FindEffectivePolicy(ctx, onDate)
}

func (c *countingStore) ResolvedRules(ctx context.Context, policyID id.PolicyID) ([]models.ResolvedRule, error) {
	c.rulesCalls++
	return c.InMemoryStore.ResolvedRules(ctx, policyID)
}

type failingAuditStore struct{}

func (failingAuditStore) Append(context.Context, audit.Event) error {
	return errors.New("audit store down")
}

type PolicyServiceSuite struct {
	suite.Suite
	store      *countingStore
	auditStore *auditmemory.InMemoryStore
	service    *Service
	actor      models.Actor
	ctx        context.Context
}

func TestPolicyServiceSuite(t *testing.T) {
	suite.Run(t, new(PolicyServiceSuite))
}

func (s *PolicyServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = &countingStore{InMemoryStore: policystore.NewInMemoryStore()}
	s.auditStore = auditmemory.NewInMemoryStore()
	s.service = New(s.store, recorder.New(s.auditStore, recorder.WithLogger(logger)), txcontext.NewMemoryRunner(s.store, s.auditStore),
		WithLogger(logger),
		WithCache(cache.NewMemory(5*time.Minute)),
	)
	handle, err := pseudonym.StaffHandle("admin")
	s.Require().NoError(err)
	s.actor = models.Actor{Handle: handle, Role: "admin"}
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *PolicyServiceSuite) createPolicy(name string, from time.Time) *models.Policy {
	p, err := s.service.CreatePolicy(s.ctx, models.CreatePolicyRequest{Name: name, EffectiveFrom: from}, s.actor)
	s.Require().NoError(err)
	return p
}

func (s *PolicyServiceSuite) createDestination(code string) *models.Destination {
	d, err := s.service.CreateDestination(s.ctx, models.CreateDestinationRequest{
		Name: code, Code: code, Endpoint: "https://" + strings.ToLower(code) + ".example.gob/intake",
	}, s.actor)
	s.Require().NoError(err)
	return d
}

func (s *PolicyServiceSuite) eventsOfType(t audit.EventType) []audit.Event {
	all, err := s.auditStore.ListAll(s.ctx)
	s.Require().NoError(err)
	var out []audit.Event
	for _, e := range all {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (s *PolicyServiceSuite) TestFindEffectivePolicy_CachesAndInvalidates() {
	jan := s.createPolicy("2026-Q1", day(2026, 1, 1))

	p, err := s.service.FindEffectivePolicy(s.ctx, day(2026, 2, 15))
	s.Require().NoError(err)
	s.Equal(jan.ID, p.ID)

	_, err = s.service.FindEffectivePolicy(s.ctx, day(2026, 2, 15))
	s.Require().NoError(err)
	s.Equal(1, s.store.effectiveCalls, "second lookup is served from cache")

	feb := s.createPolicy("2026-Feb", day(2026, 2, 1))

	p, err = s.service.FindEffectivePolicy(s.ctx, day(2026, 2, 15))
	s.Require().NoError(err)
	s.Equal(feb.ID, p.ID, "admin write invalidates the cache")
	s.Equal(2, s.store.effectiveCalls)
}

func (s *PolicyServiceSuite) TestFindEffectivePolicy_NoneQualifies() {
	s.createPolicy("future", day(2027, 1, 1))

	p, err := s.service.FindEffectivePolicy(s.ctx, day(2026, 2, 15))
	s.Require().NoError(err)
	s.Nil(p)
}

func (s *PolicyServiceSuite) TestResolvedRules_Cached() {
	p := s.createPolicy("p", day(2026, 1, 1))
	d := s.createDestination("FISCALIA")
	_, err := s.service.CreateRule(s.ctx, models.CreateRuleRequest{PolicyID: p.ID, PriorityOrder: 1, DestinationID: d.ID}, s.actor)
	s.Require().NoError(err)

	for range 3 {
		rules, err := s.service.ResolvedRules(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Len(rules, 1)
	}
	s.Equal(1, s.store.rulesCalls)
}

func (s *PolicyServiceSuite) TestRetirePolicy() {
	p := s.createPolicy("p", day(2026, 1, 1))

	retired, err := s.service.RetirePolicy(s.ctx, p.ID, s.actor)
	s.Require().NoError(err)
	s.False(retired.Active)

	events := s.eventsOfType(audit.EventPolicyRetired)
	s.Require().Len(events, 1)
	s.Contains(events[0].Details, "active=true->false")
	s.Equal(s.actor.Handle.String(), events[0].Actor)

	_, err = s.service.RetirePolicy(s.ctx, p.ID, s.actor)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	_, err = s.service.RetirePolicy(s.ctx, 999, s.actor)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *PolicyServiceSuite) TestInUsePolicyIsFrozen() {
	p := s.createPolicy("p", day(2026, 1, 1))
	d := s.createDestination("FISCALIA")
	high := id.SeverityHigh
	rule, err := s.service.CreateRule(s.ctx, models.CreateRuleRequest{PolicyID: p.ID, SeverityMatch: &high, PriorityOrder: 10, DestinationID: d.ID}, s.actor)
	s.Require().NoError(err)
	inactive, err := s.service.CreateRule(s.ctx, models.CreateRuleRequest{PolicyID: p.ID, PriorityOrder: 20, DestinationID: d.ID}, s.actor)
	s.Require().NoError(err)
	_, err = s.service.DeactivateRule(s.ctx, inactive.ID, s.actor)
	s.Require().NoError(err)

	s.Require().NoError(s.service.MarkInUse(s.ctx, p.ID))

	s.Run("rule changes are rejected", func() {
		_, err := s.service.CreateRule(s.ctx, models.CreateRuleRequest{PolicyID: p.ID, PriorityOrder: 5, DestinationID: d.ID}, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = s.service.UpdateRule(s.ctx, models.UpdateRuleRequest{RuleID: rule.ID, PriorityOrder: 1, DestinationID: d.ID}, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		_, err = s.service.DeactivateRule(s.ctx, rule.ID, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("a new version carries the active rules", func() {
		next, err := s.service.NewPolicyVersion(s.ctx, p.ID, day(2026, 3, 1), s.actor)
		s.Require().NoError(err)
		s.Equal(2, next.Version)
		s.False(next.InUse)

		rules, err := s.service.ListRules(s.ctx, next.ID)
		s.Require().NoError(err)
		s.Require().Len(rules, 1)
		s.Equal(10, rules[0].PriorityOrder)
		s.Equal(id.SeverityHigh, *rules[0].SeverityMatch)
		s.NotEqual(rule.ID, rules[0].ID)

		_, err = s.service.CreateRule(s.ctx, models.CreateRuleRequest{PolicyID: next.ID, PriorityOrder: 5, DestinationID: d.ID}, s.actor)
		s.NoError(err)

		s.Len(s.eventsOfType(audit.EventPolicyVersioned), 1)
	})
}

func (s *PolicyServiceSuite) TestRuleValidation() {
	p := s.createPolicy("p", day(2026, 1, 1))
	d := s.createDestination("FISCALIA")

	s.Run("missing destination", func() {
		_, err := s.service.CreateRule(s.ctx, models.CreateRuleRequest{PolicyID: p.ID, DestinationID: 404}, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("inactive destination", func() {
		_, err := s.service.DeactivateDestination(s.ctx, d.ID, s.actor)
		s.Require().NoError(err)
		_, err = s.service.CreateRule(s.ctx, models.CreateRuleRequest{PolicyID: p.ID, DestinationID: d.ID}, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing policy", func() {
		_, err := s.service.CreateRule(s.ctx, models.CreateRuleRequest{PolicyID: 404, DestinationID: d.ID}, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *PolicyServiceSuite) TestDestinations() {
	d := s.createDestination("FISCALIA")

	s.Run("duplicate code", func() {
		_, err := s.service.CreateDestination(s.ctx, models.CreateDestinationRequest{Name: "x", Code: "fiscalia", Endpoint: "https://x.example"}, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("plain http endpoint", func() {
		_, err := s.service.CreateDestination(s.ctx, models.CreateDestinationRequest{Name: "x", Code: "X", Endpoint: "http://x.example"}, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("update endpoint", func() {
		updated, err := s.service.UpdateDestination(s.ctx, models.UpdateDestinationRequest{DestinationID: d.ID, Name: "Fiscalia General", Endpoint: "https://new.example.gob"}, s.actor)
		s.Require().NoError(err)
		s.Equal("FISCALIA", updated.Code)
		events := s.eventsOfType(audit.EventDestinationUpdated)
		s.Require().Len(events, 1)
		s.Contains(events[0].Details, "endpoint_changed=true")
	})

	s.Run("deactivate twice", func() {
		_, err := s.service.DeactivateDestination(s.ctx, d.ID, s.actor)
		s.Require().NoError(err)
		_, err = s.service.DeactivateDestination(s.ctx, d.ID, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("lookup by code", func() {
		found, err := s.service.FindDestinationByCode(s.ctx, "FISCALIA")
		s.Require().NoError(err)
		s.Equal(d.ID, found.ID)

		missing, err := s.service.FindDestinationByCode(s.ctx, "NOPE")
		s.Require().NoError(err)
		s.Nil(missing)
	})
}

func (s *PolicyServiceSuite) TestMutationsRequireActorAndAudit() {
	s.Run("anonymous actor", func() {
		_, err := s.service.CreatePolicy(s.ctx, models.CreatePolicyRequest{Name: "p", EffectiveFrom: day(2026, 1, 1)}, models.Actor{})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("audit failure rolls the mutation back", func() {
		svc := New(s.store, recorder.New(failingAuditStore{}), txcontext.NewMemoryRunner(s.store))
		_, err := svc.CreatePolicy(s.ctx, models.CreatePolicyRequest{Name: "ghost", EffectiveFrom: day(2026, 1, 1)}, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeAuditFailure))

		policies, err := s.service.ListPolicies(s.ctx)
		s.Require().NoError(err)
		s.Empty(policies)
		effective, err := s.service.FindEffectivePolicy(s.ctx, day(2026, 2, 1))
		s.Require().NoError(err)
		s.Nil(effective)

		_, err = svc.CreateDestination(s.ctx, models.CreateDestinationRequest{
			Name: "ghost", Code: "GHOST", Endpoint: "https://ghost.example.gob/intake",
		}, s.actor)
		s.True(dErrors.HasCode(err, dErrors.CodeAuditFailure))
		missing, err := s.service.FindDestinationByCode(s.ctx, "GHOST")
		s.Require().NoError(err)
		s.Nil(missing)
	})

	s.Run("viewing a policy is audited best effort", func() {
		p := s.createPolicy("viewed", day(2026, 1, 1))
		svc := New(s.store, recorder.New(failingAuditStore{}), txcontext.NewMemoryRunner())
		got, err := svc.GetPolicy(s.ctx, p.ID, s.actor)
		s.Require().NoError(err)
		s.Equal(p.ID, got.ID)
	})
}
