// Package service owns the derivation rule set: the effective-policy lookup
// used by derivation, and every administrative change to policies, rules and
// destinations.
//
// Reads used by derivation go through the cache. Administrative operations
// always read the store, run in one transaction with their fail-closed audit
// event, and invalidate the cache after commit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vozsegura/internal/derivation/metrics"
	"vozsegura/internal/derivation/models"
	"vozsegura/internal/derivation/policy/cache"
	policystore "vozsegura/internal/derivation/policy/store"
	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
	"vozsegura/pkg/platform/audit"
	txcontext "vozsegura/pkg/platform/tx"
	"vozsegura/pkg/requestcontext"
)

const defaultCacheTTL = 5 * time.Minute

// Store persists the rule set.
type Store interface {
	CreatePolicy(ctx context.Context, p *models.Policy) error
	GetPolicy(ctx context.Context, policyID id.PolicyID) (*models.Policy, error)
	LockPolicy(ctx context.Context, policyID id.PolicyID) (*models.Policy, error)
	UpdatePolicy(ctx context.Context, p *models.Policy) error
	ListPolicies(ctx context.Context) ([]*models.Policy, error)
	FindEffectivePolicy(ctx context.Context, onDate time.Time) (*models.Policy, error)
	MarkInUse(ctx context.Context, policyID id.PolicyID, now time.Time) (bool, error)

	CreateRule(ctx context.Context, r *models.Rule) error
	GetRule(ctx context.Context, ruleID id.RuleID) (*models.Rule, error)
	UpdateRule(ctx context.Context, r *models.Rule) error
	ListRules(ctx context.Context, policyID id.PolicyID) ([]*models.Rule, error)
	ResolvedRules(ctx context.Context, policyID id.PolicyID) ([]models.ResolvedRule, error)

	CreateDestination(ctx context.Context, d *models.Destination) error
	GetDestination(ctx context.Context, destID id.DestinationID) (*models.Destination, error)
	FindDestinationByCode(ctx context.Context, code string) (*models.Destination, error)
	UpdateDestination(ctx context.Context, d *models.Destination) error
	ListDestinations(ctx context.Context) ([]*models.Destination, error)
}

// AuditRecorder records audit events in the requested mode.
type AuditRecorder interface {
	Record(ctx context.Context, event audit.Event, mode audit.Mode) error
}

type Service struct {
	store   Store
	cache   cache.Cache
	auditor AuditRecorder
	tx      txcontext.Runner
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCache replaces the default in-process cache.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

func New(store Store, auditor AuditRecorder, tx txcontext.Runner, opts ...Option) *Service {
	s := &Service{
		store:   store,
		auditor: auditor,
		tx:      tx,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NewMemory(defaultCacheTTL)
	}
	return s
}

// FindEffectivePolicy returns the policy that governs complaints classified on
// onDate, or nil when none qualifies.
func (s *Service) FindEffectivePolicy(ctx context.Context, onDate time.Time) (*models.Policy, error) {
	p, ok, err := s.cache.GetEffective(ctx, onDate)
	switch {
	case err != nil:
		s.cacheError(ctx, "effective", err)
	case ok:
		s.metrics.RecordCacheLookup("effective", "hit")
		return p, nil
	default:
		s.metrics.RecordCacheLookup("effective", "miss")
	}

	gen, genErr := s.cache.Generation(ctx)
	p, err = s.store.FindEffectivePolicy(ctx, onDate)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load effective policy")
	}
	switch {
	case genErr != nil:
		s.cacheError(ctx, "effective", genErr)
	case p != nil:
		if err := s.cache.PutEffective(ctx, gen, onDate, p); err != nil {
			s.cacheError(ctx, "effective", err)
		}
	}
	return p, nil
}

// ResolvedRules returns every rule of the policy joined with its destination.
func (s *Service) ResolvedRules(ctx context.Context, policyID id.PolicyID) ([]models.ResolvedRule, error) {
	rules, ok, err := s.cache.GetRules(ctx, policyID)
	switch {
	case err != nil:
		s.cacheError(ctx, "rules", err)
	case ok:
		s.metrics.RecordCacheLookup("rules", "hit")
		return rules, nil
	default:
		s.metrics.RecordCacheLookup("rules", "miss")
	}

	gen, genErr := s.cache.Generation(ctx)
	rules, err = s.store.ResolvedRules(ctx, policyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load derivation rules")
	}
	if genErr != nil {
		s.cacheError(ctx, "rules", genErr)
		return rules, nil
	}
	if err := s.cache.PutRules(ctx, gen, policyID, rules); err != nil {
		s.cacheError(ctx, "rules", err)
	}
	return rules, nil
}

// MarkInUse freezes the policy's rule set after a real match. Cached copies
// may still show InUse=false; administrative paths read the store.
func (s *Service) MarkInUse(ctx context.Context, policyID id.PolicyID) error {
	changed, err := s.store.MarkInUse(ctx, policyID, requestcontext.Now(ctx))
	if err != nil {
		return translate(err, "policy")
	}
	if changed {
		s.logger.InfoContext(ctx, "policy marked in use", "policy_id", policyID.String())
	}
	return nil
}

// mutate runs fn and its fail-closed audit event in one transaction, then
// invalidates the cache.
func (s *Service) mutate(ctx context.Context, event audit.EventType, actor models.Actor, fn func(ctx context.Context) (string, error)) error {
	if actor.Handle.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "an authenticated actor is required")
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		details, err := fn(ctx)
		if err != nil {
			return err
		}
		return s.auditor.Record(ctx, audit.Event{
			Type:    event,
			Outcome: audit.OutcomeSuccess,
			Actor:   actor.Handle.String(),
			Details: details,
		}, audit.FailClosed)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	s.metrics.IncrementAdminChange(string(event))
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.ErrorContext(ctx, "policy cache invalidation failed; entries expire on TTL",
			"error", err,
		)
	}
}

func (s *Service) cacheError(ctx context.Context, kind string, err error) {
	s.metrics.RecordCacheLookup(kind, "error")
	s.logger.WarnContext(ctx, "policy cache unavailable, reading store",
		"kind", kind,
		"error", err,
	)
}

// translate maps store errors to domain errors. Domain errors pass through.
func translate(err error, what string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, policystore.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, policystore.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, what+" already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access "+what)
	}
}
