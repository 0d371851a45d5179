// Package orchestrator drives one complaint from classification to delivery.
//
// An attempt runs in three steps with no lock held across the network call:
//
//  1. claim: one transaction moves the complaint to PENDING_DERIVATION and
//     stores a claim token (compare-and-set);
//  2. match, seal and deliver, outside any transaction;
//  3. outcome: one transaction writes the final status and exactly one audit
//     event, guarded by the claim token.
//
// Concurrent calls for one tracking ID inside a process share a single attempt.
// Across processes the claim decides; a claim older than the lease may be taken
// over, and the takeover is audited because the earlier delivery state is unknown.
package orchestrator

import (
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"vozsegura/internal/derivation/metrics"
	txcontext "vozsegura/pkg/platform/tx"
)

const (
	defaultClaimLease = 5 * time.Minute
	systemActor       = "system:derivation"
)

type Service struct {
	complaints ComplaintStore
	policies   PolicyService
	matcher    RuleMatcher
	keys       KeyProvider
	sealer     PayloadSealer
	deliverer  Deliverer
	auditor    AuditRecorder
	tx         txcontext.Runner

	keyName        string
	lease          time.Duration
	attemptTimeout time.Duration
	group          singleflight.Group

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Deps groups the collaborators Derive cannot run without.
type Deps struct {
	Complaints ComplaintStore
	Policies   PolicyService
	Matcher    RuleMatcher
	Keys       KeyProvider
	Sealer     PayloadSealer
	Deliverer  Deliverer
	Auditor    AuditRecorder
	Tx         txcontext.Runner
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

// WithClaimLease sets how long a claim blocks other attempts.
func WithClaimLease(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lease = d
		}
	}
}

// WithAttemptTimeout bounds one attempt, which runs detached from the
// caller's context. It defaults to the claim lease.
func WithAttemptTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.attemptTimeout = d
		}
	}
}

// WithKeyName selects the payload master key.
func WithKeyName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.keyName = name
		}
	}
}

func New(deps Deps, opts ...Option) (*Service, error) {
	switch {
	case deps.Complaints == nil:
		return nil, errors.New("complaint store is required")
	case deps.Policies == nil:
		return nil, errors.New("policy service is required")
	case deps.Matcher == nil:
		return nil, errors.New("rule matcher is required")
	case deps.Keys == nil:
		return nil, errors.New("key provider is required")
	case deps.Sealer == nil:
		return nil, errors.New("sealer is required")
	case deps.Deliverer == nil:
		return nil, errors.New("delivery client is required")
	case deps.Auditor == nil:
		return nil, errors.New("audit recorder is required")
	case deps.Tx == nil:
		return nil, errors.New("transaction runner is required")
	}
	s := &Service{
		complaints: deps.Complaints,
		policies:   deps.Policies,
		matcher:    deps.Matcher,
		keys:       deps.Keys,
		sealer:     deps.Sealer,
		deliverer:  deps.Deliverer,
		auditor:    deps.Auditor,
		tx:         deps.Tx,
		keyName:    "payload-master",
		lease:      defaultClaimLease,
		logger:     slog.Default(),
		tracer:     otel.Tracer("vozsegura/derivation/orchestrator"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.attemptTimeout == 0 {
		s.attemptTimeout = s.lease
	}
	return s, nil
}
