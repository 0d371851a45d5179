// Package recorder writes audit events with an explicit failure policy.
//
// Record takes the failure mode as a parameter rather than inferring it:
// FailClosed is used for administrative mutations and derivation outcomes and
// returns persistence errors so the caller aborts; BestEffort is used for
// low-risk read-path events and only logs persistence errors.
package recorder

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	dErrors "vozsegura/pkg/domain-errors"
	"vozsegura/pkg/platform/audit"
	"vozsegura/pkg/requestcontext"
)

// Recorder is the audit entry point shared by all modules.
type Recorder struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(r *Recorder) {
		r.metrics = m
	}
}

// New creates a recorder over store.
func New(store audit.Store, opts ...Option) *Recorder {
	r := &Recorder{store: store}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Record persists event. With FailClosed, a persistence failure is returned as
// CodeAuditFailure and the caller MUST fail its operation. With BestEffort the
// failure is logged and swallowed.
//
// Malformed events (no type, no actor) are rejected in both modes: an event
// that cannot identify what happened or who did it is a programming error.
func (r *Recorder) Record(ctx context.Context, event audit.Event, mode audit.Mode) error {
	start := time.Now()

	if event.Type == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "audit event requires a type")
	}
	if event.Actor == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "audit event requires an actor")
	}
	if event.Outcome == "" {
		event.Outcome = audit.OutcomeSuccess
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	event.Details = audit.TruncateDetails(event.Details)

	if err := r.store.Append(ctx, event); err != nil {
		r.metrics.IncPersistFailures(mode)
		if mode == audit.BestEffort {
			r.logger.WarnContext(ctx, "best-effort audit dropped",
				"event_type", event.Type,
				"tracking_id", event.TrackingID,
				"error", err,
			)
			return nil
		}
		r.logger.ErrorContext(ctx, "CRITICAL: fail-closed audit failed",
			"event_type", event.Type,
			"tracking_id", event.TrackingID,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeAuditFailure, "audit persistence failed")
	}

	r.metrics.ObservePersistDuration(time.Since(start).Seconds())
	r.metrics.IncEventsRecorded(event.Category())
	return nil
}
