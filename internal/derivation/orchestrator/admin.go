package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vozsegura/internal/complaint"
	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
	"vozsegura/pkg/platform/audit"
	"vozsegura/pkg/platform/sentinel"
	"vozsegura/pkg/requestcontext"
)

// Reopen returns a NO_MATCHING_RULE complaint to PENDING_DERIVATION once the
// rule set can route it. The next Derive call picks it up.
func (s *Service) Reopen(ctx context.Context, trackingID id.TrackingID, actingUsername string) error {
	if trackingID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "tracking id is required")
	}
	if actingUsername == "" {
		return dErrors.New(dErrors.CodeUnauthorized, "an authenticated actor is required")
	}
	actor, err := actorFor(actingUsername)
	if err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		err := s.complaints.Transition(ctx, trackingID, complaint.StatusNoMatchingRule, complaint.StatusPendingDerivation, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		return s.auditor.Record(ctx, audit.Event{
			Type:       audit.EventDerivationReopened,
			Outcome:    audit.OutcomeSuccess,
			Actor:      actor,
			TrackingID: trackingID.String(),
			Details: fmt.Sprintf("tracking_id=%s status=%s->%s", trackingID,
				complaint.StatusNoMatchingRule, complaint.StatusPendingDerivation),
		}, audit.FailClosed)
	})
	if errors.Is(err, sentinel.ErrConflict) {
		return dErrors.New(dErrors.CodeConflict, "complaint is not waiting for a matching rule")
	}
	if err != nil {
		return translateStoreErr(err)
	}
	s.logger.InfoContext(ctx, "complaint reopened for derivation", "tracking_id", trackingID.String())
	return nil
}

// StatusView is the derivation state shown to administrators. It never
// carries the complaint payload.
type StatusView struct {
	TrackingID        id.TrackingID     `json:"tracking_id"`
	Status            complaint.Status  `json:"status"`
	DerivedTo         *id.DestinationID `json:"derived_to,omitempty"`
	DerivedAt         *time.Time        `json:"derived_at,omitempty"`
	LastFailureReason string            `json:"last_failure_reason,omitempty"`
	InFlight          bool              `json:"in_flight"`
}

// Status returns the derivation state. The read is audited best-effort.
func (s *Service) Status(ctx context.Context, trackingID id.TrackingID, actingUsername string) (*StatusView, error) {
	c, err := s.complaints.Find(ctx, trackingID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if actor, err := actorFor(actingUsername); err == nil {
		_ = s.auditor.Record(ctx, audit.Event{
			Type:       audit.EventComplaintViewed,
			Outcome:    audit.OutcomeSuccess,
			Actor:      actor,
			TrackingID: trackingID.String(),
			Details:    "tracking_id=" + trackingID.String(),
		}, audit.BestEffort)
	}
	return &StatusView{
		TrackingID:        c.TrackingID,
		Status:            c.Status,
		DerivedTo:         c.DerivedTo,
		DerivedAt:         c.DerivedAt,
		LastFailureReason: c.LastFailureReason,
		InFlight:          c.InFlight(requestcontext.Now(ctx), s.lease),
	}, nil
}
