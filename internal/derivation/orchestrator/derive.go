package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"vozsegura/internal/complaint"
	"vozsegura/internal/derivation/delivery"
	"vozsegura/internal/derivation/models"
	"vozsegura/internal/derivation/sealing"
	"vozsegura/internal/identity/pseudonym"
	id "vozsegura/pkg/domain"
	dErrors "vozsegura/pkg/domain-errors"
	"vozsegura/pkg/platform/audit"
	"vozsegura/pkg/platform/sentinel"
	"vozsegura/pkg/requestcontext"
)

type DeriveRequest struct {
	TrackingID id.TrackingID
	// ActingUsername is the staff member who triggered the attempt; empty for
	// automatic derivation.
	ActingUsername string
}

type Result struct {
	TrackingID      id.TrackingID
	Status          complaint.Status
	DestinationID   id.DestinationID
	DestinationCode string
	DestinationName string
	DerivedAt       time.Time
	AlreadyDerived  bool
}

// Derive routes a classified complaint to exactly one destination. It returns
// a *Failure for every attempt that does not end in DERIVED, and a domain error
// for invalid input or an unknown complaint.
func (s *Service) Derive(ctx context.Context, req DeriveRequest) (*Result, error) {
	if req.TrackingID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tracking id is required")
	}
	actor, err := actorFor(req.ActingUsername)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "orchestrator.Derive", trace.WithAttributes(
		attribute.String("vozsegura.tracking_id", req.TrackingID.String()),
	))
	defer span.End()

	// The attempt is shared by every caller of this tracking id and outlives
	// any one of them.
	v, err, shared := s.group.Do(req.TrackingID.String(), func() (any, error) {
		attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.attemptTimeout)
		defer cancel()
		return s.derive(attemptCtx, req.TrackingID, actor)
	})
	span.SetAttributes(attribute.Bool("vozsegura.derivation.shared", shared))
	if err != nil {
		span.SetStatus(codes.Error, outcomeLabel(nil, err))
		return nil, err
	}
	res := *v.(*Result)
	return &res, nil
}

func (s *Service) derive(ctx context.Context, trackingID id.TrackingID, actor string) (*Result, error) {
	start := time.Now()
	res, err := s.attempt(ctx, trackingID, actor)
	s.metrics.ObserveDeriveLatency(time.Since(start))
	s.metrics.IncrementOutcome(outcomeLabel(res, err))
	return res, err
}

func (s *Service) attempt(ctx context.Context, trackingID id.TrackingID, actor string) (*Result, error) {
	now := requestcontext.Now(ctx)
	c, err := s.complaints.Find(ctx, trackingID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if done, res, err := s.settled(ctx, c, now); done {
		return res, err
	}
	if !c.Severity.IsValid() || !c.ComplaintType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "complaint classification is invalid")
	}

	claim := complaint.Claim{Token: uuid.New(), At: now, StaleBefore: now.Add(-s.lease)}
	claimed, err := s.claim(ctx, trackingID, claim, actor)
	if err != nil {
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, err
		}
		c, findErr := s.complaints.Find(ctx, trackingID)
		if findErr == nil {
			if done, res, err := s.settled(ctx, c, now); done {
				return res, err
			}
		}
		return nil, newFailure(ReasonInProgress, true, nil)
	}

	dest, failure := s.route(ctx, claimed)
	return s.finish(ctx, claimed, claim, dest, failure, actor)
}

// settled reports whether c needs no new attempt, and what to return if so.
func (s *Service) settled(ctx context.Context, c *complaint.Complaint, now time.Time) (bool, *Result, error) {
	switch {
	case c.IsDerived():
		res, err := s.alreadyDerived(ctx, c)
		return true, res, err
	case c.Status == complaint.StatusNoMatchingRule:
		reason := Reason(c.LastFailureReason)
		if reason == "" {
			reason = ReasonNoMatchingRule
		}
		return true, nil, newFailure(reason, false, nil)
	case c.InFlight(now, s.lease):
		return true, nil, newFailure(ReasonInProgress, true, nil)
	}
	return false, nil, nil
}

func (s *Service) alreadyDerived(ctx context.Context, c *complaint.Complaint) (*Result, error) {
	dest, err := s.policies.GetDestination(ctx, *c.DerivedTo)
	if err != nil {
		return nil, err
	}
	res := &Result{
		TrackingID:      c.TrackingID,
		Status:          complaint.StatusDerived,
		DestinationID:   dest.ID,
		DestinationCode: dest.Code,
		DestinationName: dest.Name,
		AlreadyDerived:  true,
	}
	if c.DerivedAt != nil {
		res.DerivedAt = *c.DerivedAt
	}
	return res, nil
}

// claim takes the complaint for this attempt. A lost compare-and-set is
// returned as sentinel.ErrConflict.
func (s *Service) claim(ctx context.Context, trackingID id.TrackingID, claim complaint.Claim, actor string) (*complaint.Complaint, error) {
	var claimed *complaint.Complaint
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		res, err := s.complaints.Claim(ctx, trackingID, claim)
		if err != nil {
			return err
		}
		claimed = res.Complaint
		if res.Reclaimed {
			s.logger.WarnContext(ctx, "reclaiming expired derivation claim", "tracking_id", trackingID.String())
			err := s.auditor.Record(ctx, audit.Event{
				Type:       audit.EventDerivationReclaimed,
				Outcome:    audit.OutcomeFailure,
				Actor:      actor,
				TrackingID: trackingID.String(),
				Details:    fmt.Sprintf("tracking_id=%s previous_attempt=expired delivery_state=unknown", trackingID),
			}, audit.FailClosed)
			if err != nil {
				return err
			}
		}
		if res.PreviousStatus == complaint.StatusPendingDerivation {
			return nil
		}
		return s.auditor.Record(ctx, audit.Event{
			Type:       audit.EventDerivationStarted,
			Outcome:    audit.OutcomeSuccess,
			Actor:      actor,
			TrackingID: trackingID.String(),
			Details:    fmt.Sprintf("tracking_id=%s status=%s->%s", trackingID, res.PreviousStatus, complaint.StatusPendingDerivation),
		}, audit.FailClosed)
	})
	switch {
	case err == nil:
		return claimed, nil
	case errors.Is(err, sentinel.ErrConflict):
		return nil, err
	case dErrors.HasCode(err, dErrors.CodeAuditFailure):
		return nil, newFailure(ReasonAuditFailure, true, err)
	default:
		return nil, translateStoreErr(err)
	}
}

// route selects the destination and hands the sealed payload over. A nil
// Failure means the destination acknowledged the delivery.
func (s *Service) route(ctx context.Context, c *complaint.Complaint) (*models.Destination, *Failure) {
	policy, err := s.policies.FindEffectivePolicy(ctx, c.ClassifiedAt)
	if err != nil {
		return nil, newFailure(ReasonInternal, true, err)
	}
	if policy == nil {
		return nil, newFailure(ReasonNoEffectivePolicy, false, nil)
	}
	match, err := s.matcher.MatchRule(ctx, policy.ID, c.Severity, c.ComplaintType)
	if err != nil {
		return nil, newFailure(ReasonInternal, !dErrors.HasCode(err, dErrors.CodeInvalidInput), err)
	}
	if match == nil {
		return nil, newFailure(ReasonNoMatchingRule, false, nil)
	}
	if err := s.policies.MarkInUse(ctx, policy.ID); err != nil {
		return nil, newFailure(ReasonInternal, true, err)
	}

	dest := match.Destination
	if !dest.IsActive() {
		return &dest, newFailure(ReasonDestinationInactive, false, nil)
	}

	key, err := s.keys.GetKey(ctx, s.keyName)
	if err != nil {
		return &dest, newFailure(ReasonKeyUnavailable, true, err)
	}
	sealed, err := s.sealer.Seal(key, s.keyName, c.TrackingID, dest.Code, c.Payload)
	clear(key)
	if err != nil {
		if errors.Is(err, sealing.ErrInvalidKey) {
			return &dest, newFailure(ReasonKeyUnavailable, true, err)
		}
		return &dest, newFailure(ReasonInternal, true, err)
	}

	err = s.deliverer.Deliver(ctx, delivery.Envelope{
		TrackingID:      c.TrackingID,
		DestinationCode: dest.Code,
		Endpoint:        dest.Endpoint,
		SealedPayload:   sealed.Ciphertext,
		KeyID:           sealed.KeyID,
	})
	if err != nil {
		return &dest, deliveryFailure(err)
	}
	return &dest, nil
}

// finish writes the outcome and its audit event in one transaction. It runs
// even when the caller's context was cancelled during delivery.
func (s *Service) finish(ctx context.Context, c *complaint.Complaint, claim complaint.Claim, dest *models.Destination, failure *Failure, actor string) (*Result, error) {
	ctx = context.WithoutCancel(ctx)
	now := requestcontext.Now(ctx)
	destName := ""
	if dest != nil {
		destName = dest.Name
	}

	outcome := complaint.Outcome{At: now}
	event := audit.Event{Actor: actor, TrackingID: c.TrackingID.String()}
	switch {
	case failure == nil:
		outcome.Status = complaint.StatusDerived
		outcome.DerivedTo = &dest.ID
		event.Type = audit.EventDerivationSucceeded
		event.Outcome = audit.OutcomeSuccess
		event.Details = outcomeDetails(c.TrackingID, destName, string(complaint.StatusDerived))
	case failure.Reason == ReasonNoEffectivePolicy, failure.Reason == ReasonNoMatchingRule:
		outcome.Status = complaint.StatusNoMatchingRule
		outcome.FailureReason = string(failure.Reason)
		event.Type = audit.EventDerivationNoMatch
		event.Outcome = audit.OutcomeNoMatch
		event.Details = outcomeDetails(c.TrackingID, destName, string(failure.Reason))
	default:
		outcome.Status = complaint.StatusDerivationFailed
		outcome.FailureReason = string(failure.Reason)
		event.Type = audit.EventDerivationFailed
		event.Outcome = audit.OutcomeFailure
		event.Details = outcomeDetails(c.TrackingID, destName, string(failure.Reason))
		if failure.Reason == ReasonDeliveryTimeout {
			event.Details += " delivery_state=unknown"
		}
	}

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.auditor.Record(ctx, event, audit.FailClosed); err != nil {
			return err
		}
		return s.complaints.Finalize(ctx, c.TrackingID, claim, outcome)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "derivation outcome not recorded",
			"tracking_id", c.TrackingID.String(),
			"status", string(outcome.Status),
			"error", err,
		)
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return nil, newFailure(ReasonInProgress, true, err)
		case dErrors.HasCode(err, dErrors.CodeAuditFailure):
			return nil, newFailure(ReasonAuditFailure, true, err)
		default:
			return nil, newFailure(ReasonInternal, true, err)
		}
	}

	if failure != nil {
		s.logger.WarnContext(ctx, "derivation failed",
			"tracking_id", c.TrackingID.String(),
			"reason", string(failure.Reason),
			"retryable", failure.Retryable,
		)
		return nil, failure
	}
	s.logger.InfoContext(ctx, "complaint derived",
		"tracking_id", c.TrackingID.String(),
		"destination", dest.Code,
	)
	return &Result{
		TrackingID:      c.TrackingID,
		Status:          complaint.StatusDerived,
		DestinationID:   dest.ID,
		DestinationCode: dest.Code,
		DestinationName: dest.Name,
		DerivedAt:       now,
	}, nil
}

func deliveryFailure(err error) *Failure {
	kind, ok := delivery.KindOf(err)
	if !ok {
		return newFailure(ReasonDeliveryNetworkError, true, err)
	}
	switch kind {
	case delivery.KindTimeout:
		return newFailure(ReasonDeliveryTimeout, true, err)
	case delivery.KindServerError:
		return newFailure(ReasonDeliveryServerError, true, err)
	case delivery.KindRejected:
		return newFailure(ReasonDeliveryRejected, false, err)
	case delivery.KindMisconfigured:
		return newFailure(ReasonDeliveryMisconfigured, false, err)
	case delivery.KindCircuitOpen:
		return newFailure(ReasonDeliveryCircuitOpen, true, err)
	default:
		return newFailure(ReasonDeliveryNetworkError, true, err)
	}
}

func outcomeDetails(trackingID id.TrackingID, destination, outcome string) string {
	if destination == "" {
		return fmt.Sprintf("tracking_id=%s outcome=%s", trackingID, outcome)
	}
	return fmt.Sprintf("tracking_id=%s destination=%q outcome=%s", trackingID, destination, outcome)
}

func outcomeLabel(res *Result, err error) string {
	var f *Failure
	switch {
	case err == nil && res != nil && res.AlreadyDerived:
		return "already_derived"
	case err == nil:
		return "derived"
	case errors.As(err, &f):
		return string(f.Reason)
	default:
		return "error"
	}
}

func actorFor(username string) (string, error) {
	if username == "" {
		return systemActor, nil
	}
	handle, err := pseudonym.StaffHandle(username)
	if err != nil {
		return "", err
	}
	return handle.String(), nil
}

func translateStoreErr(err error) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "complaint not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to access complaint")
	}
}
