package orchestrator

import (
	"context"
	"time"

	"vozsegura/internal/complaint"
	"vozsegura/internal/derivation/delivery"
	"vozsegura/internal/derivation/models"
	"vozsegura/internal/derivation/sealing"
	id "vozsegura/pkg/domain"
	"vozsegura/pkg/platform/audit"
)

// ComplaintStore persists complaint derivation state.
type ComplaintStore interface {
	Find(ctx context.Context, trackingID id.TrackingID) (*complaint.Complaint, error)
	Claim(ctx context.Context, trackingID id.TrackingID, claim complaint.Claim) (*complaint.ClaimResult, error)
	Finalize(ctx context.Context, trackingID id.TrackingID, claim complaint.Claim, outcome complaint.Outcome) error
	Transition(ctx context.Context, trackingID id.TrackingID, from, to complaint.Status, at time.Time) error
}

// PolicyService resolves the effective policy and destinations.
type PolicyService interface {
	FindEffectivePolicy(ctx context.Context, onDate time.Time) (*models.Policy, error)
	MarkInUse(ctx context.Context, policyID id.PolicyID) error
	GetDestination(ctx context.Context, destID id.DestinationID) (*models.Destination, error)
}

type RuleMatcher interface {
	MatchRule(ctx context.Context, policyID id.PolicyID, severity id.Severity, complaintType id.ComplaintType) (*models.Match, error)
}

type KeyProvider interface {
	GetKey(ctx context.Context, name string) ([]byte, error)
}

type PayloadSealer interface {
	Seal(masterKey []byte, keyName string, trackingID id.TrackingID, destinationCode string, plain []byte) (*sealing.Sealed, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, env delivery.Envelope) error
}

type AuditRecorder interface {
	Record(ctx context.Context, event audit.Event, mode audit.Mode) error
}
