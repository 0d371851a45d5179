// Package complaint holds the derivation-relevant view of a classified
// complaint: its classification, its derivation status and the opaque payload
// handed to the sealer.
package complaint

import (
	"time"

	"github.com/google/uuid"

	id "vozsegura/pkg/domain"
)

type Status string

const (
	StatusOpen              Status = "OPEN"
	StatusPendingDerivation Status = "PENDING_DERIVATION"
	StatusDerived           Status = "DERIVED"
	StatusDerivationFailed  Status = "DERIVATION_FAILED"
	StatusNoMatchingRule    Status = "NO_MATCHING_RULE"
)

// ClaimableStatuses are the statuses from which a derivation attempt may start.
var ClaimableStatuses = []Status{StatusOpen, StatusPendingDerivation, StatusDerivationFailed}

func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusPendingDerivation, StatusDerived, StatusDerivationFailed, StatusNoMatchingRule:
		return true
	}
	return false
}

func (s Status) Claimable() bool {
	for _, c := range ClaimableStatuses {
		if s == c {
			return true
		}
	}
	return false
}

// Complaint is never logged or audited as a whole: Payload is confidential.
type Complaint struct {
	TrackingID        id.TrackingID
	Severity          id.Severity
	ComplaintType     id.ComplaintType
	Status            Status
	ClassifiedAt      time.Time
	DerivedTo         *id.DestinationID
	DerivedAt         *time.Time
	ClaimToken        *uuid.UUID
	ClaimedAt         *time.Time
	LastFailureReason string
	Payload           []byte
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (c *Complaint) IsDerived() bool {
	return c.Status == StatusDerived && c.DerivedTo != nil
}

// InFlight reports whether another attempt holds an unexpired claim.
func (c *Complaint) InFlight(now time.Time, lease time.Duration) bool {
	return c.ClaimToken != nil && c.ClaimedAt != nil && !c.ClaimedAt.Add(lease).Before(now)
}

// Copy returns a deep copy.
func (c *Complaint) Copy() *Complaint {
	cp := *c
	if c.DerivedTo != nil {
		v := *c.DerivedTo
		cp.DerivedTo = &v
	}
	if c.DerivedAt != nil {
		v := *c.DerivedAt
		cp.DerivedAt = &v
	}
	if c.ClaimToken != nil {
		v := *c.ClaimToken
		cp.ClaimToken = &v
	}
	if c.ClaimedAt != nil {
		v := *c.ClaimedAt
		cp.ClaimedAt = &v
	}
	if c.Payload != nil {
		cp.Payload = append([]byte(nil), c.Payload...)
	}
	return &cp
}

// Claim is a request to mark a complaint as being derived by one attempt.
// A claim older than StaleBefore no longer blocks a new one.
type Claim struct {
	Token       uuid.UUID
	At          time.Time
	StaleBefore time.Time
}

// ClaimResult describes the row a successful claim produced.
type ClaimResult struct {
	Complaint      *Complaint
	PreviousStatus Status
	// Reclaimed is true when an expired claim from another attempt was replaced.
	Reclaimed bool
}

// Outcome is the final state written when an attempt finishes.
type Outcome struct {
	Status        Status
	DerivedTo     *id.DestinationID
	FailureReason string
	At            time.Time
}
