package models

import (
	"time"

	id "vozsegura/pkg/domain"
)

// VerificationResult is what the identity verification provider hands back
// after a civil-registry and liveness check. DocumentNumber is the raw value
// and must not outlive the registration call.
type VerificationResult struct {
	DocumentNumber string
	Approved       bool
	LivenessPassed bool
	Provider       string
}

// HandleRecord is the persisted form of a pseudonymous identity.
type HandleRecord struct {
	Handle          id.IdentityHandle
	FirstVerifiedAt time.Time
}
