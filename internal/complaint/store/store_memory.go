// Package store persists complaints for the derivation orchestrator. Claim and
// Finalize are compare-and-set operations: at most one attempt holds a live
// claim on a complaint at a time.
package store

import (
	"context"
	"sync"
	"time"

	"vozsegura/internal/complaint"
	id "vozsegura/pkg/domain"
	"vozsegura/pkg/platform/sentinel"
)

var (
	ErrNotFound = sentinel.ErrNotFound
	// ErrConflict is returned when a claim, finalize or transition loses its
	// compare-and-set.
	ErrConflict = sentinel.ErrConflict
)

type InMemoryStore struct {
	mu         sync.Mutex
	complaints map[id.TrackingID]*complaint.Complaint
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{complaints: make(map[id.TrackingID]*complaint.Complaint)}
}

func (s *InMemoryStore) Snapshot() func() {
	s.mu.Lock()
	saved := make(map[id.TrackingID]*complaint.Complaint, len(s.complaints))
	for k, c := range s.complaints {
		saved[k] = c.Copy()
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.complaints = saved
	}
}

// Save inserts or replaces a complaint.
func (s *InMemoryStore) Save(_ context.Context, c *complaint.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.complaints[c.TrackingID] = c.Copy()
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, trackingID id.TrackingID) (*complaint.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[trackingID]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Copy(), nil
}

func (s *InMemoryStore) Claim(_ context.Context, trackingID id.TrackingID, claim complaint.Claim) (*complaint.ClaimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[trackingID]
	if !ok {
		return nil, ErrNotFound
	}
	if !c.Status.Claimable() {
		return nil, ErrConflict
	}
	held := c.ClaimToken != nil
	if held && c.ClaimedAt != nil && !c.ClaimedAt.Before(claim.StaleBefore) {
		return nil, ErrConflict
	}
	res := &complaint.ClaimResult{PreviousStatus: c.Status, Reclaimed: held}
	token := claim.Token
	at := claim.At
	c.Status = complaint.StatusPendingDerivation
	c.ClaimToken = &token
	c.ClaimedAt = &at
	c.UpdatedAt = claim.At
	res.Complaint = c.Copy()
	return res, nil
}

func (s *InMemoryStore) Finalize(_ context.Context, trackingID id.TrackingID, claim complaint.Claim, outcome complaint.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[trackingID]
	if !ok {
		return ErrNotFound
	}
	if c.ClaimToken == nil || *c.ClaimToken != claim.Token {
		return ErrConflict
	}
	c.Status = outcome.Status
	c.ClaimToken = nil
	c.ClaimedAt = nil
	c.UpdatedAt = outcome.At
	c.LastFailureReason = outcome.FailureReason
	if outcome.DerivedTo != nil {
		dest := *outcome.DerivedTo
		at := outcome.At
		c.DerivedTo = &dest
		c.DerivedAt = &at
	}
	return nil
}

// Transition moves a complaint from one status to another when it carries no
// live claim.
func (s *InMemoryStore) Transition(_ context.Context, trackingID id.TrackingID, from, to complaint.Status, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.complaints[trackingID]
	if !ok {
		return ErrNotFound
	}
	if c.Status != from || c.ClaimToken != nil {
		return ErrConflict
	}
	c.Status = to
	c.LastFailureReason = ""
	c.UpdatedAt = at
	return nil
}
