// Package handle persists identity handles. Handles are created once and
// never updated or deleted.
package handle

import (
	"context"
	"maps"
	"sync"
	"time"

	"vozsegura/internal/identity/models"
	id "vozsegura/pkg/domain"
	"vozsegura/pkg/platform/sentinel"
)

// ErrNotFound is returned when a handle has never been registered.
var ErrNotFound = sentinel.ErrNotFound

// InMemoryHandleStore keeps handles in a map guarded by a mutex.
type InMemoryHandleStore struct {
	mu      sync.RWMutex
	handles map[id.IdentityHandle]models.HandleRecord
}

func NewInMemoryHandleStore() *InMemoryHandleStore {
	return &InMemoryHandleStore{handles: make(map[id.IdentityHandle]models.HandleRecord)}
}

func (s *InMemoryHandleStore) Snapshot() func() {
	s.mu.RLock()
	saved := maps.Clone(s.handles)
	s.mu.RUnlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.handles = saved
	}
}

// EnsureHandle inserts the handle if it is new. The first verification time
// of an existing handle is preserved.
func (s *InMemoryHandleStore) EnsureHandle(_ context.Context, handle id.IdentityHandle, verifiedAt time.Time) (*models.HandleRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.handles[handle]; ok {
		rec := existing
		return &rec, false, nil
	}
	rec := models.HandleRecord{Handle: handle, FirstVerifiedAt: verifiedAt}
	s.handles[handle] = rec
	return &rec, true, nil
}

func (s *InMemoryHandleStore) FindByHandle(_ context.Context, handle id.IdentityHandle) (*models.HandleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.handles[handle]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}
