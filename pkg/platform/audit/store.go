package audit

import "context"

// Store persists audit events. Implementations never update or delete.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader lists persisted audit events for administrators and tests.
type Reader interface {
	ListByTrackingID(ctx context.Context, trackingID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
