package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vozsegura/pkg/platform/audit"
	txcontext "vozsegura/pkg/platform/tx"
)

// Store implements audit.Store on PostgreSQL using the transactional outbox
// pattern: every event is inserted into audit_events and, in the same
// transaction, into outbox for the Kafka relay.
//
// When the caller already runs inside a transaction (see pkg/platform/tx) the
// writes join it, so a derivation outcome and its audit event commit or roll
// back together.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// outboxPayload is the JSON structure published to Kafka.
type outboxPayload struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Category   string `json:"category"`
	Outcome    string `json:"outcome"`
	Actor      string `json:"actor"`
	Timestamp  string `json:"timestamp"`
	Details    string `json:"details,omitempty"`
	TrackingID string `json:"tracking_id,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

const insertEventQuery = `
	INSERT INTO audit_events (
		id, event_type, category, outcome, actor,
		tracking_id, request_id, details, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

const insertOutboxQuery = `
	INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
`

// Append writes the event and its outbox entry.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	if tx, ok := txcontext.From(ctx); ok {
		return s.append(ctx, tx, event)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := s.append(ctx, tx, event); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit tx: %w", err)
	}
	return nil
}

func (s *Store) append(ctx context.Context, exec txcontext.Executor, event audit.Event) error {
	category := event.Category()

	_, err := exec.ExecContext(ctx, insertEventQuery,
		event.ID,
		string(event.Type),
		string(category),
		string(event.Outcome),
		event.Actor,
		nullString(event.TrackingID),
		nullString(event.RequestID),
		event.Details,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}

	payload, err := json.Marshal(outboxPayload{
		ID:         event.ID.String(),
		Type:       string(event.Type),
		Category:   string(category),
		Outcome:    string(event.Outcome),
		Actor:      event.Actor,
		Timestamp:  event.Timestamp.Format(time.RFC3339Nano),
		Details:    event.Details,
		TrackingID: event.TrackingID,
		RequestID:  event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "audit"
	aggregateID := event.ID.String()
	if event.TrackingID != "" {
		aggregateType = "complaint"
		aggregateID = event.TrackingID
	}

	_, err = exec.ExecContext(ctx, insertOutboxQuery,
		uuid.New(),
		aggregateType,
		aggregateID,
		string(event.Type),
		payload,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, event_type, outcome, actor, COALESCE(tracking_id, ''),
		   COALESCE(request_id, ''), details, created_at
	FROM audit_events
`

// ListByTrackingID returns events correlated with a complaint, oldest first.
func (s *Store) ListByTrackingID(ctx context.Context, trackingID string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE tracking_id = $1
		ORDER BY created_at ASC
	`, trackingID)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListRecent returns the N most recent events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListByTypes returns the N most recent events of the given types.
func (s *Store) ListByTypes(ctx context.Context, types []audit.EventType, limit int) ([]audit.Event, error) {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE event_type = ANY($1)
		ORDER BY created_at DESC
		LIMIT $2
	`, pq.Array(names), limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events by type: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event     audit.Event
			eventType string
			outcome   string
		)
		if err := rows.Scan(
			&event.ID,
			&eventType,
			&outcome,
			&event.Actor,
			&event.TrackingID,
			&event.RequestID,
			&event.Details,
			&event.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Type = audit.EventType(eventType)
		event.Outcome = audit.Outcome(outcome)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
