package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vozsegura/internal/complaint"
	id "vozsegura/pkg/domain"
	txcontext "vozsegura/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const complaintColumns = `tracking_id, severity, complaint_type, status, classified_at, derived_to, derived_at,
	claim_token, claimed_at, last_failure_reason, payload, created_at, updated_at`

const upsertComplaintQuery = `
	INSERT INTO complaints (` + complaintColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (tracking_id) DO UPDATE SET
		severity = EXCLUDED.severity,
		complaint_type = EXCLUDED.complaint_type,
		status = EXCLUDED.status,
		classified_at = EXCLUDED.classified_at,
		derived_to = EXCLUDED.derived_to,
		derived_at = EXCLUDED.derived_at,
		claim_token = EXCLUDED.claim_token,
		claimed_at = EXCLUDED.claimed_at,
		last_failure_reason = EXCLUDED.last_failure_reason,
		payload = EXCLUDED.payload,
		updated_at = EXCLUDED.updated_at
`

const findComplaintQuery = `SELECT ` + complaintColumns + ` FROM complaints WHERE tracking_id = $1`

// The CTE locks the row so a concurrent claim re-evaluates against the winner's
// token once it commits.
const claimComplaintQuery = `
	WITH prev AS (
		SELECT tracking_id, status, claim_token, claimed_at
		FROM complaints
		WHERE tracking_id = $1
		FOR UPDATE
	)
	UPDATE complaints AS c
	SET status = $2, claim_token = $3, claimed_at = $4, updated_at = $4
	FROM prev
	WHERE c.tracking_id = prev.tracking_id
		AND prev.status = ANY($5)
		AND (prev.claim_token IS NULL OR prev.claimed_at < $6)
	RETURNING prev.status, prev.claim_token IS NOT NULL
`

const finalizeComplaintQuery = `
	UPDATE complaints
	SET status = $3,
		derived_to = COALESCE($4::BIGINT, derived_to),
		derived_at = CASE WHEN $4::BIGINT IS NULL THEN derived_at ELSE $5 END,
		last_failure_reason = $6,
		claim_token = NULL,
		claimed_at = NULL,
		updated_at = $5
	WHERE tracking_id = $1 AND claim_token = $2
`

const transitionComplaintQuery = `
	UPDATE complaints
	SET status = $3, last_failure_reason = NULL, updated_at = $4
	WHERE tracking_id = $1 AND status = $2 AND claim_token IS NULL
`

func (s *PostgresStore) Save(ctx context.Context, c *complaint.Complaint) error {
	_, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, upsertComplaintQuery,
		uuid.UUID(c.TrackingID),
		string(c.Severity),
		string(c.ComplaintType),
		string(c.Status),
		c.ClassifiedAt,
		destinationArg(c.DerivedTo),
		nullTime(c.DerivedAt),
		tokenArg(c.ClaimToken),
		nullTime(c.ClaimedAt),
		nullString(c.LastFailureReason),
		c.Payload,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save complaint: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, trackingID id.TrackingID) (*complaint.Complaint, error) {
	row := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, findComplaintQuery, uuid.UUID(trackingID))
	c, err := scanComplaint(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find complaint: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) Claim(ctx context.Context, trackingID id.TrackingID, claim complaint.Claim) (*complaint.ClaimResult, error) {
	statuses := make([]string, len(complaint.ClaimableStatuses))
	for i, st := range complaint.ClaimableStatuses {
		statuses[i] = string(st)
	}
	var (
		prevStatus string
		reclaimed  bool
	)
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, claimComplaintQuery,
		uuid.UUID(trackingID),
		string(complaint.StatusPendingDerivation),
		claim.Token,
		claim.At,
		pq.Array(statuses),
		claim.StaleBefore,
	).Scan(&prevStatus, &reclaimed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Either the complaint does not exist or the compare-and-set lost.
			if _, findErr := s.Find(ctx, trackingID); findErr != nil {
				return nil, findErr
			}
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("claim complaint: %w", err)
	}
	c, err := s.Find(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	return &complaint.ClaimResult{
		Complaint:      c,
		PreviousStatus: complaint.Status(prevStatus),
		Reclaimed:      reclaimed,
	}, nil
}

func (s *PostgresStore) Finalize(ctx context.Context, trackingID id.TrackingID, claim complaint.Claim, outcome complaint.Outcome) error {
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, finalizeComplaintQuery,
		uuid.UUID(trackingID),
		claim.Token,
		string(outcome.Status),
		destinationArg(outcome.DerivedTo),
		outcome.At,
		nullString(outcome.FailureReason),
	)
	if err != nil {
		return fmt.Errorf("finalize complaint: %w", err)
	}
	return requireOneRow(res, "finalize complaint")
}

func (s *PostgresStore) Transition(ctx context.Context, trackingID id.TrackingID, from, to complaint.Status, at time.Time) error {
	res, err := txcontext.Exec(ctx, s.db).ExecContext(ctx, transitionComplaintQuery,
		uuid.UUID(trackingID), string(from), string(to), at,
	)
	if err != nil {
		return fmt.Errorf("transition complaint: %w", err)
	}
	if err := requireOneRow(res, "transition complaint"); err != nil {
		if errors.Is(err, ErrConflict) {
			if _, findErr := s.Find(ctx, trackingID); findErr != nil {
				return findErr
			}
		}
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (*complaint.Complaint, error) {
	var (
		c             complaint.Complaint
		trackingID    uuid.UUID
		severity      string
		complaintType string
		status        string
		derivedTo     sql.NullInt64
		derivedAt     sql.NullTime
		claimToken    uuid.NullUUID
		claimedAt     sql.NullTime
		failure       sql.NullString
	)
	err := row.Scan(&trackingID, &severity, &complaintType, &status, &c.ClassifiedAt,
		&derivedTo, &derivedAt, &claimToken, &claimedAt, &failure, &c.Payload,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.TrackingID = id.TrackingID(trackingID)
	c.Severity = id.Severity(severity)
	c.ComplaintType = id.ComplaintType(complaintType)
	c.Status = complaint.Status(status)
	if derivedTo.Valid {
		dest := id.DestinationID(derivedTo.Int64)
		c.DerivedTo = &dest
	}
	if derivedAt.Valid {
		at := derivedAt.Time
		c.DerivedAt = &at
	}
	if claimToken.Valid {
		token := claimToken.UUID
		c.ClaimToken = &token
	}
	if claimedAt.Valid {
		at := claimedAt.Time
		c.ClaimedAt = &at
	}
	c.LastFailureReason = failure.String
	return &c, nil
}

func requireOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func destinationArg(d *id.DestinationID) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*d), Valid: true}
}

func tokenArg(t *uuid.UUID) uuid.NullUUID {
	if t == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *t, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
