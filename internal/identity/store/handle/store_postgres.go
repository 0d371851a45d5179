package handle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vozsegura/internal/identity/models"
	id "vozsegura/pkg/domain"
	txcontext "vozsegura/pkg/platform/tx"
)

// PostgresHandleStore persists handles in identity_handles.
type PostgresHandleStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresHandleStore {
	return &PostgresHandleStore{db: db}
}

const insertHandleQuery = `
	INSERT INTO identity_handles (handle, first_verified_at)
	VALUES ($1, $2)
	ON CONFLICT (handle) DO NOTHING
`

const selectHandleQuery = `
	SELECT handle, first_verified_at FROM identity_handles WHERE handle = $1
`

func (s *PostgresHandleStore) EnsureHandle(ctx context.Context, handle id.IdentityHandle, verifiedAt time.Time) (*models.HandleRecord, bool, error) {
	exec := txcontext.Exec(ctx, s.db)
	res, err := exec.ExecContext(ctx, insertHandleQuery, handle.String(), verifiedAt)
	if err != nil {
		return nil, false, fmt.Errorf("insert identity handle: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert identity handle rows affected: %w", err)
	}
	if affected == 1 {
		return &models.HandleRecord{Handle: handle, FirstVerifiedAt: verifiedAt}, true, nil
	}
	rec, err := s.FindByHandle(ctx, handle)
	if err != nil {
		return nil, false, err
	}
	return rec, false, nil
}

func (s *PostgresHandleStore) FindByHandle(ctx context.Context, handle id.IdentityHandle) (*models.HandleRecord, error) {
	var (
		raw string
		rec models.HandleRecord
	)
	err := txcontext.Exec(ctx, s.db).QueryRowContext(ctx, selectHandleQuery, handle.String()).Scan(&raw, &rec.FirstVerifiedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find identity handle: %w", err)
	}
	rec.Handle = id.IdentityHandle(raw)
	return &rec, nil
}
