package handle

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vozsegura/pkg/domain"
)

const testHandle = id.IdentityHandle("c775e7b757ede630cd0aa1113bd102661ab38829ca52a6422ab782862f268646")

func TestInMemoryHandleStore_EnsureHandlePreservesFirstVerification(t *testing.T) {
	store := NewInMemoryHandleStore()
	ctx := context.Background()
	first := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	rec, created, err := store.EnsureHandle(ctx, testHandle, first)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, first, rec.FirstVerifiedAt)

	rec, created, err = store.EnsureHandle(ctx, testHandle, first.Add(48*time.Hour))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, rec.FirstVerifiedAt)

	_, err = store.FindByHandle(ctx, id.IdentityHandle("missing"))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPostgresHandleStore_EnsureHandle(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)
	ctx := context.Background()
	first := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

	t.Run("new handle", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO identity_handles")).
			WithArgs(testHandle.String(), first).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rec, created, err := store.EnsureHandle(ctx, testHandle, first)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, testHandle, rec.Handle)
	})

	t.Run("existing handle keeps first verification", func(t *testing.T) {
		later := first.Add(time.Hour)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO identity_handles")).
			WithArgs(testHandle.String(), later).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT handle, first_verified_at FROM identity_handles")).
			WithArgs(testHandle.String()).
			WillReturnRows(sqlmock.NewRows([]string{"handle", "first_verified_at"}).AddRow(testHandle.String(), first))

		rec, created, err := store.EnsureHandle(ctx, testHandle, later)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first, rec.FirstVerifiedAt)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
