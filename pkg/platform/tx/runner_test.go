package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vozsegura/pkg/domain-errors"
)

func TestPostgresRunner(t *testing.T) {
	t.Run("commits and exposes the tx", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		runner := NewPostgresRunner(db, 0)
		err = runner.RunInTx(context.Background(), func(ctx context.Context) error {
			_, ok := From(ctx)
			assert.True(t, ok)
			return nil
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err = NewPostgresRunner(db, 0).RunInTx(context.Background(), func(context.Context) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nested call joins outer tx", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectCommit()

		runner := NewPostgresRunner(db, 0)
		err = runner.RunInTx(context.Background(), func(ctx context.Context) error {
			return runner.RunInTx(ctx, func(context.Context) error { return nil })
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancelled context", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err = NewPostgresRunner(db, 0).RunInTx(ctx, func(context.Context) error { return nil })
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}

func TestMemoryRunner_Reentrant(t *testing.T) {
	runner := NewMemoryRunner()
	calls := 0
	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		calls++
		return runner.RunInTx(ctx, func(context.Context) error {
			calls++
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

type counterStore struct {
	value int
}

func (c *counterStore) Snapshot() func() {
	saved := c.value
	return func() { c.value = saved }
}

func TestMemoryRunner_RollsBackOnError(t *testing.T) {
	store := &counterStore{value: 1}
	runner := NewMemoryRunner(store)

	boom := errors.New("audit store down")
	err := runner.RunInTx(context.Background(), func(ctx context.Context) error {
		store.value = 2
		return runner.RunInTx(ctx, func(context.Context) error {
			store.value = 3
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, store.value)

	err = runner.RunInTx(context.Background(), func(context.Context) error {
		store.value = 4
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, store.value)
}

func TestMemoryRunner_RollsBackOnPanic(t *testing.T) {
	store := &counterStore{value: 1}
	runner := NewMemoryRunner(store)

	assert.Panics(t, func() {
		_ = runner.RunInTx(context.Background(), func(context.Context) error {
			store.value = 2
			panic("boom")
		})
	})
	assert.Equal(t, 1, store.value)
}
