package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"vozsegura/internal/complaint"
	id "vozsegura/pkg/domain"
)

var baseTime = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newComplaint() *complaint.Complaint {
	return &complaint.Complaint{
		TrackingID:    id.NewTrackingID(),
		Severity:      id.SeverityHigh,
		ComplaintType: id.ComplaintTypeCorruption,
		Status:        complaint.StatusOpen,
		ClassifiedAt:  baseTime,
		Payload:       []byte("sealed later"),
		CreatedAt:     baseTime,
		UpdatedAt:     baseTime,
	}
}

func claimAt(at time.Time) complaint.Claim {
	return complaint.Claim{Token: uuid.New(), At: at, StaleBefore: at.Add(-5 * time.Minute)}
}

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	c     *complaint.Complaint
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
	s.c = newComplaint()
	s.Require().NoError(s.store.Save(s.ctx, s.c))
}

func (s *MemoryStoreSuite) TestFindReturnsCopy() {
	got, err := s.store.Find(s.ctx, s.c.TrackingID)
	s.Require().NoError(err)
	got.Payload[0] = 'X'

	again, err := s.store.Find(s.ctx, s.c.TrackingID)
	s.Require().NoError(err)
	s.Equal(byte('s'), again.Payload[0])

	_, err = s.store.Find(s.ctx, id.NewTrackingID())
	s.True(errors.Is(err, ErrNotFound))
}

func (s *MemoryStoreSuite) TestClaimIsExclusiveUntilLeaseExpires() {
	first := claimAt(baseTime)
	res, err := s.store.Claim(s.ctx, s.c.TrackingID, first)
	s.Require().NoError(err)
	s.Equal(complaint.StatusOpen, res.PreviousStatus)
	s.False(res.Reclaimed)
	s.Equal(complaint.StatusPendingDerivation, res.Complaint.Status)

	_, err = s.store.Claim(s.ctx, s.c.TrackingID, claimAt(baseTime.Add(time.Minute)))
	s.True(errors.Is(err, ErrConflict), "live claim blocks a second attempt")

	late := claimAt(baseTime.Add(6 * time.Minute))
	res, err = s.store.Claim(s.ctx, s.c.TrackingID, late)
	s.Require().NoError(err)
	s.True(res.Reclaimed)
	s.Equal(complaint.StatusPendingDerivation, res.PreviousStatus)

	err = s.store.Finalize(s.ctx, s.c.TrackingID, first, complaint.Outcome{Status: complaint.StatusDerived, At: baseTime})
	s.True(errors.Is(err, ErrConflict), "an expired claim can no longer finalize")
}

func (s *MemoryStoreSuite) TestFinalizeDerived() {
	claim := claimAt(baseTime)
	_, err := s.store.Claim(s.ctx, s.c.TrackingID, claim)
	s.Require().NoError(err)

	dest := id.DestinationID(7)
	done := baseTime.Add(2 * time.Second)
	s.Require().NoError(s.store.Finalize(s.ctx, s.c.TrackingID, claim, complaint.Outcome{
		Status: complaint.StatusDerived, DerivedTo: &dest, At: done,
	}))

	got, err := s.store.Find(s.ctx, s.c.TrackingID)
	s.Require().NoError(err)
	s.True(got.IsDerived())
	s.Equal(dest, *got.DerivedTo)
	s.Equal(done, *got.DerivedAt)
	s.Nil(got.ClaimToken)

	_, err = s.store.Claim(s.ctx, s.c.TrackingID, claimAt(done))
	s.True(errors.Is(err, ErrConflict), "derived complaints are not claimable")
}

func (s *MemoryStoreSuite) TestTransition() {
	claim := claimAt(baseTime)
	_, err := s.store.Claim(s.ctx, s.c.TrackingID, claim)
	s.Require().NoError(err)

	err = s.store.Transition(s.ctx, s.c.TrackingID, complaint.StatusPendingDerivation, complaint.StatusOpen, baseTime)
	s.True(errors.Is(err, ErrConflict), "claimed complaints cannot transition")

	s.Require().NoError(s.store.Finalize(s.ctx, s.c.TrackingID, claim, complaint.Outcome{
		Status: complaint.StatusNoMatchingRule, FailureReason: "NO_MATCHING_RULE", At: baseTime,
	}))
	s.Require().NoError(s.store.Transition(s.ctx, s.c.TrackingID, complaint.StatusNoMatchingRule, complaint.StatusPendingDerivation, baseTime))

	got, err := s.store.Find(s.ctx, s.c.TrackingID)
	s.Require().NoError(err)
	s.Equal(complaint.StatusPendingDerivation, got.Status)
	s.Empty(got.LastFailureReason)

	err = s.store.Transition(s.ctx, id.NewTrackingID(), complaint.StatusNoMatchingRule, complaint.StatusPendingDerivation, baseTime)
	s.True(errors.Is(err, ErrNotFound))
}

func (s *MemoryStoreSuite) TestSnapshotRestoresClaims() {
	c := newComplaint()
	s.Require().NoError(s.store.Save(s.ctx, c))

	restore := s.store.Snapshot()
	_, err := s.store.Claim(s.ctx, c.TrackingID, claimAt(baseTime))
	s.Require().NoError(err)
	other := newComplaint()
	s.Require().NoError(s.store.Save(s.ctx, other))

	restore()
	got, err := s.store.Find(s.ctx, c.TrackingID)
	s.Require().NoError(err)
	s.Equal(complaint.StatusOpen, got.Status)
	s.Nil(got.ClaimToken)
	_, err = s.store.Find(s.ctx, other.TrackingID)
	s.ErrorIs(err, ErrNotFound)
}

func complaintRow(c *complaint.Complaint) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"tracking_id", "severity", "complaint_type", "status", "classified_at", "derived_to", "derived_at",
		"claim_token", "claimed_at", "last_failure_reason", "payload", "created_at", "updated_at",
	}).AddRow(
		c.TrackingID.String(), string(c.Severity), string(c.ComplaintType), string(c.Status), c.ClassifiedAt,
		nil, nil, nil, nil, nil, c.Payload, c.CreatedAt, c.UpdatedAt,
	)
}

func TestPostgresStore_Find(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)
	c := newComplaint()

	mock.ExpectQuery(regexp.QuoteMeta("FROM complaints WHERE tracking_id = $1")).
		WithArgs(uuid.UUID(c.TrackingID)).
		WillReturnRows(complaintRow(c))

	got, err := store.Find(context.Background(), c.TrackingID)
	require.NoError(t, err)
	assert.Equal(t, c.TrackingID, got.TrackingID)
	assert.Equal(t, id.SeverityHigh, got.Severity)
	assert.Nil(t, got.DerivedTo)
	assert.Nil(t, got.ClaimToken)

	mock.ExpectQuery(regexp.QuoteMeta("FROM complaints WHERE tracking_id = $1")).
		WillReturnError(sql.ErrNoRows)
	_, err = store.Find(context.Background(), c.TrackingID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Claim(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)
	ctx := context.Background()
	c := newComplaint()
	claim := claimAt(baseTime)

	t.Run("wins", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE complaints AS c")).
			WithArgs(uuid.UUID(c.TrackingID), "PENDING_DERIVATION", claim.Token, claim.At, sqlmock.AnyArg(), claim.StaleBefore).
			WillReturnRows(sqlmock.NewRows([]string{"status", "reclaimed"}).AddRow("DERIVATION_FAILED", false))
		claimed := c.Copy()
		claimed.Status = complaint.StatusPendingDerivation
		mock.ExpectQuery(regexp.QuoteMeta("FROM complaints WHERE tracking_id = $1")).
			WillReturnRows(complaintRow(claimed))

		res, err := store.Claim(ctx, c.TrackingID, claim)
		require.NoError(t, err)
		assert.Equal(t, complaint.StatusDerivationFailed, res.PreviousStatus)
		assert.False(t, res.Reclaimed)
		assert.Equal(t, complaint.StatusPendingDerivation, res.Complaint.Status)
	})

	t.Run("loses", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE complaints AS c")).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta("FROM complaints WHERE tracking_id = $1")).
			WillReturnRows(complaintRow(c))

		_, err := store.Claim(ctx, c.TrackingID, claim)
		assert.True(t, errors.Is(err, ErrConflict))
	})

	t.Run("unknown complaint", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE complaints AS c")).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(regexp.QuoteMeta("FROM complaints WHERE tracking_id = $1")).
			WillReturnError(sql.ErrNoRows)

		_, err := store.Claim(ctx, c.TrackingID, claim)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Finalize(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	store := NewPostgres(db)
	ctx := context.Background()
	trackingID := id.NewTrackingID()
	claim := claimAt(baseTime)
	dest := id.DestinationID(3)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE complaints")).
		WithArgs(uuid.UUID(trackingID), claim.Token, "DERIVED", int64(3), baseTime, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Finalize(ctx, trackingID, claim, complaint.Outcome{
		Status: complaint.StatusDerived, DerivedTo: &dest, At: baseTime,
	}))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE complaints")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err = store.Finalize(ctx, trackingID, claim, complaint.Outcome{Status: complaint.StatusDerivationFailed, FailureReason: "DELIVERY_TIMEOUT", At: baseTime})
	assert.True(t, errors.Is(err, ErrConflict))

	assert.NoError(t, mock.ExpectationsWereMet())
}
