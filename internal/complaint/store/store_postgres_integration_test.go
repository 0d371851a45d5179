//go:build integration

package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"vozsegura/internal/complaint"
	"vozsegura/internal/platform/postgres"
	id "vozsegura/pkg/domain"
	"vozsegura/pkg/testutil/containers"
)

type PostgresIntegrationSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	ctx   context.Context
}

func TestPostgresIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresIntegrationSuite))
}

func (s *PostgresIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	s.pg = containers.NewPostgresContainer(s.T())
	s.Require().NoError(postgres.Migrate(s.ctx, s.pg.DB))
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresIntegrationSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx, "complaints"))
}

func (s *PostgresIntegrationSuite) TestConcurrentClaimsHaveOneWinner() {
	c := newComplaint()
	s.Require().NoError(s.store.Save(s.ctx, c))

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   int
		conflicts int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Claim(s.ctx, c.TrackingID, claimAt(baseTime.Add(time.Second)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, ErrConflict):
				conflicts++
			default:
				s.Failf("unexpected claim error", "%v", err)
			}
		}()
	}
	wg.Wait()

	s.Equal(1, winners)
	s.Equal(attempts-1, conflicts)
}

func (s *PostgresIntegrationSuite) TestExpiredClaimIsReclaimedAndOldTokenCannotFinalize() {
	c := newComplaint()
	s.Require().NoError(s.store.Save(s.ctx, c))

	stale := claimAt(baseTime)
	_, err := s.store.Claim(s.ctx, c.TrackingID, stale)
	s.Require().NoError(err)

	later := baseTime.Add(10 * time.Minute)
	fresh := claimAt(later)
	res, err := s.store.Claim(s.ctx, c.TrackingID, fresh)
	s.Require().NoError(err)
	s.True(res.Reclaimed)
	s.Equal(complaint.StatusPendingDerivation, res.PreviousStatus)

	outcome := complaint.Outcome{Status: complaint.StatusDerivationFailed, FailureReason: "DELIVERY_TIMEOUT", At: later}
	err = s.store.Finalize(s.ctx, c.TrackingID, stale, outcome)
	s.True(errors.Is(err, ErrConflict), "a replaced claim cannot write the outcome")

	s.Require().NoError(s.store.Finalize(s.ctx, c.TrackingID, fresh, outcome))
	got, err := s.store.Find(s.ctx, c.TrackingID)
	s.Require().NoError(err)
	s.Equal(complaint.StatusDerivationFailed, got.Status)
	s.Equal("DELIVERY_TIMEOUT", got.LastFailureReason)
	s.Nil(got.ClaimToken)
}

func (s *PostgresIntegrationSuite) TestClaimUnknownComplaint() {
	_, err := s.store.Claim(s.ctx, id.NewTrackingID(), claimAt(baseTime))
	s.True(errors.Is(err, ErrNotFound))
}
