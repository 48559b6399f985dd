//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"cockpit/internal/givve/models"
	"cockpit/internal/givve/store"
	id "cockpit/pkg/domain"
	dErrors "cockpit/pkg/domain-errors"
	"cockpit/pkg/platform/sentinel"
	"cockpit/pkg/platform/tx"
	"cockpit/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB, tx.NewRunner(s.postgres.DB, 5*time.Second))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "givve_onboarding_progress"))
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresStoreSuite) TestNotFound() {
	_, err := s.store.FindBySubsidiary(context.Background(), id.SubsidiaryID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	subsidiaryID := id.SubsidiaryID(uuid.New())
	link := "https://ident.example.com/s/abc"

	_, err := s.store.Update(ctx, models.NewProgress(subsidiaryID, s.now), func(p *models.Progress) error {
		if err := p.MarkSubmitted(s.now); err != nil {
			return err
		}
		return p.ApplyMilestones(models.MilestoneUpdate{VideoIdentificationLink: &link}, s.now)
	})
	s.Require().NoError(err)

	found, err := s.store.FindBySubsidiary(ctx, subsidiaryID)
	s.Require().NoError(err)

	want := models.NewProgress(subsidiaryID, s.now)
	s.Require().NoError(want.MarkSubmitted(s.now))
	want.VideoIdentificationLink = &link
	if diff := cmp.Diff(want, found); diff != "" {
		s.Failf("round trip mismatch", "(-want +got):\n%s", diff)
	}
}

func (s *PostgresStoreSuite) TestCreateIfAbsentIsIdempotent() {
	ctx := context.Background()
	subsidiaryID := id.SubsidiaryID(uuid.New())

	_, created, err := s.store.CreateIfAbsent(ctx, models.NewProgress(subsidiaryID, s.now))
	s.Require().NoError(err)
	s.True(created)

	stored, created, err := s.store.CreateIfAbsent(ctx, models.NewProgress(subsidiaryID, s.now.Add(time.Hour)))
	s.Require().NoError(err)
	s.False(created)
	s.True(s.now.Equal(stored.CreatedAt))
}

func (s *PostgresStoreSuite) TestRejectedUpdateRollsBack() {
	ctx := context.Background()
	subsidiaryID := id.SubsidiaryID(uuid.New())

	_, err := s.store.Update(ctx, models.NewProgress(subsidiaryID, s.now), func(p *models.Progress) error {
		return dErrors.New(dErrors.CodeInvalidTransition, "rejected")
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))

	_, err = s.store.FindBySubsidiary(ctx, subsidiaryID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentSubmissions verifies the row lock lets exactly one submission through.
func (s *PostgresStoreSuite) TestConcurrentSubmissions() {
	ctx := context.Background()
	subsidiaryID := id.SubsidiaryID(uuid.New())
	_, _, err := s.store.CreateIfAbsent(ctx, models.NewProgress(subsidiaryID, s.now))
	s.Require().NoError(err)

	const callers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Update(ctx, models.NewProgress(subsidiaryID, s.now), func(p *models.Progress) error {
				return p.MarkSubmitted(s.now)
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case dErrors.HasCode(err, dErrors.CodeAlreadySubmitted):
				rejected++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, ok)
	s.Equal(callers-1, rejected)
}
