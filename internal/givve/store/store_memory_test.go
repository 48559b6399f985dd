package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"cockpit/internal/givve/models"
	id "cockpit/pkg/domain"
	dErrors "cockpit/pkg/domain-errors"
	"cockpit/pkg/platform/sentinel"
)

type InMemorySuite struct {
	suite.Suite
	store        *InMemory
	subsidiaryID id.SubsidiaryID
	now          time.Time
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.store = NewInMemory()
	s.subsidiaryID = id.SubsidiaryID(uuid.New())
	s.now = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
}

func (s *InMemorySuite) TestFindMissing() {
	_, err := s.store.FindBySubsidiary(context.Background(), s.subsidiaryID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemorySuite) TestCreateIfAbsent() {
	ctx := context.Background()
	first, created, err := s.store.CreateIfAbsent(ctx, models.NewProgress(s.subsidiaryID, s.now))
	s.Require().NoError(err)
	s.True(created)

	again, created, err := s.store.CreateIfAbsent(ctx, models.NewProgress(s.subsidiaryID, s.now.Add(time.Hour)))
	s.Require().NoError(err)
	s.False(created)
	s.Equal(first.CreatedAt, again.CreatedAt)
}

func (s *InMemorySuite) TestUpdateCreatesFromSeed() {
	ctx := context.Background()
	updated, err := s.store.Update(ctx, models.NewProgress(s.subsidiaryID, s.now), func(p *models.Progress) error {
		return p.MarkSubmitted(s.now)
	})
	s.Require().NoError(err)
	s.True(updated.Completed)

	stored, err := s.store.FindBySubsidiary(ctx, s.subsidiaryID)
	s.Require().NoError(err)
	s.True(stored.Completed)
	s.Equal(s.now, stored.CreatedAt)
}

func (s *InMemorySuite) TestFailedUpdateWritesNothing() {
	ctx := context.Background()
	_, err := s.store.Update(ctx, models.NewProgress(s.subsidiaryID, s.now), func(p *models.Progress) error {
		p.Status = "changed"
		return dErrors.New(dErrors.CodeInvalidTransition, "rejected")
	})
	s.Require().Error(err)

	_, err = s.store.FindBySubsidiary(ctx, s.subsidiaryID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemorySuite) TestReturnedRecordsAreCopies() {
	ctx := context.Background()
	_, _, err := s.store.CreateIfAbsent(ctx, models.NewProgress(s.subsidiaryID, s.now))
	s.Require().NoError(err)

	found, err := s.store.FindBySubsidiary(ctx, s.subsidiaryID)
	s.Require().NoError(err)
	found.Completed = true

	again, err := s.store.FindBySubsidiary(ctx, s.subsidiaryID)
	s.Require().NoError(err)
	s.False(again.Completed)
}
