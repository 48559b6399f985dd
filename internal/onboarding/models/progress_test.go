package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"cockpit/internal/onboarding/models"
	"cockpit/internal/onboarding/onboardingtest"
	id "cockpit/pkg/domain"
	dErrors "cockpit/pkg/domain-errors"
)

type ProgressSuite struct {
	suite.Suite
	subsidiaryID id.SubsidiaryID
	now          time.Time
}

func TestProgressSuite(t *testing.T) {
	suite.Run(t, new(ProgressSuite))
}

func (s *ProgressSuite) SetupTest() {
	s.subsidiaryID = id.SubsidiaryID(uuid.New())
	s.now = time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC)
}

func (s *ProgressSuite) TestNewProgress() {
	p := models.NewProgress(s.subsidiaryID, s.now)
	s.Equal(1, p.CurrentStep)
	s.False(p.Completed)
	s.Empty(p.StepData)
	s.Equal(models.StepGesellschaft, p.Current())
	s.NoError(p.Validate())
}

func (s *ProgressSuite) TestAdvance() {
	s.Run("moves to the next step and records the payload", func() {
		p := models.NewProgress(s.subsidiaryID, s.now)
		payload := onboardingtest.Payload(models.StepGesellschaft)

		s.Require().NoError(p.Advance(payload, s.now.Add(time.Minute)))
		s.Equal(2, p.CurrentStep)
		s.False(p.Completed)
		s.Equal(payload, p.StepData[models.StepGesellschaft])
		s.Equal(s.now.Add(time.Minute), p.UpdatedAt)
	})

	s.Run("rejects a step other than the current one", func() {
		p := models.NewProgress(s.subsidiaryID, s.now)
		err := p.Advance(onboardingtest.Payload(models.StepStandorte), s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		s.Equal(1, p.CurrentStep)
		s.Empty(p.StepData)
	})

	s.Run("last step completes and clamps at total", func() {
		p := onboardingtest.ProgressAt(s.subsidiaryID, models.Total(), s.now)
		s.Require().NoError(p.Advance(onboardingtest.Payload(models.StepReview), s.now))
		s.True(p.Completed)
		s.Equal(models.Total(), p.CurrentStep)
		s.NoError(p.Validate())
	})

	s.Run("completed onboarding rejects further advances", func() {
		p := onboardingtest.ProgressAt(s.subsidiaryID, models.Total()+1, s.now)
		s.Require().True(p.Completed)
		err := p.CanAdvance(models.StepReview)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *ProgressSuite) TestRetreat() {
	s.Run("decrements and keeps recorded data", func() {
		p := onboardingtest.ProgressAt(s.subsidiaryID, 3, s.now)
		p.ApplyRetreat(s.now)
		s.Equal(2, p.CurrentStep)
		s.Len(p.StepData, 2)
	})

	s.Run("floors at the first step", func() {
		p := models.NewProgress(s.subsidiaryID, s.now)
		p.ApplyRetreat(s.now)
		p.ApplyRetreat(s.now)
		s.Equal(1, p.CurrentStep)
	})

	s.Run("reopens a completed onboarding", func() {
		p := onboardingtest.ProgressAt(s.subsidiaryID, models.Total()+1, s.now)
		p.ApplyRetreat(s.now)
		s.False(p.Completed)
		s.Equal(models.Total()-1, p.CurrentStep)
	})
}

func (s *ProgressSuite) TestValidate() {
	s.Run("rejects out of range steps", func() {
		for _, step := range []int{0, models.Total() + 1} {
			p := models.NewProgress(s.subsidiaryID, s.now)
			p.CurrentStep = step
			s.True(dErrors.HasCode(p.Validate(), dErrors.CodeInvariantViolation))
		}
	})

	s.Run("rejects completed before the last step", func() {
		p := onboardingtest.ProgressAt(s.subsidiaryID, 4, s.now)
		p.Completed = true
		s.True(dErrors.HasCode(p.Validate(), dErrors.CodeInvariantViolation))
	})

	s.Run("rejects completed with missing step data", func() {
		p := onboardingtest.ProgressAt(s.subsidiaryID, models.Total()+1, s.now)
		delete(p.StepData, models.StepBuchhaltung)
		s.True(dErrors.HasCode(p.Validate(), dErrors.CodeInvariantViolation))
	})

	s.Run("rejects payload stored under the wrong key", func() {
		p := models.NewProgress(s.subsidiaryID, s.now)
		p.StepData[models.StepStandorte] = onboardingtest.Payload(models.StepGesellschaft)
		s.True(dErrors.HasCode(p.Validate(), dErrors.CodeInvariantViolation))
	})
}

func (s *ProgressSuite) TestPercentComplete() {
	cases := map[int]int{1: 14, 2: 29, 3: 43, 4: 57, 5: 71, 6: 86, 7: 100}
	for rank, want := range cases {
		p := models.NewProgress(s.subsidiaryID, s.now)
		p.CurrentStep = rank
		s.Equal(want, models.PercentComplete(p), "rank %d", rank)
	}
}

func (s *ProgressSuite) TestCloneIsDeep() {
	p := onboardingtest.ProgressAt(s.subsidiaryID, 3, s.now)
	c := p.Clone()
	c.StepData[models.StepStandorte].(*models.Standorte).Locations[0].Name = "changed"
	c.CurrentStep = 1

	s.Equal(3, p.CurrentStep)
	s.Equal("Zentrale", p.StepData[models.StepStandorte].(*models.Standorte).Locations[0].Name)
}

func (s *ProgressSuite) TestJSONRoundTrip() {
	p := onboardingtest.ProgressAt(s.subsidiaryID, models.Total()+1, s.now)

	b, err := json.Marshal(p)
	s.Require().NoError(err)

	var decoded models.Progress
	s.Require().NoError(json.Unmarshal(b, &decoded))
	if diff := cmp.Diff(p, &decoded); diff != "" {
		s.Failf("round trip changed the record", "diff (-want +got):\n%s", diff)
	}
}
