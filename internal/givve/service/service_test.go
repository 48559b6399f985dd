package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,AccessResolver,AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"cockpit/internal/givve/metrics"
	"cockpit/internal/givve/models"
	"cockpit/internal/givve/service/mocks"
	"cockpit/internal/givve/store"
	id "cockpit/pkg/domain"
	dErrors "cockpit/pkg/domain-errors"
	"cockpit/pkg/platform/audit"
	"cockpit/pkg/platform/sentinel"
	"cockpit/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	mockStore    *mocks.MockStore
	mockAccess   *mocks.MockAccessResolver
	mockAudit    *mocks.MockAuditPublisher
	metrics      *metrics.Metrics
	service      *Service
	userID       id.UserID
	subsidiaryID id.SubsidiaryID
	now          time.Time
	ctx          context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.mockAccess = mocks.NewMockAccessResolver(s.ctrl)
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.mockStore, s.mockAccess,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.mockAudit),
		WithMetrics(s.metrics),
	)

	s.userID = id.UserID(uuid.New())
	s.subsidiaryID = id.SubsidiaryID(uuid.New())
	s.now = time.Date(2026, 6, 15, 14, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(requestcontext.WithUserID(context.Background(), s.userID), s.now)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ServiceSuite) allowAccess() {
	s.mockAccess.EXPECT().Authorize(gomock.Any(), s.userID, s.subsidiaryID).Return(nil).AnyTimes()
}

// expectUpdateOn makes Update apply fn to existing, or to the seed when existing is nil.
func (s *ServiceSuite) expectUpdateOn(existing *models.Progress) {
	s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, seed *models.Progress, fn func(*models.Progress) error) (*models.Progress, error) {
			p := seed.Clone()
			if existing != nil {
				p = existing.Clone()
			}
			if err := fn(p); err != nil {
				return nil, err
			}
			return p, nil
		})
}

func ptr[T any](v T) *T { return &v }

func (s *ServiceSuite) TestAuthorization() {
	s.Run("missing user is not authorized", func() {
		_, err := s.service.GetStatus(context.Background(), s.subsidiaryID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("non-member cannot submit", func() {
		s.mockAccess.EXPECT().Authorize(gomock.Any(), s.userID, s.subsidiaryID).
			Return(dErrors.New(dErrors.CodeUnauthorized, "no access"))
		s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := s.service.MarkSubmitted(s.ctx, s.subsidiaryID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("membership lookup failure is a persistence error", func() {
		s.mockAccess.EXPECT().Authorize(gomock.Any(), s.userID, s.subsidiaryID).
			Return(sentinel.ErrUnavailable)

		_, err := s.service.Start(s.ctx, s.subsidiaryID)
		s.True(dErrors.HasCode(err, dErrors.CodePersistence))
	})
}

func (s *ServiceSuite) TestStart() {
	s.allowAccess()

	s.Run("creates the record once", func() {
		s.mockStore.EXPECT().CreateIfAbsent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p *models.Progress) (*models.Progress, bool, error) {
				s.Equal(models.StatusDocumentsPending, p.Status)
				s.Equal(s.now, p.CreatedAt)
				return p, true, nil
			})
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e audit.Event) error {
				s.Equal(string(audit.EventGivveStarted), e.Action)
				return nil
			})

		p, err := s.service.Start(s.ctx, s.subsidiaryID)
		s.Require().NoError(err)
		s.True(p.Started())
		s.Equal(1.0, testutil.ToFloat64(s.metrics.FlowsStarted))
	})

	s.Run("existing flow is returned without an audit event", func() {
		existing := models.NewProgress(s.subsidiaryID, s.now.Add(-time.Hour))
		s.mockStore.EXPECT().CreateIfAbsent(gomock.Any(), gomock.Any()).Return(existing, false, nil)

		p, err := s.service.Start(s.ctx, s.subsidiaryID)
		s.Require().NoError(err)
		s.Equal(existing, p)
	})
}

func (s *ServiceSuite) TestMarkSubmitted() {
	s.allowAccess()

	s.Run("first submission completes the flow", func() {
		s.expectUpdateOn(models.NewProgress(s.subsidiaryID, s.now.Add(-time.Hour)))
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e audit.Event) error {
				s.Equal(string(audit.EventGivveSubmitted), e.Action)
				s.Equal(s.subsidiaryID, e.SubsidiaryID)
				return nil
			})

		p, err := s.service.MarkSubmitted(s.ctx, s.subsidiaryID)
		s.Require().NoError(err)
		s.True(p.Completed)
		s.Require().NotNil(p.SubmittedAt)
		s.Equal(s.now, *p.SubmittedAt)
	})

	s.Run("missing record is created and submitted", func() {
		s.expectUpdateOn(nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		p, err := s.service.MarkSubmitted(s.ctx, s.subsidiaryID)
		s.Require().NoError(err)
		s.True(p.Completed)
		s.Equal(s.now, p.CreatedAt)
	})

	s.Run("repeated submission is rejected", func() {
		done := models.NewProgress(s.subsidiaryID, s.now)
		s.Require().NoError(done.MarkSubmitted(s.now))
		s.expectUpdateOn(done)

		_, err := s.service.MarkSubmitted(s.ctx, s.subsidiaryID)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadySubmitted))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.SubmissionsRejected))
	})

	s.Run("store failure is a persistence error", func() {
		s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, errors.New("connection reset"))

		_, err := s.service.MarkSubmitted(s.ctx, s.subsidiaryID)
		s.True(dErrors.HasCode(err, dErrors.CodePersistence))
	})
}

func (s *ServiceSuite) TestGetStatus() {
	s.allowAccess()

	s.Run("missing record reports not started", func() {
		s.mockStore.EXPECT().FindBySubsidiary(gomock.Any(), s.subsidiaryID).Return(nil, sentinel.ErrNotFound)

		p, err := s.service.GetStatus(s.ctx, s.subsidiaryID)
		s.Require().NoError(err)
		s.False(p.Started())
		s.False(p.Completed)
		s.Equal(models.StatusNotStarted, p.Status)
	})

	s.Run("returns the stored snapshot", func() {
		stored := models.NewProgress(s.subsidiaryID, s.now)
		stored.InitialInvoiceReceived = true
		s.mockStore.EXPECT().FindBySubsidiary(gomock.Any(), s.subsidiaryID).Return(stored, nil)

		p, err := s.service.GetStatus(s.ctx, s.subsidiaryID)
		s.Require().NoError(err)
		s.True(p.InitialInvoiceReceived)
	})

	s.Run("store failure is a persistence error", func() {
		s.mockStore.EXPECT().FindBySubsidiary(gomock.Any(), s.subsidiaryID).Return(nil, sentinel.ErrUnavailable)

		_, err := s.service.GetStatus(s.ctx, s.subsidiaryID)
		s.True(dErrors.HasCode(err, dErrors.CodePersistence))
	})
}

func (s *ServiceSuite) TestRecordMilestones() {
	s.Run("records reached milestones without a membership check", func() {
		s.expectUpdateOn(models.NewProgress(s.subsidiaryID, s.now))
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, e audit.Event) error {
				s.Equal(string(audit.EventGivveMilestonesUpdated), e.Action)
				s.Equal("backoffice@lohnlab.de", e.ActorID)
				s.Equal("true", e.Detail["video_identification_completed"])
				return nil
			})

		p, err := s.service.RecordMilestones(context.Background(), s.subsidiaryID, "backoffice@lohnlab.de", models.MilestoneUpdate{
			VideoIdentificationCompleted: ptr(true),
		})
		s.Require().NoError(err)
		s.True(p.VideoIdentificationCompleted)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.MilestonesRecorded.WithLabelValues("video_identification_completed")))
	})

	s.Run("reset is rejected", func() {
		existing := models.NewProgress(s.subsidiaryID, s.now)
		existing.InitialInvoiceReceived = true
		s.expectUpdateOn(existing)

		_, err := s.service.RecordMilestones(s.ctx, s.subsidiaryID, "ops", models.MilestoneUpdate{
			InitialInvoiceReceived: ptr(false),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	s.Run("empty update is a validation error", func() {
		s.mockStore.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
		_, err := s.service.RecordMilestones(s.ctx, s.subsidiaryID, "ops", models.MilestoneUpdate{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// TestSubmitAgainstMemoryStore drives the flow end to end against the in-memory store.
func (s *ServiceSuite) TestSubmitAgainstMemoryStore() {
	s.allowAccess()
	svc := New(store.NewInMemory(), s.mockAccess)

	status, err := svc.GetStatus(s.ctx, s.subsidiaryID)
	s.Require().NoError(err)
	s.False(status.Started())

	_, err = svc.Start(s.ctx, s.subsidiaryID)
	s.Require().NoError(err)

	_, err = svc.MarkSubmitted(s.ctx, s.subsidiaryID)
	s.Require().NoError(err)

	_, err = svc.MarkSubmitted(s.ctx, s.subsidiaryID)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadySubmitted))

	_, err = svc.RecordMilestones(s.ctx, s.subsidiaryID, "ops", models.MilestoneUpdate{
		InitialInvoiceReceived: ptr(true),
	})
	s.Require().NoError(err)

	status, err = svc.GetStatus(s.ctx, s.subsidiaryID)
	s.Require().NoError(err)
	s.True(status.Completed)
	s.True(status.InitialInvoiceReceived)
	s.Equal(s.now, *status.SubmittedAt)
}
