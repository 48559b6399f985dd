// Package status composes the onboarding banner from the wizard and the givve card flow.
package status

import (
	"context"

	"golang.org/x/sync/errgroup"

	givvemodels "cockpit/internal/givve/models"
	"cockpit/internal/onboarding/models"
	id "cockpit/pkg/domain"
	dErrors "cockpit/pkg/domain-errors"
	"cockpit/pkg/requestcontext"
)

type ProgressLoader interface {
	Load(ctx context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error)
	PercentComplete(progress *models.Progress) int
}

// GivveSnapshotter reads the givve record without its own membership check.
type GivveSnapshotter interface {
	Snapshot(ctx context.Context, subsidiaryID id.SubsidiaryID) (*givvemodels.Progress, error)
}

// Overview is what the cockpit banner shows for one subsidiary.
type Overview struct {
	SubsidiaryID    id.SubsidiaryID       `json:"subsidiary_id"`
	CurrentStep     int                   `json:"current_step"`
	StepName        models.Step           `json:"step_name"`
	StepDisplayName string                `json:"step_display_name"`
	TotalSteps      int                   `json:"total_steps"`
	Percent         int                   `json:"percent"`
	Completed       bool                  `json:"completed"`
	Givve           *givvemodels.Progress `json:"givve"`
}

type Service struct {
	onboarding ProgressLoader
	givve      GivveSnapshotter
}

func NewService(onboarding ProgressLoader, givve GivveSnapshotter) *Service {
	return &Service{onboarding: onboarding, givve: givve}
}

// Overview loads both records concurrently. The onboarding load authorizes the caller; the
// givve snapshot is discarded if that fails.
func (s *Service) Overview(ctx context.Context, subsidiaryID id.SubsidiaryID) (*Overview, error) {
	if requestcontext.UserID(ctx).IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "no authenticated user")
	}

	var (
		progress *models.Progress
		givve    *givvemodels.Progress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		progress, err = s.onboarding.Load(gctx, subsidiaryID)
		return err
	})
	g.Go(func() error {
		var err error
		givve, err = s.givve.Snapshot(gctx, subsidiaryID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	step := progress.Current()
	return &Overview{
		SubsidiaryID:    subsidiaryID,
		CurrentStep:     progress.CurrentStep,
		StepName:        step,
		StepDisplayName: step.DisplayName(),
		TotalSteps:      models.Total(),
		Percent:         s.onboarding.PercentComplete(progress),
		Completed:       progress.Completed,
		Givve:           givve,
	}, nil
}
