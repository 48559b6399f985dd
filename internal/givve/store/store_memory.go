// Package store persists givve card onboarding records, one per subsidiary.
package store

import (
	"context"
	"sync"

	"cockpit/internal/givve/models"
	id "cockpit/pkg/domain"
	"cockpit/pkg/platform/sentinel"
)

// InMemory is a map-backed store used for development and tests.
type InMemory struct {
	mu      sync.Mutex
	records map[id.SubsidiaryID]*models.Progress
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.SubsidiaryID]*models.Progress)}
}

func (s *InMemory) FindBySubsidiary(_ context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.records[subsidiaryID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *InMemory) CreateIfAbsent(_ context.Context, progress *models.Progress) (*models.Progress, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.records[progress.SubsidiaryID]; ok {
		return existing.Clone(), false, nil
	}
	s.records[progress.SubsidiaryID] = progress.Clone()
	return progress.Clone(), true, nil
}

// Update runs fn on the stored record, creating it from seed first when absent. Nothing
// is written when fn fails.
func (s *InMemory) Update(_ context.Context, seed *models.Progress, fn func(p *models.Progress) error) (*models.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[seed.SubsidiaryID]
	if !ok {
		current = seed
	}
	working := current.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.records[seed.SubsidiaryID] = working.Clone()
	return working, nil
}
