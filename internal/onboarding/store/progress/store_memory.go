// Package progress stores onboarding progress records, one per subsidiary.
package progress

import (
	"context"
	"sync"

	"cockpit/internal/onboarding/models"
	id "cockpit/pkg/domain"
	"cockpit/pkg/platform/sentinel"
)

// InMemory is a map-backed store. Records are cloned on the way in and out so callers
// never share state with the store.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.SubsidiaryID]*models.Progress
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.SubsidiaryID]*models.Progress)}
}

func (s *InMemory) FindBySubsidiary(_ context.Context, subsidiaryID id.SubsidiaryID) (*models.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
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

// Save replaces the record. The original creation time is kept.
func (s *InMemory) Save(_ context.Context, progress *models.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := progress.Clone()
	if existing, ok := s.records[progress.SubsidiaryID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	s.records[progress.SubsidiaryID] = stored
	return nil
}
