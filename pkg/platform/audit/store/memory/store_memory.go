package memory

import (
	"context"
	"sync"

	id "cockpit/pkg/domain"
	audit "cockpit/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.SubsidiaryID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.SubsidiaryID][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.SubsidiaryID] = append(s.events[event.SubsidiaryID], event)
	return nil
}

// ListBySubsidiary returns events in append order.
func (s *InMemoryStore) ListBySubsidiary(_ context.Context, subsidiaryID id.SubsidiaryID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[subsidiaryID]...), nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.SubsidiaryID][]audit.Event)
}
