package access

import (
	"context"
	"sync"

	id "cockpit/pkg/domain"
)

type membershipKey struct {
	user       id.UserID
	subsidiary id.SubsidiaryID
}

// InMemory keeps memberships in a set. Used for development and tests.
type InMemory struct {
	mu      sync.RWMutex
	members map[membershipKey]struct{}
}

func NewInMemory() *InMemory {
	return &InMemory{members: make(map[membershipKey]struct{})}
}

func (s *InMemory) Grant(_ context.Context, userID id.UserID, subsidiaryID id.SubsidiaryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[membershipKey{userID, subsidiaryID}] = struct{}{}
	return nil
}

func (s *InMemory) IsMember(_ context.Context, userID id.UserID, subsidiaryID id.SubsidiaryID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.members[membershipKey{userID, subsidiaryID}]
	return ok, nil
}
