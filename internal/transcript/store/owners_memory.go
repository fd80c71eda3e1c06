package store

import (
	"context"
	"fmt"
	"sync"

	"transcript/pkg/domain"
	"transcript/pkg/platform/sentinel"
)

// InMemoryOwners is the ownership substrate held in process memory.
type InMemoryOwners struct {
	mu      sync.RWMutex
	owners  map[domain.TokenID]domain.Address
	journal journal
}

func NewInMemoryOwners() *InMemoryOwners {
	return &InMemoryOwners{owners: make(map[domain.TokenID]domain.Address)}
}

func (s *InMemoryOwners) OwnerOf(_ context.Context, tokenID domain.TokenID) (domain.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[tokenID]
	if !ok {
		return domain.Address{}, sentinel.ErrNotFound
	}
	return owner, nil
}

func (s *InMemoryOwners) Create(_ context.Context, tokenID domain.TokenID, owner domain.Address) error {
	if tokenID.IsZero() || owner.IsZero() {
		return fmt.Errorf("ownership requires a token and an owner")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owners[tokenID]; ok {
		return fmt.Errorf("token %s: %w", tokenID, sentinel.ErrConflict)
	}
	s.owners[tokenID] = owner
	s.journal.record(func() { delete(s.owners, tokenID) })
	return nil
}

func (s *InMemoryOwners) Destroy(_ context.Context, tokenID domain.TokenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.owners[tokenID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.owners, tokenID)
	s.journal.record(func() { s.owners[tokenID] = owner })
	return nil
}

func (s *InMemoryOwners) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal.begin()
}

func (s *InMemoryOwners) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal.commit()
}

func (s *InMemoryOwners) Rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal.rollback()
}
