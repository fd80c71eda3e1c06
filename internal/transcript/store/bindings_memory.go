package store

import (
	"context"
	"fmt"
	"sync"

	"transcript/internal/transcript/models"
	"transcript/pkg/domain"
	"transcript/pkg/platform/sentinel"
)

// InMemoryBindings keeps the three registry lookups in maps:
// token → binding, fingerprint → registered, fingerprint → token.
type InMemoryBindings struct {
	mu         sync.RWMutex
	byToken    map[domain.TokenID]models.Binding
	registered map[domain.PDFHash]bool
	tokens     map[domain.PDFHash]domain.TokenID
	count      uint64
	journal    journal
}

func NewInMemoryBindings() *InMemoryBindings {
	return &InMemoryBindings{
		byToken:    make(map[domain.TokenID]models.Binding),
		registered: make(map[domain.PDFHash]bool),
		tokens:     make(map[domain.PDFHash]domain.TokenID),
	}
}

func (s *InMemoryBindings) HashOf(_ context.Context, tokenID domain.TokenID) (domain.PDFHash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byToken[tokenID]
	if !ok {
		return domain.PDFHash{}, sentinel.ErrNotFound
	}
	return b.PDFHash, nil
}

func (s *InMemoryBindings) TokenIDOf(_ context.Context, hash domain.PDFHash) (domain.TokenID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.registered[hash] {
		return 0, sentinel.ErrNotFound
	}
	return s.tokens[hash], nil
}

func (s *InMemoryBindings) IsRegistered(_ context.Context, hash domain.PDFHash) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registered[hash], nil
}

func (s *InMemoryBindings) Count(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count, nil
}

// Put writes all three lookups and increments the count.
func (s *InMemoryBindings) Put(_ context.Context, b models.Binding) error {
	if b.TokenID.IsZero() || b.PDFHash.IsZero() {
		return fmt.Errorf("binding keys must be non-zero")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byToken[b.TokenID]; ok {
		return fmt.Errorf("token %s: %w", b.TokenID, sentinel.ErrConflict)
	}
	if s.registered[b.PDFHash] {
		return fmt.Errorf("pdf hash %s: %w", b.PDFHash.Hex(), sentinel.ErrConflict)
	}
	s.byToken[b.TokenID] = b
	s.registered[b.PDFHash] = true
	s.tokens[b.PDFHash] = b.TokenID
	s.count++
	s.journal.record(func() { s.clear(b) })
	return nil
}

// Delete clears all three lookups of tokenID and decrements the count.
func (s *InMemoryBindings) Delete(_ context.Context, tokenID domain.TokenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.byToken[tokenID]
	if !ok {
		return sentinel.ErrNotFound
	}
	s.clear(b)
	s.journal.record(func() {
		s.byToken[b.TokenID] = b
		s.registered[b.PDFHash] = true
		s.tokens[b.PDFHash] = b.TokenID
		s.count++
	})
	return nil
}

func (s *InMemoryBindings) clear(b models.Binding) {
	delete(s.byToken, b.TokenID)
	delete(s.registered, b.PDFHash)
	delete(s.tokens, b.PDFHash)
	s.count--
}

func (s *InMemoryBindings) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal.begin()
}

func (s *InMemoryBindings) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal.commit()
}

func (s *InMemoryBindings) Rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.journal.rollback()
}
