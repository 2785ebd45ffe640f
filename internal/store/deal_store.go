package store

import (
	"sync"
	"time"

	"github.com/spec-kit/crm-core/internal/domain"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

// DealStore holds pipeline deals. Same locking discipline as the
// request store, one mutex per deal.
type DealStore struct {
	mu    sync.RWMutex
	deals map[string]*dealEntry
	order []string

	Clock func() time.Time
}

type dealEntry struct {
	mu   sync.Mutex
	deal *domain.Deal
}

// NewDealStore creates an empty store.
func NewDealStore() *DealStore {
	return &DealStore{
		deals: make(map[string]*dealEntry),
		Clock: time.Now,
	}
}

// Insert adds a new deal. Fails with Conflict on duplicate id.
func (s *DealStore) Insert(deal *domain.Deal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.deals[deal.ID]; exists {
		return apperrors.NewConflict("deal already exists", map[string]any{"id": deal.ID})
	}
	s.deals[deal.ID] = &dealEntry{deal: deal.Clone()}
	s.order = append(s.order, deal.ID)
	return nil
}

// Get returns a snapshot of one deal.
func (s *DealStore) Get(id string) (*domain.Deal, error) {
	s.mu.RLock()
	entry, ok := s.deals[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewNotFound("deal", map[string]any{"id": id})
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.deal.Clone(), nil
}

// List returns snapshots of all deals in insertion order.
func (s *DealStore) List() []domain.Deal {
	s.mu.RLock()
	entries := make([]*dealEntry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, s.deals[id])
	}
	s.mu.RUnlock()

	result := make([]domain.Deal, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		result = append(result, *entry.deal.Clone())
		entry.mu.Unlock()
	}
	return result
}

// Update applies fn to the deal under its entry lock. Returning false
// from fn skips the write entirely (no UpdatedAt bump).
func (s *DealStore) Update(id string, fn func(*domain.Deal) (bool, error)) (*domain.Deal, bool, error) {
	s.mu.RLock()
	entry, ok := s.deals[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false, apperrors.NewNotFound("deal", map[string]any{"id": id})
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	next := entry.deal.Clone()
	applied, err := fn(next)
	if err != nil {
		return nil, false, err
	}
	if !applied {
		return entry.deal.Clone(), false, nil
	}
	now := s.Clock()
	if now.After(next.UpdatedAt) {
		next.UpdatedAt = now
	}
	entry.deal = next
	return next.Clone(), true, nil
}
