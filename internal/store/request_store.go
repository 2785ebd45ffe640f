package store

import (
	"sync"
	"time"

	"github.com/spec-kit/crm-core/internal/domain"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

// RequestStore owns the canonical collection of client requests. Every
// write to a given request goes through its entry mutex, so read-modify-
// write cycles are atomic per request. Reads hand out deep copies; a
// caller never observes a half-mutated request.
type RequestStore struct {
	mu       sync.RWMutex
	requests map[string]*requestEntry
	order    []string

	// Clock is overridable in tests.
	Clock func() time.Time
}

type requestEntry struct {
	mu  sync.Mutex
	req *domain.ClientRequest
}

// NewRequestStore creates an empty store.
func NewRequestStore() *RequestStore {
	return &RequestStore{
		requests: make(map[string]*requestEntry),
		Clock:    time.Now,
	}
}

// Insert adds a new request. Fails with Conflict on duplicate id.
func (s *RequestStore) Insert(req *domain.ClientRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return apperrors.NewConflict("request already exists", map[string]any{"id": req.ID})
	}
	s.requests[req.ID] = &requestEntry{req: req.Clone()}
	s.order = append(s.order, req.ID)
	return nil
}

// Get returns a snapshot of one request.
func (s *RequestStore) Get(id string) (*domain.ClientRequest, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.req.Clone(), nil
}

// List returns snapshots of all requests in insertion order.
func (s *RequestStore) List() []domain.ClientRequest {
	s.mu.RLock()
	entries := make([]*requestEntry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, s.requests[id])
	}
	s.mu.RUnlock()

	result := make([]domain.ClientRequest, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		result = append(result, *entry.req.Clone())
		entry.mu.Unlock()
	}
	return result
}

// Update applies fn to the request under its entry lock. fn receives a
// clone; the stored request is swapped only when fn reports the change
// as applied, with UpdatedAt bumped (never backwards). Returns the
// resulting snapshot either way.
func (s *RequestStore) Update(id string, fn func(*domain.ClientRequest) (bool, error)) (*domain.ClientRequest, bool, error) {
	entry, err := s.entry(id)
	if err != nil {
		return nil, false, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	next := entry.req.Clone()
	applied, err := fn(next)
	if err != nil {
		return nil, false, err
	}
	if !applied {
		return entry.req.Clone(), false, nil
	}
	now := s.Clock()
	if now.After(next.UpdatedAt) {
		next.UpdatedAt = now
	}
	entry.req = next
	return next.Clone(), true, nil
}

func (s *RequestStore) entry(id string) (*requestEntry, error) {
	s.mu.RLock()
	entry, ok := s.requests[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewNotFound("request", map[string]any{"id": id})
	}
	return entry, nil
}
