package notify

import (
	"context"
	"sync"

	"github.com/spec-kit/crm-core/internal/domain"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

// Feed persists the per-recipient notification rows. Rows are only ever
// appended and flipped unread -> read; normal flow never deletes one.
type Feed interface {
	Add(ctx context.Context, n *domain.CRMNotification) error
	ListForUser(ctx context.Context, userID string) ([]domain.CRMNotification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// memoryFeed is the default backend when no Redis address is configured.
type memoryFeed struct {
	mu    sync.RWMutex
	rows  map[string]*domain.CRMNotification
	order []string
}

// NewMemoryFeed creates an in-memory feed.
func NewMemoryFeed() Feed {
	return &memoryFeed{rows: make(map[string]*domain.CRMNotification)}
}

func (f *memoryFeed) Add(_ context.Context, n *domain.CRMNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *n
	f.rows[n.ID] = &cp
	f.order = append(f.order, n.ID)
	return nil
}

func (f *memoryFeed) ListForUser(_ context.Context, userID string) ([]domain.CRMNotification, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	result := []domain.CRMNotification{}
	// newest-first
	for i := len(f.order) - 1; i >= 0; i-- {
		row := f.rows[f.order[i]]
		if row.VisibleTo(userID) {
			result = append(result, *row)
		}
	}
	return result, nil
}

func (f *memoryFeed) MarkRead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return apperrors.NewNotFound("notification", map[string]any{"id": id})
	}
	row.Read = true
	return nil
}

func (f *memoryFeed) MarkAllRead(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	marked := 0
	for _, row := range f.rows {
		if !row.Read && row.VisibleTo(userID) {
			row.Read = true
			marked++
		}
	}
	return marked, nil
}

func (f *memoryFeed) UnreadCount(_ context.Context, userID string) (int, error) {
	// always a live recomputation, never a cached counter
	f.mu.RLock()
	defer f.mu.RUnlock()
	count := 0
	for _, row := range f.rows {
		if !row.Read && row.VisibleTo(userID) {
			count++
		}
	}
	return count, nil
}
