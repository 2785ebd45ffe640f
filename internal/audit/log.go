package audit

import (
	"context"
	"sync"

	"github.com/spec-kit/crm-core/internal/domain"
)

// Log is the append-only storage behind the recorder.
type Log interface {
	Append(ctx context.Context, entry *domain.AuditLogEntry) error
	ListByEntity(ctx context.Context, entityType, entityID string, offset, limit int) ([]domain.AuditLogEntry, int, error)
}

// memoryLog keeps entries in process; the default backend when no
// Postgres DSN is configured.
type memoryLog struct {
	mu      sync.RWMutex
	entries []domain.AuditLogEntry
}

// NewMemoryLog creates an in-memory log.
func NewMemoryLog() Log {
	return &memoryLog{}
}

func (l *memoryLog) Append(_ context.Context, entry *domain.AuditLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, *entry)
	return nil
}

func (l *memoryLog) ListByEntity(_ context.Context, entityType, entityID string, offset, limit int) ([]domain.AuditLogEntry, int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	matched := []domain.AuditLogEntry{}
	// newest-first: walk backwards over the append order
	for i := len(l.entries) - 1; i >= 0; i-- {
		entry := l.entries[i]
		if entityType != "" && entry.EntityType != entityType {
			continue
		}
		if entityID != "" && entry.EntityID != entityID {
			continue
		}
		matched = append(matched, entry)
	}

	total := len(matched)
	if offset >= total {
		return []domain.AuditLogEntry{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}
