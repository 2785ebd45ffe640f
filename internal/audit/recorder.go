package audit

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-core/internal/domain"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

// Recorder appends immutable audit entries with field-level diffs. It is
// best-effort relative to the primary mutation: Record reports append
// failures as Degraded and never asks the caller to roll anything back.
type Recorder struct {
	log    Log
	logger *zap.Logger

	Clock func() time.Time
}

// NewRecorder constructs a recorder over the given log backend.
func NewRecorder(log Log, logger *zap.Logger) *Recorder {
	return &Recorder{log: log, logger: logger, Clock: time.Now}
}

// Record computes the diff between before and after and appends an entry.
// The returned error, when non-nil, is always Degraded: the entry was lost
// but the mutation it describes has already committed.
func (r *Recorder) Record(ctx context.Context, actorID string, action domain.AuditAction, entityType, entityID string, before, after map[string]any, metadata *domain.AuditMetadata) (*domain.AuditLogEntry, error) {
	entry := &domain.AuditLogEntry{
		ID:         uuid.NewString(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
		CreatedAt:  r.Clock(),
	}
	if before != nil || after != nil {
		entry.Diff = &domain.AuditDiff{
			Before:  before,
			After:   after,
			Changed: ChangedFields(before, after),
		}
	}

	if err := r.log.Append(ctx, entry); err != nil {
		r.logger.Warn("audit append failed; mutation already committed",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err))
		return entry, apperrors.NewDegraded("audit entry not persisted", err)
	}
	return entry, nil
}

// Page is one page of audit entries, newest-first.
type Page struct {
	Logs       []domain.AuditLogEntry `json:"logs"`
	TotalPages int                    `json:"totalPages"`
}

// List returns a page of entries for one entity, newest-first.
func (r *Recorder) List(ctx context.Context, entityType, entityID string, page, limit int) (*Page, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	entries, total, err := r.log.ListByEntity(ctx, entityType, entityID, (page-1)*limit, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	totalPages := (total + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}
	return &Page{Logs: entries, TotalPages: totalPages}, nil
}

// ChangedFields lists the top-level keys present in either map whose
// serialized values differ. Output is sorted for determinism.
func ChangedFields(before, after map[string]any) []string {
	keys := map[string]struct{}{}
	for k := range before {
		keys[k] = struct{}{}
	}
	for k := range after {
		keys[k] = struct{}{}
	}

	changed := []string{}
	for k := range keys {
		if serialize(before[k]) != serialize(after[k]) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

func serialize(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "<unserializable>"
	}
	return string(raw)
}
