package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/crm-core/internal/domain"
)

// postgresLog persists audit entries through a pgx pool.
type postgresLog struct {
	pool *pgxpool.Pool
}

// NewPostgresLog creates a Postgres-backed log.
func NewPostgresLog(pool *pgxpool.Pool) Log {
	return &postgresLog{pool: pool}
}

func (l *postgresLog) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	const query = `
        INSERT INTO audit_logs (id, actor_id, action, entity_type, entity_id, diff, metadata, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	var diff, metadata []byte
	var err error
	if entry.Diff != nil {
		if diff, err = json.Marshal(entry.Diff); err != nil {
			return err
		}
	}
	if entry.Metadata != nil {
		if metadata, err = json.Marshal(entry.Metadata); err != nil {
			return err
		}
	}

	_, err = l.pool.Exec(ctx, query,
		entry.ID,
		entry.ActorID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		diff,
		metadata,
		entry.CreatedAt,
	)
	return err
}

func (l *postgresLog) ListByEntity(ctx context.Context, entityType, entityID string, offset, limit int) ([]domain.AuditLogEntry, int, error) {
	const countQuery = `
        SELECT COUNT(*) FROM audit_logs
        WHERE ($1 = '' OR entity_type = $1) AND ($2 = '' OR entity_id = $2)`
	var total int
	if err := l.pool.QueryRow(ctx, countQuery, entityType, entityID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
        SELECT id, actor_id, action, entity_type, entity_id, diff, metadata, created_at
        FROM audit_logs
        WHERE ($1 = '' OR entity_type = $1) AND ($2 = '' OR entity_id = $2)
        ORDER BY created_at DESC
        LIMIT $3 OFFSET $4`
	rows, err := l.pool.Query(ctx, query, entityType, entityID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.AuditLogEntry
	for rows.Next() {
		var entry domain.AuditLogEntry
		var diff, metadata []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.ActorID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&diff,
			&metadata,
			&entry.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		if len(diff) > 0 {
			if err := json.Unmarshal(diff, &entry.Diff); err != nil {
				return nil, 0, err
			}
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
				return nil, 0, err
			}
		}
		result = append(result, entry)
	}
	return result, total, rows.Err()
}
