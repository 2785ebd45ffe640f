package notify

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/crm-core/internal/domain"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

const (
	notifKeyPrefix = "crm:notification:"
	feedIndexKey   = "crm:notifications"
)

// redisFeed persists notification rows as JSON values indexed by a
// sorted set scored on creation time.
type redisFeed struct {
	client *redis.Client
}

// NewRedisFeed creates a Redis-backed feed.
func NewRedisFeed(client *redis.Client) Feed {
	return &redisFeed{client: client}
}

func (f *redisFeed) Add(ctx context.Context, n *domain.CRMNotification) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if err := f.client.Set(ctx, notifKeyPrefix+n.ID, raw, 0).Err(); err != nil {
		return err
	}
	return f.client.ZAdd(ctx, feedIndexKey, redis.Z{
		Score:  float64(n.CreatedAt.UnixNano()),
		Member: n.ID,
	}).Err()
}

func (f *redisFeed) ListForUser(ctx context.Context, userID string) ([]domain.CRMNotification, error) {
	rows, err := f.all(ctx)
	if err != nil {
		return nil, err
	}
	result := []domain.CRMNotification{}
	for _, row := range rows {
		if row.VisibleTo(userID) {
			result = append(result, row)
		}
	}
	return result, nil
}

func (f *redisFeed) MarkRead(ctx context.Context, id string) error {
	row, err := f.get(ctx, id)
	if err != nil {
		return err
	}
	row.Read = true
	return f.put(ctx, row)
}

func (f *redisFeed) MarkAllRead(ctx context.Context, userID string) (int, error) {
	rows, err := f.all(ctx)
	if err != nil {
		return 0, err
	}
	marked := 0
	for i := range rows {
		row := &rows[i]
		if row.Read || !row.VisibleTo(userID) {
			continue
		}
		row.Read = true
		if err := f.put(ctx, row); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}

func (f *redisFeed) UnreadCount(ctx context.Context, userID string) (int, error) {
	rows, err := f.all(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, row := range rows {
		if !row.Read && row.VisibleTo(userID) {
			count++
		}
	}
	return count, nil
}

// all returns every row newest-first.
func (f *redisFeed) all(ctx context.Context) ([]domain.CRMNotification, error) {
	ids, err := f.client.ZRevRange(ctx, feedIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	result := make([]domain.CRMNotification, 0, len(ids))
	for _, id := range ids {
		row, err := f.get(ctx, id)
		if err != nil {
			if apperrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		result = append(result, *row)
	}
	return result, nil
}

func (f *redisFeed) get(ctx context.Context, id string) (*domain.CRMNotification, error) {
	raw, err := f.client.Get(ctx, notifKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewNotFound("notification", map[string]any{"id": id})
	}
	if err != nil {
		return nil, err
	}
	var row domain.CRMNotification
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (f *redisFeed) put(ctx context.Context, row *domain.CRMNotification) error {
	raw, err := json.Marshal(row)
	if err != nil {
		return err
	}
	return f.client.Set(ctx, notifKeyPrefix+row.ID, raw, 0).Err()
}
