package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/crm-core/internal/audit"
	"github.com/spec-kit/crm-core/internal/domain"
	"github.com/spec-kit/crm-core/internal/events"
	"github.com/spec-kit/crm-core/internal/notify"
	"github.com/spec-kit/crm-core/internal/store"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

// EntityTypeDeal tags audit entries for pipeline deals.
const EntityTypeDeal = "deal"

// DealService handles pipeline-stage mutations.
type DealService struct {
	deals    *store.DealStore
	recorder *audit.Recorder
	center   *notify.Center

	Clock func() time.Time
}

// NewDealService constructs the service.
func NewDealService(deals *store.DealStore, recorder *audit.Recorder, center *notify.Center) *DealService {
	return &DealService{deals: deals, recorder: recorder, center: center, Clock: time.Now}
}

// Create registers a new deal.
func (s *DealService) Create(ctx context.Context, actor domain.Actor, name, stageID string) (*domain.Deal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("deal name required", nil)
	}
	if stageID == "" {
		return nil, apperrors.NewValidationError("stage id required", nil)
	}

	now := s.Clock()
	deal := &domain.Deal{
		ID:        uuid.NewString(),
		Name:      name,
		StageID:   stageID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.deals.Insert(deal); err != nil {
		return nil, err
	}
	_, _ = s.recorder.Record(ctx, actor.ID, domain.ActionCreate, EntityTypeDeal, deal.ID,
		nil, map[string]any{"name": deal.Name, "stageId": deal.StageID}, nil)
	return deal, nil
}

// Get returns a snapshot of one deal.
func (s *DealService) Get(_ context.Context, id string) (*domain.Deal, error) {
	return s.deals.Get(id)
}

// List returns snapshots of all deals.
func (s *DealService) List(_ context.Context) []domain.Deal {
	return s.deals.List()
}

// SetStage moves a deal to a new pipeline stage. When the target equals
// the current stage the call is a pure no-op: no mutation, no audit
// entry, no event.
func (s *DealService) SetStage(ctx context.Context, actor domain.Actor, id, stageID string) (*domain.Deal, error) {
	if stageID == "" {
		return nil, apperrors.NewValidationError("stage id required", nil)
	}

	var oldStage string
	updated, applied, err := s.deals.Update(id, func(deal *domain.Deal) (bool, error) {
		if deal.StageID == stageID {
			return false, nil
		}
		oldStage = deal.StageID
		deal.StageID = stageID
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if !applied {
		return updated, nil
	}

	_, _ = s.recorder.Record(ctx, actor.ID, domain.ActionUpdate, EntityTypeDeal, id,
		map[string]any{"stageId": oldStage},
		map[string]any{"stageId": stageID}, nil)
	s.center.Emit(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventStageChanged,
		EntityID:  id,
		Actor:     actor,
		Timestamp: s.Clock(),
		Payload: events.StageChangedPayload{
			OldStageID: oldStage,
			NewStageID: stageID,
		},
	})
	return updated, nil
}
