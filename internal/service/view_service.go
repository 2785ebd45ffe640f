package service

import (
	"context"

	"github.com/spec-kit/crm-core/internal/domain"
	"github.com/spec-kit/crm-core/internal/store"
	"github.com/spec-kit/crm-core/internal/view"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

// ViewService evaluates saved views over the current request snapshot.
// All evaluation inputs arrive as explicit parameters; neither the
// service nor the engine holds any UI-session state.
type ViewService struct {
	requests *store.RequestStore
	registry *view.Registry
	engine   *view.Engine
}

// NewViewService constructs the service.
func NewViewService(requests *store.RequestStore, registry *view.Registry, engine *view.Engine) *ViewService {
	return &ViewService{requests: requests, registry: registry, engine: engine}
}

// EvaluateInput names the active view plus any ad-hoc overrides. Ad-hoc
// filters replace the view's filter set for this query; the view's sort
// still applies unless SortOverride is set.
type EvaluateInput struct {
	ViewID       string
	AdHocFilters []domain.Filter
	HasAdHoc     bool
	Search       string
	SortOverride *domain.Sort
}

// Evaluate resolves the view (falling back to the default view, then to
// an unfiltered query) and runs the engine over a consistent snapshot.
func (s *ViewService) Evaluate(_ context.Context, input EvaluateInput) ([]domain.ClientRequest, error) {
	q := view.Query{
		AdHocFilters: input.AdHocFilters,
		HasAdHoc:     input.HasAdHoc,
		Search:       input.Search,
		SortOverride: input.SortOverride,
	}

	switch {
	case input.ViewID != "":
		active, err := s.registry.Get(input.ViewID)
		if err != nil {
			return nil, err
		}
		q.Filters = active.Filters
		q.Sort = active.Sort
	default:
		if active := s.registry.Default(); active != nil {
			q.Filters = active.Filters
			q.Sort = active.Sort
		}
	}

	if input.HasAdHoc {
		if err := view.ValidateFilters(input.AdHocFilters); err != nil {
			return nil, err
		}
	}
	if input.SortOverride != nil {
		if err := view.ValidateSort(*input.SortOverride); err != nil {
			return nil, err
		}
	}

	return s.engine.Evaluate(s.requests.List(), q), nil
}

// CreateView stores a new saved view.
func (s *ViewService) CreateView(_ context.Context, v domain.SavedView) (*domain.SavedView, error) {
	return s.registry.Create(v)
}

// ListViews returns all saved views.
func (s *ViewService) ListViews(_ context.Context) []domain.SavedView {
	return s.registry.List()
}

// DeleteView removes a saved view.
func (s *ViewService) DeleteView(_ context.Context, id string) error {
	if id == "" {
		return apperrors.NewValidationError("view id required", nil)
	}
	return s.registry.Delete(id)
}
