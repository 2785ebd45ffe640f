package view

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/spec-kit/crm-core/internal/domain"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

// Registry stores saved-view templates. Views are validated when saved
// so evaluation can trust them.
type Registry struct {
	mu    sync.RWMutex
	views map[string]*domain.SavedView
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{views: make(map[string]*domain.SavedView)}
}

// Create validates and stores a view. Duplicate names are rejected.
func (r *Registry) Create(v domain.SavedView) (*domain.SavedView, error) {
	name := strings.TrimSpace(v.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("view name required", nil)
	}
	if err := ValidateFilters(v.Filters); err != nil {
		return nil, err
	}
	if err := ValidateSort(v.Sort); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.views {
		if strings.EqualFold(existing.Name, name) {
			return nil, apperrors.NewValidationError("view name already in use", map[string]any{"name": name})
		}
	}

	stored := v
	stored.Name = name
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.Entity == "" {
		stored.Entity = "requests"
	}
	if stored.IsDefault {
		for _, existing := range r.views {
			existing.IsDefault = false
		}
	}
	r.views[stored.ID] = &stored
	r.order = append(r.order, stored.ID)

	out := stored
	return &out, nil
}

// Get returns a copy of one view.
func (r *Registry) Get(id string) (*domain.SavedView, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.views[id]
	if !ok {
		return nil, apperrors.NewNotFound("saved view", map[string]any{"id": id})
	}
	out := *v
	return &out, nil
}

// List returns copies of all views in creation order.
func (r *Registry) List() []domain.SavedView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.SavedView, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, *r.views[id])
	}
	return result
}

// Default returns the view flagged as default, if any.
func (r *Registry) Default() *domain.SavedView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if r.views[id].IsDefault {
			out := *r.views[id]
			return &out
		}
	}
	return nil
}

// Delete removes a view.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.views[id]; !ok {
		return apperrors.NewNotFound("saved view", map[string]any{"id": id})
	}
	delete(r.views, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
