package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/crm-core/internal/domain"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

func TestCreateAssignsIDAndDefaults(t *testing.T) {
	registry := NewRegistry()
	created, err := registry.Create(domain.SavedView{Name: "  My queue  "})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "My queue", created.Name)
	assert.Equal(t, "requests", created.Entity)
}

func TestCreateRejectsDuplicateNameCaseInsensitive(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Create(domain.SavedView{Name: "My queue"})
	require.NoError(t, err)

	_, err = registry.Create(domain.SavedView{Name: "my QUEUE"})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestCreateRejectsInvalidFilters(t *testing.T) {
	registry := NewRegistry()
	_, err := registry.Create(domain.SavedView{
		Name:    "Broken",
		Filters: []domain.Filter{{Field: "shoe-size", Kind: domain.FilterEquals, Value: "42"}},
	})
	require.Error(t, err)

	_, err = registry.Create(domain.SavedView{Name: ""})
	require.Error(t, err)
}

func TestDefaultIsExclusive(t *testing.T) {
	registry := NewRegistry()
	first, err := registry.Create(domain.SavedView{Name: "First", IsDefault: true})
	require.NoError(t, err)
	second, err := registry.Create(domain.SavedView{Name: "Second", IsDefault: true})
	require.NoError(t, err)

	active := registry.Default()
	require.NotNil(t, active)
	assert.Equal(t, second.ID, active.ID)

	got, err := registry.Get(first.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDefault)
}

func TestDeleteRemovesView(t *testing.T) {
	registry := NewRegistry()
	created, err := registry.Create(domain.SavedView{Name: "My queue"})
	require.NoError(t, err)

	require.NoError(t, registry.Delete(created.ID))
	assert.Empty(t, registry.List())

	err = registry.Delete(created.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListKeepsCreationOrder(t *testing.T) {
	registry := NewRegistry()
	for _, name := range []string{"One", "Two", "Three"} {
		_, err := registry.Create(domain.SavedView{Name: name})
		require.NoError(t, err)
	}
	views := registry.List()
	require.Len(t, views, 3)
	assert.Equal(t, "One", views[0].Name)
	assert.Equal(t, "Three", views[2].Name)
}
