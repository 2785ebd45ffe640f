package view

import (
	"sort"
	"strings"

	"github.com/spec-kit/crm-core/internal/domain"
)

// Query describes one evaluation: the template filters and sort come
// from the active saved view; ad-hoc filters, when present, replace the
// view's filter set outright while the view's sort is still honored
// unless a sort override is given. The engine holds no session state.
type Query struct {
	Filters      []domain.Filter
	AdHocFilters []domain.Filter
	HasAdHoc     bool
	Search       string
	Sort         domain.Sort
	SortOverride *domain.Sort
}

// Engine evaluates saved views against request snapshots. Read-only:
// evaluating a view never mutates a request.
type Engine struct{}

// NewEngine constructs the engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs sort(search(filter(requests))) over the snapshot. Two
// invocations over the same snapshot return identical ordered lists.
func (e *Engine) Evaluate(requests []domain.ClientRequest, q Query) []domain.ClientRequest {
	search := strings.TrimSpace(q.Search)
	if len(search) == 1 {
		// sub-minimum query: nothing matches and the pipeline is skipped
		return []domain.ClientRequest{}
	}

	filters := q.Filters
	if q.HasAdHoc {
		filters = q.AdHocFilters
	}

	matched := make([]domain.ClientRequest, 0, len(requests))
	for i := range requests {
		req := &requests[i]
		if !matchesAll(req, filters) {
			continue
		}
		if search != "" && !MatchesSearch(req, search) {
			continue
		}
		matched = append(matched, *req)
	}

	sortSpec := q.Sort
	if q.SortOverride != nil {
		sortSpec = *q.SortOverride
	}
	sortRequests(matched, sortSpec)
	return matched
}

// matchesAll is a conjunction; an empty filter set matches everything.
func matchesAll(req *domain.ClientRequest, filters []domain.Filter) bool {
	for _, f := range filters {
		if !matches(req, f) {
			return false
		}
	}
	return true
}

// MatchesSearch reports whether any searchable field contains the query,
// case-insensitively.
func MatchesSearch(req *domain.ClientRequest, query string) bool {
	needle := strings.ToLower(query)
	for _, haystack := range []string{req.Title, req.Description, req.RequesterName, req.RequesterEmail, req.ID} {
		if strings.Contains(strings.ToLower(haystack), needle) {
			return true
		}
	}
	return false
}

// sortRequests sorts in place. Stable: equal keys keep their original
// relative order. Priority uses explicit rank, dates compare as
// timestamps, everything else compares lexically.
func sortRequests(requests []domain.ClientRequest, s domain.Sort) {
	if s.Field == "" {
		return
	}
	desc := s.Direction == domain.SortDesc

	less := func(a, b *domain.ClientRequest) bool {
		switch {
		case s.Field == "priority":
			return domain.PriorityRank(a.Priority) < domain.PriorityRank(b.Priority)
		case dateFields[s.Field]:
			return fieldTime(a, s.Field).Before(fieldTime(b, s.Field))
		default:
			return fieldString(a, s.Field) < fieldString(b, s.Field)
		}
	}

	sort.SliceStable(requests, func(i, j int) bool {
		if desc {
			return less(&requests[j], &requests[i])
		}
		return less(&requests[i], &requests[j])
	})
}
