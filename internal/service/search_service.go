package service

import (
	"context"
	"strings"

	"github.com/spec-kit/crm-core/internal/domain"
	"github.com/spec-kit/crm-core/internal/store"
	"github.com/spec-kit/crm-core/internal/view"
)

// minQueryLength is the shortest query the search runs; anything shorter
// returns no results without touching the stores.
const minQueryLength = 2

// SearchService runs cross-entity free-text search.
type SearchService struct {
	requests *store.RequestStore
	deals    *store.DealStore
}

// NewSearchService constructs the service.
func NewSearchService(requests *store.RequestStore, deals *store.DealStore) *SearchService {
	return &SearchService{requests: requests, deals: deals}
}

// SearchResult groups matches per entity type.
type SearchResult struct {
	Requests []domain.ClientRequest `json:"requests"`
	Deals    []domain.Deal          `json:"deals"`
}

// Search matches the query case-insensitively against each entity's
// searchable fields. Entities limits the scope; empty means all.
func (s *SearchService) Search(_ context.Context, query string, entities []string) *SearchResult {
	result := &SearchResult{
		Requests: []domain.ClientRequest{},
		Deals:    []domain.Deal{},
	}
	query = strings.TrimSpace(query)
	if len(query) < minQueryLength {
		return result
	}

	wantRequests, wantDeals := scope(entities)

	if wantRequests {
		for _, req := range s.requests.List() {
			if view.MatchesSearch(&req, query) {
				result.Requests = append(result.Requests, req)
			}
		}
	}
	if wantDeals {
		needle := strings.ToLower(query)
		for _, deal := range s.deals.List() {
			if strings.Contains(strings.ToLower(deal.Name), needle) ||
				strings.Contains(strings.ToLower(deal.ID), needle) {
				result.Deals = append(result.Deals, deal)
			}
		}
	}
	return result
}

func scope(entities []string) (requests, deals bool) {
	if len(entities) == 0 {
		return true, true
	}
	for _, entity := range entities {
		switch strings.TrimSpace(strings.ToLower(entity)) {
		case "requests", "request", "tickets":
			requests = true
		case "deals", "deal":
			deals = true
		}
	}
	return requests, deals
}
