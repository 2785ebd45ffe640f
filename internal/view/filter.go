package view

import (
	"strings"
	"time"

	"github.com/spec-kit/crm-core/internal/domain"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

var filterableFields = map[string]bool{
	"id":             true,
	"title":          true,
	"status":         true,
	"priority":       true,
	"requesterName":  true,
	"requesterEmail": true,
	"assigneeId":     true,
	"assigneeName":   true,
	"tags":           true,
	"breached":       true,
	"createdAt":      true,
	"updatedAt":      true,
	"dueAt":          true,
}

var dateFields = map[string]bool{
	"createdAt": true,
	"updatedAt": true,
	"dueAt":     true,
}

// ValidateFilters checks a filter set at construction time so evaluation
// never has to deal with a malformed spec.
func ValidateFilters(filters []domain.Filter) error {
	for i, f := range filters {
		if !filterableFields[f.Field] {
			return apperrors.NewValidationError("unknown filter field", map[string]any{"field": f.Field, "index": i})
		}
		switch f.Kind {
		case domain.FilterEquals:
			if f.Value == "" {
				return apperrors.NewValidationError("equals filter requires a value", map[string]any{"field": f.Field})
			}
		case domain.FilterIn:
			if len(f.Values) == 0 {
				return apperrors.NewValidationError("in filter requires values", map[string]any{"field": f.Field})
			}
		case domain.FilterRange:
			if !dateFields[f.Field] {
				return apperrors.NewValidationError("range filter only supported on date fields", map[string]any{"field": f.Field})
			}
			if f.From == "" && f.To == "" {
				return apperrors.NewValidationError("range filter requires a bound", map[string]any{"field": f.Field})
			}
			for _, bound := range []string{f.From, f.To} {
				if bound == "" {
					continue
				}
				if _, err := time.Parse(time.RFC3339, bound); err != nil {
					return apperrors.NewValidationError("range bound must be RFC3339", map[string]any{"field": f.Field, "bound": bound})
				}
			}
		default:
			return apperrors.NewValidationError("unknown filter kind", map[string]any{"kind": string(f.Kind)})
		}
	}
	return nil
}

// ValidateSort checks a sort specification.
func ValidateSort(s domain.Sort) error {
	if s.Field == "" {
		return nil
	}
	if !filterableFields[s.Field] {
		return apperrors.NewValidationError("unknown sort field", map[string]any{"field": s.Field})
	}
	if s.Direction != domain.SortAsc && s.Direction != domain.SortDesc {
		return apperrors.NewValidationError("sort direction must be asc or desc", map[string]any{"direction": string(s.Direction)})
	}
	return nil
}

// matches evaluates one filter against a request snapshot.
func matches(req *domain.ClientRequest, f domain.Filter) bool {
	switch f.Kind {
	case domain.FilterEquals:
		if f.Field == "tags" {
			return req.HasTag(f.Value)
		}
		return fieldString(req, f.Field) == f.Value
	case domain.FilterIn:
		if f.Field == "tags" {
			for _, v := range f.Values {
				if req.HasTag(v) {
					return true
				}
			}
			return false
		}
		value := fieldString(req, f.Field)
		for _, v := range f.Values {
			if value == v {
				return true
			}
		}
		return false
	case domain.FilterRange:
		ts := fieldTime(req, f.Field)
		if f.From != "" {
			from, _ := time.Parse(time.RFC3339, f.From)
			if ts.Before(from) {
				return false
			}
		}
		if f.To != "" {
			to, _ := time.Parse(time.RFC3339, f.To)
			if ts.After(to) {
				return false
			}
		}
		return true
	}
	return false
}

// fieldString renders a request field for comparison.
func fieldString(req *domain.ClientRequest, field string) string {
	switch field {
	case "id":
		return req.ID
	case "title":
		return req.Title
	case "description":
		return req.Description
	case "status":
		return string(req.Status)
	case "priority":
		return string(req.Priority)
	case "requesterName":
		return req.RequesterName
	case "requesterEmail":
		return req.RequesterEmail
	case "assigneeId":
		if req.AssigneeID == nil {
			return ""
		}
		return *req.AssigneeID
	case "assigneeName":
		if req.AssigneeName == nil {
			return ""
		}
		return *req.AssigneeName
	case "tags":
		return strings.Join(req.Tags, ",")
	case "breached":
		if req.SLA != nil && req.SLA.Breached {
			return "true"
		}
		return "false"
	case "createdAt", "updatedAt", "dueAt":
		return fieldTime(req, field).Format(time.RFC3339Nano)
	}
	return ""
}

// fieldTime normalizes date fields to timestamps; missing dates collapse
// to the epoch so they sort as oldest.
func fieldTime(req *domain.ClientRequest, field string) time.Time {
	switch field {
	case "createdAt":
		return req.CreatedAt
	case "updatedAt":
		return req.UpdatedAt
	case "dueAt":
		if req.SLA == nil {
			return time.Time{}
		}
		return req.SLA.DueAt
	}
	return time.Time{}
}
