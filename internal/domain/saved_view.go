package domain

// FilterKind tags the predicate variant carried by a Filter.
type FilterKind string

const (
	FilterEquals FilterKind = "equals"
	FilterIn     FilterKind = "in"
	FilterRange  FilterKind = "range"
)

// Filter is one per-field predicate. Exactly one variant applies:
// equals uses Value, in uses Values, range uses From/To (either may be
// empty for an open bound). Field values are compared on their string
// representation; date fields are compared as timestamps.
type Filter struct {
	Field  string     `json:"field"`
	Kind   FilterKind `json:"kind"`
	Value  string     `json:"value,omitempty"`
	Values []string   `json:"values,omitempty"`
	From   string     `json:"from,omitempty"`
	To     string     `json:"to,omitempty"`
}

// SortDirection orders ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Sort is a field plus direction.
type Sort struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// SavedView is a named, reusable filter+sort template. Applying a view
// never mutates a request.
type SavedView struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Entity    string   `json:"entity"`
	Filters   []Filter `json:"filters"`
	Sort      Sort     `json:"sort"`
	IsDefault bool     `json:"is_default"`
}
