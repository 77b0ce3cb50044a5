package types

import "context"

// SortOrder is the direction of one sort key.
type SortOrder int

// Sort directions.
const (
	SortAsc  SortOrder = 1
	SortDesc SortOrder = -1
)

// String returns "asc" or "desc".
func (o SortOrder) String() string {
	if o == SortDesc {
		return "desc"
	}
	return "asc"
}

// SortMeta is one active sort key.
type SortMeta struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// MatchMode selects how a filter value is compared with a field value.
type MatchMode string

// Filter match modes. An empty mode means contains for text and equals for
// numbers, dates and booleans; a set ValueTo turns it into a range.
const (
	MatchContains   MatchMode = "contains"
	MatchStartsWith MatchMode = "startsWith"
	MatchEquals     MatchMode = "equals"
	MatchNotEquals  MatchMode = "notEquals"
	MatchIn         MatchMode = "in"
	MatchBetween    MatchMode = "between"
	MatchIsEmpty    MatchMode = "isEmpty"
	MatchIsNotEmpty MatchMode = "isNotEmpty"
)

// FilterMeta is the active predicate on one column. Type optionally pins the
// comparison kind (one of the ColumnType constants).
type FilterMeta struct {
	Value     any       `json:"value,omitempty"`
	ValueTo   any       `json:"valueTo,omitempty"`
	MatchMode MatchMode `json:"matchMode,omitempty"`
	Type      string    `json:"type,omitempty"`
}

// IsRange reports whether the predicate compares against bounds.
func (f FilterMeta) IsRange() bool {
	return f.MatchMode == MatchBetween || f.ValueTo != nil
}

// Query is what the table asks a remote data service for. Page is 1-based;
// a PageSize of zero or less asks for every matching record.
type Query struct {
	Filters      map[string]FilterMeta `json:"filters,omitempty"`
	GlobalFilter string                `json:"globalFilter,omitempty"`
	SortMeta     []SortMeta            `json:"sortMeta,omitempty"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"pageSize"`
}

// Offset returns the index of the first record of the requested page.
func (q Query) Offset() int {
	if q.Page < 1 || q.PageSize <= 0 {
		return 0
	}
	return (q.Page - 1) * q.PageSize
}

// Result is one page returned by a data service. Total is the number of
// records matching the query before paging.
type Result struct {
	Items []map[string]any `json:"items"`
	Total int              `json:"total"`
}

// DataService is the remote collaborator behind the remote pipeline. Every
// call may block and completes independently; failures are returned to the
// caller and never retried by the table engine.
type DataService interface {
	// LoadItems returns the page of records matching q.
	LoadItems(ctx context.Context, q Query) (Result, error)

	// Create stores a new record and returns it as stored, including any
	// service-assigned key.
	Create(ctx context.Context, item map[string]any) (map[string]any, error)

	// Update stores changes to an existing record and returns it as stored.
	Update(ctx context.Context, item map[string]any) (map[string]any, error)

	// Delete removes the record.
	Delete(ctx context.Context, item map[string]any) error

	// Refresh returns the current stored version of the record.
	Refresh(ctx context.Context, item map[string]any) (map[string]any, error)
}
