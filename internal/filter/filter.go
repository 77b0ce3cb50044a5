// Package filter evaluates per-column predicates and a global search over a
// row collection. All active predicates combine with logical AND.
package filter

import (
	"maps"
	"strings"

	"github.com/mesh-intelligence/gridline/internal/values"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// Filter holds the active filter state. The zero value has no filters.
type Filter struct {
	filters map[string]types.FilterMeta
	global  string
}

// New returns an empty Filter.
func New() *Filter {
	return &Filter{filters: make(map[string]types.FilterMeta)}
}

// Set installs the predicate for field. A predicate with no value and a
// mode that needs one removes the field's filter instead.
func (f *Filter) Set(field string, meta types.FilterMeta) {
	if f.filters == nil {
		f.filters = make(map[string]types.FilterMeta)
	}
	if !needsNoValue(meta.MatchMode) && values.IsEmpty(meta.Value) && values.IsEmpty(meta.ValueTo) {
		delete(f.filters, field)
		return
	}
	f.filters[field] = meta
}

// Remove drops the predicate on field.
func (f *Filter) Remove(field string) {
	delete(f.filters, field)
}

// SetGlobal sets the global search text; blank clears it.
func (f *Filter) SetGlobal(text string) {
	f.global = strings.TrimSpace(text)
}

// Global returns the global search text.
func (f *Filter) Global() string {
	return f.global
}

// Filters returns a copy of the per-column predicates.
func (f *Filter) Filters() map[string]types.FilterMeta {
	return maps.Clone(f.filters)
}

// Get returns the predicate on field.
func (f *Filter) Get(field string) (types.FilterMeta, bool) {
	meta, ok := f.filters[field]
	return meta, ok
}

// HasFilters reports whether any predicate or global search is active.
func (f *Filter) HasFilters() bool {
	return len(f.filters) > 0 || f.global != ""
}

// Clear drops every predicate and the global search. It emits nothing;
// notifying observers after the recompute is the caller's job.
func (f *Filter) Clear() {
	clear(f.filters)
	f.global = ""
}

// Apply returns the rows that satisfy every predicate. searchable lists the
// fields the global search looks at; a nil list searches every field. The
// input slice is not modified.
func (f *Filter) Apply(rows []*types.Row, searchable []string) []*types.Row {
	if !f.HasFilters() {
		return rows
	}
	out := make([]*types.Row, 0, len(rows))
	for _, r := range rows {
		if f.matchRow(r, searchable) {
			out = append(out, r)
		}
	}
	return out
}

func (f *Filter) matchRow(r *types.Row, searchable []string) bool {
	for field, meta := range f.filters {
		v, ok := r.Get(field)
		if !ok {
			return false
		}
		if !Match(v, meta) {
			return false
		}
	}
	if f.global != "" && !matchGlobal(r, f.global, searchable) {
		return false
	}
	return true
}

func matchGlobal(r *types.Row, text string, searchable []string) bool {
	needle := strings.ToLower(text)
	if searchable == nil {
		for _, v := range r.Fields {
			if strings.Contains(strings.ToLower(values.String(v)), needle) {
				return true
			}
		}
		return false
	}
	for _, field := range searchable {
		if strings.Contains(strings.ToLower(values.String(r.Value(field))), needle) {
			return true
		}
	}
	return false
}

func needsNoValue(mode types.MatchMode) bool {
	return mode == types.MatchIsEmpty || mode == types.MatchIsNotEmpty
}
