package table

import (
	"fmt"

	"github.com/mesh-intelligence/gridline/internal/events"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// SetFilter installs the predicate on field. A field no row has simply
// matches nothing.
func (t *Table) SetFilter(field string, meta types.FilterMeta) {
	t.filter.Set(field, meta)
	t.queryChanged(&t.bus.FilterChanged)
}

// RemoveFilter drops the predicate on field.
func (t *Table) RemoveFilter(field string) {
	t.filter.Remove(field)
	t.queryChanged(&t.bus.FilterChanged)
}

// SetGlobalFilter sets the search text matched against every visible
// filterable column.
func (t *Table) SetGlobalFilter(text string) {
	t.filter.SetGlobal(text)
	t.queryChanged(&t.bus.FilterChanged)
}

// ClearFilters drops every predicate and the global search.
func (t *Table) ClearFilters() {
	t.filter.Clear()
	t.queryChanged(&t.bus.FilterChanged)
}

// Filters returns the active per-column predicates.
func (t *Table) Filters() map[string]types.FilterMeta {
	return t.filter.Filters()
}

// GlobalFilter returns the global search text.
func (t *Table) GlobalFilter() string {
	return t.filter.Global()
}

// HasFilters reports whether any predicate or search is active.
func (t *Table) HasFilters() bool {
	return t.filter.HasFilters()
}

// SetSortOrder cycles field through ascending, descending and unsorted.
// Columns with sorting disabled are left alone.
func (t *Table) SetSortOrder(field string) error {
	col, ok := t.columns.Get(field)
	if !ok {
		return fmt.Errorf("sorting by %q: %w", field, types.ErrUnknownColumn)
	}
	if !col.Sortable {
		t.log.Debug("sort ignored on unsortable column", "column", field)
		return nil
	}
	t.sorter.SetOrder(field)
	t.queryChanged(&t.bus.SortChanged)
	return nil
}

// SetSortMeta replaces the sort keys.
func (t *Table) SetSortMeta(meta []types.SortMeta) {
	t.sorter.SetSortMeta(meta)
	t.queryChanged(&t.bus.SortChanged)
}

// ClearSort drops every user sort key. Group-by keys still apply.
func (t *Table) ClearSort() {
	t.sorter.Clear()
	t.queryChanged(&t.bus.SortChanged)
}

// SortMeta returns the user sort keys.
func (t *Table) SortMeta() []types.SortMeta {
	return t.sorter.SortMeta()
}

// SortOrder returns the direction field is sorted in, if any.
func (t *Table) SortOrder(field string) (types.SortOrder, bool) {
	return t.sorter.Order(field)
}

// queryChanged handles a filter or sort change: cached pages belong to the
// old query so they are dropped, the cursor returns to page 1, the local
// pipeline re-runs, then observers of c are told.
func (t *Table) queryChanged(c *events.Channel[events.Signal]) {
	t.pager.Cache().InvalidateAll()
	t.pager.Reset()
	if t.settings.ClientSide {
		t.Refresh()
	}
	c.Emit(events.Signal{})
}

// SetPage moves to page n. The local pipeline re-slices immediately; in the
// remote pipeline observers of pageChanged fetch the page.
func (t *Table) SetPage(n int) error {
	if err := t.pager.SetPage(n); err != nil {
		return err
	}
	if t.settings.ClientSide {
		t.Refresh()
	}
	t.bus.PageChanged.Emit(events.Signal{})
	return nil
}

// SetPageSize changes the page size and returns to page 1.
func (t *Table) SetPageSize(n int) error {
	if err := t.pager.SetPerPage(n); err != nil {
		return err
	}
	t.settings.PageSize = n
	if t.settings.ClientSide {
		t.Refresh()
	}
	t.bus.PageChanged.Emit(events.Signal{})
	return nil
}

// Query describes the current filter, sort and page for a data service.
// Group-by fields lead the sort keys so the service returns each group as
// a contiguous run.
func (t *Table) Query() types.Query {
	return types.Query{
		Filters:      t.filter.Filters(),
		GlobalFilter: t.filter.Global(),
		SortMeta:     t.sorter.Keys(t.settings.GroupRowsBy),
		Page:         t.pager.Current(),
		PageSize:     t.pager.PerPage(),
	}
}
