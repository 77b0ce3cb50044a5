// Package table is the orchestrator: it owns the row collection, the column
// model and settings, and composes filter, sort, pager, aggregation,
// selection and dimensions into the local or the remote pipeline.
//
// A Table is not safe for concurrent use. Callers that drive it from more
// than one goroutine, such as the data manager, serialize access.
package table

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/mesh-intelligence/gridline/internal/aggregation"
	"github.com/mesh-intelligence/gridline/internal/columns"
	"github.com/mesh-intelligence/gridline/internal/dimensions"
	"github.com/mesh-intelligence/gridline/internal/events"
	"github.com/mesh-intelligence/gridline/internal/filter"
	"github.com/mesh-intelligence/gridline/internal/pager"
	"github.com/mesh-intelligence/gridline/internal/rows"
	"github.com/mesh-intelligence/gridline/internal/selection"
	"github.com/mesh-intelligence/gridline/internal/sorter"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// ViewState is the derived, visible state of a table: the rows on the
// current page and what grouping and aggregation computed over them.
type ViewState struct {
	Rows       []*types.Row
	Total      int
	Groups     map[string]*types.GroupMeta
	GrandTotal map[string]any
	GroupErr   error
}

// Option configures a Table.
type Option func(*Table)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.log = l
		}
	}
}

// Table is the table orchestrator.
type Table struct {
	log      *slog.Logger
	settings types.Settings

	columns     *columns.Model
	filter      *filter.Filter
	sorter      *sorter.Sorter
	pager       *pager.Pager
	aggregation *aggregation.Engine
	selection   *selection.Model
	dims        *dimensions.Dimensions
	bus         *events.Bus

	// source is the base collection: every local row, or the page last
	// returned by the data service.
	source  []*types.Row
	view    ViewState
	loading bool
}

// New builds a table over cols. It fails when the column list is invalid.
func New(cols []types.ColumnBase, settings types.Settings, opts ...Option) (*Table, error) {
	settings = settings.Clone()
	if settings.ColumnWidth < 1 {
		settings.ColumnWidth = types.DefaultColumnWidth
	}
	model, err := columns.New(cols, settings.ColumnWidth)
	if err != nil {
		return nil, fmt.Errorf("building columns: %w", err)
	}

	t := &Table{
		log:         slog.Default(),
		settings:    settings,
		columns:     model,
		filter:      filter.New(),
		sorter:      sorter.New(settings.MultipleSort),
		pager:       pager.New(settings.PageSize),
		aggregation: aggregation.New(model.AggregateSpecs()),
		selection:   selection.New(settings.SelectionType),
		dims:        dimensions.New(settings),
		bus:         events.NewBus(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.applySettings()
	t.view = t.ApplyRows(nil)
	return t, nil
}

// MergeSettings merges recognized keys over the current settings and
// re-derives everything that depends on them. When groupRowsBy or
// multipleSort change the effective sort keys, the merge counts as a sort
// change: cached pages are dropped and sortChanged is emitted.
func (t *Table) MergeSettings(values map[string]any) {
	perPage := t.settings.PageSize
	keys := t.sorter.Keys(t.settings.GroupRowsBy)
	t.settings.Merge(values)
	if t.settings.PageSize != perPage {
		_ = t.pager.SetPerPage(t.settings.PageSize)
	}
	t.applySettings()

	if slices.Equal(keys, t.sorter.Keys(t.settings.GroupRowsBy)) {
		t.Refresh()
		return
	}
	if !t.settings.ClientSide {
		t.Refresh()
	}
	t.queryChanged(&t.bus.SortChanged)
}

func (t *Table) applySettings() {
	t.columns.ApplySettings(t.settings)
	t.dims.Apply(t.settings)
	t.dims.CalcColumnsTotalWidth(t.columns.Prepared())
	t.sorter.SetMultiple(t.settings.MultipleSort || t.settings.IsGrouped())
	t.selection.SetType(t.settings.SelectionType)
}

// ApplyRows derives the view of source without notifying anyone. In the
// local pipeline it filters, sizes the pager, sorts with the group-by
// fields leading, slices the current page, then groups and aggregates the
// page. In the remote pipeline source already is the page, so only
// grouping and aggregation run.
func (t *Table) ApplyRows(source []*types.Row) ViewState {
	var v ViewState
	if t.settings.ClientSide {
		filtered := t.filter.Apply(source, t.searchable())
		sorted := t.sorter.Apply(filtered, t.settings.GroupRowsBy)
		v.Rows = t.pager.Slice(sorted)
		v.Total = len(filtered)
	} else {
		v.Rows = source
		v.Total = t.pager.Total()
	}
	if v.Rows == nil {
		v.Rows = []*types.Row{}
	}

	if t.settings.IsGrouped() {
		v.Groups, v.GroupErr = t.aggregation.GroupMetadata(v.Rows, t.settings.GroupRowsBy)
	}
	if t.aggregation.Enabled() {
		v.GrandTotal = t.aggregation.GrandTotal(v.Rows)
	}
	return v
}

// publish installs v as the visible state and emits rowsChanged once.
func (t *Table) publish(v ViewState) {
	if v.GroupErr != nil {
		t.log.Warn("group metadata built from unsorted rows", "error", v.GroupErr)
	}
	t.view = v
	t.log.Debug("rows published", "visible", len(v.Rows), "total", v.Total, "page", t.pager.Current())
	t.bus.RowsChanged.Emit(events.Signal{})
}

// Refresh re-runs the pipeline over the current collection and publishes
// the result.
func (t *Table) Refresh() {
	t.publish(t.ApplyRows(t.source))
}

// SetRows replaces the collection. Every record is wrapped afresh with
// identities 1..N. In the local pipeline filter, sort, page and selection
// are reset, since they referred to the previous collection.
func (t *Table) SetRows(raw []map[string]any) {
	if t.settings.ClientSide {
		t.filter.Clear()
		t.sorter.Clear()
		t.pager.Reset()
		t.selection.Clear()
	}
	t.source = rows.Wrap(raw)
	t.Refresh()
}

// ClearRows empties the collection and the selection.
func (t *Table) ClearRows() {
	t.source = nil
	t.selection.Clear()
	if !t.settings.ClientSide {
		t.pager.SetTotal(0)
	}
	t.Refresh()
}

// Rows returns the visible rows.
func (t *Table) Rows() []*types.Row {
	return t.view.Rows
}

// Source returns the whole collection, in wrap order.
func (t *Table) Source() []*types.Row {
	return t.source
}

// Records returns the live fields of the whole collection.
func (t *Table) Records() []map[string]any {
	return rows.Records(t.source)
}

// View returns the current visible state.
func (t *Table) View() ViewState {
	return t.view
}

// Row returns the collection row with the given uid.
func (t *Table) Row(uid int) (*types.Row, bool) {
	i := slices.IndexFunc(t.source, func(r *types.Row) bool { return r.UID == uid })
	if i < 0 {
		return nil, false
	}
	return t.source[i], true
}

// Contains reports whether row belongs to the current collection. A row
// from a collection that has since been replaced does not, even when a
// current row carries the same uid.
func (t *Table) Contains(row *types.Row) bool {
	return t.position(row) >= 0
}

func (t *Table) position(row *types.Row) int {
	return slices.Index(t.source, row)
}

// searchable lists the fields the global filter looks at: every visible,
// filterable column. With no columns registered every field is searched.
func (t *Table) searchable() []string {
	all := t.columns.All()
	if len(all) == 0 {
		return nil
	}
	fields := make([]string, 0, len(all))
	for _, col := range all {
		if col.Filterable && !col.Hidden {
			fields = append(fields, col.Name)
		}
	}
	return fields
}

// Settings returns a copy of the current settings.
func (t *Table) Settings() types.Settings { return t.settings.Clone() }

// Columns returns the column model.
func (t *Table) Columns() *columns.Model { return t.columns }

// Pager returns the pager.
func (t *Table) Pager() *pager.Pager { return t.pager }

// Events returns the change bus.
func (t *Table) Events() *events.Bus { return t.bus }

// Dimensions returns the table geometry.
func (t *Table) Dimensions() *dimensions.Dimensions { return t.dims }

// Aggregation returns the aggregation engine.
func (t *Table) Aggregation() *aggregation.Engine { return t.aggregation }

// Logger returns the table's logger.
func (t *Table) Logger() *slog.Logger { return t.log }
