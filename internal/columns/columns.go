// Package columns implements the column model: registration with unique
// names, frozen-first preparation of the display order, and the capability
// flags settings impose on every column.
package columns

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/gridline/pkg/types"
)

// Model holds the registered columns and the prepared display partitions.
// Model is not safe for concurrent use.
type Model struct {
	bases  []types.ColumnBase
	all    []*types.Column
	byName map[string]*types.Column

	groupBy    []string
	frozen     []*types.Column
	scrollable []*types.Column
}

// New registers bases in order. It fails with ErrEmptyColumnName,
// ErrDuplicateColumn or ErrUnknownAggregate rather than build a model that
// would silently ignore part of its configuration. Aggregate names are
// matched without regard to case.
func New(bases []types.ColumnBase, defaultWidth int) (*Model, error) {
	m := &Model{
		bases:  slices.Clone(bases),
		all:    make([]*types.Column, 0, len(bases)),
		byName: make(map[string]*types.Column, len(bases)),
	}
	for i, base := range bases {
		if base.Name == "" {
			return nil, fmt.Errorf("column %d: %w", i, types.ErrEmptyColumnName)
		}
		if _, dup := m.byName[base.Name]; dup {
			return nil, fmt.Errorf("column %q: %w", base.Name, types.ErrDuplicateColumn)
		}
		if base.Aggregation != "" {
			agg, ok := types.ParseAggregateType(string(base.Aggregation))
			if !ok {
				return nil, fmt.Errorf("column %q aggregation %q: %w", base.Name, base.Aggregation, types.ErrUnknownAggregate)
			}
			base.Aggregation = agg
		}
		col := types.NewColumn(base, i, defaultWidth)
		m.all = append(m.all, col)
		m.byName[base.Name] = col
	}
	m.Prepare()
	return m, nil
}

// ApplySettings re-derives sort and filter capability from the descriptors
// and the table-wide switches, records the group-by columns for hiding and
// re-prepares the display order.
func (m *Model) ApplySettings(s types.Settings) {
	for i, col := range m.all {
		base := m.bases[i]
		col.Sortable = s.Sortable && (base.Sortable == nil || *base.Sortable)
		col.Filterable = s.Filter && (base.Filterable == nil || *base.Filterable)
	}
	m.groupBy = slices.Clone(s.GroupRowsBy)
	m.Prepare()
}

// Prepare partitions the visible columns into frozen and scrollable,
// preserving registration order within each partition. Hidden columns and
// group-by columns are left out of both.
func (m *Model) Prepare() {
	m.frozen = nil
	m.scrollable = nil
	for _, col := range m.all {
		if !m.visible(col) {
			continue
		}
		if col.Frozen {
			m.frozen = append(m.frozen, col)
		} else {
			m.scrollable = append(m.scrollable, col)
		}
	}
}

func (m *Model) visible(col *types.Column) bool {
	return !col.Hidden && !slices.Contains(m.groupBy, col.Name)
}

// All returns every registered column in registration order.
func (m *Model) All() []*types.Column {
	return m.all
}

// Frozen returns the visible frozen columns.
func (m *Model) Frozen() []*types.Column {
	return m.frozen
}

// Scrollable returns the visible non-frozen columns.
func (m *Model) Scrollable() []*types.Column {
	return m.scrollable
}

// Prepared returns the display order: frozen columns, then scrollable ones.
func (m *Model) Prepared() []*types.Column {
	out := make([]*types.Column, 0, len(m.frozen)+len(m.scrollable))
	out = append(out, m.frozen...)
	return append(out, m.scrollable...)
}

// Get returns the column registered under name.
func (m *Model) Get(name string) (*types.Column, bool) {
	col, ok := m.byName[name]
	return col, ok
}

// Names returns the column names in registration order.
func (m *Model) Names() []string {
	names := make([]string, len(m.all))
	for i, col := range m.all {
		names[i] = col.Name
	}
	return names
}

// AggregateSpecs returns one spec per column that declares an aggregation.
func (m *Model) AggregateSpecs() []types.AggregateSpec {
	var specs []types.AggregateSpec
	for _, col := range m.all {
		if col.Aggregation.Valid() {
			specs = append(specs, types.AggregateSpec{Field: col.Name, Type: col.Aggregation})
		}
	}
	return specs
}

// SetWidth resizes the named column.
func (m *Model) SetWidth(name string, width int) error {
	col, ok := m.byName[name]
	if !ok {
		return fmt.Errorf("column %q: %w", name, types.ErrUnknownColumn)
	}
	if width > 0 {
		col.Width = width
	}
	return nil
}
