package table

import (
	"maps"
	"strings"

	"github.com/mesh-intelligence/gridline/internal/aggregation"
	"github.com/mesh-intelligence/gridline/internal/values"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// RowGroupKey returns the partition identity of row.
func (t *Table) RowGroupKey(row *types.Row) string {
	return aggregation.GroupKey(row, t.settings.GroupRowsBy)
}

// RowGroupName returns the display name of row's group: its group-by values
// joined by ", ".
func (t *Table) RowGroupName(row *types.Row) string {
	parts := make([]string, len(t.settings.GroupRowsBy))
	for i, field := range t.settings.GroupRowsBy {
		parts[i] = values.String(row.Value(field))
	}
	return strings.Join(parts, ", ")
}

func (t *Table) group(row *types.Row) (*types.GroupMeta, bool) {
	if !t.settings.IsGrouped() {
		return nil, false
	}
	g, ok := t.view.Groups[t.RowGroupKey(row)]
	return g, ok
}

// RowGroupSize returns the number of visible rows in row's group.
func (t *Table) RowGroupSize(row *types.Row) int {
	if g, ok := t.group(row); ok {
		return g.Size
	}
	return 0
}

// IsRowGroup reports whether the visible row at position starts its group.
func (t *Table) IsRowGroup(row *types.Row, position int) bool {
	g, ok := t.group(row)
	return ok && g.Index == position
}

// IsRowGroupSummary reports whether the visible row at position ends its
// group and a summary should follow it. Without aggregates there is none.
func (t *Table) IsRowGroupSummary(row *types.Row, position int) bool {
	if !t.aggregation.Enabled() {
		return false
	}
	g, ok := t.group(row)
	return ok && g.LastIndex() == position
}

// RowGroupSummary returns the aggregates over row's group.
func (t *Table) RowGroupSummary(row *types.Row) map[string]any {
	if g, ok := t.group(row); ok {
		return maps.Clone(g.Summary)
	}
	return nil
}

// GroupMetadata returns the groups of the visible rows by key.
func (t *Table) GroupMetadata() map[string]types.GroupMeta {
	out := make(map[string]types.GroupMeta, len(t.view.Groups))
	for k, g := range t.view.Groups {
		out[k] = *g
	}
	return out
}

// GrandTotalRow returns the aggregates over every visible row, or nil when
// no column declares an aggregation.
func (t *Table) GrandTotalRow() map[string]any {
	return maps.Clone(t.view.GrandTotal)
}

// GroupingError reports whether the visible rows were grouped out of order.
// It can only happen in the remote pipeline, when the service ignores the
// group-by sort keys.
func (t *Table) GroupingError() error {
	return t.view.GroupErr
}
