package table

import (
	"fmt"

	"github.com/mesh-intelligence/gridline/internal/events"
	"github.com/mesh-intelligence/gridline/internal/rows"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// AddRow wraps raw with the next free identity and appends it to the
// collection.
func (t *Table) AddRow(raw map[string]any) *types.Row {
	uid, index := rows.Next(t.source)
	row := rows.New(raw, uid, index)
	t.source = append(t.source, row)
	if !t.settings.ClientSide {
		t.pager.SetTotal(t.pager.Total() + 1)
	}
	t.Refresh()
	return row
}

// DeleteRow removes row from the collection. Indexes of the remaining rows
// are not renumbered. A row that is not part of the current collection
// fails with ErrRowNotFound.
func (t *Table) DeleteRow(row *types.Row) error {
	i := t.position(row)
	if i < 0 {
		return fmt.Errorf("deleting row %d: %w", row.UID, types.ErrRowNotFound)
	}
	t.source = append(t.source[:i:i], t.source[i+1:]...)
	t.selection.Deselect(row.Index)
	if !t.settings.ClientSide {
		t.pager.SetTotal(t.pager.Total() - 1)
	}
	t.Refresh()
	return nil
}

// MergeRow overwrites the fields in patch and accepts the result as the
// row's new snapshot. A row that is not part of the current collection
// fails with ErrRowNotFound.
func (t *Table) MergeRow(row *types.Row, patch map[string]any) error {
	i := t.position(row)
	if i < 0 {
		return fmt.Errorf("merging row %d: %w", row.UID, types.ErrRowNotFound)
	}
	rows.Merge(t.source[i], patch)
	t.Refresh()
	return nil
}

// RevertRowChanges restores row to its snapshot. A clean row is left
// alone and nothing is emitted.
func (t *Table) RevertRowChanges(row *types.Row) {
	if rows.Revert(row) {
		t.Refresh()
	}
}

// RowChanged reports whether row differs from its snapshot.
func (t *Table) RowChanged(row *types.Row) bool {
	return rows.Changed(row)
}

// ChangedRows returns every dirty row in the collection.
func (t *Table) ChangedRows() []*types.Row {
	var out []*types.Row
	for _, r := range t.source {
		if rows.Changed(r) {
			out = append(out, r)
		}
	}
	return out
}

// SelectRow applies the selection policy to the row at index. With no
// visible rows the selection is cleared instead. selectionChanged is
// emitted only when the set changed.
func (t *Table) SelectRow(index int) {
	var changed bool
	if len(t.view.Rows) == 0 {
		changed = t.selection.Clear()
	} else {
		changed = t.selection.Select(index)
	}
	if changed {
		t.bus.SelectionChanged.Emit(events.Signal{})
	}
}

// SelectAll selects every visible row. Only multi-select policies allow it.
func (t *Table) SelectAll() {
	indexes := make([]int, len(t.view.Rows))
	for i, r := range t.view.Rows {
		indexes[i] = r.Index
	}
	if t.selection.SelectAll(indexes) {
		t.bus.SelectionChanged.Emit(events.Signal{})
	}
}

// ClearSelection deselects everything.
func (t *Table) ClearSelection() {
	if t.selection.Clear() {
		t.bus.SelectionChanged.Emit(events.Signal{})
	}
}

// IsSelected reports whether the row at index is selected.
func (t *Table) IsSelected(index int) bool {
	return t.selection.IsSelected(index)
}

// Selection returns the selected row indexes in ascending order.
func (t *Table) Selection() []int {
	return t.selection.Selected()
}

// SelectedRows returns the selected rows of the collection.
func (t *Table) SelectedRows() []*types.Row {
	var out []*types.Row
	for _, r := range t.source {
		if t.selection.IsSelected(r.Index) {
			out = append(out, r)
		}
	}
	return out
}

// ResizeColumn sets the width of the named column.
func (t *Table) ResizeColumn(name string, width int) error {
	if err := t.columns.SetWidth(name, width); err != nil {
		return err
	}
	t.dims.CalcColumnsTotalWidth(t.columns.Prepared())
	t.bus.ResizeChanged.Emit(events.Signal{})
	return nil
}

// ResizeEnd marks the end of a resize gesture.
func (t *Table) ResizeEnd() {
	t.bus.ResizeEnded.Emit(events.Signal{})
}

// Scroll records the viewport offsets and emits the vertical one.
func (t *Table) Scroll(offsetX, offsetY int) {
	t.dims.SetOffsets(offsetX, offsetY)
	t.bus.ScrollChanged.Emit(offsetY)
}

// EditCell switches a cell into or out of edit mode.
func (t *Table) EditCell(rowIndex, columnIndex int, editing bool) {
	kind := types.CellView
	if editing {
		kind = types.CellEdit
	}
	t.FireCellEvent(types.CellEvent{Kind: kind, RowIndex: rowIndex, ColumnIndex: columnIndex})
}

// FireCellEvent forwards a cell interaction to observers.
func (t *Table) FireCellEvent(ev types.CellEvent) {
	t.bus.CellEvent.Emit(ev)
}

// SetLoading records whether a remote load is in flight. Only transitions
// are emitted.
func (t *Table) SetLoading(loading bool) {
	if t.loading == loading {
		return
	}
	t.loading = loading
	t.bus.LoadingChanged.Emit(loading)
}

// Loading reports whether a remote load is in flight.
func (t *Table) Loading() bool {
	return t.loading
}
