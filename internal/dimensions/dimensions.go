// Package dimensions derives table geometry from columns and settings.
package dimensions

import (
	"github.com/spf13/cast"

	"github.com/mesh-intelligence/gridline/pkg/types"
)

// Dimensions holds the geometry of one table. Only the total column width
// is memoized; it is recomputed whenever columns change.
type Dimensions struct {
	rowHeight     int
	rowHeightProp string
	tableWidth    int
	scrollHeight  int
	columnsWidth  int
	offsetX       int
	offsetY       int
}

// New returns dimensions built from s.
func New(s types.Settings) *Dimensions {
	d := &Dimensions{}
	d.Apply(s)
	return d
}

// Apply takes the geometry keys from s.
func (d *Dimensions) Apply(s types.Settings) {
	d.rowHeight = s.RowHeight
	if d.rowHeight < 1 {
		d.rowHeight = types.DefaultRowHeight
	}
	d.rowHeightProp = s.RowHeightProp
	d.tableWidth = s.TableWidth
	d.scrollHeight = s.ScrollHeight
}

// CalcColumnsTotalWidth sums the widths of cols, skipping hidden ones, and
// memoizes the result.
func (d *Dimensions) CalcColumnsTotalWidth(cols []*types.Column) int {
	total := 0
	for _, c := range cols {
		if !c.Hidden {
			total += c.Width
		}
	}
	d.columnsWidth = total
	return total
}

// ColumnsTotalWidth returns the last computed total column width.
func (d *Dimensions) ColumnsTotalWidth() int {
	return d.columnsWidth
}

// RowHeight returns the height of r: the value of the configured row
// height field when it is present and a positive integer, otherwise the
// fixed default.
func (d *Dimensions) RowHeight(r *types.Row) int {
	if d.rowHeightProp == "" || r == nil {
		return d.rowHeight
	}
	v, ok := r.Get(d.rowHeightProp)
	if !ok {
		return d.rowHeight
	}
	h, err := cast.ToIntE(v)
	if err != nil || h < 1 {
		return d.rowHeight
	}
	return h
}

// DefaultRowHeight returns the fixed row height.
func (d *Dimensions) DefaultRowHeight() int {
	return d.rowHeight
}

// TableWidth returns the configured table width, or the total column width
// when none is configured.
func (d *Dimensions) TableWidth() int {
	if d.tableWidth > 0 {
		return d.tableWidth
	}
	return d.columnsWidth
}

// ScrollHeight returns the configured viewport height; zero means unbounded.
func (d *Dimensions) ScrollHeight() int {
	return d.scrollHeight
}

// SetOffsets records the viewport scroll position.
func (d *Dimensions) SetOffsets(x, y int) {
	d.offsetX, d.offsetY = x, y
}

// OffsetX returns the horizontal scroll offset.
func (d *Dimensions) OffsetX() int { return d.offsetX }

// OffsetY returns the vertical scroll offset.
func (d *Dimensions) OffsetY() int { return d.offsetY }
