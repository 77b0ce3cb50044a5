// Package selection tracks selected row positions under a selection policy.
package selection

import (
	"slices"

	"github.com/mesh-intelligence/gridline/pkg/types"
)

// Model is the selection set. Under SelectionNone every mutation is a
// no-op; under SelectionSingle the set holds at most one member.
type Model struct {
	kind     types.SelectionType
	selected map[int]struct{}
}

// New returns an empty selection for kind.
func New(kind types.SelectionType) *Model {
	return &Model{kind: kind, selected: make(map[int]struct{})}
}

// Type returns the selection policy.
func (m *Model) Type() types.SelectionType {
	return m.kind
}

// SetType switches policy. Narrowing to single keeps the lowest selected
// index; switching to none clears the set.
func (m *Model) SetType(kind types.SelectionType) {
	m.kind = kind
	switch {
	case kind == types.SelectionNone:
		m.Clear()
	case !kind.Multi() && len(m.selected) > 1:
		keep := m.Selected()[0]
		m.Clear()
		m.selected[keep] = struct{}{}
	}
}

// Select applies the policy to index: replace under single, toggle under
// multiple and checkbox. It reports whether the set changed.
func (m *Model) Select(index int) bool {
	switch {
	case m.kind == types.SelectionNone:
		return false
	case m.kind.Multi():
		if _, ok := m.selected[index]; ok {
			delete(m.selected, index)
		} else {
			m.selected[index] = struct{}{}
		}
		return true
	default:
		if _, ok := m.selected[index]; ok && len(m.selected) == 1 {
			return false
		}
		m.Clear()
		m.selected[index] = struct{}{}
		return true
	}
}

// SelectAll adds every index and reports whether any was new. Only
// multi-select policies allow it.
func (m *Model) SelectAll(indexes []int) bool {
	if !m.kind.Multi() {
		return false
	}
	changed := false
	for _, i := range indexes {
		if _, ok := m.selected[i]; !ok {
			m.selected[i] = struct{}{}
			changed = true
		}
	}
	return changed
}

// Deselect removes index and reports whether it was selected.
func (m *Model) Deselect(index int) bool {
	if _, ok := m.selected[index]; !ok {
		return false
	}
	delete(m.selected, index)
	return true
}

// Clear empties the set and reports whether anything was selected.
func (m *Model) Clear() bool {
	if len(m.selected) == 0 {
		return false
	}
	clear(m.selected)
	return true
}

// IsSelected reports whether index is selected.
func (m *Model) IsSelected(index int) bool {
	_, ok := m.selected[index]
	return ok
}

// Selected returns the selected indexes in ascending order.
func (m *Model) Selected() []int {
	out := make([]int, 0, len(m.selected))
	for i := range m.selected {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of selected indexes.
func (m *Model) Len() int {
	return len(m.selected)
}
