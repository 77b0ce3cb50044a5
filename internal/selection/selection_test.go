package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/gridline/pkg/types"
)

func TestSelect(t *testing.T) {
	tests := []struct {
		name  string
		kind  types.SelectionType
		picks []int
		want  []int
	}{
		{name: "none ignores selects", kind: types.SelectionNone, picks: []int{1, 2}, want: []int{}},
		{name: "single replaces", kind: types.SelectionSingle, picks: []int{1, 4}, want: []int{4}},
		{name: "single reselect keeps", kind: types.SelectionSingle, picks: []int{4, 4}, want: []int{4}},
		{name: "multiple accumulates", kind: types.SelectionMultiple, picks: []int{5, 1, 3}, want: []int{1, 3, 5}},
		{name: "multiple toggles", kind: types.SelectionMultiple, picks: []int{1, 3, 1}, want: []int{3}},
		{name: "checkbox toggles", kind: types.SelectionCheckbox, picks: []int{2, 2}, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.kind)
			for _, i := range tt.picks {
				m.Select(i)
			}
			assert.Equal(t, tt.want, m.Selected())
			assert.Equal(t, len(tt.want), m.Len())
			for _, i := range tt.want {
				assert.True(t, m.IsSelected(i))
			}
		})
	}
}

func TestSelectReportsChange(t *testing.T) {
	m := New(types.SelectionSingle)
	assert.True(t, m.Select(2))
	assert.False(t, m.Select(2))
	assert.False(t, New(types.SelectionNone).Select(2))
}

func TestSelectAll(t *testing.T) {
	single := New(types.SelectionSingle)
	assert.False(t, single.SelectAll([]int{0, 1, 2}))
	assert.Zero(t, single.Len())

	multi := New(types.SelectionMultiple)
	assert.True(t, multi.SelectAll([]int{2, 0, 1}))
	assert.Equal(t, []int{0, 1, 2}, multi.Selected())
	assert.False(t, multi.SelectAll([]int{0, 1}), "nothing new to select")
}

func TestSetType(t *testing.T) {
	m := New(types.SelectionMultiple)
	m.SelectAll([]int{7, 3, 9})

	m.SetType(types.SelectionSingle)
	assert.Equal(t, []int{3}, m.Selected())

	m.SetType(types.SelectionNone)
	assert.Zero(t, m.Len())
	assert.Equal(t, types.SelectionNone, m.Type())
}

func TestDeselectAndClear(t *testing.T) {
	m := New(types.SelectionCheckbox)
	m.SelectAll([]int{1, 2})
	assert.True(t, m.Deselect(1))
	assert.False(t, m.Deselect(1))
	assert.True(t, m.Clear())
	assert.False(t, m.IsSelected(2))
	assert.False(t, m.Clear(), "clearing an empty set changes nothing")
}
