package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewColumn(t *testing.T) {
	tests := []struct {
		name  string
		base  ColumnBase
		check func(t *testing.T, c *Column)
	}{
		{
			name: "defaults title width and capabilities",
			base: ColumnBase{Name: "race"},
			check: func(t *testing.T, c *Column) {
				assert.Equal(t, "race", c.Title)
				assert.Equal(t, 120, c.Width)
				assert.True(t, c.Sortable)
				assert.True(t, c.Filterable)
			},
		},
		{
			name: "explicit flags win",
			base: ColumnBase{Name: "id", Title: "ID", Width: 40, Sortable: Bool(false), Filterable: Bool(false)},
			check: func(t *testing.T, c *Column) {
				assert.Equal(t, "ID", c.Title)
				assert.Equal(t, 40, c.Width)
				assert.False(t, c.Sortable)
				assert.False(t, c.Filterable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewColumn(tt.base, 3, 120)
			assert.Equal(t, 3, c.Index)
			tt.check(t, c)
		})
	}
}

func TestParseAggregateType(t *testing.T) {
	got, ok := ParseAggregateType("AVG")
	assert.True(t, ok)
	assert.Equal(t, AggAverage, got)

	_, ok = ParseAggregateType("median")
	assert.False(t, ok)

	assert.Equal(t, 6, GroupMeta{Index: 4, Size: 3}.LastIndex())
}

func TestRowCloneHasNoIdentity(t *testing.T) {
	r := &Row{UID: 7, Index: 6, Fields: map[string]any{"a": 1}, Data: map[string]any{"a": 1}}
	c := r.Clone()
	c.Set("a", 2)

	assert.Zero(t, c.UID)
	assert.Equal(t, 1, r.Value("a"))
}
