package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gridline/pkg/types"
)

func sampleColumns() []types.ColumnBase {
	return []types.ColumnBase{
		{Name: "date", Frozen: true, Width: 100},
		{Name: "test1", Width: 100},
		{Name: "gender", Frozen: true, Width: 100},
		{Name: "test2", Width: 100},
		{Name: "test3", Width: 100},
		{Name: "test4", Hidden: true, Width: 100},
	}
}

func TestPrepareFrozenFirst(t *testing.T) {
	m, err := New(sampleColumns(), types.DefaultColumnWidth)
	require.NoError(t, err)

	assert.Len(t, m.Frozen(), 2)
	assert.Len(t, m.Scrollable(), 3)

	prepared := m.Prepared()
	require.Len(t, prepared, 5)
	assert.True(t, prepared[0].Frozen)
	assert.True(t, prepared[1].Frozen)
	for _, col := range prepared[2:] {
		assert.False(t, col.Frozen)
		assert.NotEqual(t, "test4", col.Name, "hidden column must not be prepared")
	}
}

func TestPrepareKeepsRegistrationIndex(t *testing.T) {
	m, err := New(sampleColumns(), types.DefaultColumnWidth)
	require.NoError(t, err)

	prepared := m.Prepared()
	assert.Equal(t, 0, prepared[0].Index)
	assert.Equal(t, 2, prepared[1].Index)
	assert.Equal(t, 1, prepared[2].Index)
	assert.Equal(t, 3, prepared[3].Index)
}

func TestNewRejectsBadDescriptors(t *testing.T) {
	tests := []struct {
		name    string
		bases   []types.ColumnBase
		wantErr error
	}{
		{
			name:    "duplicate name",
			bases:   []types.ColumnBase{{Name: "a"}, {Name: "b"}, {Name: "a"}},
			wantErr: types.ErrDuplicateColumn,
		},
		{
			name:    "empty name",
			bases:   []types.ColumnBase{{Name: "a"}, {Name: ""}},
			wantErr: types.ErrEmptyColumnName,
		},
		{
			name:    "unknown aggregate",
			bases:   []types.ColumnBase{{Name: "exp", Aggregation: "median"}},
			wantErr: types.ErrUnknownAggregate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.bases, types.DefaultColumnWidth)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, m)
		})
	}
}

func TestAggregateSpecs(t *testing.T) {
	m, err := New([]types.ColumnBase{
		{Name: "name"},
		{Name: "exp", Aggregation: "SUM"},
		{Name: "level", Aggregation: "avg"},
	}, types.DefaultColumnWidth)
	require.NoError(t, err)

	assert.Equal(t, []types.AggregateSpec{
		{Field: "exp", Type: types.AggSum},
		{Field: "level", Type: types.AggAverage},
	}, m.AggregateSpecs())
}

func TestApplySettings(t *testing.T) {
	bases := []types.ColumnBase{
		{Name: "race"},
		{Name: "gender"},
		{Name: "name", Sortable: types.Bool(false)},
		{Name: "exp", Aggregation: types.AggSum},
	}
	m, err := New(bases, types.DefaultColumnWidth)
	require.NoError(t, err)

	t.Run("group-by columns are hidden", func(t *testing.T) {
		s := types.DefaultSettings()
		s.GroupRowsBy = []string{"race", "gender"}
		m.ApplySettings(s)

		var names []string
		for _, col := range m.Prepared() {
			names = append(names, col.Name)
		}
		assert.Equal(t, []string{"name", "exp"}, names)
	})

	t.Run("clearing group-by shows the columns again", func(t *testing.T) {
		m.ApplySettings(types.DefaultSettings())
		assert.Len(t, m.Prepared(), 4)
	})

	t.Run("table-wide switches disable every column", func(t *testing.T) {
		s := types.DefaultSettings()
		s.Sortable = false
		s.Filter = false
		m.ApplySettings(s)
		for _, col := range m.All() {
			assert.False(t, col.Sortable, col.Name)
			assert.False(t, col.Filterable, col.Name)
		}
	})

	t.Run("re-enabling keeps per-column opt outs", func(t *testing.T) {
		m.ApplySettings(types.DefaultSettings())
		col, ok := m.Get("name")
		require.True(t, ok)
		assert.False(t, col.Sortable)
		col, _ = m.Get("race")
		assert.True(t, col.Sortable)
	})

	assert.Equal(t, []types.AggregateSpec{{Field: "exp", Type: types.AggSum}}, m.AggregateSpecs())
}

func TestSetWidth(t *testing.T) {
	m, err := New(sampleColumns(), types.DefaultColumnWidth)
	require.NoError(t, err)

	require.NoError(t, m.SetWidth("test1", 180))
	col, _ := m.Get("test1")
	assert.Equal(t, 180, col.Width)

	assert.ErrorIs(t, m.SetWidth("missing", 10), types.ErrUnknownColumn)
}
