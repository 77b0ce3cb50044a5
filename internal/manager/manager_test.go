package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gridline/internal/table"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

var errRejected = errors.New("rejected by service")

// fakeService serves pages of a fixed record list. When gate is set each
// LoadItems call blocks until a value arrives on it; rowGate does the same
// for Update, Delete and Refresh.
type fakeService struct {
	mu         sync.Mutex
	records    []map[string]any
	loads      atomic.Int32
	updates    atomic.Int32
	gate       chan struct{}
	started    chan types.Query
	rowGate    chan struct{}
	rowStarted chan struct{}
	fail       bool
}

func (f *fakeService) holdRow(ctx context.Context) error {
	if f.rowStarted != nil {
		f.rowStarted <- struct{}{}
	}
	if f.rowGate == nil {
		return nil
	}
	select {
	case <-f.rowGate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeService) LoadItems(ctx context.Context, q types.Query) (types.Result, error) {
	f.loads.Add(1)
	if f.started != nil {
		f.started <- q
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return types.Result{}, ctx.Err()
		}
	}
	if f.fail {
		return types.Result{}, errRejected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.records
	if q.PageSize > 0 {
		start := min(q.Offset(), len(items))
		end := min(start+q.PageSize, len(items))
		items = items[start:end]
	}
	return types.Result{Items: items, Total: len(f.records)}, nil
}

func (f *fakeService) Create(_ context.Context, item map[string]any) (map[string]any, error) {
	if f.fail {
		return nil, errRejected
	}
	out := map[string]any{"id": "new"}
	for k, v := range item {
		out[k] = v
	}
	return out, nil
}

func (f *fakeService) Update(ctx context.Context, item map[string]any) (map[string]any, error) {
	f.updates.Add(1)
	if err := f.holdRow(ctx); err != nil {
		return nil, err
	}
	if f.fail {
		return nil, errRejected
	}
	out := map[string]any{"version": 2}
	for k, v := range item {
		out[k] = v
	}
	return out, nil
}

func (f *fakeService) Delete(ctx context.Context, _ map[string]any) error {
	if err := f.holdRow(ctx); err != nil {
		return err
	}
	if f.fail {
		return errRejected
	}
	return nil
}

func (f *fakeService) Refresh(ctx context.Context, item map[string]any) (map[string]any, error) {
	if err := f.holdRow(ctx); err != nil {
		return nil, err
	}
	if f.fail {
		return nil, errRejected
	}
	return map[string]any{"id": item["id"], "name": "fresh"}, nil
}

func records(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{"id": fmt.Sprintf("r%02d", i), "name": fmt.Sprintf("name %d", i)}
	}
	return out
}

func newManager(t *testing.T, svc types.DataService, merge map[string]any) *Manager {
	t.Helper()
	s := types.DefaultSettings()
	s.Merge(map[string]any{"clientSide": false, "pageSize": 5})
	s.Merge(merge)
	tbl, err := table.New([]types.ColumnBase{{Name: "id"}, {Name: "name"}}, s)
	require.NoError(t, err)
	m := New(tbl, svc)
	t.Cleanup(m.Close)
	return m
}

func TestLoadItemsRemote(t *testing.T) {
	svc := &fakeService{records: records(12)}
	m := newManager(t, svc, nil)

	require.NoError(t, m.LoadItems(context.Background()))

	tbl := m.Table()
	assert.Len(t, tbl.Rows(), 5)
	assert.Equal(t, 12, tbl.Pager().Total())
	assert.Equal(t, 3, tbl.Pager().PageCount())
	assert.False(t, tbl.Loading())

	require.NoError(t, tbl.SetPage(3))
	require.NoError(t, m.LoadItems(context.Background()))
	assert.Len(t, tbl.Rows(), 2)
	assert.Equal(t, "r10", tbl.Rows()[0].Value("id"))
}

func TestLoadItemsLocalFetchesEverything(t *testing.T) {
	svc := &fakeService{records: records(12)}
	m := newManager(t, svc, map[string]any{"clientSide": true})

	assert.Zero(t, m.Query().PageSize)
	require.NoError(t, m.LoadItems(context.Background()))

	assert.Len(t, m.Table().Source(), 12)
	assert.Len(t, m.Table().Rows(), 5)
	assert.Equal(t, 12, m.Table().Pager().Total())
}

func TestLoadItemsUsesPageCache(t *testing.T) {
	svc := &fakeService{records: records(12)}
	m := newManager(t, svc, map[string]any{"virtualScroll": true})
	ctx := context.Background()

	require.NoError(t, m.LoadItems(ctx))
	require.NoError(t, m.LoadItems(ctx))
	assert.Equal(t, int32(1), svc.loads.Load(), "second load of the same page is cached")

	m.Do(func(tbl *table.Table) {
		tbl.SetFilter("name", types.FilterMeta{Value: "name"})
		assert.Empty(t, tbl.Rows(), "virtual scroll drops rows of the old query")
	})
	require.NoError(t, m.LoadItems(ctx))
	assert.Equal(t, int32(2), svc.loads.Load(), "a filter change invalidates the cache")
}

func TestLastRequestWins(t *testing.T) {
	svc := &fakeService{
		records: records(12),
		gate:    make(chan struct{}),
		started: make(chan types.Query, 2),
	}
	m := newManager(t, svc, nil)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- m.LoadItems(ctx) }()
	<-svc.started
	assert.True(t, m.Table().Loading())

	m.Do(func(tbl *table.Table) { require.NoError(t, tbl.SetPage(2)) })
	second := make(chan error, 1)
	go func() { second <- m.LoadItems(ctx) }()
	<-svc.started

	// Release both; the order they finish in must not matter.
	svc.gate <- struct{}{}
	svc.gate <- struct{}{}

	errs := []error{<-first, <-second}
	assert.Contains(t, errs, types.ErrStaleLoad)
	assert.Contains(t, errs, nil)

	m.Do(func(tbl *table.Table) {
		require.Len(t, tbl.Rows(), 5)
		assert.Equal(t, "r05", tbl.Rows()[0].Value("id"), "the page 2 result is authoritative")
		assert.False(t, tbl.Loading())
	})
}

func TestQueryChangeMakesLoadStale(t *testing.T) {
	svc := &fakeService{
		records: records(3),
		gate:    make(chan struct{}),
		started: make(chan types.Query, 1),
	}
	m := newManager(t, svc, nil)

	done := make(chan error, 1)
	go func() { done <- m.LoadItems(context.Background()) }()
	<-svc.started

	m.Do(func(tbl *table.Table) { tbl.SetSortMeta([]types.SortMeta{{Field: "name", Order: types.SortDesc}}) })
	svc.gate <- struct{}{}

	assert.ErrorIs(t, <-done, types.ErrStaleLoad)
	assert.Empty(t, m.Table().Rows())
}

func TestPageChangeMakesLoadStale(t *testing.T) {
	svc := &fakeService{
		records: records(12),
		gate:    make(chan struct{}),
		started: make(chan types.Query, 1),
	}
	m := newManager(t, svc, nil)

	done := make(chan error, 1)
	go func() { done <- m.LoadItems(context.Background()) }()
	q := <-svc.started
	require.Equal(t, 1, q.Page)

	m.Do(func(tbl *table.Table) { require.NoError(t, tbl.SetPage(2)) })
	svc.gate <- struct{}{}

	assert.ErrorIs(t, <-done, types.ErrStaleLoad)
	m.Do(func(tbl *table.Table) {
		assert.Equal(t, 2, tbl.Pager().Current())
		assert.Empty(t, tbl.Rows(), "page 1 rows must not appear under page 2")
	})
}

func TestLocalPageChangeKeepsLoad(t *testing.T) {
	svc := &fakeService{
		records: records(12),
		gate:    make(chan struct{}),
		started: make(chan types.Query, 1),
	}
	m := newManager(t, svc, map[string]any{"clientSide": true})

	done := make(chan error, 1)
	go func() { done <- m.LoadItems(context.Background()) }()
	<-svc.started

	m.Do(func(tbl *table.Table) { require.NoError(t, tbl.SetPage(2)) })
	svc.gate <- struct{}{}

	require.NoError(t, <-done)
	assert.Len(t, m.Table().Source(), 12)
}

// TestRowCallsAcrossReload holds a row call at the service while the next
// page is loaded. The result must not land on the row of the new page that
// reuses the old row's uid.
func TestRowCallsAcrossReload(t *testing.T) {
	tests := []struct {
		name string
		call func(ctx context.Context, m *Manager, row *types.Row) error
	}{
		{"update", func(ctx context.Context, m *Manager, row *types.Row) error {
			m.Do(func(*table.Table) { row.Set("name", "edited") })
			return m.Update(ctx, row)
		}},
		{"delete", func(ctx context.Context, m *Manager, row *types.Row) error {
			return m.Delete(ctx, row)
		}},
		{"refresh", func(ctx context.Context, m *Manager, row *types.Row) error {
			return m.RefreshRow(ctx, row)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{records: records(12)}
			m := newManager(t, svc, nil)
			ctx := context.Background()
			require.NoError(t, m.LoadItems(ctx))

			var row *types.Row
			m.Do(func(tbl *table.Table) { row = tbl.Rows()[0] })
			require.Equal(t, "r00", row.Value("id"))

			svc.rowGate = make(chan struct{})
			svc.rowStarted = make(chan struct{}, 1)
			done := make(chan error, 1)
			go func() { done <- tt.call(ctx, m, row) }()
			<-svc.rowStarted

			m.Do(func(tbl *table.Table) { require.NoError(t, tbl.SetPage(2)) })
			require.NoError(t, m.LoadItems(ctx))
			svc.rowGate <- struct{}{}
			require.NoError(t, <-done)

			m.Do(func(tbl *table.Table) {
				require.Len(t, tbl.Rows(), 5)
				first := tbl.Rows()[0]
				assert.Equal(t, row.UID, first.UID, "the new page reuses the uid")
				assert.Equal(t, "r05", first.Value("id"))
				assert.Equal(t, "name 5", first.Value("name"))
				assert.False(t, tbl.RowChanged(first))
			})
		})
	}
}

func TestLoadFailure(t *testing.T) {
	svc := &fakeService{records: records(3), fail: true}
	m := newManager(t, svc, nil)

	err := m.LoadItems(context.Background())
	assert.ErrorIs(t, err, errRejected)
	assert.False(t, m.Table().Loading())
}

func TestCRUD(t *testing.T) {
	svc := &fakeService{records: records(3)}
	m := newManager(t, svc, nil)
	ctx := context.Background()
	require.NoError(t, m.LoadItems(ctx))
	tbl := m.Table()

	row, err := m.Create(ctx, map[string]any{"name": "added"})
	require.NoError(t, err)
	assert.Equal(t, "new", row.Value("id"))
	assert.Len(t, tbl.Rows(), 4)
	assert.Equal(t, 4, tbl.Pager().Total())

	first := tbl.Rows()[0]
	first.Set("name", "edited")
	require.NoError(t, m.Update(ctx, first))
	assert.False(t, tbl.RowChanged(first))
	assert.Equal(t, 2, first.Value("version"))

	first.Set("name", "again")
	require.NoError(t, m.RefreshRow(ctx, first))
	assert.Equal(t, "fresh", first.Value("name"))

	require.NoError(t, m.Delete(ctx, row))
	assert.Len(t, tbl.Rows(), 3)
}

func TestCRUDFailureLeavesTableUntouched(t *testing.T) {
	svc := &fakeService{records: records(3)}
	m := newManager(t, svc, nil)
	ctx := context.Background()
	require.NoError(t, m.LoadItems(ctx))
	tbl := m.Table()
	svc.fail = true

	_, err := m.Create(ctx, map[string]any{"name": "x"})
	assert.ErrorIs(t, err, errRejected)
	assert.Len(t, tbl.Rows(), 3)

	row := tbl.Rows()[1]
	row.Set("name", "edited")
	assert.ErrorIs(t, m.Update(ctx, row), errRejected)
	assert.True(t, tbl.RowChanged(row), "a failed update keeps the edit")

	assert.ErrorIs(t, m.Delete(ctx, row), errRejected)
	assert.Len(t, tbl.Rows(), 3)

	assert.ErrorIs(t, m.RefreshRow(ctx, row), errRejected)
	assert.Equal(t, "edited", row.Value("name"))
}

func TestSaveChanges(t *testing.T) {
	svc := &fakeService{records: records(5)}
	m := newManager(t, svc, nil)
	ctx := context.Background()
	require.NoError(t, m.LoadItems(ctx))

	m.Do(func(tbl *table.Table) {
		tbl.Rows()[0].Set("name", "a")
		tbl.Rows()[2].Set("name", "b")
		tbl.Rows()[4].Set("name", "c")
	})

	require.NoError(t, m.SaveChanges(ctx))
	assert.Equal(t, int32(3), svc.updates.Load())
	assert.Empty(t, m.Table().ChangedRows())

	require.NoError(t, m.SaveChanges(ctx))
	assert.Equal(t, int32(3), svc.updates.Load(), "nothing dirty, nothing sent")
}

func TestNoService(t *testing.T) {
	m := newManager(t, nil, nil)
	ctx := context.Background()
	assert.ErrorIs(t, m.LoadItems(ctx), types.ErrNoDataService)
	_, err := m.Create(ctx, nil)
	assert.ErrorIs(t, err, types.ErrNoDataService)
	assert.ErrorIs(t, m.SaveChanges(ctx), types.ErrNoDataService)
}

func TestClear(t *testing.T) {
	svc := &fakeService{records: records(3)}
	m := newManager(t, svc, map[string]any{"virtualScroll": true})
	require.NoError(t, m.LoadItems(context.Background()))

	m.Clear()
	assert.Empty(t, m.Table().Rows())
	assert.Zero(t, m.Table().Pager().Cache().Len())
}
