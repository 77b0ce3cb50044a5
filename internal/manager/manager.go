// Package manager drives a table from a DataService. It owns the
// asynchronous boundary of the engine: loads and CRUD calls run without
// holding the table, and their results are applied under the manager's
// lock. The most recently issued load wins; a response to a superseded
// query or page is dropped. A CRUD result for a row that a load replaced
// in the meantime is dropped too, never applied to the row that took its
// place.
package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/gridline/internal/events"
	"github.com/mesh-intelligence/gridline/internal/table"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// DefaultConcurrency bounds the updates SaveChanges runs at once.
const DefaultConcurrency = 4

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. The default is the table's logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithConcurrency bounds the updates SaveChanges runs at once.
func WithConcurrency(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// Manager pairs a table with its data service.
type Manager struct {
	mu          sync.Mutex
	table       *table.Table
	service     types.DataService
	log         *slog.Logger
	concurrency int

	seq     atomic.Uint64
	pending int
	subs    events.Registry
}

// New returns a manager for t backed by service. A nil service is allowed;
// every call that needs it then fails with ErrNoDataService.
func New(t *table.Table, service types.DataService, opts ...Option) *Manager {
	m := &Manager{
		table:       t,
		service:     service,
		log:         t.Logger(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(m)
	}

	bus := t.Events()
	events.On(&m.subs, &bus.FilterChanged, m.queryChanged)
	events.On(&m.subs, &bus.SortChanged, m.queryChanged)
	events.On(&m.subs, &bus.PageChanged, m.pageChanged)
	return m
}

// queryChanged runs on the goroutine that changed the filter or sort, which
// already holds the manager's lock through Do. In-flight loads are made
// stale; with virtual scrolling the rows of the old query are dropped.
func (m *Manager) queryChanged(events.Signal) {
	m.seq.Add(1)
	if s := m.table.Settings(); s.VirtualScroll && !s.ClientSide {
		m.table.ClearRows()
	}
}

// pageChanged makes in-flight remote loads stale: they fetched another
// page. A local load fetches every record, so the page does not matter.
func (m *Manager) pageChanged(events.Signal) {
	if !m.table.Settings().ClientSide {
		m.seq.Add(1)
	}
}

// replaced reports whether row left the table while a call on it was in
// flight. The caller must hold the lock.
func (m *Manager) replaced(row *types.Row, op string) bool {
	if m.table.Contains(row) {
		return false
	}
	m.log.Debug("row replaced during call, result dropped", "op", op, "uid", row.UID)
	return true
}

// Close releases the manager's subscriptions on the table.
func (m *Manager) Close() {
	m.subs.Dispose()
}

// Do runs fn with exclusive access to the table. Every table access that
// may race with a load or a CRUD call goes through Do.
func (m *Manager) Do(fn func(t *table.Table)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.table)
}

// Table returns the managed table. Access it through Do while calls are in
// flight.
func (m *Manager) Table() *table.Table {
	return m.table
}

// Query returns the query LoadItems would issue now. A local table asks for
// every record; filtering, sorting and paging then happen in the table.
func (m *Manager) Query() types.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.query()
}

func (m *Manager) query() types.Query {
	if m.table.Settings().ClientSide {
		return types.Query{Page: 1}
	}
	return m.table.Query()
}

// LoadItems fetches the rows for the current query and installs them. With
// virtual scrolling a page already in the cache is served without a call.
// If another load or a query change happens while this one is in flight
// the response is discarded and ErrStaleLoad is returned.
func (m *Manager) LoadItems(ctx context.Context) error {
	if m.service == nil {
		return types.ErrNoDataService
	}

	m.mu.Lock()
	seq := m.seq.Add(1)
	q := m.query()
	settings := m.table.Settings()
	cache := m.table.Pager().Cache()
	cacheable := settings.VirtualScroll && !settings.ClientSide
	if cacheable {
		if items, ok := cache.Get(q.Offset()); ok {
			m.log.Debug("page served from cache", "page", q.Page, "offset", q.Offset())
			m.table.SetRows(items)
			m.mu.Unlock()
			return nil
		}
	}
	m.pending++
	m.table.SetLoading(true)
	m.mu.Unlock()

	m.log.Info("loading items", "page", q.Page, "page_size", q.PageSize, "filters", len(q.Filters))
	res, err := m.service.LoadItems(ctx, q)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending--
	if m.pending == 0 {
		m.table.SetLoading(false)
	}

	if current := m.seq.Load(); current != seq {
		m.log.Warn("discarding stale load", "request", seq, "current", current)
		return types.ErrStaleLoad
	}
	if err != nil {
		m.log.Warn("load failed", "error", err)
		return fmt.Errorf("loading items: %w", err)
	}

	if !settings.ClientSide {
		m.table.Pager().SetTotal(res.Total)
	}
	if cacheable {
		cache.Put(q.Offset(), res.Items)
	}
	m.table.SetRows(res.Items)
	return nil
}

// Clear drops every row and cached page and makes in-flight loads stale.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq.Add(1)
	m.table.Pager().Cache().InvalidateAll()
	m.table.ClearRows()
}

// Create stores raw through the service and appends the stored record.
// On failure the table is untouched.
func (m *Manager) Create(ctx context.Context, raw map[string]any) (*types.Row, error) {
	if m.service == nil {
		return nil, types.ErrNoDataService
	}
	created, err := m.service.Create(ctx, raw)
	if err != nil {
		m.log.Warn("create failed", "error", err)
		return nil, fmt.Errorf("creating row: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.table.Pager().Cache().InvalidateAll()
	return m.table.AddRow(created), nil
}

// Update stores row's live fields and accepts the stored record as the
// row's new snapshot. On failure the row keeps its edits and stays dirty.
// If a load replaced row meanwhile, the record is stored but the table is
// left alone.
func (m *Manager) Update(ctx context.Context, row *types.Row) error {
	if m.service == nil {
		return types.ErrNoDataService
	}
	m.mu.Lock()
	item := row.Record()
	m.mu.Unlock()

	stored, err := m.service.Update(ctx, item)
	if err != nil {
		m.log.Warn("update failed", "uid", row.UID, "error", err)
		return fmt.Errorf("updating row %d: %w", row.UID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.table.Pager().Cache().InvalidateAll()
	if m.replaced(row, "update") {
		return nil
	}
	return m.table.MergeRow(row, stored)
}

// Delete removes row through the service, then from the table. A row a
// load replaced meantime is already gone from the table.
func (m *Manager) Delete(ctx context.Context, row *types.Row) error {
	if m.service == nil {
		return types.ErrNoDataService
	}
	m.mu.Lock()
	item := row.Record()
	m.mu.Unlock()

	if err := m.service.Delete(ctx, item); err != nil {
		m.log.Warn("delete failed", "uid", row.UID, "error", err)
		return fmt.Errorf("deleting row %d: %w", row.UID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.table.Pager().Cache().InvalidateAll()
	if m.replaced(row, "delete") {
		return nil
	}
	return m.table.DeleteRow(row)
}

// RefreshRow replaces row with the service's current version, discarding
// local edits.
func (m *Manager) RefreshRow(ctx context.Context, row *types.Row) error {
	if m.service == nil {
		return types.ErrNoDataService
	}
	m.mu.Lock()
	item := row.Record()
	m.mu.Unlock()

	fresh, err := m.service.Refresh(ctx, item)
	if err != nil {
		m.log.Warn("refresh failed", "uid", row.UID, "error", err)
		return fmt.Errorf("refreshing row %d: %w", row.UID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaced(row, "refresh") {
		return nil
	}
	return m.table.MergeRow(row, fresh)
}

// SaveChanges updates every dirty row, a bounded number at a time. It
// returns the first failure; rows that failed stay dirty.
func (m *Manager) SaveChanges(ctx context.Context) error {
	if m.service == nil {
		return types.ErrNoDataService
	}
	m.mu.Lock()
	dirty := m.table.ChangedRows()
	m.mu.Unlock()
	if len(dirty) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for _, row := range dirty {
		row := row
		g.Go(func() error {
			return m.Update(gctx, row)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	m.log.Info("changes saved", "rows", len(dirty))
	return nil
}
