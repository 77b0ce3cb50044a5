// Package pager slices an ordered row collection into pages and caches
// pages fetched from a remote service.
package pager

import (
	"fmt"

	"github.com/mesh-intelligence/gridline/pkg/types"
)

// Pager is the pagination cursor. Current is 1-based and never below 1.
type Pager struct {
	current int
	perPage int
	total   int
	cache   *Cache
}

// New returns a pager on page 1.
func New(perPage int) *Pager {
	if perPage < 1 {
		perPage = types.DefaultPageSize
	}
	return &Pager{current: 1, perPage: perPage, cache: NewCache()}
}

// Current returns the current page number.
func (p *Pager) Current() int { return p.current }

// PerPage returns the page size.
func (p *Pager) PerPage() int { return p.perPage }

// Total returns the row count the pager was last sized against.
func (p *Pager) Total() int { return p.total }

// Cache returns the page cache.
func (p *Pager) Cache() *Cache { return p.cache }

// SetPage moves to page n.
func (p *Pager) SetPage(n int) error {
	if n < 1 {
		return fmt.Errorf("page %d: %w", n, types.ErrInvalidPage)
	}
	p.current = n
	return nil
}

// SetPerPage changes the page size and returns to page 1. Cached pages
// are dropped because their offsets no longer line up.
func (p *Pager) SetPerPage(n int) error {
	if n < 1 {
		return fmt.Errorf("page size %d: %w", n, types.ErrInvalidPage)
	}
	p.perPage = n
	p.current = 1
	p.cache.InvalidateAll()
	return nil
}

// SetTotal records the row count reported by a remote service.
func (p *Pager) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	p.total = total
}

// Reset returns to page 1.
func (p *Pager) Reset() {
	p.current = 1
}

// PageCount returns the number of pages needed for Total rows; an empty
// collection still has one page.
func (p *Pager) PageCount() int {
	if p.total == 0 {
		return 1
	}
	return (p.total + p.perPage - 1) / p.perPage
}

// Offset returns the position of the first row of the current page.
func (p *Pager) Offset() int {
	return (p.current - 1) * p.perPage
}

// Slice sets Total to len(rows) and returns the current page. When the
// collection shrank below the current page the cursor moves to the last
// page.
func (p *Pager) Slice(rows []*types.Row) []*types.Row {
	p.total = len(rows)
	if last := p.PageCount(); p.current > last {
		p.current = last
	}
	start := p.Offset()
	end := min(start+p.perPage, len(rows))
	if start >= end {
		return []*types.Row{}
	}
	return rows[start:end]
}

// Cache holds fetched pages keyed by page offset. A cache is valid for a
// single filter and sort configuration.
type Cache struct {
	pages map[int][]map[string]any
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{pages: make(map[int][]map[string]any)}
}

// Get returns the page stored at offset. A miss means the page must be
// fetched.
func (c *Cache) Get(offset int) ([]map[string]any, bool) {
	items, ok := c.pages[offset]
	return items, ok
}

// Put stores a fetched page.
func (c *Cache) Put(offset int, items []map[string]any) {
	c.pages[offset] = items
}

// Cached reports whether a page is stored at offset.
func (c *Cache) Cached(offset int) bool {
	_, ok := c.pages[offset]
	return ok
}

// Len returns the number of cached pages.
func (c *Cache) Len() int {
	return len(c.pages)
}

// InvalidateAll drops every cached page.
func (c *Cache) InvalidateAll() {
	clear(c.pages)
}
