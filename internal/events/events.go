// Package events is the change bus: one typed, fire-and-forget channel per
// concern. Late subscribers do not see earlier emissions.
package events

import (
	"sync"

	"github.com/mesh-intelligence/gridline/pkg/types"
)

// Signal is the payload of channels that carry no data.
type Signal struct{}

// Disposer removes a listener. Calling it more than once is safe.
type Disposer func()

// Channel delivers values of type T to its listeners synchronously, on the
// emitting goroutine. The zero value is ready to use.
type Channel[T any] struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func(T)
}

// Subscribe adds fn and returns its disposer.
func (c *Channel[T]) Subscribe(fn func(T)) Disposer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.listeners == nil {
		c.listeners = make(map[int]func(T))
	}
	id := c.next
	c.next++
	c.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

// Emit calls every listener with v. Listeners may subscribe or dispose
// during delivery; changes apply from the next emission.
func (c *Channel[T]) Emit(v T) {
	c.mu.Lock()
	fns := make([]func(T), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of listeners.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.listeners)
}

// Bus groups the table's channels.
type Bus struct {
	FilterChanged    Channel[Signal]
	SortChanged      Channel[Signal]
	PageChanged      Channel[Signal]
	SelectionChanged Channel[Signal]
	ResizeChanged    Channel[Signal]
	ResizeEnded      Channel[Signal]
	RowsChanged      Channel[Signal]
	CellEvent        Channel[types.CellEvent]
	ScrollChanged    Channel[int]
	LoadingChanged   Channel[bool]
}

// NewBus returns a bus with no listeners.
func NewBus() *Bus {
	return &Bus{}
}

// Registry collects disposers so an owner can release all of its
// subscriptions at teardown.
type Registry struct {
	mu        sync.Mutex
	disposers []Disposer
}

// Add records d.
func (r *Registry) Add(d Disposer) {
	r.mu.Lock()
	r.disposers = append(r.disposers, d)
	r.mu.Unlock()
}

// Dispose runs every recorded disposer and forgets them.
func (r *Registry) Dispose() {
	r.mu.Lock()
	ds := r.disposers
	r.disposers = nil
	r.mu.Unlock()

	for _, d := range ds {
		d()
	}
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.disposers)
}

// On subscribes fn to c and records the disposer in r.
func On[T any](r *Registry, c *Channel[T], fn func(T)) {
	r.Add(c.Subscribe(fn))
}
