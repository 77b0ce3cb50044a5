package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/gridline/pkg/types"
)

func TestChannelDeliversToAllListeners(t *testing.T) {
	var c Channel[int]
	var a, b []int
	c.Subscribe(func(v int) { a = append(a, v) })
	c.Subscribe(func(v int) { b = append(b, v) })

	c.Emit(1)
	c.Emit(2)

	assert.Equal(t, []int{1, 2}, a)
	assert.Equal(t, []int{1, 2}, b)
}

func TestDisposer(t *testing.T) {
	var c Channel[Signal]
	calls := 0
	dispose := c.Subscribe(func(Signal) { calls++ })

	c.Emit(Signal{})
	dispose()
	dispose()
	c.Emit(Signal{})

	assert.Equal(t, 1, calls)
	assert.Zero(t, c.Len())
}

func TestNoReplayForLateSubscribers(t *testing.T) {
	var c Channel[string]
	c.Emit("early")

	var got []string
	c.Subscribe(func(s string) { got = append(got, s) })
	c.Emit("late")

	assert.Equal(t, []string{"late"}, got)
}

func TestDisposeDuringEmit(t *testing.T) {
	var c Channel[Signal]
	calls := 0
	var dispose Disposer
	dispose = c.Subscribe(func(Signal) {
		calls++
		dispose()
	})

	c.Emit(Signal{})
	c.Emit(Signal{})
	assert.Equal(t, 1, calls)
}

func TestRegistry(t *testing.T) {
	bus := NewBus()
	var reg Registry

	rows, cells := 0, 0
	On(&reg, &bus.RowsChanged, func(Signal) { rows++ })
	On(&reg, &bus.CellEvent, func(types.CellEvent) { cells++ })
	assert.Equal(t, 2, reg.Len())

	bus.RowsChanged.Emit(Signal{})
	bus.CellEvent.Emit(types.CellEvent{Kind: types.CellClick, RowIndex: 1, ColumnIndex: 2})

	reg.Dispose()
	bus.RowsChanged.Emit(Signal{})
	bus.CellEvent.Emit(types.CellEvent{})

	assert.Equal(t, 1, rows)
	assert.Equal(t, 1, cells)
	assert.Zero(t, reg.Len())
	assert.Zero(t, bus.RowsChanged.Len())
}

func TestConcurrentEmit(t *testing.T) {
	var c Channel[int]
	var mu sync.Mutex
	sum := 0
	c.Subscribe(func(v int) {
		mu.Lock()
		sum += v
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			c.Emit(v)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 55, sum)
}
