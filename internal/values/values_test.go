package values

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	d1 := time.Date(2017, 9, 5, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2018, 5, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a, b any
		want int
	}{
		{"ints", 1, 2, -1},
		{"int and float are equal", 3, 3.0, 0},
		{"json number", json.Number("10"), 9, 1},
		{"strings", "b", "a", 1},
		{"times", d1, d2, -1},
		{"bools", true, false, 1},
		{"nil sorts first", nil, "a", -1},
		{"nil equals nil", nil, nil, 0},
		{"numbers before strings", 100, "1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, Compare(tt.b, tt.a), "ordering must be antisymmetric")
		})
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"int", 4, 4, true},
		{"float string", "2.5", 2.5, true},
		{"blank string", "  ", 0, false},
		{"word", "abc", 0, false},
		{"bool is not a number", true, 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Number(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTime(t *testing.T) {
	got, ok := Time("2019-04-07")
	assert.True(t, ok)
	assert.Equal(t, 2019, got.Year())

	_, ok = Time("")
	assert.False(t, ok)
	_, ok = Time("not a date")
	assert.False(t, ok)
}

func TestIsEmptyAndString(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(" "))
	assert.True(t, IsEmpty([]any{}))
	assert.False(t, IsEmpty(0))
	assert.False(t, IsEmpty(false))

	assert.Equal(t, "", String(nil))
	assert.Equal(t, "42", String(42))
	assert.Equal(t, "2017-09-05T00:00:00Z", String(time.Date(2017, 9, 5, 0, 0, 0, 0, time.UTC)))
}
