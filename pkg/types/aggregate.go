package types

import "strings"

// AggregateType names a per-column aggregate.
type AggregateType string

// Supported aggregates.
const (
	AggCount   AggregateType = "count"
	AggSum     AggregateType = "sum"
	AggMin     AggregateType = "min"
	AggMax     AggregateType = "max"
	AggAverage AggregateType = "average"
)

var validAggregates = map[AggregateType]bool{
	AggCount:   true,
	AggSum:     true,
	AggMin:     true,
	AggMax:     true,
	AggAverage: true,
}

// Valid reports whether a is one of the supported aggregates.
func (a AggregateType) Valid() bool {
	return validAggregates[a]
}

// ParseAggregateType returns the aggregate named by s, ignoring case.
// "avg" is accepted for average.
func ParseAggregateType(s string) (AggregateType, bool) {
	a := AggregateType(strings.ToLower(strings.TrimSpace(s)))
	if a == "avg" {
		a = AggAverage
	}
	return a, a.Valid()
}

// AggregateSpec binds an aggregate to a field.
type AggregateSpec struct {
	Field string
	Type  AggregateType
}

// GroupMeta describes one contiguous run of rows sharing a group key.
// Summary holds the aggregate values over the run when aggregation is
// enabled.
type GroupMeta struct {
	Index   int
	Size    int
	Summary map[string]any
}

// LastIndex returns the position of the last row of the group.
func (g GroupMeta) LastIndex() int {
	return g.Index + g.Size - 1
}
