// Package aggregation partitions sorted rows into groups and computes
// per-group and grand-total aggregates.
package aggregation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/gridline/internal/values"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// keySeparator joins quoted field values inside a group key. Values are
// quoted, so a separator inside a value cannot forge another key.
const keySeparator = "|"

// GroupKey returns the partition identity of r under fields: each field
// value's kind and its values.String form, quoted, joined in field order.
// The kind keeps 950 and "950" apart, as sorting does.
func GroupKey(r *types.Row, fields []string) string {
	var b strings.Builder
	for i, field := range fields {
		if i > 0 {
			b.WriteString(keySeparator)
		}
		v := r.Value(field)
		b.WriteString(values.Kind(v))
		b.WriteByte(':')
		b.WriteString(strconv.Quote(values.String(v)))
	}
	return b.String()
}

// Engine computes aggregates for a fixed list of specs.
type Engine struct {
	specs []types.AggregateSpec
}

// New returns an engine for specs. Specs with an unknown aggregate type
// are dropped.
func New(specs []types.AggregateSpec) *Engine {
	e := &Engine{}
	for _, s := range specs {
		if s.Type.Valid() {
			e.specs = append(e.specs, s)
		}
	}
	return e
}

// Enabled reports whether any aggregate is configured.
func (e *Engine) Enabled() bool {
	return len(e.specs) > 0
}

// Specs returns the configured aggregates.
func (e *Engine) Specs() []types.AggregateSpec {
	return append([]types.AggregateSpec(nil), e.specs...)
}

// GroupMetadata makes one pass over rows, which must already be sorted by
// fields, and returns the run of each group key. A key that reappears after
// its run ended means the input was not sorted; the first run is kept and
// ErrGroupingNotSorted is returned alongside the metadata. When aggregation
// is enabled each group carries a summary over its run.
func (e *Engine) GroupMetadata(rows []*types.Row, fields []string) (map[string]*types.GroupMeta, error) {
	groups := make(map[string]*types.GroupMeta)
	if len(fields) == 0 {
		return groups, nil
	}

	var (
		prev    string
		current *types.GroupMeta
		err     error
	)
	for i, r := range rows {
		key := GroupKey(r, fields)
		if current != nil && key == prev {
			current.Size++
			continue
		}
		prev = key
		if _, seen := groups[key]; seen {
			if err == nil {
				err = fmt.Errorf("group %s at row %d: %w", key, i, types.ErrGroupingNotSorted)
			}
			current = &types.GroupMeta{Index: i, Size: 1}
			continue
		}
		current = &types.GroupMeta{Index: i, Size: 1}
		groups[key] = current
	}

	if e.Enabled() {
		for _, g := range groups {
			g.Summary = e.Aggregate(rows[g.Index : g.Index+g.Size])
		}
	}
	return groups, err
}

// GrandTotal applies every aggregate to the whole collection.
func (e *Engine) GrandTotal(rows []*types.Row) map[string]any {
	return e.Aggregate(rows)
}

// Aggregate returns the value of each configured aggregate over rows,
// keyed by field. count is the number of non-empty values, sum and average
// use the values that coerce to numbers, min and max use natural ordering
// over non-empty values. An aggregate with no usable values is nil.
func (e *Engine) Aggregate(rows []*types.Row) map[string]any {
	out := make(map[string]any, len(e.specs))
	for _, spec := range e.specs {
		var st state
		for _, r := range rows {
			st.add(r.Value(spec.Field))
		}
		out[spec.Field] = st.result(spec.Type)
	}
	return out
}

// state accumulates one field's values.
type state struct {
	count    int
	numbers  int
	sum      float64
	min, max any
}

func (s *state) add(v any) {
	if values.IsEmpty(v) {
		return
	}
	s.count++
	if f, ok := values.Number(v); ok {
		s.numbers++
		s.sum += f
	}
	if s.count == 1 || values.Compare(v, s.min) < 0 {
		s.min = v
	}
	if s.count == 1 || values.Compare(v, s.max) > 0 {
		s.max = v
	}
}

func (s *state) result(t types.AggregateType) any {
	switch t {
	case types.AggCount:
		return s.count
	case types.AggSum:
		if s.numbers == 0 {
			return nil
		}
		return s.sum
	case types.AggAverage:
		if s.numbers == 0 {
			return nil
		}
		return s.sum / float64(s.numbers)
	case types.AggMin:
		return s.min
	case types.AggMax:
		return s.max
	}
	return nil
}
