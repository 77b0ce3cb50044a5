// Package sorter orders rows by a list of sort keys. The sort is stable so
// rows equal under every key keep their relative order, which grouping and
// paging both rely on.
package sorter

import (
	"slices"

	"github.com/mesh-intelligence/gridline/internal/values"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// Sorter holds the user-chosen sort keys.
type Sorter struct {
	multiple bool
	meta     []types.SortMeta
}

// New returns a Sorter with no active keys.
func New(multiple bool) *Sorter {
	return &Sorter{multiple: multiple}
}

// Multiple reports whether more than one key may be active.
func (s *Sorter) Multiple() bool {
	return s.multiple
}

// SetMultiple switches multi-key sorting. Turning it off keeps only the
// most recent key.
func (s *Sorter) SetMultiple(multiple bool) {
	s.multiple = multiple
	if !multiple && len(s.meta) > 1 {
		s.meta = s.meta[len(s.meta)-1:]
	}
}

// SortMeta returns a copy of the active keys.
func (s *Sorter) SortMeta() []types.SortMeta {
	return slices.Clone(s.meta)
}

// SetSortMeta replaces the active keys.
func (s *Sorter) SetSortMeta(meta []types.SortMeta) {
	s.meta = slices.Clone(meta)
	if !s.multiple && len(s.meta) > 1 {
		s.meta = s.meta[:1]
	}
}

// SetOrder cycles field through ascending, descending and unsorted. In
// single-key mode a field not yet sorted replaces the current key.
func (s *Sorter) SetOrder(field string) {
	i := slices.IndexFunc(s.meta, func(m types.SortMeta) bool { return m.Field == field })
	switch {
	case i < 0 && s.multiple:
		s.meta = append(s.meta, types.SortMeta{Field: field, Order: types.SortAsc})
	case i < 0:
		s.meta = []types.SortMeta{{Field: field, Order: types.SortAsc}}
	case s.meta[i].Order == types.SortAsc:
		s.meta[i].Order = types.SortDesc
	default:
		s.meta = slices.Delete(s.meta, i, i+1)
	}
}

// Order returns the direction field is sorted in, if it is sorted.
func (s *Sorter) Order(field string) (types.SortOrder, bool) {
	for _, m := range s.meta {
		if m.Field == field {
			return m.Order, true
		}
	}
	return 0, false
}

// Clear drops every key.
func (s *Sorter) Clear() {
	s.meta = nil
}

// Keys returns the effective key list: the group-by fields ascending, then
// the user keys that do not repeat a group-by field. Leading with the
// group-by fields makes every group a contiguous run.
func (s *Sorter) Keys(groupBy []string) []types.SortMeta {
	keys := make([]types.SortMeta, 0, len(groupBy)+len(s.meta))
	for _, field := range groupBy {
		keys = append(keys, types.SortMeta{Field: field, Order: types.SortAsc})
	}
	for _, m := range s.meta {
		if !slices.Contains(groupBy, m.Field) {
			keys = append(keys, m)
		}
	}
	return keys
}

// Apply returns rows ordered by Keys(groupBy). The input slice is not
// modified.
func (s *Sorter) Apply(rows []*types.Row, groupBy []string) []*types.Row {
	keys := s.Keys(groupBy)
	if len(keys) == 0 {
		return rows
	}
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b *types.Row) int {
		return Compare(a, b, keys)
	})
	return out
}

// Compare orders two rows by keys; ties fall through to the next key.
func Compare(a, b *types.Row, keys []types.SortMeta) int {
	for _, k := range keys {
		c := values.Compare(a.Value(k.Field), b.Value(k.Field))
		if c != 0 {
			if k.Order == types.SortDesc {
				return -c
			}
			return c
		}
	}
	return 0
}
