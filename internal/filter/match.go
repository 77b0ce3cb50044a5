package filter

import (
	"strings"

	"github.com/mesh-intelligence/gridline/internal/values"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// Match reports whether v satisfies meta. Matching is type-directed: text
// matches case-insensitively (contains by default), numbers, dates and
// booleans match by equality, or by inclusive range when the predicate has
// bounds. A value that cannot be coerced to the predicate's type does not
// match.
func Match(v any, meta types.FilterMeta) bool {
	switch meta.MatchMode {
	case types.MatchIsEmpty:
		return values.IsEmpty(v)
	case types.MatchIsNotEmpty:
		return !values.IsEmpty(v)
	case types.MatchIn:
		return matchIn(v, meta)
	case types.MatchNotEquals:
		return !matchEquals(v, meta)
	}

	if meta.IsRange() {
		return matchRange(v, meta)
	}

	switch Kind(meta) {
	case types.ColumnTypeText:
		return matchText(v, meta)
	default:
		return matchEquals(v, meta)
	}
}

// Kind decides the comparison kind: the pinned type if any, otherwise
// the dynamic type of the filter value.
func Kind(meta types.FilterMeta) string {
	if meta.Type != "" {
		return meta.Type
	}
	probe := meta.Value
	if probe == nil {
		probe = meta.ValueTo
	}
	switch {
	case values.IsNumber(probe):
		return types.ColumnTypeNumber
	case values.IsTime(probe):
		return types.ColumnTypeDate
	}
	if _, ok := probe.(bool); ok {
		return types.ColumnTypeBool
	}
	return types.ColumnTypeText
}

func matchText(v any, meta types.FilterMeta) bool {
	if v == nil {
		return false
	}
	hay := strings.ToLower(values.String(v))
	needle := strings.ToLower(values.String(meta.Value))
	switch meta.MatchMode {
	case types.MatchStartsWith:
		return strings.HasPrefix(hay, needle)
	case types.MatchEquals:
		return hay == needle
	default:
		return strings.Contains(hay, needle)
	}
}

func matchEquals(v any, meta types.FilterMeta) bool {
	a, b, ok := coerce(v, meta.Value, Kind(meta))
	if !ok {
		return false
	}
	if Kind(meta) == types.ColumnTypeText {
		return strings.EqualFold(a.(string), b.(string))
	}
	return values.Compare(a, b) == 0
}

func matchIn(v any, meta types.FilterMeta) bool {
	var options []any
	switch x := meta.Value.(type) {
	case []any:
		options = x
	case []string:
		for _, s := range x {
			options = append(options, s)
		}
	default:
		options = []any{meta.Value}
	}
	for _, opt := range options {
		if matchEquals(v, types.FilterMeta{Value: opt, Type: meta.Type}) {
			return true
		}
	}
	return false
}

// matchRange checks lower <= v <= upper; a nil bound is open.
func matchRange(v any, meta types.FilterMeta) bool {
	kind := RangeKind(meta)
	if meta.Value != nil {
		val, lower, ok := coerce(v, meta.Value, kind)
		if !ok || values.Compare(val, lower) < 0 {
			return false
		}
	}
	if meta.ValueTo != nil {
		val, upper, ok := coerce(v, meta.ValueTo, kind)
		if !ok || values.Compare(val, upper) > 0 {
			return false
		}
	}
	return meta.Value != nil || meta.ValueTo != nil
}

// coerce converts the row value and the filter value to the same kind.
func coerce(v, want any, kind string) (any, any, bool) {
	switch kind {
	case types.ColumnTypeNumber:
		a, okA := values.Number(v)
		b, okB := values.Number(want)
		return a, b, okA && okB
	case types.ColumnTypeDate:
		a, okA := values.Time(v)
		b, okB := values.Time(want)
		return a, b, okA && okB
	case types.ColumnTypeBool:
		a, okA := values.Bool(v)
		b, okB := values.Bool(want)
		return a, b, okA && okB
	default:
		if v == nil {
			return nil, nil, false
		}
		return values.String(v), values.String(want), true
	}
}

// RangeKind decides the comparison kind of a range predicate. Text never
// ranges, so bounds given as strings compare as numbers when they all parse
// as numbers and as dates otherwise.
func RangeKind(meta types.FilterMeta) string {
	if kind := Kind(meta); kind != types.ColumnTypeText {
		return kind
	}
	for _, bound := range []any{meta.Value, meta.ValueTo} {
		if bound == nil {
			continue
		}
		if _, ok := values.Number(bound); !ok {
			return types.ColumnTypeDate
		}
	}
	return types.ColumnTypeNumber
}
