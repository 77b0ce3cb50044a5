// Package values gives open field values a natural ordering, numeric and
// time coercion, emptiness and a stable string form. Filter, sort and
// aggregation all compare values through this package so they agree.
package values

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// kind ranks value categories so that values of different categories still
// order deterministically.
type kind int

const (
	kindNil kind = iota
	kindBool
	kindNumber
	kindTime
	kindString
	kindOther
)

func kindOf(v any) kind {
	switch v.(type) {
	case nil:
		return kindNil
	case bool:
		return kindBool
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return kindNumber
	case time.Time:
		return kindTime
	case string:
		return kindString
	default:
		return kindOther
	}
}

var kindNames = [...]string{
	kindNil:    "nil",
	kindBool:   "bool",
	kindNumber: "number",
	kindTime:   "time",
	kindString: "string",
	kindOther:  "other",
}

// Kind names the category Compare ranks v under. Values of different kinds
// never compare equal.
func Kind(v any) string {
	return kindNames[kindOf(v)]
}

// IsNumber reports whether v holds a Go numeric type.
func IsNumber(v any) bool {
	return kindOf(v) == kindNumber
}

// IsTime reports whether v holds a time.Time.
func IsTime(v any) bool {
	return kindOf(v) == kindTime
}

// Compare orders a and b: nil first, then booleans, numbers, times, strings
// and everything else by string form. Values of the same category compare
// naturally. Returns -1, 0 or 1.
func Compare(a, b any) int {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return cmp.Compare(ka, kb)
	}
	switch ka {
	case kindNil:
		return 0
	case kindBool:
		return compareBools(a.(bool), b.(bool))
	case kindNumber:
		fa, _ := Number(a)
		fb, _ := Number(b)
		return cmp.Compare(fa, fb)
	case kindTime:
		return a.(time.Time).Compare(b.(time.Time))
	case kindString:
		return strings.Compare(a.(string), b.(string))
	default:
		return strings.Compare(String(a), String(b))
	}
}

func compareBools(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// Equal reports whether a and b are the same value under Compare, so 1 and
// 1.0 are equal.
func Equal(a, b any) bool {
	return Compare(a, b) == 0
}

// Number coerces v to float64. Numeric strings are accepted; booleans,
// empty values and anything unparseable are not.
func Number(v any) (float64, bool) {
	switch kindOf(v) {
	case kindNil, kindBool, kindTime:
		return 0, false
	case kindString:
		if strings.TrimSpace(v.(string)) == "" {
			return 0, false
		}
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Time coerces v to a time.Time. Strings in the common date layouts are
// accepted.
func Time(v any) (time.Time, bool) {
	switch v.(type) {
	case nil, bool:
		return time.Time{}, false
	case string:
		if strings.TrimSpace(v.(string)) == "" {
			return time.Time{}, false
		}
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Bool coerces v to a bool.
func Bool(v any) (bool, bool) {
	if v == nil {
		return false, false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// IsEmpty reports whether v is nil, a blank string or an empty slice or map.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}

// String renders v for display, grouping keys and text matching. Times use
// RFC 3339 and nil renders as the empty string.
func String(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return fmt.Sprint(v)
}
