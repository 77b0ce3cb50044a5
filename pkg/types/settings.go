package types

import (
	"strings"

	"github.com/spf13/cast"
)

// SelectionType is the row selection policy.
type SelectionType string

// Selection policies.
const (
	SelectionNone     SelectionType = "none"
	SelectionSingle   SelectionType = "single"
	SelectionMultiple SelectionType = "multiple"
	SelectionCheckbox SelectionType = "checkbox"
)

// Multi reports whether the policy allows more than one selected row.
func (s SelectionType) Multi() bool {
	return s == SelectionMultiple || s == SelectionCheckbox
}

// ParseSelectionType returns the policy named by s, ignoring case.
func ParseSelectionType(s string) (SelectionType, bool) {
	switch st := SelectionType(strings.ToLower(strings.TrimSpace(s))); st {
	case SelectionNone, SelectionSingle, SelectionMultiple, SelectionCheckbox:
		return st, true
	}
	return "", false
}

// Default settings values.
const (
	DefaultRowHeight   = 30
	DefaultPageSize    = 10
	DefaultColumnWidth = 150
)

// Settings configures a table. Settings are merged over defaults, never
// replaced wholesale.
type Settings struct {
	ClientSide    bool
	VirtualScroll bool
	MultipleSort  bool
	GroupRowsBy   []string
	SelectionType SelectionType
	Sortable      bool
	Filter        bool
	RowHeightProp string
	RowHeight     int
	PageSize      int
	ColumnWidth   int
	TableWidth    int
	ScrollHeight  int
}

// DefaultSettings returns the settings applied for omitted keys.
func DefaultSettings() Settings {
	return Settings{
		ClientSide:    true,
		SelectionType: SelectionSingle,
		Sortable:      true,
		Filter:        true,
		RowHeight:     DefaultRowHeight,
		PageSize:      DefaultPageSize,
		ColumnWidth:   DefaultColumnWidth,
	}
}

// IsGrouped reports whether any group-by field is configured.
func (s Settings) IsGrouped() bool {
	return len(s.GroupRowsBy) > 0
}

// Clone returns a copy that shares no slices with s.
func (s Settings) Clone() Settings {
	c := s
	c.GroupRowsBy = append([]string(nil), s.GroupRowsBy...)
	return c
}

// Merge applies recognized keys from values over the current settings.
// Keys match case-insensitively and ignore '_' and '-', so "clientSide",
// "client_side" and "clientside" are the same key. Unknown keys and values
// that cannot be coerced to the key's type are ignored.
func (s *Settings) Merge(values map[string]any) {
	for key, value := range values {
		switch normalizeKey(key) {
		case "clientside":
			setBool(&s.ClientSide, value)
		case "virtualscroll":
			setBool(&s.VirtualScroll, value)
		case "multiplesort":
			setBool(&s.MultipleSort, value)
		case "sortable":
			setBool(&s.Sortable, value)
		case "filter":
			setBool(&s.Filter, value)
		case "grouprowsby":
			if fields, ok := toFieldList(value); ok {
				s.GroupRowsBy = fields
			}
		case "selectiontype":
			if st, ok := ParseSelectionType(cast.ToString(value)); ok {
				s.SelectionType = st
			}
		case "rowheightprop":
			if v, err := cast.ToStringE(value); err == nil {
				s.RowHeightProp = v
			}
		case "rowheight":
			setPositive(&s.RowHeight, value)
		case "pagesize", "perpage":
			setPositive(&s.PageSize, value)
		case "columnwidth":
			setPositive(&s.ColumnWidth, value)
		case "tablewidth":
			setPositive(&s.TableWidth, value)
		case "scrollheight":
			setPositive(&s.ScrollHeight, value)
		}
	}
}

func normalizeKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "")
	return strings.ReplaceAll(key, "-", "")
}

func setBool(dst *bool, value any) {
	if v, err := cast.ToBoolE(value); err == nil {
		*dst = v
	}
}

func setPositive(dst *int, value any) {
	if v, err := cast.ToIntE(value); err == nil && v > 0 {
		*dst = v
	}
}

// toFieldList accepts a list of names or a comma separated string.
func toFieldList(value any) ([]string, bool) {
	if s, ok := value.(string); ok {
		var fields []string
		for _, f := range strings.Split(s, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
		return fields, true
	}
	fields, err := cast.ToStringSliceE(value)
	if err != nil {
		return nil, false
	}
	return fields, true
}
