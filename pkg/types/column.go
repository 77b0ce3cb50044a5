package types

// Column value types. The type steers filter matching; an empty type lets the
// filter infer it from the values involved.
const (
	ColumnTypeText   = "text"
	ColumnTypeNumber = "number"
	ColumnTypeDate   = "date"
	ColumnTypeBool   = "bool"
)

// ColumnBase is the caller-supplied column descriptor. Name is the unique
// key; every other field is optional.
type ColumnBase struct {
	Name        string        `json:"name" yaml:"name" mapstructure:"name"`
	Title       string        `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Type        string        `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
	Width       int           `json:"width,omitempty" yaml:"width,omitempty" mapstructure:"width"`
	Frozen      bool          `json:"frozen,omitempty" yaml:"frozen,omitempty" mapstructure:"frozen"`
	Hidden      bool          `json:"hidden,omitempty" yaml:"hidden,omitempty" mapstructure:"hidden"`
	Sortable    *bool         `json:"sortable,omitempty" yaml:"sortable,omitempty" mapstructure:"sortable"`
	Filterable  *bool         `json:"filterable,omitempty" yaml:"filterable,omitempty" mapstructure:"filterable"`
	Aggregation AggregateType `json:"aggregation,omitempty" yaml:"aggregation,omitempty" mapstructure:"aggregation"`
}

// Column is a registered column. Index is the position of the descriptor in
// the registration list and survives frozen-first preparation.
type Column struct {
	Name        string
	Title       string
	Type        string
	Width       int
	Frozen      bool
	Hidden      bool
	Sortable    bool
	Filterable  bool
	Aggregation AggregateType
	Index       int
}

// NewColumn resolves a descriptor into a Column. Missing titles fall back to
// the name and missing widths to defaultWidth.
func NewColumn(base ColumnBase, index, defaultWidth int) *Column {
	c := &Column{
		Name:        base.Name,
		Title:       base.Title,
		Type:        base.Type,
		Width:       base.Width,
		Frozen:      base.Frozen,
		Hidden:      base.Hidden,
		Sortable:    boolOr(base.Sortable, true),
		Filterable:  boolOr(base.Filterable, true),
		Aggregation: base.Aggregation,
		Index:       index,
	}
	if c.Title == "" {
		c.Title = c.Name
	}
	if c.Width <= 0 {
		c.Width = defaultWidth
	}
	return c
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// Bool returns a pointer to v, for optional descriptor flags.
func Bool(v bool) *bool {
	return &v
}
