package types

import "maps"

// Row wraps one caller record. UID and Index are assigned by the engine;
// Data is the pristine snapshot taken at wrap time and is the revert target.
// Fields holds the live values.
type Row struct {
	UID    int
	Index  int
	Data   map[string]any
	Fields map[string]any
}

// Get returns the live value of field and whether the row has it.
func (r *Row) Get(field string) (any, bool) {
	v, ok := r.Fields[field]
	return v, ok
}

// Value returns the live value of field, or nil.
func (r *Row) Value(field string) any {
	return r.Fields[field]
}

// Set overwrites the live value of field. The snapshot is not touched, so
// the row becomes dirty if the value differs.
func (r *Row) Set(field string, value any) {
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	r.Fields[field] = value
}

// Record returns a shallow copy of the live fields without the identity.
func (r *Row) Record() map[string]any {
	return maps.Clone(r.Fields)
}

// Clone returns an unregistered row carrying a copy of the live fields.
// The clone has no identity until it is added to a table.
func (r *Row) Clone() *Row {
	return &Row{
		Fields: r.Record(),
		Data:   r.Record(),
	}
}
