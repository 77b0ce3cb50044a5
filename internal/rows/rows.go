// Package rows implements the row identity model: wrapping caller records
// with engine-assigned identities and a pristine snapshot, and the dirty
// check, revert and merge operations over that snapshot.
package rows

import (
	"maps"

	"github.com/mesh-intelligence/gridline/internal/values"
	"github.com/mesh-intelligence/gridline/pkg/types"
)

// Wrap wraps raw records. Identity is a pure function of position: the
// record at position i gets UID i+1 and Index i, whatever was wrapped before.
func Wrap(raw []map[string]any) []*types.Row {
	out := make([]*types.Row, len(raw))
	for i, rec := range raw {
		out[i] = New(rec, i+1, i)
	}
	return out
}

// New wraps one record with the given identity. Fields and snapshot are
// independent shallow copies of rec.
func New(rec map[string]any, uid, index int) *types.Row {
	fields := maps.Clone(rec)
	if fields == nil {
		fields = make(map[string]any)
	}
	return &types.Row{
		UID:    uid,
		Index:  index,
		Data:   maps.Clone(fields),
		Fields: fields,
	}
}

// Next returns the identity for a row appended to collection: one past the
// highest UID and Index in use.
func Next(collection []*types.Row) (uid, index int) {
	uid, index = 1, 0
	for _, r := range collection {
		if r.UID >= uid {
			uid = r.UID + 1
		}
		if r.Index >= index {
			index = r.Index + 1
		}
	}
	return uid, index
}

// Changed reports whether any live field differs from the snapshot. A field
// present on only one side counts as a difference.
func Changed(r *types.Row) bool {
	if len(r.Fields) != len(r.Data) {
		return true
	}
	for k, v := range r.Fields {
		orig, ok := r.Data[k]
		if !ok || !same(v, orig) {
			return true
		}
	}
	return false
}

// ChangedFields returns the names of the fields that differ from the
// snapshot.
func ChangedFields(r *types.Row) []string {
	var out []string
	for k, v := range r.Fields {
		if orig, ok := r.Data[k]; !ok || !same(v, orig) {
			out = append(out, k)
		}
	}
	for k := range r.Data {
		if _, ok := r.Fields[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// Revert overwrites the live fields with the snapshot. It reports whether
// anything was changed; reverting a clean row is a no-op.
func Revert(r *types.Row) bool {
	if !Changed(r) {
		return false
	}
	r.Fields = maps.Clone(r.Data)
	if r.Fields == nil {
		r.Fields = make(map[string]any)
	}
	return true
}

// Merge overwrites the fields present in patch and accepts the result as
// the new snapshot.
func Merge(r *types.Row, patch map[string]any) {
	if r.Fields == nil {
		r.Fields = make(map[string]any, len(patch))
	}
	maps.Copy(r.Fields, patch)
	r.Data = maps.Clone(r.Fields)
}

// Records returns the live fields of every row.
func Records(collection []*types.Row) []map[string]any {
	out := make([]map[string]any, len(collection))
	for i, r := range collection {
		out[i] = r.Record()
	}
	return out
}

// same compares two field values through the natural ordering, so 1 and
// 1.0 are not a change. Composite values compare by rendered form.
func same(a, b any) bool {
	return values.Compare(a, b) == 0
}
