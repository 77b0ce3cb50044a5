package rows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/gridline/pkg/types"
)

func sampleRecords() []map[string]any {
	return []map[string]any{
		{"date": time.Date(2017, 9, 5, 0, 0, 0, 0, time.UTC), "gender": "f"},
		{"date": time.Date(2016, 12, 1, 0, 0, 0, 0, time.UTC), "gender": "m"},
		{"date": time.Date(2019, 4, 7, 0, 0, 0, 0, time.UTC), "gender": "f"},
		{"date": time.Date(2018, 5, 3, 0, 0, 0, 0, time.UTC), "gender": "m"},
	}
}

func TestWrapAssignsSequentialIdentity(t *testing.T) {
	wrapped := Wrap(sampleRecords())
	require.Len(t, wrapped, 4)
	for i, r := range wrapped {
		assert.Equal(t, i+1, r.UID)
		assert.Equal(t, i, r.Index)
		assert.Equal(t, r.Fields, r.Data)
	}
}

func TestWrapIsNotIncremental(t *testing.T) {
	first := Wrap(sampleRecords())
	more := append(Records(first), map[string]any{"gender": "f"}, map[string]any{"gender": "m"})

	again := Wrap(more)
	require.Len(t, again, 6)
	for i, r := range again {
		assert.Equal(t, i+1, r.UID, "identity restarts at 1 on every wrap")
	}
}

func TestWrapCopiesRecords(t *testing.T) {
	raw := sampleRecords()
	wrapped := Wrap(raw)
	wrapped[0].Set("gender", "x")

	assert.Equal(t, "f", raw[0]["gender"], "caller record must not be mutated")
	assert.Equal(t, "f", wrapped[0].Data["gender"], "snapshot must not follow live edits")
}

func TestChangedAndRevert(t *testing.T) {
	r := Wrap(sampleRecords())[3]
	assert.False(t, Changed(r))
	assert.False(t, Revert(r), "reverting a clean row is a no-op")

	r.Set("date", time.Date(2022, 5, 3, 0, 0, 0, 0, time.UTC))
	assert.True(t, Changed(r))
	assert.Equal(t, []string{"date"}, ChangedFields(r))

	assert.True(t, Revert(r))
	assert.False(t, Changed(r))
	assert.Equal(t, time.Date(2018, 5, 3, 0, 0, 0, 0, time.UTC), r.Value("date"))
}

func TestChangedDetectsAddedField(t *testing.T) {
	r := Wrap(sampleRecords())[0]
	r.Set("note", "new")
	assert.True(t, Changed(r))

	Revert(r)
	_, ok := r.Get("note")
	assert.False(t, ok)
}

func TestMergeAcceptsNewBaseline(t *testing.T) {
	r := Wrap(sampleRecords())[0]
	Merge(r, map[string]any{"gender": "male"})

	assert.Equal(t, "male", r.Value("gender"))
	assert.False(t, Changed(r), "merge result is the new pristine baseline")
	assert.False(t, Revert(r))
	assert.Equal(t, "male", r.Value("gender"))
}

func TestNext(t *testing.T) {
	uid, index := Next(nil)
	assert.Equal(t, 1, uid)
	assert.Equal(t, 0, index)

	collection := []*types.Row{{UID: 1, Index: 0}, {UID: 4, Index: 3}}
	uid, index = Next(collection)
	assert.Equal(t, 5, uid)
	assert.Equal(t, 4, index)
}
