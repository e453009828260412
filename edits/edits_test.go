package edits_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/datasource/edits"
	"github.com/iotaledger/hive.go/datasource/keyexpr"
	"github.com/iotaledger/hive.go/runtime/debug"
)

type record struct {
	ID    int
	Value string
}

var byID = keyexpr.Build[record, int]("ID")

func TestApply_Upsert(t *testing.T) {
	list := []record{{1, "a"}, {2, "b"}}

	changes := edits.AddOrUpdate(&list, []record{{2, "B"}, {3, "c"}}, byID)

	require.True(t, changes.HasChanges())
	require.Equal(t, []record{{1, "a"}, {2, "B"}, {3, "c"}}, list)
	require.Equal(t, []record{{3, "c"}}, changes.Adds)
	require.Equal(t, []record{{2, "B"}}, changes.Updates)
	require.Empty(t, changes.Deletes)
}

func TestApply_DeleteBeforeUpdate(t *testing.T) {
	list := []record{{1, "a"}, {2, "b"}, {3, "c"}}

	changes := edits.Apply(&list, &edits.Operations[record, int]{
		Updates: []record{{2, "B"}},
		Deletes: []int{2},
	}, byID)

	require.Equal(t, []record{{1, "a"}, {3, "c"}}, list)
	require.Equal(t, []record{{2, "b"}}, changes.Deletes)
	require.Empty(t, changes.Updates)
}

func TestApply_DuplicateKeys(t *testing.T) {
	list := []record{{1, "a"}}

	changes := edits.Apply(&list, &edits.Operations[record, int]{
		Adds:    []record{{2, "first"}, {2, "second"}},
		Updates: []record{{1, "x"}, {1, "y"}},
	}, byID)

	if diff := cmp.Diff([]record{{1, "y"}, {2, "first"}}, list); diff != "" {
		t.Fatalf("unexpected list (-want +got):\n%s", diff)
	}
	require.Equal(t, []record{{1, "y"}}, changes.Updates)
	require.Equal(t, []record{{2, "first"}}, changes.Adds)
}

func TestApply_AddsIndex(t *testing.T) {
	list := []record{{1, "a"}, {2, "b"}}

	edits.Apply(&list, &edits.Operations[record, int]{
		Adds:      []record{{3, "c"}, {4, "d"}},
		AddsIndex: ptr(1),
	}, byID)
	require.Equal(t, []int{1, 3, 4, 2}, keyexpr.Keys(list, byID))

	edits.Apply(&list, &edits.Operations[record, int]{
		Adds:      []record{{0, "z"}},
		AddsIndex: ptr(-5),
	}, byID)
	require.Equal(t, []int{0, 1, 3, 4, 2}, keyexpr.Keys(list, byID))

	edits.Apply(&list, &edits.Operations[record, int]{
		Adds:      []record{{9, "y"}},
		AddsIndex: ptr(100),
	}, byID)
	require.Equal(t, []int{0, 1, 3, 4, 2, 9}, keyexpr.Keys(list, byID))
}

func TestApply_ExistingAddIsIgnored(t *testing.T) {
	list := []record{{1, "a"}}

	changes := edits.Apply(&list, &edits.Operations[record, int]{
		Adds: []record{{1, "other"}},
	}, byID)

	require.False(t, changes.HasChanges())
	require.Equal(t, []record{{1, "a"}}, list)
}

func TestApply_NoOp(t *testing.T) {
	list := []record{{1, "a"}}

	changes := edits.Apply(&list, &edits.Operations[record, int]{}, byID)
	require.False(t, changes.HasChanges())
	require.Equal(t, []record{{1, "a"}}, list)

	require.False(t, edits.Apply[record, int](nil, nil, byID).HasChanges())
}

func TestApply_UpdaterAndCanUpdate(t *testing.T) {
	list := []record{{1, "a"}, {2, "locked"}}

	changes := edits.AddOrUpdate(&list, []record{{1, "b"}, {2, "c"}}, byID,
		edits.WithUpdater(func(newItem, oldItem record) record {
			return record{ID: newItem.ID, Value: oldItem.Value + newItem.Value}
		}),
		edits.WithCanUpdate(func(_, oldItem record) bool {
			return oldItem.Value != "locked"
		}),
	)

	require.Equal(t, []record{{1, "ab"}, {2, "locked"}}, list)
	require.Equal(t, []record{{1, "ab"}}, changes.Updates)
	require.Empty(t, changes.Adds)
}

func TestApply_DuplicateKeyPanicsInDebug(t *testing.T) {
	debug.SetEnabled(true)
	defer debug.SetEnabled(false)

	list := []record{{1, "a"}, {1, "b"}}

	require.Panics(t, func() {
		edits.AddOrUpdate(&list, []record{{2, "c"}}, byID)
	})
}

func TestRemoveByKeys(t *testing.T) {
	list := []record{{1, "a"}, {2, "b"}, {3, "c"}, {4, "d"}}

	removed := edits.RemoveByKeys(&list, []int{1, 3, 7}, byID)

	require.Equal(t, []record{{2, "b"}, {4, "d"}}, list)
	require.Equal(t, []record{{1, "a"}, {3, "c"}}, removed)
}

func TestUniqueBy(t *testing.T) {
	unique := edits.UniqueBy([]record{{1, "a"}, {2, "b"}, {1, "c"}}, byID)

	require.Equal(t, []record{{1, "a"}, {2, "b"}}, unique)
	require.Nil(t, edits.UniqueBy[record, int](nil, byID))
}

func ptr(value int) *int {
	return &value
}
