package collection_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/datasource/collection"
	"github.com/iotaledger/hive.go/datasource/edits"
	"github.com/iotaledger/hive.go/datasource/scheduler"
	"github.com/iotaledger/hive.go/runtime/options"
)

type account struct {
	ID      int
	Balance int
}

func newAccounts(t *testing.T, data []account, opts ...options.Option[collection.Array[account, int]]) (*collection.Array[account, int], *scheduler.Scheduler) {
	s := newTestScheduler(t)

	opts = append(opts, collection.WithDerivedOptions[account, int](collection.WithPagedOptions(
		collection.WithScheduler[account](s),
		collection.WithInitialLoad[account](false),
	)))

	a := collection.NewArray[account, int](data, "ID", opts...)
	t.Cleanup(func() {
		a.Dispose()
		s.WaitIdle()
	})

	return a, s
}

func TestArray_Upsert(t *testing.T) {
	a, s := newAccounts(t, nil)

	require.True(t, a.AddOrUpdate(account{ID: 1, Balance: 10}))
	require.True(t, a.AddOrUpdate(account{ID: 1, Balance: 20}))
	require.Equal(t, []account{{ID: 1, Balance: 20}}, a.Data())

	s.WaitIdle()
	require.Equal(t, []account{{ID: 1, Balance: 20}}, a.PageItems())
}

func TestArray_UpsertWithUpdater(t *testing.T) {
	a, _ := newAccounts(t, nil, collection.WithUpdater[account, int](func(newItem, oldItem account) account {
		return account{ID: newItem.ID, Balance: oldItem.Balance + newItem.Balance}
	}))

	require.True(t, a.AddOrUpdate(account{ID: 1, Balance: 10}))
	require.True(t, a.AddOrUpdate(account{ID: 1, Balance: 5}))
	require.Equal(t, []account{{ID: 1, Balance: 15}}, a.Data())
}

func TestArray_Edits(t *testing.T) {
	a, s := newAccounts(t, []account{{ID: 1}, {ID: 2}, {ID: 2, Balance: 99}, {ID: 3}},
		collection.WithCanUpdate[account, int](func(newItem, _ account) bool { return newItem.Balance >= 0 }),
	)

	require.Equal(t, []account{{ID: 1}, {ID: 2}, {ID: 3}}, a.Data())

	var changesMutex sync.Mutex
	changes := make([]*edits.ChangeSet[account], 0)
	a.Changes.Hook(func(changeSet *edits.ChangeSet[account]) {
		changesMutex.Lock()
		defer changesMutex.Unlock()

		changes = append(changes, changeSet)
	})

	deletes := make(chan []account, 1)
	a.Deletes.Hook(func(items []account) { deletes <- items })

	require.False(t, a.Add(account{ID: 1, Balance: 50}))
	require.False(t, a.Update(account{ID: 7, Balance: 50}))
	require.False(t, a.Update(account{ID: 1, Balance: -1}))
	require.False(t, a.Remove(42))

	require.True(t, a.Update(account{ID: 1, Balance: 50}))
	require.True(t, a.AddRange([]account{{ID: 4}, {ID: 5}}))
	require.True(t, a.RemoveItem(account{ID: 2}))
	require.Equal(t, []account{{ID: 2}}, <-deletes)

	require.True(t, a.ApplyEdits(&edits.Operations[account, int]{
		Adds:      []account{{ID: 0}},
		AddsIndex: new(int),
		Deletes:   []int{5},
	}))

	require.Equal(t, []account{{ID: 0}, {ID: 1, Balance: 50}, {ID: 3}, {ID: 4}}, a.Data())

	s.WaitIdle()

	changesMutex.Lock()
	require.Len(t, changes, 4)
	changesMutex.Unlock()

	require.Equal(t, a.Data(), a.PageItems())
	require.Equal(t, 4, a.TotalCount())
}

func TestArray_DisposedEditsAreIgnored(t *testing.T) {
	a, _ := newAccounts(t, []account{{ID: 1}})

	a.Dispose()
	a.Dispose()

	require.False(t, a.Add(account{ID: 2}))
	require.Empty(t, a.Data())

	_, err := a.Subscribe(func([]account) {})
	require.ErrorIs(t, err, collection.ErrDisposed)
}

func TestFromSlice(t *testing.T) {
	s := newTestScheduler(t)

	a := collection.FromSlice([]string{"b", "a", "b"}, collection.WithDerivedOptions[string, string](collection.WithPagedOptions(
		collection.WithScheduler[string](s),
		collection.WithInitialLoad[string](false),
	)))
	defer a.Dispose()

	require.Equal(t, []string{"b", "a"}, a.Data())
	require.True(t, a.Remove("b"))

	s.WaitIdle()
	require.Equal(t, []string{"a"}, a.PageItems())
}

func TestArray_DecodedNumericKeys(t *testing.T) {
	s := newTestScheduler(t)

	a := collection.NewArray[map[string]any, int]([]map[string]any{{"id": 1.0}, {"id": 2.0}}, "id",
		collection.WithDerivedOptions[map[string]any, int](collection.WithPagedOptions(
			collection.WithScheduler[map[string]any](s),
			collection.WithInitialLoad[map[string]any](false),
		)),
	)
	defer a.Dispose()

	require.Len(t, a.Data(), 2)
	require.True(t, a.Remove(2))
	require.Equal(t, []map[string]any{{"id": 1.0}}, a.Data())
}
