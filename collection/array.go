package collection

import (
	"context"
	"slices"

	"github.com/iotaledger/hive.go/datasource/edits"
	"github.com/iotaledger/hive.go/datasource/future"
	"github.com/iotaledger/hive.go/datasource/keyexpr"
	"github.com/iotaledger/hive.go/runtime/event"
	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/iotaledger/hive.go/runtime/syncutils"
)

// Array is a Derived collection over an in-memory list of keyed items that can be edited. Every edit that changes the
// list is broadcast and forces a reload, so the pages reflect the current state of the list.
type Array[T any, K comparable] struct {
	*Derived[T]

	// Changes is triggered with the ChangeSet of every edit that changed the list.
	Changes *event.Event1[*edits.ChangeSet[T]]

	// Adds is triggered with the added items of an edit (if there are any).
	Adds *event.Event1[[]T]

	// Updates is triggered with the updated items of an edit (if there are any).
	Updates *event.Event1[[]T]

	// Deletes is triggered with the deleted items of an edit (if there are any).
	Deletes *event.Event1[[]T]

	items          []T
	keyOf          keyexpr.Extractor[T, K]
	editOptions    []options.Option[edits.Settings[T]]
	derivedOptions []options.Option[Derived[T]]

	mutex syncutils.RWMutex
}

// NewArray creates a new Array collection over a copy of the given items. The key expression (see keyexpr.Build)
// identifies the items, items with duplicate keys are dropped (the first occurrence wins).
func NewArray[T any, K comparable](data []T, keyExpr any, opts ...options.Option[Array[T, K]]) *Array[T, K] {
	keyOf := keyexpr.Build[T, K](keyExpr)

	return options.Apply(&Array[T, K]{
		items: edits.UniqueBy(slices.Clone(data), keyOf),
		keyOf: keyOf,
	}, opts, func(a *Array[T, K]) {
		if a.items == nil {
			a.items = make([]T, 0)
		}

		a.Derived = NewDerived(a.produce, a.derivedOptions...)
		a.Paged.beforeReload = a.Derived.ClearRawData

		workerPool := a.scheduler.WorkerPool()
		a.Changes = event.New1[*edits.ChangeSet[T]](event.WithWorkerPool(workerPool))
		a.Adds = event.New1[[]T](event.WithWorkerPool(workerPool))
		a.Updates = event.New1[[]T](event.WithWorkerPool(workerPool))
		a.Deletes = event.New1[[]T](event.WithWorkerPool(workerPool))
	})
}

// WithUpdater sets the function that merges an updated item into the item it replaces.
func WithUpdater[T any, K comparable](updater func(newItem, oldItem T) T) options.Option[Array[T, K]] {
	return func(a *Array[T, K]) {
		a.editOptions = append(a.editOptions, edits.WithUpdater(updater))
	}
}

// WithCanUpdate sets the function that decides if an existing item may be updated.
func WithCanUpdate[T any, K comparable](canUpdate func(newItem, oldItem T) bool) options.Option[Array[T, K]] {
	return func(a *Array[T, K]) {
		a.editOptions = append(a.editOptions, edits.WithCanUpdate(canUpdate))
	}
}

// WithDerivedOptions sets the options of the underlying Derived collection.
func WithDerivedOptions[T any, K comparable](opts ...options.Option[Derived[T]]) options.Option[Array[T, K]] {
	return func(a *Array[T, K]) {
		a.derivedOptions = append(a.derivedOptions, opts...)
	}
}

// Data returns a copy of the current list.
func (a *Array[T, K]) Data() []T {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	return slices.Clone(a.items)
}

// Add adds the given item (if its key is not present yet).
func (a *Array[T, K]) Add(item T) bool {
	return a.AddRange([]T{item})
}

// AddRange adds the given items whose keys are not present yet.
func (a *Array[T, K]) AddRange(items []T) bool {
	return a.ApplyEdits(&edits.Operations[T, K]{Adds: items})
}

// Update replaces the item with the same key.
func (a *Array[T, K]) Update(item T) bool {
	return a.UpdateRange([]T{item})
}

// UpdateRange replaces the items with the same keys (unknown keys are ignored).
func (a *Array[T, K]) UpdateRange(items []T) bool {
	return a.ApplyEdits(&edits.Operations[T, K]{Updates: items})
}

// AddOrUpdate updates the item with the same key or adds it if the key is not present yet.
func (a *Array[T, K]) AddOrUpdate(item T) bool {
	return a.AddOrUpdateRange([]T{item})
}

// AddOrUpdateRange updates the items with known keys and adds the remaining ones.
func (a *Array[T, K]) AddOrUpdateRange(items []T) bool {
	return a.ApplyEdits(&edits.Operations[T, K]{Adds: items, Updates: items})
}

// Remove removes the item with the given key.
func (a *Array[T, K]) Remove(key K) bool {
	return a.RemoveRange([]K{key})
}

// RemoveRange removes the items with the given keys.
func (a *Array[T, K]) RemoveRange(keys []K) bool {
	return a.ApplyEdits(&edits.Operations[T, K]{Deletes: keys})
}

// RemoveItem removes the item with the same key as the given item.
func (a *Array[T, K]) RemoveItem(item T) bool {
	return a.RemoveItemsRange([]T{item})
}

// RemoveItemsRange removes the items with the same keys as the given items.
func (a *Array[T, K]) RemoveItemsRange(items []T) bool {
	return a.RemoveRange(keyexpr.Keys(items, a.keyOf))
}

// ApplyEdits applies the given operations to the list. It returns true if the list was changed, in which case the
// ChangeSet is broadcast and the collection is reloaded.
func (a *Array[T, K]) ApplyEdits(operations *edits.Operations[T, K]) bool {
	if a.IsDisposed() {
		return false
	}

	changes := func() *edits.ChangeSet[T] {
		a.mutex.Lock()
		defer a.mutex.Unlock()

		return edits.Apply(&a.items, operations, a.keyOf, a.editOptions...)
	}()

	if !changes.HasChanges() {
		return false
	}

	a.logger.LogTrace("applied edits", "changes", changes)

	a.Changes.Trigger(changes)
	if len(changes.Adds) != 0 {
		a.Adds.Trigger(changes.Adds)
	}
	if len(changes.Updates) != 0 {
		a.Updates.Trigger(changes.Updates)
	}
	if len(changes.Deletes) != 0 {
		a.Deletes.Trigger(changes.Deletes)
	}

	a.Reload()

	return true
}

// Dispose disposes the collection and drops the list.
func (a *Array[T, K]) Dispose() {
	if a.IsDisposed() {
		return
	}

	a.Derived.Dispose()

	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.items = make([]T, 0)
}

// produce is the Producer of the underlying Derived collection.
func (a *Array[T, K]) produce(context.Context) *future.Future[[]T] {
	return future.Resolved(a.Data())
}
