package selection

import (
	"slices"

	"github.com/iotaledger/hive.go/datasource/edits"
	"github.com/iotaledger/hive.go/datasource/keyexpr"
	"github.com/iotaledger/hive.go/ds"
	"github.com/iotaledger/hive.go/runtime/event"
	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/iotaledger/hive.go/runtime/syncutils"
	"github.com/iotaledger/hive.go/stringify"
)

// Set is a keyed selection of items. It keeps the selected items in their selection order together with a mirror of
// their keys and broadcasts every change synchronously to the registered hooks.
type Set[T any, K comparable] struct {
	// Changes is triggered with the ChangeSet of every edit that changed the selection.
	Changes *event.Event1[*edits.ChangeSet[T]]

	// Adds is triggered with the newly selected items of an edit (if there are any).
	Adds *event.Event1[[]T]

	// Updates is triggered with the updated items of an edit (if there are any).
	Updates *event.Event1[[]T]

	// Deletes is triggered with the deselected items of an edit (if there are any).
	Deletes *event.Event1[[]T]

	// ItemsChanged is triggered with the selected items after every edit that changed the selection.
	ItemsChanged *event.Event1[[]T]

	// KeysChanged is triggered with the selected keys after every edit that changed the selection.
	KeysChanged *event.Event1[[]K]

	items       []T
	keys        ds.Set[K]
	keyOf       keyexpr.Extractor[T, K]
	editOptions []options.Option[edits.Settings[T]]

	mutex syncutils.RWMutex
}

// New creates a new Set that initially contains the given items. The key expression (see keyexpr.Build) identifies
// the items, items with duplicate keys are dropped (the first occurrence wins).
func New[T any, K comparable](initialItems []T, keyExpr any, opts ...options.Option[Set[T, K]]) *Set[T, K] {
	return options.Apply(&Set[T, K]{
		Changes:      event.New1[*edits.ChangeSet[T]](),
		Adds:         event.New1[[]T](),
		Updates:      event.New1[[]T](),
		Deletes:      event.New1[[]T](),
		ItemsChanged: event.New1[[]T](),
		KeysChanged:  event.New1[[]K](),
		keys:         ds.NewSet[K](),
		keyOf:        keyexpr.Build[T, K](keyExpr),
	}, opts, func(s *Set[T, K]) {
		s.items = edits.UniqueBy(slices.Clone(initialItems), s.keyOf)
		if s.items == nil {
			s.items = make([]T, 0)
		}

		s.syncKeys()
	})
}

// WithUpdater sets the function that merges an updated item into the selected item it replaces.
func WithUpdater[T any, K comparable](updater func(newItem, oldItem T) T) options.Option[Set[T, K]] {
	return func(s *Set[T, K]) {
		s.editOptions = append(s.editOptions, edits.WithUpdater(updater))
	}
}

// WithCanUpdate sets the function that decides if a selected item may be updated.
func WithCanUpdate[T any, K comparable](canUpdate func(newItem, oldItem T) bool) options.Option[Set[T, K]] {
	return func(s *Set[T, K]) {
		s.editOptions = append(s.editOptions, edits.WithCanUpdate(canUpdate))
	}
}

// IsEmpty returns true if nothing is selected.
func (s *Set[T, K]) IsEmpty() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.keys.IsEmpty()
}

// HasItems returns true if at least one item is selected.
func (s *Set[T, K]) HasItems() bool {
	return !s.IsEmpty()
}

// Size returns the number of selected items.
func (s *Set[T, K]) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.keys.Size()
}

// Items returns a copy of the selected items in their selection order.
func (s *Set[T, K]) Items() []T {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return slices.Clone(s.items)
}

// Keys returns the keys of the selected items in their selection order.
func (s *Set[T, K]) Keys() []K {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return keyexpr.Keys(s.items, s.keyOf)
}

// Contains returns true if an item with the given key is selected.
func (s *Set[T, K]) Contains(key K) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.keys.Has(key)
}

// ContainsItem returns true if an item with the same key as the given item is selected.
func (s *Set[T, K]) ContainsItem(item T) bool {
	return s.Contains(s.keyOf(item, -1))
}

// Toggle deselects the given item if it is selected and selects it otherwise.
func (s *Set[T, K]) Toggle(item T) bool {
	return s.edit(func() *edits.Operations[T, K] {
		if key := s.keyOf(item, -1); s.keys.Has(key) {
			return &edits.Operations[T, K]{Deletes: []K{key}}
		}

		return &edits.Operations[T, K]{Adds: []T{item}}
	})
}

// Add selects the given item (if its key is not selected yet).
func (s *Set[T, K]) Add(item T) bool {
	return s.AddRange([]T{item})
}

// AddRange selects the given items whose keys are not selected yet.
func (s *Set[T, K]) AddRange(items []T) bool {
	return s.ApplyEdits(&edits.Operations[T, K]{Adds: items})
}

// Update replaces the selected item with the same key.
func (s *Set[T, K]) Update(item T) bool {
	return s.UpdateRange([]T{item})
}

// UpdateRange replaces the selected items with the same keys (unknown keys are ignored).
func (s *Set[T, K]) UpdateRange(items []T) bool {
	return s.ApplyEdits(&edits.Operations[T, K]{Updates: items})
}

// Remove deselects the item with the given key.
func (s *Set[T, K]) Remove(key K) bool {
	return s.RemoveRange([]K{key})
}

// RemoveRange deselects the items with the given keys.
func (s *Set[T, K]) RemoveRange(keys []K) bool {
	return s.ApplyEdits(&edits.Operations[T, K]{Deletes: keys})
}

// RemoveItem deselects the item with the same key as the given item.
func (s *Set[T, K]) RemoveItem(item T) bool {
	return s.RemoveItemsRange([]T{item})
}

// RemoveItemsRange deselects the items with the same keys as the given items.
func (s *Set[T, K]) RemoveItemsRange(items []T) bool {
	return s.RemoveRange(keyexpr.Keys(items, s.keyOf))
}

// ApplyEdits applies the given operations to the selection and returns true if the selection was changed.
func (s *Set[T, K]) ApplyEdits(operations *edits.Operations[T, K]) bool {
	return s.edit(func() *edits.Operations[T, K] { return operations })
}

// Set replaces the selection with the given items. Already selected items are updated, new items are added and all
// other items are deselected in a single edit.
func (s *Set[T, K]) Set(items []T) bool {
	return s.edit(func() *edits.Operations[T, K] {
		if len(s.items) == 0 && len(items) == 0 {
			return nil
		}

		retained := ds.NewSet[K]()
		for _, key := range keyexpr.Keys(items, s.keyOf) {
			retained.Add(key)
		}

		deletes := make([]K, 0)
		for i, item := range s.items {
			if key := s.keyOf(item, i); !retained.Has(key) {
				deletes = append(deletes, key)
			}
		}

		return &edits.Operations[T, K]{Adds: items, Updates: items, Deletes: deletes}
	})
}

// Clear deselects all items.
func (s *Set[T, K]) Clear() bool {
	return s.Set(nil)
}

// String returns a human-readable representation of the Set.
func (s *Set[T, K]) String() string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return stringify.Struct("selection.Set",
		stringify.NewStructField("size", s.keys.Size()),
		stringify.NewStructField("keys", keyexpr.Keys(s.items, s.keyOf)),
	)
}

// edit builds the operations (under the lock of the Set), applies them and triggers the events after the lock was
// released.
func (s *Set[T, K]) edit(operations func() *edits.Operations[T, K]) bool {
	changes, items, keys := func() (*edits.ChangeSet[T], []T, []K) {
		s.mutex.Lock()
		defer s.mutex.Unlock()

		ops := operations()
		if ops == nil {
			return nil, nil, nil
		}

		changes := edits.Apply(&s.items, ops, s.keyOf, s.editOptions...)
		if !changes.HasChanges() {
			return nil, nil, nil
		}

		s.syncKeys()

		return changes, slices.Clone(s.items), keyexpr.Keys(s.items, s.keyOf)
	}()

	if changes == nil {
		return false
	}

	s.Changes.Trigger(changes)
	if len(changes.Adds) != 0 {
		s.Adds.Trigger(changes.Adds)
	}
	if len(changes.Updates) != 0 {
		s.Updates.Trigger(changes.Updates)
	}
	if len(changes.Deletes) != 0 {
		s.Deletes.Trigger(changes.Deletes)
	}
	s.ItemsChanged.Trigger(items)
	s.KeysChanged.Trigger(keys)

	return true
}

// syncKeys rebuilds the key mirror from the selected items.
func (s *Set[T, K]) syncKeys() {
	s.keys.Clear()

	for i, item := range s.items {
		s.keys.Add(s.keyOf(item, i))
	}
}
