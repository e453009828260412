package edits

import (
	"fmt"
	"slices"

	"github.com/iotaledger/hive.go/datasource/keyexpr"
	"github.com/iotaledger/hive.go/ds/shrinkingmap"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/runtime/debug"
	"github.com/iotaledger/hive.go/runtime/options"
)

// Operations describes a batch of edits that is applied to a keyed list.
type Operations[T any, K comparable] struct {
	// Adds contains the items that are supposed to be added (existing keys are ignored).
	Adds []T

	// AddsIndex is the position at which the new items are inserted (nil appends them).
	AddsIndex *int

	// Updates contains the items that are supposed to replace existing items with the same key.
	Updates []T

	// Deletes contains the keys of the items that are supposed to be removed.
	Deletes []K
}

// Settings contains the optional hooks that customize how updates are merged.
type Settings[T any] struct {
	// updater merges a new item into the item it replaces.
	updater func(newItem, oldItem T) T

	// canUpdate decides if an existing item may be replaced.
	canUpdate func(newItem, oldItem T) bool
}

// WithUpdater sets the function that computes the stored item from the new and the old item.
func WithUpdater[T any](updater func(newItem, oldItem T) T) options.Option[Settings[T]] {
	return func(settings *Settings[T]) {
		if updater != nil {
			settings.updater = updater
		}
	}
}

// WithCanUpdate sets the function that decides if an existing item may be updated.
func WithCanUpdate[T any](canUpdate func(newItem, oldItem T) bool) options.Option[Settings[T]] {
	return func(settings *Settings[T]) {
		if canUpdate != nil {
			settings.canUpdate = canUpdate
		}
	}
}

// Apply applies the given operations to the list (in place) and returns the resulting ChangeSet.
//
// Deletes are processed first, then the updates are applied against the remaining items and finally the adds whose
// keys are not present yet get inserted. Duplicate keys within the updates are resolved by the last occurrence while
// duplicate keys within the adds are resolved by the first occurrence.
func Apply[T any, K comparable](list *[]T, ops *Operations[T, K], keyOf keyexpr.Extractor[T, K], opts ...options.Option[Settings[T]]) *ChangeSet[T] {
	changes := new(ChangeSet[T])
	if list == nil || ops == nil {
		return changes
	}

	if keyOf == nil {
		keyOf = keyexpr.Build[T, K](nil)
	}

	settings := options.Apply(&Settings[T]{
		updater:   func(newItem, _ T) T { return newItem },
		canUpdate: func(_, _ T) bool { return true },
	}, opts)

	if len(ops.Deletes) != 0 {
		changes.Deletes = RemoveByKeys(list, ops.Deletes, keyOf)
	}

	if len(ops.Updates) == 0 && len(ops.Adds) == 0 {
		return changes
	}

	index := newIndex(*list, keyOf)

	if len(ops.Updates) != 0 {
		changes.Updates = applyUpdates(*list, index, ops.Updates, keyOf, settings)
	}

	if len(ops.Adds) != 0 {
		changes.Adds = applyAdds(list, index, ops.Adds, ops.AddsIndex, keyOf)
	}

	return changes
}

// AddOrUpdate upserts the given items (existing keys are updated, new keys are appended).
func AddOrUpdate[T any, K comparable](list *[]T, items []T, keyOf keyexpr.Extractor[T, K], opts ...options.Option[Settings[T]]) *ChangeSet[T] {
	return Apply(list, &Operations[T, K]{Adds: items, Updates: items}, keyOf, opts...)
}

// RemoveByKeys removes all items whose key is contained in the given keys (the order of the remaining items is kept)
// and returns the removed items.
func RemoveByKeys[T any, K comparable](list *[]T, keys []K, keyOf keyexpr.Extractor[T, K]) (removed []T) {
	keySet := make(map[K]struct{}, len(keys))
	for _, key := range keys {
		keySet[key] = struct{}{}
	}

	survivors := (*list)[:0]
	for i, item := range *list {
		if _, remove := keySet[keyOf(item, i)]; remove {
			removed = append(removed, item)

			continue
		}

		survivors = append(survivors, item)
	}

	// release references to removed items in the tail of the backing array
	clear((*list)[len(survivors):])
	*list = survivors

	return removed
}

// UniqueBy returns the items with duplicate keys removed (the first occurrence wins).
func UniqueBy[T any, K comparable](items []T, keyOf keyexpr.Extractor[T, K]) []T {
	if items == nil {
		return nil
	}

	seen := make(map[K]struct{}, len(items))
	unique := make([]T, 0, len(items))

	for i, item := range items {
		key := keyOf(item, i)
		if _, exists := seen[key]; exists {
			continue
		}

		seen[key] = struct{}{}
		unique = append(unique, item)
	}

	return unique
}

// indexEntry is the position of an item in the list at the time the index was built.
type indexEntry[T any] struct {
	item     T
	position int
}

// newIndex builds the key index of the given list.
func newIndex[T any, K comparable](list []T, keyOf keyexpr.Extractor[T, K]) *shrinkingmap.ShrinkingMap[K, *indexEntry[T]] {
	index := shrinkingmap.New[K, *indexEntry[T]]()

	for i, item := range list {
		if !index.Set(keyOf(item, i), &indexEntry[T]{item: item, position: i}) && debug.GetEnabled() {
			panic(fmt.Sprintf("duplicate key %v in keyed list", keyOf(item, i)))
		}
	}

	return index
}

// applyUpdates replaces the indexed items with the merged updates and returns the merged items.
func applyUpdates[T any, K comparable](list []T, index *shrinkingmap.ShrinkingMap[K, *indexEntry[T]], updates []T, keyOf keyexpr.Extractor[T, K], settings *Settings[T]) []T {
	mergedKeys := make([]K, 0, len(updates))
	merged := make(map[K]T, len(updates))

	for i, newItem := range updates {
		key := keyOf(newItem, i)

		entry, exists := index.Get(key)
		if !exists || !settings.canUpdate(newItem, entry.item) {
			continue
		}

		mergedItem := settings.updater(newItem, entry.item)
		list[entry.position] = mergedItem
		entry.item = mergedItem

		if _, seen := merged[key]; !seen {
			mergedKeys = append(mergedKeys, key)
		}
		merged[key] = mergedItem
	}

	if len(mergedKeys) == 0 {
		return nil
	}

	return lo.Map(mergedKeys, func(key K) T { return merged[key] })
}

// applyAdds inserts the items with unknown keys at the requested position and returns them.
func applyAdds[T any, K comparable](list *[]T, index *shrinkingmap.ShrinkingMap[K, *indexEntry[T]], adds []T, addsIndex *int, keyOf keyexpr.Extractor[T, K]) []T {
	seen := make(map[K]struct{}, len(adds))
	added := make([]T, 0, len(adds))

	for i, item := range adds {
		key := keyOf(item, i)
		if _, duplicate := seen[key]; duplicate {
			continue
		}
		seen[key] = struct{}{}

		if !index.Has(key) {
			added = append(added, item)
		}
	}

	if len(added) == 0 {
		return nil
	}

	position := len(*list)
	if addsIndex != nil {
		position = min(max(*addsIndex, 0), len(*list))
	}

	*list = slices.Insert(*list, position, added...)

	return added
}
