package edits

import (
	"github.com/iotaledger/hive.go/stringify"
)

// ChangeSet is the result of applying Operations to a keyed list.
type ChangeSet[T any] struct {
	// Adds contains the items that were inserted.
	Adds []T

	// Updates contains the merged items that replaced existing ones.
	Updates []T

	// Deletes contains the items that were removed.
	Deletes []T
}

// HasChanges returns true if the ChangeSet contains at least one added, updated or deleted item.
func (c *ChangeSet[T]) HasChanges() bool {
	return c != nil && (len(c.Adds) != 0 || len(c.Updates) != 0 || len(c.Deletes) != 0)
}

// String returns a human-readable version of the ChangeSet.
func (c *ChangeSet[T]) String() string {
	return stringify.Struct("ChangeSet",
		stringify.NewStructField("Adds", len(c.Adds)),
		stringify.NewStructField("Updates", len(c.Updates)),
		stringify.NewStructField("Deletes", len(c.Deletes)),
	)
}
