package collection

import (
	"context"
	"sync/atomic"

	"github.com/iotaledger/hive.go/ds"
)

// fetchBatch groups the page requests that were issued together. The loading indicator is shown once per batch and it
// is hidden when the last request of the batch completed or when the batch was canceled.
type fetchBatch struct {
	ctx     context.Context
	cancel  context.CancelFunc
	pending ds.Set[int]
	settled atomic.Bool
}

// newFetchBatch creates a new fetchBatch whose context is derived from the given parent.
func newFetchBatch(parent context.Context) *fetchBatch {
	ctx, cancel := context.WithCancel(parent)

	return &fetchBatch{
		ctx:     ctx,
		cancel:  cancel,
		pending: ds.NewSet[int](),
	}
}

// settle releases the context of the batch and returns true if it was not settled before.
func (f *fetchBatch) settle() bool {
	if !f.settled.CompareAndSwap(false, true) {
		return false
	}

	f.cancel()

	return true
}

// pageRequest is a request for a single page of a fetchBatch.
type pageRequest struct {
	page      int
	pageIndex int
	pageSize  int

	// cached is true if the page was already loaded and only needs to be re-emitted.
	cached bool

	// options are the LoadOptions that are handed to the Loader (nil for cached pages).
	options *LoadOptions
}
