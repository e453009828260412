package collection

import (
	"github.com/iotaledger/hive.go/runtime/event"
	"github.com/iotaledger/hive.go/runtime/workerpool"
	"github.com/iotaledger/hive.go/stringify"
)

// Events is a collection of events that are triggered by a Paged collection.
type Events[T any] struct {
	// LoadRequested is triggered when a load of the current page was requested.
	LoadRequested *event.Event

	// LoadCanceled is triggered when the in-flight requests were canceled.
	LoadCanceled *event.Event

	// ReloadRequested is triggered when a reload (with a cleared cache) was requested.
	ReloadRequested *event.Event

	// PageLoaded is triggered when a page was loaded successfully.
	PageLoaded *event.Event1[*PageLoadedEvent[T]]

	// PageLoadFailed is triggered when a page could not be loaded.
	PageLoadFailed *event.Event1[*PageLoadFailedEvent]

	// Disposed is triggered when the collection was disposed.
	Disposed *event.Event
}

// NewEvents creates a new Events instance whose hooks are executed by the given WorkerPool.
func NewEvents[T any](workerPool *workerpool.WorkerPool) *Events[T] {
	return &Events[T]{
		LoadRequested:   event.New(event.WithWorkerPool(workerPool)),
		LoadCanceled:    event.New(event.WithWorkerPool(workerPool)),
		ReloadRequested: event.New(event.WithWorkerPool(workerPool)),
		PageLoaded:      event.New1[*PageLoadedEvent[T]](event.WithWorkerPool(workerPool)),
		PageLoadFailed:  event.New1[*PageLoadFailedEvent](event.WithWorkerPool(workerPool)),
		Disposed:        event.New(event.WithWorkerPool(workerPool), event.WithMaxTriggerCount(1)),
	}
}

// PageLoadedEvent is the payload of the PageLoaded event.
type PageLoadedEvent[T any] struct {
	// Page is the (1-based) number of the loaded page.
	Page int

	// Items contains the visible items after the page was written to the cache.
	Items []T
}

// String returns a human-readable version of the PageLoadedEvent.
func (p *PageLoadedEvent[T]) String() string {
	return stringify.Struct("PageLoadedEvent",
		stringify.NewStructField("Page", p.Page),
		stringify.NewStructField("Items", len(p.Items)),
	)
}

// PageLoadFailedEvent is the payload of the PageLoadFailed event.
type PageLoadFailedEvent struct {
	// Page is the (1-based) number of the page that failed to load.
	Page int

	// Error is the error that was returned by the Loader.
	Error error
}

// String returns a human-readable version of the PageLoadFailedEvent.
func (p *PageLoadFailedEvent) String() string {
	return stringify.Struct("PageLoadFailedEvent",
		stringify.NewStructField("Page", p.Page),
		stringify.NewStructField("Error", p.Error),
	)
}
