package collection

import (
	"context"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/spf13/cast"

	"github.com/iotaledger/hive.go/datasource/future"
	"github.com/iotaledger/hive.go/datasource/keyexpr"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/iotaledger/hive.go/runtime/syncutils"
)

// Producer produces the complete (unfiltered, unsorted and unpaginated) raw data of a Derived collection.
type Producer[T any] func(ctx context.Context) *future.Future[[]T]

// Filter is a custom (possibly asynchronous) filter stage of a Derived collection.
type Filter[T any] func(ctx context.Context, items []T) *future.Future[[]T]

// Derived is a Paged collection whose pages are derived from the raw data of a single Producer. The raw data is
// requested once, shared by all page requests and then processed by the filter, search, sort and slice stages.
type Derived[T any] struct {
	*Paged[T]

	producer     Producer[T]
	filter       Filter[T]
	searchExpr   any
	search       keyexpr.Extractor[T, any]
	pagedOptions []options.Option[Paged[T]]

	// handle is the reference that the pipeline stages use to reach the collection.
	handle *ownerHandle[T]

	// memo is the shared in-flight (or completed) request of the raw data.
	memo *rawMemo[T]

	// rawData holds the last produced raw data (nil if it was not produced yet).
	rawData []T

	rawMutex syncutils.Mutex
}

// NewDerived creates a new Derived collection that derives its pages from the given Producer.
func NewDerived[T any](producer Producer[T], opts ...options.Option[Derived[T]]) *Derived[T] {
	return options.Apply(&Derived[T]{
		producer: producer,
		handle:   new(ownerHandle[T]),
	}, opts, func(d *Derived[T]) {
		if d.producer == nil {
			d.producer = func(context.Context) *future.Future[[]T] { return future.Resolved[[]T](nil) }
		}

		if d.searchExpr != nil {
			d.search = keyexpr.Build[T, any](d.searchExpr)
		}

		d.handle.bind(d)
		d.Paged = NewPaged(derivedLoader(d.handle), d.pagedOptions...)
	})
}

// WithFilter sets the custom filter stage that is applied to a copy of the raw data.
func WithFilter[T any](filter Filter[T]) options.Option[Derived[T]] {
	return func(d *Derived[T]) {
		d.filter = filter
	}
}

// WithSearchExpr sets the key expression (see keyexpr.Build) of the value that is matched against the search term.
func WithSearchExpr[T any](searchExpr any) options.Option[Derived[T]] {
	return func(d *Derived[T]) {
		d.searchExpr = searchExpr
	}
}

// WithPagedOptions sets the options of the underlying Paged collection.
func WithPagedOptions[T any](opts ...options.Option[Paged[T]]) options.Option[Derived[T]] {
	return func(d *Derived[T]) {
		d.pagedOptions = append(d.pagedOptions, opts...)
	}
}

// RawData returns a copy of the last produced raw data (nil if it was not produced yet).
func (d *Derived[T]) RawData() []T {
	d.rawMutex.Lock()
	defer d.rawMutex.Unlock()

	return slices.Clone(d.rawData)
}

// ClearRawData drops the produced raw data and clears the cache, so the next request invokes the Producer again.
func (d *Derived[T]) ClearRawData() {
	d.rawMutex.Lock()
	d.memo = nil
	d.rawData = nil
	d.rawMutex.Unlock()

	d.ClearCache()
}

// Dispose disposes the collection and drops the raw data.
func (d *Derived[T]) Dispose() {
	if d.IsDisposed() {
		return
	}

	d.Paged.Dispose()
	d.handle.release()
	d.ClearRawData()
}

// rawFuture returns a Future that settles with the shared raw data. If all requests of the shared raw data were
// canceled before it was produced, the Producer is canceled as well.
func (d *Derived[T]) rawFuture(ctx context.Context) *future.Future[[]T] {
	memo := d.acquireMemo()

	waiter := future.New[[]T]()
	stopWaiting := context.AfterFunc(ctx, func() {
		if waiter.Reject(ctx.Err()) {
			d.releaseMemo(memo)
		}
	})

	memo.result.OnComplete(func(items []T, err error) {
		stopWaiting()

		if waiter.Settle(items, err) {
			d.releaseMemo(memo)
		}
	})

	return waiter
}

// acquireMemo returns the shared raw data request (it is created on demand) and registers a new waiter.
func (d *Derived[T]) acquireMemo() *rawMemo[T] {
	memo, created := func() (*rawMemo[T], bool) {
		d.rawMutex.Lock()
		defer d.rawMutex.Unlock()

		created := d.memo == nil
		if created {
			ctx, cancel := context.WithCancel(d.Paged.ctx)

			d.memo = &rawMemo[T]{
				ctx:    ctx,
				cancel: cancel,
				result: future.New[[]T](),
			}
		}

		d.memo.waiters++

		return d.memo, created
	}()

	if created {
		d.produce(memo.ctx).OnComplete(func(items []T, err error) {
			items = slices.Clone(items)

			d.storeRawData(memo, items, err)
			memo.result.Settle(items, err)
			memo.cancel()
		})
	}

	return memo
}

// storeRawData keeps the produced raw data (failed requests are dropped so the next request retries).
func (d *Derived[T]) storeRawData(memo *rawMemo[T], items []T, err error) {
	d.rawMutex.Lock()
	defer d.rawMutex.Unlock()

	if d.memo != memo {
		return
	}

	if err != nil {
		d.memo = nil

		return
	}

	d.rawData = items
}

// releaseMemo unregisters a waiter of the given request and cancels it if nobody is waiting for it anymore.
func (d *Derived[T]) releaseMemo(memo *rawMemo[T]) {
	d.rawMutex.Lock()
	defer d.rawMutex.Unlock()

	if memo.waiters--; memo.waiters > 0 || memo.result.IsDone() {
		return
	}

	memo.cancel()

	if d.memo == memo {
		d.memo = nil
	}
}

// produce invokes the Producer and turns panics into rejected futures.
func (d *Derived[T]) produce(ctx context.Context) (result *future.Future[[]T]) {
	defer func() {
		if r := recover(); r != nil {
			result = future.Rejected[[]T](ierrors.Wrapf(ErrProducerFailed, "producer panicked: %v", r))
		}
	}()

	if result = d.producer(ctx); result == nil {
		result = future.Resolved[[]T](nil)
	}

	return result
}

// applyFilter runs the custom filter stage on a copy of the raw data.
func (d *Derived[T]) applyFilter(ctx context.Context, raw []T) *future.Future[[]T] {
	if d.filter == nil {
		return future.Resolved(raw)
	}

	if filtered := d.filter(ctx, slices.Clone(raw)); filtered != nil {
		return filtered
	}

	return future.Resolved[[]T](nil)
}

// applySearch keeps the items whose search value contains the search term (case-insensitive).
func (d *Derived[T]) applySearch(items []T, searchText string) []T {
	if searchText == "" || d.search == nil {
		return items
	}

	searchText = strings.ToUpper(searchText)

	matches := make([]T, 0, len(items))
	for i, item := range items {
		value := d.search(item, i)
		if value == nil {
			continue
		}

		if text, err := cast.ToStringE(value); err == nil && strings.Contains(strings.ToUpper(text), searchText) {
			matches = append(matches, item)
		}
	}

	return matches
}

// derivedLoader creates the Loader that derives the requested pages from the raw data of the collection behind the
// given handle.
func derivedLoader[T any](handle *ownerHandle[T]) Loader[T] {
	return func(ctx context.Context, loadOptions *LoadOptions) *future.Future[*Result[T]] {
		owner, alive := handle.get()
		if !alive {
			return future.Rejected[*Result[T]](ErrDisposed)
		}

		filtered := future.Chain(owner.rawFuture(ctx), func(raw []T) *future.Future[[]T] {
			owner, alive := handle.get()
			if !alive {
				return future.Rejected[[]T](ErrDisposed)
			}

			return owner.applyFilter(ctx, raw)
		})

		return future.Then(filtered, func(items []T) (*Result[T], error) {
			owner, alive := handle.get()
			if !alive {
				return nil, ErrDisposed
			}

			items = owner.applySearch(items, loadOptions.SearchText)
			items = sortItems(items, loadOptions.Sort)

			return slicePage(items, loadOptions.Skip, loadOptions.Take), nil
		})
	}
}

// slicePage returns the requested window of the items (or all items if neither skip nor take is set).
func slicePage[T any](items []T, skip, take int) *Result[T] {
	if skip <= 0 && take <= 0 {
		return Items(items)
	}

	start := min(max(skip, 0), len(items))
	end := len(items)
	if take > 0 {
		end = min(start+take, len(items))
	}

	return Page(slices.Clone(items[start:end]), len(items))
}

// rawMemo is a shared request of the raw data that counts the requests that wait for it.
type rawMemo[T any] struct {
	result  *future.Future[[]T]
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// ownerHandle is a non-owning reference from the pipeline stages to their collection. It reports the collection as
// gone after it was released.
type ownerHandle[T any] struct {
	owner atomic.Pointer[Derived[T]]
}

// bind sets the collection of the handle.
func (o *ownerHandle[T]) bind(owner *Derived[T]) {
	o.owner.Store(owner)
}

// get returns the collection and a flag that indicates if it is still alive.
func (o *ownerHandle[T]) get() (owner *Derived[T], alive bool) {
	if owner = o.owner.Load(); owner == nil || owner.IsDisposed() {
		return nil, false
	}

	return owner, true
}

// release detaches the handle from its collection.
func (o *ownerHandle[T]) release() {
	o.owner.Store(nil)
}
