package collection

import (
	"context"
	"slices"
	"sync"

	"github.com/iotaledger/hive.go/datasource/future"
	"github.com/iotaledger/hive.go/datasource/loading"
	"github.com/iotaledger/hive.go/datasource/scheduler"
	"github.com/iotaledger/hive.go/ds"
	"github.com/iotaledger/hive.go/ds/reactive"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/event"
	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/iotaledger/hive.go/runtime/syncutils"
	"github.com/iotaledger/hive.go/stringify"
)

// Paged is a collection that loads its items page by page with a Loader and caches the loaded pages.
//
// All loader invocations, cache writes and event deliveries are executed by a single Scheduler, so the requests that
// are issued in the same turn are collected into one batch before any of their loaders runs.
type Paged[T any] struct {
	events            *Events[T]
	loader            Loader[T]
	scheduler         *scheduler.Scheduler
	loadingController *loading.Controller
	logger            log.Logger

	pageIndex    int
	pageSize     int
	infinityMode bool
	initialLoad  bool
	sort         []Sort
	searchText   string

	onConnect    func()
	onDisconnect func()
	onDisposed   func()

	// beforeReload is executed by Reload before the cache is cleared.
	beforeReload func()

	// cache holds the loaded items at their absolute positions.
	cache []T

	// filled marks the positions of the cache that were written by a loader.
	filled []bool

	// loadedPages contains the pages that are loaded (or currently loading).
	loadedPages ds.Set[int]

	// loadingPages maps the pages that are currently requested to the batch that requests them.
	loadingPages map[int]*fetchBatch

	// totalCount holds the last known total count (-1 if unknown).
	totalCount int

	// latestItems holds the last emitted visible items (replayed to new subscribers).
	latestItems []T

	itemsUpdated  *event.Event1[[]T]
	subscriptions ds.Set[*event.Hook[func([]T)]]
	connections   int
	batches       ds.Set[*fetchBatch]
	firstLoaded   reactive.Event
	disposed      reactive.Event

	ctx      context.Context
	shutdown context.CancelFunc

	mutex syncutils.RWMutex
}

// NewPaged creates a new Paged collection that uses the given Loader.
func NewPaged[T any](loader Loader[T], opts ...options.Option[Paged[T]]) *Paged[T] {
	return options.Apply(&Paged[T]{
		loader:        loader,
		logger:        log.EmptyLogger,
		pageSize:      UnboundedPageSize,
		initialLoad:   true,
		totalCount:    -1,
		cache:         make([]T, 0),
		filled:        make([]bool, 0),
		latestItems:   make([]T, 0),
		loadedPages:   ds.NewSet[int](),
		loadingPages:  make(map[int]*fetchBatch),
		subscriptions: ds.NewSet[*event.Hook[func([]T)]](),
		batches:       ds.NewSet[*fetchBatch](),
		firstLoaded:   reactive.NewEvent(),
		disposed:      reactive.NewEvent(),
	}, opts, func(p *Paged[T]) {
		if p.scheduler == nil {
			p.scheduler = scheduler.Default()
		}

		if p.loadingController == nil {
			p.loadingController = loading.NewController()
		}

		if p.logger == nil {
			p.logger = log.EmptyLogger
		}

		if p.loader == nil {
			p.loader = SyncLoader(func(*LoadOptions) (*Result[T], error) { return Items[T](nil), nil })
		}

		p.ctx, p.shutdown = context.WithCancel(context.Background())
		p.events = NewEvents[T](p.scheduler.WorkerPool())
		p.itemsUpdated = event.New1[[]T](event.WithWorkerPool(p.scheduler.WorkerPool()))
	})
}

// Subscribe registers a callback that receives the visible items whenever they change. The latest known items are
// replayed to the callback right after the subscription.
//
// The first subscriber triggers a reload (unless the initial load is disabled or a request is already in flight) and
// the last subscriber that unsubscribes cancels the in-flight requests.
func (p *Paged[T]) Subscribe(callback func(items []T)) (unsubscribe func(), err error) {
	if p.IsDisposed() {
		return nil, ErrDisposed
	}

	hook := p.itemsUpdated.Hook(callback)

	firstConnection, err := p.connect(hook)
	if err != nil {
		hook.Unhook()

		return nil, err
	}

	if p.onConnect != nil {
		p.onConnect()
	}

	if firstConnection && p.initialLoad && !p.IsLoading() {
		p.scheduler.Submit(p.Reload)
	}

	p.scheduler.Submit(func() {
		if latestItems, subscribed := p.replayableItems(hook); subscribed {
			callback(latestItems)
		}
	})

	var unsubscribeOnce sync.Once

	return func() {
		unsubscribeOnce.Do(func() {
			hook.Unhook()

			if lastConnection, disconnected := p.disconnect(hook); disconnected {
				if lastConnection {
					p.Cancel()
				}

				if p.onDisconnect != nil {
					p.onDisconnect()
				}
			}
		})
	}, nil
}

// Load cancels the in-flight requests and loads the current page.
func (p *Paged[T]) Load() {
	if p.IsDisposed() {
		return
	}

	p.Cancel()
	p.events.LoadRequested.Trigger()
	p.fetchPages(p.Page())
}

// Reload clears the cache and loads the current page.
func (p *Paged[T]) Reload() {
	if p.IsDisposed() {
		return
	}

	if p.beforeReload != nil {
		p.beforeReload()
	}

	p.ClearCache()
	p.events.ReloadRequested.Trigger()
	p.Load()
}

// LoadPages loads the given pages in a single batch (pages that are already loaded are re-emitted from the cache).
func (p *Paged[T]) LoadPages(pages ...int) {
	if p.IsDisposed() {
		return
	}

	p.fetchPages(pages...)
}

// Cancel cancels the in-flight requests. The pages of the canceled requests are marked as not loaded, so they are
// requested again by the next load.
func (p *Paged[T]) Cancel() {
	if p.IsDisposed() {
		return
	}

	p.settleBatches(p.cancelBatches())
	p.events.LoadCanceled.Trigger()
}

// ClearCache removes all cached items and forgets the loaded pages.
func (p *Paged[T]) ClearCache() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.resize(0)
	p.loadedPages.Clear()
}

// Dispose cancels the in-flight requests, removes all subscribers and clears the cache. It can be called multiple
// times but only the first call has an effect.
func (p *Paged[T]) Dispose() {
	batches, subscriptions, disposed := func() ([]*fetchBatch, []*event.Hook[func([]T)], bool) {
		p.mutex.Lock()
		defer p.mutex.Unlock()

		if !p.disposed.Trigger() {
			return nil, nil, false
		}

		subscriptions := p.subscriptions.ToSlice()
		p.subscriptions.Clear()
		p.connections = 0

		return p.cancelBatchesLocked(), subscriptions, true
	}()
	if !disposed {
		return
	}

	p.settleBatches(batches)
	p.events.LoadCanceled.Trigger()

	for _, subscription := range subscriptions {
		subscription.Unhook()
	}

	p.shutdown()
	p.ClearCache()

	p.mutex.Lock()
	p.latestItems = make([]T, 0)
	p.mutex.Unlock()

	p.logger.LogDebug("collection disposed")

	if p.onDisposed != nil {
		p.onDisposed()
	}

	p.events.Disposed.Trigger()
}

// IsDisposed returns true if the collection was disposed.
func (p *Paged[T]) IsDisposed() bool {
	return p.disposed.WasTriggered()
}

// IsLoading returns true if the loading.Controller of the collection is shown.
func (p *Paged[T]) IsLoading() bool {
	return p.loadingController.IsShown()
}

// LoadingController returns the loading.Controller that tracks the in-flight requests.
func (p *Paged[T]) LoadingController() *loading.Controller {
	return p.loadingController
}

// Events returns the events of the collection.
func (p *Paged[T]) Events() *Events[T] {
	return p.events
}

// FirstLoaded returns the event that is triggered once, when the first page was loaded successfully.
func (p *Paged[T]) FirstLoaded() reactive.Event {
	return p.firstLoaded
}

// Items returns a copy of the complete cache (positions that were not loaded yet hold the zero value).
func (p *Paged[T]) Items() []T {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return slices.Clone(p.cache)
}

// ItemAt returns the cached item at the given absolute position and a flag that indicates if it was loaded.
func (p *Paged[T]) ItemAt(index int) (item T, loaded bool) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if index < 0 || index >= len(p.cache) || !p.filled[index] {
		return item, false
	}

	return p.cache[index], true
}

// PageItems returns the items of the current page (or all cached items in infinity mode).
func (p *Paged[T]) PageItems() []T {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.visibleItems(p.pageIndex, p.pageSize)
}

// TotalCount returns the last known total count (-1 if unknown).
func (p *Paged[T]) TotalCount() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.totalCount
}

// Page returns the (1-based) number of the current page.
func (p *Paged[T]) Page() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return pageIndexToPage(p.pageIndex, p.pageSize)
}

// SetPage moves the cursor to the given (1-based) page.
func (p *Paged[T]) SetPage(page int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.pageIndex = pageToPageIndex(page, p.pageSize)
}

// PageIndex returns the (0-based) absolute offset of the current page.
func (p *Paged[T]) PageIndex() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.pageIndex
}

// SetPageIndex moves the cursor to the given absolute offset.
func (p *Paged[T]) SetPageIndex(pageIndex int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.pageIndex = max(pageIndex, 0)
}

// PageSize returns the number of items per page.
func (p *Paged[T]) PageSize() int {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.pageSize
}

// SetPageSize changes the number of items per page. The loaded pages are forgotten because their numbers refer to the
// previous page size.
func (p *Paged[T]) SetPageSize(pageSize int) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if pageSize = normalizePageSize(pageSize); pageSize != p.pageSize {
		p.pageSize = pageSize
		p.loadedPages.Clear()
		clear(p.loadingPages)
	}
}

// HasPreviousPage returns true if the current page is not the first page.
func (p *Paged[T]) HasPreviousPage() bool {
	return p.Page() > 1
}

// HasNextPage returns true if the known total count exceeds the end of the current page.
func (p *Paged[T]) HasNextPage() bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.totalCount > 0 && pageIndexToPage(p.pageIndex, p.pageSize)*p.pageSize < p.totalCount
}

// Sort returns the sort criteria.
func (p *Paged[T]) Sort() []Sort {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return slices.Clone(p.sort)
}

// SetSort sets the sort criteria that are handed to the Loader by the next load.
func (p *Paged[T]) SetSort(sort ...Sort) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.sort = sort
}

// SearchText returns the search term.
func (p *Paged[T]) SearchText() string {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.searchText
}

// SetSearchText sets the search term that is handed to the Loader by the next load.
func (p *Paged[T]) SetSearchText(searchText string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.searchText = searchText
}

// InfinityMode returns true if the loaded pages are accumulated.
func (p *Paged[T]) InfinityMode() bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.infinityMode
}

// SetInfinityMode controls if the loaded pages are accumulated.
func (p *Paged[T]) SetInfinityMode(infinityMode bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.infinityMode = infinityMode
}

// String returns a human-readable version of the collection.
func (p *Paged[T]) String() string {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return stringify.Struct("Paged",
		stringify.NewStructField("PageIndex", p.pageIndex),
		stringify.NewStructField("PageSize", p.pageSize),
		stringify.NewStructField("TotalCount", p.totalCount),
		stringify.NewStructField("CachedItems", len(p.cache)),
		stringify.NewStructField("LoadedPages", p.loadedPages.Size()),
		stringify.NewStructField("Connections", p.connections),
		stringify.NewStructField("InfinityMode", p.infinityMode),
		stringify.NewStructField("Disposed", p.disposed.WasTriggered()),
	)
}

// connect registers the given subscription and returns true if it is the first one.
func (p *Paged[T]) connect(hook *event.Hook[func([]T)]) (firstConnection bool, err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.disposed.WasTriggered() {
		return false, ErrDisposed
	}

	p.subscriptions.Add(hook)
	p.connections++

	return p.connections == 1, nil
}

// disconnect removes the given subscription and returns true if it was the last one.
func (p *Paged[T]) disconnect(hook *event.Hook[func([]T)]) (lastConnection bool, disconnected bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.subscriptions.Delete(hook) {
		return false, false
	}

	p.connections--

	return p.connections == 0, true
}

// replayableItems returns the latest visible items if the given subscription is still active.
func (p *Paged[T]) replayableItems(hook *event.Hook[func([]T)]) (items []T, subscribed bool) {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if !p.subscriptions.Has(hook) {
		return nil, false
	}

	return slices.Clone(p.latestItems), true
}

// fetchPages creates a batch for the given pages and schedules their requests.
func (p *Paged[T]) fetchPages(pages ...int) {
	batch, requests := p.prepareBatch(lo.Filter(pages, func(page int) bool { return page > 0 }))
	if batch == nil {
		return
	}

	p.logger.LogDebug("fetching pages", "pages", batch.pending.ToSlice())

	p.loadingController.Show()

	for _, request := range requests {
		p.scheduler.Submit(func() {
			p.fetchPage(batch, request)
		})
	}
}

// prepareBatch marks the given pages as loaded and creates the corresponding requests. Pages that are still requested
// by another batch are skipped, their result is emitted by that batch.
func (p *Paged[T]) prepareBatch(pages []int) (batch *fetchBatch, requests []*pageRequest) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.disposed.WasTriggered() || len(pages) == 0 {
		return nil, nil
	}

	batch = newFetchBatch(p.ctx)
	for _, page := range pages {
		if _, loading := p.loadingPages[page]; loading || !batch.pending.Add(page) {
			continue
		}

		request := &pageRequest{
			page:      page,
			pageIndex: pageToPageIndex(page, p.pageSize),
			pageSize:  p.pageSize,
			cached:    !p.loadedPages.Add(page),
		}

		if !request.cached {
			p.loadingPages[page] = batch

			request.options = &LoadOptions{
				Skip:       request.pageIndex,
				Take:       lo.Cond(p.pageSize >= UnboundedPageSize, 0, p.pageSize),
				Sort:       effectiveSort(p.sort),
				SearchText: p.searchText,
			}
		}

		requests = append(requests, request)
	}

	if len(requests) == 0 {
		batch.cancel()

		return nil, nil
	}

	p.batches.Add(batch)

	return batch, requests
}

// fetchPage invokes the Loader for the given request (or re-emits the cached page).
func (p *Paged[T]) fetchPage(batch *fetchBatch, request *pageRequest) {
	if batch.ctx.Err() != nil {
		return
	}

	if request.cached {
		p.completePage(batch, request, nil, nil)

		return
	}

	p.invokeLoader(batch.ctx, request.options).OnComplete(func(result *Result[T], err error) {
		p.scheduler.Submit(func() {
			p.completePage(batch, request, result, err)
		})
	})
}

// invokeLoader calls the Loader and turns panics into rejected futures.
func (p *Paged[T]) invokeLoader(ctx context.Context, loadOptions *LoadOptions) (resultFuture *future.Future[*Result[T]]) {
	defer func() {
		if r := recover(); r != nil {
			resultFuture = future.Rejected[*Result[T]](ierrors.Errorf("loader panicked: %v", r))
		}
	}()

	if resultFuture = p.loader(ctx, loadOptions); resultFuture == nil {
		resultFuture = future.Resolved[*Result[T]](nil)
	}

	return resultFuture
}

// completePage applies the outcome of a request and settles the batch once all of its pages completed.
func (p *Paged[T]) completePage(batch *fetchBatch, request *pageRequest, result *Result[T], err error) {
	visibleItems, settled, applied := func() ([]T, bool, bool) {
		p.mutex.Lock()
		defer p.mutex.Unlock()

		if batch.ctx.Err() != nil || !batch.pending.Delete(request.page) {
			return nil, false, false
		}

		settled := batch.pending.IsEmpty() && p.batches.Delete(batch)
		owned := !request.cached && p.releasePage(batch, request.page)

		if err != nil {
			if owned {
				p.loadedPages.Delete(request.page)
			}

			return nil, settled, true
		}

		if !request.cached {
			p.writePage(request, result)
		}

		p.latestItems = p.visibleItems(request.pageIndex, request.pageSize)

		return slices.Clone(p.latestItems), settled, true
	}()
	if !applied {
		return
	}

	if err != nil {
		p.logger.LogDebug("page load failed", "page", request.page, "err", err)

		p.events.PageLoadFailed.Trigger(&PageLoadFailedEvent{
			Page:  request.page,
			Error: ierrors.Wrapf(ierrors.Join(ErrPageLoadFailed, err), "page %d", request.page),
		})
	} else {
		p.logger.LogTrace("page loaded", "page", request.page, "items", len(visibleItems))

		p.itemsUpdated.Trigger(visibleItems)
		p.events.PageLoaded.Trigger(&PageLoadedEvent[T]{Page: request.page, Items: visibleItems})

		if !request.cached {
			p.firstLoaded.Trigger()
		}
	}

	if settled {
		p.settleBatches([]*fetchBatch{batch})
	}
}

// writePage writes the items of the Result at the absolute offset of the request. A page with a known total count
// resizes the cache to exactly that count and drops the items beyond it.
func (p *Paged[T]) writePage(request *pageRequest, result *Result[T]) {
	items := result.Results()

	size := max(len(p.cache), request.pageIndex+len(items))
	if totalCount, known := result.TotalCount(); known {
		p.totalCount = totalCount

		if size = max(totalCount, request.pageIndex+len(items)); result.IsPage() {
			size = totalCount
			items = items[:max(0, min(len(items), totalCount-request.pageIndex))]
		}
	}

	p.resize(size)

	var zeroValue T
	for i := request.pageIndex; i < min(len(p.cache), request.pageIndex+request.pageSize); i++ {
		p.cache[i] = zeroValue
		p.filled[i] = false
	}

	for i, item := range items {
		p.cache[request.pageIndex+i] = item
		p.filled[request.pageIndex+i] = true
	}
}

// resize grows or shrinks the cache to the given size.
func (p *Paged[T]) resize(size int) {
	if size < len(p.cache) {
		clear(p.cache[size:])
		p.cache = p.cache[:size]
		p.filled = p.filled[:size]

		return
	}

	p.cache = append(p.cache, make([]T, size-len(p.cache))...)
	p.filled = append(p.filled, make([]bool, size-len(p.filled))...)
}

// visibleItems returns a copy of the items that are visible for the page at the given offset.
func (p *Paged[T]) visibleItems(pageIndex, pageSize int) []T {
	if p.infinityMode {
		return slices.Clone(p.cache)
	}

	start := min(pageIndex, len(p.cache))
	end := min(len(p.cache), start+min(pageSize, len(p.cache)-start))

	return append(make([]T, 0, end-start), p.cache[start:end]...)
}

// cancelBatches cancels all in-flight batches and returns them.
func (p *Paged[T]) cancelBatches() []*fetchBatch {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.cancelBatchesLocked()
}

// cancelBatchesLocked cancels all in-flight batches while the mutex is held.
func (p *Paged[T]) cancelBatchesLocked() []*fetchBatch {
	batches := p.batches.ToSlice()
	p.batches.Clear()

	for _, batch := range batches {
		batch.pending.Range(func(page int) {
			if p.releasePage(batch, page) {
				p.loadedPages.Delete(page)
			}
		})

		batch.cancel()
	}

	return batches
}

// releasePage removes the page from the requested pages if it is requested by the given batch.
func (p *Paged[T]) releasePage(batch *fetchBatch, page int) bool {
	if p.loadingPages[page] != batch {
		return false
	}

	delete(p.loadingPages, page)

	return true
}

// settleBatches releases the resources of the given batches and hides their loading indicator.
func (p *Paged[T]) settleBatches(batches []*fetchBatch) {
	for _, batch := range batches {
		if batch.settle() {
			p.loadingController.Hide()
		}
	}
}
