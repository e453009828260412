package collection

import (
	"github.com/iotaledger/hive.go/datasource/loading"
	"github.com/iotaledger/hive.go/datasource/scheduler"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"
)

// WithPageIndex sets the initial (0-based) absolute offset of the current page.
func WithPageIndex[T any](pageIndex int) options.Option[Paged[T]] {
	return func(p *Paged[T]) {
		p.pageIndex = max(pageIndex, 0)
	}
}

// WithPageSize sets the number of items per page (values below 1 make the page size unbounded).
func WithPageSize[T any](pageSize int) options.Option[Paged[T]] {
	return func(p *Paged[T]) {
		p.pageSize = normalizePageSize(pageSize)
	}
}

// WithInfinityMode makes the collection accumulate the loaded pages instead of replacing the visible items.
func WithInfinityMode[T any](infinityMode bool) options.Option[Paged[T]] {
	return func(p *Paged[T]) {
		p.infinityMode = infinityMode
	}
}

// WithInitialLoad controls if the first subscriber triggers a reload (enabled by default).
func WithInitialLoad[T any](initialLoad bool) options.Option[Paged[T]] {
	return func(p *Paged[T]) {
		p.initialLoad = initialLoad
	}
}

// WithOnConnect sets a callback that is executed whenever a subscriber connects.
func WithOnConnect[T any](onConnect func()) options.Option[Paged[T]] {
	return func(p *Paged[T]) {
		p.onConnect = onConnect
	}
}

// WithOnDisconnect sets a callback that is executed whenever a subscriber disconnects.
func WithOnDisconnect[T any](onDisconnect func()) options.Option[Paged[T]] {
	return func(p *Paged[T]) {
		p.onDisconnect = onDisconnect
	}
}

// WithOnDisposed sets a callback that is executed once when the collection is disposed.
func WithOnDisposed[T any](onDisposed func()) options.Option[Paged[T]] {
	return func(p *Paged[T]) {
		p.onDisposed = onDisposed
	}
}

// WithLoadingController sets the loading.Controller that tracks the in-flight requests (it can be shared between
// collections).
func WithLoadingController[T any](loadingController *loading.Controller) options.Option[Paged[T]] {
	return func(p *Paged[T]) {
		p.loadingController = loadingController
	}
}

// WithScheduler sets the Scheduler that executes the loaders and delivers the events.
func WithScheduler[T any](s *scheduler.Scheduler) options.Option[Paged[T]] {
	return func(p *Paged[T]) {
		p.scheduler = s
	}
}

// WithLogger sets the logger of the collection.
func WithLogger[T any](logger log.Logger) options.Option[Paged[T]] {
	return func(p *Paged[T]) {
		p.logger = logger
	}
}

// WithSort sets the initial sort criteria.
func WithSort[T any](sort ...Sort) options.Option[Paged[T]] {
	return func(p *Paged[T]) {
		p.sort = sort
	}
}

// WithSearchText sets the initial search term.
func WithSearchText[T any](searchText string) options.Option[Paged[T]] {
	return func(p *Paged[T]) {
		p.searchText = searchText
	}
}

// normalizePageSize maps invalid page sizes to UnboundedPageSize.
func normalizePageSize(pageSize int) int {
	if pageSize < 1 || pageSize > UnboundedPageSize {
		return UnboundedPageSize
	}

	return pageSize
}
