package collection

import (
	"context"
	"math"

	"github.com/iotaledger/hive.go/datasource/future"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/stringify"
)

// UnboundedPageSize is the page size that makes a single page hold the complete collection.
const UnboundedPageSize = math.MaxInt32

// SortDirection is the direction of a Sort criterion.
type SortDirection string

const (
	// SortAscending sorts the values in ascending order.
	SortAscending SortDirection = "asc"

	// SortDescending sorts the values in descending order.
	SortDescending SortDirection = "desc"

	// SortNone disables the criterion.
	SortNone SortDirection = ""
)

// Sort is a single sort criterion that consists of a selector (a dotted path) and a direction.
type Sort struct {
	Selector  string        `json:"selector"`
	Direction SortDirection `json:"direction"`
}

// effectiveSort returns the criteria that have a selector and a direction.
func effectiveSort(sort []Sort) []Sort {
	effective := lo.Filter(sort, func(criterion Sort) bool {
		return criterion.Selector != "" && criterion.Direction != SortNone
	})

	if len(effective) == 0 {
		return nil
	}

	return effective
}

// LoadOptions are the parameters that are handed to a Loader for a single page.
type LoadOptions struct {
	// Skip is the absolute offset of the first requested item.
	Skip int

	// Take is the number of requested items (0 means unbounded).
	Take int

	// Sort contains the sort criteria (criteria without a direction are dropped).
	Sort []Sort

	// SearchText is the current search term.
	SearchText string
}

// String returns a human-readable version of the LoadOptions.
func (l *LoadOptions) String() string {
	return stringify.Struct("LoadOptions",
		stringify.NewStructField("Skip", l.Skip),
		stringify.NewStructField("Take", l.Take),
		stringify.NewStructField("Sort", l.Sort),
		stringify.NewStructField("SearchText", l.SearchText),
	)
}

// Result is the outcome of a Loader. It either contains a complete list (created with Items) or a single page of a
// larger list (created with Page).
type Result[T any] struct {
	items      []T
	totalCount int
	isPage     bool
}

// Items creates a Result that contains the complete list.
func Items[T any](items []T) *Result[T] {
	return &Result[T]{
		items:      items,
		totalCount: len(items),
	}
}

// Page creates a Result that contains a single page of a list with the given total count. A negative total count
// signals that the total count is unknown and that the previous value should be kept.
func Page[T any](items []T, totalCount int) *Result[T] {
	return &Result[T]{
		items:      items,
		totalCount: totalCount,
		isPage:     true,
	}
}

// Results returns the items of the Result.
func (r *Result[T]) Results() []T {
	if r == nil {
		return nil
	}

	return r.items
}

// TotalCount returns the total count of the Result and a flag that indicates if it is known.
func (r *Result[T]) TotalCount() (totalCount int, known bool) {
	if r == nil {
		return 0, false
	}

	return r.totalCount, r.totalCount >= 0
}

// IsPage returns true if the Result was created with Page.
func (r *Result[T]) IsPage() bool {
	return r != nil && r.isPage
}

// String returns a human-readable version of the Result.
func (r *Result[T]) String() string {
	return stringify.Struct("Result",
		stringify.NewStructField("Items", len(r.Results())),
		stringify.NewStructField("TotalCount", r.totalCount),
		stringify.NewStructField("IsPage", r.IsPage()),
	)
}

// Loader loads the items that are described by the given LoadOptions. The context is canceled when the request is
// canceled and the Loader should stop its work as soon as possible.
type Loader[T any] func(ctx context.Context, options *LoadOptions) *future.Future[*Result[T]]

// SyncLoader turns a synchronous function into a Loader.
func SyncLoader[T any](load func(options *LoadOptions) (*Result[T], error)) Loader[T] {
	return func(_ context.Context, options *LoadOptions) *future.Future[*Result[T]] {
		result, err := load(options)
		if err != nil {
			return future.Rejected[*Result[T]](err)
		}

		return future.Resolved(result)
	}
}

// AsyncLoader turns a blocking function into a Loader that runs it on its own goroutine.
func AsyncLoader[T any](load func(ctx context.Context, options *LoadOptions) (*Result[T], error)) Loader[T] {
	return func(ctx context.Context, options *LoadOptions) *future.Future[*Result[T]] {
		return future.Go(ctx, func(ctx context.Context) (*Result[T], error) {
			return load(ctx, options)
		})
	}
}

// pageToPageIndex returns the absolute offset of the given (1-based) page.
func pageToPageIndex(page, pageSize int) int {
	return max(0, page-1) * pageSize
}

// pageIndexToPage returns the (1-based) page that contains the given absolute offset.
func pageIndexToPage(pageIndex, pageSize int) int {
	return pageIndex/pageSize + 1
}
