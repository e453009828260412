package sqlsource

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iotaledger/hive.go/datasource/collection"
	"github.com/iotaledger/hive.go/datasource/future"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"
)

var (
	// ErrUnknownColumn is returned if a sort criterion refers to a column that may not be sorted by.
	ErrUnknownColumn = ierrors.New("unknown column")

	// ErrQueryFailed is returned if the database query of a page failed.
	ErrQueryFailed = ierrors.New("query failed")
)

// Loader serves the pages of a collection from a database table. Paging, sorting and searching are translated into
// the corresponding SQL clauses, so only the requested page is read from the database.
type Loader[T any] struct {
	database      *gorm.DB
	table         string
	searchColumns []string
	sortColumns   map[string]string
	logger        log.Logger
}

// New creates a new Loader that reads the rows of the model T from the given database.
func New[T any](database *gorm.DB, opts ...options.Option[Loader[T]]) *Loader[T] {
	return options.Apply(&Loader[T]{
		database: database,
		logger:   log.EmptyLogger,
	}, opts)
}

// WithTable sets the table that is read (the table of the model is used by default).
func WithTable[T any](table string) options.Option[Loader[T]] {
	return func(l *Loader[T]) {
		l.table = table
	}
}

// WithSearchColumns sets the columns that are matched against the search term.
func WithSearchColumns[T any](columns ...string) options.Option[Loader[T]] {
	return func(l *Loader[T]) {
		l.searchColumns = columns
	}
}

// WithSortColumns restricts the sort criteria to the given selectors and maps them to their columns.
func WithSortColumns[T any](columns map[string]string) options.Option[Loader[T]] {
	return func(l *Loader[T]) {
		l.sortColumns = columns
	}
}

// WithLogger sets the logger of the Loader.
func WithLogger[T any](logger log.Logger) options.Option[Loader[T]] {
	return func(l *Loader[T]) {
		l.logger = logger
	}
}

// Loader returns the collection.Loader that queries the pages on their own goroutine.
func (l *Loader[T]) Loader() collection.Loader[T] {
	return l.Load
}

// Load queries the page that is described by the given LoadOptions.
func (l *Loader[T]) Load(ctx context.Context, loadOptions *collection.LoadOptions) *future.Future[*collection.Result[T]] {
	return future.Go(ctx, func(ctx context.Context) (*collection.Result[T], error) {
		return l.Query(ctx, loadOptions)
	})
}

// Query runs the queries of the page that is described by the given LoadOptions and blocks until they finished.
func (l *Loader[T]) Query(ctx context.Context, loadOptions *collection.LoadOptions) (*collection.Result[T], error) {
	orderBy, err := l.orderBy(loadOptions.Sort)
	if err != nil {
		return nil, err
	}

	query := l.database.WithContext(ctx).Model(new(T))
	if l.table != "" {
		query = query.Table(l.table)
	}
	if searchCondition := l.searchCondition(loadOptions.SearchText); searchCondition != nil {
		query = query.Where(searchCondition)
	}
	query = query.Session(&gorm.Session{})

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, ierrors.Wrap(ierrors.Join(ErrQueryFailed, err), "unable to count rows")
	}

	if len(orderBy.Columns) != 0 {
		query = query.Clauses(orderBy)
	}
	if loadOptions.Skip > 0 {
		query = query.Offset(loadOptions.Skip)
	}
	if loadOptions.Take > 0 {
		query = query.Limit(loadOptions.Take)
	}

	items := make([]T, 0)
	if err := query.Find(&items).Error; err != nil {
		return nil, ierrors.Wrap(ierrors.Join(ErrQueryFailed, err), "unable to read rows")
	}

	l.logger.LogTrace("queried page", "options", loadOptions, "rows", len(items), "totalCount", totalCount)

	return collection.Page(items, int(totalCount)), nil
}

// searchCondition returns the condition that matches the search term against the search columns (case-insensitive).
func (l *Loader[T]) searchCondition(searchText string) *gorm.DB {
	if searchText == "" || len(l.searchColumns) == 0 {
		return nil
	}

	pattern := "%" + strings.ToUpper(searchText) + "%"

	condition := l.database.Session(&gorm.Session{NewDB: true})
	for i, column := range l.searchColumns {
		expression := clause.Expr{SQL: "UPPER(?) LIKE ?", Vars: []any{clause.Column{Name: column}, pattern}}

		if i == 0 {
			condition = condition.Where(expression)
		} else {
			condition = condition.Or(expression)
		}
	}

	return condition
}

// orderBy translates the sort criteria into an ORDER BY clause.
func (l *Loader[T]) orderBy(sortCriteria []collection.Sort) (clause.OrderBy, error) {
	orderBy := clause.OrderBy{}
	for _, criterion := range sortCriteria {
		column, err := l.sortColumn(criterion.Selector)
		if err != nil {
			return orderBy, err
		}

		orderBy.Columns = append(orderBy.Columns, clause.OrderByColumn{
			Column: clause.Column{Name: column},
			Desc:   criterion.Direction == collection.SortDescending,
		})
	}

	return orderBy, nil
}

// sortColumn returns the column of the given selector.
func (l *Loader[T]) sortColumn(selector string) (string, error) {
	if l.sortColumns == nil {
		return l.database.NamingStrategy.ColumnName("", selector), nil
	}

	column, exists := l.sortColumns[selector]
	if !exists {
		return "", ierrors.Wrapf(ErrUnknownColumn, "unable to sort by %q", selector)
	}

	return column, nil
}
