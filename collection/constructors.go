package collection

import (
	"context"

	"github.com/iotaledger/hive.go/datasource/future"
	"github.com/iotaledger/hive.go/runtime/options"
)

// FromSlice creates an Array collection over the given items that uses the items themselves as their keys.
func FromSlice[T comparable](items []T, opts ...options.Option[Array[T, T]]) *Array[T, T] {
	return NewArray[T, T](items, nil, opts...)
}

// FromFuture creates a Derived collection whose raw data is the value of the given Future.
func FromFuture[T any](items *future.Future[[]T], opts ...options.Option[Derived[T]]) *Derived[T] {
	return NewDerived(func(context.Context) *future.Future[[]T] {
		return items
	}, opts...)
}

// FromChannel creates a Derived collection whose raw data is the first value that is received from the given channel.
func FromChannel[T any](items <-chan []T, opts ...options.Option[Derived[T]]) *Derived[T] {
	return NewDerived(func(ctx context.Context) *future.Future[[]T] {
		return future.FromChannel(ctx, items)
	}, opts...)
}
