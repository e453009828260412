package future

import (
	"context"
	"sync"

	"github.com/iotaledger/hive.go/ierrors"
)

var (
	// ErrStreamClosed is returned if a stream is closed before it produced a value.
	ErrStreamClosed = ierrors.New("stream closed without producing a value")

	// ErrPanicked is returned if the function of a deferred computation panicked.
	ErrPanicked = ierrors.New("deferred computation panicked")

	// ErrRejected is used if a Future is rejected without an explicit error.
	ErrRejected = ierrors.New("future rejected")
)

// Future is a value that becomes available at some point in time. It settles exactly once, either with a value or with
// an error. Consumers that register themselves after the Future was settled are called immediately.
type Future[T any] struct {
	// callbacks is a slice of callbacks that will be called when the Future settles.
	callbacks []func(T, error)

	// outcome holds the value and the error after the Future settled.
	outcome *outcome[T]

	// done is closed when the Future settles.
	done chan struct{}

	// mutex is used to synchronize access to the callbacks and the outcome.
	mutex sync.RWMutex
}

// New creates a new pending Future that has to be settled by calling Resolve or Reject.
func New[T any]() *Future[T] {
	return &Future[T]{
		callbacks: make([]func(T, error), 0),
		done:      make(chan struct{}),
	}
}

// Resolved creates a Future that is already settled with the given value.
func Resolved[T any](value T) *Future[T] {
	f := New[T]()
	f.Resolve(value)

	return f
}

// Rejected creates a Future that is already settled with the given error.
func Rejected[T any](err error) *Future[T] {
	f := New[T]()
	f.Reject(err)

	return f
}

// Go runs the given function on its own goroutine and returns a Future that settles with its result.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := New[T]()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.Reject(ierrors.Wrapf(ErrPanicked, "%v", r))
			}
		}()

		if err := ctx.Err(); err != nil {
			f.Reject(err)

			return
		}

		f.Settle(fn(ctx))
	}()

	return f
}

// FromChannel returns a Future that settles with the first value that is received from the given channel. It is
// rejected with ErrStreamClosed if the channel is closed before a value was received and with the context's error if
// the context is done first.
func FromChannel[T any](ctx context.Context, ch <-chan T) *Future[T] {
	f := New[T]()

	go func() {
		select {
		case <-ctx.Done():
			f.Reject(ctx.Err())
		case value, ok := <-ch:
			if !ok {
				f.Reject(ErrStreamClosed)

				return
			}

			f.Resolve(value)
		}
	}()

	return f
}

// Resolve settles the Future with the given value. It returns false if the Future was already settled.
func (f *Future[T]) Resolve(value T) bool {
	return f.Settle(value, nil)
}

// Reject settles the Future with the given error. It returns false if the Future was already settled.
func (f *Future[T]) Reject(err error) bool {
	var zeroValue T
	if err == nil {
		err = ErrRejected
	}

	return f.Settle(zeroValue, err)
}

// Settle settles the Future with the given value or error (a non-nil error rejects the Future). It returns false if
// the Future was already settled.
func (f *Future[T]) Settle(value T, err error) (settled bool) {
	for _, callback := range func() (callbacks []func(T, error)) {
		f.mutex.Lock()
		defer f.mutex.Unlock()

		if callbacks = f.callbacks; callbacks != nil {
			if err != nil {
				var zeroValue T
				value = zeroValue
			}

			f.callbacks = nil
			f.outcome = &outcome[T]{value: value, err: err}
			settled = true

			close(f.done)
		}

		return callbacks
	}() {
		callback(value, err)
	}

	return settled
}

// OnComplete registers a callback that is called with the value or the error when the Future settles. If the Future
// was already settled, the callback is called immediately.
func (f *Future[T]) OnComplete(callback func(value T, err error)) *Future[T] {
	if outcome := func() *outcome[T] {
		f.mutex.Lock()
		defer f.mutex.Unlock()

		if f.callbacks == nil {
			return f.outcome
		}

		f.callbacks = append(f.callbacks, callback)

		return nil
	}(); outcome != nil {
		callback(outcome.value, outcome.err)
	}

	return f
}

// OnSuccess registers a callback that is called with the value if the Future is resolved.
func (f *Future[T]) OnSuccess(callback func(value T)) *Future[T] {
	return f.OnComplete(func(value T, err error) {
		if err == nil {
			callback(value)
		}
	})
}

// OnError registers a callback that is called with the error if the Future is rejected.
func (f *Future[T]) OnError(callback func(err error)) *Future[T] {
	return f.OnComplete(func(_ T, err error) {
		if err != nil {
			callback(err)
		}
	})
}

// Wait blocks until the Future settles or the context is done.
func (f *Future[T]) Wait(ctx context.Context) (value T, err error) {
	select {
	case <-f.done:
		f.mutex.RLock()
		defer f.mutex.RUnlock()

		return f.outcome.value, f.outcome.err
	case <-ctx.Done():
		return value, ctx.Err()
	}
}

// IsDone returns true if the Future was already settled.
func (f *Future[T]) IsDone() bool {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	return f.callbacks == nil
}

// Peek returns the value and the error of a settled Future without blocking (done is false if it is still pending).
func (f *Future[T]) Peek() (value T, done bool, err error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	if f.outcome == nil {
		return value, false, nil
	}

	return f.outcome.value, true, f.outcome.err
}

// Then returns a Future that settles with the result of applying the given function to the value of the Future (errors
// are passed through without calling the function).
func Then[T, R any](f *Future[T], fn func(value T) (R, error)) *Future[R] {
	result := New[R]()

	f.OnComplete(func(value T, err error) {
		if err != nil {
			result.Reject(err)

			return
		}

		result.Settle(fn(value))
	})

	return result
}

// Chain returns a Future that settles with the Future that is returned by the given function when the Future resolves
// (errors are passed through without calling the function).
func Chain[T, R any](f *Future[T], fn func(value T) *Future[R]) *Future[R] {
	result := New[R]()

	f.OnComplete(func(value T, err error) {
		if err != nil {
			result.Reject(err)

			return
		}

		next := fn(value)
		if next == nil {
			var zeroValue R
			result.Resolve(zeroValue)

			return
		}

		next.OnComplete(func(nextValue R, nextErr error) {
			result.Settle(nextValue, nextErr)
		})
	})

	return result
}

// outcome holds the value and the error of a settled Future.
type outcome[T any] struct {
	value T
	err   error
}
