package future_test

import (
	"context"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/datasource/future"
	"github.com/iotaledger/hive.go/ierrors"
)

func TestFuture_SettlesOnce(t *testing.T) {
	f := future.New[int]()

	var calls atomic.Int32
	f.OnComplete(func(value int, err error) {
		calls.Add(1)

		require.Equal(t, 1, value)
		require.NoError(t, err)
	})

	require.False(t, f.IsDone())
	require.True(t, f.Resolve(1))
	require.False(t, f.Resolve(2))
	require.False(t, f.Reject(ierrors.New("too late")))
	require.True(t, f.IsDone())

	value, done, err := f.Peek()
	require.True(t, done)
	require.NoError(t, err)
	require.Equal(t, 1, value)
	require.EqualValues(t, 1, calls.Load())
}

func TestFuture_LateSubscriber(t *testing.T) {
	expectedErr := ierrors.New("failed")
	f := future.Rejected[string](expectedErr)

	var receivedErr error
	f.OnError(func(err error) { receivedErr = err })
	f.OnSuccess(func(string) { require.Fail(t, "must not be called") })

	require.ErrorIs(t, receivedErr, expectedErr)

	_, err := future.Rejected[int](nil).Wait(context.Background())
	require.ErrorIs(t, err, future.ErrRejected)
}

func TestGo(t *testing.T) {
	f := future.Go(context.Background(), func(context.Context) (int, error) {
		return 42, nil
	})

	value, err := f.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, value)

	panicking := future.Go(context.Background(), func(context.Context) (int, error) {
		panic("boom")
	})

	_, err = panicking.Wait(context.Background())
	require.ErrorIs(t, err, future.ErrPanicked)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = future.Go(ctx, func(context.Context) (int, error) { return 1, nil }).Wait(context.Background())
	require.ErrorIs(t, err, context.Canceled)
}

func TestFromChannel(t *testing.T) {
	ch := make(chan int, 2)
	ch <- 1
	ch <- 2

	value, err := future.FromChannel(context.Background(), ch).Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, value)

	closed := make(chan int)
	close(closed)

	_, err = future.FromChannel(context.Background(), closed).Wait(context.Background())
	require.ErrorIs(t, err, future.ErrStreamClosed)

	ctx, cancel := context.WithCancel(context.Background())
	pending := future.FromChannel(ctx, make(chan int))
	cancel()

	_, err = pending.Wait(context.Background())
	require.ErrorIs(t, err, context.Canceled)
}

func TestWait_ContextDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := future.New[int]().Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestThenAndChain(t *testing.T) {
	source := future.New[int]()

	formatted := future.Then(source, func(value int) (string, error) {
		return strconv.Itoa(value), nil
	})

	chained := future.Chain(formatted, func(value string) *future.Future[string] {
		return future.Go(context.Background(), func(context.Context) (string, error) {
			return value + "!", nil
		})
	})

	source.Resolve(7)

	value, err := chained.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, "7!", value)

	expectedErr := ierrors.New("failed")
	_, err = future.Then(future.Rejected[int](expectedErr), func(int) (int, error) {
		require.Fail(t, "must not be called")

		return 0, nil
	}).Wait(context.Background())
	require.ErrorIs(t, err, expectedErr)
}
