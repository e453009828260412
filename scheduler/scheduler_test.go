package scheduler_test

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/hive.go/datasource/scheduler"
)

func TestScheduler_FIFO(t *testing.T) {
	s := scheduler.New(t.Name())
	defer s.Shutdown()

	executed := make([]int, 0)
	for i := 0; i < 100; i++ {
		s.Submit(func() {
			executed = append(executed, i)
		})
	}

	s.WaitIdle()

	require.Len(t, executed, 100)
	for i, value := range executed {
		require.Equal(t, i, value)
	}
}

func TestScheduler_NestedSubmitRunsAfterCurrentTask(t *testing.T) {
	s := scheduler.New(t.Name())
	defer s.Shutdown()

	executed := make([]string, 0)
	s.Submit(func() {
		s.Submit(func() {
			executed = append(executed, "nested")
		})

		executed = append(executed, "outer")
	})

	s.WaitIdle()

	require.Equal(t, []string{"outer", "nested"}, executed)
}

func TestScheduler_SubmitAfterShutdown(t *testing.T) {
	s := scheduler.New(t.Name())
	require.True(t, s.IsRunning())

	s.Shutdown()
	require.False(t, s.IsRunning())

	var executed atomic.Bool
	s.Submit(func() { executed.Store(true) })

	require.False(t, executed.Load())
}

func TestDefault(t *testing.T) {
	require.Same(t, scheduler.Default(), scheduler.Default())
	require.True(t, scheduler.Default().IsRunning())
}
