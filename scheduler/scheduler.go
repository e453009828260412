package scheduler

import (
	"sync"

	"github.com/iotaledger/hive.go/runtime/workerpool"
	"github.com/iotaledger/hive.go/stringify"
)

// Scheduler is a cooperative task loop that executes the submitted tasks one after another (in the order of their
// submission) on a single worker.
type Scheduler struct {
	name       string
	workerPool *workerpool.WorkerPool
}

// New creates and starts a new Scheduler with the given name.
func New(name string) *Scheduler {
	return &Scheduler{
		name:       name,
		workerPool: workerpool.New(name, workerpool.WithWorkerCount(1)).Start(),
	}
}

// Submit enqueues the given task. Tasks submitted after the Scheduler was shut down are dropped.
func (s *Scheduler) Submit(task func()) {
	if !s.workerPool.IsRunning() {
		return
	}

	s.workerPool.Submit(task)
}

// WaitIdle blocks until all tasks (including tasks that were submitted by other tasks) were executed.
func (s *Scheduler) WaitIdle() {
	s.workerPool.PendingTasksCounter.WaitIsZero()
}

// IsRunning returns true if the Scheduler accepts new tasks.
func (s *Scheduler) IsRunning() bool {
	return s.workerPool.IsRunning()
}

// Shutdown stops the Scheduler after the already enqueued tasks were executed.
func (s *Scheduler) Shutdown() {
	s.workerPool.Shutdown()
	s.workerPool.ShutdownComplete.Wait()
}

// WorkerPool returns the underlying WorkerPool (it can be used to deliver events on the Scheduler).
func (s *Scheduler) WorkerPool() *workerpool.WorkerPool {
	return s.workerPool
}

// Name returns the name of the Scheduler.
func (s *Scheduler) Name() string {
	return s.name
}

// String returns a human-readable version of the Scheduler.
func (s *Scheduler) String() string {
	return stringify.Struct("Scheduler",
		stringify.NewStructField("Name", s.name),
		stringify.NewStructField("PendingTasks", s.workerPool.PendingTasksCounter.Get()),
		stringify.NewStructField("Running", s.workerPool.IsRunning()),
	)
}

var (
	defaultScheduler     *Scheduler
	defaultSchedulerOnce sync.Once
)

// Default returns the process wide Scheduler that is used by collections that were not configured with their own.
func Default() *Scheduler {
	defaultSchedulerOnce.Do(func() {
		defaultScheduler = New("datasource.Scheduler")
	})

	return defaultScheduler
}
