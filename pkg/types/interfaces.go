// Package types defines core interfaces and types shared by the task pool packages
package types

import "time"

// Task is a deferred unit of work. Any input it needs is captured by the closure.
type Task func()

// Pool defines the lifecycle and submission contract of a worker pool
type Pool interface {
	// Submit queues a task for execution
	Submit(task Task) error

	// Start spawns the workers
	Start() error

	// Pause drains the workers and leaves queued tasks in place
	Pause() error

	// Stop drains the workers after the queue is empty
	Stop() error

	// Resize changes the number of workers
	Resize(size int) error

	// Destroy stops the pool and drops any queued tasks
	Destroy()

	// Status returns the current pool status
	Status() PoolStatus

	// Size returns the configured number of workers
	Size() int

	// Stats returns pool statistics
	Stats() WorkerPoolStats
}

// WorkerPoolStats defines basic statistics for worker pools
type WorkerPoolStats struct {
	// Status is the pool status
	Status PoolStatus

	// PoolSize is the configured number of workers
	PoolSize int

	// ActiveWorkers is the number of workers currently executing a task
	ActiveWorkers int

	// QueueSize is the current number of tasks in the queue
	QueueSize int

	// TotalCompleted is the number of tasks that returned normally
	TotalCompleted int64

	// TotalPanicked is the number of tasks that panicked
	TotalPanicked int64
}

// PanicHandler receives panics recovered from tasks
type PanicHandler func(err *TaskPanicError)

// MetricsRecorder receives pool events for monitoring. Implementations must be
// safe for concurrent use.
type MetricsRecorder interface {
	// TaskSubmitted counts an accepted submission
	TaskSubmitted(pool string)

	// TaskStarted marks a worker busy
	TaskStarted(pool string)

	// TaskFinished marks a worker idle, counts the task and observes its duration
	TaskFinished(pool string, panicked bool, duration time.Duration)

	// SetQueueSize reports the current queue length
	SetQueueSize(pool string, size int)

	// SetWorkerCount reports the configured worker count
	SetWorkerCount(pool string, count int)

	// SetStatus reports the pool status
	SetStatus(pool string, status PoolStatus)
}
