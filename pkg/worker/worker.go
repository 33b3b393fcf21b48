package worker

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/jzx17/taskpool/pkg/types"
)

// WorkerState defines the state of a Worker
type WorkerState int32

const (
	// WorkerStateIdle represents idle worker state
	WorkerStateIdle WorkerState = iota
	// WorkerStateWorking represents working worker state
	WorkerStateWorking
	// WorkerStateStopped represents stopped worker state
	WorkerStateStopped
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateIdle:
		return "idle"
	case WorkerStateWorking:
		return "working"
	case WorkerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker is the handle of a single worker goroutine. A handle runs its loop
// once; after the loop exits it is only joined, never restarted.
type Worker struct {
	id    int
	state int32 // atomic state
	pool  *Pool

	// statistics
	totalProcessed int64
	totalPanicked  int64
	lastTaskTime   int64 // Unix nanosecond timestamp

	clock  types.Clock
	logger *slog.Logger
}

// newWorker creates a worker bound to pool
func newWorker(id int, pool *Pool) *Worker {
	return &Worker{
		id:     id,
		state:  int32(WorkerStateIdle),
		pool:   pool,
		clock:  pool.clock,
		logger: pool.logger.With("worker", id),
	}
}

// ID returns the Worker ID
func (w *Worker) ID() int {
	return w.id
}

// State returns the current Worker state
func (w *Worker) State() WorkerState {
	return WorkerState(atomic.LoadInt32(&w.state))
}

// run is the worker loop. It returns when the pool signals a pause, or when
// the pool signals a stop and the queue is empty.
func (w *Worker) run() error {
	p := w.pool
	w.logger.Debug("worker started")
	defer func() {
		atomic.StoreInt32(&w.state, int32(WorkerStateStopped))
		w.logger.Debug("worker exited")
	}()

	for {
		if p.currentSignal() == types.StatusPaused {
			return nil
		}

		p.queueMu.Lock()
		task, err := p.queue.Take()
		if err == nil {
			p.recordQueueSize(p.queue.Len())
		}
		p.queueMu.Unlock()

		if err == nil {
			w.processTask(task)
			continue
		}

		p.notifyMu.Lock()
		if p.currentSignal() != types.StatusRunning {
			p.notifyMu.Unlock()
			return nil
		}
		// A submit between the failed take and notifyMu would broadcast
		// before we wait; recheck while holding notifyMu.
		if p.QueueLength() > 0 {
			p.notifyMu.Unlock()
			continue
		}
		w.logger.Debug("worker waiting")
		p.notify.Wait()
		p.notifyMu.Unlock()
		w.logger.Debug("worker woke")
	}
}

// processTask runs a single task and records its outcome
func (w *Worker) processTask(task types.Task) {
	atomic.StoreInt32(&w.state, int32(WorkerStateWorking))
	defer atomic.StoreInt32(&w.state, int32(WorkerStateIdle))

	w.pool.taskStarted()

	startTime := w.clock.Now()
	atomic.StoreInt64(&w.lastTaskTime, startTime.UnixNano())

	panicErr := w.executeTask(task)

	executionTime := w.clock.Since(startTime)
	if panicErr != nil {
		atomic.AddInt64(&w.totalPanicked, 1)
	} else {
		atomic.AddInt64(&w.totalProcessed, 1)
	}

	w.pool.taskFinished(executionTime, panicErr)
}

// executeTask executes a task with panic recovery
func (w *Worker) executeTask(task types.Task) (panicErr *types.TaskPanicError) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			panicErr = &types.TaskPanicError{
				WorkerID: w.id,
				Value:    r,
				Stack:    append([]byte(nil), buf[:n]...),
			}
			w.logger.Error("task panicked",
				"panic", fmt.Sprint(r),
			)
		}
	}()

	task()
	return nil
}

// Stats gets Worker statistics
func (w *Worker) Stats() WorkerStats {
	var last time.Time
	if ns := atomic.LoadInt64(&w.lastTaskTime); ns != 0 {
		last = time.Unix(0, ns)
	}
	return WorkerStats{
		ID:             w.id,
		State:          w.State(),
		TotalProcessed: atomic.LoadInt64(&w.totalProcessed),
		TotalPanicked:  atomic.LoadInt64(&w.totalPanicked),
		LastTaskTime:   last,
	}
}

// WorkerStats defines Worker statistics
type WorkerStats struct {
	ID             int
	State          WorkerState
	TotalProcessed int64
	TotalPanicked  int64
	LastTaskTime   time.Time
}

// IsActive checks if Worker is active
func (ws WorkerStats) IsActive() bool {
	return ws.State == WorkerStateWorking
}

// IsIdle checks if Worker is idle
func (ws WorkerStats) IsIdle() bool {
	return ws.State == WorkerStateIdle
}
