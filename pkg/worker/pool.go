package worker

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jzx17/taskpool/pkg/queue"
	"github.com/jzx17/taskpool/pkg/types"
)

// Pool is a fixed-capacity worker pool. The zero value is an uninitialized
// pool whose status is StatusInvalid; call Init or use NewPool.
type Pool struct {
	name string

	// status is what callers observe. signal is what workers act on: it
	// leads status during a transition so workers can exit before the new
	// status is published.
	status atomic.Int32
	signal atomic.Int32
	size   atomic.Int32

	// mu serializes lifecycle transitions
	mu sync.Mutex
	// queueMu guards queue
	queueMu sync.Mutex
	// notifyMu is the lock behind notify
	notifyMu sync.Mutex
	notify   *sync.Cond

	queue *queue.TaskQueue

	// workers is non-empty only while running
	workers      []*Worker
	group        *errgroup.Group
	nextWorkerID int
	workersMu    sync.RWMutex

	active    atomic.Int32
	completed atomic.Int64
	panicked  atomic.Int64

	logger       *slog.Logger
	clock        types.Clock
	metrics      types.MetricsRecorder
	panicHandler types.PanicHandler
}

var _ types.Pool = (*Pool)(nil)

// NewPool creates and initializes a worker pool
func NewPool(config *Config) *Pool {
	p := &Pool{}
	p.InitWithConfig(config)
	return p
}

// Init initializes the pool with size workers and default settings
func (p *Pool) Init(size int) {
	config := DefaultConfig()
	config.PoolSize = size
	p.InitWithConfig(config)
}

// InitWithConfig moves an uninitialized pool to StatusStopped. It is a no-op
// on a pool that is already initialized.
func (p *Pool) InitWithConfig(config *Config) {
	if p == nil {
		return
	}
	if config == nil {
		config = DefaultConfig()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Status() != types.StatusInvalid {
		return
	}

	p.name = config.Name
	p.logger = config.Logger
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.name != "" {
		p.logger = p.logger.With("pool", p.name)
	}
	p.clock = config.Clock
	if p.clock == nil {
		p.clock = types.NewRealClock()
	}
	p.metrics = config.Metrics
	p.panicHandler = config.PanicHandler

	p.notify = sync.NewCond(&p.notifyMu)
	p.queueMu.Lock()
	p.queue = queue.New()
	p.queueMu.Unlock()

	size := clampPoolSize(config.PoolSize)
	p.size.Store(int32(size))
	p.signal.Store(int32(types.StatusStopped))
	p.status.Store(int32(types.StatusStopped))

	p.record(func(m types.MetricsRecorder) {
		m.SetWorkerCount(p.name, size)
		m.SetStatus(p.name, types.StatusStopped)
	})
	p.logger.Debug("worker pool initialized", "workers", size)
}

// Status returns the current pool status. A stored value outside the known
// set is reset to StatusInvalid.
func (p *Pool) Status() types.PoolStatus {
	if p == nil {
		return types.StatusInvalid
	}
	s := types.PoolStatus(p.status.Load())
	if !s.Valid() {
		p.status.CompareAndSwap(int32(s), int32(types.StatusInvalid))
		return types.StatusInvalid
	}
	return s
}

// Size returns the configured number of workers, 0 if the pool is invalid
func (p *Pool) Size() int {
	if p.Status() == types.StatusInvalid {
		return 0
	}
	return int(p.size.Load())
}

// Name returns the pool name
func (p *Pool) Name() string {
	return p.name
}

// Start spawns the workers. Starting a running pool is a no-op.
func (p *Pool) Start() error {
	if p.Status() == types.StatusInvalid {
		return p.fail("start", types.ErrInvalidPool)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.Status() {
	case types.StatusRunning:
		return nil
	case types.StatusInvalid:
		return p.fail("start", types.ErrInvalidPool)
	}

	p.spawn()
	p.logger.Info("worker pool started", "workers", p.size.Load())
	return nil
}

// Stop signals the workers to finish the queued tasks and exit, then waits
// for all of them. Stopping a stopped or paused pool is a no-op.
func (p *Pool) Stop() error {
	switch p.Status() {
	case types.StatusInvalid:
		return p.fail("stop", types.ErrInvalidPool)
	case types.StatusStopped, types.StatusPaused:
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.Status() != types.StatusRunning {
		return nil
	}

	p.halt(types.StatusStopped)
	p.logger.Info("worker pool stopped", "queued", p.QueueLength())
	return nil
}

// Pause signals the workers to exit after their current task and waits for
// all of them. Queued tasks stay queued until the next Start.
func (p *Pool) Pause() error {
	switch p.Status() {
	case types.StatusInvalid:
		return p.fail("pause", types.ErrInvalidPool)
	case types.StatusPaused:
		return nil
	case types.StatusStopped:
		return p.fail("pause", types.ErrNotRunning)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.Status() {
	case types.StatusPaused:
		return nil
	case types.StatusRunning:
	default:
		return p.fail("pause", types.ErrNotRunning)
	}

	p.halt(types.StatusPaused)
	p.logger.Info("worker pool paused", "queued", p.QueueLength())
	return nil
}

// Resize changes the worker count. A running pool is paused and restarted
// with fresh workers; tasks submitted meanwhile wait in the queue.
func (p *Pool) Resize(size int) error {
	if p.Status() == types.StatusInvalid {
		return p.fail("resize", types.ErrInvalidPool)
	}
	size = clampPoolSize(size)

	p.mu.Lock()
	defer p.mu.Unlock()

	old := int(p.size.Load())
	if size == old {
		return nil
	}

	switch p.Status() {
	case types.StatusInvalid:
		return p.fail("resize", types.ErrInvalidPool)
	case types.StatusRunning:
		p.halt(types.StatusPaused)
		p.size.Store(int32(size))
		p.spawn()
	default:
		p.size.Store(int32(size))
	}

	p.record(func(m types.MetricsRecorder) {
		m.SetWorkerCount(p.name, size)
	})
	p.logger.Info("worker pool resized", "from", old, "to", size)
	return nil
}

// Submit queues a task and wakes idle workers. Tasks submitted to a stopped
// or paused pool run after the next Start.
func (p *Pool) Submit(task types.Task) error {
	if p.Status() == types.StatusInvalid {
		return p.fail("submit", types.ErrInvalidPool)
	}
	if task == nil {
		return p.fail("submit", types.ErrNilAction)
	}

	p.queueMu.Lock()
	n, err := p.queue.Put(task)
	if err == nil {
		p.recordQueueSize(n)
	}
	p.queueMu.Unlock()
	if err != nil {
		return p.fail("submit", err)
	}

	p.record(func(m types.MetricsRecorder) {
		m.TaskSubmitted(p.name)
	})

	p.notifyMu.Lock()
	p.notify.Broadcast()
	p.notifyMu.Unlock()
	return nil
}

// SubmitArg queues action to be called with arg
func (p *Pool) SubmitArg(action func(arg any), arg any) error {
	if action == nil {
		if p.Status() == types.StatusInvalid {
			return p.fail("submit", types.ErrInvalidPool)
		}
		return p.fail("submit", types.ErrNilAction)
	}
	return p.Submit(ArgTask(action, arg))
}

// Destroy stops the pool, drops any queued tasks and returns the pool to
// StatusInvalid. It must not be called concurrently with other methods.
func (p *Pool) Destroy() {
	if p.Status() == types.StatusInvalid {
		return
	}

	_ = p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.queueMu.Lock()
	dropped := p.queue.Clear()
	p.queue = nil
	p.queueMu.Unlock()

	p.signal.Store(int32(types.StatusInvalid))
	p.status.Store(int32(types.StatusInvalid))

	p.record(func(m types.MetricsRecorder) {
		m.SetQueueSize(p.name, 0)
		m.SetWorkerCount(p.name, 0)
		m.SetStatus(p.name, types.StatusInvalid)
	})
	if dropped > 0 {
		p.logger.Warn("worker pool destroyed with queued tasks", "dropped", dropped)
	} else {
		p.logger.Info("worker pool destroyed")
	}
}

// QueueLength gets the current queue length
func (p *Pool) QueueLength() int {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()
	return p.queue.Len()
}

// Stats gets basic worker pool statistics
func (p *Pool) Stats() types.WorkerPoolStats {
	return types.WorkerPoolStats{
		Status:         p.Status(),
		PoolSize:       p.Size(),
		ActiveWorkers:  int(p.active.Load()),
		QueueSize:      p.QueueLength(),
		TotalCompleted: p.completed.Load(),
		TotalPanicked:  p.panicked.Load(),
	}
}

// WorkerStats gets statistics of the current workers. It is empty unless the
// pool is running.
func (p *Pool) WorkerStats() []WorkerStats {
	p.workersMu.RLock()
	defer p.workersMu.RUnlock()

	stats := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		stats[i] = w.Stats()
	}
	return stats
}

// spawn publishes StatusRunning and starts size fresh workers. Caller holds mu.
func (p *Pool) spawn() {
	p.signal.Store(int32(types.StatusRunning))
	p.status.Store(int32(types.StatusRunning))

	size := int(p.size.Load())
	workers := make([]*Worker, size)
	group := &errgroup.Group{}
	for i := range workers {
		w := newWorker(p.nextWorkerID, p)
		p.nextWorkerID++
		workers[i] = w
		group.Go(w.run)
	}

	p.workersMu.Lock()
	p.workers = workers
	p.group = group
	p.workersMu.Unlock()

	p.record(func(m types.MetricsRecorder) {
		m.SetStatus(p.name, types.StatusRunning)
	})
}

// halt signals target to the workers, wakes the idle ones, joins all of
// them and only then publishes target. Caller holds mu.
func (p *Pool) halt(target types.PoolStatus) {
	p.signal.Store(int32(target))

	p.notifyMu.Lock()
	p.notify.Broadcast()
	p.notifyMu.Unlock()

	p.workersMu.RLock()
	group := p.group
	p.workersMu.RUnlock()
	if group != nil {
		_ = group.Wait()
	}

	p.workersMu.Lock()
	p.workers = nil
	p.group = nil
	p.workersMu.Unlock()

	p.status.Store(int32(target))
	p.record(func(m types.MetricsRecorder) {
		m.SetStatus(p.name, target)
	})
}

func (p *Pool) currentSignal() types.PoolStatus {
	return types.PoolStatus(p.signal.Load())
}

func (p *Pool) taskStarted() {
	p.active.Add(1)
	p.record(func(m types.MetricsRecorder) {
		m.TaskStarted(p.name)
	})
}

func (p *Pool) taskFinished(d time.Duration, panicErr *types.TaskPanicError) {
	p.active.Add(-1)
	if panicErr != nil {
		p.panicked.Add(1)
		if p.panicHandler != nil {
			p.panicHandler(panicErr)
		}
	} else {
		p.completed.Add(1)
	}

	p.record(func(m types.MetricsRecorder) {
		m.TaskFinished(p.name, panicErr != nil, d)
	})
}

// recordQueueSize reports the queue length. Caller holds queueMu.
func (p *Pool) recordQueueSize(n int) {
	p.record(func(m types.MetricsRecorder) {
		m.SetQueueSize(p.name, n)
	})
}

// record calls fn with the metrics recorder, if one is configured
func (p *Pool) record(fn func(m types.MetricsRecorder)) {
	if p.metrics != nil {
		fn(p.metrics)
	}
}

// fail wraps cause in a PoolError carrying the current status
func (p *Pool) fail(operation string, cause error) error {
	var name string
	if p != nil {
		name = p.name
	}
	return types.NewPoolError(operation, name, p.Status(), cause)
}
