package worker

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jzx17/taskpool/internal/testutils"
	"github.com/jzx17/taskpool/pkg/types"
)

func newTestPool(t *testing.T, size int) *Pool {
	t.Helper()
	logger, _ := testutils.NewBufferLogger()
	pool := NewPool(&Config{
		Name:     t.Name(),
		PoolSize: size,
		Logger:   logger,
	})
	t.Cleanup(pool.Destroy)
	return pool
}

func TestPool_ZeroValueIsInvalid(t *testing.T) {
	var pool Pool

	assert.Equal(t, types.StatusInvalid, pool.Status())
	assert.Equal(t, 0, pool.Size())
	assert.Equal(t, 0, pool.QueueLength())

	assert.ErrorIs(t, pool.Start(), types.ErrInvalidPool)
	assert.ErrorIs(t, pool.Stop(), types.ErrInvalidPool)
	assert.ErrorIs(t, pool.Pause(), types.ErrInvalidPool)
	assert.ErrorIs(t, pool.Resize(4), types.ErrInvalidPool)
	assert.ErrorIs(t, pool.Submit(func() {}), types.ErrInvalidPool)
	assert.ErrorIs(t, pool.SubmitArg(nil, nil), types.ErrInvalidPool)

	// no-op
	pool.Destroy()
	assert.Equal(t, types.StatusInvalid, pool.Status())
}

func TestPool_NilPool(t *testing.T) {
	var pool *Pool

	assert.Equal(t, types.StatusInvalid, pool.Status())
	assert.Equal(t, 0, pool.Size())
	assert.ErrorIs(t, pool.Submit(func() {}), types.ErrInvalidPool)
	assert.ErrorIs(t, pool.Start(), types.ErrInvalidPool)
}

func TestPool_StatusTransitions(t *testing.T) {
	var pool Pool
	assert.Equal(t, types.StatusInvalid, pool.Status())

	pool.Init(4)
	defer pool.Destroy()
	assert.Equal(t, types.StatusStopped, pool.Status())
	assert.Equal(t, 4, pool.Size())

	require.NoError(t, pool.Start())
	assert.Equal(t, types.StatusRunning, pool.Status())

	require.NoError(t, pool.Stop())
	assert.Equal(t, types.StatusStopped, pool.Status())

	require.NoError(t, pool.Start())
	require.NoError(t, pool.Pause())
	assert.Equal(t, types.StatusPaused, pool.Status())

	require.NoError(t, pool.Start())
	assert.Equal(t, types.StatusRunning, pool.Status())
}

func TestPool_InitIsIdempotent(t *testing.T) {
	pool := newTestPool(t, 4)

	pool.Init(8)
	assert.Equal(t, 4, pool.Size())
	assert.Equal(t, types.StatusStopped, pool.Status())

	require.NoError(t, pool.Start())
	pool.Init(2)
	assert.Equal(t, types.StatusRunning, pool.Status())
	assert.Len(t, pool.WorkerStats(), 4)
}

func TestPool_InitClampsPoolSize(t *testing.T) {
	tests := []struct {
		name     string
		size     int
		expected int
	}{
		{"negative", -3, 0},
		{"zero", 0, 0},
		{"regular", 16, 16},
		{"at cap", MaxPoolSize, MaxPoolSize},
		{"above cap", MaxPoolSize + 1, MaxPoolSize},
		{"far above cap", 100000, MaxPoolSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pool Pool
			pool.Init(tt.size)
			defer pool.Destroy()
			assert.Equal(t, tt.expected, pool.Size())
		})
	}
}

func TestPool_NilConfigUsesDefault(t *testing.T) {
	pool := NewPool(nil)
	defer pool.Destroy()

	assert.Equal(t, types.StatusStopped, pool.Status())
	assert.Equal(t, DefaultConfig().PoolSize, pool.Size())
	assert.Equal(t, "default", pool.Name())
}

func TestPool_StartTwiceDoesNotDoubleSpawn(t *testing.T) {
	pool := newTestPool(t, 4)

	require.NoError(t, pool.Start())
	require.NoError(t, pool.Start())

	assert.Equal(t, types.StatusRunning, pool.Status())
	stats := pool.WorkerStats()
	assert.Len(t, stats, 4)

	ids := make(map[int]bool)
	for _, ws := range stats {
		ids[ws.ID] = true
	}
	assert.Len(t, ids, 4)
}

func TestPool_TwentyTasks(t *testing.T) {
	var pool Pool
	pool.Init(4)
	defer pool.Destroy()

	require.NoError(t, pool.Start())
	assert.Equal(t, types.StatusRunning, pool.Status())

	var counter testutils.Counter
	for i := 0; i < 20; i++ {
		require.NoError(t, pool.Submit(counter.Task()))
	}

	require.NoError(t, pool.Stop())
	assert.Equal(t, 20, counter.Value())
	assert.Equal(t, types.StatusStopped, pool.Status())
	assert.Equal(t, int64(20), pool.Stats().TotalCompleted)
}

func TestPool_TasksQueuedBeforeStart(t *testing.T) {
	pool := newTestPool(t, 2)

	var counter testutils.Counter
	for i := 0; i < 3; i++ {
		require.NoError(t, pool.Submit(counter.Task()))
	}
	assert.Equal(t, 3, pool.QueueLength())
	assert.Equal(t, 0, counter.Value())

	require.NoError(t, pool.Start())
	require.NoError(t, pool.Stop())

	assert.Equal(t, 3, counter.Value())
	assert.Equal(t, 0, pool.QueueLength())
}

func TestPool_StopDrainsEveryTaskExactlyOnce(t *testing.T) {
	const workers = 3
	const tasks = 500

	pool := newTestPool(t, workers)
	require.NoError(t, pool.Start())

	var runs [tasks]int32
	for i := 0; i < tasks; i++ {
		i := i
		require.NoError(t, pool.Submit(func() {
			atomic.AddInt32(&runs[i], 1)
		}))
	}

	require.NoError(t, pool.Stop())
	for i := range runs {
		assert.Equal(t, int32(1), atomic.LoadInt32(&runs[i]), "task %d", i)
	}
	assert.Empty(t, pool.WorkerStats())
}

func TestPool_SingleWorkerRunsInSubmissionOrder(t *testing.T) {
	pool := newTestPool(t, 1)

	var recorder testutils.Recorder
	for i := 0; i < 50; i++ {
		require.NoError(t, pool.Submit(recorder.Task(i)))
	}

	require.NoError(t, pool.Start())
	require.NoError(t, pool.Stop())

	order := recorder.Order()
	require.Len(t, order, 50)
	for i, id := range order {
		assert.Equal(t, i, id)
	}
}

func TestPool_SubmitValidation(t *testing.T) {
	pool := newTestPool(t, 1)

	err := pool.Submit(nil)
	assert.ErrorIs(t, err, types.ErrNilAction)

	var poolErr *types.PoolError
	require.True(t, errors.As(err, &poolErr))
	assert.Equal(t, "submit", poolErr.Operation)
	assert.Equal(t, types.StatusStopped, poolErr.Status)

	assert.ErrorIs(t, pool.SubmitArg(nil, 1), types.ErrNilAction)
	assert.Equal(t, 0, pool.QueueLength())
}

func TestPool_SubmitArgPassesArgumentThrough(t *testing.T) {
	pool := newTestPool(t, 2)

	type payload struct{ n int }
	var mu sync.Mutex
	var seen []*payload

	args := []*payload{{1}, {2}, {3}}
	for _, arg := range args {
		require.NoError(t, pool.SubmitArg(func(arg any) {
			mu.Lock()
			seen = append(seen, arg.(*payload))
			mu.Unlock()
		}, arg))
	}

	require.NoError(t, pool.Start())
	require.NoError(t, pool.Stop())

	assert.ElementsMatch(t, args, seen)
}

func TestPool_StopIsNoOpWhenNotRunning(t *testing.T) {
	pool := newTestPool(t, 2)

	assert.NoError(t, pool.Stop())
	assert.Equal(t, types.StatusStopped, pool.Status())

	require.NoError(t, pool.Start())
	require.NoError(t, pool.Pause())

	assert.NoError(t, pool.Stop())
	assert.Equal(t, types.StatusPaused, pool.Status())
}

func TestPool_PauseRequiresRunning(t *testing.T) {
	pool := newTestPool(t, 2)

	err := pool.Pause()
	assert.ErrorIs(t, err, types.ErrNotRunning)
	assert.ErrorIs(t, err, types.ErrInvalidPool)
	assert.Equal(t, types.StatusStopped, pool.Status())

	require.NoError(t, pool.Start())
	require.NoError(t, pool.Pause())
	assert.NoError(t, pool.Pause())
	assert.Equal(t, types.StatusPaused, pool.Status())
}

func TestPool_PauseLeavesQueuedTasks(t *testing.T) {
	pool := newTestPool(t, 1)
	require.NoError(t, pool.Start())

	gate := testutils.NewGate()
	require.NoError(t, pool.Submit(gate.Task()))
	gate.WaitEntered(t, 1, 5*time.Second)

	var counter testutils.Counter
	for i := 0; i < 3; i++ {
		require.NoError(t, pool.Submit(counter.Task()))
	}

	paused := make(chan error, 1)
	go func() {
		paused <- pool.Pause()
	}()

	testutils.AssertEventually(t, func() bool {
		return pool.currentSignal() == types.StatusPaused
	})
	// the worker is still inside the gate task, so the pause is not visible yet
	assert.Equal(t, types.StatusRunning, pool.Status())

	gate.Open()
	require.NoError(t, <-paused)

	assert.Equal(t, types.StatusPaused, pool.Status())
	assert.Equal(t, 3, pool.QueueLength())
	assert.Equal(t, 0, counter.Value())
	assert.Empty(t, pool.WorkerStats())

	require.NoError(t, pool.Start())
	require.NoError(t, pool.Stop())
	assert.Equal(t, 3, counter.Value())
}

func TestPool_StopWaitsForRunningTasks(t *testing.T) {
	pool := newTestPool(t, 2)
	require.NoError(t, pool.Start())

	gate := testutils.NewGate()
	require.NoError(t, pool.Submit(gate.Task()))
	require.NoError(t, pool.Submit(gate.Task()))
	gate.WaitEntered(t, 2, 5*time.Second)

	stopped := make(chan error, 1)
	go func() {
		stopped <- pool.Stop()
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while tasks were still running")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, types.StatusRunning, pool.Status())

	gate.Open()
	require.NoError(t, <-stopped)
	assert.Equal(t, types.StatusStopped, pool.Status())
	assert.Equal(t, int64(2), pool.Stats().TotalCompleted)
}

func TestPool_ResizeRunning(t *testing.T) {
	pool := newTestPool(t, 4)
	require.NoError(t, pool.Start())

	var counter testutils.Counter
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			assert.NoError(t, pool.Submit(counter.Task()))
		}
	}()

	require.NoError(t, pool.Resize(8))
	wg.Wait()

	assert.Equal(t, 8, pool.Size())
	assert.Equal(t, types.StatusRunning, pool.Status())
	assert.Len(t, pool.WorkerStats(), 8)

	require.NoError(t, pool.Stop())
	assert.Equal(t, 50, counter.Value())
}

func TestPool_ResizeShrink(t *testing.T) {
	pool := newTestPool(t, 8)
	require.NoError(t, pool.Start())

	require.NoError(t, pool.Resize(2))
	assert.Equal(t, 2, pool.Size())
	assert.Len(t, pool.WorkerStats(), 2)

	var counter testutils.Counter
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(counter.Task()))
	}
	require.NoError(t, pool.Stop())
	assert.Equal(t, 10, counter.Value())
}

func TestPool_ResizeNotRunning(t *testing.T) {
	pool := newTestPool(t, 4)

	require.NoError(t, pool.Resize(4))
	assert.Equal(t, 4, pool.Size())

	require.NoError(t, pool.Resize(6))
	assert.Equal(t, 6, pool.Size())
	assert.Equal(t, types.StatusStopped, pool.Status())
	assert.Empty(t, pool.WorkerStats())

	require.NoError(t, pool.Resize(MaxPoolSize*2))
	assert.Equal(t, MaxPoolSize, pool.Size())

	require.NoError(t, pool.Resize(3))
	require.NoError(t, pool.Start())
	require.NoError(t, pool.Pause())
	require.NoError(t, pool.Resize(5))
	assert.Equal(t, types.StatusPaused, pool.Status())
	assert.Equal(t, 5, pool.Size())

	require.NoError(t, pool.Start())
	assert.Len(t, pool.WorkerStats(), 5)
}

func TestPool_ZeroWorkersKeepsTasksQueued(t *testing.T) {
	pool := newTestPool(t, 0)
	require.NoError(t, pool.Start())

	var counter testutils.Counter
	require.NoError(t, pool.Submit(counter.Task()))
	require.NoError(t, pool.Stop())
	assert.Equal(t, 0, counter.Value())
	assert.Equal(t, 1, pool.QueueLength())

	require.NoError(t, pool.Resize(1))
	require.NoError(t, pool.Start())
	require.NoError(t, pool.Stop())
	assert.Equal(t, 1, counter.Value())
}

func TestPool_DestroyDropsQueuedTasks(t *testing.T) {
	logger, logs := testutils.NewBufferLogger()
	pool := NewPool(&Config{Name: "jobs", PoolSize: 2, Logger: logger})

	var counter testutils.Counter
	for i := 0; i < 5; i++ {
		require.NoError(t, pool.Submit(counter.Task()))
	}

	pool.Destroy()
	assert.Equal(t, types.StatusInvalid, pool.Status())
	assert.Equal(t, 0, pool.Size())
	assert.Equal(t, 0, pool.QueueLength())
	assert.Equal(t, 0, counter.Value())
	assert.Contains(t, logs.String(), "dropped=5")

	assert.ErrorIs(t, pool.Submit(counter.Task()), types.ErrInvalidPool)
	pool.Destroy()

	pool.Init(3)
	defer pool.Destroy()
	assert.Equal(t, types.StatusStopped, pool.Status())
	assert.Equal(t, 3, pool.Size())
}

func TestPool_DestroyRunningDrainsFirst(t *testing.T) {
	var pool Pool
	pool.Init(2)
	require.NoError(t, pool.Start())

	var counter testutils.Counter
	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(counter.Task()))
	}

	pool.Destroy()
	assert.Equal(t, 10, counter.Value())
	assert.Equal(t, types.StatusInvalid, pool.Status())
}

func TestPool_CorruptedStatusHealsToInvalid(t *testing.T) {
	pool := newTestPool(t, 2)

	pool.status.Store(42)
	assert.Equal(t, types.StatusInvalid, pool.Status())
	assert.Equal(t, int32(types.StatusInvalid), pool.status.Load())
	assert.Equal(t, 0, pool.Size())
	assert.ErrorIs(t, pool.Submit(func() {}), types.ErrInvalidPool)
}

func TestPool_PanicIsRecovered(t *testing.T) {
	errBoom := errors.New("boom")

	var mu sync.Mutex
	var panics []*types.TaskPanicError

	logger, logs := testutils.NewBufferLogger()
	pool := NewPool(&Config{
		Name:     "panics",
		PoolSize: 1,
		Logger:   logger,
		PanicHandler: func(err *types.TaskPanicError) {
			mu.Lock()
			panics = append(panics, err)
			mu.Unlock()
		},
	})
	defer pool.Destroy()

	var counter testutils.Counter
	require.NoError(t, pool.Submit(counter.Task()))
	require.NoError(t, pool.Submit(func() { panic("plain") }))
	require.NoError(t, pool.Submit(func() { panic(errBoom) }))
	require.NoError(t, pool.Submit(counter.Task()))

	require.NoError(t, pool.Start())
	require.NoError(t, pool.Stop())

	assert.Equal(t, 2, counter.Value())
	stats := pool.Stats()
	assert.Equal(t, int64(2), stats.TotalCompleted)
	assert.Equal(t, int64(2), stats.TotalPanicked)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, panics, 2)
	assert.Equal(t, "plain", panics[0].Value)
	assert.NotEmpty(t, panics[0].Stack)
	assert.Nil(t, errors.Unwrap(panics[0]))
	assert.ErrorIs(t, panics[1], errBoom)
	assert.Contains(t, panics[1].Error(), "boom")

	assert.Contains(t, logs.String(), "task panicked")
}

func TestPool_Stats(t *testing.T) {
	pool := newTestPool(t, 2)

	stats := pool.Stats()
	assert.Equal(t, types.StatusStopped, stats.Status)
	assert.Equal(t, 2, stats.PoolSize)
	assert.Equal(t, 0, stats.ActiveWorkers)

	require.NoError(t, pool.Start())
	gate := testutils.NewGate()
	require.NoError(t, pool.Submit(gate.Task()))
	require.NoError(t, pool.Submit(gate.Task()))
	require.NoError(t, pool.Submit(func() {}))
	gate.WaitEntered(t, 2, 5*time.Second)

	stats = pool.Stats()
	assert.Equal(t, types.StatusRunning, stats.Status)
	assert.Equal(t, 2, stats.ActiveWorkers)
	assert.Equal(t, 1, stats.QueueSize)
	for _, ws := range pool.WorkerStats() {
		assert.True(t, ws.IsActive())
	}

	gate.Open()
	require.NoError(t, pool.Stop())

	stats = pool.Stats()
	assert.Equal(t, 0, stats.ActiveWorkers)
	assert.Equal(t, 0, stats.QueueSize)
	assert.Equal(t, int64(3), stats.TotalCompleted)
}

func TestPool_LogsLifecycle(t *testing.T) {
	logger, logs := testutils.NewBufferLogger()
	pool := NewPool(&Config{Name: "jobs", PoolSize: 2, Logger: logger})

	require.NoError(t, pool.Start())
	require.NoError(t, pool.Submit(func() {}))
	require.NoError(t, pool.Resize(3))
	require.NoError(t, pool.Stop())
	pool.Destroy()

	out := logs.String()
	for _, msg := range []string{
		"worker pool started",
		"worker started",
		"worker exited",
		"worker pool resized",
		"worker pool stopped",
		"worker pool destroyed",
		"pool=jobs",
	} {
		assert.Contains(t, out, msg)
	}
}
