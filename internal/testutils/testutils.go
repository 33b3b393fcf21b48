// Package testutils provides testing utilities and helper functions
package testutils

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jzx17/taskpool/pkg/types"
)

// Counter is a lock-protected counter shared by tasks under test
type Counter struct {
	mu sync.Mutex
	n  int
}

// Task returns a task that increments the counter
func (c *Counter) Task() types.Task {
	return func() {
		c.mu.Lock()
		c.n++
		c.mu.Unlock()
	}
}

// Value returns the current count
func (c *Counter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Recorder records the order in which tasks ran
type Recorder struct {
	mu    sync.Mutex
	order []int
}

// Task returns a task that records id when run
func (r *Recorder) Task(id int) types.Task {
	return func() {
		r.mu.Lock()
		r.order = append(r.order, id)
		r.mu.Unlock()
	}
}

// Order returns a copy of the recorded ids
func (r *Recorder) Order() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.order...)
}

// Gate blocks tasks until it is opened
type Gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// NewGate creates a closed gate
func NewGate() *Gate {
	return &Gate{
		entered: make(chan struct{}, 1024),
		release: make(chan struct{}),
	}
}

// Task returns a task that signals entry and then blocks until Open
func (g *Gate) Task() types.Task {
	return func() {
		g.entered <- struct{}{}
		<-g.release
	}
}

// WaitEntered waits until n gate tasks are running, failing the test after timeout
func (g *Gate) WaitEntered(t testing.TB, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for i := 0; i < n; i++ {
		select {
		case <-g.entered:
		case <-deadline:
			t.Fatalf("timed out waiting for %d gate tasks, got %d", n, i)
		}
	}
}

// Open releases every blocked task
func (g *Gate) Open() {
	g.once.Do(func() { close(g.release) })
}

// NewBufferLogger returns a debug-level text logger writing into a buffer
func NewBufferLogger() (*slog.Logger, *SyncBuffer) {
	buf := &SyncBuffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, buf
}

// SyncBuffer is a bytes.Buffer safe for concurrent writes
type SyncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *SyncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *SyncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// AssertEventually waits for condition to be true
func AssertEventually(t *testing.T, condition func() bool, msgAndArgs ...interface{}) bool {
	t.Helper()
	return assert.Eventually(t, condition, 5*time.Second, 5*time.Millisecond, msgAndArgs...)
}
