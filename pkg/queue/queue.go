// Package queue provides the task queue backing the worker pool.
//
// TaskQueue is not safe for concurrent use. The owning pool serializes every
// call with its queue mutex.
package queue

import (
	"github.com/jzx17/taskpool/pkg/types"
)

// minCapacity is the initial and smallest ring buffer size. Must be a power of two.
const minCapacity = 16

// TaskQueue is an unbounded FIFO of tasks stored in a growable ring buffer
type TaskQueue struct {
	buf   []types.Task
	head  int
	count int
}

// New creates an empty task queue
func New() *TaskQueue {
	return &TaskQueue{
		buf: make([]types.Task, minCapacity),
	}
}

// Put appends a task at the tail and returns the new length
func (q *TaskQueue) Put(task types.Task) (int, error) {
	if q == nil {
		return 0, types.ErrInvalidQueue
	}
	if task == nil {
		return q.count, types.ErrNilAction
	}
	if q.buf == nil {
		q.buf = make([]types.Task, minCapacity)
	}
	if q.count > len(q.buf) {
		return q.count, types.ErrInvalidQueue
	}
	if q.count == len(q.buf) {
		q.resize(len(q.buf) * 2)
	}

	q.buf[q.index(q.count)] = task
	q.count++
	return q.count, nil
}

// Take removes and returns the task at the head
func (q *TaskQueue) Take() (types.Task, error) {
	if q == nil || q.count == 0 {
		return nil, types.ErrEmpty
	}

	task := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = q.index(1)
	q.count--

	if q.count == 0 {
		q.head = 0
	} else if len(q.buf) > minCapacity && q.count <= len(q.buf)/4 {
		q.resize(len(q.buf) / 2)
	}
	return task, nil
}

// Clear drops every queued task without running it and returns how many were dropped
func (q *TaskQueue) Clear() int {
	if q == nil {
		return 0
	}
	dropped := q.count
	q.buf = make([]types.Task, minCapacity)
	q.head = 0
	q.count = 0
	return dropped
}

// Len returns the number of queued tasks
func (q *TaskQueue) Len() int {
	if q == nil {
		return 0
	}
	return q.count
}

// Cap returns the current buffer capacity
func (q *TaskQueue) Cap() int {
	if q == nil {
		return 0
	}
	return len(q.buf)
}

// index maps an offset from head to a buffer position
func (q *TaskQueue) index(offset int) int {
	return (q.head + offset) & (len(q.buf) - 1)
}

// resize copies the queued tasks, in order, into a buffer of the given size
func (q *TaskQueue) resize(size int) {
	buf := make([]types.Task, size)
	if q.head+q.count <= len(q.buf) {
		copy(buf, q.buf[q.head:q.head+q.count])
	} else {
		n := copy(buf, q.buf[q.head:])
		copy(buf[n:], q.buf[:q.count-n])
	}
	q.buf = buf
	q.head = 0
}
