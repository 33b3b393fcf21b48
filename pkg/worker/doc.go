/*
Package worker provides a fixed-capacity worker pool with explicit lifecycle control.

# Overview

A Pool owns an unbounded FIFO task queue and a configured number of worker
goroutines. Workers take tasks from the head of the queue and run them.
Callers drive the pool through a small state machine:

	invalid --Init--> stopped --Start--> running --Stop--> stopped
	                                     running --Pause--> paused --Start--> running

Resize changes the worker count; on a running pool it pauses, updates the
count and starts fresh workers. Destroy stops the pool, drops whatever is
still queued and returns it to the invalid state.

# Stop and Pause

Both transitions signal the workers, wake the idle ones and wait for every
worker to exit before the new status becomes visible through Status.

- Stop: workers keep taking tasks until the queue is empty, then exit. Every
  task submitted before Stop has run once Stop returns.
- Pause: workers finish their current task and exit without taking more.
  Queued tasks stay queued until the next Start.

Stop on a paused pool is a no-op, so the queued tasks survive it.

# Submission

Submit never blocks beyond two short critical sections and applies no
backpressure. Tasks may be submitted while the pool is stopped or paused;
they run after the next Start. Tasks are dequeued in submission order, but
with more than one worker there is no ordering between completions.

# Concurrency

The pool uses three independent mutexes (lifecycle, queue, notify) and one
condition variable on the notify mutex. Status reads are atomic.

# Panics

A panicking task does not take down its worker. The panic is recovered,
logged, counted in Stats and passed to Config.PanicHandler.

# Usage Examples

Basic usage:

	pool := worker.NewPool(&worker.Config{
		Name:     "jobs",
		PoolSize: 4,
	})
	defer pool.Destroy()

	if err := pool.Start(); err != nil {
		log.Fatal(err)
	}

	for i := 0; i < 20; i++ {
		n := i
		if err := pool.Submit(func() { process(n) }); err != nil {
			log.Printf("Failed to submit task: %v", err)
		}
	}

	// Wait for all 20 tasks
	if err := pool.Stop(); err != nil {
		log.Fatal(err)
	}

The zero value is usable after Init:

	var pool worker.Pool
	pool.Init(4)
*/
package worker
