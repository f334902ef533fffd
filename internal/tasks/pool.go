// Package tasks runs named background jobs on a fixed set of goroutines.
package tasks

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// PanicHandler is called on the worker goroutine when a job panics.
// stack is the formatted goroutine stack at the point of recovery.
type PanicHandler func(name string, recovered any, stack []byte)

// job is a queued unit of work.
type job struct {
	name string
	fn   func()
}

// Pool is a pool of goroutines for background jobs.
//
// Unlike a channel-backed pool, Spawn never blocks: jobs wait in an
// unbounded FIFO until a worker picks them up. A panicking job is recovered
// and reported to the PanicHandler; it never takes the worker down.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	// workers is the number of worker goroutines.
	workers int

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []job
	closed bool

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool

	active    atomic.Int64
	completed atomic.Uint64
	panics    atomic.Uint64

	onPanic PanicHandler
}

// NewPool creates a pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The pool starts immediately and workers begin waiting for work.
func NewPool(workers int, onPanic PanicHandler) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{
		workers: workers,
		onPanic: onPanic,
	}
	p.cond = sync.NewCond(&p.mu)
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}

	return p
}

// worker is the main loop for each worker goroutine.
func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if len(p.queue) == 0 {
			// Closed and drained.
			p.mu.Unlock()
			return
		}
		j := p.queue[0]
		p.queue[0] = job{}
		p.queue = p.queue[1:]
		p.mu.Unlock()

		p.run(j)
	}
}

// run executes one job with panic isolation.
func (p *Pool) run(j job) {
	p.active.Add(1)
	defer func() {
		p.active.Add(-1)
		p.completed.Add(1)
		if r := recover(); r != nil {
			p.panics.Add(1)
			if p.onPanic != nil {
				p.onPanic(j.name, r, debug.Stack())
			}
		}
	}()
	j.fn()
}

// Spawn queues fn under a diagnostic name and returns immediately.
// It reports false if the pool is closed or fn is nil.
func (p *Pool) Spawn(name string, fn func()) bool {
	if fn == nil {
		return false
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.queue = append(p.queue, job{name: name, fn: fn})
	p.mu.Unlock()

	p.cond.Signal()
	return true
}

// Close gracefully shuts down the pool.
// It stops accepting new work, waits for all queued work to complete,
// and then stops all workers.
// Close is safe to call multiple times.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}

	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Broadcast()

	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Queued    int
	Active    int
	Completed uint64
	Panics    uint64
}

// String returns a compact human-readable form.
func (s Stats) String() string {
	return fmt.Sprintf("Tasks[%d queued, %d active, %d done, %d panics]",
		s.Queued, s.Active, s.Completed, s.Panics)
}

// Stats returns a snapshot of the pool counters.
// This is an approximation as jobs can change state while reading.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	queued := len(p.queue)
	p.mu.Unlock()

	return Stats{
		Queued:    queued,
		Active:    int(p.active.Load()),
		Completed: p.completed.Load(),
		Panics:    p.panics.Load(),
	}
}
