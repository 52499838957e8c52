// Package perf provides the concurrency primitives shared by the
// pipeline runner and the webhook server.
package perf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

const (
	// defaultQueueMultiplier is the multiplier for task queue size relative to maxWorkers
	defaultQueueMultiplier = 2
)

// ErrPoolStopped is returned by Enqueue when the pool has been stopped.
var ErrPoolStopped = errors.New("worker pool is stopped")

// WorkerPool manages a pool of goroutines for concurrent task execution
type WorkerPool struct {
	maxWorkers int
	taskQueue  chan func()
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	cancelOnce sync.Once
	stopped    atomic.Bool
	activeJobs atomic.Int32
}

// NewWorkerPool creates a new worker pool with the specified maximum number of workers
func NewWorkerPool(maxWorkers int) (*WorkerPool, error) {
	if maxWorkers <= 0 {
		return nil, fmt.Errorf("maxWorkers must be positive, got %d", maxWorkers)
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		maxWorkers: maxWorkers,
		taskQueue:  make(chan func(), maxWorkers*defaultQueueMultiplier),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Start starts the worker pool
func (p *WorkerPool) Start() {
	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// worker processes tasks from the queue
func (p *WorkerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.taskQueue:
			if !ok {
				return
			}
			p.activeJobs.Add(1)
			func() {
				// Ensure counter decrements even if task panics
				defer p.activeJobs.Add(-1)
				defer func() {
					if r := recover(); r != nil {
						// A panicking task must not take the worker down
					}
				}()
				task()
			}()
		}
	}
}

// Submit submits a task to the worker pool without blocking.
// Returns false if the pool is stopped, the task is nil, or the task queue is full.
func (p *WorkerPool) Submit(task func()) bool {
	if task == nil {
		return false
	}
	// Check stopped flag first
	if p.stopped.Load() {
		return false
	}
	// Use select with context check to handle race condition
	// If Stop() is called, ctx.Done() will be selected before channel send
	select {
	case <-p.ctx.Done():
		return false
	case p.taskQueue <- task:
		// Double-check stopped after successful send
		// Task might have been submitted just as Stop() was called
		if p.stopped.Load() {
			return false
		}
		return true
	default:
		return false // Queue is full
	}
}

// Enqueue submits a task, blocking until a queue slot frees up.
// It returns ErrPoolStopped if the pool stops first, or the context
// error if ctx is cancelled while waiting.
func (p *WorkerPool) Enqueue(ctx context.Context, task func()) error {
	if task == nil {
		return fmt.Errorf("task must not be nil")
	}
	if p.stopped.Load() {
		return ErrPoolStopped
	}
	select {
	case <-p.ctx.Done():
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	case p.taskQueue <- task:
		if p.stopped.Load() {
			return ErrPoolStopped
		}
		return nil
	}
}

// Stop stops the worker pool gracefully
// Safe to call multiple times - subsequent calls are no-ops
func (p *WorkerPool) Stop() {
	if !p.stopped.CompareAndSwap(false, true) {
		return // Already stopped
	}

	// Step 1: Cancel context to signal all workers to stop
	p.cancelOnce.Do(func() {
		p.cancel()
	})

	// Step 2: Close task queue to prevent new submissions
	// This must happen before wg.Wait() so in-flight submits drain first
	close(p.taskQueue)

	// Step 3: Wait for all workers to finish their current tasks
	p.wg.Wait()
}

// ActiveJobs returns the number of currently active jobs
func (p *WorkerPool) ActiveJobs() int {
	return int(p.activeJobs.Load())
}

// QueueSize returns the current size of the task queue
func (p *WorkerPool) QueueSize() int {
	return len(p.taskQueue)
}

// Parallel executes multiple functions in parallel and returns their results
// in call order. The first error cancels the remaining work.
func Parallel[R any](ctx context.Context, fns ...func() (R, error)) ([]R, error) {
	if len(fns) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		idx int
		val R
		err error
	}

	resultCh := make(chan result, len(fns))

	for i, fn := range fns {
		go func(idx int, f func() (R, error)) {
			val, err := f()
			select {
			case resultCh <- result{idx: idx, val: val, err: err}:
				if err != nil {
					cancel() // Cancel remaining work
				}
			case <-ctx.Done():
			}
		}(i, fn)
	}

	results := make([]R, len(fns))
	for i := 0; i < len(fns); i++ {
		select {
		case res := <-resultCh:
			if res.err != nil {
				return nil, res.err
			}
			results[res.idx] = res.val
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return results, nil
}
