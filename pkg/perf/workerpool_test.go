// Package perf tests
package perf

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool(t *testing.T) {
	pool, err := NewWorkerPool(4)
	if err != nil {
		t.Fatalf("NewWorkerPool failed: %v", err)
	}
	pool.Start()
	defer pool.Stop()

	counter := atomic.Int32{}

	for i := 0; i < 5; i++ {
		if !pool.Submit(func() {
			counter.Add(1)
		}) {
			t.Fatal("Failed to submit task")
		}
	}

	// Wait a bit for tasks to complete
	time.Sleep(200 * time.Millisecond)

	if counter.Load() != 5 {
		t.Errorf("Expected counter 5, got %d", counter.Load())
	}
}

func TestWorkerPoolEnqueue(t *testing.T) {
	pool, err := NewWorkerPool(2)
	if err != nil {
		t.Fatalf("NewWorkerPool failed: %v", err)
	}
	pool.Start()
	defer pool.Stop()

	counter := atomic.Int32{}
	ctx := context.Background()

	// More tasks than queue slots; Enqueue must block instead of dropping
	for i := 0; i < 20; i++ {
		if err := pool.Enqueue(ctx, func() {
			counter.Add(1)
		}); err != nil {
			t.Fatalf("Enqueue failed: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for counter.Load() != 20 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if counter.Load() != 20 {
		t.Errorf("Expected counter 20, got %d", counter.Load())
	}
}

func TestWorkerPoolEnqueueCancelled(t *testing.T) {
	pool, err := NewWorkerPool(1)
	if err != nil {
		t.Fatalf("NewWorkerPool failed: %v", err)
	}
	pool.Start()
	defer pool.Stop()

	release := make(chan struct{})
	blocker := func() { <-release }

	// Saturate the queue so Enqueue cannot complete immediately
	for pool.Submit(blocker) {
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := pool.Enqueue(ctx, func() {}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	close(release)
}

func TestWorkerPoolEnqueueAfterStop(t *testing.T) {
	pool, err := NewWorkerPool(2)
	if err != nil {
		t.Fatalf("NewWorkerPool failed: %v", err)
	}
	pool.Start()
	pool.Stop()

	if err := pool.Enqueue(context.Background(), func() {}); !errors.Is(err, ErrPoolStopped) {
		t.Errorf("Expected ErrPoolStopped, got %v", err)
	}
}

func TestWorkerPoolDoubleStop(t *testing.T) {
	pool, err := NewWorkerPool(4)
	if err != nil {
		t.Fatalf("NewWorkerPool failed: %v", err)
	}
	pool.Start()

	// Submit some work and wait for completion
	counter := atomic.Int32{}
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		pool.Submit(func() {
			n := counter.Add(1)
			if n == 5 {
				close(done)
			}
		})
	}

	// Wait for all work to complete before stopping
	<-done
	time.Sleep(10 * time.Millisecond) // Give workers time to finish

	// First stop
	pool.Stop()

	// Second stop should be safe (no panic)
	pool.Stop()

	// Third stop should also be safe
	pool.Stop()

	if counter.Load() != 5 {
		t.Errorf("Expected counter 5, got %d", counter.Load())
	}
}

func TestWorkerPoolInvalidMaxWorkers(t *testing.T) {
	tests := []struct {
		name       string
		maxWorkers int
	}{
		{"zero workers", 0},
		{"negative workers", -1},
		{"negative workers large", -100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWorkerPool(tt.maxWorkers)
			if err == nil {
				t.Errorf("NewWorkerPool(%d) expected error, got nil", tt.maxWorkers)
			}
		})
	}
}

func TestWorkerPoolSubmitAfterStop(t *testing.T) {
	pool, err := NewWorkerPool(2)
	if err != nil {
		t.Fatalf("NewWorkerPool failed: %v", err)
	}
	pool.Start()
	pool.Stop()

	// Submit after stop should return false
	if pool.Submit(func() {}) {
		t.Error("Submit after Stop should return false")
	}
}

func TestParallel(t *testing.T) {
	ctx := context.Background()

	results, err := Parallel(ctx,
		func() (int, error) { return 1, nil },
		func() (int, error) { return 2, nil },
		func() (int, error) { return 3, nil },
	)

	if err != nil {
		t.Fatalf("Parallel failed: %v", err)
	}

	expected := []int{1, 2, 3}
	if len(results) != len(expected) {
		t.Errorf("Expected %d results, got %d", len(expected), len(results))
	}

	for i, v := range results {
		if v != expected[i] {
			t.Errorf("Expected %d at index %d, got %d", expected[i], i, v)
		}
	}
}

func TestParallelError(t *testing.T) {
	ctx := context.Background()

	_, err := Parallel(ctx,
		func() (int, error) { return 1, nil },
		func() (int, error) { return 0, fmt.Errorf("error") },
		func() (int, error) { return 3, nil },
	)

	if err == nil {
		t.Error("Expected error from Parallel")
	}
}
