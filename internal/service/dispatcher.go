package service

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// RunExecutor executes one run to a terminal state.
type RunExecutor interface {
	Execute(ctx context.Context, runID string)
}

// Dispatcher fans run ids out to a bounded worker pool over a buffered
// queue. Enqueue never blocks; a full queue is reported to the caller so the
// run can be failed instead of silently dropped.
type Dispatcher struct {
	executor RunExecutor
	queue    chan string
	workers  int
	wg       sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool
}

func NewDispatcher(executor RunExecutor, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Dispatcher{
		executor: executor,
		queue:    make(chan string, queueSize),
		workers:  workers,
	}
}

// Start launches the worker goroutines. Calling Start twice is a no-op.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for runID := range d.queue {
		log.Printf("worker %d executing run %s", id, runID)
		d.executor.Execute(context.Background(), runID)
	}
}

// Enqueue hands a run to the pool. It returns an error when the queue is
// full or the dispatcher has been stopped.
func (d *Dispatcher) Enqueue(runID string) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher stopped")
	}
	d.mu.Unlock()

	select {
	case d.queue <- runID:
		return nil
	default:
		return fmt.Errorf("execution queue full")
	}
}

// Stop closes the queue and waits for in-flight runs to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed || !d.started {
		d.closed = true
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.queue)
	d.wg.Wait()
}
