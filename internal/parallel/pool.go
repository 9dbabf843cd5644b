package parallel

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Result is the outcome of one job.
type Result[T any] struct {
	ID       string
	Value    T
	Err      error
	Duration time.Duration
	// Skipped is true when the job never ran because the pool was cancelled.
	Skipped bool
}

// WorkerPool runs submitted jobs with at most maxWorkers running at once.
type WorkerPool[T any] struct {
	maxWorkers int
	semaphore  chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	results    []Result[T]
	errors     []error
	failFast   bool
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a pool. A maxWorkers of 0 or less means no limit.
// With failFast the pool is cancelled on the first job error.
func NewWorkerPool[T any](ctx context.Context, maxWorkers int, failFast bool) *WorkerPool[T] {
	if maxWorkers < 0 {
		maxWorkers = 0
	}
	ctx, cancel := context.WithCancel(ctx)
	return &WorkerPool[T]{
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
		failFast:   failFast,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Submit queues fn under id. It does not block; the job waits for a free
// worker slot in its own goroutine.
func (p *WorkerPool[T]) Submit(id string, fn func() (T, error)) {
	p.mu.Lock()
	idx := len(p.results)
	p.results = append(p.results, Result[T]{ID: id, Skipped: true})
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if p.maxWorkers > 0 {
			select {
			case p.semaphore <- struct{}{}:
				defer func() { <-p.semaphore }()
			case <-p.ctx.Done():
				return
			}
		}
		if p.ctx.Err() != nil {
			return
		}

		start := time.Now()
		value, err := fn()
		duration := time.Since(start)

		p.mu.Lock()
		defer p.mu.Unlock()
		p.results[idx] = Result[T]{ID: id, Value: value, Err: err, Duration: duration}
		if err != nil {
			p.errors = append(p.errors, fmt.Errorf("%s: %w", id, err))
			if p.failFast {
				p.cancel()
			}
		}
	}()
}

// Wait blocks until every submitted job has finished or been skipped and
// returns the results in submission order along with the job errors.
func (p *WorkerPool[T]) Wait() ([]Result[T], []error) {
	p.wg.Wait()
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	results := make([]Result[T], len(p.results))
	copy(results, p.results)
	errs := make([]error, len(p.errors))
	copy(errs, p.errors)
	return results, errs
}

// Cancel skips every job that has not started yet.
func (p *WorkerPool[T]) Cancel() {
	p.cancel()
}
