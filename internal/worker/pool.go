package worker

import (
	"context"
	"sort"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type queuedJob struct {
	index int
	job   Job
}

// Pool manages a pool of workers that execute jobs concurrently.
// Wait returns results in submission order.
type Pool struct {
	workers    int
	jobQueue   chan queuedJob
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc

	mu        sync.Mutex
	submitted int
	results   map[int]Result
}

// NewPool creates a new worker pool with the specified number of workers.
// Cancelling ctx stops the pool.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan queuedJob, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
		results:    make(map[int]Result),
	}
}

// Start starts the worker pool
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case q, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := q.job.Execute(p.ctx)
			p.mu.Lock()
			p.results[q.index] = result
			p.mu.Unlock()
		}
	}
}

// Submit queues a job. It returns false when the pool has been cancelled.
// Submit must not be called concurrently with Wait.
func (p *Pool) Submit(job Job) bool {
	p.mu.Lock()
	index := p.submitted
	p.submitted++
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- queuedJob{index: index, job: job}:
		return true
	}
}

// Wait waits for all submitted jobs and returns their results in
// submission order. Jobs dropped by cancellation have no result.
func (p *Pool) Wait() []Result {
	close(p.jobQueue)
	p.wg.Wait()
	p.cancelFunc()

	p.mu.Lock()
	defer p.mu.Unlock()

	indexes := make([]int, 0, len(p.results))
	for i := range p.results {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	results := make([]Result, 0, len(indexes))
	for _, i := range indexes {
		results = append(results, p.results[i])
	}
	return results
}

// Shutdown stops the pool immediately; queued jobs are dropped
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
}
