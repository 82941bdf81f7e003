package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result

	// Fail builds the job's result when Execute panicked or never ran
	Fail(err error) Result
}

// ErrPoolClosed fails jobs submitted after Wait or Shutdown
var ErrPoolClosed = errors.New("worker pool closed")

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool manages a pool of workers that execute jobs concurrently.
// Results are drained as they arrive, so any number of jobs may be
// submitted before Wait. Every submitted job yields exactly one result;
// jobs that never run because the pool was cancelled fail with the
// context error.
type Pool struct {
	workers    int
	jobQueue   chan Job
	results    chan Result
	collector  *ResultCollector
	wg         sync.WaitGroup
	drained    chan struct{}
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
	mu         sync.RWMutex // Guards closed against concurrent Submit
	closed     bool
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
		jobQueue:   make(chan Job, workers*2),
		results:    make(chan Result, workers*2),
		collector:  NewResultCollector(),
		drained:    make(chan struct{}),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the workers and the result collector
func (p *Pool) Start() {
	go func() {
		defer close(p.drained)
		for result := range p.results {
			p.collector.Add(result)
		}
	}()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// worker is the worker goroutine that processes jobs
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		if err := p.ctx.Err(); err != nil {
			p.results <- job.Fail(err)
			continue
		}
		p.results <- p.execute(id, job)
	}
}

// execute runs one job, turning a panic into the job's failed result
func (p *Pool) execute(id int, job Job) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Int("worker", id).Interface("panic", r).Msg("job panicked")
			result = job.Fail(fmt.Errorf("job panicked: %v", r))
		}
	}()
	return job.Execute(p.ctx)
}

// Submit submits a job to the pool for execution. It blocks while the
// queue is full; a cancelled or closed pool fails the job immediately.
func (p *Pool) Submit(job Job) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	switch {
	case p.closed:
		p.collector.Add(job.Fail(ErrPoolClosed))
	case p.ctx.Err() != nil:
		p.collector.Add(job.Fail(p.ctx.Err()))
	default:
		// Workers keep draining after cancellation, so this send completes
		p.jobQueue <- job
	}
}

// Wait waits for all submitted jobs to complete and returns their results
// in completion order
func (p *Pool) Wait() []Result {
	p.closeQueue()
	p.wg.Wait()
	p.closeResults()
	<-p.drained
	p.cancelFunc()
	return p.collector.Results()
}

// Shutdown stops the pool immediately; queued jobs fail with context.Canceled
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.closeQueue()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeQueue() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.jobQueue)
	}
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}

// ResultCollector gathers results from concurrent producers
type ResultCollector struct {
	results []Result
	mu      sync.Mutex
}

// NewResultCollector creates a new result collector
func NewResultCollector() *ResultCollector {
	return &ResultCollector{
		results: make([]Result, 0),
	}
}

// Add adds a result to the collector (thread-safe)
func (c *ResultCollector) Add(result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result)
}

// Results returns a copy of the collected results
func (c *ResultCollector) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Result(nil), c.results...)
}
