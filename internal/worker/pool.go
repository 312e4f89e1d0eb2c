package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrPoolClosed is returned by Submit once the pool stops accepting jobs
var ErrPoolClosed = errors.New("worker pool closed")

// Job is one unit of work
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job produces
type Result interface {
	GetError() error
}

// PanicResult stands in for the result of a job that panicked
type PanicResult struct {
	Recovered any
}

// GetError reports the recovered panic as an error
func (r *PanicResult) GetError() error {
	return fmt.Errorf("job panicked: %v", r.Recovered)
}

// Pool runs jobs on a fixed number of goroutines. Jobs see the pool's
// context and stop early when it is cancelled.
type Pool struct {
	size    int
	jobs    chan Job
	results chan Result
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	closeJobs    sync.Once
	closeResults sync.Once
}

// NewPool creates a pool of size workers bound to ctx. Sizes below one become one.
func NewPool(ctx context.Context, size int) *Pool {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Pool{
		size:    size,
		jobs:    make(chan Job, size),
		results: make(chan Result, size),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers
func (p *Pool) Start() {
	p.wg.Add(p.size)
	for i := 0; i < p.size; i++ {
		go p.loop()
	}
}

func (p *Pool) loop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			select {
			case p.results <- p.execute(job):
			case <-p.ctx.Done():
				return
			}
		}
	}
}

func (p *Pool) execute(job Job) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = &PanicResult{Recovered: r}
		}
	}()
	return job.Execute(p.ctx)
}

// Submit queues a job, blocking while the queue is full. It fails once
// the pool is cancelled.
func (p *Pool) Submit(job Job) error {
	select {
	case <-p.ctx.Done():
		return ErrPoolClosed
	case p.jobs <- job:
		return nil
	}
}

// Close stops accepting jobs; queued jobs still run
func (p *Pool) Close() {
	p.closeJobs.Do(func() { close(p.jobs) })
}

// Collect gathers results until every worker has exited. Someone must
// call Close (or cancel the pool) for Collect to return.
func (p *Pool) Collect() []Result {
	go func() {
		p.wg.Wait()
		p.closeResults.Do(func() { close(p.results) })
	}()

	var out []Result
	for r := range p.results {
		out = append(out, r)
	}
	return out
}

// Shutdown cancels running jobs and waits for the workers to exit
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.closeResults.Do(func() { close(p.results) })
}
