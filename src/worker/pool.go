package worker

import (
	"context"
	"log"
	"runtime"
	"sync"
)

// Task is a blocking native operation producing a path (capture file,
// stitched image, preview).
type Task func(ctx context.Context) (string, error)

// ResultCallback is invoked on completion from a worker goroutine. The
// orchestrator passes a closure that posts back into its loop safely.
type ResultCallback func(path string, err error)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict
// back-pressure). Dropped submissions are the caller's signal to retry
// or skip; best-effort jobs like previews simply skip.
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx  context.Context
	task Task
	cb   ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				path, err := runTask(j.ctx, j.task)
				j.cb(path, err)
			}
		}()
	}
}

// Submit enqueues a task if the single-slot queue is free. Returns false
// if dropped.
func (p *Pool) Submit(ctx context.Context, task Task, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, task: task, cb: cb}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}

// runTask honors a context deadline around a blocking task. The task
// keeps running in the background on timeout; its result is discarded.
func runTask(ctx context.Context, task Task) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		return task(ctx)
	}
	resCh := make(chan struct {
		path string
		err  error
	}, 1)
	go func() {
		path, err := task(ctx)
		resCh <- struct {
			path string
			err  error
		}{path, err}
	}()
	select {
	case r := <-resCh:
		return r.path, r.err
	case <-ctx.Done():
		log.Printf("Worker: task abandoned after deadline")
		return "", ctx.Err()
	}
}
