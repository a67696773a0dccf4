package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vytor/studyflash/internal/logger"
)

var (
	ErrQueueFull   = errors.New("worker queue is full")
	ErrPoolStopped = errors.New("worker pool is stopped")
)

type Job interface {
	Run(context.Context) error
	Name() string
}

// Pool runs submitted jobs on a fixed set of goroutines. Submit never blocks.
type Pool struct {
	mu      sync.RWMutex
	jobs    chan Job
	wg      sync.WaitGroup
	workers int
	stopped bool
	cancel  context.CancelFunc
	log     *logger.Logger
}

func NewPool(workers, queueSize int) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	log := logger.Default().WithPrefix("worker-pool")
	log.Debug("creating worker pool with %d workers and queue size %d", workers, queueSize)
	return &Pool{
		jobs:    make(chan Job, queueSize),
		workers: workers,
		log:     log,
	}
}

func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.log.Info("starting worker pool with %d workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			workerLog := p.log.WithField("worker_id", id)
			workerLog.Debug("worker started")

			for job := range p.jobs {
				p.run(logger.NewContext(ctx, workerLog.WithField("job", job.Name())), job)
			}
			workerLog.Debug("worker shutting down")
		}(i + 1)
	}
}

func (p *Pool) run(ctx context.Context, job Job) {
	jobLog := logger.FromContext(ctx)
	defer func() {
		if rec := recover(); rec != nil {
			jobLog.Error("job panicked: %v", rec)
		}
	}()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		jobLog.Warn("job failed after %v: %v", time.Since(start), err)
		return
	}
	jobLog.Debug("job completed in %v", time.Since(start))
}

// Stop rejects new jobs, lets queued ones drain and waits for the workers.
// Jobs still queued see a cancelled context.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobs)
	p.mu.Unlock()

	p.log.Info("stopping worker pool")
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.log.Info("worker pool stopped")
}

// Submit enqueues job without waiting for room in the queue.
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}
	select {
	case p.jobs <- job:
		p.log.Debug("submitted job: %s", job.Name())
		return nil
	default:
		return ErrQueueFull
	}
}

// QueueSize returns the current number of pending jobs.
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}
