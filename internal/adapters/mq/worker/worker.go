// Package worker runs the pool that turns queued refresh jobs into sheet
// reloads.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/reportcard/internal/adapters/mq/queue"
	"github.com/okian/reportcard/pkg/logger"
	"github.com/okian/reportcard/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const defaultPoolSize = 2

// Refresher reloads the sheet of a class.
type Refresher interface {
	Refresh(ctx context.Context, class string) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.RefreshJob
}

// Stats is a snapshot of pool activity.
type Stats struct {
	Workers   int   `json:"workers"`
	Active    int64 `json:"active"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

// Pool runs a fixed number of workers. A failed refresh is logged and
// counted; it never stops the pool.
type Pool struct {
	queue     Queue
	refresher Refresher
	size      int
	logger    logger.Logger

	active    atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPool creates a worker pool reading from q.
func NewPool(q Queue, r Refresher, opts ...Option) *Pool {
	p := &Pool{
		queue:     q,
		refresher: r,
		size:      defaultPoolSize,
		logger:    logger.Nop(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	metrics.UpdateWorkerCount(p.size)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Start launches the workers. Calling Start twice is a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	g, gctx := errgroup.WithContext(runCtx)
	for i := 0; i < p.size; i++ {
		name := "worker-" + strconv.Itoa(i)
		g.Go(func() error {
			p.run(gctx, name)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(p.done)
	}()
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", p.size))
}

func (p *Pool) run(ctx context.Context, name string) {
	jobs := p.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			p.process(ctx, name, job)
		}
	}
}

func (p *Pool) process(ctx context.Context, name string, job queue.RefreshJob) {
	metrics.UpdateWorkerActiveCount(int(p.active.Add(1)))
	defer func() {
		metrics.UpdateWorkerActiveCount(int(p.active.Add(-1)))
	}()

	start := time.Now()
	err := p.refresher.Refresh(ctx, job.Class)
	p.processed.Add(1)
	if err != nil {
		p.failed.Add(1)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "refresh_error")
		p.logger.Error(ctx, "refresh failed",
			logger.String("worker", name),
			logger.String("class", job.Class),
			logger.Error(err))
		return
	}
	p.logger.Debug(ctx, "class refreshed",
		logger.String("worker", name),
		logger.String("class", job.Class),
		logger.Duration("queued", start.Sub(job.Requested)),
		logger.Duration("took", time.Since(start)))
}

// Stats returns a snapshot of pool activity.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.size,
		Active:    p.active.Load(),
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
	}
}

// Shutdown closes the queue, lets workers drain it, and waits for them.
// When ctx expires first the remaining work is cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()

	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	if !started {
		return nil
	}

	select {
	case <-p.done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-p.done
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}
