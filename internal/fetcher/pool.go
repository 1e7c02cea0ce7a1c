package fetcher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"growth-calculator/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// PoolStats is a point-in-time view of a Pool.
type PoolStats struct {
	Workers   int   `json:"workers"`
	InFlight  int64 `json:"in_flight"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

type fetchJob struct {
	ctx    context.Context
	symbol string
	start  time.Time
	end    time.Time
	reply  chan fetchResult
}

type fetchResult struct {
	series types.Series
	err    error
}

// Pool runs fetches of an inner Fetcher on a fixed number of workers, each
// fetch bounded by timeout. Pool itself is a Fetcher.
type Pool struct {
	inner   Fetcher
	workers int
	timeout time.Duration

	jobs      chan fetchJob
	quit      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	inFlight  atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// NewPool starts workers goroutines serving inner. A timeout of zero disables
// the per-fetch deadline.
func NewPool(inner Fetcher, workers int, timeout time.Duration) *Pool {
	if workers < 1 {
		workers = 1
	}

	p := &Pool{
		inner:   inner,
		workers: workers,
		timeout: timeout,
		jobs:    make(chan fetchJob),
		quit:    make(chan struct{}),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	log.Debugf("fetch pool started with %d workers", workers)
	return p
}

// Fetch hands the request to a worker and waits for its result or for ctx.
func (p *Pool) Fetch(ctx context.Context, symbol string, start, end time.Time) (types.Series, error) {
	job := fetchJob{
		ctx:    ctx,
		symbol: symbol,
		start:  start,
		end:    end,
		reply:  make(chan fetchResult, 1),
	}

	select {
	case <-p.quit:
		return types.Series{Symbol: symbol}, ErrPoolClosed
	default:
	}

	select {
	case p.jobs <- job:
	case <-ctx.Done():
		return types.Series{Symbol: symbol}, ctx.Err()
	case <-p.quit:
		return types.Series{Symbol: symbol}, ErrPoolClosed
	}

	select {
	case r := <-job.reply:
		return r.series, r.err
	case <-ctx.Done():
		return types.Series{Symbol: symbol}, ctx.Err()
	}
}

// Close stops the workers after their current fetch.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}

// Stats returns current counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:   p.workers,
		InFlight:  p.inFlight.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case job := <-p.jobs:
			job.reply <- p.run(job)
		}
	}
}

func (p *Pool) run(job fetchJob) (result fetchResult) {
	ctx := job.ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	p.inFlight.Add(1)
	defer func() {
		p.inFlight.Add(-1)
		if r := recover(); r != nil {
			log.WithField("symbol", job.symbol).Errorf("recovered from panic in fetch: %v", r)
			result = fetchResult{series: types.Series{Symbol: job.symbol}, err: errors.Errorf("fetch %s panicked: %v", job.symbol, r)}
		}
		if result.err != nil {
			p.failed.Add(1)
		} else {
			p.completed.Add(1)
		}
	}()

	series, err := p.inner.Fetch(ctx, job.symbol, job.start, job.end)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && job.ctx.Err() == nil {
		err = errors.Wrapf(err, "fetch %s exceeded %s", job.symbol, p.timeout)
	}
	return fetchResult{series: series, err: err}
}
