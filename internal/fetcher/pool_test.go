package fetcher

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"growth-calculator/internal/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sleepyFetcher(d time.Duration, calls *int64) Func {
	return func(ctx context.Context, symbol string, start, end time.Time) (types.Series, error) {
		atomic.AddInt64(calls, 1)
		select {
		case <-time.After(d):
			return types.Series{Symbol: symbol, Points: []types.PricePoint{{Date: start, Close: 1}}}, nil
		case <-ctx.Done():
			return types.Series{Symbol: symbol}, ctx.Err()
		}
	}
}

func TestPoolFetch(t *testing.T) {
	var calls int64
	pool := NewPool(sleepyFetcher(time.Millisecond, &calls), 2, time.Second)
	defer pool.Close()

	series, err := pool.Fetch(context.Background(), "^GSPC", time.Now(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "^GSPC", series.Symbol)
	assert.Len(t, series.Points, 1)
	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))

	stats := pool.Stats()
	assert.Equal(t, 2, stats.Workers)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(0), stats.InFlight)
}

// rendezvous releases its callers only once n of them are waiting at once.
type rendezvous struct {
	n       int32
	arrived atomic.Int32
	all     chan struct{}
}

func newRendezvous(n int32) *rendezvous {
	return &rendezvous{n: n, all: make(chan struct{})}
}

func (r *rendezvous) wait(ctx context.Context) error {
	if r.arrived.Add(1) == r.n {
		close(r.all)
	}
	select {
	case <-r.all:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * time.Second):
		return errors.Errorf("only %d of %d calls overlapped", r.arrived.Load(), r.n)
	}
}

func TestPoolRunsConcurrently(t *testing.T) {
	var calls int64
	meet := newRendezvous(3)
	inner := Func(func(ctx context.Context, symbol string, start, end time.Time) (types.Series, error) {
		atomic.AddInt64(&calls, 1)
		if err := meet.wait(ctx); err != nil {
			return types.Series{Symbol: symbol}, err
		}
		return types.Series{Symbol: symbol}, nil
	})
	pool := NewPool(inner, 3, 5*time.Second)
	defer pool.Close()

	var wg sync.WaitGroup
	for _, s := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(s string) {
			defer wg.Done()
			_, err := pool.Fetch(context.Background(), s, time.Now(), time.Now())
			assert.NoError(t, err)
		}(s)
	}
	wg.Wait()

	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
}

func TestPoolBoundsWorkers(t *testing.T) {
	var running, peak int64
	inner := Func(func(ctx context.Context, symbol string, start, end time.Time) (types.Series, error) {
		n := atomic.AddInt64(&running, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&running, -1)
		return types.Series{Symbol: symbol}, nil
	})

	pool := NewPool(inner, 2, time.Second)
	defer pool.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = pool.Fetch(context.Background(), "x", time.Now(), time.Now())
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(2))
}

func TestPoolTimeout(t *testing.T) {
	var calls int64
	pool := NewPool(sleepyFetcher(time.Minute, &calls), 1, 30*time.Millisecond)
	defer pool.Close()

	began := time.Now()
	_, err := pool.Fetch(context.Background(), "slow", time.Now(), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(began), 10*time.Second)
	assert.Equal(t, int64(1), pool.Stats().Failed)
}

func TestPoolCallerCancel(t *testing.T) {
	var calls int64
	pool := NewPool(sleepyFetcher(time.Second, &calls), 1, 0)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := pool.Fetch(ctx, "x", time.Now(), time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoolRecoversPanics(t *testing.T) {
	pool := NewPool(Func(func(ctx context.Context, symbol string, start, end time.Time) (types.Series, error) {
		panic("provider exploded")
	}), 1, time.Second)
	defer pool.Close()

	_, err := pool.Fetch(context.Background(), "x", time.Now(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider exploded")

	// The worker survives.
	_, err = pool.Fetch(context.Background(), "x", time.Now(), time.Now())
	assert.Error(t, err)
}

func TestPoolClosed(t *testing.T) {
	var calls int64
	pool := NewPool(sleepyFetcher(time.Millisecond, &calls), 1, time.Second)
	pool.Close()
	pool.Close()

	_, err := pool.Fetch(context.Background(), "x", time.Now(), time.Now())
	assert.True(t, errors.Is(err, ErrPoolClosed))
}
