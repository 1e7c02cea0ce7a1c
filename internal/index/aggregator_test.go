package index

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"growth-calculator/internal/cache"
	"growth-calculator/internal/cagr"
	"growth-calculator/internal/fetcher"
	"growth-calculator/internal/types"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolveFunc func(ctx context.Context, symbol string) (float64, bool, error)

func (f resolveFunc) Resolve(ctx context.Context, symbol string) (float64, bool, error) {
	return f(ctx, symbol)
}

func abcSpec() types.IndexSpec {
	return types.IndexSpec{
		{Name: "A", Symbol: "x"},
		{Name: "B", Symbol: "y"},
		{Name: "C", Symbol: "z"},
	}
}

func TestResolveAllPreservesOrder(t *testing.T) {
	delays := map[string]time.Duration{
		"y": 0,
		"x": 30 * time.Millisecond,
		"z": 60 * time.Millisecond,
	}
	values := map[string]float64{"x": 1, "y": 2, "z": 3}

	var mu sync.Mutex
	var completed []string
	r := resolveFunc(func(ctx context.Context, symbol string) (float64, bool, error) {
		time.Sleep(delays[symbol])
		mu.Lock()
		completed = append(completed, symbol)
		mu.Unlock()
		return values[symbol], true, nil
	})

	outcomes := NewAggregator(r, 0).ResolveAll(context.Background(), abcSpec())

	require.Len(t, outcomes, 3)
	assert.Equal(t, []string{"y", "x", "z"}, completed)
	for i, want := range []struct {
		name   string
		symbol string
		value  float64
	}{{"A", "x", 1}, {"B", "y", 2}, {"C", "z", 3}} {
		assert.Equal(t, want.name, outcomes[i].Name)
		assert.Equal(t, want.symbol, outcomes[i].Symbol)
		assert.Equal(t, want.value, outcomes[i].Value)
		assert.True(t, outcomes[i].Available())
	}
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

func TestResolveAllRunsConcurrently(t *testing.T) {
	meet := newRendezvous(3)
	r := resolveFunc(func(ctx context.Context, symbol string) (float64, bool, error) {
		if err := meet.wait(ctx); err != nil {
			return 0, false, err
		}
		return 1, true, nil
	})

	outcomes := NewAggregator(r, DefaultConcurrency).ResolveAll(context.Background(), abcSpec())

	require.Len(t, outcomes, 3)
	for _, o := range outcomes {
		assert.NoError(t, o.Err)
		assert.Equal(t, StatusResolved, o.Status)
	}
}

func TestResolveAllIsolatesFailures(t *testing.T) {
	boom := errors.New("upstream down")
	r := resolveFunc(func(ctx context.Context, symbol string) (float64, bool, error) {
		switch symbol {
		case "x":
			return 0, false, boom
		case "y":
			return 0, false, nil
		case "z":
			panic("unexpected")
		}
		return 0, false, nil
	})

	spec := append(abcSpec(), types.Index{Name: "D", Symbol: "w"})
	r2 := resolveFunc(func(ctx context.Context, symbol string) (float64, bool, error) {
		if symbol == "w" {
			return 4.5, true, nil
		}
		return r(ctx, symbol)
	})

	outcomes := NewAggregator(r2, 2).ResolveAll(context.Background(), spec)
	require.Len(t, outcomes, 4)

	assert.Equal(t, StatusUnavailable, outcomes[0].Status)
	assert.ErrorIs(t, outcomes[0].Err, boom)

	assert.Equal(t, StatusNoData, outcomes[1].Status)
	assert.NoError(t, outcomes[1].Err)

	assert.Equal(t, StatusUnavailable, outcomes[2].Status)
	assert.Contains(t, outcomes[2].Err.Error(), "unexpected")

	assert.Equal(t, StatusResolved, outcomes[3].Status)
	assert.Equal(t, 4.5, outcomes[3].Value)
}

func TestResolveAllEmptySpec(t *testing.T) {
	r := resolveFunc(func(ctx context.Context, symbol string) (float64, bool, error) {
		t.Fatal("should not be called")
		return 0, false, nil
	})
	assert.Empty(t, NewAggregator(r, 1).ResolveAll(context.Background(), nil))
}

func TestResolveAllWithResolverAndPool(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	meet := newRendezvous(3)
	inner := fetcher.Func(func(ctx context.Context, symbol string, start, end time.Time) (types.Series, error) {
		if err := meet.wait(ctx); err != nil {
			return types.Series{Symbol: symbol}, err
		}
		if symbol == "z" {
			return types.Series{Symbol: symbol}, nil
		}
		return types.Series{Symbol: symbol, Points: []types.PricePoint{
			{Date: start, Close: 100},
			{Date: end, Close: 200},
		}}, nil
	})
	pool := fetcher.NewPool(inner, 3, 5*time.Second)
	defer pool.Close()

	store := cache.Open(filepath.Join(t.TempDir(), "cache.json"))
	resolver := cagr.NewResolver(store, pool, cagr.WithClock(func() time.Time { return now }))

	outcomes := NewAggregator(resolver, 0).ResolveAll(context.Background(), abcSpec())

	require.Len(t, outcomes, 3)
	assert.InDelta(t, 7.177, outcomes[0].Value, 1e-3)
	assert.InDelta(t, 7.177, outcomes[1].Value, 1e-3)
	assert.Equal(t, StatusNoData, outcomes[2].Status)
	assert.Equal(t, 2, store.Len())
}
