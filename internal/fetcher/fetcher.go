// Package fetcher retrieves price histories from upstream market-data providers.
//
// Every source implements the synchronous Fetcher contract. Pool wraps a
// Fetcher with a bounded set of workers and a per-fetch deadline so callers
// never run a provider call on their own goroutine.
package fetcher

import (
	"context"
	"sort"
	"time"

	"growth-calculator/internal/types"

	"github.com/pkg/errors"
)

// Common fetcher errors.
var (
	ErrPoolClosed    = errors.New("fetch pool is closed")
	ErrUnknownSymbol = errors.New("no source handles symbol")
)

// Fetcher returns the price history of symbol between start and end.
// An unknown symbol or an empty range yields an empty series, not an error.
type Fetcher interface {
	Fetch(ctx context.Context, symbol string, start, end time.Time) (types.Series, error)
}

// Func adapts a plain function to the Fetcher interface.
type Func func(ctx context.Context, symbol string, start, end time.Time) (types.Series, error)

func (f Func) Fetch(ctx context.Context, symbol string, start, end time.Time) (types.Series, error) {
	return f(ctx, symbol, start, end)
}

// normalize sorts points chronologically and drops those outside [start, end].
func normalize(points []types.PricePoint, start, end time.Time) []types.PricePoint {
	out := points[:0]
	for _, p := range points {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
