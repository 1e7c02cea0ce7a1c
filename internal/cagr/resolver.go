// Package cagr resolves compound annual growth rates for instruments, serving
// fresh values from the cache and refilling it from the fetcher otherwise.
package cagr

import (
	"context"
	"time"

	"growth-calculator/internal/fetcher"
	"growth-calculator/internal/metrics"
	"growth-calculator/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultPeriodYears is the look-back used when none is configured.
	DefaultPeriodYears = 10

	// DefaultExpiration is how long a computed value is served from cache.
	DefaultExpiration = 24 * time.Hour

	daysPerYear = 365
)

// Resolution statuses, used as metric labels.
const (
	StatusCached      = "cached"
	StatusResolved    = "resolved"
	StatusNoData      = "no_data"
	StatusUnavailable = "unavailable"
)

// Store is the cache contract the resolver depends on.
type Store interface {
	Get(symbol string) (types.CacheRecord, bool)
	Put(symbol string, rec types.CacheRecord) error
}

// Resolver computes CAGR values with a cache in front of the fetcher.
type Resolver struct {
	store   Store
	fetcher fetcher.Fetcher

	periodYears int
	expiration  time.Duration
	now         func() time.Time
	metrics     *metrics.Metrics

	inflight singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithPeriod(years int) Option {
	return func(r *Resolver) {
		if years > 0 {
			r.periodYears = years
		}
	}
}

func WithExpiration(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.expiration = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// NewResolver wires a resolver to its cache and data source.
func NewResolver(store Store, f fetcher.Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		store:       store,
		fetcher:     f,
		periodYears: DefaultPeriodYears,
		expiration:  DefaultExpiration,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PeriodYears returns the configured look-back.
func (r *Resolver) PeriodYears() int {
	return r.periodYears
}

// Resolve returns the CAGR of symbol in percent.
//
// ok is false with a nil error when the source has no data for the symbol;
// nothing is cached in that case so the next call fetches again. A non-nil
// error means the value is unavailable because the fetch or the computation
// failed.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (float64, bool, error) {
	if value, ok := r.lookup(symbol); ok {
		r.metrics.Resolution(StatusCached)
		return value, true, nil
	}

	// Concurrent misses for one symbol share a single fetch. It runs detached
	// from the caller that started it, so a caller giving up only stops its own
	// wait; the pool's fetch timeout still bounds the fetch.
	shared := context.WithoutCancel(ctx)
	ch := r.inflight.DoChan(symbol, func() (interface{}, error) {
		value, err := r.refresh(shared, symbol)
		return value, err
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		r.metrics.Resolution(StatusUnavailable)
		return 0, false, errors.Wrapf(ctx.Err(), "resolving %s", symbol)
	}
	if res.Err != nil {
		r.metrics.Resolution(StatusUnavailable)
		return 0, false, res.Err
	}

	value, ok := res.Val.(*float64)
	if !ok || value == nil {
		r.metrics.Resolution(StatusNoData)
		return 0, false, nil
	}
	r.metrics.Resolution(StatusResolved)
	return *value, true, nil
}

func (r *Resolver) lookup(symbol string) (float64, bool) {
	logger := log.WithField("symbol", symbol)

	rec, found := r.store.Get(symbol)
	switch {
	case !found:
		r.metrics.CacheLookup(metrics.LookupMiss)
		logger.Debug("cache miss")
		return 0, false
	case rec.Symbol != symbol:
		r.metrics.CacheLookup(metrics.LookupMismatch)
		logger.Debugf("cache record carries symbol %q, refetching", rec.Symbol)
		return 0, false
	case !rec.Valid(symbol, r.now(), r.expiration):
		r.metrics.CacheLookup(metrics.LookupExpired)
		logger.Debugf("cache record from %s expired", rec.ComputedAt().Format(time.RFC3339))
		return 0, false
	}

	r.metrics.CacheLookup(metrics.LookupHit)
	logger.Debug("cache hit")
	return rec.Value, true
}

// refresh fetches the series, computes the rate and writes it back.
// A nil *float64 means no data.
func (r *Resolver) refresh(ctx context.Context, symbol string) (*float64, error) {
	logger := log.WithField("symbol", symbol)

	end := r.now()
	start := end.AddDate(0, 0, -r.periodYears*daysPerYear)

	series, err := r.fetcher.Fetch(ctx, symbol, start, end)
	if err != nil {
		logger.Errorf("fetch failed: %v", err)
		return nil, errors.Wrapf(err, "unable to fetch %s", symbol)
	}

	startPrice, endPrice, ok := SelectPrices(series)
	if !ok {
		logger.Info("no price data, not caching")
		return nil, nil
	}

	value, err := Compute(startPrice, endPrice, float64(r.periodYears))
	if err != nil {
		logger.Errorf("growth computation failed: %v", err)
		return nil, errors.Wrapf(err, "unable to compute growth for %s", symbol)
	}

	rec := types.NewCacheRecord(symbol, value, r.now())
	if err := r.store.Put(symbol, rec); err != nil {
		// The value is still good; only persistence failed.
		logger.Warnf("failed to persist cache record: %v", err)
	}

	logger.Debugf("resolved growth %.4f%% from %d points", value, len(series.Points))
	return &value, nil
}
