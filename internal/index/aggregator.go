// Package index resolves growth rates for a list of named indices at once.
package index

import (
	"context"
	"runtime/debug"

	"growth-calculator/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds simultaneous resolutions within one aggregation.
const DefaultConcurrency = 8

// Status of a single index in an aggregation.
type Status string

const (
	StatusResolved    Status = "resolved"
	StatusNoData      Status = "no_data"
	StatusUnavailable Status = "unavailable"
)

// Resolver resolves one symbol. See cagr.Resolver.
type Resolver interface {
	Resolve(ctx context.Context, symbol string) (float64, bool, error)
}

// Outcome is the result for one index.
type Outcome struct {
	types.Index
	Value  float64 `json:"value"`
	Status Status  `json:"status"`
	Err    error   `json:"-"`
}

// Available reports whether Value holds a growth rate.
func (o Outcome) Available() bool {
	return o.Status == StatusResolved
}

// Aggregator fans resolutions out across an IndexSpec.
type Aggregator struct {
	resolver    Resolver
	concurrency int
}

// NewAggregator returns an aggregator running at most concurrency resolutions at once.
func NewAggregator(r Resolver, concurrency int) *Aggregator {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Aggregator{resolver: r, concurrency: concurrency}
}

// ResolveAll resolves every index concurrently and returns outcomes in list
// order. A failing index is reported as unavailable; it never fails the rest.
func (a *Aggregator) ResolveAll(ctx context.Context, spec types.IndexSpec) []Outcome {
	outcomes := make([]Outcome, len(spec))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, idx := range spec {
		g.Go(func() error {
			outcomes[i] = a.resolveOne(gCtx, idx)
			// Always nil so one index cannot cancel the others.
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (a *Aggregator) resolveOne(ctx context.Context, idx types.Index) (out Outcome) {
	out = Outcome{Index: idx}

	defer func() {
		if r := recover(); r != nil {
			log.WithField("symbol", idx.Symbol).Errorf("Recovered from panic: %v\nStack trace: %s", r, debug.Stack())
			out.Value = 0
			out.Status = StatusUnavailable
			out.Err = errors.Errorf("resolving %s panicked: %v", idx.Symbol, r)
		}
	}()

	value, ok, err := a.resolver.Resolve(ctx, idx.Symbol)
	switch {
	case err != nil:
		log.WithFields(log.Fields{"index": idx.Name, "symbol": idx.Symbol}).Warnf("growth unavailable: %v", err)
		out.Status = StatusUnavailable
		out.Err = err
	case !ok:
		out.Status = StatusNoData
	default:
		out.Status = StatusResolved
		out.Value = value
	}
	return out
}
