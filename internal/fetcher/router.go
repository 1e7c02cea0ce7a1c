package fetcher

import (
	"context"
	"strings"
	"time"

	"growth-calculator/internal/metrics"
	"growth-calculator/internal/types"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// CoinPrefix marks symbols served by the crypto source, e.g. "coin:btc-bitcoin".
const CoinPrefix = "coin:"

// Source names used as metric labels.
const (
	SourceStocks = "yahoo"
	SourceCrypto = "coinpaprika"
)

// Router dispatches a symbol to the source that understands it.
type Router struct {
	Stocks  Fetcher
	Crypto  Fetcher
	Metrics *metrics.Metrics
}

// Fetch implements Fetcher. The returned series keeps the caller's symbol.
func (r *Router) Fetch(ctx context.Context, symbol string, start, end time.Time) (types.Series, error) {
	source, f, upstream := r.route(symbol)
	if f == nil {
		return types.Series{Symbol: symbol}, errors.Wrap(ErrUnknownSymbol, symbol)
	}

	began := time.Now()
	series, err := f.Fetch(ctx, upstream, start, end)
	elapsed := time.Since(began)
	r.Metrics.ObserveFetch(source, elapsed.Seconds(), err)

	log.WithFields(log.Fields{
		"symbol":  symbol,
		"source":  source,
		"points":  len(series.Points),
		"elapsed": elapsed,
	}).Debug("fetch completed")

	series.Symbol = symbol
	return series, err
}

func (r *Router) route(symbol string) (string, Fetcher, string) {
	if id, ok := strings.CutPrefix(symbol, CoinPrefix); ok {
		return SourceCrypto, r.Crypto, id
	}
	return SourceStocks, r.Stocks, symbol
}
