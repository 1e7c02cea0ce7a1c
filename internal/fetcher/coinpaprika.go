package fetcher

import (
	"context"
	"time"

	"growth-calculator/internal/types"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	coinpaprikaInterval = "7d"
	coinpaprikaLimit    = 5000
)

// Coinpaprika reads weekly USD prices for crypto assets by coin id (e.g. btc-bitcoin).
type Coinpaprika struct {
	client *coinpaprika.Client
}

// NewCoinpaprika returns a Coinpaprika source, using the pro API when a key is set.
func NewCoinpaprika(apiProKey string) *Coinpaprika {
	if apiProKey != "" {
		return &Coinpaprika{client: coinpaprika.NewClient(nil, coinpaprika.WithAPIKey(apiProKey))}
	}
	return &Coinpaprika{client: coinpaprika.NewClient(nil)}
}

type tickersResult struct {
	tickers []*coinpaprika.TickerHistorical
	err     error
}

// Fetch implements Fetcher. The client has no context support, so the call runs
// on its own goroutine and Fetch returns early when ctx is done.
func (c *Coinpaprika) Fetch(ctx context.Context, coinID string, start, end time.Time) (types.Series, error) {
	done := make(chan tickersResult, 1)
	go func() {
		opts := &coinpaprika.TickersHistoricalOptions{
			Quote:    "USD",
			Limit:    coinpaprikaLimit,
			Interval: coinpaprikaInterval,
			Start:    start,
		}
		tickers, err := c.client.Tickers.GetHistoricalTickersByID(coinID, opts)
		done <- tickersResult{tickers: tickers, err: err}
	}()

	select {
	case <-ctx.Done():
		return types.Series{Symbol: coinID}, errors.Wrapf(ctx.Err(), "historical tickers for %s", coinID)
	case r := <-done:
		if r.err != nil {
			return types.Series{Symbol: coinID}, errors.Wrapf(r.err, "unable to fetch historical tickers for %s", coinID)
		}
		log.WithField("symbol", coinID).Debugf("received %d historical tickers", len(r.tickers))
		return seriesFromTickers(coinID, r.tickers, start, end), nil
	}
}

func seriesFromTickers(coinID string, tickers []*coinpaprika.TickerHistorical, start, end time.Time) types.Series {
	points := make([]types.PricePoint, 0, len(tickers))
	for _, t := range tickers {
		if t == nil || t.Timestamp == nil || t.Price == nil || *t.Price <= 0 {
			continue
		}
		points = append(points, types.PricePoint{
			Date:        t.Timestamp.UTC(),
			Close:       *t.Price,
			AdjClose:    *t.Price,
			HasAdjClose: true,
		})
	}
	return types.Series{Symbol: coinID, Points: normalize(points, start, end)}
}
