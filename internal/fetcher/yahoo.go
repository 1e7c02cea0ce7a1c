package fetcher

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"growth-calculator/internal/types"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	// DefaultYahooBaseURL is the public chart API host.
	DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

	yahooUserAgent   = "Mozilla/5.0 (compatible; growth-calculator/1.0)"
	maxChartBodySize = 16 << 20
)

// Yahoo reads daily closes from the Yahoo Finance chart API.
type Yahoo struct {
	baseURL string
	client  *http.Client
}

// NewYahoo returns a Yahoo source. A nil client uses http.DefaultClient.
func NewYahoo(baseURL string, client *http.Client) *Yahoo {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Yahoo{baseURL: baseURL, client: client}
}

// Fetch implements Fetcher.
func (y *Yahoo) Fetch(ctx context.Context, symbol string, start, end time.Time) (types.Series, error) {
	series := types.Series{Symbol: symbol}

	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")
	q.Set("includeAdjustedClose", "true")

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(symbol), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return series, errors.Wrap(err, "could not build chart request")
	}
	req.Header.Set("User-Agent", yahooUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		return series, errors.Wrapf(err, "chart request for %s failed", symbol)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxChartBodySize))
	if err != nil {
		return series, errors.Wrapf(err, "could not read chart response for %s", symbol)
	}

	if resp.StatusCode == http.StatusNotFound {
		log.WithField("symbol", symbol).Debug("chart API does not know symbol")
		return series, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return series, errors.Errorf("chart request for %s returned status %d", symbol, resp.StatusCode)
	}

	points, err := parseChart(symbol, body)
	if err != nil {
		return series, err
	}
	series.Points = normalize(points, start, end)
	return series, nil
}

// parseChart extracts price points from a chart API payload. Points without a
// usable close are skipped; a missing adjclose block leaves HasAdjClose unset.
func parseChart(symbol string, body []byte) ([]types.PricePoint, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.Errorf("malformed chart payload for %s", symbol)
	}
	root := gjson.ParseBytes(body)

	if chartErr := root.Get("chart.error"); chartErr.Exists() && chartErr.Type != gjson.Null {
		if chartErr.Get("code").String() == "Not Found" {
			return nil, nil
		}
		return nil, errors.Errorf("chart API error for %s: %s", symbol, chartErr.Get("description").String())
	}

	result := root.Get("chart.result.0")
	if !result.Exists() {
		return nil, nil
	}

	stamps := result.Get("timestamp").Array()
	closes := result.Get("indicators.quote.0.close").Array()
	adjusted := result.Get("indicators.adjclose.0.adjclose").Array()

	points, skipped := chartPoints(stamps, closes, adjusted)
	if len(skipped) > 0 {
		log.WithField("symbol", symbol).Debugf("skipped %d unusable chart points:\n%s", len(skipped), spew.Sdump(firstN(skipped, 5)))
	}
	return points, nil
}

// skippedPoint keeps the raw payload fragments of a dropped chart entry.
type skippedPoint struct {
	Index     int
	Timestamp gjson.Result
	Close     gjson.Result
}

func chartPoints(stamps, closes, adjusted []gjson.Result) ([]types.PricePoint, []skippedPoint) {
	points := make([]types.PricePoint, 0, len(stamps))
	var skipped []skippedPoint
	for i, ts := range stamps {
		if i >= len(closes) {
			break
		}
		closePrice, ok := usablePrice(closes[i])
		if !ok || ts.Type != gjson.Number {
			skipped = append(skipped, skippedPoint{Index: i, Timestamp: ts, Close: closes[i]})
			continue
		}

		p := types.PricePoint{
			Date:  time.Unix(ts.Int(), 0).UTC(),
			Close: closePrice,
		}
		if i < len(adjusted) {
			if adj, ok := usablePrice(adjusted[i]); ok {
				p.AdjClose = adj
				p.HasAdjClose = true
			}
		}
		points = append(points, p)
	}
	return points, skipped
}

func usablePrice(v gjson.Result) (float64, bool) {
	if v.Type != gjson.Number {
		return 0, false
	}
	f := v.Float()
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}

func firstN[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
