package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
	"github.com/stretchr/testify/require"
)

const chartPayload = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "^GSPC"},
      "timestamp": [1600214400, 1600128000, 1600300800, 1600387200],
      "indicators": {
        "quote": [{"close": [110.0, 100.0, null, 200.0]}],
        "adjclose": [{"adjclose": [109.0, 99.0, null, 198.0]}]
      }
    }],
    "error": null
  }
}`

func newChartServer(t *testing.T, status int, body string) (*httptest.Server, *http.Request) {
	t.Helper()
	var captured http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = *r
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func chartRange() (time.Time, time.Time) {
	return time.Unix(1600000000, 0), time.Unix(1700000000, 0)
}

func TestYahooFetch(t *testing.T) {
	srv, req := newChartServer(t, http.StatusOK, chartPayload)
	start, end := chartRange()

	series, err := NewYahoo(srv.URL, srv.Client()).Fetch(context.Background(), "^GSPC", start, end)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/^GSPC", req.URL.Path)
	assert.Equal(t, "1600000000", req.URL.Query().Get("period1"))
	assert.Equal(t, "1700000000", req.URL.Query().Get("period2"))
	assert.Equal(t, "1d", req.URL.Query().Get("interval"))
	assert.NotEmpty(t, req.Header.Get("User-Agent"))

	require.Len(t, series.Points, 3, "null close must be skipped")
	assert.Equal(t, "^GSPC", series.Symbol)

	// Sorted chronologically regardless of payload order.
	assert.Equal(t, 100.0, series.Points[0].Close)
	assert.Equal(t, 99.0, series.Points[0].AdjClose)
	assert.True(t, series.Points[0].HasAdjClose)
	assert.Equal(t, 110.0, series.Points[1].Close)
	assert.Equal(t, 200.0, series.Points[2].Close)
	assert.True(t, series.Points[0].Date.Before(series.Points[2].Date))
}

func TestYahooFetchWithoutAdjClose(t *testing.T) {
	body := `{"chart":{"result":[{"timestamp":[1600128000,1600214400],"indicators":{"quote":[{"close":[10,20]}]}}],"error":null}}`
	srv, _ := newChartServer(t, http.StatusOK, body)
	start, end := chartRange()

	series, err := NewYahoo(srv.URL, srv.Client()).Fetch(context.Background(), "X", start, end)
	require.NoError(t, err)
	require.Len(t, series.Points, 2)
	assert.False(t, series.Points[0].HasAdjClose)
}

func TestYahooFetchClipsRange(t *testing.T) {
	srv, _ := newChartServer(t, http.StatusOK, chartPayload)

	series, err := NewYahoo(srv.URL, srv.Client()).Fetch(context.Background(), "^GSPC",
		time.Unix(1600200000, 0), time.Unix(1600250000, 0))
	require.NoError(t, err)
	require.Len(t, series.Points, 1)
	assert.Equal(t, 110.0, series.Points[0].Close)
}

func TestYahooFetchEmptyResults(t *testing.T) {
	start, end := chartRange()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http not found", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`},
		{"api not found", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`},
		{"no result", http.StatusOK, `{"chart":{"result":[],"error":null}}`},
		{"no timestamps", http.StatusOK, `{"chart":{"result":[{"indicators":{"quote":[{}]}}],"error":null}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newChartServer(t, tt.status, tt.body)
			series, err := NewYahoo(srv.URL, srv.Client()).Fetch(context.Background(), "NOPE", start, end)
			require.NoError(t, err)
			assert.True(t, series.Empty())
		})
	}
}

func TestYahooFetchErrors(t *testing.T) {
	start, end := chartRange()

	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"server error", http.StatusInternalServerError, `oops`, "status 500"},
		{"malformed json", http.StatusOK, `{"chart": [`, "malformed"},
		{"api error", http.StatusOK, `{"chart":{"result":null,"error":{"code":"Bad Request","description":"Invalid input"}}}`, "Invalid input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newChartServer(t, tt.status, tt.body)
			_, err := NewYahoo(srv.URL, srv.Client()).Fetch(context.Background(), "X", start, end)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), err.Error())
		})
	}
}

func TestYahooFetchHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start, end := chartRange()
	_, err := NewYahoo(srv.URL, srv.Client()).Fetch(ctx, "X", start, end)
	assert.Error(t, err)
}

func TestChartPointsKeepsSkippedFragments(t *testing.T) {
	root := gjson.Parse(`{"t": [1600000000, "bad", 1600200000, 1600300000], "c": [100.0, 101.0, null, -3]}`)

	points, skipped := chartPoints(root.Get("t").Array(), root.Get("c").Array(), nil)
	require.Len(t, points, 1)
	assert.Equal(t, 100.0, points[0].Close)

	require.Len(t, skipped, 3)
	assert.Equal(t, 1, skipped[0].Index)
	assert.Equal(t, `"bad"`, skipped[0].Timestamp.Raw)
	assert.Equal(t, "null", skipped[1].Close.Raw)
	assert.Equal(t, gjson.Null, skipped[1].Close.Type)
	assert.Equal(t, "-3", skipped[2].Close.Raw)

	assert.Len(t, firstN(skipped, 2), 2)
	assert.Len(t, firstN(skipped, 5), 3)
}
