package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "growthcalc"

// Cache lookup results.
const (
	LookupHit      = "hit"
	LookupMiss     = "miss"
	LookupExpired  = "expired"
	LookupMismatch = "mismatch"
)

// Metrics groups the collectors shared by the resolver, fetcher and web layer.
type Metrics struct {
	CacheLookups  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	FetchErrors   *prometheus.CounterVec
	Resolutions   *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
	BotCommands   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by result",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetcher",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of upstream price history fetches",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetcher",
			Name:      "errors_total",
			Help:      "Failed upstream fetches",
		}, []string{"source"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cagr",
			Name:      "resolutions_total",
			Help:      "CAGR resolutions by status",
		}, []string{"status"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "web",
			Name:      "http_requests_total",
			Help:      "The total number of handled HTTP requests",
		}, []string{"path", "code"}),
		BotCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "telegram_bot",
			Name:      "commands_processed",
			Help:      "The total number of processed commands",
		}, []string{"command"}),
	}

	reg.MustRegister(m.CacheLookups)
	reg.MustRegister(m.FetchDuration)
	reg.MustRegister(m.FetchErrors)
	reg.MustRegister(m.Resolutions)
	reg.MustRegister(m.HTTPRequests)
	reg.MustRegister(m.BotCommands)

	return m
}

// Nop returns collectors registered with a private registry. Used when the
// caller does not expose metrics.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveFetch(source string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(source).Observe(seconds)
	if err != nil {
		m.FetchErrors.WithLabelValues(source).Inc()
	}
}

func (m *Metrics) Resolution(status string) {
	if m == nil {
		return
	}
	m.Resolutions.WithLabelValues(status).Inc()
}

func (m *Metrics) BotCommand(command string) {
	if m == nil {
		return
	}
	m.BotCommands.WithLabelValues(command).Inc()
}
