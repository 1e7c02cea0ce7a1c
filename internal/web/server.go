// Package web serves the calculator pages, the CAGR table and its JSON API.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"growth-calculator/internal/index"
	"growth-calculator/internal/metrics"
	"growth-calculator/internal/types"
	"growth-calculator/lib/helpers"
	"growth-calculator/lib/translation"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"home", "interest", "invest", "goal", "cagr", "error"}

// IndexResolver resolves growth rates for every index in an IndexSpec.
type IndexResolver interface {
	ResolveAll(ctx context.Context, spec types.IndexSpec) []index.Outcome
}

// RecordSource exposes the cached records, used to show their age.
type RecordSource interface {
	Snapshot() map[string]types.CacheRecord
}

type Config struct {
	Indices     IndexResolver
	Records     RecordSource
	Spec        types.IndexSpec
	PeriodYears int
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

type Server struct {
	indices     IndexResolver
	records     RecordSource
	spec        types.IndexSpec
	periodYears int
	metrics     *metrics.Metrics
	now         func() time.Time
	templates   map[string]*template.Template
}

func NewServer(c Config) (*Server, error) {
	s := &Server{
		indices:     c.Indices,
		records:     c.Records,
		spec:        c.Spec,
		periodYears: c.PeriodYears,
		metrics:     c.Metrics,
		now:         c.Now,
		templates:   make(map[string]*template.Template, len(pages)),
	}
	if s.now == nil {
		s.now = time.Now
	}

	funcs := template.FuncMap{
		"T":       func(msgID string, vars ...interface{}) string { return translation.Translate(msgID, vars...) },
		"amount":  func(v float64) string { return helpers.FormatAmount(v, translation.GetLanguage()) },
		"percent": helpers.FormatPercent,
		"rtl":     translation.IsRTL,
		"lang":    translation.GetLanguage,
	}
	for _, page := range pages {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse template %s", page)
		}
		s.templates[page] = t
	}
	return s, nil
}

// Handler returns the routed handler wrapped in recovery and access logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	routes := []struct {
		pattern string
		path    string
		handler http.HandlerFunc
	}{
		{"GET /{$}", "/", s.home},
		{"POST /calculate", "/calculate", s.calculate},
		{"POST /invest", "/invest", s.invest},
		{"GET /invest/chart.png", "/invest/chart.png", s.investChart},
		{"POST /goal", "/goal", s.goal},
		{"GET /cagr", "/cagr", s.cagrPage},
		{"GET /cagr/chart.png", "/cagr/chart.png", s.cagrChart},
		{"GET /api/cagr", "/api/cagr", s.cagrAPI},
		{"GET /health", "/health", healthCheckHandler},
	}
	for _, r := range routes {
		mux.Handle(r.pattern, instrument(s.metrics, r.path, r.handler))
	}

	return Chain(
		mux,
		RecoveryMiddleware,
		LoggingMiddleware,
	)
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Launching web server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "web server stopped")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "web server shutdown")
	}
	return nil
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
