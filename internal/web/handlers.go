package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"growth-calculator/internal/chart"
	"growth-calculator/internal/commands"
	"growth-calculator/internal/index"
	"growth-calculator/internal/interest"
	"growth-calculator/internal/types"
	"growth-calculator/lib/helpers"
	"growth-calculator/lib/translation"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var errBadForm = errors.New("invalid form input")

type cagrRow struct {
	index.Outcome
	Age string
}

type cagrJSON struct {
	Name       string       `json:"name"`
	Symbol     string       `json:"symbol"`
	Value      *float64     `json:"value"`
	Status     index.Status `json:"status"`
	ComputedAt *time.Time   `json:"computed_at,omitempty"`
}

type cagrResponse struct {
	PeriodYears int        `json:"period_years"`
	Indices     []cagrJSON `json:"indices"`
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "home", nil)
}

func (s *Server) calculate(w http.ResponseWriter, r *http.Request) {
	n, err := formNumbers(r, "principal", "rate", "time")
	if err != nil {
		s.badRequest(w, err)
		return
	}

	earned, err := interest.Simple(n[0], n[1], n[2])
	if err != nil {
		s.badRequest(w, err)
		return
	}

	s.render(w, http.StatusOK, "interest", map[string]interface{}{
		"Principal": n[0],
		"Rate":      n[1],
		"Time":      n[2],
		"Interest":  earned,
	})
}

var investFields = []string{"initial_amount", "monthly_contribution", "annual_interest", "years"}

func (s *Server) invest(w http.ResponseWriter, r *http.Request) {
	n, err := formNumbers(r, investFields...)
	if err != nil {
		s.badRequest(w, err)
		return
	}

	final, err := interest.FinalAmount(n[0], n[1], n[2], n[3])
	if err != nil {
		s.badRequest(w, err)
		return
	}
	points, unit, err := interest.Schedule(n[0], n[1], n[2], n[3])
	if err != nil {
		s.badRequest(w, err)
		return
	}

	query := url.Values{}
	for i, f := range investFields {
		query.Set(f, strconv.FormatFloat(n[i], 'f', -1, 64))
	}

	s.render(w, http.StatusOK, "invest", map[string]interface{}{
		"Final":    final,
		"Points":   points,
		"Monthly":  unit == interest.Months,
		"ChartURL": "/invest/chart.png?" + query.Encode(),
		"HasChart": len(points) > 1,
	})
}

func (s *Server) investChart(w http.ResponseWriter, r *http.Request) {
	n, err := formNumbers(r, investFields...)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	png, err := commands.InvestmentChart(n[0], n[1], n[2], n[3])
	switch {
	case errors.Is(err, chart.ErrNoData), errors.Is(err, interest.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		log.Errorf("could not render investment chart: %v", err)
		http.Error(w, "could not render chart", http.StatusInternalServerError)
		return
	}
	writePNG(w, png)
}

func (s *Server) goal(w http.ResponseWriter, r *http.Request) {
	n, err := formNumbers(r, "target_amount", "target_years", "target_interest")
	if err != nil {
		s.badRequest(w, err)
		return
	}

	monthly, initial, err := interest.Goal(n[0], n[1], n[2])
	if err != nil {
		s.badRequest(w, err)
		return
	}

	s.render(w, http.StatusOK, "goal", map[string]interface{}{
		"Target":  n[0],
		"Years":   n[1],
		"Rate":    n[2],
		"Monthly": monthly,
		"Initial": initial,
	})
}

func (s *Server) cagrPage(w http.ResponseWriter, r *http.Request) {
	outcomes := s.indices.ResolveAll(r.Context(), s.spec)

	now := s.now()
	snapshot := s.snapshot()
	rows := make([]cagrRow, 0, len(outcomes))
	for _, o := range outcomes {
		row := cagrRow{Outcome: o}
		if rec, ok := snapshot[o.Symbol]; ok && o.Available() {
			row.Age = helpers.FormatAge(rec.ComputedAt(), now)
		}
		rows = append(rows, row)
	}

	s.render(w, http.StatusOK, "cagr", map[string]interface{}{
		"PeriodYears": s.periodYears,
		"Rows":        rows,
	})
}

func (s *Server) cagrChart(w http.ResponseWriter, r *http.Request) {
	outcomes := s.indices.ResolveAll(r.Context(), s.spec)

	bars := make([]chart.Bar, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Available() {
			bars = append(bars, chart.Bar{Label: o.Name, Value: o.Value})
		}
	}

	png, err := chart.GrowthBars(translation.Translate("%d-year CAGR", s.periodYears), bars)
	switch {
	case errors.Is(err, chart.ErrNoData):
		http.Error(w, "no growth rates available", http.StatusServiceUnavailable)
		return
	case err != nil:
		log.Errorf("could not render CAGR chart: %v", err)
		http.Error(w, "could not render chart", http.StatusInternalServerError)
		return
	}
	writePNG(w, png)
}

func (s *Server) cagrAPI(w http.ResponseWriter, r *http.Request) {
	outcomes := s.indices.ResolveAll(r.Context(), s.spec)
	snapshot := s.snapshot()

	resp := cagrResponse{PeriodYears: s.periodYears, Indices: make([]cagrJSON, 0, len(outcomes))}
	for _, o := range outcomes {
		item := cagrJSON{Name: o.Name, Symbol: o.Symbol, Status: o.Status}
		if o.Available() {
			value := o.Value
			item.Value = &value
			if rec, ok := snapshot[o.Symbol]; ok {
				at := rec.ComputedAt().UTC()
				item.ComputedAt = &at
			}
		}
		resp.Indices = append(resp.Indices, item)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) snapshot() map[string]types.CacheRecord {
	if s.records == nil {
		return nil
	}
	return s.records.Snapshot()
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data interface{}) {
	var buf bytes.Buffer
	if err := s.templates[page].Execute(&buf, data); err != nil {
		log.Errorf("could not render page %s: %v", page, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	log.Debugf("rejected form: %v", err)
	s.render(w, http.StatusBadRequest, "error", map[string]interface{}{
		"Message": translation.Translate("Please enter valid numbers"),
	})
}

// formNumbers reads the named fields from the query string or a posted form.
func formNumbers(r *http.Request, fields ...string) ([]float64, error) {
	if err := r.ParseForm(); err != nil {
		return nil, errors.Wrap(errBadForm, err.Error())
	}

	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		raw := strings.TrimSpace(strings.ReplaceAll(r.Form.Get(f), ",", ""))
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Wrapf(errBadForm, "field %s: %q", f, raw)
		}
		values = append(values, v)
	}
	return values, nil
}

func writePNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	_, _ = w.Write(png)
}
