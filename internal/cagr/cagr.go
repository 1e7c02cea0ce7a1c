package cagr

import (
	"math"

	"growth-calculator/internal/types"

	"github.com/pkg/errors"
)

// Computation errors. They mark a symbol unavailable and are never cached.
var (
	ErrInvalidStartPrice = errors.New("start price must be positive")
	ErrInvalidPeriod     = errors.New("period must be positive")
	ErrNotFinite         = errors.New("growth rate is not finite")
)

// Compute returns the compound annual growth rate, in percent, that turns
// start into end over years.
func Compute(start, end, years float64) (float64, error) {
	if years <= 0 || math.IsNaN(years) || math.IsInf(years, 0) {
		return 0, errors.Wrapf(ErrInvalidPeriod, "got %v", years)
	}
	if start <= 0 || math.IsNaN(start) || math.IsInf(start, 0) {
		return 0, errors.Wrapf(ErrInvalidStartPrice, "got %v", start)
	}

	rate := (math.Pow(end/start, 1/years) - 1) * 100
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, errors.Wrapf(ErrNotFinite, "start %v end %v", start, end)
	}
	return rate, nil
}

// SelectPrices returns the first and last prices of series. Adjusted closes
// are used when both endpoints carry one, raw closes otherwise.
func SelectPrices(series types.Series) (start, end float64, ok bool) {
	if series.Empty() {
		return 0, 0, false
	}

	first := series.Points[0]
	last := series.Points[len(series.Points)-1]
	if first.HasAdjClose && last.HasAdjClose {
		return first.AdjClose, last.AdjClose, true
	}
	return first.Close, last.Close, true
}
