// Package interest implements the calculator arithmetic: simple interest,
// monthly-compounded investments with contributions and goal planning.
package interest

import (
	"math"

	"github.com/pkg/errors"
)

const monthsPerYear = 12

// ErrInvalidInput is returned for NaN amounts or a non-positive horizon.
var ErrInvalidInput = errors.New("invalid calculator input")

// Point is one step of a growth schedule.
type Point struct {
	Period    int     `json:"period"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
}

// Total returns principal plus interest.
func (p Point) Total() float64 {
	return p.Principal + p.Interest
}

// Unit is the schedule granularity.
type Unit string

const (
	Months Unit = "months"
	Years  Unit = "years"
)

// Simple returns principal*rate*years/100.
func Simple(principal, ratePct, years float64) (float64, error) {
	if anyNaN(principal, ratePct, years) || years < 0 {
		return 0, ErrInvalidInput
	}
	return principal * ratePct * years / 100, nil
}

// FinalAmount returns the value after years of monthly compounding at
// annualRatePct with a monthly contribution made at the end of each month.
func FinalAmount(initial, monthly, annualRatePct, years float64) (float64, error) {
	if err := validate(initial, monthly, annualRatePct, years); err != nil {
		return 0, err
	}
	return valueAfter(initial, monthly, annualRatePct/100, years*monthsPerYear), nil
}

// Schedule returns the growth of an investment split into principal paid in
// and interest earned. Horizons under two years are reported per month, longer
// ones per whole year.
func Schedule(initial, monthly, annualRatePct, years float64) ([]Point, Unit, error) {
	if err := validate(initial, monthly, annualRatePct, years); err != nil {
		return nil, "", err
	}

	r := annualRatePct / 100
	step, count, unit := 1, int(math.Round(years*monthsPerYear)), Months
	if years >= 2 {
		step, count, unit = monthsPerYear, int(math.Floor(years)), Years
	}

	points := make([]Point, 0, count+1)
	for i := 0; i <= count; i++ {
		months := float64(i * step)
		total := valueAfter(initial, monthly, r, months)
		principal := initial + monthly*months
		points = append(points, Point{
			Period:    i,
			Principal: roundCents(principal),
			Interest:  roundCents(total - principal),
		})
	}
	return points, unit, nil
}

// Goal returns the monthly deposit, and the matching initial deposit, needed to
// reach target in years at annualRatePct when the same amount is paid in up
// front for every month and then monthly.
func Goal(target, years, annualRatePct float64) (monthly, initial float64, err error) {
	if anyNaN(target, years, annualRatePct) || years <= 0 {
		return 0, 0, ErrInvalidInput
	}

	months := years * monthsPerYear
	r := annualRatePct / 100 / monthsPerYear
	factor := math.Pow(1+r, months)

	// (factor-1)/r tends to months as r approaches zero.
	annuity := months
	if r != 0 {
		annuity = (factor - 1) / r
	}

	denominator := months*factor + annuity
	if denominator <= 0 || math.IsInf(denominator, 0) {
		return 0, 0, ErrInvalidInput
	}

	monthly = target / denominator
	return monthly, monthly * months, nil
}

func valueAfter(initial, monthly, annualRate, months float64) float64 {
	if annualRate <= 0 {
		return initial + monthly*months
	}
	r := annualRate / monthsPerYear
	factor := math.Pow(1+r, months)
	return initial*factor + monthly*(factor-1)/r
}

func validate(initial, monthly, annualRatePct, years float64) error {
	if anyNaN(initial, monthly, annualRatePct, years) || years <= 0 {
		return ErrInvalidInput
	}
	return nil
}

func anyNaN(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
