package commands

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrUsage is returned when a command gets the wrong number or kind of arguments.
var ErrUsage = errors.New("invalid command arguments")

// parseNumbers reads exactly n numbers from a space separated argument string.
// Thousand separators, currency and percent signs are ignored.
func parseNumbers(argument string, n int) ([]float64, error) {
	fields := strings.Fields(argument)
	if len(fields) != n {
		return nil, errors.Wrapf(ErrUsage, "expected %d numbers, got %d", n, len(fields))
	}

	numbers := make([]float64, 0, n)
	for _, f := range fields {
		cleaned := strings.NewReplacer(",", "", "%", "", "$", "", "₪", "").Replace(f)
		v, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil, errors.Wrapf(ErrUsage, "%q is not a number", f)
		}
		numbers = append(numbers, v)
	}
	return numbers, nil
}

func cacheKey(command string, numbers []float64) string {
	parts := make([]string, 0, len(numbers)+1)
	parts = append(parts, command)
	for _, n := range numbers {
		parts = append(parts, strconv.FormatFloat(n, 'f', -1, 64))
	}
	return strings.Join(parts, "|")
}
