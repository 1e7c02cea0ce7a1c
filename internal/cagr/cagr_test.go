package cagr

import (
	"math"
	"testing"
	"time"

	"growth-calculator/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	t.Run("doubling over ten years", func(t *testing.T) {
		got, err := Compute(100, 200, 10)
		require.NoError(t, err)
		assert.InDelta(t, (math.Pow(2, 0.1)-1)*100, got, 1e-9)
		assert.InDelta(t, 7.177, got, 1e-3)
	})

	t.Run("decline is negative", func(t *testing.T) {
		got, err := Compute(200, 100, 10)
		require.NoError(t, err)
		assert.Less(t, got, 0.0)
	})

	t.Run("flat is zero", func(t *testing.T) {
		got, err := Compute(50, 50, 3)
		require.NoError(t, err)
		assert.InDelta(t, 0, got, 1e-12)
	})

	t.Run("zero start price", func(t *testing.T) {
		_, err := Compute(0, 100, 10)
		assert.ErrorIs(t, err, ErrInvalidStartPrice)
	})

	t.Run("nan start price", func(t *testing.T) {
		_, err := Compute(math.NaN(), 100, 10)
		assert.ErrorIs(t, err, ErrInvalidStartPrice)
	})

	t.Run("zero period", func(t *testing.T) {
		_, err := Compute(100, 200, 0)
		assert.ErrorIs(t, err, ErrInvalidPeriod)
	})

	t.Run("negative end price", func(t *testing.T) {
		_, err := Compute(100, -1, 10)
		assert.ErrorIs(t, err, ErrNotFinite)
	})
}

func TestSelectPrices(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC) }

	t.Run("prefers adjusted close", func(t *testing.T) {
		s := types.Series{Points: []types.PricePoint{
			{Date: day(1), Close: 100, AdjClose: 90, HasAdjClose: true},
			{Date: day(2), Close: 150, AdjClose: 140, HasAdjClose: true},
			{Date: day(3), Close: 200, AdjClose: 190, HasAdjClose: true},
		}}
		start, end, ok := SelectPrices(s)
		require.True(t, ok)
		assert.Equal(t, 90.0, start)
		assert.Equal(t, 190.0, end)
	})

	t.Run("falls back to close", func(t *testing.T) {
		s := types.Series{Points: []types.PricePoint{
			{Date: day(1), Close: 100},
			{Date: day(3), Close: 200, AdjClose: 190, HasAdjClose: true},
		}}
		start, end, ok := SelectPrices(s)
		require.True(t, ok)
		assert.Equal(t, 100.0, start)
		assert.Equal(t, 200.0, end)
	})

	t.Run("empty series", func(t *testing.T) {
		_, _, ok := SelectPrices(types.Series{})
		assert.False(t, ok)
	})
}
