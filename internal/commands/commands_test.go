package commands

import (
	"context"
	"testing"

	"growth-calculator/internal/index"
	"growth-calculator/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndexResolver struct {
	outcomes []index.Outcome
}

func (f fakeIndexResolver) ResolveAll(_ context.Context, _ types.IndexSpec) []index.Outcome {
	return f.outcomes
}

func TestCommandCAGR(t *testing.T) {
	r := fakeIndexResolver{outcomes: []index.Outcome{
		{Index: types.Index{Name: "S&P 500", Symbol: "^GSPC"}, Value: 11.25, Status: index.StatusResolved},
		{Index: types.Index{Name: "TA-125", Symbol: "^TA125.TA"}, Status: index.StatusNoData},
		{Index: types.Index{Name: "Russell 2000", Symbol: "^RUT"}, Status: index.StatusUnavailable},
	}}

	text := CommandCAGR(context.Background(), r, index.DefaultSpec(), 10)

	assert.Contains(t, text, "*10\\-year CAGR*")
	assert.Contains(t, text, "S&P 500 \\(^GSPC\\): `\\+11\\.25%`")
	assert.Contains(t, text, "TA\\-125 \\(^TA125\\.TA\\): _no data_")
	assert.Contains(t, text, "Russell 2000 \\(^RUT\\): _unavailable_")
}

func TestCommandInterest(t *testing.T) {
	text, err := CommandInterest("1000 5 2")
	require.NoError(t, err)
	assert.Contains(t, text, "`100\\.00`")
	assert.Contains(t, text, "1,100\\.00")
}

func TestCommandInterestUsage(t *testing.T) {
	for _, arg := range []string{"", "1000 5", "1000 five 2", "1 2 3 4"} {
		t.Run(arg, func(t *testing.T) {
			_, err := CommandInterest(arg)
			assert.ErrorIs(t, err, ErrUsage)
		})
	}
}

func TestCommandGoal(t *testing.T) {
	text, err := CommandGoal("100,000 10 0%")
	require.NoError(t, err)
	assert.Contains(t, text, "`416\\.67`")
	assert.Contains(t, text, "`50,000\\.00`")

	_, err = CommandGoal("100000 0 5")
	assert.Error(t, err)
}

func TestCommandInvest(t *testing.T) {
	data, caption, err := CommandInvest("1000 100 5 10")
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Contains(t, caption, "Final amount")

	cached, cachedCaption, err := CommandInvest("1000 100 5 10")
	require.NoError(t, err)
	assert.Equal(t, data, cached)
	assert.Equal(t, caption, cachedCaption)
}

func TestCommandInvestTooShortToPlot(t *testing.T) {
	data, caption, err := CommandInvest("1000 100 5 0.01")
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.NotEmpty(t, caption)
}

func TestParseNumbers(t *testing.T) {
	n, err := parseNumbers("$1,500 ₪20 7.5%", 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1500, 20, 7.5}, n)
}
