package commands

import (
	"fmt"
	"time"

	"growth-calculator/internal/chart"
	"growth-calculator/internal/interest"
	"growth-calculator/lib/helpers"
	"growth-calculator/lib/translation"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const chartCacheDuration = 10 * time.Minute

// CommandInterest handles "/interest PRINCIPAL RATE YEARS".
func CommandInterest(argument string) (string, error) {
	log.Debugf("processing command /interest with argument :%s", argument)

	n, err := parseNumbers(argument, 3)
	if err != nil {
		return "", err
	}

	earned, err := interest.Simple(n[0], n[1], n[2])
	if err != nil {
		return "", errors.Wrap(err, "command /interest")
	}

	lang := translation.GetLanguage()
	return fmt.Sprintf("*%s*\n\n▫️%s: `%s`\n▫️%s: `%s`",
		helpers.EscapeMarkdownV2(translation.Translate("Simple interest")),
		helpers.EscapeMarkdownV2(translation.Translate("Interest")),
		helpers.EscapeMarkdownV2(helpers.FormatAmount(earned, lang)),
		helpers.EscapeMarkdownV2(translation.Translate("Final amount")),
		helpers.EscapeMarkdownV2(helpers.FormatAmount(n[0]+earned, lang)),
	), nil
}

// CommandInvest handles "/invest INITIAL MONTHLY RATE YEARS" and returns a
// growth chart with its caption.
func CommandInvest(argument string) ([]byte, string, error) {
	log.Debugf("processing command /invest with argument :%s", argument)

	n, err := parseNumbers(argument, 4)
	if err != nil {
		return nil, "", err
	}

	key := cacheKey("invest", n)
	if cachedItem, found := cacheGet(key); found {
		log.Debugf("returning cached result for %s", key)
		return cachedItem.ChartData, cachedItem.Caption, nil
	}

	final, err := interest.FinalAmount(n[0], n[1], n[2], n[3])
	if err != nil {
		return nil, "", errors.Wrap(err, "command /invest")
	}

	lang := translation.GetLanguage()
	caption := fmt.Sprintf("*%s:* `%s`",
		helpers.EscapeMarkdownV2(translation.Translate("Final amount")),
		helpers.EscapeMarkdownV2(helpers.FormatAmount(final, lang)),
	)

	chartData, err := InvestmentChart(n[0], n[1], n[2], n[3])
	if err != nil {
		// Too short a horizon to plot; the amount alone still answers.
		if errors.Is(err, chart.ErrNoData) {
			return nil, caption, nil
		}
		return nil, "", err
	}

	cacheSet(key, chartData, caption, chartCacheDuration)
	return chartData, caption, nil
}

// CommandGoal handles "/goal TARGET YEARS RATE".
func CommandGoal(argument string) (string, error) {
	log.Debugf("processing command /goal with argument :%s", argument)

	n, err := parseNumbers(argument, 3)
	if err != nil {
		return "", err
	}

	monthly, initial, err := interest.Goal(n[0], n[1], n[2])
	if err != nil {
		return "", errors.Wrap(err, "command /goal")
	}

	lang := translation.GetLanguage()
	return fmt.Sprintf("*%s*\n\n▫️%s: `%s`\n▫️%s: `%s`",
		helpers.EscapeMarkdownV2(translation.Translate("Savings plan")),
		helpers.EscapeMarkdownV2(translation.Translate("Recommended monthly deposit")),
		helpers.EscapeMarkdownV2(helpers.FormatAmount(monthly, lang)),
		helpers.EscapeMarkdownV2(translation.Translate("Recommended initial deposit")),
		helpers.EscapeMarkdownV2(helpers.FormatAmount(initial, lang)),
	), nil
}

// InvestmentChart plots principal and interest of an investment over time.
func InvestmentChart(initial, monthly, annualRatePct, years float64) ([]byte, error) {
	points, unit, err := interest.Schedule(initial, monthly, annualRatePct, years)
	if err != nil {
		return nil, err
	}

	principal := make([]float64, len(points))
	earned := make([]float64, len(points))
	for i, p := range points {
		principal[i] = p.Principal
		earned[i] = p.Interest
	}

	xName := translation.Translate("Years")
	if unit == interest.Months {
		xName = translation.Translate("Months")
	}

	return chart.Lines(
		translation.Translate("Investment growth"),
		xName,
		translation.Translate("Amount"),
		[]chart.Line{
			{Name: translation.Translate("Invested capital"), Values: principal},
			{Name: translation.Translate("Compound interest"), Values: earned},
		},
		helpers.FormatCompact,
	)
}
