package commands

import (
	"context"
	"fmt"
	"strings"

	"growth-calculator/internal/index"
	"growth-calculator/internal/types"
	"growth-calculator/lib/helpers"
	"growth-calculator/lib/translation"

	log "github.com/sirupsen/logrus"
)

// IndexResolver resolves growth rates for every index in an IndexSpec.
type IndexResolver interface {
	ResolveAll(ctx context.Context, spec types.IndexSpec) []index.Outcome
}

// CommandCAGR renders the growth rate of every index as a MarkdownV2 list.
func CommandCAGR(ctx context.Context, r IndexResolver, spec types.IndexSpec, periodYears int) string {
	log.Debugf("processing command /cagr for %d indices", len(spec))

	outcomes := r.ResolveAll(ctx, spec)

	var sb strings.Builder
	sb.WriteString("*")
	sb.WriteString(helpers.EscapeMarkdownV2(translation.Translate("%d-year CAGR", periodYears)))
	sb.WriteString("*\n\n")

	for _, o := range outcomes {
		sb.WriteString(fmt.Sprintf("▫️ %s \\(%s\\): %s\n",
			helpers.EscapeMarkdownV2(o.Name),
			helpers.EscapeMarkdownV2(o.Symbol),
			formatOutcome(o),
		))
	}
	return sb.String()
}

func formatOutcome(o index.Outcome) string {
	switch o.Status {
	case index.StatusResolved:
		return "`" + helpers.EscapeMarkdownV2(helpers.FormatPercent(o.Value)) + "`"
	case index.StatusNoData:
		return "_" + helpers.EscapeMarkdownV2(translation.Translate("no data")) + "_"
	default:
		return "_" + helpers.EscapeMarkdownV2(translation.Translate("unavailable")) + "_"
	}
}
