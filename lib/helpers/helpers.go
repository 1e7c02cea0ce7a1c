package helpers

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func EscapeMarkdownV2(text string) string {
	charactersToEscape := []string{"\\", ".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}

	for _, char := range charactersToEscape {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

// FormatAmount formats a money amount with thousands separators and two decimals.
func FormatAmount(amount float64, lang string) string {
	p := message.NewPrinter(tagFor(lang))
	return p.Sprintf("%.2f", amount)
}

// FormatPercent formats a growth rate with sign, e.g. "+7.18%".
func FormatPercent(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "N/A"
	}
	return fmt.Sprintf("%+.2f%%", value)
}

// FormatCompact formats large amounts for chart axes, e.g. "1.2M".
func FormatCompact(amount float64) string {
	if math.Abs(amount) < 1000 {
		return humanize.CommafWithDigits(amount, 0)
	}
	value, suffix := humanize.ComputeSI(amount)
	return humanize.FtoaWithDigits(value, 1) + strings.ToUpper(suffix)
}

// FormatAge returns a relative age such as "3 hours ago".
func FormatAge(t, now time.Time) string {
	return humanize.RelTime(t, now, "ago", "from now")
}

func tagFor(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return language.English
	}
	return tag
}
