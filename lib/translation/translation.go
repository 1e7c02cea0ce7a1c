package translation

import (
	"strings"

	"github.com/leonelquinteros/gotext"
)

// Configure loads the catalog for lang from the locales directory. Locale
// names such as "he_IL.UTF-8" select the "he" catalog.
func Configure(localesDir, lang string) {
	gotext.Configure(localesDir, normalize(lang), "default")
}

func normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "._-"); i > 0 {
		lang = lang[:i]
	}
	return lang
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

// IsRTL reports whether the active language is written right to left.
func IsRTL() bool {
	switch GetLanguage() {
	case "he", "ar":
		return true
	}
	return false
}

func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
