package dateutil

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/de"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
	"github.com/go-playground/locales/fr"
	"github.com/go-playground/locales/ja"
	"github.com/go-playground/locales/ko"
)

// Header formats recognized by the week view.
const (
	FormatDayNumber = "D"
	FormatWeekday   = "ddd+"
	FormatMonthDay  = "MMM D"
)

// DefaultLocale is used when a caller passes an unknown locale.
const DefaultLocale = "en"

var (
	translatorsMu sync.Mutex
	translators   = map[string]func() locales.Translator{
		"en": en.New,
		"ko": ko.New,
		"fr": fr.New,
		"de": de.New,
		"es": es.New,
		"ja": ja.New,
	}
	translatorCache = map[string]locales.Translator{}
)

// Translator returns the month/weekday name source for locale. Region
// suffixes ("en-US", "ko_KR") are ignored; unknown locales fall back to
// DefaultLocale.
func Translator(locale string) locales.Translator {
	lang := strings.ToLower(locale)
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	ctor, ok := translators[lang]
	if !ok {
		lang = DefaultLocale
		ctor = translators[lang]
	}

	translatorsMu.Lock()
	defer translatorsMu.Unlock()
	if tr, ok := translatorCache[lang]; ok {
		return tr
	}
	tr := ctor()
	translatorCache[lang] = tr
	return tr
}

// SupportedLocale reports whether locale maps onto a bundled translator.
func SupportedLocale(locale string) bool {
	lang := strings.ToLower(locale)
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	_, ok := translators[lang]
	return ok
}

// formatTokens is ordered longest first so that "MMMM" wins over "MMM".
var formatTokens = []string{
	"YYYY", "YY",
	"MMMM", "MMM", "MM", "M",
	"dddd", "ddd+", "ddd",
	"DD", "D",
}

// Format renders t with a small moment-style vocabulary:
//
//	YYYY YY     year
//	MMMM MMM    month name (wide / abbreviated, localized)
//	MM M        month number (padded / plain)
//	dddd        weekday name (wide, localized)
//	ddd ddd+    weekday name (abbreviated, localized)
//	DD D        day of month (padded / plain)
//
// Text inside [brackets] is copied literally, as is anything that is not a
// token.
func Format(t time.Time, layout, locale string) string {
	tr := Translator(locale)
	var b strings.Builder

	for i := 0; i < len(layout); {
		if layout[i] == '[' {
			end := strings.IndexByte(layout[i+1:], ']')
			if end >= 0 {
				b.WriteString(layout[i+1 : i+1+end])
				i += end + 2
				continue
			}
		}

		matched := false
		for _, tok := range formatTokens {
			if strings.HasPrefix(layout[i:], tok) {
				b.WriteString(renderToken(t, tok, tr))
				i += len(tok)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(layout[i])
			i++
		}
	}
	return b.String()
}

func renderToken(t time.Time, tok string, tr locales.Translator) string {
	switch tok {
	case "YYYY":
		return strconv.Itoa(t.Year())
	case "YY":
		return pad2(t.Year() % 100)
	case "MMMM":
		return tr.MonthWide(t.Month())
	case "MMM":
		return tr.MonthAbbreviated(t.Month())
	case "MM":
		return pad2(int(t.Month()))
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "dddd":
		return tr.WeekdayWide(t.Weekday())
	case "ddd", "ddd+":
		return tr.WeekdayAbbreviated(t.Weekday())
	case "DD":
		return pad2(t.Day())
	case "D":
		return strconv.Itoa(t.Day())
	}
	return tok
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
