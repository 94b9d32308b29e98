package domain

import (
	"strconv"
	"strings"
)

type countSuffixes struct {
	thousand, million, billion string
	sep                        string
}

var suffixesByLocale = map[string]countSuffixes{
	"en": {thousand: "K", million: "M", billion: "B"},
	"ar": {thousand: "ألف", million: "مليون", billion: "مليار", sep: " "},
}

// FormatCount renders a view count for display: plain below one thousand,
// otherwise one decimal place with a K, M or B suffix (or the Arabic words
// for the "ar" locale). Unknown locales use the English suffixes.
func FormatCount(n int64, locale string) string {
	s, ok := suffixesByLocale[baseLanguage(locale)]
	if !ok {
		s = suffixesByLocale["en"]
	}

	switch {
	case n < 1_000:
		return strconv.FormatInt(n, 10)
	case n < 1_000_000:
		return oneDecimal(n, 1_000) + s.sep + s.thousand
	case n < 1_000_000_000:
		return oneDecimal(n, 1_000_000) + s.sep + s.million
	default:
		return oneDecimal(n, 1_000_000_000) + s.sep + s.billion
	}
}

// oneDecimal truncates instead of rounding so 999,999 stays "999.9".
func oneDecimal(n, unit int64) string {
	tenths := n / (unit / 10)
	return strconv.FormatInt(tenths/10, 10) + "." + strconv.FormatInt(tenths%10, 10)
}

func baseLanguage(locale string) string {
	locale = strings.ToLower(locale)
	if i := strings.IndexAny(locale, "-_"); i >= 0 {
		locale = locale[:i]
	}
	return locale
}
