package mapper

import (
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

var trueWords = map[string]bool{
	"true": true, "yes": true, "y": true, "1": true, "active": true, "won": true,
}

var falseWords = map[string]bool{
	"false": true, "no": true, "n": true, "0": true, "inactive": true, "lost": true,
}

// coerceFloat parses a numeric cell, tolerating currency symbols and
// thousands separators.
func coerceFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "$€£ ")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func coerceInt(s string) (int64, bool) {
	f, ok := coerceFloat(s)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

func coerceBool(s string) (bool, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if trueWords[s] {
		return true, true
	}
	if falseWords[s] {
		return false, true
	}
	return false, false
}

func coerceDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
