package params

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var offsetPattern = regexp.MustCompile(`^[+-]?\d+$`)

var dateLayouts = []string{
	time.DateOnly,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ParseDate resolves a date argument. A signed integer is an offset in days
// from today (UTC); otherwise the value must match one of the accepted layouts.
func ParseDate(value string, now time.Time) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if offsetPattern.MatchString(value) {
		days, err := strconv.Atoi(value)
		if err != nil {
			return time.Time{}, false
		}
		return Today(now).AddDate(0, 0, days), true
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Today truncates now to midnight UTC.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
