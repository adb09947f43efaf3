package filters

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

// toTime accepts the date shapes found in front matter and on content items.
func toTime(v any) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	if p, ok := v.(*time.Time); ok && p == nil {
		return time.Time{}, false
	}
	t, err := content.ParseDate(v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DateFilter formats a date for display, e.g. "4th July 2026". Invalid dates give "".
func DateFilter(v any) string {
	t, ok := toTime(v)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d%s %s", t.Day(), ordinalSuffix(t.Day()), t.Format("January 2006"))
}

func ordinalSuffix(day int) string {
	if day%100 >= 11 && day%100 <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

// W3DateFilter formats a date as a W3C/ISO 8601 UTC timestamp with milliseconds,
// as used in feeds and <time datetime>.
func W3DateFilter(v any) string {
	t, ok := toTime(v)
	if !ok {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// MilitaryTime converts a 24-hour "HH:MM" time to 12-hour display ("19:30" gives
// "7:30 PM"). Unrecognised input is returned unchanged.
func MilitaryTime(s string) string {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return s
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return s
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || len(mm) != 2 {
		return s
	}
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%02d %s", h, m, suffix)
}
