package content

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order for string dates. Zoned layouts come first.
var dateLayouts = []struct {
	layout string
	local  bool
}{
	{time.RFC3339Nano, false},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02T15:04", true},
	{"2006-01-02 15:04:05", true},
	{"2006-01-02 15:04", true},
	{"2006-01-02", false},
}

// ParseDate converts a front matter value into a time. Date-only strings are
// midnight UTC, date-times without a zone are local time.
func ParseDate(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("nil date")
		}
		return *t, nil
	case string:
		s := strings.TrimSpace(t)
		for _, l := range dateLayouts {
			var parsed time.Time
			var err error
			if l.local {
				parsed, err = time.ParseInLocation(l.layout, s, time.Local)
			} else {
				parsed, err = time.Parse(l.layout, s)
			}
			if err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised date %q", s)
	default:
		return time.Time{}, fmt.Errorf("unsupported date value of type %T", v)
	}
}
