package domain

import (
	"strings"
	"time"
)

// DefaultHoursBack is the window span used whenever the caller supplies no
// usable dates.
const DefaultHoursBack = 6

// dateLayouts are the accepted spellings for caller-supplied dates, tried in
// order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDate parses a caller-supplied date string. The zero time signals
// "absent or unusable": per the malformed-input policy, callers fall back to
// the computed default window instead of failing.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ResolveWindow derives the concrete [start, end] fetch window from a query's
// optional bounds. hoursBack <= 0 falls back to DefaultHoursBack. The zero
// time means "not given". Rules:
//
//	neither given:  end = now, start = end - hoursBack
//	only end:       start = end - hoursBack
//	only start:     end = now
//	both given:     used as-is
//
// A window that comes out inverted (start after end) is malformed and
// collapses to the default window ending now. ResolveWindow is the single
// window authority: every call path resolves through it.
func ResolveWindow(now time.Time, start, end time.Time, hoursBack int) (time.Time, time.Time) {
	if hoursBack <= 0 {
		hoursBack = DefaultHoursBack
	}
	span := time.Duration(hoursBack) * time.Hour

	switch {
	case start.IsZero() && end.IsZero():
		return now.Add(-span), now
	case start.IsZero():
		return end.Add(-span), end
	case end.IsZero():
		end = now
	}
	if start.After(end) {
		return now.Add(-span), now
	}
	return start, end
}
