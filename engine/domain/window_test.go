package domain

import (
	"testing"
	"time"
)

var now = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func TestResolveWindowNeitherGiven(t *testing.T) {
	start, end := ResolveWindow(now, time.Time{}, time.Time{}, 24)
	if !end.Equal(now) {
		t.Fatalf("end = %v, want now", end)
	}
	if !start.Equal(now.Add(-24 * time.Hour)) {
		t.Fatalf("start = %v, want now-24h", start)
	}
}

func TestResolveWindowOnlyEnd(t *testing.T) {
	end := now.Add(-time.Hour)
	start, got := ResolveWindow(now, time.Time{}, end, 6)
	if !got.Equal(end) {
		t.Fatalf("end = %v, want %v", got, end)
	}
	if !start.Equal(end.Add(-6 * time.Hour)) {
		t.Fatalf("start = %v, want end-6h", start)
	}
}

func TestResolveWindowOnlyStart(t *testing.T) {
	want := now.Add(-3 * time.Hour)
	start, end := ResolveWindow(now, want, time.Time{}, 6)
	if !start.Equal(want) {
		t.Fatalf("start = %v, want %v", start, want)
	}
	if !end.Equal(now) {
		t.Fatalf("end = %v, want now", end)
	}
}

func TestResolveWindowInvertedFallsBack(t *testing.T) {
	// Start in the future relative to the explicit end: malformed, so the
	// default window ending now applies.
	start, end := ResolveWindow(now, now.Add(time.Hour), now.Add(-time.Hour), 6)
	if !end.Equal(now) {
		t.Fatalf("end = %v, want now", end)
	}
	if !start.Equal(now.Add(-6 * time.Hour)) {
		t.Fatalf("start = %v, want now-6h", start)
	}
}

func TestResolveWindowDefaultHours(t *testing.T) {
	start, end := ResolveWindow(now, time.Time{}, time.Time{}, 0)
	if end.Sub(start) != DefaultHoursBack*time.Hour {
		t.Fatalf("span = %v, want %dh", end.Sub(start), DefaultHoursBack)
	}
}

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		zero bool
	}{
		{"2025-06-02", false},
		{"2025-06-02 09:30", false},
		{"2025-06-02 09:30:15", false},
		{"2025-06-02T09:30:15Z", false},
		{"", true},
		{"   ", true},
		{"not-a-date", true},
		{"02/06/2025", true},
	}
	for _, c := range cases {
		got := ParseDate(c.in)
		if got.IsZero() != c.zero {
			t.Errorf("ParseDate(%q).IsZero() = %v, want %v", c.in, got.IsZero(), c.zero)
		}
	}
}
