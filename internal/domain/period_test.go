package domain

import (
	"testing"
	"time"
)

func TestPeriodOf(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want string
	}{
		{"mid week", time.Date(2026, 1, 7, 12, 0, 0, 0, time.UTC), "2026-W02"},
		{"monday boundary", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), "2026-W02"},
		{"sunday boundary", time.Date(2026, 1, 4, 23, 59, 59, 0, time.UTC), "2026-W01"},
		{"year spillover forward", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W53"},
		{"year spillover backward", time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), "2025-W01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeriodOf(tt.date); got != tt.want {
				t.Errorf("PeriodOf(%v) = %q, want %q", tt.date, got, tt.want)
			}
		})
	}
}

func TestPeriodBounds(t *testing.T) {
	start, end, err := PeriodBounds("2026-W02")
	if err != nil {
		t.Fatalf("PeriodBounds: %v", err)
	}
	if !start.Equal(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v, want 2026-01-05", start)
	}
	if !end.Equal(time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v, want 2026-01-12", end)
	}
	if start.Weekday() != time.Monday {
		t.Errorf("start weekday = %v, want Monday", start.Weekday())
	}
}

func TestPeriodBoundsRoundTrip(t *testing.T) {
	// Every date inside the bounds maps back to the same period key.
	for _, key := range []string{"2026-W01", "2026-W02", "2026-W53", "2025-W30"} {
		start, end, err := PeriodBounds(key)
		if err != nil {
			t.Fatalf("PeriodBounds(%q): %v", key, err)
		}
		if got := PeriodOf(start); got != key {
			t.Errorf("PeriodOf(start of %q) = %q", key, got)
		}
		if got := PeriodOf(end.Add(-time.Second)); got != key {
			t.Errorf("PeriodOf(end of %q) = %q", key, got)
		}
	}
}

func TestPeriodBoundsInvalid(t *testing.T) {
	for _, key := range []string{"", "garbage", "2026-W00", "2026-W54", "2026W02"} {
		if _, _, err := PeriodBounds(key); err == nil {
			t.Errorf("PeriodBounds(%q) succeeded, want error", key)
		}
	}
}
