package domain

import (
	"fmt"
	"time"
)

// Period keys index transactions and insights into ISO week buckets,
// formatted "2006-W02" (e.g. "2026-W35").

// PeriodOf returns the ISO week period key containing t.
func PeriodOf(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// PeriodBounds returns the Monday 00:00 UTC start and the following Monday
// for the given period key.
func PeriodBounds(periodKey string) (start, end time.Time, err error) {
	var year, week int
	if _, err := fmt.Sscanf(periodKey, "%04d-W%02d", &year, &week); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("PeriodBounds: invalid period key %q: %w", periodKey, err)
	}
	if week < 1 || week > 53 {
		return time.Time{}, time.Time{}, fmt.Errorf("PeriodBounds: invalid week number %d in %q", week, periodKey)
	}

	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	week1Monday := jan4.AddDate(0, 0, 1-weekday)

	start = week1Monday.AddDate(0, 0, (week-1)*7)
	end = start.AddDate(0, 0, 7)
	return start, end, nil
}
