// Package payweek computes the Monday-Friday pay period containing any
// reference date. All bounds are UTC; inputs are never mutated.
package payweek

import "time"

// Bounds is one pay week: Monday 00:00:00.000 through Friday 23:59:59.999.
type Bounds struct {
	Start time.Time `json:"week_start"`
	End   time.Time `json:"week_end"`
}

// Contains reports whether t falls inside the pay week. Saturday and Sunday
// instants are outside every pay week.
func (b Bounds) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(b.Start) && !t.After(b.End)
}

// For returns the pay week containing date. Any two dates within the same
// Monday-Friday span (weekend included, which maps back to that week's
// Monday) yield identical bounds.
func For(date time.Time) Bounds {
	d := date.UTC()

	back := int(d.Weekday()) - 1
	if d.Weekday() == time.Sunday {
		back = 6
	}
	monday := time.Date(d.Year(), d.Month(), d.Day()-back, 0, 0, 0, 0, time.UTC)
	friday := monday.AddDate(0, 0, 4)

	return Bounds{
		Start: monday,
		End:   time.Date(friday.Year(), friday.Month(), friday.Day(), 23, 59, 59, 999_000_000, time.UTC),
	}
}

// LastN returns n consecutive pay weeks walking backward from the week
// containing anchor, most recent first.
func LastN(anchor time.Time, n int) []Bounds {
	weeks := make([]Bounds, 0, n)
	for i := 0; i < n; i++ {
		weeks = append(weeks, For(anchor.UTC().AddDate(0, 0, -7*i)))
	}
	return weeks
}
