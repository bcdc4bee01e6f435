package utils

import "time"

// FirstOfNextMonth returns midnight UTC on the first day of the calendar month after t.
func FirstOfNextMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}
