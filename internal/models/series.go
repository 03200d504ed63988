package models

import "time"

// DailyCount is one day of a DailySeries
type DailyCount struct {
	Date  time.Time
	Count int
}

// DailySeries is a gap-free, strictly increasing sequence of daily counts
type DailySeries []DailyCount

// Len returns the number of days in the series
func (s DailySeries) Len() int {
	return len(s)
}

// Total returns the sum of all daily counts
func (s DailySeries) Total() int {
	total := 0
	for _, d := range s {
		total += d.Count
	}
	return total
}

// First returns the first date, or the zero time for an empty series
func (s DailySeries) First() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0].Date
}

// Last returns the last date, or the zero time for an empty series
func (s DailySeries) Last() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Date
}
