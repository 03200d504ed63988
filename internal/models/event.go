package models

import "time"

// DateLayout is the calendar date format used on the wire and in output files
const DateLayout = "2006-01-02"

// Event represents one incident row after loading and normalization.
// Date is always truncated to midnight UTC.
type Event struct {
	Date     time.Time
	District string
	Category string
}

// GroupKey identifies one (category, district) series
type GroupKey struct {
	Category string `json:"category"`
	District string `json:"district"`
}

// String returns "category/district"
func (k GroupKey) String() string {
	return k.Category + "/" + k.District
}

// CalendarDay truncates t to midnight UTC of its own calendar date.
// The wall-clock date is kept, not the UTC instant.
func CalendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
