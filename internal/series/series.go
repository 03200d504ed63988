// Package series turns the incident table into dense daily count series,
// one per (category, district) pair.
package series

import (
	"sort"
	"time"

	"github.com/soltixdb/crimecast/internal/models"
	"github.com/soltixdb/crimecast/internal/normalize"
)

// Build returns the daily count series for the events whose normalized
// category and district match the normalized arguments. Days between the
// first and last matching event with no incidents get a zero count; no match
// at all yields an empty series.
func Build(events []models.Event, category, district string) models.DailySeries {
	category, district = normalize.String(category), normalize.String(district)
	counts := make(map[time.Time]int)
	for _, e := range events {
		if normalize.String(e.Category) != category || normalize.String(e.District) != district {
			continue
		}
		counts[models.CalendarDay(e.Date)]++
	}
	return densify(counts)
}

// densify sorts per-day counts and fills every missing day with zero
func densify(counts map[time.Time]int) models.DailySeries {
	if len(counts) == 0 {
		return models.DailySeries{}
	}

	days := make([]time.Time, 0, len(counts))
	for day := range counts {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].Before(days[j])
	})

	first, last := days[0], days[len(days)-1]
	series := make(models.DailySeries, 0, daysBetween(first, last)+1)
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		series = append(series, models.DailyCount{Date: day, Count: counts[day]})
	}
	return series
}

// daysBetween returns the whole number of days from a to b (both midnight UTC)
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
