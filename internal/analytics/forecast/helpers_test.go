package forecast

import (
	"time"

	"github.com/soltixdb/crimecast/internal/models"
)

// Common test data and helpers for all forecast tests

var testBaseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// dailyPoints creates one data point per calendar day starting at testBaseTime
func dailyPoints(values ...float64) []DataPoint {
	data := make([]DataPoint, len(values))
	for i, v := range values {
		data[i] = DataPoint{
			Time:  testBaseTime.AddDate(0, 0, i),
			Value: v,
		}
	}
	return data
}

// dailySeries creates a contiguous daily count series starting at testBaseTime
func dailySeries(counts ...int) models.DailySeries {
	series := make(models.DailySeries, len(counts))
	for i, c := range counts {
		series[i] = models.DailyCount{Date: testBaseTime.AddDate(0, 0, i), Count: c}
	}
	return series
}

// generateLinearData creates n daily points following y = slope * x + intercept
func generateLinearData(n int, slope, intercept float64) []DataPoint {
	values := make([]float64, n)
	for i := range values {
		values[i] = slope*float64(i) + intercept
	}
	return dailyPoints(values...)
}
