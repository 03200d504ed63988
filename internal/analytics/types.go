// Package analytics provides common types for time-series analytics.
package analytics

import (
	"time"
)

// TimeSeriesPoint represents a single time-series data point with time and value.
type TimeSeriesPoint struct {
	Time  time.Time
	Value float64
}

// TimeSeriesData represents a collection of time-series data points
type TimeSeriesData []TimeSeriesPoint

// Values extracts just the values from the time series
func (ts TimeSeriesData) Values() []float64 {
	values := make([]float64, len(ts))
	for i, p := range ts {
		values[i] = p.Value
	}
	return values
}

// Len returns the number of data points
func (ts TimeSeriesData) Len() int {
	return len(ts)
}

// LastTime returns the time of the final point, zero when empty
func (ts TimeSeriesData) LastTime() time.Time {
	if len(ts) == 0 {
		return time.Time{}
	}
	return ts[len(ts)-1].Time
}
