// Package forecast fits smoothing models to daily count series and produces
// one-step-ahead point forecasts.
package forecast

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/soltixdb/crimecast/internal/analytics"
	"github.com/soltixdb/crimecast/internal/models"
	"gonum.org/v1/gonum/floats"
)

// DataPoint is an alias to the shared analytics.TimeSeriesPoint type.
type DataPoint = analytics.TimeSeriesPoint

// ForecastPoint represents the single forecast prediction
type ForecastPoint struct {
	Time  time.Time
	Value float64
}

// ModelInfo contains metadata about the fitted model
type ModelInfo struct {
	Algorithm  string                 `json:"algorithm"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	SSE        float64                `json:"sse"`          // Sum of squared one-step errors
	MAE        float64                `json:"mae"`          // Mean Absolute Error
	RMSE       float64                `json:"rmse"`         // Root Mean Squared Error
	DataPoints int                    `json:"data_points"`  // Number of data points used
}

// ForecastResult contains the prediction and the fitted model state
type ForecastResult struct {
	Prediction ForecastPoint `json:"prediction"`
	Level      []float64     `json:"level"`               // Smoothed level after each observation
	Fitted     []float64     `json:"fitted,omitempty"`    // One-step-ahead fitted values
	Residuals  []float64     `json:"residuals,omitempty"` // actual - fitted
	ModelInfo  ModelInfo     `json:"model_info"`
}

// ForecastConfig holds configuration for forecasting
type ForecastConfig struct {
	Alpha         float64       // Fixed smoothing level in (0, 1]; never optimized
	MinDataPoints int           // Minimum observations required
	Interval      time.Duration // Step between observations; 0 or 24h means one calendar day
}

// DefaultForecastConfig returns the configuration used for daily incident counts
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		Alpha:         0.5,
		MinDataPoints: 2,
		Interval:      24 * time.Hour,
	}
}

// Forecaster interface for forecasting algorithms
type Forecaster interface {
	// Name returns the algorithm name
	Name() string
	// Forecast fits the model and predicts the next period
	Forecast(data []DataPoint, config ForecastConfig) (*ForecastResult, error)
}

var (
	registryMu          sync.RWMutex
	forecasterRegistry = make(map[string]Forecaster)
)

// RegisterForecaster adds a forecaster to the registry
func RegisterForecaster(name string, forecaster Forecaster) {
	registryMu.Lock()
	defer registryMu.Unlock()
	forecasterRegistry[name] = forecaster
}

// GetForecaster returns a forecaster by name
func GetForecaster(name string) (Forecaster, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if forecaster, ok := forecasterRegistry[name]; ok {
		return forecaster, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownForecaster, name)
}

// ListForecasters returns the sorted names of available forecasters
func ListForecasters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(forecasterRegistry))
	for name := range forecasterRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromDailySeries converts daily counts into forecaster input
func FromDailySeries(series models.DailySeries) []DataPoint {
	points := make([]DataPoint, len(series))
	for i, d := range series {
		points[i] = DataPoint{Time: d.Date, Value: float64(d.Count)}
	}
	return points
}

// ForecastNext fits f to series and returns the one-step-ahead point.
// It returns ErrInsufficientData for series shorter than config.MinDataPoints.
func ForecastNext(f Forecaster, series models.DailySeries, config ForecastConfig) (ForecastPoint, error) {
	minPoints := config.MinDataPoints
	if minPoints < 2 {
		minPoints = 2
	}
	if series.Len() < minPoints {
		return ForecastPoint{}, fmt.Errorf("%w: need %d, have %d", ErrInsufficientData, minPoints, series.Len())
	}

	result, err := f.Forecast(FromDailySeries(series), config)
	if err != nil {
		return ForecastPoint{}, err
	}
	return result.Prediction, nil
}

// nextPeriod advances last by one interval. Daily steps use calendar
// arithmetic so the result stays on midnight.
func nextPeriod(last time.Time, interval time.Duration) time.Time {
	if interval == 0 || interval == 24*time.Hour {
		return last.AddDate(0, 0, 1)
	}
	return last.Add(interval)
}

// errorStats returns SSE, MAE and RMSE of residuals
func errorStats(residuals []float64) (sse, mae, rmse float64) {
	if len(residuals) == 0 {
		return 0, 0, 0
	}
	n := float64(len(residuals))
	sse = floats.Dot(residuals, residuals)
	mae = floats.Norm(residuals, 1) / n
	rmse = math.Sqrt(sse / n)
	return sse, mae, rmse
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
