package forecast

import (
	"fmt"

	"github.com/soltixdb/crimecast/internal/analytics"
)

// ExponentialSmoothingForecaster implements Simple Exponential Smoothing
// with a fixed smoothing level.
type ExponentialSmoothingForecaster struct{}

// NewExponentialSmoothingForecaster creates a new Exponential Smoothing forecaster
func NewExponentialSmoothingForecaster() *ExponentialSmoothingForecaster {
	return &ExponentialSmoothingForecaster{}
}

func init() {
	RegisterForecaster("exponential", NewExponentialSmoothingForecaster())
}

// Name returns the algorithm name
func (f *ExponentialSmoothingForecaster) Name() string {
	return "exponential"
}

// Forecast fits level_0 = y_0, level_t = alpha*y_t + (1-alpha)*level_{t-1}
// and predicts the final level for the next period.
func (f *ExponentialSmoothingForecaster) Forecast(data []DataPoint, config ForecastConfig) (*ForecastResult, error) {
	minPoints := config.MinDataPoints
	if minPoints < 2 {
		minPoints = 2
	}
	if len(data) < minPoints {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientData, minPoints, len(data))
	}

	alpha := config.Alpha
	if !(alpha > 0 && alpha <= 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidAlpha, alpha)
	}

	ts := analytics.TimeSeriesData(data)
	values := ts.Values()
	for i, v := range values {
		if !isFinite(v) {
			return nil, &FitError{Index: i, Value: v, Reason: "non-finite observation"}
		}
	}

	n := len(data)
	level := make([]float64, n)
	fitted := make([]float64, n)
	residuals := make([]float64, n)

	level[0] = values[0]
	fitted[0] = values[0]
	for i := 1; i < n; i++ {
		fitted[i] = level[i-1]
		level[i] = alpha*values[i] + (1-alpha)*level[i-1]
		if !isFinite(level[i]) {
			return nil, &FitError{Index: i, Value: level[i], Reason: "smoothed level overflowed"}
		}
	}
	for i := range values {
		residuals[i] = values[i] - fitted[i]
	}

	sse, mae, rmse := errorStats(residuals)

	return &ForecastResult{
		Prediction: ForecastPoint{
			Time:  nextPeriod(ts.LastTime(), config.Interval),
			Value: level[n-1],
		},
		Level:     level,
		Fitted:    fitted,
		Residuals: residuals,
		ModelInfo: ModelInfo{
			Algorithm:  "exponential",
			Parameters: map[string]interface{}{"alpha": alpha},
			SSE:        sse,
			MAE:        mae,
			RMSE:       rmse,
			DataPoints: n,
		},
	}, nil
}
