package forecast

import (
	"errors"
	"testing"
)

func TestForecasterRegistry(t *testing.T) {
	forecaster, err := GetForecaster("exponential")
	if err != nil {
		t.Fatalf("Forecaster 'exponential' not registered: %v", err)
	}
	if forecaster.Name() != "exponential" {
		t.Errorf("Forecaster name mismatch: got '%s'", forecaster.Name())
	}

	names := ListForecasters()
	if len(names) == 0 || names[0] != "exponential" {
		t.Errorf("Expected exponential in %v", names)
	}
}

func TestGetForecaster_Unknown(t *testing.T) {
	_, err := GetForecaster("holt_winters")
	if !errors.Is(err, ErrUnknownForecaster) {
		t.Errorf("Expected ErrUnknownForecaster, got %v", err)
	}
}

func TestFromDailySeries(t *testing.T) {
	points := FromDailySeries(dailySeries(1, 0, 3))

	if len(points) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(points))
	}
	if points[2].Value != 3 || !points[2].Time.Equal(testBaseTime.AddDate(0, 0, 2)) {
		t.Errorf("Unexpected point %+v", points[2])
	}
}

func TestForecastNext(t *testing.T) {
	point, err := ForecastNext(NewExponentialSmoothingForecaster(), dailySeries(1, 2, 0, 1), DefaultForecastConfig())
	if err != nil {
		t.Fatalf("ForecastNext failed: %v", err)
	}

	// level: 1, 1.5, 0.75, 0.875
	if point.Value != 0.875 {
		t.Errorf("Expected 0.875, got %v", point.Value)
	}
	if !point.Time.Equal(testBaseTime.AddDate(0, 0, 4)) {
		t.Errorf("Expected next day, got %v", point.Time)
	}
}

func TestForecastNext_InsufficientData(t *testing.T) {
	_, err := ForecastNext(NewExponentialSmoothingForecaster(), dailySeries(7), DefaultForecastConfig())
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}

	_, err = ForecastNext(NewExponentialSmoothingForecaster(), nil, DefaultForecastConfig())
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData for empty series, got %v", err)
	}
}

func TestFitError(t *testing.T) {
	err := error(&FitError{Index: 3, Value: 1, Reason: "boom"})

	if !errors.Is(err, ErrFitFailed) {
		t.Error("FitError should match ErrFitFailed")
	}
	if err.Error() == "" {
		t.Error("FitError should have a message")
	}
}

func TestErrorStats_Empty(t *testing.T) {
	sse, mae, rmse := errorStats(nil)
	if sse != 0 || mae != 0 || rmse != 0 {
		t.Errorf("Expected zeros, got %v %v %v", sse, mae, rmse)
	}
}
