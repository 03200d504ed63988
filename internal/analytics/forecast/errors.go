package forecast

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData is returned when a series is too short to fit.
	// It is an expected outcome for sparse keys, not a failure.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidAlpha is returned for smoothing levels outside (0, 1]
	ErrInvalidAlpha = errors.New("smoothing level must be in (0, 1]")

	// ErrFitFailed is the sentinel matched by every *FitError
	ErrFitFailed = errors.New("fit failed")

	// ErrUnknownForecaster is returned by GetForecaster for unregistered names
	ErrUnknownForecaster = errors.New("unknown forecaster")
)

// FitError describes a numerical failure while fitting one series
type FitError struct {
	Index  int     // observation index where the fit broke down
	Value  float64 // offending observation or level
	Reason string
}

func (e *FitError) Error() string {
	return fmt.Sprintf("fit failed at index %d (value %v): %s", e.Index, e.Value, e.Reason)
}

// Unwrap lets errors.Is(err, ErrFitFailed) match
func (e *FitError) Unwrap() error {
	return ErrFitFailed
}
