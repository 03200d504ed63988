package pipeline

import "errors"

// ErrNoPredictions is returned by Run when no GroupKey produced a forecast.
// The accompanying Result is still populated with every outcome.
var ErrNoPredictions = errors.New("no predictions generated")
