package models

import "time"

// ForecastRecord is the one-step-ahead prediction for a single GroupKey
type ForecastRecord struct {
	ForecastDate   time.Time `json:"forecast_date"`
	PredictedCount float64   `json:"predicted_count"`
	District       string    `json:"district"`
	Category       string    `json:"category"`
}

// Key returns the GroupKey this record belongs to
func (r ForecastRecord) Key() GroupKey {
	return GroupKey{Category: r.Category, District: r.District}
}

// OutcomeStatus classifies what happened to a GroupKey during a run
type OutcomeStatus string

const (
	// OutcomeGenerated means a ForecastRecord was produced
	OutcomeGenerated OutcomeStatus = "generated"
	// OutcomeInsufficient means the series had fewer than the required observations
	OutcomeInsufficient OutcomeStatus = "insufficient"
	// OutcomeFailed means the smoothing fit failed for this key
	OutcomeFailed OutcomeStatus = "failed"
)

// Outcome is the per-GroupKey result of a pipeline run
type Outcome struct {
	Key          GroupKey        `json:"key"`
	Status       OutcomeStatus   `json:"status"`
	Observations int             `json:"observations"`
	Record       *ForecastRecord `json:"record,omitempty"`
	Detail       string          `json:"detail,omitempty"`
	Elapsed      time.Duration   `json:"elapsed"`
}
