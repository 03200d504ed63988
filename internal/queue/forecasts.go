package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/soltixdb/crimecast/internal/models"
)

// ErrPartialPublish is returned when some forecast messages were not acknowledged
var ErrPartialPublish = errors.New("partial publish")

// ForecastMessage is the JSON payload published for each forecast record
type ForecastMessage struct {
	RunID          string  `json:"run_id"`
	ForecastDate   string  `json:"forecast_date"`
	PredictedCount float64 `json:"predicted_count"`
	District       string  `json:"district"`
	Category       string  `json:"category"`
}

// EncodeForecasts builds one message per record, keyed by its GroupKey
func EncodeForecasts(subject, runID string, records []models.ForecastRecord) ([]Message, error) {
	messages := make([]Message, 0, len(records))
	for _, r := range records {
		data, err := json.Marshal(ForecastMessage{
			RunID:          runID,
			ForecastDate:   r.ForecastDate.Format(models.DateLayout),
			PredictedCount: r.PredictedCount,
			District:       r.District,
			Category:       r.Category,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode forecast %s: %w", r.Key(), err)
		}

		key := r.Key().String()
		messages = append(messages, Message{
			Subject: subject,
			Key:     key,
			ID:      runID + ":" + key,
			Data:    data,
		})
	}
	return messages, nil
}

// PublishForecasts publishes records as a single batch. A non-positive
// timeout means the caller's context alone bounds the call.
func PublishForecasts(ctx context.Context, p Publisher, subject, runID string, records []models.ForecastRecord, timeout time.Duration) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	messages, err := EncodeForecasts(subject, runID, records)
	if err != nil {
		return 0, err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	n, err := p.PublishBatch(ctx, messages)
	if err != nil {
		return n, err
	}
	if n < len(messages) {
		return n, fmt.Errorf("%w: %d of %d forecasts acknowledged", ErrPartialPublish, n, len(messages))
	}
	return n, nil
}
