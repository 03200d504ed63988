// Package pipeline drives the per-(category, district) forecasting run:
// it enumerates every key pair, builds each daily series, fits the
// forecaster and gathers the records in a fixed order.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/soltixdb/crimecast/internal/analytics/forecast"
	"github.com/soltixdb/crimecast/internal/config"
	"github.com/soltixdb/crimecast/internal/logging"
	"github.com/soltixdb/crimecast/internal/models"
	"github.com/soltixdb/crimecast/internal/series"
	"golang.org/x/sync/errgroup"
)

// Config contains configuration for a pipeline run
type Config struct {
	Forecast forecast.ForecastConfig

	// Workers bounds the number of pairs processed concurrently.
	// 0 means runtime.NumCPU(); 1 runs pairs sequentially.
	Workers int
}

// minObservations is the shortest series that gets a forecast
const minObservations = 2

// DefaultConfig returns alpha 0.5, two observations minimum, one worker per CPU
func DefaultConfig() Config {
	return Config{
		Forecast: forecast.DefaultForecastConfig(),
		Workers:  0,
	}
}

// ConfigFrom maps application configuration onto pipeline configuration
func ConfigFrom(cfg *config.Config) Config {
	fc := forecast.DefaultForecastConfig()
	fc.Alpha = cfg.Forecast.SmoothingLevel

	return Config{
		Forecast: fc,
		Workers:  cfg.Pipeline.Workers,
	}
}

// Recorder observes outcomes as they are gathered
type Recorder interface {
	ObserveOutcome(o models.Outcome)
}

// Result is the assembled output of one run
type Result struct {
	RunID      string
	Records    []models.ForecastRecord
	Outcomes   []models.Outcome
	Categories int
	Districts  int
	Events     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Count returns the number of outcomes with the given status
func (r *Result) Count(status models.OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Pipeline runs the forecaster over every GroupKey of an event table
type Pipeline struct {
	config     Config
	logger     *logging.Logger
	forecaster forecast.Forecaster
	sink       DiagnosticSink
	recorder   Recorder
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithDiagnostics sets the sink for per-pair diagnostic lines
func WithDiagnostics(sink DiagnosticSink) Option {
	return func(p *Pipeline) {
		if sink != nil {
			p.sink = sink
		}
	}
}

// WithRecorder sets an outcome observer, typically the metrics collector
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// New creates a pipeline. The smoothing level is checked up front so a bad
// configuration fails before any pair is visited.
func New(cfg Config, logger *logging.Logger, forecaster forecast.Forecaster, opts ...Option) (*Pipeline, error) {
	if forecaster == nil {
		return nil, errors.New("forecaster is required")
	}
	if alpha := cfg.Forecast.Alpha; !(alpha > 0 && alpha <= 1) {
		return nil, fmt.Errorf("%w: got %v", forecast.ErrInvalidAlpha, alpha)
	}
	cfg.Forecast.MinDataPoints = minObservations
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = logging.Global()
	}

	p := &Pipeline{
		config:     cfg,
		logger:     logger,
		forecaster: forecaster,
		sink:       Discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run forecasts every pair in the category x district cross product of
// events. Per-pair failures are recorded as outcomes and never abort the
// run. Records keep enumeration order whatever the worker count.
// ErrNoPredictions is returned, together with the Result, when no record
// was produced.
func (p *Pipeline) Run(ctx context.Context, events []models.Event) (*Result, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := p.logger.WithContext(ctx)

	result := &Result{
		RunID:     runID,
		StartedAt: time.Now(),
		Events:    len(events),
	}

	idx := series.NewIndex(events)
	keys := idx.Keys()
	result.Categories = len(idx.Categories())
	result.Districts = len(idx.Districts())

	logger.Info("Forecast run started",
		"events", len(events),
		"categories", result.Categories,
		"districts", result.Districts,
		"pairs", len(keys),
		"workers", p.config.Workers,
		"alpha", p.config.Forecast.Alpha)

	// each task owns exactly one slot
	outcomes := make([]models.Outcome, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Workers)
	for i, key := range keys {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := p.process(idx, key)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("forecast run %s aborted: %w", runID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("forecast run %s aborted: %w", runID, err)
	}

	result.Outcomes = outcomes
	result.Records = p.gather(logger, outcomes)
	result.FinishedAt = time.Now()

	logger.Info("Forecast run completed",
		"generated", result.Count(models.OutcomeGenerated),
		"insufficient", result.Count(models.OutcomeInsufficient),
		"failed", result.Count(models.OutcomeFailed),
		"latency_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds())

	if len(result.Records) == 0 {
		p.sink.Diagnostic(noForecastsLine)
		logger.Warn("No forecasts generated", "pairs", len(keys))
		return result, ErrNoPredictions
	}
	return result, nil
}

// process builds and forecasts one pair. Only errors that are neither
// insufficient data nor fit failures are returned.
func (p *Pipeline) process(idx *series.Index, key models.GroupKey) (models.Outcome, error) {
	start := time.Now()
	s := idx.Build(key)
	out := models.Outcome{Key: key, Observations: s.Len()}

	if s.Len() < p.config.Forecast.MinDataPoints {
		out.Status = models.OutcomeInsufficient
		out.Elapsed = time.Since(start)
		return out, nil
	}

	point, err := forecast.ForecastNext(p.forecaster, s, p.config.Forecast)
	out.Elapsed = time.Since(start)
	switch {
	case err == nil:
		out.Status = models.OutcomeGenerated
		out.Record = &models.ForecastRecord{
			ForecastDate:   point.Time,
			PredictedCount: point.Value,
			District:       key.District,
			Category:       key.Category,
		}
	case errors.Is(err, forecast.ErrInsufficientData):
		out.Status = models.OutcomeInsufficient
	case errors.Is(err, forecast.ErrFitFailed):
		out.Status = models.OutcomeFailed
		out.Detail = err.Error()
	default:
		return out, fmt.Errorf("forecast %s: %w", key, err)
	}
	return out, nil
}

// gather walks outcomes in enumeration order, emits diagnostics and
// collects the records
func (p *Pipeline) gather(logger *logging.Logger, outcomes []models.Outcome) []models.ForecastRecord {
	records := make([]models.ForecastRecord, 0, len(outcomes))
	for _, o := range outcomes {
		p.sink.Diagnostic(DiagnosticLine(o))
		if p.recorder != nil {
			p.recorder.ObserveOutcome(o)
		}

		switch o.Status {
		case models.OutcomeGenerated:
			records = append(records, *o.Record)
			logger.Debug("Forecast generated",
				"category", o.Key.Category,
				"district", o.Key.District,
				"forecast_date", o.Record.ForecastDate.Format(models.DateLayout),
				"predicted_count", o.Record.PredictedCount)
		case models.OutcomeInsufficient:
			logger.Debug("Insufficient data",
				"category", o.Key.Category,
				"district", o.Key.District,
				"observations", o.Observations)
		case models.OutcomeFailed:
			logger.Warn("Forecast failed",
				"category", o.Key.Category,
				"district", o.Key.District,
				"observations", o.Observations,
				"error", o.Detail)
		}
	}
	return records
}
