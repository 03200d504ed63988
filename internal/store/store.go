// Package store persists forecast runs in Postgres
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/soltixdb/crimecast/internal/config"
	"github.com/soltixdb/crimecast/internal/ingest"
	"github.com/soltixdb/crimecast/internal/models"
	"github.com/soltixdb/crimecast/internal/pipeline"
)

var schemaPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Run is everything recorded about one pipeline run
type Run struct {
	ID         uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Alpha      float64
	Workers    int
	Input      ingest.Stats
	Categories int
	Districts  int
	Records    []models.ForecastRecord
	Outcomes   []models.Outcome
}

// NewRun assembles a Run from a pipeline result and the loader stats.
// The pipeline's run id is kept when it parses as a UUID.
func NewRun(result *pipeline.Result, stats ingest.Stats, alpha float64, workers int) Run {
	id, err := uuid.Parse(result.RunID)
	if err != nil {
		id = uuid.New()
	}
	return Run{
		ID:         id,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Alpha:      alpha,
		Workers:    workers,
		Input:      stats,
		Categories: result.Categories,
		Districts:  result.Districts,
		Records:    result.Records,
		Outcomes:   result.Outcomes,
	}
}

// count returns the number of outcomes with status
func (r Run) count(status models.OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Store writes runs to a Postgres schema
type Store struct {
	db      *sql.DB
	schema  string
	tag     string
	timeout time.Duration
}

// Open connects to Postgres and makes sure the schema and tables exist
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	schema, err := sanitizeSchema(cfg.Schema)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, schema: schema, tag: cfg.Tag, timeout: cfg.Timeout}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := ensureSchema(ctx, db, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ensure schema %s: %w", schema, err)
	}
	return s, nil
}

// Close closes the database handle
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// SaveRun writes the run row, its records and its outcomes in one
// transaction and returns the run id
func (s *Store) SaveRun(ctx context.Context, run Run) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.forecast_runs (
			id, started_at, finished_at, alpha, workers,
			input_rows, events_loaded, missing_fields, bad_dates,
			categories, districts, generated_count, insufficient_count,
			failed_count, run_tag
		) VALUES (
			$1,$2,$3,$4,$5,
			$6,$7,$8,$9,
			$10,$11,$12,$13,
			$14,$15
		)`, s.schema),
		run.ID,
		run.StartedAt,
		run.FinishedAt,
		run.Alpha,
		run.Workers,
		run.Input.Rows,
		run.Input.Kept,
		run.Input.MissingFields,
		run.Input.BadDates,
		run.Categories,
		run.Districts,
		run.count(models.OutcomeGenerated),
		run.count(models.OutcomeInsufficient),
		run.count(models.OutcomeFailed),
		nullString(s.tag),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	insertRecordSQL := fmt.Sprintf(`
		INSERT INTO %s.forecast_records (
			id, run_id, position, forecast_date, predicted_count,
			district, category
		) VALUES (
			$1,$2,$3,$4,$5,
			$6,$7
		)`, s.schema)

	for i, r := range run.Records {
		_, err = tx.ExecContext(ctx, insertRecordSQL,
			uuid.New(),
			run.ID,
			i,
			r.ForecastDate,
			r.PredictedCount,
			r.District,
			r.Category,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert forecast %s: %w", r.Key(), err)
		}
	}

	insertOutcomeSQL := fmt.Sprintf(`
		INSERT INTO %s.forecast_outcomes (
			id, run_id, position, category, district, status,
			observations, detail, elapsed_us
		) VALUES (
			$1,$2,$3,$4,$5,$6,
			$7,$8,$9
		)`, s.schema)

	for i, o := range run.Outcomes {
		_, err = tx.ExecContext(ctx, insertOutcomeSQL,
			uuid.New(),
			run.ID,
			i,
			o.Key.Category,
			o.Key.District,
			string(o.Status),
			o.Observations,
			nullString(o.Detail),
			o.Elapsed.Microseconds(),
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert outcome %s: %w", o.Key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return run.ID.String(), nil
}

// ErrNoRuns is returned by LatestRecords when nothing has been stored
var ErrNoRuns = errors.New("no stored runs")

// LatestRecords returns the id and records of the most recently finished run
func (s *Store) LatestRecords(ctx context.Context) (string, []models.ForecastRecord, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var runID uuid.UUID
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT id FROM %s.forecast_runs ORDER BY finished_at DESC, created_at DESC LIMIT 1`, s.schema)).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, ErrNoRuns
	}
	if err != nil {
		return "", nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT forecast_date, predicted_count, district, category
		FROM %s.forecast_records
		WHERE run_id = $1
		ORDER BY position`, s.schema), runID)
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []models.ForecastRecord
	for rows.Next() {
		var r models.ForecastRecord
		if err := rows.Scan(&r.ForecastDate, &r.PredictedCount, &r.District, &r.Category); err != nil {
			return "", nil, err
		}
		r.ForecastDate = models.CalendarDay(r.ForecastDate)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return "", nil, err
	}
	return runID.String(), records, nil
}

func sanitizeSchema(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("db schema is required")
	}
	if !schemaPattern.MatchString(value) {
		return "", fmt.Errorf("invalid schema name: %s", value)
	}
	return value, nil
}

func nullString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
