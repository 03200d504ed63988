package store

import (
	"context"
	"database/sql"
	"fmt"
)

// ensureSchema creates the schema, tables and indexes if missing
func ensureSchema(ctx context.Context, db *sql.DB, schema string) error {
	statements := []string{
		fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.forecast_runs (
			id uuid PRIMARY KEY,
			started_at timestamptz NOT NULL,
			finished_at timestamptz NOT NULL,
			alpha double precision NOT NULL,
			workers integer NOT NULL,
			input_rows integer NOT NULL,
			events_loaded integer NOT NULL,
			missing_fields integer NOT NULL,
			bad_dates integer NOT NULL,
			categories integer NOT NULL,
			districts integer NOT NULL,
			generated_count integer NOT NULL,
			insufficient_count integer NOT NULL,
			failed_count integer NOT NULL,
			run_tag text,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.forecast_records (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.forecast_runs(id) ON DELETE CASCADE,
			position integer NOT NULL,
			forecast_date date NOT NULL,
			predicted_count double precision NOT NULL,
			district text NOT NULL,
			category text NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.forecast_outcomes (
			id uuid PRIMARY KEY,
			run_id uuid NOT NULL REFERENCES %s.forecast_runs(id) ON DELETE CASCADE,
			position integer NOT NULL,
			category text NOT NULL,
			district text NOT NULL,
			status text NOT NULL,
			observations integer NOT NULL,
			detail text,
			elapsed_us bigint NOT NULL,
			created_at timestamptz NOT NULL DEFAULT now()
		)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_forecast_records_run_idx ON %s.forecast_records (run_id, position)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_forecast_outcomes_run_idx ON %s.forecast_outcomes (run_id)`, schema, schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_forecast_outcomes_status_idx ON %s.forecast_outcomes (status)`, schema, schema),
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
