package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/soltixdb/crimecast/internal/config"
	"github.com/soltixdb/crimecast/internal/ingest"
	"github.com/soltixdb/crimecast/internal/models"
	"github.com/soltixdb/crimecast/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeSchema(t *testing.T) {
	valid := []string{"crimecast", " forecasts_2024 ", "_private", "CrimeCast"}
	for _, v := range valid {
		got, err := sanitizeSchema(v)
		require.NoError(t, err, v)
		assert.Equal(t, strings.TrimSpace(v), got)
	}

	invalid := []string{"", "   ", "1schema", "crime-cast", "public; DROP TABLE x", "a.b"}
	for _, v := range invalid {
		_, err := sanitizeSchema(v)
		assert.Error(t, err, v)
	}
}

func TestNullString(t *testing.T) {
	assert.False(t, nullString("").Valid)
	assert.False(t, nullString("  ").Valid)
	ns := nullString("nightly")
	assert.True(t, ns.Valid)
	assert.Equal(t, "nightly", ns.String)
}

func sampleResult() *pipeline.Result {
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	rec := models.ForecastRecord{ForecastDate: day, PredictedCount: 0.875, District: "A", Category: "ROBO"}
	return &pipeline.Result{
		RunID:   uuid.NewString(),
		Records: []models.ForecastRecord{rec},
		Outcomes: []models.Outcome{
			{Key: rec.Key(), Status: models.OutcomeGenerated, Observations: 4, Record: &rec, Elapsed: 15 * time.Microsecond},
			{Key: models.GroupKey{Category: "ROBO", District: "B"}, Status: models.OutcomeInsufficient, Observations: 1},
			{Key: models.GroupKey{Category: "ROBO", District: "C"}, Status: models.OutcomeFailed, Observations: 3, Detail: "fit failed"},
		},
		Categories: 1,
		Districts:  3,
		StartedAt:  time.Now().Add(-time.Second),
		FinishedAt: time.Now(),
	}
}

func TestNewRun(t *testing.T) {
	res := sampleResult()
	stats := ingest.Stats{Rows: 10, Kept: 8, MissingFields: 1, BadDates: 1}

	run := NewRun(res, stats, 0.5, 4)
	assert.Equal(t, res.RunID, run.ID.String())
	assert.Equal(t, 0.5, run.Alpha)
	assert.Equal(t, 4, run.Workers)
	assert.Equal(t, stats, run.Input)
	assert.Equal(t, 1, run.count(models.OutcomeGenerated))
	assert.Equal(t, 1, run.count(models.OutcomeInsufficient))
	assert.Equal(t, 1, run.count(models.OutcomeFailed))

	res.RunID = "not-a-uuid"
	run = NewRun(res, stats, 0.5, 4)
	assert.NotEqual(t, uuid.Nil, run.ID)
}

func TestOpen_InvalidSchema(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{URL: "postgres://localhost/x", Schema: "bad-name"})
	assert.ErrorContains(t, err, "invalid schema name")
}

// testStore connects to CRIMECAST_TEST_DB_URL in a throwaway schema
func testStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("CRIMECAST_TEST_DB_URL")
	if url == "" {
		t.Skip("CRIMECAST_TEST_DB_URL not set, skipping test")
	}

	schema := "crimecast_test_" + uuid.NewString()[:8]
	s, err := Open(context.Background(), config.DatabaseConfig{
		URL:     url,
		Schema:  schema,
		Tag:     "test",
		Timeout: 30 * time.Second,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = s.db.Exec(`DROP SCHEMA IF EXISTS ` + schema + ` CASCADE`)
		_ = s.Close()
	})
	return s
}

func TestStore_SaveRunAndLatest(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, _, err := s.LatestRecords(ctx)
	require.ErrorIs(t, err, ErrNoRuns)

	res := sampleResult()
	id, err := s.SaveRun(ctx, NewRun(res, ingest.Stats{Rows: 5, Kept: 5}, 0.5, 1))
	require.NoError(t, err)
	assert.Equal(t, res.RunID, id)

	latestID, records, err := s.LatestRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, latestID)
	assert.Equal(t, res.Records, records)

	var outcomes, failed int
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'failed') FROM `+s.schema+`.forecast_outcomes WHERE run_id = $1`,
		id).Scan(&outcomes, &failed))
	assert.Equal(t, 3, outcomes)
	assert.Equal(t, 1, failed)
}

func TestStore_SaveRunIsAtomic(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := NewRun(sampleResult(), ingest.Stats{}, 0.5, 1)
	_, err := s.SaveRun(ctx, run)
	require.NoError(t, err)

	// same id again violates the primary key; nothing from the second attempt may remain
	run.Records = append(run.Records, run.Records[0])
	_, err = s.SaveRun(ctx, run)
	require.Error(t, err)

	var n int
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+s.schema+`.forecast_records`).Scan(&n))
	assert.Equal(t, 1, n)
}
