package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const incidents = `fecha_hecho,delito,alcaldia_hecho
2024-01-01,Robo,A
2024-01-02,ROBO,A
2024-01-02,robo,A
2024-01-04,Robó,A
2024-01-01,ROBO,B
`

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T, dir, extra string) string {
	t.Helper()
	return writeFixture(t, dir, "config.yaml", `
logging:
  level: error
  format: json
pipeline:
  workers: 2
`+extra)
}

func TestRun_WritesForecasts(t *testing.T) {
	dir := t.TempDir()
	input := writeFixture(t, dir, "delitos.csv", incidents)
	output := filepath.Join(dir, "out", "predicciones.csv")
	cfg := testConfig(t, dir, `
queue:
  enabled: true
  type: memory
`)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"-config", cfg, "-input", input, "-output", output}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.Equal(t,
		"forecast generated for ROBO in A\ninsufficient data for ROBO in B\n",
		stdout.String())

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t,
		"forecast_date,predicted_count,district,category\n2024-01-05,0.875,A,ROBO\n",
		string(data))
}

func TestRun_NoPredictions(t *testing.T) {
	dir := t.TempDir()
	input := writeFixture(t, dir, "delitos.csv", "fecha_hecho,delito,alcaldia_hecho\n2024-01-01,ROBO,A\n")
	output := filepath.Join(dir, "predicciones.csv")
	cfg := testConfig(t, dir, "")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"-config", cfg, "-input", input, "-output", output}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.True(t, strings.HasSuffix(stdout.String(), "no forecasts generated\n"), stdout.String())

	_, err := os.Stat(output)
	assert.True(t, os.IsNotExist(err), "no file is written when nothing was forecast")
}

func TestRun_DiagnosticsFile(t *testing.T) {
	dir := t.TempDir()
	input := writeFixture(t, dir, "delitos.csv", incidents)
	diag := filepath.Join(dir, "logs", "diagnostics.txt")
	cfg := testConfig(t, dir, "output:\n  diagnostics: "+diag+"\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(),
		[]string{"-config", cfg, "-input", input, "-output", filepath.Join(dir, "p.csv")}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(diag)
	require.NoError(t, err)
	assert.Contains(t, string(data), "insufficient data for ROBO in B")
}

func TestRun_MissingInput(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir, "")

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), []string{"-config", cfg}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "No input file")

	code := run(context.Background(),
		[]string{"-config", cfg, "-input", filepath.Join(dir, "missing.csv")}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}

func TestRun_ShowLatestNeedsDatabase(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir, "")

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), []string{"-config", cfg, "-show-latest"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "database.enabled")
	assert.Empty(t, stdout.String())
}

func TestRun_ShowLatest(t *testing.T) {
	url := os.Getenv("CRIMECAST_TEST_DB_URL")
	if url == "" {
		t.Skip("CRIMECAST_TEST_DB_URL not set, skipping test")
	}

	schema := "crimecast_cli_" + uuid.NewString()[:8]
	t.Cleanup(func() {
		db, err := sql.Open("pgx", url)
		if err != nil {
			return
		}
		_, _ = db.Exec(`DROP SCHEMA IF EXISTS ` + schema + ` CASCADE`)
		_ = db.Close()
	})

	dir := t.TempDir()
	input := writeFixture(t, dir, "delitos.csv", incidents)
	cfg := testConfig(t, dir, `
output:
  diagnostics: none
database:
  enabled: true
  url: `+url+`
  schema: `+schema+`
`)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfg, "-show-latest"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "No stored runs")

	stdout.Reset()
	code = run(context.Background(),
		[]string{"-config", cfg, "-input", input, "-output", filepath.Join(dir, "p.csv")}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	stdout.Reset()
	code = run(context.Background(), []string{"-config", cfg, "-show-latest"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t,
		"forecast_date,predicted_count,district,category\n2024-01-05,0.875,A,ROBO\n",
		stdout.String())
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run(context.Background(), []string{"-version"}, &stdout, &stderr))
	assert.True(t, strings.HasPrefix(stdout.String(), "crimecast dev"))
}

func TestRun_BadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), []string{"-nope"}, &stdout, &stderr))
}

func TestOpenDiagnostics(t *testing.T) {
	var stdout, stderr bytes.Buffer

	sink, closeFn, err := openDiagnostics("stderr", &stdout, &stderr)
	require.NoError(t, err)
	sink.Diagnostic("x")
	require.NoError(t, closeFn())
	assert.Equal(t, "x\n", stderr.String())

	sink, _, err = openDiagnostics("none", &stdout, &stderr)
	require.NoError(t, err)
	sink.Diagnostic("y")
	assert.Empty(t, stdout.String())
}
