package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/soltixdb/crimecast/internal/analytics/forecast"
	"github.com/soltixdb/crimecast/internal/config"
	"github.com/soltixdb/crimecast/internal/export"
	"github.com/soltixdb/crimecast/internal/ingest"
	"github.com/soltixdb/crimecast/internal/logging"
	"github.com/soltixdb/crimecast/internal/metrics"
	"github.com/soltixdb/crimecast/internal/pipeline"
	"github.com/soltixdb/crimecast/internal/queue"
	"github.com/soltixdb/crimecast/internal/store"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one forecast batch and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("crimecast", flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "Path to configuration file")
	inputPath := flags.String("input", "", "Incident CSV (overrides input.path)")
	outputPath := flags.String("output", "", "Forecast CSV (overrides output.path)")
	workers := flags.Int("workers", -1, "Concurrent pairs, 0 = one per CPU (overrides pipeline.workers)")
	showLatest := flags.Bool("show-latest", false, "Print the last stored run as CSV and exit")
	showVersion := flags.Bool("version", false, "Print version and exit")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		_, _ = fmt.Fprintf(stdout, "crimecast %s (commit %s, built %s)\n", Version, GitCommit, BuildTime)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *inputPath != "" {
		cfg.Input.Path = *inputPath
	}
	if *outputPath != "" {
		cfg.Output.Path = *outputPath
	}
	if *workers >= 0 {
		cfg.Pipeline.Workers = *workers
	}
	if cfg.Input.Path == "" && !*showLatest {
		_, _ = fmt.Fprintln(stderr, "No input file: set input.path or pass -input")
		return 1
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	logging.SetGlobal(logger)

	if *showLatest {
		return printLatest(ctx, cfg.Database, logger, stdout, stderr)
	}
	logger.Info("crimecast starting",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	sink, closeSink, err := openDiagnostics(cfg.Output.Diagnostics, stdout, stderr)
	if err != nil {
		logger.Error("Failed to open diagnostics output", "error", err)
		return 1
	}
	defer func() { _ = closeSink() }()

	b := &batch{
		cfg:     cfg,
		logger:  logger,
		sink:    sink,
		metrics: metrics.NewManager(),
	}
	return b.run(ctx)
}

// batch holds the collaborators of one run
type batch struct {
	cfg     *config.Config
	logger  *logging.Logger
	sink    pipeline.DiagnosticSink
	metrics *metrics.Manager
}

func (b *batch) run(ctx context.Context) int {
	defer b.pushMetrics(ctx)

	b.logger.Info("Loading incidents", "path", b.cfg.Input.Path)
	events, stats, err := ingest.LoadFile(ctx, b.cfg.Input.Path, ingest.OptionsFrom(b.cfg.Input))
	if err != nil {
		b.logger.Error("Failed to load incidents", "error", err)
		return 1
	}
	b.metrics.ObserveLoad(stats)
	b.logger.Info("Incidents loaded",
		"rows", stats.Rows, "events", stats.Kept,
		"missing_fields", stats.MissingFields, "bad_dates", stats.BadDates)

	forecaster, err := forecast.GetForecaster(b.cfg.Forecast.Method)
	if err != nil {
		b.logger.Error("Failed to select forecaster", "error", err)
		return 1
	}

	p, err := pipeline.New(pipeline.ConfigFrom(b.cfg), b.logger, forecaster,
		pipeline.WithDiagnostics(b.sink),
		pipeline.WithRecorder(b.metrics))
	if err != nil {
		b.logger.Error("Failed to create pipeline", "error", err)
		return 1
	}

	result, err := p.Run(ctx, events)
	if result != nil {
		b.metrics.ObserveRun(result)
	}
	if errors.Is(err, pipeline.ErrNoPredictions) {
		return 1
	}
	if err != nil {
		b.logger.Error("Forecast run failed", "error", err)
		return 1
	}

	if err := export.WriteFile(b.cfg.Output.Path, result.Records); err != nil {
		b.logger.Error("Failed to write forecasts", "path", b.cfg.Output.Path, "error", err)
		return 1
	}
	b.logger.Info("Forecasts written", "path", b.cfg.Output.Path, "records", len(result.Records))

	code := 0
	if b.cfg.Queue.Enabled {
		if err := b.publish(ctx, result); err != nil {
			b.logger.Error("Failed to publish forecasts", "error", err)
			code = 1
		}
	}
	if b.cfg.Database.Enabled {
		if err := b.store(ctx, result, stats); err != nil {
			b.logger.Error("Failed to store run", "error", err)
			code = 1
		}
	}
	return code
}

func (b *batch) publish(ctx context.Context, result *pipeline.Result) error {
	b.logger.Info("Connecting to Queue", "type", b.cfg.Queue.Type, "url", b.cfg.Queue.URL)
	publisher, err := queue.NewPublisher(b.cfg.Queue)
	if err != nil {
		return err
	}
	defer func() { _ = publisher.Close() }()

	n, err := queue.PublishForecasts(ctx, publisher, b.cfg.Queue.Subject, result.RunID,
		result.Records, b.cfg.Queue.PublishTimeout)
	b.metrics.ObservePublished(n)
	if err != nil {
		return err
	}
	b.logger.Info("Forecasts published", "subject", b.cfg.Queue.Subject, "records", n)
	return nil
}

func (b *batch) store(ctx context.Context, result *pipeline.Result, stats ingest.Stats) error {
	s, err := store.Open(ctx, b.cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	run := store.NewRun(result, stats, b.cfg.Forecast.SmoothingLevel, b.cfg.Pipeline.Workers)
	id, err := s.SaveRun(ctx, run)
	if err != nil {
		return err
	}
	b.metrics.ObserveStored(len(result.Records))
	b.logger.Info("Run stored", "run_id", id, "schema", b.cfg.Database.Schema)
	return nil
}

// printLatest writes the records of the most recent stored run to stdout
func printLatest(ctx context.Context, cfg config.DatabaseConfig, logger *logging.Logger, stdout, stderr io.Writer) int {
	if !cfg.Enabled {
		_, _ = fmt.Fprintln(stderr, "-show-latest needs database.enabled")
		return 1
	}

	s, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		return 1
	}
	defer func() { _ = s.Close() }()

	id, records, err := s.LatestRecords(ctx)
	if errors.Is(err, store.ErrNoRuns) {
		_, _ = fmt.Fprintln(stderr, "No stored runs")
		return 1
	}
	if err != nil {
		logger.Error("Failed to read latest run", "error", err)
		return 1
	}

	if err := export.WriteCSV(stdout, records); err != nil {
		logger.Error("Failed to write forecasts", "error", err)
		return 1
	}
	logger.Info("Latest run printed", "run_id", id, "records", len(records))
	return 0
}

func (b *batch) pushMetrics(ctx context.Context) {
	if b.cfg.Metrics.PushURL == "" {
		return
	}
	if err := b.metrics.Push(ctx, b.cfg.Metrics.PushURL, b.cfg.Metrics.Job); err != nil {
		b.logger.Warn("Failed to push metrics", "error", err)
	}
}

// openDiagnostics resolves the diagnostics destination: stdout, stderr,
// none, or a file path
func openDiagnostics(dest string, stdout, stderr io.Writer) (pipeline.DiagnosticSink, func() error, error) {
	noop := func() error { return nil }

	switch dest {
	case "", "stdout":
		return pipeline.NewWriterSink(stdout), noop, nil
	case "stderr":
		return pipeline.NewWriterSink(stderr), noop, nil
	case "none":
		return pipeline.Discard, noop, nil
	default:
		if dir := filepath.Dir(dest); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, err
			}
		}
		f, err := os.Create(dest)
		if err != nil {
			return nil, nil, err
		}
		return pipeline.NewWriterSink(f), f.Close, nil
	}
}
