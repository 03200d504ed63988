// Package ingest loads the incident table from CSV into normalized events
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/soltixdb/crimecast/internal/compression"
	"github.com/soltixdb/crimecast/internal/config"
	"github.com/soltixdb/crimecast/internal/models"
	"github.com/soltixdb/crimecast/internal/normalize"
)

// ErrMissingColumn is returned when a configured column is not in the header
var ErrMissingColumn = errors.New("missing column")

// cancellation is checked once per this many rows
const checkEvery = 4096

// Columns names the three fields read from each row
type Columns struct {
	Date     string
	District string
	Category string
}

// Options controls how rows are turned into events
type Options struct {
	Columns  Columns
	Layouts  []string
	Location *time.Location
}

// OptionsFrom builds loader options from the input configuration
func OptionsFrom(cfg config.InputConfig) Options {
	layouts := cfg.DateLayouts
	if len(layouts) == 0 {
		layouts = config.DefaultDateLayouts
	}
	return Options{
		Columns: Columns{
			Date:     cfg.DateColumn,
			District: cfg.DistrictColumn,
			Category: cfg.CategoryColumn,
		},
		Layouts:  layouts,
		Location: cfg.Location(),
	}
}

// Stats counts what happened to the input rows
type Stats struct {
	Rows          int `json:"rows"`
	Kept          int `json:"kept"`
	MissingFields int `json:"missing_fields"`
	BadDates      int `json:"bad_dates"`
}

// Dropped returns the number of rows that did not become events
func (s Stats) Dropped() int {
	return s.MissingFields + s.BadDates
}

// LoadFile reads events from path. A .sz suffix means snappy framing.
func LoadFile(ctx context.Context, path string, opts Options) ([]models.Event, Stats, error) {
	r, err := compression.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = r.Close() }()

	events, stats, err := ReadCSV(ctx, r, opts)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return events, stats, nil
}

// ReadCSV reads a header row and then one event per data row. Rows with an
// empty date, district or category are dropped, as are rows whose date
// matches none of the layouts. Names are normalized before they are kept.
func ReadCSV(ctx context.Context, r io.Reader, opts Options) ([]models.Event, Stats, error) {
	var stats Stats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, stats, errors.New("empty input: no header row")
		}
		return nil, stats, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	headers := normalizeHeaders(header)
	dateIdx, err := requireColumn(headers, opts.Columns.Date)
	if err != nil {
		return nil, stats, err
	}
	districtIdx, err := requireColumn(headers, opts.Columns.District)
	if err != nil {
		return nil, stats, err
	}
	categoryIdx, err := requireColumn(headers, opts.Columns.Category)
	if err != nil {
		return nil, stats, err
	}

	layouts := opts.Layouts
	if len(layouts) == 0 {
		layouts = config.DefaultDateLayouts
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	var events []models.Event
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++
		if stats.Rows%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, stats, err
			}
		}

		dateValue := getValue(record, dateIdx)
		district := getValue(record, districtIdx)
		category := getValue(record, categoryIdx)
		if dateValue == "" || district == "" || category == "" {
			stats.MissingFields++
			continue
		}

		date, err := parseDate(dateValue, layouts, loc)
		if err != nil {
			stats.BadDates++
			continue
		}

		events = append(events, models.Event{
			Date:     date,
			District: normalize.String(district),
			Category: normalize.String(category),
		})
		stats.Kept++
	}

	return events, stats, nil
}

// parseDate tries each layout in order and returns the calendar day.
// Zoned timestamps are converted to loc before the day is taken.
func parseDate(value string, layouts []string, loc *time.Location) (time.Time, error) {
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return models.CalendarDay(parsed.In(loc)), nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %s", value)
}

func requireColumn(headers map[string]int, name string) (int, error) {
	if idx, ok := headers[normalizeHeader(name)]; ok {
		return idx, nil
	}
	return -1, fmt.Errorf("%w: %q", ErrMissingColumn, name)
}

// normalizeHeaders maps each normalized header to its first position
func normalizeHeaders(headers []string) map[string]int {
	result := make(map[string]int, len(headers))
	for idx, header := range headers {
		normalized := normalizeHeader(header)
		if _, exists := result[normalized]; !exists {
			result[normalized] = idx
		}
	}
	return result
}

func normalizeHeader(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.ReplaceAll(value, " ", "")
	value = strings.ReplaceAll(value, "_", "")
	value = strings.ReplaceAll(value, "-", "")
	return value
}

func getValue(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
