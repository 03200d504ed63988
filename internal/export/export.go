// Package export writes forecast records as CSV
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/soltixdb/crimecast/internal/compression"
	"github.com/soltixdb/crimecast/internal/models"
)

// Header is the column order of the forecast file
var Header = []string{"forecast_date", "predicted_count", "district", "category"}

// WriteCSV writes the header followed by one row per record, in order
func WriteCSV(w io.Writer, records []models.ForecastRecord) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range records {
		if err := csvWriter.Write(row(r)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// WriteFile writes records to path, creating parent directories.
// A .sz suffix means snappy framing.
func WriteFile(path string, records []models.ForecastRecord) (err error) {
	w, err := compression.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := w.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	return WriteCSV(w, records)
}

func row(r models.ForecastRecord) []string {
	return []string{
		r.ForecastDate.Format(models.DateLayout),
		strconv.FormatFloat(r.PredictedCount, 'f', -1, 64),
		r.District,
		r.Category,
	}
}
