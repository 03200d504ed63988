package pipeline

import (
	"fmt"
	"io"
	"sync"

	"github.com/soltixdb/crimecast/internal/models"
)

// DiagnosticSink receives one human-readable line per GroupKey outcome
type DiagnosticSink interface {
	Diagnostic(line string)
}

// WriterSink writes diagnostic lines to an io.Writer
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing newline-terminated lines to w
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Diagnostic writes line to the underlying writer
func (s *WriterSink) Diagnostic(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.w, line)
}

type discardSink struct{}

func (discardSink) Diagnostic(string) {}

// Discard drops every diagnostic line
var Discard DiagnosticSink = discardSink{}

// noForecastsLine is written once when a run produced no records
const noForecastsLine = "no forecasts generated"

// DiagnosticLine renders the line for a single outcome
func DiagnosticLine(o models.Outcome) string {
	switch o.Status {
	case models.OutcomeGenerated:
		return fmt.Sprintf("forecast generated for %s in %s", o.Key.Category, o.Key.District)
	case models.OutcomeInsufficient:
		return fmt.Sprintf("insufficient data for %s in %s", o.Key.Category, o.Key.District)
	default:
		return fmt.Sprintf("error predicting for %s in %s: %s", o.Key.Category, o.Key.District, o.Detail)
	}
}
