// Package outwriter has output and writer logic.
package outwriter

import (
	"io"
	"time"

	"github.com/huangsam/hypeplot/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the file formats and console tables so the core logic only sees one API.
type OutWriter struct {
	UseColors bool
}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter(useColors bool) *OutWriter {
	return &OutWriter{UseColors: useColors}
}

// WriteRows persists the rows of one source as CSV.
func (ow *OutWriter) WriteRows(path string, cols []schema.Column, rows []schema.SourceRow) error {
	return WriteRows(path, cols, rows)
}

// WriteAnnual persists a yearly trends series as CSV.
func (ow *OutWriter) WriteAnnual(path string, points []schema.AnnualPoint) error {
	return WriteAnnual(path, points)
}

// WriteManifest persists the manifest of a run as YAML.
func (ow *OutWriter) WriteManifest(path string, m *schema.ResultManifest) error {
	return WriteManifest(path, m)
}

// WriteSummary prints the artifact list and, on a terminal, the status table.
func (ow *OutWriter) WriteSummary(w io.Writer, m *schema.ResultManifest, outDir string, duration time.Duration) error {
	if err := PrintSummary(w, m, outDir); err != nil {
		return err
	}
	if !IsTerminal(w) {
		return nil
	}
	return PrintStatusTable(w, m, ow.UseColors, duration)
}
