// Package parquet provides data structures and functions for exporting hypeplot
// fetch data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/huangsam/hypeplot/schema"
	"github.com/parquet-go/parquet-go"
)

// FetchRun represents a single fetch run with metadata.
// This struct maps to the hypeplot_fetch_runs database table.
type FetchRun struct {
	// RunID is the numeric identifier assigned by the run store
	RunID int64 `parquet:"run_id,snappy"`

	// RunUUID matches the run_id written into the manifest
	RunUUID string `parquet:"run_uuid,snappy"`

	// Term is the search term of the run
	Term string `parquet:"term,snappy"`

	// StartTime is when the run began
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalRows is the number of rows produced across all sources
	TotalRows int32 `parquet:"total_rows,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// MetricRow is one metric of one bucket in long format. It is used both for
// run history exports and for the per-source parquet output.
type MetricRow struct {
	RunID      int64     `parquet:"run_id,snappy"`
	Source     string    `parquet:"source,snappy,dict"`
	Period     string    `parquet:"period,snappy"`
	StartDate  string    `parquet:"start_date,snappy"`
	EndDate    string    `parquet:"end_date,snappy"`
	Metric     string    `parquet:"metric,snappy,dict"`
	Value      float64   `parquet:"value,snappy"`
	TextValue  *string   `parquet:"text_value,optional,snappy"`
	RecordedAt time.Time `parquet:"recorded_at,snappy"`
}

// writeParquet writes a slice of rows using struct schema inference.
func writeParquet[T any](data []T, outputPath string) error {
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to flush parquet file: %w", err)
	}
	return nil
}

// WriteFetchRunsParquet writes fetch runs to a Parquet file.
func WriteFetchRunsParquet(data []FetchRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteMetricRowsParquet writes long-format metric rows to a Parquet file.
func WriteMetricRowsParquet(data []MetricRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertFetchRunRecords converts []schema.FetchRunRecord to []FetchRun.
func ConvertFetchRunRecords(records []schema.FetchRunRecord) []FetchRun {
	result := make([]FetchRun, len(records))
	for i, record := range records {
		result[i] = FetchRun{
			RunID:         record.RunID,
			RunUUID:       record.RunUUID,
			Term:          record.Term,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalRows:     record.TotalRows,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertFetchRowRecords converts []schema.FetchRowRecord to []MetricRow.
func ConvertFetchRowRecords(records []schema.FetchRowRecord) []MetricRow {
	result := make([]MetricRow, len(records))
	for i, record := range records {
		result[i] = MetricRow{
			RunID:      record.RunID,
			Source:     record.Source,
			Period:     record.Period,
			StartDate:  schema.FormatDate(record.StartDate),
			EndDate:    schema.FormatDate(record.EndDate),
			Metric:     record.Metric,
			Value:      record.Value,
			TextValue:  record.TextValue,
			RecordedAt: record.RecordedAt,
		}
	}
	return result
}

// ConvertSourceRows flattens the rows of one source into long format.
// Metric names within a row appear in sorted order.
func ConvertSourceRows(runID int64, source string, rows []schema.SourceRow, recordedAt time.Time) []MetricRow {
	var result []MetricRow
	for _, row := range rows {
		names := make([]string, 0, len(row.Metrics))
		for k := range row.Metrics {
			names = append(names, k)
		}
		slices.Sort(names)

		for _, name := range names {
			mr := MetricRow{
				RunID:      runID,
				Source:     source,
				Period:     row.Period,
				StartDate:  schema.FormatDate(row.StartDate),
				EndDate:    schema.FormatDate(row.EndDate),
				Metric:     name,
				RecordedAt: recordedAt,
			}
			if f, ok := schema.NumericValue(row.Metrics[name]); ok {
				mr.Value = f
			} else {
				text := schema.FormatValue(row.Metrics[name])
				mr.TextValue = &text
			}
			result = append(result, mr)
		}
	}
	return result
}
