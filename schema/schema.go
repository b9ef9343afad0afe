// Package schema has the models and enumerations shared by all parts of hypeplot.
package schema

import (
	"strconv"
	"time"
)

// DateLayout is the calendar date format used in labels, CSV files and API queries.
const DateLayout = "2006-01-02"

// TimeBucket is one contiguous window of calendar days.
// Start and End are inclusive and always sit at midnight UTC.
type TimeBucket struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// Days returns the number of calendar days covered by the bucket.
func (b TimeBucket) Days() int {
	return int(b.End.Sub(b.Start).Hours()/24) + 1
}

// BucketWidth selects how a year span is partitioned.
// Days is only meaningful for DaysBucket.
type BucketWidth struct {
	Kind BucketKind `json:"kind"`
	Days int        `json:"days,omitempty"`
}

// String renders the width in the same form that the --bucket flag accepts.
func (w BucketWidth) String() string {
	if w.Kind == DaysBucket {
		return string(DaysBucket) + ":" + strconv.Itoa(w.Days)
	}
	return string(w.Kind)
}

// Column declares one metric column produced by a source.
type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// Metrics maps a metric column to its value. Values are int64, float64 or string.
type Metrics map[string]any

// SourceRow is the result for one bucket of one source.
type SourceRow struct {
	Period    string    `json:"period"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Metrics   Metrics   `json:"metrics"`
}

// AnnualPoint is one year of averaged search interest.
type AnnualPoint struct {
	Year     int     `json:"year"`
	Interest float64 `json:"interest"`
}

// WeeklyPoint is one raw sample of a search interest series.
type WeeklyPoint struct {
	Week     time.Time `json:"week"`
	Interest float64   `json:"interest"`
}
