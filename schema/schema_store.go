package schema

import "time"

// FetchRunRecord represents a row from the hypeplot_fetch_runs table.
type FetchRunRecord struct {
	RunID         int64
	RunUUID       string
	Term          string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalRows     int32
	ConfigParams  *string
}

// FetchRowRecord represents a row from the hypeplot_fetch_rows table.
// Each metric of a SourceRow is stored as its own record.
type FetchRowRecord struct {
	RunID      int64
	Source     string
	Period     string
	StartDate  time.Time
	EndDate    time.Time
	Metric     string
	Value      float64
	TextValue  *string
	RecordedAt time.Time
}
