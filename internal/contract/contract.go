// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/hypeplot/schema"
)

// Source turns a search term and a time window into a metrics row for one provider.
// Implementations never panic on ordinary failures; the caller degrades a failed bucket to Zero.
type Source interface {
	// Name is the registry key, e.g. "github".
	Name() string

	// Columns lists the metric columns in declaration order.
	Columns() []schema.Column

	// Delay is the mandatory pause after every request.
	Delay() time.Duration

	// Check reports a missing credential or unsupported configuration.
	// It is called once per session and a non-nil result skips every request.
	Check() error

	// Zero returns the degraded metrics for a bucket.
	Zero(term string) schema.Metrics

	// FetchBucket performs one external query for the bucket.
	FetchBucket(ctx context.Context, term string, b schema.TimeBucket) (schema.Metrics, error)
}

// LocalSource is implemented by sources that can answer some buckets from
// results they already hold. Buckets served this way skip the post-call delay.
type LocalSource interface {
	Local(term string, b schema.TimeBucket) (schema.Metrics, bool)
}

// SourceCatalog lists the names of registered sources.
type SourceCatalog interface {
	Names() []string
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetFetchStore() CacheStore
	GetRunStore() RunStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// RunStore defines the interface for tracking fetch runs and the rows they produced.
type RunStore interface {
	// BeginRun creates a new run and returns its numeric ID
	BeginRun(runUUID string, term string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalRows int) error

	// RecordRows stores every metric of the rows produced by one source
	RecordRows(runID int64, source string, rows []schema.SourceRow) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.RunStatus, error)

	// GetAllFetchRuns retrieves all runs for export
	GetAllFetchRuns() ([]schema.FetchRunRecord, error)

	// GetAllFetchRows retrieves all recorded metrics for export
	GetAllFetchRows() ([]schema.FetchRowRecord, error)

	// Close closes the underlying connection
	Close() error
}
