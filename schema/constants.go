package schema

// Custom string types for type safety.
type (
	// BucketKind represents the partitioning of a year span.
	BucketKind string

	// OutputFormat represents an artifact format produced per source.
	OutputFormat string

	// ColumnKind represents the value type of a metric column.
	ColumnKind string

	// ArtifactKind represents the kind of file recorded in a manifest.
	ArtifactKind string

	// SourceStatus represents how a source finished in a run.
	SourceStatus string

	// DatabaseBackend represents the database backend for caching and run history.
	DatabaseBackend string
)

// All bucket kinds supported.
const (
	YearlyBucket    BucketKind = "yearly" // default
	QuarterlyBucket BucketKind = "quarterly"
	MonthlyBucket   BucketKind = "monthly"
	DaysBucket      BucketKind = "days"
)

// All output formats supported.
const (
	CSVFormat     OutputFormat = "csv" // default
	HTMLFormat    OutputFormat = "html"
	PNGFormat     OutputFormat = "png"
	ParquetFormat OutputFormat = "parquet"
)

// All column kinds supported.
const (
	IntColumn    ColumnKind = "int"
	FloatColumn  ColumnKind = "float"
	StringColumn ColumnKind = "string"
)

// All artifact kinds; these match the output formats so that manifest keys read "github_csv".
const (
	CSVArtifact     ArtifactKind = "csv"
	HTMLArtifact    ArtifactKind = "html"
	PNGArtifact     ArtifactKind = "png"
	ParquetArtifact ArtifactKind = "parquet"
)

// All source statuses.
const (
	StatusOK       SourceStatus = "ok"
	StatusDegraded SourceStatus = "degraded"
	StatusFailed   SourceStatus = "failed"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidBucketKinds lists all valid bucket kinds.
var ValidBucketKinds = map[BucketKind]struct{}{
	YearlyBucket:    {},
	QuarterlyBucket: {},
	MonthlyBucket:   {},
	DaysBucket:      {},
}

// ValidOutputFormats lists all valid output formats.
var ValidOutputFormats = map[OutputFormat]struct{}{
	CSVFormat:     {},
	HTMLFormat:    {},
	PNGFormat:     {},
	ParquetFormat: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// DefaultFormats is used when no --format is given.
var DefaultFormats = []OutputFormat{CSVFormat}

// PlotFormats is used when the trailing "plot" argument is given without --format.
var PlotFormats = []OutputFormat{CSVFormat, HTMLFormat, PNGFormat}
