package contract

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/hypeplot/internal/bucket"
	"github.com/huangsam/hypeplot/schema"
)

// Default values for configuration.
const (
	DefaultOutputDir = "outputs"
	DefaultBucket    = "yearly"
	DefaultProfile   = "chrome"
	DefaultRegistry  = "pypi"
	AllSources       = "all"
	PlotArgument     = "plot"
	MinYear          = 1900
	MaxYear          = 2100
)

// ValidTransportProfiles lists the TLS fingerprints available for scraped sources.
var ValidTransportProfiles = map[string]struct{}{
	"chrome":  {},
	"firefox": {},
	"safari":  {},
	"go":      {},
	"random":  {},
}

// ValidRegistries lists the package registries the packages source knows about.
// Only pypi exposes download counts.
var ValidRegistries = map[string]struct{}{
	"pypi":  {},
	"npm":   {},
	"maven": {},
}

// Credentials holds the secrets read from the environment.
type Credentials struct {
	NewsAPIKey         string
	YouTubeAPIKey      string
	TwitterBearerToken string
	GitHubToken        string
}

// Config holds the runtime configuration for a fetch run.
// This struct remains the "final, validated" config.
type Config struct {
	Term      string
	Slug      string
	StartYear int
	EndYear   int

	Sources []string
	Formats []schema.OutputFormat
	Bucket  schema.BucketWidth
	Topic   bool

	OpenBrowser      bool
	OutputDir        string
	Refresh          bool
	TransportProfile string
	MetricsFile      string
	Registry         string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	RunsBackend   schema.DatabaseBackend
	RunsDBConnect string // Please use env var as this is plaintext

	Credentials Credentials

	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// These are set manually from positional args, so no tag
	TermStr  string
	StartStr string
	EndStr   string
	PlotArg  bool

	// --- Fields from rootCmd.PersistentFlags() ---
	Source           string `mapstructure:"source"`
	Format           string `mapstructure:"format"`
	Bucket           string `mapstructure:"bucket"`
	Topic            bool   `mapstructure:"topic"`
	NoOpen           bool   `mapstructure:"no-open"`
	OutputDir        string `mapstructure:"output-dir"`
	Refresh          bool   `mapstructure:"refresh"`
	TransportProfile string `mapstructure:"transport-profile"`
	MetricsFile      string `mapstructure:"metrics-file"`
	Registry         string `mapstructure:"registry"`
	Color            string `mapstructure:"color"`
	CacheBackend     string `mapstructure:"cache-backend"`
	CacheDBConnect   string `mapstructure:"cache-db-connect"`
	RunsBackend      string `mapstructure:"runs-backend"`
	RunsDBConnect    string `mapstructure:"runs-db-connect"`

	// --- Credentials bound to their conventional env vars ---
	NewsAPIKey         string `mapstructure:"news-api-key"`
	YouTubeAPIKey      string `mapstructure:"youtube-api-key"`
	TwitterBearerToken string `mapstructure:"twitter-bearer-token"`
	GitHubToken        string `mapstructure:"github-token"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Sources = slices.Clone(c.Sources)
	clone.Formats = slices.Clone(c.Formats)
	return &clone
}

// HasFormat reports whether an output format was requested.
func (c *Config) HasFormat(f schema.OutputFormat) bool {
	return slices.Contains(c.Formats, f)
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct. Nothing is fetched until this succeeds.
func ProcessAndValidate(cfg *Config, catalog SourceCatalog, input *ConfigRawInput) error {
	if err := processTerm(cfg, input); err != nil {
		return err
	}
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processYearRange(cfg, input); err != nil {
		return err
	}
	if err := processBucket(cfg, input); err != nil {
		return err
	}
	if err := processSources(cfg, catalog, input); err != nil {
		return err
	}
	if err := processFormats(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ProcessBase validates everything except the fetch inputs (term, years, bucket,
// sources and formats). Long-running commands such as mcp and serve start from it.
func ProcessBase(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseYear accepts YYYY or YYYY-MM-DD and returns the year.
func ParseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(schema.DateLayout, s); err == nil {
		s = strconv.Itoa(t.Year())
	}
	year, err := strconv.Atoi(s)
	if err != nil || len(s) != 4 {
		return 0, fmt.Errorf("invalid year %q. expected YYYY or YYYY-MM-DD", s)
	}
	if year < MinYear || year > MaxYear {
		return 0, fmt.Errorf("year %d must be between %d and %d", year, MinYear, MaxYear)
	}
	return year, nil
}

// ParseList splits a comma-separated flag value into lowercase, de-duplicated items.
func ParseList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		p := strings.ToLower(strings.TrimSpace(part))
		if p != "" && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}

// validateSimpleInputs transfers flags that need little or no validation.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OpenBrowser = !input.NoOpen
	cfg.Refresh = input.Refresh
	cfg.MetricsFile = input.MetricsFile

	cfg.OutputDir = input.OutputDir
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	cfg.TransportProfile = strings.ToLower(input.TransportProfile)
	if cfg.TransportProfile == "" {
		cfg.TransportProfile = DefaultProfile
	}
	if _, ok := ValidTransportProfiles[cfg.TransportProfile]; !ok {
		return fmt.Errorf("invalid transport profile '%s'. must be chrome, firefox, safari, go, random", input.TransportProfile)
	}

	cfg.Registry = strings.ToLower(input.Registry)
	if cfg.Registry == "" {
		cfg.Registry = DefaultRegistry
	}
	if _, ok := ValidRegistries[cfg.Registry]; !ok {
		return fmt.Errorf("invalid registry '%s'. must be pypi, npm, maven", input.Registry)
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	cfg.Credentials = Credentials{
		NewsAPIKey:         strings.TrimSpace(input.NewsAPIKey),
		YouTubeAPIKey:      strings.TrimSpace(input.YouTubeAPIKey),
		TwitterBearerToken: strings.TrimSpace(input.TwitterBearerToken),
		GitHubToken:        strings.TrimSpace(input.GitHubToken),
	}
	return nil
}

// processTerm sets the search term, its slug and topic mode.
func processTerm(cfg *Config, input *ConfigRawInput) error {
	cfg.Term = strings.TrimSpace(input.TermStr)
	if cfg.Term == "" {
		return fmt.Errorf("search term must not be empty")
	}
	cfg.Slug = schema.Slug(cfg.Term)
	cfg.Topic = input.Topic
	return nil
}

// processYearRange parses the positional start and end years.
func processYearRange(cfg *Config, input *ConfigRawInput) error {
	start, err := ParseYear(input.StartStr)
	if err != nil {
		return fmt.Errorf("invalid start: %w", err)
	}
	end, err := ParseYear(input.EndStr)
	if err != nil {
		return fmt.Errorf("invalid end: %w", err)
	}
	if end < start {
		LogWarn("Year range", fmt.Errorf("end year %d is before start year %d, no buckets will be fetched", end, start))
	}
	cfg.StartYear = start
	cfg.EndYear = end
	return nil
}

// processBucket parses the --bucket spec.
func processBucket(cfg *Config, input *ConfigRawInput) error {
	spec := input.Bucket
	if spec == "" {
		spec = DefaultBucket
	}
	w, err := bucket.Parse(spec)
	if err != nil {
		return err
	}
	cfg.Bucket = w
	return nil
}

// processSources resolves --source against the registered catalog.
func processSources(cfg *Config, catalog SourceCatalog, input *ConfigRawInput) error {
	known := catalog.Names()
	requested := ParseList(input.Source)
	if len(requested) == 0 || slices.Contains(requested, AllSources) {
		cfg.Sources = slices.Clone(known)
		return nil
	}
	for _, name := range requested {
		if !slices.Contains(known, name) {
			return fmt.Errorf("invalid source '%s'. must be one of %s, or %s", name, strings.Join(known, ", "), AllSources)
		}
	}
	cfg.Sources = requested
	return nil
}

// processFormats resolves --format, defaulting by the trailing "plot" argument.
func processFormats(cfg *Config, input *ConfigRawInput) error {
	requested := ParseList(input.Format)
	if len(requested) == 0 {
		if input.PlotArg {
			cfg.Formats = slices.Clone(schema.PlotFormats)
		} else {
			cfg.Formats = slices.Clone(schema.DefaultFormats)
		}
		return nil
	}
	cfg.Formats = nil
	for _, name := range requested {
		f := schema.OutputFormat(name)
		if _, ok := schema.ValidOutputFormats[f]; !ok {
			return fmt.Errorf("invalid format '%s'. must be csv, html, png, parquet", name)
		}
		cfg.Formats = append(cfg.Formats, f)
	}
	return nil
}

// validateBackendConfigs validates cache and run history backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Runs Backend Validation ---
	cfg.RunsBackend = schema.DatabaseBackend(strings.ToLower(input.RunsBackend))
	if cfg.RunsBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.RunsBackend]; !ok {
		return fmt.Errorf("invalid runs backend '%s'. must be sqlite, mysql, postgresql, none", input.RunsBackend)
	}
	cfg.RunsDBConnect = input.RunsDBConnect
	if err := ValidateDatabaseConnectionString(cfg.RunsBackend, cfg.RunsDBConnect); err != nil {
		return err
	}

	// Cache and run history must not share a SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.RunsBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		runsDBPath := cfg.RunsDBConnect
		if runsDBPath == "" {
			runsDBPath = GetRunsDBFilePath()
		}
		if cacheDBPath == runsDBPath {
			return fmt.Errorf("cache and run storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// RevalidateFetch applies the fetch inputs of a single request, such as an MCP tool call,
// onto a clone of an already validated base config.
func RevalidateFetch(cfg *Config, catalog SourceCatalog, input *ConfigRawInput) error {
	if err := processTerm(cfg, input); err != nil {
		return err
	}
	if err := processYearRange(cfg, input); err != nil {
		return err
	}
	if err := processBucket(cfg, input); err != nil {
		return err
	}
	if err := processSources(cfg, catalog, input); err != nil {
		return err
	}
	return processFormats(cfg, input)
}
