// Package cmd defines the command-line interface for hypeplot.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/outwriter"
	"github.com/huangsam/hypeplot/schema"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(bucketsCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(mcpCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the runs subcommands to the parent runs command
	runsCmd.AddCommand(runsClearCmd)
	runsCmd.AddCommand(runsStatusCmd)
	runsCmd.AddCommand(runsExportCmd)
	runsCmd.AddCommand(runsMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("source", contract.AllSources, "Comma-separated sources, or all")
	rootCmd.PersistentFlags().String("format", "", "Comma-separated output formats: csv, html, png, parquet (default csv, or csv,html,png with plot)")
	rootCmd.PersistentFlags().String("bucket", contract.DefaultBucket, "Bucket width: yearly, quarterly, monthly or days:N")
	rootCmd.PersistentFlags().Bool("topic", false, "Resolve the term to a Google Trends topic instead of a search string")
	rootCmd.PersistentFlags().Bool("no-open", false, "Do not open the first chart in a browser")
	rootCmd.PersistentFlags().String("output-dir", contract.DefaultOutputDir, "Directory for generated artifacts")
	rootCmd.PersistentFlags().Bool("refresh", false, "Bypass the fetch and trends caches")
	rootCmd.PersistentFlags().String("transport-profile", contract.DefaultProfile, "TLS fingerprint for scraped sources: chrome, firefox, safari, go, random")
	rootCmd.PersistentFlags().String("registry", contract.DefaultRegistry, "Package registry for the packages source: pypi, npm, maven")
	rootCmd.PersistentFlags().String("metrics-file", "", "Write Prometheus request and bucket counters to this file at the end")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("runs-backend", "", "Run history backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("runs-db-connect", "", "Database connection string for run history (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Listing and export flags share names across commands, so they are read from
	// the command itself instead of Viper
	for _, c := range []*cobra.Command{sourcesCmd, bucketsCmd} {
		c.Flags().String("output", outwriter.TableListing, "Listing format: table or json or csv")
		c.Flags().String("output-file", "", "Optional path to write output to")
	}
	runsExportCmd.Flags().String("output-file", "", "Prefix for the exported Parquet files")

	// Bind all flags of runsMigrateCmd to Viper
	runsMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(runsMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding runs migrate flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Address for the dashboard server")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of indexCmd to Viper
	indexCmd.Flags().String("index-file", "index.html", "Path of the generated index page")
	if err := viper.BindPFlags(indexCmd.Flags()); err != nil {
		contract.LogFatal("Error binding index flags", err)
	}
}
