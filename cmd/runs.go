package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/iocache"
	"github.com/huangsam/hypeplot/schema"
)

// runsBackend reads and validates the run history backend settings.
func runsBackend() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backendStr := viper.GetString("runs-backend")
	connStr := viper.GetString("runs-db-connect")

	// Handle empty backend as NoneBackend
	backend := schema.NoneBackend
	if backendStr != "" {
		backend = schema.DatabaseBackend(backendStr)
	}

	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// runsSetup loads minimal configuration needed for run history operations.
func runsSetup() error {
	backend, connStr, err := runsBackend()
	if err != nil {
		return err
	}

	// Initialize stores with the loaded config (no caching for runs commands)
	if err := iocache.InitStores("", "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize run history: %w", err)
	}

	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	return nil
}

// runsSetupWrapper wraps runsSetup to provide PreRunE for runs commands.
func runsSetupWrapper(_ *cobra.Command, _ []string) error {
	return runsSetup()
}

// runsMigrateSetupWrapper loads the backend without opening the store, so
// migrations can run against a fresh database.
func runsMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	backend, connStr, err := runsBackend()
	if err != nil {
		return err
	}
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetRunsDBFilePath()
	}
	cfg.RunsBackend = backend
	cfg.RunsDBConnect = connStr
	return nil
}

// runsCmd focused on run history management.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage the history of fetch runs and exports",
	Long: `Manage the run history recorded when --runs-backend is set.

Each run stores:
- Run metadata (uuid, term, configuration, start and end time)
- Every metric of every bucket row produced by each source

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show run history statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all run history
  migrate - Run database schema migrations

Examples:
  # Record runs in SQLite
  hypeplot "rust" 2020 2024 --runs-backend sqlite

  # Export for analysis in pandas/DuckDB
  hypeplot runs export --runs-backend sqlite --output-file history`,
}

// runsClearCmd clears the run history.
var runsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs",
	Long: `Delete all stored runs and their metric rows.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  hypeplot runs export --runs-backend sqlite --output-file backup
  hypeplot runs clear --runs-backend sqlite`,
	PreRunE: runsSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		iocache.CloseCaching()
		dbFile := sqliteFile(cfg.RunsDBConnect, contract.GetRunsDBFilePath)
		if err := iocache.ClearRuns(cfg.RunsBackend, dbFile, cfg.RunsDBConnect); err != nil {
			return fmt.Errorf("failed to clear run history: %w", err)
		}
		cmd.Println("Run history cleared successfully.")
		return nil
	},
}

// runsStatusCmd shows run history status.
var runsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display run history statistics and connection details",
	Long: `Show detailed information about the recorded run history.

Displays:
- Backend type and connection status
- Total number of runs and metric rows
- Last and oldest run timestamps
- Database table sizes

Examples:
  hypeplot runs status --runs-backend sqlite`,
	PreRunE: runsSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store := iocache.Manager.GetRunStore()
		if store == nil {
			return errors.New("run tracking is disabled. Set --runs-backend to enable it")
		}
		status, err := store.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get run status: %w", err)
		}
		iocache.PrintRunStatus(status)
		return nil
	},
}

// runsExportCmd exports the run history to Parquet files.
var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export run history to Parquet for BI tools and analytics",
	Long: `Export all recorded runs to Parquet format.

Writes two files next to the --output-file prefix:
- <prefix>.fetch_runs.parquet - one row per run
- <prefix>.fetch_rows.parquet - one row per bucket metric

Examples:
  hypeplot runs export --runs-backend sqlite --output-file history
  duckdb -c "SELECT * FROM read_parquet('history.fetch_rows.parquet') LIMIT 10"`,
	PreRunE: runsSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		outputFile, err := cmd.Flags().GetString("output-file")
		if err != nil {
			return err
		}
		if err := iocache.ExecuteRunsExport(outputFile); err != nil {
			return fmt.Errorf("failed to export run history: %w", err)
		}
		return nil
	},
}

// runsMigrateCmd runs database migrations for the run store.
var runsMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  hypeplot runs migrate --runs-backend sqlite

  # Rollback to initial state
  hypeplot runs migrate --runs-backend sqlite --target-version 0`,
	PreRunE: runsMigrateSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateRuns(cfg.RunsBackend, cfg.RunsDBConnect, targetVersion); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	},
}
