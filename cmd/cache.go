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

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	connStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize caching with the loaded config (no run tracking for cache commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// sqliteFile resolves the database file of a SQLite backend.
func sqliteFile(connStr string, fallback func() string) string {
	if connStr != "" {
		return connStr
	}
	return fallback()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by the fetch command. This avoids term and year
// validation for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the per-bucket fetch cache",
	Long: `Manage the cache that stores successful bucket fetches and Trends lookups.

HypePlot caches every successful bucket for seven days so a rerun over an
overlapping range only calls the APIs for new buckets.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  hypeplot cache status

  # Drop everything and refetch on the next run
  hypeplot cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached fetch data",
	Long: `Delete all cached bucket and Trends data from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table

Examples:
  # Clear SQLite cache (default)
  hypeplot cache clear

  # Clear MySQL cache (set connection string via env variable)
  HYPEPLOT_CACHE_BACKEND=mysql HYPEPLOT_CACHE_DB_CONNECT="..." hypeplot cache clear`,
	PreRunE: cacheSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Release the SQLite handle before removing its file
		iocache.CloseCaching()
		dbFile := sqliteFile(cfg.CacheDBConnect, contract.GetCacheDBFilePath)
		if err := iocache.ClearCache(cfg.CacheBackend, dbFile, cfg.CacheDBConnect); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		cmd.Println("Cache cleared successfully.")
		return nil
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the fetch cache.

Displays:
- Backend type and connection status
- Total number of cached entries
- Last and oldest cache entry timestamps
- Cache database size

Examples:
  # Check cache status
  hypeplot cache status`,
	PreRunE: cacheSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		store := iocache.Manager.GetFetchStore()
		if store == nil {
			return errors.New("caching is disabled")
		}
		status, err := store.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get cache status: %w", err)
		}
		iocache.PrintCacheStatus(status)
		return nil
	},
}
