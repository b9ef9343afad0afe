package iocache

import (
	"errors"
	"fmt"

	"github.com/huangsam/hypeplot/internal/parquet"
)

// ExecuteRunsExport exports the run history to two Parquet files that share
// the outputFile prefix.
func ExecuteRunsExport(outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	store := Manager.GetRunStore()
	if store == nil {
		return errors.New("run tracking is disabled. Set --runs-backend to enable it")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no run data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total fetch runs: %d\n", status.TotalRuns)
	fmt.Printf("Total metric records: %d\n", status.TableSizes[fetchRowsTable])

	runs, err := store.GetAllFetchRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve fetch runs: %w", err)
	}

	rows, err := store.GetAllFetchRows()
	if err != nil {
		return fmt.Errorf("failed to retrieve fetch rows: %w", err)
	}

	parquetRuns := parquet.ConvertFetchRunRecords(runs)
	parquetRows := parquet.ConvertFetchRowRecords(rows)

	runsFile := outputFile + ".fetch_runs.parquet"
	if err := parquet.WriteFetchRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write fetch runs: %w", err)
	}
	fmt.Printf("Exported %d fetch runs to: %s\n", len(parquetRuns), runsFile)

	rowsFile := outputFile + ".fetch_rows.parquet"
	if err := parquet.WriteMetricRowsParquet(parquetRows, rowsFile); err != nil {
		return fmt.Errorf("failed to write fetch rows: %w", err)
	}
	fmt.Printf("Exported %d metric records to: %s\n", len(parquetRows), rowsFile)

	fmt.Println("\nExport complete! The Parquet files can be used with DuckDB, Pandas or Spark.")
	return nil
}
