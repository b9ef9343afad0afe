package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/schema"
)

// Table names for run tracking.
const (
	fetchRunsTable  = "hypeplot_fetch_runs"
	fetchRowsTable  = "hypeplot_fetch_rows"
	migrationsTable = "hypeplot_schema_migrations"
)

// RunStoreImpl implements the RunStore interface.
type RunStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.RunStore = &RunStoreImpl{} // Compile-time check

// NewRunStore creates a new RunStore with the specified backend.
func NewRunStore(backend schema.DatabaseBackend, connStr string) (*RunStoreImpl, error) {
	if backend == schema.NoneBackend {
		// Return a no-op store for disabled tracking
		return &RunStoreImpl{backend: backend}, nil
	}

	dsn := connStr
	if backend == schema.SQLiteBackend && dsn == "" {
		dsn = contract.GetRunsDBFilePath()
	}
	db, err := openDB(backend, dsn)
	if err != nil {
		return nil, err
	}

	if err := createRunTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create run tables: %w", err)
	}

	return &RunStoreImpl{db: db, backend: backend}, nil
}

// createRunTables creates the run tracking tables.
func createRunTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{fetchRunsTable, getCreateFetchRunsQuery(backend)},
		{fetchRowsTable, getCreateFetchRowsQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateFetchRunsQuery returns the CREATE TABLE query for hypeplot_fetch_runs.
func getCreateFetchRunsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(fetchRunsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT AUTO_INCREMENT PRIMARY KEY,
				run_uuid VARCHAR(36) NOT NULL,
				term VARCHAR(255) NOT NULL,
				start_time DATETIME(6) NOT NULL,
				end_time DATETIME(6),
				run_duration_ms INT,
				total_rows INT,
				config_params TEXT
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGSERIAL PRIMARY KEY,
				run_uuid TEXT NOT NULL,
				term TEXT NOT NULL,
				start_time TIMESTAMPTZ NOT NULL,
				end_time TIMESTAMPTZ,
				run_duration_ms INT,
				total_rows INT,
				config_params TEXT
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_uuid TEXT NOT NULL,
				term TEXT NOT NULL,
				start_time TEXT NOT NULL,
				end_time TEXT,
				run_duration_ms INTEGER,
				total_rows INTEGER,
				config_params TEXT
			);
		`, quotedTableName)
	}
}

// getCreateFetchRowsQuery returns the CREATE TABLE query for hypeplot_fetch_rows.
func getCreateFetchRowsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(fetchRowsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				source VARCHAR(64) NOT NULL,
				period VARCHAR(32) NOT NULL,
				start_date CHAR(10) NOT NULL,
				end_date CHAR(10) NOT NULL,
				metric VARCHAR(64) NOT NULL,
				metric_value DOUBLE NOT NULL,
				text_value VARCHAR(255),
				recorded_at DATETIME(6) NOT NULL,
				PRIMARY KEY (run_id, source, period, metric)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id BIGINT NOT NULL,
				source TEXT NOT NULL,
				period TEXT NOT NULL,
				start_date TEXT NOT NULL,
				end_date TEXT NOT NULL,
				metric TEXT NOT NULL,
				metric_value DOUBLE PRECISION NOT NULL,
				text_value TEXT,
				recorded_at TIMESTAMPTZ NOT NULL,
				PRIMARY KEY (run_id, source, period, metric)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				run_id INTEGER NOT NULL,
				source TEXT NOT NULL,
				period TEXT NOT NULL,
				start_date TEXT NOT NULL,
				end_date TEXT NOT NULL,
				metric TEXT NOT NULL,
				metric_value REAL NOT NULL,
				text_value TEXT,
				recorded_at TEXT NOT NULL,
				PRIMARY KEY (run_id, source, period, metric)
			);
		`, quotedTableName)
	}
}

// BeginRun creates a new fetch run and returns its numeric ID.
func (rs *RunStoreImpl) BeginRun(runUUID string, term string, startTime time.Time, configParams map[string]any) (int64, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(fetchRunsTable, rs.backend)

	var runID int64
	switch rs.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, term, start_time, config_params) VALUES ($1, $2, $3, $4) RETURNING run_id`, quotedTableName)
		err = rs.db.QueryRow(query, runUUID, term, startTime, string(configJSON)).Scan(&runID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, term, start_time, config_params) VALUES (?, ?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = rs.db.Exec(query, runUUID, term, formatTime(startTime, rs.backend), string(configJSON))
		if err != nil {
			return 0, fmt.Errorf("failed to insert fetch run: %w", err)
		}
		runID, err = result.LastInsertId()
	}

	if err != nil {
		return 0, fmt.Errorf("failed to insert fetch run: %w", err)
	}
	return runID, nil
}

// EndRun updates the fetch run with completion data.
func (rs *RunStoreImpl) EndRun(runID int64, endTime time.Time, totalRows int) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(fetchRunsTable, rs.backend)
	row := rs.db.QueryRow(rebind(fmt.Sprintf(`SELECT start_time FROM %s WHERE run_id = ?`, quotedTableName), rs.backend), runID)

	startTime, err := scanTime(row, rs.backend)
	if err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", runID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()
	updateQuery := rebind(fmt.Sprintf(`UPDATE %s SET end_time = ?, run_duration_ms = ?, total_rows = ? WHERE run_id = ?`, quotedTableName), rs.backend)
	if _, err := rs.db.Exec(updateQuery, formatTime(endTime, rs.backend), durationMs, totalRows, runID); err != nil {
		return fmt.Errorf("failed to update fetch run: %w", err)
	}
	return nil
}

// RecordRows stores one record per metric for every row of a source.
func (rs *RunStoreImpl) RecordRows(runID int64, source string, rows []schema.SourceRow) error {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil
	}

	query := rebind(fmt.Sprintf(`
		INSERT INTO %s (run_id, source, period, start_date, end_date, metric, metric_value, text_value, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, quoteTableName(fetchRowsTable, rs.backend)), rs.backend)

	tx, err := rs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	recordedAt := formatTime(time.Now(), rs.backend)
	for _, row := range rows {
		for _, metric := range sortedMetricNames(row.Metrics) {
			value, text := splitMetric(row.Metrics[metric])
			if _, err := stmt.Exec(runID, source, row.Period, schema.FormatDate(row.StartDate), schema.FormatDate(row.EndDate),
				metric, value, text, recordedAt); err != nil {
				return fmt.Errorf("failed to insert row %s/%s: %w", row.Period, metric, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rows: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (rs *RunStoreImpl) Close() error {
	if rs.db != nil {
		return rs.db.Close()
	}
	return nil
}

// GetStatus returns status information about the run store.
func (rs *RunStoreImpl) GetStatus() (schema.RunStatus, error) {
	status := schema.RunStatus{
		Backend:    string(rs.backend),
		Connected:  rs.db != nil,
		TableSizes: make(map[string]int64),
	}

	if rs.backend == schema.NoneBackend || rs.db == nil {
		return status, nil
	}

	runsTable := quoteTableName(fetchRunsTable, rs.backend)
	if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runsTable)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		row := rs.db.QueryRow(fmt.Sprintf("SELECT run_id FROM %s ORDER BY run_id DESC LIMIT 1", runsTable))
		if err := row.Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}

		lastTime, err := scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id DESC LIMIT 1", runsTable)), rs.backend)
		if err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		status.LastRunTime = lastTime

		oldestTime, err := scanTime(rs.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY run_id ASC LIMIT 1", runsTable)), rs.backend)
		if err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldestTime

		row = rs.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_rows), 0) FROM %s", runsTable))
		if err := row.Scan(&status.TotalRows); err != nil {
			return status, fmt.Errorf("failed to get total rows: %w", err)
		}
	}

	for _, table := range []string{fetchRunsTable, fetchRowsTable} {
		var count int64
		if err := rs.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, rs.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}

	return status, nil
}

// GetAllFetchRuns retrieves all fetch runs from the store.
func (rs *RunStoreImpl) GetAllFetchRuns() ([]schema.FetchRunRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT run_id, run_uuid, term, start_time, end_time, run_duration_ms, total_rows, config_params FROM %s ORDER BY run_id",
		quoteTableName(fetchRunsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetch runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FetchRunRecord
	for rows.Next() {
		var record schema.FetchRunRecord
		var totalRows sql.NullInt32

		switch rs.backend {
		case schema.SQLiteBackend:
			var startTimeStr string
			var endTimeStr *string
			if err := rows.Scan(&record.RunID, &record.RunUUID, &record.Term, &startTimeStr, &endTimeStr,
				&record.RunDurationMs, &totalRows, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan fetch run: %w", err)
			}
			startTime, err := time.Parse(time.RFC3339Nano, startTimeStr)
			if err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			record.StartTime = startTime
			if endTimeStr != nil {
				endTime, err := time.Parse(time.RFC3339Nano, *endTimeStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.RunUUID, &record.Term, &record.StartTime, &record.EndTime,
				&record.RunDurationMs, &totalRows, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan fetch run: %w", err)
			}
		}
		record.TotalRows = totalRows.Int32
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fetch runs: %w", err)
	}
	return results, nil
}

// GetAllFetchRows retrieves all recorded metrics from the store.
func (rs *RunStoreImpl) GetAllFetchRows() ([]schema.FetchRowRecord, error) {
	// Skip for NoneBackend
	if rs.backend == schema.NoneBackend || rs.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT run_id, source, period, start_date, end_date, metric, metric_value, text_value, recorded_at
		FROM %s ORDER BY run_id, source, start_date, metric`, quoteTableName(fetchRowsTable, rs.backend))
	rows, err := rs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query fetch rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.FetchRowRecord
	for rows.Next() {
		var record schema.FetchRowRecord
		var startDate, endDate string

		switch rs.backend {
		case schema.SQLiteBackend:
			var recordedAt string
			if err := rows.Scan(&record.RunID, &record.Source, &record.Period, &startDate, &endDate,
				&record.Metric, &record.Value, &record.TextValue, &recordedAt); err != nil {
				return nil, fmt.Errorf("failed to scan fetch row: %w", err)
			}
			t, err := time.Parse(time.RFC3339Nano, recordedAt)
			if err != nil {
				return nil, fmt.Errorf("failed to parse recorded_at: %w", err)
			}
			record.RecordedAt = t
		default: // MySQL and PostgreSQL
			if err := rows.Scan(&record.RunID, &record.Source, &record.Period, &startDate, &endDate,
				&record.Metric, &record.Value, &record.TextValue, &record.RecordedAt); err != nil {
				return nil, fmt.Errorf("failed to scan fetch row: %w", err)
			}
		}

		if record.StartDate, err = time.Parse(schema.DateLayout, startDate); err != nil {
			return nil, fmt.Errorf("failed to parse start_date: %w", err)
		}
		if record.EndDate, err = time.Parse(schema.DateLayout, endDate); err != nil {
			return nil, fmt.Errorf("failed to parse end_date: %w", err)
		}
		results = append(results, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fetch rows: %w", err)
	}
	return results, nil
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t
}

// scanTime reads a single time column stored by formatTime.
func scanTime(row *sql.Row, backend schema.DatabaseBackend) (time.Time, error) {
	if backend == schema.SQLiteBackend {
		var s string
		if err := row.Scan(&s); err != nil {
			return time.Time{}, err
		}
		return time.Parse(time.RFC3339Nano, s)
	}
	var t time.Time
	err := row.Scan(&t)
	return t, err
}

// splitMetric separates numeric values from text values for storage.
func splitMetric(v any) (float64, *string) {
	if f, ok := schema.NumericValue(v); ok {
		return f, nil
	}
	s := schema.FormatValue(v)
	return 0, &s
}

func sortedMetricNames(m schema.Metrics) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
