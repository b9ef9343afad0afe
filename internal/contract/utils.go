package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/huangsam/hypeplot/schema"
)

// Color variables for console output.
var (
	OKColor       = color.New(color.FgGreen, color.Bold) // OKColor marks a source that fetched every bucket.
	DegradedColor = color.New(color.FgYellow)            // DegradedColor marks zero-filled buckets.
	FailedColor   = color.New(color.FgRed, color.Bold)   // FailedColor marks a source that produced no artifact.
	HeaderColor   = color.New(color.FgCyan, color.Bold)
)

// GetStatusLabel returns a colored status label for console output (table).
func GetStatusLabel(status schema.SourceStatus) string {
	text := string(status)
	switch status {
	case schema.StatusOK:
		return OKColor.Sprint(text)
	case schema.StatusDegraded:
		return DegradedColor.Sprint(text)
	default:
		return FailedColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when the path is empty.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".hypeplot_cache.db"
	}
	return filepath.Join(homeDir, ".hypeplot_cache.db")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for run history.
func GetRunsDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".hypeplot_runs.db"
	}
	return filepath.Join(homeDir, ".hypeplot_runs.db")
}

// TruncateText truncates a value to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so that at least one character survives.
func TruncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
