// Package main measures how much the fetch cache speeds up repeated HypePlot runs.
// Each source is fetched several times without a cache, then several times against a
// fresh SQLite cache. The first cached run is cold and the rest are averaged as warm.
// Results are written as CSV for documentation.
//
// Prerequisites:
// - hypeplot binary installed and available in PATH
// - network access to the benchmarked sources
//
// Usage: go run benchmark/main.go [term]
//
//	term: search term to fetch (defaults to "rust")
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Source      string
	Bucket      string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	Term        string
	StartYear   string
	EndYear     string
	Timeout     time.Duration
	NoCacheRuns int
	CacheRuns   int
	Sources     []string
	Buckets     []string
	OutputDir   string
}

func main() {
	term := "rust"
	if len(os.Args) == 2 {
		term = os.Args[1]
	} else if len(os.Args) > 2 {
		fmt.Printf("Usage: %s [term]\n", os.Args[0])
		os.Exit(1)
	}

	outputDir, err := os.MkdirTemp("", "hypeplot-benchmark-*")
	if err != nil {
		fmt.Printf("Failed to create output dir: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = os.RemoveAll(outputDir) }()

	config := BenchmarkConfig{
		Term:        term,
		StartYear:   "2021",
		EndYear:     "2024",
		Timeout:     10 * time.Minute,
		NoCacheRuns: 2,
		CacheRuns:   3,
		Sources:     []string{"arxiv", "github", "patents", "grants"},
		Buckets:     []string{"yearly", "quarterly"},
		OutputDir:   outputDir,
	}

	if _, err := exec.LookPath("hypeplot"); err != nil {
		fmt.Printf("Prerequisites check failed: hypeplot binary not found in PATH\n")
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results, config.Buckets)
}

// clearCache drops the SQLite fetch cache so the next cached run starts cold.
func clearCache() {
	clearCmd := exec.Command("hypeplot", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	}
}

// runBenchmarks executes every source and bucket combination.
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: term %q, %s-%s, %d sources, no-cache: %d runs, cache: %d runs\n",
		config.Term, config.StartYear, config.EndYear, len(config.Sources), config.NoCacheRuns, config.CacheRuns)

	for _, bucket := range config.Buckets {
		for _, source := range config.Sources {
			results = append(results, runBenchmarkSuite(config, source, bucket))
		}
	}
	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for one source.
func runBenchmarkSuite(config BenchmarkConfig, source, bucket string) BenchmarkResult {
	fmt.Printf("Benchmarking %s (%s)\n", source, bucket)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, source, bucket, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs from a cold cache
	clearCache()
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Source:      source,
		Bucket:      bucket,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark runs one fetch numRuns times and returns the cold time and the warm times.
func runBenchmark(config BenchmarkConfig, source, bucket, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		config.Term, config.StartYear, config.EndYear,
		"--source", source,
		"--bucket", bucket,
		"--cache-backend", cacheBackend,
		"--output-dir", config.OutputDir,
		"--no-open",
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()
		cmd := exec.Command("hypeplot", args...)

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			_ = cmd.Process.Kill()
			<-done
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks that the run finished and no bucket was zero-filled.
func isSuccess(output []byte) bool {
	outputStr := string(output)
	return strings.Contains(outputStr, "HypePlot complete!") &&
		!strings.Contains(outputStr, "zero-filled")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/hypeplot_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"source", "bucket", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, result := range results {
		if err := writer.Write([]string{result.Source, result.Bucket, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results grouped by bucket width.
func printSummary(results []BenchmarkResult, buckets []string) {
	fmt.Printf("Benchmark complete\n")
	for _, bucket := range buckets {
		fmt.Printf("%s buckets:\n", bucket)
		for _, result := range results {
			if result.Bucket == bucket {
				fmt.Printf("  %-10s: No-cache: %s, Cold: %s, Warm: %s\n", result.Source, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}
}
