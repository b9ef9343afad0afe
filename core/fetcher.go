package core

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/huangsam/hypeplot/internal/bucket"
	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/httpclient"
	"github.com/huangsam/hypeplot/internal/metrics"
	"github.com/huangsam/hypeplot/schema"
)

// RangeFetcher drives one source across every bucket of a year range.
// Buckets run in order and each adapter call is followed by the adapter delay.
type RangeFetcher struct {
	// Cache memoizes successful buckets. Nil disables caching.
	Cache   contract.CacheStore
	Refresh bool

	Sleep httpclient.SleepFunc
	Now   func() time.Time

	// Progress receives one line per bucket. Nil silences it.
	Progress io.Writer
}

// FetchReport counts how the buckets of one fetch were produced.
type FetchReport struct {
	Fetched  int
	Cached   int
	Degraded int
	Skipped  int
	Warnings int
}

// Zeroed is the number of buckets that carry zero metrics.
func (r FetchReport) Zeroed() int { return r.Degraded + r.Skipped }

// Fetch returns one row per bucket. Failed buckets hold the source's zero
// metrics, so the row count always equals bucket.Count. The only error is an
// invalid bucket width.
func (f *RangeFetcher) Fetch(ctx context.Context, src contract.Source, term string, startYear, endYear int, width schema.BucketWidth) ([]schema.SourceRow, error) {
	rows, _, err := f.FetchWithReport(ctx, src, term, startYear, endYear, width)
	return rows, err
}

// FetchWithReport is Fetch plus the per-outcome bucket counts.
func (f *RangeFetcher) FetchWithReport(ctx context.Context, src contract.Source, term string, startYear, endYear int, width schema.BucketWidth) ([]schema.SourceRow, FetchReport, error) {
	var report FetchReport
	seq, err := bucket.Generate(startYear, endYear, width)
	if err != nil {
		return nil, report, err
	}

	name := src.Name()
	gateErr := src.Check()
	if gateErr != nil {
		contract.LogWarn(name, gateErr)
		report.Warnings++
	}

	interrupted := false
	rows := make([]schema.SourceRow, 0, bucket.Count(startYear, endYear, width))
	for b := range seq {
		row := schema.SourceRow{Period: b.Label, StartDate: b.Start, EndDate: b.End}

		if gateErr != nil || interrupted {
			row.Metrics = src.Zero(term)
			report.Skipped++
			metrics.RecordBucket(name, metrics.OutcomeSkipped)
			rows = append(rows, row)
			continue
		}
		if err := ctx.Err(); err != nil {
			contract.LogWarn(name, fmt.Errorf("interrupted at %s, remaining buckets zero-filled: %w", b.Label, err))
			report.Warnings++
			interrupted = true
			row.Metrics = src.Zero(term)
			report.Skipped++
			metrics.RecordBucket(name, metrics.OutcomeSkipped)
			rows = append(rows, row)
			continue
		}

		f.progressf("  📅 %s... ", b.Label)
		m, key, hit := f.lookup(src, term, b)
		if hit {
			row.Metrics = m
			report.Cached++
			metrics.RecordBucket(name, metrics.OutcomeCached)
			f.progressf("✓ %s (cached)\n", summarize(src.Columns(), m))
			rows = append(rows, row)
			continue
		}

		if local, ok := src.(contract.LocalSource); ok {
			if m, ok := local.Local(term, b); ok {
				row.Metrics = m
				report.Cached++
				metrics.RecordBucket(name, metrics.OutcomeCached)
				if key != "" {
					storeBucket(f.Cache, key, m, f.now())
				}
				f.progressf("✓ %s (reused)\n", summarize(src.Columns(), m))
				rows = append(rows, row)
				continue
			}
		}

		m, err := src.FetchBucket(ctx, term, b)
		if err != nil {
			f.progressf("✗ zero-filled\n")
			contract.LogWarn(fmt.Sprintf("%s %s", name, b.Label), err)
			row.Metrics = src.Zero(term)
			report.Degraded++
			report.Warnings++
			metrics.RecordBucket(name, metrics.OutcomeDegraded)
		} else {
			row.Metrics = m
			report.Fetched++
			metrics.RecordBucket(name, metrics.OutcomeFetched)
			if key != "" {
				storeBucket(f.Cache, key, m, f.now())
			}
			f.progressf("✓ %s\n", summarize(src.Columns(), m))
		}
		rows = append(rows, row)

		// An interrupted sleep is noticed by ctx.Err on the next bucket.
		_ = f.sleep(ctx, src.Delay())
	}
	return rows, report, nil
}

func (f *RangeFetcher) sleep(ctx context.Context, d time.Duration) error {
	if f.Sleep == nil {
		return httpclient.Sleep(ctx, d)
	}
	return f.Sleep(ctx, d)
}

func (f *RangeFetcher) now() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

func (f *RangeFetcher) progressf(format string, args ...any) {
	if f.Progress != nil {
		_, _ = fmt.Fprintf(f.Progress, format, args...)
	}
}

// summarize renders the declared metrics of a row as "12 repo_count, 40 total_stars".
func summarize(cols []schema.Column, m schema.Metrics) string {
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		v := schema.FormatValue(m[c.Name])
		if v == "" {
			continue
		}
		parts = append(parts, v+" "+c.Name)
	}
	return strings.Join(parts, ", ")
}
