package core

import (
	"context"
	"fmt"
	"io"

	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/parquet"
	"github.com/huangsam/hypeplot/internal/source"
	"github.com/huangsam/hypeplot/schema"
)

// sourceOptions builds adapter options for a run.
func (o *Orchestrator) sourceOptions(cfg *contract.Config) source.Options {
	opts := source.OptionsFromConfig(cfg)
	opts.Endpoints = o.Endpoints
	opts.Now = o.Now
	return opts
}

// runSource fetches one bucketed source and writes its artifacts.
// The CSV is always written; a failure to write it fails the source.
func (o *Orchestrator) runSource(ctx context.Context, cfg *contract.Config, name string, m *schema.ResultManifest, store contract.CacheStore, tracker *runTracker, stdout, stderr io.Writer) schema.SourceOutcome {
	_, _ = fmt.Fprintf(stdout, "=== Fetching %s data ===\n", displayName(name))

	src, err := o.Registry.New(name, o.sourceOptions(cfg))
	if err != nil {
		return failed(name, fmt.Errorf("build source: %w", err))
	}

	fetcher := &RangeFetcher{
		Cache:    store,
		Refresh:  cfg.Refresh,
		Sleep:    o.Sleep,
		Now:      o.Now,
		Progress: stderr,
	}
	rows, report, err := fetcher.FetchWithReport(ctx, src, cfg.Term, cfg.StartYear, cfg.EndYear, cfg.Bucket)
	if err != nil {
		return failed(name, err)
	}

	paths := bucketArtifacts(cfg, name)
	if err := o.writerFor(cfg).WriteRows(paths.CSV, src.Columns(), rows); err != nil {
		return failed(name, fmt.Errorf("write csv: %w", err))
	}
	if cfg.HasFormat(schema.CSVFormat) {
		m.Add(name, schema.CSVArtifact, paths.CSV)
	}
	tracker.record(name, rows)

	html, png := bucketRenderers(chartTitle(name, cfg.Term), src.Columns(), rows)
	errs := o.writeOptional(cfg, m, name, paths, html, png,
		parquet.ConvertSourceRows(tracker.ID(), name, rows, o.Now()))

	outcome := schema.SourceOutcome{
		Source:   name,
		Status:   schema.StatusOK,
		Rows:     len(rows),
		Warnings: report.Warnings + len(errs),
		Error:    joinErrors(errs),
	}
	if report.Zeroed() > 0 || len(errs) > 0 {
		outcome.Status = schema.StatusDegraded
	}
	_, _ = fmt.Fprintf(stdout, "✅ %s data saved to: %s\n\n", displayName(name), sourceDir(cfg, name))
	return outcome
}
