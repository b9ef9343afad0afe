package core

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/httpclient"
	"github.com/huangsam/hypeplot/internal/parquet"
	"github.com/huangsam/hypeplot/internal/source"
	"github.com/huangsam/hypeplot/internal/trends"
	"github.com/huangsam/hypeplot/schema"
)

// runTrends fetches the annual Google Trends series and writes its artifacts.
// Trends ignores the bucket width; it always reports the last ten years by year.
func (o *Orchestrator) runTrends(ctx context.Context, cfg *contract.Config, m *schema.ResultManifest, store contract.CacheStore, tracker *runTracker, stdout io.Writer) schema.SourceOutcome {
	name := source.TrendsName
	_, _ = fmt.Fprintf(stdout, "=== Fetching %s data ===\n", displayName(name))

	client, err := trends.New(trends.Options{
		BaseURL: o.Endpoints[name],
		Profile: httpclient.Profile(cfg.TransportProfile),
		Store:   store,
		Refresh: cfg.Refresh,
		Sleep:   o.Sleep,
		Now:     o.Now,
	})
	if err != nil {
		return failed(name, err)
	}

	res, err := client.Annual(ctx, cfg.Term, cfg.Topic)
	noData := errors.Is(err, trends.ErrNoData)
	if err != nil && !noData {
		if trends.IsRateLimited(err) {
			err = fmt.Errorf("rate limited by Google Trends, try again later: %w", err)
		}
		return failed(name, err)
	}

	paths := trendsArtifacts(cfg, name)
	if err := o.writerFor(cfg).WriteAnnual(paths.CSV, res.Annual); err != nil {
		return failed(name, fmt.Errorf("write csv: %w", err))
	}
	if cfg.HasFormat(schema.CSVFormat) {
		m.Add(name, schema.CSVArtifact, paths.CSV)
	}
	if noData {
		contract.LogWarn(name, err)
		_, _ = fmt.Fprintf(stdout, "✅ %s data saved to: %s\n\n", displayName(name), sourceDir(cfg, name))
		return schema.SourceOutcome{Source: name, Status: schema.StatusDegraded, Warnings: 1, Error: err.Error()}
	}

	rows := annualRows(res.Annual)
	tracker.record(name, rows)

	html, png := annualRenderers(res.Title, res.Annual)
	errs := o.writeOptional(cfg, m, name, paths, html, png,
		parquet.ConvertSourceRows(tracker.ID(), name, rows, o.Now()))

	outcome := schema.SourceOutcome{
		Source:   name,
		Status:   schema.StatusOK,
		Rows:     len(rows),
		Warnings: len(errs),
		Error:    joinErrors(errs),
	}
	if res.Timeframe != trends.TimeframeAll {
		contract.LogWarn(name, fmt.Errorf("full history unavailable, used %q", res.Timeframe))
		outcome.Warnings++
		outcome.Status = schema.StatusDegraded
	}
	if len(errs) > 0 {
		outcome.Status = schema.StatusDegraded
	}
	_, _ = fmt.Fprintf(stdout, "✅ %s data saved to: %s\n\n", displayName(name), sourceDir(cfg, name))
	return outcome
}
