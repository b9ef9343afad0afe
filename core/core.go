// Package core has the fetch orchestration: bucketed source runs, the trends pipeline and the run manifest.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"

	"github.com/huangsam/hypeplot/internal/bucket"
	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/httpclient"
	"github.com/huangsam/hypeplot/internal/metrics"
	"github.com/huangsam/hypeplot/internal/outwriter"
	"github.com/huangsam/hypeplot/internal/source"
	"github.com/huangsam/hypeplot/schema"
)

// ManifestFile is the name of the manifest written under outputs/<slug>/.
const ManifestFile = "manifest.yaml"

// ExecutorFunc defines the function signature for executing a fetch run.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.ResultManifest, error)

// Orchestrator runs every requested source one at a time and collects the artifacts.
// The zero value is not usable; build one with NewOrchestrator.
type Orchestrator struct {
	Registry *source.Registry
	Manager  contract.CacheManager
	Writer   *outwriter.OutWriter

	// Endpoints overrides provider base URLs by source name, including trends.
	Endpoints map[string]string

	Sleep  httpclient.SleepFunc
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer

	// Open shows an HTML artifact to the user.
	Open func(path string) error
}

// NewOrchestrator wires the production registry, clock and console.
func NewOrchestrator(mgr contract.CacheManager) *Orchestrator {
	return &Orchestrator{
		Registry: Sources,
		Manager:  mgr,
		Sleep:    httpclient.Sleep,
		Now:      time.Now,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Open:     browser.OpenFile,
	}
}

// ExecuteFetch runs a full fetch with production wiring.
// It serves as the main entry point for the root command.
func ExecuteFetch(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.ResultManifest, error) {
	return NewOrchestrator(mgr).Run(ctx, cfg)
}

// Run fetches every configured source, isolating failures per source, and writes
// the manifest. The returned error is only non-nil when the process was interrupted
// or the manifest could not be written.
func (o *Orchestrator) Run(ctx context.Context, cfg *contract.Config) (*schema.ResultManifest, error) {
	start := o.Now()
	stdout, stderr := o.Stdout, o.Stderr
	if IsQuiet(ctx) {
		stdout, stderr = io.Discard, io.Discard
	}
	writer := o.writerFor(cfg)

	m := &schema.ResultManifest{
		RunID:     uuid.New().String(),
		Term:      cfg.Term,
		Slug:      cfg.Slug,
		StartYear: cfg.StartYear,
		EndYear:   cfg.EndYear,
		Bucket:    cfg.Bucket.String(),
		CreatedAt: start.UTC(),
	}

	var fetchStore contract.CacheStore
	var runStore contract.RunStore
	if o.Manager != nil {
		fetchStore = o.Manager.GetFetchStore()
		runStore = o.Manager.GetRunStore()
	}
	tracker := beginRun(runStore, m.RunID, cfg, start)

	printHeader(stdout, cfg)
	for _, name := range cfg.Sources {
		if ctx.Err() != nil {
			m.Record(schema.SourceOutcome{Source: name, Status: schema.StatusFailed, Error: "interrupted"})
			continue
		}
		var outcome schema.SourceOutcome
		if name == source.TrendsName {
			outcome = o.runTrends(ctx, cfg, m, fetchStore, tracker, stdout)
		} else {
			outcome = o.runSource(ctx, cfg, name, m, fetchStore, tracker, stdout, stderr)
		}
		m.Record(outcome)
	}

	baseDir := filepath.Join(cfg.OutputDir, cfg.Slug)
	manifestErr := writer.WriteManifest(filepath.Join(baseDir, ManifestFile), m)
	if manifestErr != nil {
		contract.LogWarn("Manifest", manifestErr)
	}

	if err := writer.WriteSummary(stdout, m, baseDir, o.Now().Sub(start)); err != nil {
		contract.LogWarn("Summary", err)
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			contract.LogWarn("Metrics file", err)
		}
	}

	tracker.end(o.Now())

	if cfg.OpenBrowser && !IsQuiet(ctx) {
		o.openFirstChart(m)
	}

	if err := ctx.Err(); err != nil {
		return m, err
	}
	return m, manifestErr
}

func (o *Orchestrator) writerFor(cfg *contract.Config) *outwriter.OutWriter {
	if o.Writer == nil {
		o.Writer = outwriter.NewOutWriter(cfg.UseColors)
	}
	return o.Writer
}

// printHeader announces the run.
func printHeader(w io.Writer, cfg *contract.Config) {
	formats := make([]string, 0, len(cfg.Formats))
	for _, f := range cfg.Formats {
		formats = append(formats, string(f))
	}
	_, _ = fmt.Fprintf(w, "\n🔥 HypePlot: Analyzing '%s' (%d-%d)\n", cfg.Term, cfg.StartYear, cfg.EndYear)
	_, _ = fmt.Fprintf(w, "   Sources: %s\n", strings.Join(cfg.Sources, ", "))
	_, _ = fmt.Fprintf(w, "   Formats: %s\n", strings.Join(formats, ", "))
	_, _ = fmt.Fprintf(w, "   Bucket: %s (%d buckets)\n\n", cfg.Bucket, bucket.Count(cfg.StartYear, cfg.EndYear, cfg.Bucket))
}

// openFirstChart opens scholar_html, else trends_html, else the first HTML artifact.
func (o *Orchestrator) openFirstChart(m *schema.ResultManifest) {
	path, ok := m.Get(source.ScholarName + "_" + string(schema.HTMLArtifact))
	if !ok {
		path, ok = m.Get(source.TrendsName + "_" + string(schema.HTMLArtifact))
	}
	if !ok {
		path, ok = m.FirstOfKind(schema.HTMLArtifact)
	}
	if !ok || o.Open == nil {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := o.Open(path); err != nil {
		contract.LogWarn("Open browser", err)
	}
}

// failed builds the outcome of a source that produced nothing usable.
func failed(name string, err error) schema.SourceOutcome {
	contract.LogWarn(name, err)
	return schema.SourceOutcome{Source: name, Status: schema.StatusFailed, Warnings: 1, Error: err.Error()}
}

// joinErrors flattens artifact errors into the outcome message.
func joinErrors(errs []error) string {
	if len(errs) == 0 {
		return ""
	}
	return errors.Join(errs...).Error()
}
