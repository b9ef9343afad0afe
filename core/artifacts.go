package core

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/huangsam/hypeplot/internal/chart"
	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/parquet"
	"github.com/huangsam/hypeplot/schema"
)

// sourceDir is outputs/<slug>/<source>.
func sourceDir(cfg *contract.Config, source string) string {
	return filepath.Join(cfg.OutputDir, cfg.Slug, source)
}

// artifactPaths names the files of a source.
type artifactPaths struct {
	CSV, HTML, PNG, Parquet string
}

func bucketArtifacts(cfg *contract.Config, source string) artifactPaths {
	dir := sourceDir(cfg, source)
	base := cfg.Slug + "_" + source
	return artifactPaths{
		CSV:     filepath.Join(dir, base+"_data.csv"),
		HTML:    filepath.Join(dir, base+".html"),
		PNG:     filepath.Join(dir, base+".png"),
		Parquet: filepath.Join(dir, base+"_data.parquet"),
	}
}

func trendsArtifacts(cfg *contract.Config, source string) artifactPaths {
	dir := sourceDir(cfg, source)
	base := "trends_annual_" + cfg.Slug
	return artifactPaths{
		CSV:     filepath.Join(dir, base+".csv"),
		HTML:    filepath.Join(dir, base+".html"),
		PNG:     filepath.Join(dir, base+".png"),
		Parquet: filepath.Join(dir, base+".parquet"),
	}
}

// renderer draws one chart format. Trends and bucketed sources plug different ones in.
type renderer func(path string) error

// writeOptional produces the requested non-CSV artifacts and returns the errors
// of the ones that failed. Each failure is logged and does not stop the others.
func (o *Orchestrator) writeOptional(cfg *contract.Config, m *schema.ResultManifest, source string, paths artifactPaths, html, png renderer, parquetRows []parquet.MetricRow) []error {
	var errs []error
	attempt := func(kind schema.ArtifactKind, path string, write func() error) {
		if err := write(); err != nil {
			contract.LogWarn(fmt.Sprintf("%s %s", source, kind), err)
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
			return
		}
		m.Add(source, kind, path)
	}

	if cfg.HasFormat(schema.HTMLFormat) {
		attempt(schema.HTMLArtifact, paths.HTML, func() error { return html(paths.HTML) })
	}
	if cfg.HasFormat(schema.PNGFormat) {
		attempt(schema.PNGArtifact, paths.PNG, func() error { return png(paths.PNG) })
	}
	if cfg.HasFormat(schema.ParquetFormat) {
		attempt(schema.ParquetArtifact, paths.Parquet, func() error {
			return parquet.WriteMetricRowsParquet(parquetRows, paths.Parquet)
		})
	}
	return errs
}

// chartTitle is the heading of a bucketed source chart.
func chartTitle(source, term string) string {
	return fmt.Sprintf("%s: %s", displayName(source), term)
}

// annualRows turns a yearly series into rows so it can share the run store and parquet paths.
func annualRows(points []schema.AnnualPoint) []schema.SourceRow {
	rows := make([]schema.SourceRow, 0, len(points))
	for _, p := range points {
		rows = append(rows, schema.SourceRow{
			Period:    strconv.Itoa(p.Year),
			StartDate: schema.Date(p.Year, time.January, 1),
			EndDate:   schema.Date(p.Year, time.December, 31),
			Metrics:   schema.Metrics{"interest": p.Interest},
		})
	}
	return rows
}

func bucketRenderers(title string, cols []schema.Column, rows []schema.SourceRow) (renderer, renderer) {
	html := func(path string) error { return chart.RenderHTML(path, title, cols, rows) }
	png := func(path string) error { return chart.RenderPNG(path, title, cols, rows) }
	return html, png
}

func annualRenderers(title string, points []schema.AnnualPoint) (renderer, renderer) {
	html := func(path string) error { return chart.RenderAnnualHTML(path, title, points) }
	png := func(path string) error { return chart.RenderAnnualPNG(path, title, points) }
	return html, png
}
