// Package chart renders source rows as interactive HTML pages and static PNG images.
package chart

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/huangsam/hypeplot/schema"
)

// ErrNoNumericColumns is returned when rows carry nothing that can be plotted.
var ErrNoNumericColumns = errors.New("no numeric columns to plot")

// Style selects how a series is drawn.
type Style int

const (
	LineStyle Style = iota
	BarStyle
)

// series is one numeric column laid out over the period labels.
type series struct {
	Name   string
	Values []float64
}

// figure is everything a renderer needs, independent of the output format.
type figure struct {
	Title  string
	Labels []string
	Series []series
	Style  Style
}

// newFigure keeps the declared numeric columns in order and drops text columns.
func newFigure(title string, cols []schema.Column, rows []schema.SourceRow, style Style) (figure, error) {
	fig := figure{Title: title, Style: style}
	for _, r := range rows {
		fig.Labels = append(fig.Labels, r.Period)
	}
	for _, c := range cols {
		if c.Kind == schema.StringColumn {
			continue
		}
		s := series{Name: c.Name, Values: make([]float64, len(rows))}
		for i, r := range rows {
			if v, ok := schema.NumericValue(r.Metrics[c.Name]); ok {
				s.Values[i] = v
			}
		}
		fig.Series = append(fig.Series, s)
	}
	if len(fig.Series) == 0 {
		return fig, ErrNoNumericColumns
	}
	return fig, nil
}

// annualFigure turns a yearly trends series into a single bar series.
func annualFigure(title string, points []schema.AnnualPoint) (figure, error) {
	fig := figure{Title: title, Style: BarStyle}
	s := series{Name: "interest"}
	for _, p := range points {
		fig.Labels = append(fig.Labels, strconv.Itoa(p.Year))
		s.Values = append(s.Values, p.Interest)
	}
	if len(points) == 0 {
		return fig, ErrNoNumericColumns
	}
	fig.Series = []series{s}
	return fig, nil
}

// RenderHTML writes an interactive page with one chart per numeric column.
func RenderHTML(path, title string, cols []schema.Column, rows []schema.SourceRow) error {
	fig, err := newFigure(title, cols, rows, LineStyle)
	if err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error { return renderHTML(w, fig) })
}

// RenderPNG writes a static image with one panel per numeric column.
func RenderPNG(path, title string, cols []schema.Column, rows []schema.SourceRow) error {
	fig, err := newFigure(title, cols, rows, LineStyle)
	if err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error { return renderPNG(w, fig) })
}

// RenderAnnualHTML writes the yearly trends bar chart as HTML.
func RenderAnnualHTML(path, title string, points []schema.AnnualPoint) error {
	fig, err := annualFigure(title, points)
	if err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error { return renderHTML(w, fig) })
}

// RenderAnnualPNG writes the yearly trends bar chart as PNG.
func RenderAnnualPNG(path, title string, points []schema.AnnualPoint) error {
	fig, err := annualFigure(title, points)
	if err != nil {
		return err
	}
	return writeFile(path, func(w io.Writer) error { return renderPNG(w, fig) })
}

func writeFile(path string, render func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func renderHTML(w io.Writer, fig figure) error {
	page := components.NewPage()
	page.PageTitle = fig.Title
	for _, s := range fig.Series {
		page.AddCharts(echart(fig, s))
	}
	return page.Render(w)
}

// echart builds one go-echarts chart for a series.
func echart(fig figure, s series) components.Charter {
	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{PageTitle: fig.Title, Width: "1100px", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: fig.Title, Subtitle: s.Name}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Period"}),
		charts.WithYAxisOpts(opts.YAxis{Name: s.Name}),
	}
	if len(fig.Labels) > 24 {
		global = append(global, charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}))
	}

	if fig.Style == BarStyle {
		bar := charts.NewBar()
		bar.SetGlobalOptions(global...)
		data := make([]opts.BarData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.BarData{Value: v}
		}
		bar.SetXAxis(fig.Labels).AddSeries(s.Name, data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
		return bar
	}

	line := charts.NewLine()
	line.SetGlobalOptions(global...)
	data := make([]opts.LineData, len(s.Values))
	for i, v := range s.Values {
		data[i] = opts.LineData{Value: v}
	}
	line.SetXAxis(fig.Labels).AddSeries(s.Name, data,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(false), ShowSymbol: opts.Bool(true)}))
	return line
}
