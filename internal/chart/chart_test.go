package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/hypeplot/schema"
)

var (
	cols = []schema.Column{
		{Name: "registry", Kind: schema.StringColumn},
		{Name: "downloads", Kind: schema.IntColumn},
		{Name: "avg_views", Kind: schema.FloatColumn},
	}
	rows = []schema.SourceRow{
		{Period: "2023", StartDate: schema.Date(2023, time.January, 1), EndDate: schema.Date(2023, time.December, 31),
			Metrics: schema.Metrics{"registry": "pypi", "downloads": int64(10), "avg_views": 2.5}},
		{Period: "2024", StartDate: schema.Date(2024, time.January, 1), EndDate: schema.Date(2024, time.December, 31),
			Metrics: schema.Metrics{"registry": "pypi", "downloads": int64(20)}},
	}
	pngMagic = []byte("\x89PNG\r\n\x1a\n")
)

func TestNewFigure(t *testing.T) {
	fig, err := newFigure("title", cols, rows, LineStyle)
	require.NoError(t, err)
	assert.Equal(t, []string{"2023", "2024"}, fig.Labels)
	require.Len(t, fig.Series, 2)
	assert.Equal(t, series{Name: "downloads", Values: []float64{10, 20}}, fig.Series[0])
	assert.Equal(t, series{Name: "avg_views", Values: []float64{2.5, 0}}, fig.Series[1])

	_, err = newFigure("title", cols[:1], rows, LineStyle)
	assert.ErrorIs(t, err, ErrNoNumericColumns)
}

func TestRenderHTML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pkg", "pkg_packages.html")
	require.NoError(t, RenderHTML(path, "requests downloads", cols, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "requests downloads")
	assert.Contains(t, html, "downloads")
	assert.Contains(t, html, "avg_views")
	assert.NotContains(t, html, `"registry"`)
}

func TestRenderPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pkg_packages.png")
	require.NoError(t, RenderPNG(path, "requests downloads", cols, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestRenderAnnual(t *testing.T) {
	points := []schema.AnnualPoint{{Year: 2020, Interest: 12.5}, {Year: 2021, Interest: 40}}
	dir := t.TempDir()

	t.Run("html", func(t *testing.T) {
		path := filepath.Join(dir, "trends_annual_rust.html")
		require.NoError(t, RenderAnnualHTML(path, "rust (Worldwide)", points))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "rust (Worldwide)")
	})

	t.Run("png", func(t *testing.T) {
		path := filepath.Join(dir, "trends_annual_rust.png")
		require.NoError(t, RenderAnnualPNG(path, "rust (Worldwide)", points))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngMagic))
	})

	t.Run("empty", func(t *testing.T) {
		err := RenderAnnualHTML(filepath.Join(dir, "empty.html"), "x", nil)
		assert.ErrorIs(t, err, ErrNoNumericColumns)
	})
}

func TestTickLabels(t *testing.T) {
	short := []string{"a", "b"}
	assert.Equal(t, short, tickLabels(short))

	long := make([]string, 45)
	for i := range long {
		long[i] = string(rune('a' + i%26))
	}
	got := tickLabels(long)
	require.Len(t, got, 45)
	visible := 0
	for _, l := range got {
		if l != "" {
			visible++
		}
	}
	assert.LessOrEqual(t, visible, 20)
	assert.Equal(t, "a", got[0])
}
