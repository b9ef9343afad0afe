package outwriter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/hypeplot/internal/source"
	"github.com/huangsam/hypeplot/schema"
)

var testCols = []schema.Column{
	{Name: "repo_count", Kind: schema.IntColumn},
	{Name: "avg_score", Kind: schema.FloatColumn},
}

func testRows() []schema.SourceRow {
	return []schema.SourceRow{
		{
			Period:    "2023",
			StartDate: schema.Date(2023, time.January, 1),
			EndDate:   schema.Date(2023, time.December, 31),
			Metrics:   schema.Metrics{"repo_count": int64(12), "avg_score": 1.5, "zeta": "z", "alpha": int64(1)},
		},
		{
			Period:    "2024",
			StartDate: schema.Date(2024, time.January, 1),
			EndDate:   schema.Date(2024, time.December, 31),
			Metrics:   schema.Metrics{"repo_count": int64(0), "avg_score": float64(0)},
		},
	}
}

func TestRowHeader(t *testing.T) {
	tests := []struct {
		name string
		rows []schema.SourceRow
		want []string
	}{
		{"declared only", nil, []string{"period", "start_date", "end_date", "repo_count", "avg_score"}},
		{"extras sorted after declared", testRows(), []string{"period", "start_date", "end_date", "repo_count", "avg_score", "alpha", "zeta"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RowHeader(testCols, tt.rows))
		})
	}
}

func TestWriteRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rust", "github", "rust_github_data.csv")
	require.NoError(t, WriteRows(path, testCols, testRows()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "period,start_date,end_date,repo_count,avg_score,alpha,zeta\n" +
		"2023,2023-01-01,2023-12-31,12,1.5,1,z\n" +
		"2024,2024-01-01,2024-12-31,0,0,,\n"
	assert.Equal(t, want, string(data))

	t.Run("identical input is byte-identical", func(t *testing.T) {
		require.NoError(t, WriteRows(path, testCols, testRows()))
		again, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, data, again)
	})

	t.Run("empty rows still write a header", func(t *testing.T) {
		empty := filepath.Join(t.TempDir(), "empty.csv")
		require.NoError(t, WriteRows(empty, testCols, nil))
		got, err := os.ReadFile(empty)
		require.NoError(t, err)
		assert.Equal(t, "period,start_date,end_date,repo_count,avg_score\n", string(got))
	})
}

func TestWriteAnnual(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trends_annual_rust.csv")
	require.NoError(t, WriteAnnual(path, []schema.AnnualPoint{{Year: 2020, Interest: 12.5}, {Year: 2021, Interest: 40}}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "year,interest\n2020,12.5\n2021,40\n", string(data))
}

func TestManifestRoundTrip(t *testing.T) {
	m := &schema.ResultManifest{
		RunID:     "6f1f6f5e-0000-4000-8000-000000000000",
		Term:      "Rust Lang",
		Slug:      "rust_lang",
		StartYear: 2020,
		EndYear:   2021,
		Bucket:    "yearly",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	m.Add("github", schema.CSVArtifact, "outputs/rust_lang/github/rust_lang_github_data.csv")
	m.Record(schema.SourceOutcome{Source: "github", Status: schema.StatusDegraded, Rows: 2, Warnings: 1})

	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, WriteManifest(path, m))
	got, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	_, err = ReadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteBuckets(t *testing.T) {
	buckets := []schema.TimeBucket{
		{Start: schema.Date(2024, 1, 1), End: schema.Date(2024, 3, 31), Label: "2024-Q1"},
		{Start: schema.Date(2024, 4, 1), End: schema.Date(2024, 6, 30), Label: "2024-Q2"},
	}
	dir := t.TempDir()

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(dir, "b.csv")
		require.NoError(t, WriteBuckets(buckets, CSVListing, path))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "period,start_date,end_date,days\n2024-Q1,2024-01-01,2024-03-31,91\n2024-Q2,2024-04-01,2024-06-30,91\n", string(data))
	})

	t.Run("table", func(t *testing.T) {
		path := filepath.Join(dir, "b.txt")
		require.NoError(t, WriteBuckets(buckets, TableListing, path))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "2024-Q2")
		assert.Contains(t, string(data), "2 buckets")
	})

	t.Run("invalid", func(t *testing.T) {
		assert.Error(t, WriteBuckets(buckets, "xml", ""))
	})
}

func TestWriteSources(t *testing.T) {
	infos := []source.Info{
		{Name: "news", Credential: "NEWS_API_KEY", Delay: 1500 * time.Millisecond, Columns: []schema.Column{
			{Name: "article_count", Kind: schema.IntColumn},
			{Name: "source_count", Kind: schema.IntColumn},
		}},
		{Name: "arxiv", Delay: 3 * time.Second, Columns: []schema.Column{{Name: "paper_count", Kind: schema.IntColumn}}},
	}
	dir := t.TempDir()

	t.Run("csv", func(t *testing.T) {
		path := filepath.Join(dir, "s.csv")
		require.NoError(t, WriteSources(infos, CSVListing, path))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "source,credential,delay_seconds,columns\nnews,NEWS_API_KEY,1.5,article_count;source_count\narxiv,,3,paper_count\n", string(data))
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "s.json")
		require.NoError(t, WriteSources(infos, JSONListing, path))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"delay_seconds": 1.5`)
		assert.NotContains(t, string(data), `"credential": ""`)
	})

	t.Run("invalid", func(t *testing.T) {
		assert.Error(t, WriteSources(infos, "xml", ""))
	})
}
