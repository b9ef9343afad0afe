package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{"Machine Learning", "machine_learning"},
		{"C/C++", "cc++"},
		{`back\slash`, "backslash"},
		{"rust", "rust"},
		{"  padded ", "__padded_"},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.term))
		})
	}
}

func TestZeroMetrics(t *testing.T) {
	cols := []Column{
		{Name: "repo_count", Kind: IntColumn},
		{Name: "avg_amount_usd", Kind: FloatColumn},
		{Name: "registry", Kind: StringColumn},
	}
	m := ZeroMetrics(cols)
	assert.Equal(t, int64(0), m["repo_count"])
	assert.Equal(t, float64(0), m["avg_amount_usd"])
	assert.Equal(t, "", m["registry"])
	assert.Len(t, m, 3)
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "42", FormatValue(int64(42)))
	assert.Equal(t, "7", FormatValue(7))
	assert.Equal(t, "12.5", FormatValue(12.5))
	assert.Equal(t, "0", FormatValue(float64(0)))
	assert.Equal(t, "pypi", FormatValue("pypi"))
	assert.Equal(t, "", FormatValue(nil))
}

func TestNumericValue(t *testing.T) {
	v, ok := NumericValue(int64(3))
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	_, ok = NumericValue("text")
	assert.False(t, ok)
}

func TestTimeBucketDays(t *testing.T) {
	b := TimeBucket{Start: Date(2024, time.February, 1), End: Date(2024, time.February, 29)}
	assert.Equal(t, 29, b.Days())
}

func TestBucketWidthString(t *testing.T) {
	assert.Equal(t, "yearly", BucketWidth{Kind: YearlyBucket}.String())
	assert.Equal(t, "days:14", BucketWidth{Kind: DaysBucket, Days: 14}.String())
}

func TestResultManifest(t *testing.T) {
	m := &ResultManifest{}
	m.Add("github", CSVArtifact, "a.csv")
	m.Add("scholar", HTMLArtifact, "s.html")
	m.Add("github", CSVArtifact, "b.csv")

	assert.Len(t, m.Entries, 2)
	path, ok := m.Get("github_csv")
	assert.True(t, ok)
	assert.Equal(t, "b.csv", path)

	first, ok := m.FirstOfKind(HTMLArtifact)
	assert.True(t, ok)
	assert.Equal(t, "s.html", first)

	_, ok = m.Get("trends_html")
	assert.False(t, ok)
}
