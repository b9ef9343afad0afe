package bucket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/hypeplot/schema"
)

func TestParse(t *testing.T) {
	tests := []struct {
		spec    string
		want    schema.BucketWidth
		wantErr bool
	}{
		{"yearly", Yearly, false},
		{"Quarterly", Quarterly, false},
		{" monthly ", Monthly, false},
		{"days:30", Days(30), false},
		{"days:1", Days(1), false},
		{"days:0", schema.BucketWidth{}, true},
		{"days:-5", schema.BucketWidth{}, true},
		{"days:abc", schema.BucketWidth{}, true},
		{"days", schema.BucketWidth{}, true},
		{"weekly", schema.BucketWidth{}, true},
		{"", schema.BucketWidth{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := Parse(tt.spec)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidWidth)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateRejectsNonPositiveDays(t *testing.T) {
	seq, err := Generate(2020, 2021, Days(0))
	assert.ErrorIs(t, err, ErrInvalidWidth)
	assert.Nil(t, seq)
}

func TestGenerateCoversSpanExactly(t *testing.T) {
	widths := []schema.BucketWidth{Yearly, Quarterly, Monthly, Days(1), Days(7), Days(10), Days(30), Days(365), Days(1000)}
	spans := [][2]int{{2025, 2025}, {2019, 2021}, {2000, 2004}, {1999, 2000}}

	for _, w := range widths {
		for _, span := range spans {
			t.Run(w.String(), func(t *testing.T) {
				buckets, err := Collect(span[0], span[1], w)
				require.NoError(t, err)
				require.NotEmpty(t, buckets)

				assert.Equal(t, schema.Date(span[0], time.January, 1), buckets[0].Start)
				assert.Equal(t, schema.Date(span[1], time.December, 31), buckets[len(buckets)-1].End)
				for i, b := range buckets {
					assert.False(t, b.End.Before(b.Start), "bucket %s ends before it starts", b.Label)
					if i > 0 {
						assert.Equal(t, buckets[i-1].End.AddDate(0, 0, 1), b.Start, "gap or overlap before %s", b.Label)
					}
				}
				assert.Equal(t, Count(span[0], span[1], w), len(buckets))
			})
		}
	}
}

func TestGenerateEmptyWhenEndBeforeStart(t *testing.T) {
	for _, w := range []schema.BucketWidth{Yearly, Quarterly, Monthly, Days(10)} {
		buckets, err := Collect(2022, 2021, w)
		require.NoError(t, err)
		assert.Empty(t, buckets)
		assert.Zero(t, Count(2022, 2021, w))
	}
}

func TestGenerateYearly(t *testing.T) {
	buckets, err := Collect(2023, 2023, Yearly)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, "2023", buckets[0].Label)
	assert.Equal(t, 365, buckets[0].Days())
}

func TestGenerateQuarterly(t *testing.T) {
	buckets, err := Collect(2024, 2024, Quarterly)
	require.NoError(t, err)
	require.Len(t, buckets, 4)

	labels := make([]string, 0, len(buckets))
	for _, b := range buckets {
		labels = append(labels, b.Label)
	}
	assert.Equal(t, []string{"2024-Q1", "2024-Q2", "2024-Q3", "2024-Q4"}, labels)
	assert.Equal(t, schema.Date(2024, time.April, 1), buckets[1].Start)
	assert.Equal(t, schema.Date(2024, time.June, 30), buckets[1].End)
}

func TestGenerateMonthlyLeapYear(t *testing.T) {
	tests := []struct {
		year    int
		febDays int
	}{
		{2024, 29},
		{2023, 28},
		{2000, 29},
		{1900, 28},
	}
	for _, tt := range tests {
		buckets, err := Collect(tt.year, tt.year, Monthly)
		require.NoError(t, err)
		require.Len(t, buckets, 12)
		assert.Equal(t, tt.febDays, buckets[1].Days())
		assert.Equal(t, "02", buckets[1].Label[5:])
		assert.Equal(t, schema.Date(tt.year, time.December, 31), buckets[11].End)
	}
}

func TestGenerateFixedDays(t *testing.T) {
	buckets, err := Collect(2025, 2025, Days(10))
	require.NoError(t, err)
	require.Len(t, buckets, 37)

	first := buckets[0]
	assert.Equal(t, schema.Date(2025, time.January, 1), first.Start)
	assert.Equal(t, schema.Date(2025, time.January, 10), first.End)
	assert.Equal(t, "2025-01-01", first.Label)

	last := buckets[len(buckets)-1]
	assert.Equal(t, schema.Date(2025, time.December, 31), last.End)
	assert.Equal(t, schema.Date(2025, time.December, 27), last.Start)
	assert.Equal(t, 5, last.Days())

	// Jan 31 to Feb 9 crosses a month boundary.
	assert.Equal(t, "2025-01-31_2025-02-09", buckets[3].Label)
}

func TestGenerateFixedDaysAcrossYears(t *testing.T) {
	buckets, err := Collect(2023, 2024, Days(365))
	require.NoError(t, err)
	require.Len(t, buckets, 3)
	assert.Equal(t, "2023-01-01_2023-12-31", buckets[0].Label)
	assert.Equal(t, "2024-01-01_2024-12-30", buckets[1].Label)
	assert.Equal(t, "2024-12-31", buckets[2].Label)
}

func TestGenerateIsLazyAndRestartable(t *testing.T) {
	seq, err := Generate(1900, 2100, Days(1))
	require.NoError(t, err)

	taken := 0
	for range seq {
		taken++
		if taken == 3 {
			break
		}
	}
	assert.Equal(t, 3, taken)

	var firstAgain schema.TimeBucket
	for b := range seq {
		firstAgain = b
		break
	}
	assert.Equal(t, "1900-01-01", firstAgain.Label)
}

func TestCount(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		width      schema.BucketWidth
		want       int
	}{
		{"yearly decade", 2010, 2019, Yearly, 10},
		{"quarterly", 2020, 2021, Quarterly, 8},
		{"monthly", 2020, 2020, Monthly, 12},
		{"days ceil", 2025, 2025, Days(10), 37},
		{"days exact", 2025, 2025, Days(365), 1},
		{"days leap", 2024, 2024, Days(365), 2},
		{"invalid width", 2024, 2024, Days(0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Count(tt.start, tt.end, tt.width))
		})
	}
}
