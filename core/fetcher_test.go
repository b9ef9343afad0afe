package core

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/hypeplot/internal/bucket"
	"github.com/huangsam/hypeplot/internal/iocache"
	"github.com/huangsam/hypeplot/internal/source"
	"github.com/huangsam/hypeplot/schema"
)

var (
	yearly    = schema.BucketWidth{Kind: schema.YearlyBucket}
	quarterly = schema.BucketWidth{Kind: schema.QuarterlyBucket}
	fixedNow  = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
)

func TestFetchRowCountMatchesBuckets(t *testing.T) {
	tests := []struct {
		name   string
		width  schema.BucketWidth
		failOn func(schema.TimeBucket) bool
	}{
		{"yearly all succeed", yearly, nil},
		{"quarterly always failing", quarterly, func(schema.TimeBucket) bool { return true }},
		{"days:10 with some failing", bucket.Days(10), func(b schema.TimeBucket) bool { return b.Start.YearDay()%20 == 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{name: "fake", delay: time.Second, failOn: tt.failOn}
			sleeps := &sleepRecorder{}
			f := &RangeFetcher{Sleep: sleeps.Sleep, Now: func() time.Time { return fixedNow }}

			rows, err := f.Fetch(context.Background(), src, "rust", 2023, 2024, tt.width)
			require.NoError(t, err)
			want := bucket.Count(2023, 2024, tt.width)
			assert.Len(t, rows, want)
			assert.Len(t, src.calls, want)
			assert.Len(t, sleeps.delays, want)
			for _, d := range sleeps.delays {
				assert.Equal(t, time.Second, d)
			}
		})
	}
}

func TestFetchZeroFillsFailures(t *testing.T) {
	src := &fakeSource{name: "fake", failOn: func(b schema.TimeBucket) bool { return b.Label == "2024" }}
	f := &RangeFetcher{Sleep: (&sleepRecorder{}).Sleep}

	rows, report, err := f.FetchWithReport(context.Background(), src, "rust", 2023, 2025, yearly)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "2024", rows[1].Period)
	assert.Equal(t, schema.Date(2024, time.January, 1), rows[1].StartDate)
	assert.Equal(t, schema.Date(2024, time.December, 31), rows[1].EndDate)
	assert.Equal(t, src.Zero("rust"), rows[1].Metrics)
	assert.Equal(t, int64(23), rows[0].Metrics["hits"])
	assert.Equal(t, FetchReport{Fetched: 2, Degraded: 1, Warnings: 1}, report)
}

func TestFetchGatedSource(t *testing.T) {
	src := &fakeSource{name: "news", delay: time.Second, gate: source.ErrMissingCredential}
	sleeps := &sleepRecorder{}
	var progress bytes.Buffer
	f := &RangeFetcher{Sleep: sleeps.Sleep, Progress: &progress}

	rows, report, err := f.FetchWithReport(context.Background(), src, "rust", 2020, 2024, yearly)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
	assert.Empty(t, src.calls)
	assert.Empty(t, sleeps.delays)
	assert.Empty(t, progress.String())
	assert.Equal(t, FetchReport{Skipped: 5, Warnings: 1}, report)
	for _, r := range rows {
		assert.Equal(t, src.Zero("rust"), r.Metrics)
	}
}

func TestFetchLocalAnswersSkipDelay(t *testing.T) {
	src := &localSource{fakeSource: fakeSource{name: "scholar", delay: 4 * time.Second}, seen: map[int]schema.Metrics{}}
	sleeps := &sleepRecorder{}
	store := iocache.NewMemoryStore()
	f := &RangeFetcher{Cache: store, Sleep: sleeps.Sleep, Now: func() time.Time { return fixedNow }}

	rows, report, err := f.FetchWithReport(context.Background(), src, "rust", 2023, 2024, quarterly)
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, []string{"2023-Q1", "2024-Q1"}, src.calls)
	assert.Equal(t, []time.Duration{4 * time.Second, 4 * time.Second}, sleeps.delays)
	assert.Equal(t, FetchReport{Fetched: 2, Cached: 6}, report)
	assert.Equal(t, rows[0].Metrics, rows[3].Metrics)
	assert.Equal(t, rows[4].Metrics, rows[7].Metrics)
}

func TestFetchInvalidWidth(t *testing.T) {
	src := &fakeSource{name: "fake"}
	f := &RangeFetcher{}
	_, err := f.Fetch(context.Background(), src, "rust", 2023, 2024, schema.BucketWidth{Kind: schema.DaysBucket, Days: 0})
	require.Error(t, err)
	assert.Empty(t, src.calls)
}

func TestFetchReversedRange(t *testing.T) {
	src := &fakeSource{name: "fake"}
	f := &RangeFetcher{Sleep: (&sleepRecorder{}).Sleep}
	rows, err := f.Fetch(context.Background(), src, "rust", 2025, 2020, yearly)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, src.calls)
}

func TestFetchInterrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{name: "fake"}
	f := &RangeFetcher{Sleep: func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}}

	rows, report, err := f.FetchWithReport(ctx, src, "rust", 2020, 2024, yearly)
	require.NoError(t, err)
	assert.Len(t, rows, 5)
	assert.Equal(t, []string{"2020"}, src.calls)
	assert.Equal(t, 1, report.Fetched)
	assert.Equal(t, 4, report.Skipped)
}

func TestFetchCache(t *testing.T) {
	store := iocache.NewMemoryStore()
	now := fixedNow
	clock := func() time.Time { return now }

	first := &fakeSource{name: "fake", failOn: func(b schema.TimeBucket) bool { return b.Label == "2024" }}
	f := &RangeFetcher{Cache: store, Sleep: (&sleepRecorder{}).Sleep, Now: clock}
	_, err := f.Fetch(context.Background(), first, "rust", 2023, 2024, yearly)
	require.NoError(t, err)
	assert.Len(t, first.calls, 2)

	t.Run("successful buckets are served from cache", func(t *testing.T) {
		second := &fakeSource{name: "fake"}
		sleeps := &sleepRecorder{}
		f := &RangeFetcher{Cache: store, Sleep: sleeps.Sleep, Now: clock}
		rows, report, err := f.FetchWithReport(context.Background(), second, "rust", 2023, 2024, yearly)
		require.NoError(t, err)
		assert.Equal(t, []string{"2024"}, second.calls)
		assert.Len(t, sleeps.delays, 1)
		assert.Equal(t, 1, report.Cached)
		// Kinds survive the JSON round trip.
		assert.Equal(t, schema.Metrics{"hits": int64(23), "ratio": 0.5, "label": "rust"}, rows[0].Metrics)
	})

	t.Run("refresh bypasses the cache", func(t *testing.T) {
		third := &fakeSource{name: "fake"}
		f := &RangeFetcher{Cache: store, Refresh: true, Sleep: (&sleepRecorder{}).Sleep, Now: clock}
		_, err := f.Fetch(context.Background(), third, "rust", 2023, 2024, yearly)
		require.NoError(t, err)
		assert.Len(t, third.calls, 2)
	})

	t.Run("stale entries are refetched", func(t *testing.T) {
		later := func() time.Time { return now.Add(8 * 24 * time.Hour) }
		fourth := &fakeSource{name: "fake"}
		f := &RangeFetcher{Cache: store, Sleep: (&sleepRecorder{}).Sleep, Now: later}
		_, err := f.Fetch(context.Background(), fourth, "rust", 2023, 2024, yearly)
		require.NoError(t, err)
		assert.Len(t, fourth.calls, 2)
	})
}

func TestGenerateCacheKey(t *testing.T) {
	b := schema.TimeBucket{Start: schema.Date(2024, 1, 1), End: schema.Date(2024, 12, 31), Label: "2024"}
	k1 := generateCacheKey("github", "rust", b)
	assert.Len(t, k1, 64)
	assert.Equal(t, k1, generateCacheKey("github", "rust", b))
	assert.NotEqual(t, k1, generateCacheKey("arxiv", "rust", b))
	assert.NotEqual(t, k1, generateCacheKey("github", "Rust", b))
}

func TestSummarize(t *testing.T) {
	src := &fakeSource{}
	got := summarize(src.Columns(), schema.Metrics{"hits": int64(3), "ratio": 1.25, "label": ""})
	assert.Equal(t, "3 hits, 1.25 ratio", got)
}
