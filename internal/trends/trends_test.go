package trends

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangsam/hypeplot/internal/httpclient"
	"github.com/huangsam/hypeplot/internal/iocache"
	"github.com/huangsam/hypeplot/schema"
)

var fixedNow = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

type fakeTrends struct {
	explores    atomic.Int32
	timelines   atomic.Int32
	suggestions atomic.Int32

	// limited is the number of explore calls answered with 429.
	limited int32

	// failTime makes explore fail with 500 for this timeframe.
	failTime string

	topics   []Suggestion
	timeline map[int64]int

	mu       sync.Mutex
	gotTimes []string
	gotKeys  []string
}

func (f *fakeTrends) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/":
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/trends/api/explore":
			n := f.explores.Add(1)
			var req exploreRequest
			if !assert.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("req")), &req)) || !assert.Len(t, req.ComparisonItem, 1) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.mu.Lock()
			f.gotTimes = append(f.gotTimes, req.ComparisonItem[0].Time)
			f.gotKeys = append(f.gotKeys, req.ComparisonItem[0].Keyword)
			f.mu.Unlock()
			if n <= f.limited {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			if f.failTime != "" && req.ComparisonItem[0].Time == f.failTime {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			_, _ = w.Write([]byte(")]}'\n"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"widgets": []map[string]any{
					{"id": "RELATED_QUERIES", "token": "nope", "request": map[string]any{}},
					{"id": "TIMESERIES", "token": "tok", "request": map[string]any{"time": req.ComparisonItem[0].Time}},
				},
			})
		case r.URL.Path == "/trends/api/widgetdata/multiline":
			f.timelines.Add(1)
			assert.Equal(t, "tok", r.URL.Query().Get("token"))
			var data []map[string]any
			for sec, v := range f.timeline {
				data = append(data, map[string]any{"time": strconv.FormatInt(sec, 10), "value": []int{v}})
			}
			_, _ = w.Write([]byte(")]}',\n"))
			_ = json.NewEncoder(w).Encode(map[string]any{"default": map[string]any{"timelineData": data}})
		case strings.HasPrefix(r.URL.Path, "/trends/api/autocomplete/"):
			f.suggestions.Add(1)
			_, _ = w.Write([]byte(")]}'\n"))
			_ = json.NewEncoder(w).Encode(map[string]any{"default": map[string]any{"topics": f.topics}})
		default:
			http.NotFound(w, r)
		}
	}
}

func week(y int, m time.Month, d int) int64 {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
}

func defaultTimeline() map[int64]int {
	return map[int64]int{
		week(2014, 1, 5): 99,
		week(2016, 3, 6): 10,
		week(2016, 9, 4): 21,
		week(2024, 1, 7): 50,
	}
}

func newTestClient(t *testing.T, f *fakeTrends, store *iocache.MemoryStore, sleeps *[]time.Duration) *Client {
	t.Helper()
	ts := httptest.NewServer(f.handler(t))
	t.Cleanup(ts.Close)
	opts := Options{
		BaseURL: ts.URL,
		Profile: httpclient.ProfileGo,
		Now:     func() time.Time { return fixedNow },
		Rand:    func() float64 { return 0.5 },
		Sleep:   httpclient.NoSleep,
	}
	if store != nil {
		opts.Store = store
	}
	if sleeps != nil {
		opts.Sleep = func(_ context.Context, d time.Duration) error {
			*sleeps = append(*sleeps, d)
			return nil
		}
	}
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		u       float64
		want    time.Duration
	}{
		{0, 0, 3 * time.Second},
		{0, 0.5, 4 * time.Second},
		{1, 0, 6 * time.Second},
		{2, 0.99, 16 * time.Second},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.want, backoff(tt.attempt, tt.u))
		})
	}
}

func TestStripPrefix(t *testing.T) {
	assert.Equal(t, `{"a":1}`, string(stripPrefix([]byte(")]}'\n{\"a\":1}"))))
	assert.Equal(t, `[1]`, string(stripPrefix([]byte(")]}',[1]"))))
	assert.Equal(t, `{}`, string(stripPrefix([]byte("{}"))))
}

func TestAnnual(t *testing.T) {
	f := &fakeTrends{timeline: defaultTimeline()}
	c := newTestClient(t, f, nil, nil)

	res, err := c.Annual(context.Background(), "rust", false)
	require.NoError(t, err)
	assert.Equal(t, "rust (Worldwide)", res.Title)
	assert.Equal(t, TimeframeAll, res.Timeframe)
	assert.Equal(t, []schema.AnnualPoint{{Year: 2016, Interest: 15.5}, {Year: 2024, Interest: 50}}, res.Annual)
	assert.Len(t, res.Weekly, 3)
}

func TestRetriesOnRateLimit(t *testing.T) {
	t.Run("recovers after two 429s", func(t *testing.T) {
		f := &fakeTrends{limited: 2, timeline: defaultTimeline()}
		var sleeps []time.Duration
		c := newTestClient(t, f, nil, &sleeps)

		_, used, err := c.Weekly(context.Background(), "rust", TimeframeAll, "")
		require.NoError(t, err)
		assert.Equal(t, TimeframeAll, used)
		assert.EqualValues(t, 3, f.explores.Load())
		// pre-sleep jitter, then two backoffs
		require.Len(t, sleeps, 3)
		assert.GreaterOrEqual(t, sleeps[0], 1500*time.Millisecond)
		assert.LessOrEqual(t, sleeps[0], 3*time.Second)
		assert.Equal(t, []time.Duration{4 * time.Second, 8 * time.Second}, sleeps[1:])
	})

	t.Run("gives up without a final sleep", func(t *testing.T) {
		f := &fakeTrends{limited: 100, timeline: defaultTimeline()}
		var sleeps []time.Duration
		c := newTestClient(t, f, nil, &sleeps)

		_, _, err := c.Weekly(context.Background(), "rust", TimeframeFiveYear, "")
		require.Error(t, err)
		assert.True(t, IsRateLimited(err))
		assert.EqualValues(t, maxRetries+1, f.explores.Load())
		assert.Len(t, sleeps, 1+maxRetries)
	})

	t.Run("other errors do not retry", func(t *testing.T) {
		f := &fakeTrends{failTime: TimeframeFiveYear, timeline: defaultTimeline()}
		c := newTestClient(t, f, nil, nil)

		_, _, err := c.Weekly(context.Background(), "rust", TimeframeFiveYear, "")
		require.Error(t, err)
		assert.False(t, IsRateLimited(err))
		assert.EqualValues(t, 1, f.explores.Load())
	})
}

func TestFallbackToFiveYears(t *testing.T) {
	f := &fakeTrends{failTime: TimeframeAll, timeline: defaultTimeline()}
	c := newTestClient(t, f, nil, nil)

	_, used, err := c.Weekly(context.Background(), "rust", TimeframeAll, "")
	require.NoError(t, err)
	assert.Equal(t, TimeframeFiveYear, used)
	assert.Equal(t, []string{TimeframeAll, TimeframeFiveYear}, f.gotTimes)
}

func TestSeriesCache(t *testing.T) {
	store := iocache.NewMemoryStore()

	t.Run("fresh entries are reused", func(t *testing.T) {
		f := &fakeTrends{timeline: defaultTimeline()}
		c := newTestClient(t, f, store, nil)
		_, _, err := c.Weekly(context.Background(), "go", TimeframeAll, "")
		require.NoError(t, err)
		_, _, err = c.Weekly(context.Background(), "go", TimeframeAll, "")
		require.NoError(t, err)
		assert.EqualValues(t, 1, f.timelines.Load())
	})

	t.Run("stale entries are refetched", func(t *testing.T) {
		key := seriesKey("old", TimeframeAll, "")
		data := []byte(`{"timeframe":"all","points":[{"week":"2020-01-05T00:00:00Z","interest":1}]}`)
		require.NoError(t, store.Set(key, data, seriesVersion, fixedNow.Add(-8*24*time.Hour).Unix()))
		f := &fakeTrends{timeline: defaultTimeline()}
		c := newTestClient(t, f, store, nil)
		points, _, err := c.Weekly(context.Background(), "old", TimeframeAll, "")
		require.NoError(t, err)
		assert.Len(t, points, 4)
		assert.EqualValues(t, 1, f.timelines.Load())
	})

	t.Run("fallback timeframe survives the cache", func(t *testing.T) {
		f := &fakeTrends{failTime: TimeframeAll, timeline: defaultTimeline()}
		c := newTestClient(t, f, store, nil)
		_, used, err := c.Weekly(context.Background(), "zig", TimeframeAll, "")
		require.NoError(t, err)
		assert.Equal(t, TimeframeFiveYear, used)

		points, used, err := c.Weekly(context.Background(), "zig", TimeframeAll, "")
		require.NoError(t, err)
		assert.Equal(t, TimeframeFiveYear, used)
		assert.Len(t, points, 4)
		assert.EqualValues(t, 1, f.timelines.Load())
	})

	t.Run("old entry format is ignored", func(t *testing.T) {
		key := seriesKey("legacy", TimeframeAll, "")
		require.NoError(t, store.Set(key, []byte(`[{"week":"2020-01-05T00:00:00Z","interest":1}]`), cacheVersion, fixedNow.Unix()))
		f := &fakeTrends{timeline: defaultTimeline()}
		c := newTestClient(t, f, store, nil)
		_, used, err := c.Weekly(context.Background(), "legacy", TimeframeAll, "")
		require.NoError(t, err)
		assert.Equal(t, TimeframeAll, used)
		assert.EqualValues(t, 1, f.timelines.Load())
	})

	t.Run("refresh bypasses the cache", func(t *testing.T) {
		f := &fakeTrends{timeline: defaultTimeline()}
		c := newTestClient(t, f, store, nil)
		c.refresh = true
		_, _, err := c.Weekly(context.Background(), "go", TimeframeAll, "")
		require.NoError(t, err)
		assert.EqualValues(t, 1, f.timelines.Load())
	})
}

func TestResolveTopic(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		topics []Suggestion
		want   string
	}{
		{"exact title wins", "Python", []Suggestion{{Mid: "/m/snake", Title: "Pythonidae"}, {Mid: "/m/05z1_", Title: "python"}}, "/m/05z1_"},
		{"first suggestion otherwise", "rustlang", []Suggestion{{Mid: "/m/rust", Title: "Rust"}}, "/m/rust"},
		{"no suggestions", "zzzz", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chooseMid(tt.query, tt.topics))
		})
	}

	t.Run("mid is cached by lowercase query", func(t *testing.T) {
		store := iocache.NewMemoryStore()
		f := &fakeTrends{topics: []Suggestion{{Mid: "/m/07sbkfb", Title: "Java"}}, timeline: defaultTimeline()}
		c := newTestClient(t, f, store, nil)
		mid, err := c.ResolveTopic(context.Background(), "Java")
		require.NoError(t, err)
		assert.Equal(t, "/m/07sbkfb", mid)
		mid, err = c.ResolveTopic(context.Background(), "JAVA ")
		require.NoError(t, err)
		assert.Equal(t, "/m/07sbkfb", mid)
		assert.EqualValues(t, 1, f.suggestions.Load())
	})

	t.Run("topic mode queries the mid", func(t *testing.T) {
		f := &fakeTrends{topics: []Suggestion{{Mid: "/m/07sbkfb", Title: "Java"}}, timeline: defaultTimeline()}
		c := newTestClient(t, f, nil, nil)
		res, err := c.Annual(context.Background(), "Java", true)
		require.NoError(t, err)
		assert.Equal(t, "Java (Worldwide, Topic)", res.Title)
		assert.Equal(t, "/m/07sbkfb", res.Series)
		assert.Equal(t, []string{"/m/07sbkfb"}, f.gotKeys)
	})
}

func TestAnnualize(t *testing.T) {
	points := []schema.WeeklyPoint{
		{Week: time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC), Interest: 1},
		{Week: time.Date(2020, 6, 5, 0, 0, 0, 0, time.UTC), Interest: 2},
		{Week: time.Date(2020, 9, 5, 0, 0, 0, 0, time.UTC), Interest: 2},
		{Week: time.Date(2019, 9, 5, 0, 0, 0, 0, time.UTC), Interest: 7},
	}
	assert.Equal(t, []schema.AnnualPoint{{Year: 2019, Interest: 7}, {Year: 2020, Interest: 1.7}}, Annualize(points))
	assert.Empty(t, Annualize(nil))
}
