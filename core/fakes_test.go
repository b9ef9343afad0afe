package core

import (
	"context"
	"errors"
	"time"

	"github.com/huangsam/hypeplot/schema"
)

var errUpstream = errors.New("upstream unavailable")

// fakeSource counts calls and fails the buckets selected by failOn.
type fakeSource struct {
	name   string
	delay  time.Duration
	gate   error
	failOn func(schema.TimeBucket) bool

	calls []string
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Columns() []schema.Column {
	return []schema.Column{
		{Name: "hits", Kind: schema.IntColumn},
		{Name: "ratio", Kind: schema.FloatColumn},
		{Name: "label", Kind: schema.StringColumn},
	}
}

func (f *fakeSource) Delay() time.Duration { return f.delay }
func (f *fakeSource) Check() error         { return f.gate }

func (f *fakeSource) Zero(string) schema.Metrics { return schema.ZeroMetrics(f.Columns()) }

func (f *fakeSource) FetchBucket(_ context.Context, term string, b schema.TimeBucket) (schema.Metrics, error) {
	f.calls = append(f.calls, b.Label)
	if f.failOn != nil && f.failOn(b) {
		return nil, errUpstream
	}
	return schema.Metrics{
		"hits":  int64(b.Start.Year() - 2000),
		"ratio": 0.5,
		"label": term,
	}, nil
}

// localSource answers every bucket after the first of each year from memory.
type localSource struct {
	fakeSource
	seen map[int]schema.Metrics
}

func (l *localSource) Local(_ string, b schema.TimeBucket) (schema.Metrics, bool) {
	m, ok := l.seen[b.Start.Year()]
	return m, ok
}

func (l *localSource) FetchBucket(ctx context.Context, term string, b schema.TimeBucket) (schema.Metrics, error) {
	m, err := l.fakeSource.FetchBucket(ctx, term, b)
	if err == nil {
		l.seen[b.Start.Year()] = m
	}
	return m, err
}

// sleepRecorder collects requested delays without waiting.
type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}
