package trends

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/hypeplot/internal/httpclient"
	"github.com/huangsam/hypeplot/schema"
)

// Timeframes understood by the explore endpoint.
const (
	TimeframeAll      = "all"
	TimeframeFiveYear = "today 5-y"
)

const (
	cacheVersion  = 1
	seriesVersion = 2
	seriesTTL     = 7 * 24 * time.Hour
	annualYears   = 10
)

// seriesEntry is the cached form of a weekly series.
type seriesEntry struct {
	Timeframe string               `json:"timeframe"`
	Points    []schema.WeeklyPoint `json:"points"`
}

// Result is the outcome of one annual trends fetch.
type Result struct {
	Term      string
	Title     string
	Series    string // keyword or topic mid that was queried
	Timeframe string // timeframe that produced the data
	Weekly    []schema.WeeklyPoint
	Annual    []schema.AnnualPoint
}

// Title renders the chart title of a term.
func Title(term string, topic bool) string {
	if topic {
		return term + " (Worldwide, Topic)"
	}
	return term + " (Worldwide)"
}

// Annual fetches the full history of a term, keeps the last ten years and
// reduces it to yearly means. In topic mode the term is first resolved to
// a topic mid; an unresolved topic falls back to the plain keyword.
func (c *Client) Annual(ctx context.Context, term string, topic bool) (Result, error) {
	res := Result{Term: term, Title: Title(term, topic), Series: term}
	if topic {
		mid, err := c.ResolveTopic(ctx, term)
		if err != nil {
			return res, fmt.Errorf("resolve topic: %w", err)
		}
		if mid != "" {
			res.Series = mid
		}
	}

	weekly, used, err := c.Weekly(ctx, res.Series, TimeframeAll, "")
	if err != nil {
		return res, err
	}
	res.Timeframe = used
	res.Weekly = SliceLastYears(weekly, c.now(), annualYears)
	res.Annual = Annualize(res.Weekly)
	if len(res.Annual) == 0 {
		return res, ErrNoData
	}
	return res, nil
}

// ResolveTopic picks the suggestion whose title matches the query exactly,
// else the first suggestion. Results are cached by the lowercased query.
func (c *Client) ResolveTopic(ctx context.Context, query string) (string, error) {
	key := "trends:mid:" + strings.ToLower(strings.TrimSpace(query))
	if c.store != nil && !c.refresh {
		if data, version, _, err := c.store.Get(key); err == nil && version == cacheVersion {
			return string(data), nil
		}
	}

	suggestions, err := c.Suggestions(ctx, query)
	if err != nil {
		return "", err
	}
	mid := chooseMid(query, suggestions)
	if mid != "" && c.store != nil {
		_ = c.store.Set(key, []byte(mid), cacheVersion, c.now().Unix())
	}
	return mid, nil
}

func chooseMid(query string, suggestions []Suggestion) string {
	for _, s := range suggestions {
		if strings.EqualFold(s.Title, query) && s.Mid != "" {
			return s.Mid
		}
	}
	if len(suggestions) > 0 {
		return suggestions[0].Mid
	}
	return ""
}

// seriesKey mirrors md5(series::timeframe::geo::).
func seriesKey(series, timeframe, geo string) string {
	h := md5.New()
	for _, part := range []string{series, timeframe, geo} {
		h.Write([]byte(part))
		h.Write([]byte("::"))
	}
	return "trends:series:" + hex.EncodeToString(h.Sum(nil))
}

// Weekly returns the raw series for a timeframe and the timeframe that produced it.
// Cached series younger than seven days are reused. A failed request for a
// long timeframe falls back to the last five years. Results are cached under
// the requested timeframe together with the timeframe that produced them.
func (c *Client) Weekly(ctx context.Context, series, timeframe, geo string) ([]schema.WeeklyPoint, string, error) {
	key := seriesKey(series, timeframe, geo)
	if entry, ok := c.cached(key); ok {
		return entry.Points, entry.Timeframe, nil
	}

	if err := c.sleep(ctx, httpclient.Jitter(1500*time.Millisecond, 3*time.Second)); err != nil {
		return nil, "", err
	}

	used := timeframe
	points, err := c.fetchWithRetries(ctx, series, timeframe, geo)
	if err != nil && timeframe != TimeframeFiveYear {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}
		used = TimeframeFiveYear
		var fallbackErr error
		points, fallbackErr = c.fetchWithRetries(ctx, series, TimeframeFiveYear, geo)
		if fallbackErr != nil {
			return nil, "", fmt.Errorf("timeframe %q: %w; fallback %q: %w", timeframe, err, TimeframeFiveYear, fallbackErr)
		}
		err = nil
	}
	if err != nil {
		return nil, "", err
	}

	if c.store != nil {
		if data, err := json.Marshal(seriesEntry{Timeframe: used, Points: points}); err == nil {
			_ = c.store.Set(key, data, seriesVersion, c.now().Unix())
		}
	}
	return points, used, nil
}

func (c *Client) cached(key string) (seriesEntry, bool) {
	var entry seriesEntry
	if c.store == nil || c.refresh {
		return entry, false
	}
	data, version, ts, err := c.store.Get(key)
	if err != nil || version != seriesVersion {
		return entry, false
	}
	if c.now().Sub(time.Unix(ts, 0)) > seriesTTL {
		return entry, false
	}
	if err := json.Unmarshal(data, &entry); err != nil || len(entry.Points) == 0 || entry.Timeframe == "" {
		return seriesEntry{}, false
	}
	return entry, true
}

// SliceLastYears keeps the points between now minus the given years and now.
func SliceLastYears(points []schema.WeeklyPoint, now time.Time, years int) []schema.WeeklyPoint {
	start := now.AddDate(-years, 0, 0)
	var out []schema.WeeklyPoint
	for _, p := range points {
		if !p.Week.Before(start) && !p.Week.After(now) {
			out = append(out, p)
		}
	}
	return out
}

// Annualize averages the points of each calendar year, rounded to 0.1.
func Annualize(points []schema.WeeklyPoint) []schema.AnnualPoint {
	sums := make(map[int]float64)
	counts := make(map[int]int)
	for _, p := range points {
		y := p.Week.Year()
		sums[y] += p.Interest
		counts[y]++
	}

	years := make([]int, 0, len(sums))
	for y := range sums {
		years = append(years, y)
	}
	slices.Sort(years)

	out := make([]schema.AnnualPoint, 0, len(years))
	for _, y := range years {
		mean := sums[y] / float64(counts[y])
		out = append(out, schema.AnnualPoint{Year: y, Interest: math.Round(mean*10) / 10})
	}
	return out
}

// IsRateLimited reports whether err came from an exhausted 429 retry loop.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrTooManyRequests)
}
