// Package trends fetches Google Trends interest over time and reduces it to yearly means.
package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/httpclient"
	"github.com/huangsam/hypeplot/schema"
)

// ErrTooManyRequests is returned when Google Trends answers HTTP 429.
var ErrTooManyRequests = errors.New("google trends rate limit exceeded")

// ErrNoData is returned when the timeline holds no points.
var ErrNoData = errors.New("google trends returned no data")

const (
	defaultBaseURL = "https://trends.google.com"
	hostLanguage   = "en-US"
	timezone       = "0"
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Profile httpclient.Profile

	// Store memoizes topic ids and series. Nil disables caching.
	Store   contract.CacheStore
	Refresh bool

	Sleep httpclient.SleepFunc
	Now   func() time.Time
	// Rand returns a uniform value in [0, 1) for backoff jitter.
	Rand func() float64
}

// Client talks to the unofficial Google Trends endpoints.
type Client struct {
	http    *httpclient.Client
	agents  *httpclient.AgentPool
	baseURL string
	store   contract.CacheStore
	refresh bool
	sleep   httpclient.SleepFunc
	now     func() time.Time
	rand    func() float64

	bootstrapped bool
}

// New builds a Client with its own cookie jar.
func New(opts Options) (*Client, error) {
	profile := opts.Profile
	if profile == "" {
		profile = httpclient.ProfileChrome
	}
	transport, err := httpclient.Transport(profile)
	if err != nil {
		return nil, err
	}
	hc, err := httpclient.New(httpclient.Config{
		Name:         "trends",
		Timeout:      25 * time.Second,
		UseCookieJar: true,
		Transport:    transport,
	})
	if err != nil {
		return nil, err
	}

	c := &Client{
		http:    hc,
		agents:  httpclient.NewAgentPool(nil),
		baseURL: defaultBaseURL,
		store:   opts.Store,
		refresh: opts.Refresh,
		sleep:   opts.Sleep,
		now:     opts.Now,
		rand:    opts.Rand,
	}
	if opts.BaseURL != "" {
		c.baseURL = opts.BaseURL
	}
	if c.sleep == nil {
		c.sleep = httpclient.Sleep
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.rand == nil {
		c.rand = defaultRand
	}
	return c, nil
}

// Suggestion is one autocomplete entry.
type Suggestion struct {
	Mid   string `json:"mid"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type comparisonItem struct {
	Keyword string `json:"keyword"`
	Time    string `json:"time"`
	Geo     string `json:"geo"`
}

type exploreRequest struct {
	ComparisonItem []comparisonItem `json:"comparisonItem"`
	Category       int              `json:"category"`
	Property       string           `json:"property"`
}

type widget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

type timelineResponse struct {
	Default struct {
		TimelineData []struct {
			Time    string `json:"time"`
			Value   []int  `json:"value"`
			HasData []bool `json:"hasData"`
		} `json:"timelineData"`
	} `json:"default"`
}

// bootstrap loads the landing page once so the jar holds the NID cookie.
func (c *Client) bootstrap(ctx context.Context) {
	if c.bootstrapped {
		return
	}
	c.bootstrapped = true
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?geo=US", nil)
	if err != nil {
		return
	}
	req.Header.Set("User-Agent", c.agents.Next())
	if resp, err := c.http.Do(ctx, req); err == nil {
		_ = resp.Body.Close()
	}
}

// get performs a GET against the trends API and strips the anti-JSON prefix.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	c.bootstrap(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.agents.Next())
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	body, err := c.http.Fetch(ctx, req)
	if err != nil {
		if httpclient.IsStatus(err, http.StatusTooManyRequests) {
			return fmt.Errorf("%w: %v", ErrTooManyRequests, err)
		}
		return err
	}
	if err := json.Unmarshal(stripPrefix(body), out); err != nil {
		return fmt.Errorf("decode trends response: %w", err)
	}
	return nil
}

// stripPrefix drops the ")]}'" guard that precedes every JSON payload.
func stripPrefix(body []byte) []byte {
	if i := bytes.IndexAny(body, "{["); i > 0 {
		return body[i:]
	}
	return body
}

// Suggestions returns the autocomplete entries for a keyword.
func (c *Client) Suggestions(ctx context.Context, keyword string) ([]Suggestion, error) {
	var resp struct {
		Default struct {
			Topics []Suggestion `json:"topics"`
		} `json:"default"`
	}
	params := url.Values{"hl": {hostLanguage}}
	if err := c.get(ctx, "/trends/api/autocomplete/"+url.PathEscape(keyword), params, &resp); err != nil {
		return nil, err
	}
	return resp.Default.Topics, nil
}

// interestOverTime resolves the TIMESERIES widget and downloads its points.
func (c *Client) interestOverTime(ctx context.Context, keyword, timeframe, geo string) ([]schema.WeeklyPoint, error) {
	payload, err := json.Marshal(exploreRequest{
		ComparisonItem: []comparisonItem{{Keyword: keyword, Time: timeframe, Geo: geo}},
	})
	if err != nil {
		return nil, err
	}

	var explore struct {
		Widgets []widget `json:"widgets"`
	}
	params := url.Values{"hl": {hostLanguage}, "tz": {timezone}, "req": {string(payload)}}
	if err := c.get(ctx, "/trends/api/explore", params, &explore); err != nil {
		return nil, err
	}

	var ts *widget
	for i := range explore.Widgets {
		if explore.Widgets[i].ID == "TIMESERIES" {
			ts = &explore.Widgets[i]
			break
		}
	}
	if ts == nil {
		return nil, errors.New("explore response has no TIMESERIES widget")
	}

	var timeline timelineResponse
	params = url.Values{"req": {string(ts.Request)}, "token": {ts.Token}, "tz": {timezone}}
	if err := c.get(ctx, "/trends/api/widgetdata/multiline", params, &timeline); err != nil {
		return nil, err
	}

	var points []schema.WeeklyPoint
	for _, p := range timeline.Default.TimelineData {
		if len(p.Value) == 0 {
			continue
		}
		sec, err := strconv.ParseInt(p.Time, 10, 64)
		if err != nil {
			continue
		}
		points = append(points, schema.WeeklyPoint{Week: time.Unix(sec, 0).UTC(), Interest: float64(p.Value[0])})
	}
	if len(points) == 0 {
		return nil, ErrNoData
	}
	return points, nil
}
