package source

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/huangsam/hypeplot/internal/httpclient"
	"github.com/huangsam/hypeplot/schema"
)

// ScholarName is the registry key of the Google Scholar source.
const ScholarName = "scholar"

var scholarCount = regexp.MustCompile(`(?i)(?:about\s+)?([\d][\d,.\s]*)\s+results?`)

// Scholar scrapes the result count of a Google Scholar search. Scholar only
// filters by year, so sub-year buckets reuse the count of their year range.
type Scholar struct {
	base
	endpoint string
	agents   *httpclient.AgentPool

	mu   sync.Mutex
	memo map[string]int64
}

// NewScholar builds the Scholar source with a browser TLS fingerprint.
func NewScholar(opts Options) (*Scholar, error) {
	profile := opts.Profile
	if profile == "" {
		profile = httpclient.ProfileChrome
	}
	transport, err := httpclient.Transport(profile)
	if err != nil {
		return nil, err
	}

	client, err := httpclient.New(httpclient.Config{
		Name:         ScholarName,
		Timeout:      15 * time.Second,
		MaxRedirects: 5,
		UseCookieJar: true,
		Transport:    transport,
	})
	if err != nil {
		return nil, err
	}

	return &Scholar{
		base: base{
			name:    ScholarName,
			columns: []schema.Column{intCol("results")},
			delay:   4 * time.Second,
			client:  client,
		},
		endpoint: opts.endpoint(ScholarName, "https://scholar.google.com/scholar"),
		agents:   httpclient.NewAgentPool(nil),
		memo:     make(map[string]int64),
	}, nil
}

func memoKey(term string, b schema.TimeBucket) string {
	return fmt.Sprintf("%s|%d|%d", term, b.Start.Year(), b.End.Year())
}

// Local returns the count of a year range that was already searched.
func (s *Scholar) Local(term string, b schema.TimeBucket) (schema.Metrics, bool) {
	s.mu.Lock()
	count, ok := s.memo[memoKey(term, b)]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	return schema.Metrics{"results": count}, true
}

// FetchBucket searches the bucket's year range and parses the result count.
func (s *Scholar) FetchBucket(ctx context.Context, term string, b schema.TimeBucket) (schema.Metrics, error) {
	if m, ok := s.Local(term, b); ok {
		return m, nil
	}
	ylo, yhi := b.Start.Year(), b.End.Year()
	key := memoKey(term, b)

	params := url.Values{}
	params.Set("q", term)
	params.Set("hl", "en")
	params.Set("as_ylo", strconv.Itoa(ylo))
	params.Set("as_yhi", strconv.Itoa(yhi))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.agents.Random())
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	body, err := s.client.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	count, err := parseScholarCount(body)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.memo[key] = count
	s.mu.Unlock()
	return schema.Metrics{"results": count}, nil
}

// parseScholarCount reads "About 1,230 results" from the results header.
func parseScholarCount(page []byte) (int64, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return 0, fmt.Errorf("parse scholar page: %w", err)
	}

	if doc.Find("#gs_captcha_ccl, #captcha-form, form[action*='sorry']").Length() > 0 ||
		strings.Contains(doc.Text(), "unusual traffic") {
		return 0, ErrBlocked
	}

	header := strings.TrimSpace(doc.Find("#gs_ab_md").Text())
	if header == "" {
		// An empty search has no header and no results
		if doc.Find(".gs_r.gs_or").Length() == 0 {
			return 0, nil
		}
		return int64(doc.Find(".gs_r.gs_or").Length()), nil
	}

	m := scholarCount.FindStringSubmatch(header)
	if m == nil {
		return 0, fmt.Errorf("no result count in %q", header)
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, m[1])
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("result count %q: %w", m[1], err)
	}
	return n, nil
}
