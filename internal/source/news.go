package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/huangsam/hypeplot/schema"
)

// NewsName is the registry key of the NewsAPI source.
const NewsName = "news"

// newsWindow is how far back the NewsAPI free tier reaches.
const newsWindow = 30 * 24 * time.Hour

// News counts articles from NewsAPI.
type News struct {
	base
	endpoint string
	apiKey   string
	now      func() time.Time
}

// NewNews builds the NewsAPI source.
func NewNews(opts Options) (*News, error) {
	b, err := newBase(NewsName, []schema.Column{
		intCol("article_count"),
		intCol("source_count"),
	}, time.Second, 10*time.Second, nil)
	if err != nil {
		return nil, err
	}
	return &News{
		base:     b,
		endpoint: opts.endpoint(NewsName, "https://newsapi.org/v2/everything"),
		apiKey:   opts.Credentials.NewsAPIKey,
		now:      opts.now,
	}, nil
}

// Check requires NEWS_API_KEY.
func (n *News) Check() error {
	if n.apiKey == "" {
		return fmt.Errorf("%w: set NEWS_API_KEY to enable the news source", ErrMissingCredential)
	}
	return nil
}

type newsResponse struct {
	TotalResults int64 `json:"totalResults"`
	Articles     []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// FetchBucket searches everything within the bucket. Buckets that ended
// before the free-tier window are not requested.
func (n *News) FetchBucket(ctx context.Context, term string, b schema.TimeBucket) (schema.Metrics, error) {
	if b.End.Before(n.now().Add(-newsWindow)) {
		return nil, fmt.Errorf("%w: news only covers the last 30 days", ErrOutsideWindow)
	}

	params := url.Values{}
	params.Set("q", term)
	params.Set("from", schema.FormatDate(b.Start))
	params.Set("to", schema.FormatDate(b.End))
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", "100")
	params.Set("language", "en")

	var resp newsResponse
	header := http.Header{"X-Api-Key": []string{n.apiKey}}
	if err := n.client.GetJSON(ctx, n.endpoint+"?"+params.Encode(), header, &resp); err != nil {
		return nil, err
	}

	sources := make(map[string]struct{})
	for _, a := range resp.Articles {
		name := a.Source.Name
		if name == "" {
			name = "Unknown"
		}
		sources[name] = struct{}{}
	}
	return schema.Metrics{
		"article_count": resp.TotalResults,
		"source_count":  int64(len(sources)),
	}, nil
}
