package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/huangsam/hypeplot/schema"
)

// ArxivName is the registry key of the arXiv source.
const ArxivName = "arxiv"

const arxivMaxResults = 500

// Arxiv counts preprints published inside a bucket. The API has no date
// filter, so the newest entries are fetched and filtered locally; popular
// terms are undercounted for older buckets.
type Arxiv struct {
	base
	endpoint string
}

// NewArxiv builds the arXiv source.
func NewArxiv(opts Options) (*Arxiv, error) {
	b, err := newBase(ArxivName, []schema.Column{intCol("paper_count")}, 3*time.Second, 15*time.Second, nil)
	if err != nil {
		return nil, err
	}
	return &Arxiv{base: b, endpoint: opts.endpoint(ArxivName, "https://export.arxiv.org/api/query")}, nil
}

type arxivFeed struct {
	Entries []struct {
		Published string `xml:"published"`
	} `xml:"entry"`
}

// FetchBucket queries the Atom feed and counts entries by published date.
func (a *Arxiv) FetchBucket(ctx context.Context, term string, b schema.TimeBucket) (schema.Metrics, error) {
	params := url.Values{}
	params.Set("search_query", "all:"+term)
	params.Set("start", "0")
	params.Set("max_results", fmt.Sprint(arxivMaxResults))
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	body, err := a.client.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("decode atom feed: %w", err)
	}

	until := endExclusive(b)
	var count int64
	for _, entry := range feed.Entries {
		published, err := time.Parse(time.RFC3339, entry.Published)
		if err != nil {
			continue
		}
		if !published.Before(b.Start) && published.Before(until) {
			count++
		}
	}
	return schema.Metrics{"paper_count": count}, nil
}
