package source

import (
	"context"
	"time"

	"github.com/huangsam/hypeplot/schema"
)

// PatentsName is the registry key of the PatentsView source.
const PatentsName = "patents"

// Patents counts USPTO applications whose title or abstract mention the term.
type Patents struct {
	base
	endpoint string
}

// NewPatents builds the PatentsView source.
func NewPatents(opts Options) (*Patents, error) {
	b, err := newBase(PatentsName, []schema.Column{
		intCol("application_count"),
		intCol("grant_count"),
	}, 2*time.Second, 15*time.Second, nil)
	if err != nil {
		return nil, err
	}
	return &Patents{base: b, endpoint: opts.endpoint(PatentsName, "https://api.patentsview.org/patents/query")}, nil
}

type patentsResponse struct {
	Total   int64 `json:"total_patent_count"`
	Patents []struct {
		PatentDate string `json:"patent_date"`
	} `json:"patents"`
}

// patentsQuery builds the PatentsView query document for one bucket.
func patentsQuery(term string, b schema.TimeBucket) map[string]any {
	return map[string]any{
		"q": map[string]any{
			"_and": []any{
				map[string]any{"_or": []any{
					map[string]any{"_text_any": map[string]string{"patent_title": term}},
					map[string]any{"_text_any": map[string]string{"patent_abstract": term}},
				}},
				map[string]any{"_gte": map[string]string{"app_date": schema.FormatDate(b.Start)}},
				map[string]any{"_lte": map[string]string{"app_date": schema.FormatDate(b.End)}},
			},
		},
		"f": []string{"patent_number", "patent_title", "app_date", "patent_date"},
		"o": map[string]int{"per_page": 25},
	}
}

// FetchBucket posts the query. grant_count only covers the first page of results.
func (p *Patents) FetchBucket(ctx context.Context, term string, b schema.TimeBucket) (schema.Metrics, error) {
	var resp patentsResponse
	if err := p.client.PostJSON(ctx, p.endpoint, patentsQuery(term, b), &resp); err != nil {
		return nil, err
	}

	var granted int64
	for _, pt := range resp.Patents {
		if pt.PatentDate != "" {
			granted++
		}
	}
	return schema.Metrics{
		"application_count": resp.Total,
		"grant_count":       granted,
	}, nil
}
