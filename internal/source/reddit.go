package source

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/huangsam/hypeplot/schema"
)

// RedditName is the registry key of the Reddit source.
const RedditName = "reddit"

// Reddit samples up to 100 submissions per bucket from the Pushshift archive.
type Reddit struct {
	base
	endpoint string
}

// NewReddit builds the Reddit source.
func NewReddit(opts Options) (*Reddit, error) {
	b, err := newBase(RedditName, []schema.Column{
		intCol("post_count"),
		intCol("total_score"),
		intCol("avg_score"),
	}, time.Second, 15*time.Second, nil)
	if err != nil {
		return nil, err
	}
	return &Reddit{base: b, endpoint: opts.endpoint(RedditName, "https://api.pushshift.io/reddit/search/submission")}, nil
}

type redditResponse struct {
	Data []struct {
		Score int64 `json:"score"`
	} `json:"data"`
}

// FetchBucket searches submissions between the bucket bounds as unix seconds.
func (r *Reddit) FetchBucket(ctx context.Context, term string, b schema.TimeBucket) (schema.Metrics, error) {
	params := url.Values{}
	params.Set("q", term)
	params.Set("after", strconv.FormatInt(b.Start.Unix(), 10))
	params.Set("before", strconv.FormatInt(endExclusive(b).Unix(), 10))
	params.Set("size", "100")

	var resp redditResponse
	if err := r.client.GetJSON(ctx, r.endpoint+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	var total int64
	for _, p := range resp.Data {
		total += p.Score
	}
	count := int64(len(resp.Data))
	var avg int64
	if count > 0 {
		avg = total / count
	}
	return schema.Metrics{
		"post_count":  count,
		"total_score": total,
		"avg_score":   avg,
	}, nil
}
