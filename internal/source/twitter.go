package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/huangsam/hypeplot/schema"
)

// TwitterName is the registry key of the Twitter source.
const TwitterName = "twitter"

// Twitter sums daily tweet counts from the full-archive counts endpoint.
type Twitter struct {
	base
	endpoint string
	token    string
}

// NewTwitter builds the Twitter source. The bearer token is attached by an oauth2 transport.
func NewTwitter(opts Options) (*Twitter, error) {
	token := opts.Credentials.TwitterBearerToken
	var transport http.RoundTripper
	if token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   http.DefaultTransport,
		}
	}

	b, err := newBase(TwitterName, []schema.Column{intCol("tweet_count")}, time.Second, 10*time.Second, transport)
	if err != nil {
		return nil, err
	}
	return &Twitter{
		base:     b,
		endpoint: opts.endpoint(TwitterName, "https://api.twitter.com/2/tweets/counts/all"),
		token:    token,
	}, nil
}

// Check requires TWITTER_BEARER_TOKEN.
func (tw *Twitter) Check() error {
	if tw.token == "" {
		return fmt.Errorf("%w: set TWITTER_BEARER_TOKEN to enable the twitter source", ErrMissingCredential)
	}
	return nil
}

type twitterCounts struct {
	Data []struct {
		TweetCount int64 `json:"tweet_count"`
	} `json:"data"`
}

// FetchBucket requests day granularity counts and sums them.
func (tw *Twitter) FetchBucket(ctx context.Context, term string, b schema.TimeBucket) (schema.Metrics, error) {
	params := url.Values{}
	params.Set("query", term)
	params.Set("start_time", dayStart(b.Start))
	params.Set("end_time", dayEnd(b.End))
	params.Set("granularity", "day")

	var resp twitterCounts
	if err := tw.client.GetJSON(ctx, tw.endpoint+"?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	var total int64
	for _, d := range resp.Data {
		total += d.TweetCount
	}
	return schema.Metrics{"tweet_count": total}, nil
}
