package source

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/huangsam/hypeplot/schema"
)

// YouTubeName is the registry key of the YouTube source.
const YouTubeName = "youtube"

const youtubeBatch = 50

// YouTube counts videos published inside a bucket and sums the views of the
// 50 most viewed.
type YouTube struct {
	base
	svc    *youtube.Service
	apiKey string
}

// NewYouTube builds the YouTube Data API source.
func NewYouTube(opts Options) (*YouTube, error) {
	b, err := newBase(YouTubeName, []schema.Column{
		intCol("video_count"),
		intCol("total_views"),
		intCol("avg_views"),
	}, time.Second, 10*time.Second, nil)
	if err != nil {
		return nil, err
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(b.client.Client)}
	if endpoint := opts.endpoint(YouTubeName, ""); endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(endpoint+"/"))
	}
	svc, err := youtube.NewService(context.Background(), clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return &YouTube{base: b, svc: svc, apiKey: opts.Credentials.YouTubeAPIKey}, nil
}

// Check requires YOUTUBE_API_KEY.
func (y *YouTube) Check() error {
	if y.apiKey == "" {
		return fmt.Errorf("%w: set YOUTUBE_API_KEY to enable the youtube source", ErrMissingCredential)
	}
	return nil
}

// FetchBucket runs search.list for the bucket, then videos.list for the view counts.
func (y *YouTube) FetchBucket(ctx context.Context, term string, b schema.TimeBucket) (schema.Metrics, error) {
	// A custom HTTP client disables option.WithAPIKey, so the key travels as a call option
	key := googleapi.QueryParameter("key", y.apiKey)

	search, err := y.svc.Search.List([]string{"snippet"}).
		Q(term).
		Type("video").
		PublishedAfter(dayStart(b.Start)).
		PublishedBefore(dayEnd(b.End)).
		MaxResults(youtubeBatch).
		Order("viewCount").
		Context(ctx).
		Do(key)
	if err != nil {
		return nil, fmt.Errorf("search videos: %w", err)
	}

	var ids []string
	for _, item := range search.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}

	var views int64
	for i := 0; i < len(ids); i += youtubeBatch {
		batch := ids[i:min(i+youtubeBatch, len(ids))]
		videos, err := y.svc.Videos.List([]string{"statistics"}).Id(batch...).Context(ctx).Do(key)
		if err != nil {
			return nil, fmt.Errorf("video statistics: %w", err)
		}
		for _, v := range videos.Items {
			if v.Statistics != nil {
				views += int64(v.Statistics.ViewCount)
			}
		}
	}

	var total int64
	if search.PageInfo != nil {
		total = search.PageInfo.TotalResults
	}
	var avg int64
	if len(ids) > 0 {
		avg = views / int64(len(ids))
	}
	return schema.Metrics{
		"video_count": total,
		"total_views": views,
		"avg_views":   avg,
	}, nil
}
