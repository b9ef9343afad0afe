package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-github/v71/github"
	"golang.org/x/oauth2"

	"github.com/huangsam/hypeplot/internal/httpclient"
	"github.com/huangsam/hypeplot/schema"
)

// GitHubName is the registry key of the GitHub source.
const GitHubName = "github"

// GitHub counts repositories created inside a bucket and sums the stars,
// forks and watchers of the top 100 by stars.
type GitHub struct {
	base
	gh *github.Client
}

// NewGitHub builds the GitHub source. GITHUB_TOKEN is optional and only raises the quota.
func NewGitHub(opts Options) (*GitHub, error) {
	var transport http.RoundTripper
	if token := opts.Credentials.GitHubToken; token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   http.DefaultTransport,
		}
	}

	b, err := newBase(GitHubName, []schema.Column{
		intCol("repo_count"),
		intCol("total_stars"),
		intCol("total_forks"),
		intCol("total_watchers"),
	}, 6*time.Second, 10*time.Second, transport)
	if err != nil {
		return nil, err
	}

	gh := github.NewClient(b.client.Client)
	gh.UserAgent = httpclient.DefaultUserAgent
	if endpoint := opts.endpoint(GitHubName, ""); endpoint != "" {
		u, err := url.Parse(endpoint + "/")
		if err != nil {
			return nil, fmt.Errorf("github endpoint: %w", err)
		}
		gh.BaseURL = u
	}
	return &GitHub{base: b, gh: gh}, nil
}

// FetchBucket runs one repository search restricted to the bucket's creation dates.
func (g *GitHub) FetchBucket(ctx context.Context, term string, b schema.TimeBucket) (schema.Metrics, error) {
	query := fmt.Sprintf("%s created:%s..%s", term, schema.FormatDate(b.Start), schema.FormatDate(b.End))
	result, _, err := g.gh.Search.Repositories(ctx, query, &github.SearchOptions{
		Sort:        "stars",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: 100, Page: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("search repositories: %w", err)
	}

	var stars, forks, watchers int64
	for _, repo := range result.Repositories {
		stars += int64(repo.GetStargazersCount())
		forks += int64(repo.GetForksCount())
		watchers += int64(repo.GetWatchersCount())
	}
	return schema.Metrics{
		"repo_count":     int64(result.GetTotal()),
		"total_stars":    stars,
		"total_forks":    forks,
		"total_watchers": watchers,
	}, nil
}
