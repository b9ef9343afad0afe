package source

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/schema"
)

// TrendsName is the registry key of Google Trends. It produces an annual
// series instead of bucket rows and is run by its own pipeline.
const TrendsName = "trends"

// ErrNotBucketed is returned when a non-bucketed source is built as an adapter.
var ErrNotBucketed = errors.New("source does not produce bucket rows")

// Factory builds a source from options.
type Factory func(Options) (contract.Source, error)

// Info describes a registered source for listings.
type Info struct {
	Name       string
	Credential string
	Delay      time.Duration
	Columns    []schema.Column
}

// Registry maps source names to factories.
type Registry struct {
	factories   map[string]Factory
	credentials map[string]string
}

var _ contract.SourceCatalog = &Registry{} // Compile-time check

// NewRegistry returns a registry holding every built-in source.
func NewRegistry() *Registry {
	r := &Registry{
		factories:   make(map[string]Factory),
		credentials: make(map[string]string),
	}
	r.Register(ScholarName, func(o Options) (contract.Source, error) { return NewScholar(o) })
	r.Register(ArxivName, func(o Options) (contract.Source, error) { return NewArxiv(o) })
	r.Register(GitHubName, func(o Options) (contract.Source, error) { return NewGitHub(o) })
	r.Register(GrantsName, func(o Options) (contract.Source, error) { return NewGrants(o) })
	r.Register(NewsName, func(o Options) (contract.Source, error) { return NewNews(o) })
	r.Register(PackagesName, func(o Options) (contract.Source, error) { return NewPackages(o) })
	r.Register(PatentsName, func(o Options) (contract.Source, error) { return NewPatents(o) })
	r.Register(RedditName, func(o Options) (contract.Source, error) { return NewReddit(o) })
	r.Register(TwitterName, func(o Options) (contract.Source, error) { return NewTwitter(o) })
	r.Register(YouTubeName, func(o Options) (contract.Source, error) { return NewYouTube(o) })

	r.credentials[GitHubName] = "GITHUB_TOKEN (optional)"
	r.credentials[NewsName] = "NEWS_API_KEY"
	r.credentials[TwitterName] = "TWITTER_BEARER_TOKEN"
	r.credentials[YouTubeName] = "YOUTUBE_API_KEY"
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Names lists scholar and trends first, then every other source alphabetically.
func (r *Registry) Names() []string {
	var rest []string
	for name := range r.factories {
		if name != ScholarName {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)

	names := make([]string, 0, len(rest)+2)
	if _, ok := r.factories[ScholarName]; ok {
		names = append(names, ScholarName)
	}
	names = append(names, TrendsName)
	return append(names, rest...)
}

// New builds the named source.
func (r *Registry) New(name string, opts Options) (contract.Source, error) {
	if name == TrendsName {
		return nil, fmt.Errorf("%s: %w", name, ErrNotBucketed)
	}
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown source %q", name)
	}
	return f(opts)
}

// Describe returns listing info for every bucketed source in Names order.
func (r *Registry) Describe() ([]Info, error) {
	var infos []Info
	for _, name := range r.Names() {
		if name == TrendsName {
			infos = append(infos, Info{Name: name, Columns: []schema.Column{floatCol("interest")}})
			continue
		}
		src, err := r.New(name, Options{})
		if err != nil {
			return nil, err
		}
		infos = append(infos, Info{
			Name:       name,
			Credential: r.credentials[name],
			Delay:      src.Delay(),
			Columns:    src.Columns(),
		})
	}
	return infos, nil
}
