package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/huangsam/hypeplot/schema"
)

// PackagesName is the registry key of the package registry source.
const PackagesName = "packages"

// Packages sums daily PyPI downloads per bucket. npm and maven are accepted
// as registries but have no download API, so they are gated off.
type Packages struct {
	base
	endpoint string
	registry string

	mu     sync.Mutex
	series map[string][]pypiDay
}

// NewPackages builds the package registry source.
func NewPackages(opts Options) (*Packages, error) {
	b, err := newBase(PackagesName, []schema.Column{
		textCol("registry"),
		textCol("package"),
		intCol("downloads"),
	}, 500*time.Millisecond, 10*time.Second, nil)
	if err != nil {
		return nil, err
	}
	registry := opts.Registry
	if registry == "" {
		registry = "pypi"
	}
	return &Packages{
		base:     b,
		endpoint: opts.endpoint(PackagesName, "https://pypistats.org/api/packages"),
		registry: registry,
		series:   make(map[string][]pypiDay),
	}, nil
}

// Check rejects registries without download statistics.
func (p *Packages) Check() error {
	if p.registry != "pypi" {
		return fmt.Errorf("%w: %s has no download statistics", ErrUnsupportedRegistry, p.registry)
	}
	return nil
}

// Zero keeps the registry and package identity on degraded rows.
func (p *Packages) Zero(term string) schema.Metrics {
	return schema.Metrics{"registry": p.registry, "package": term, "downloads": int64(0)}
}

type pypiDay struct {
	Date      string `json:"date"`
	Downloads int64  `json:"downloads"`
}

type pypiOverall struct {
	Data []pypiDay `json:"data"`
}

// FetchBucket sums the daily downloads that fall inside the bucket. The
// overall series is requested once per package and reused for later buckets.
func (p *Packages) FetchBucket(ctx context.Context, term string, b schema.TimeBucket) (schema.Metrics, error) {
	days, err := p.overall(ctx, packageName(term))
	if err != nil {
		return nil, err
	}

	var total int64
	for _, d := range days {
		day, err := time.Parse(schema.DateLayout, d.Date)
		if err != nil {
			continue
		}
		if !day.Before(b.Start) && !day.After(b.End) {
			total += d.Downloads
		}
	}
	return schema.Metrics{"registry": p.registry, "package": term, "downloads": total}, nil
}

func (p *Packages) overall(ctx context.Context, name string) ([]pypiDay, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if days, ok := p.series[name]; ok {
		return days, nil
	}

	// Mirror traffic is reported as a separate category and would double the totals
	rawURL := fmt.Sprintf("%s/%s/overall?mirrors=false", p.endpoint, url.PathEscape(name))
	var resp pypiOverall
	if err := p.client.GetJSON(ctx, rawURL, nil, &resp); err != nil {
		return nil, err
	}
	p.series[name] = resp.Data
	return resp.Data, nil
}

// packageName normalizes a term the way PyPI normalizes project names.
func packageName(term string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(term), " ", "-"))
}
