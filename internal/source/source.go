// Package source implements one provider strategy per external API behind contract.Source.
package source

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/httpclient"
	"github.com/huangsam/hypeplot/schema"
)

var (
	// ErrMissingCredential gates a source whose API key is not configured.
	ErrMissingCredential = errors.New("missing credential")

	// ErrUnsupportedRegistry gates package registries without a download API.
	ErrUnsupportedRegistry = errors.New("unsupported registry")

	// ErrOutsideWindow marks a bucket the provider cannot serve, so no request is made.
	ErrOutsideWindow = errors.New("bucket outside the provider window")

	// ErrBlocked is returned when a scraped page answers with a captcha.
	ErrBlocked = errors.New("blocked by captcha")
)

// Options carries everything an adapter needs at construction time.
type Options struct {
	Credentials contract.Credentials
	Profile     httpclient.Profile
	Registry    string

	// Endpoints overrides the base URL of a source by name.
	Endpoints map[string]string

	// Now is the clock used for provider windows. Defaults to time.Now.
	Now func() time.Time
}

// OptionsFromConfig builds adapter options from a validated Config.
func OptionsFromConfig(cfg *contract.Config) Options {
	return Options{
		Credentials: cfg.Credentials,
		Profile:     httpclient.Profile(cfg.TransportProfile),
		Registry:    cfg.Registry,
	}
}

func (o Options) endpoint(name, fallback string) string {
	if u, ok := o.Endpoints[name]; ok && u != "" {
		return strings.TrimRight(u, "/")
	}
	return fallback
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// base holds what every adapter shares.
type base struct {
	name    string
	columns []schema.Column
	delay   time.Duration
	client  *httpclient.Client
}

func newBase(name string, columns []schema.Column, delay, timeout time.Duration, transport http.RoundTripper) (base, error) {
	client, err := httpclient.New(httpclient.Config{
		Name:      name,
		Timeout:   timeout,
		Transport: transport,
	})
	if err != nil {
		return base{}, err
	}
	return base{name: name, columns: columns, delay: delay, client: client}, nil
}

func (b *base) Name() string             { return b.name }
func (b *base) Columns() []schema.Column { return b.columns }
func (b *base) Delay() time.Duration     { return b.delay }
func (b *base) Check() error             { return nil }

func (b *base) Zero(string) schema.Metrics { return schema.ZeroMetrics(b.columns) }

func intCol(name string) schema.Column   { return schema.Column{Name: name, Kind: schema.IntColumn} }
func floatCol(name string) schema.Column { return schema.Column{Name: name, Kind: schema.FloatColumn} }
func textCol(name string) schema.Column  { return schema.Column{Name: name, Kind: schema.StringColumn} }

// dayStart and dayEnd render the bounds of a bucket as RFC 3339 instants.
func dayStart(t time.Time) string { return t.Format("2006-01-02") + "T00:00:00Z" }
func dayEnd(t time.Time) string   { return t.Format("2006-01-02") + "T23:59:59Z" }

// endExclusive is the first instant after the bucket.
func endExclusive(b schema.TimeBucket) time.Time { return b.End.AddDate(0, 0, 1) }
