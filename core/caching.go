package core

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/metrics"
	"github.com/huangsam/hypeplot/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheTTL is how long a fetched bucket stays fresh.
const cacheTTL = 7 * 24 * time.Hour

// generateCacheKey creates a unique key for one bucket of one source
func generateCacheKey(source, term string, b schema.TimeBucket) string {
	key := fmt.Sprintf("%s|%s|%s|%s", source, term, schema.FormatDate(b.Start), schema.FormatDate(b.End))
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}

// checkCacheHit attempts to retrieve and validate a cached bucket
func checkCacheHit(store contract.CacheStore, key string, cols []schema.Column, now time.Time) (schema.Metrics, bool) {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil, false // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || now.Sub(time.Unix(ts, 0)) > cacheTTL {
		return nil, false
	}
	m, err := decodeMetrics(data, cols)
	if err != nil {
		return nil, false
	}
	return m, true
}

// storeBucket stores a successful fetch in the cache
func storeBucket(store contract.CacheStore, key string, m schema.Metrics, now time.Time) {
	if data, err := json.Marshal(m); err == nil {
		_ = store.Set(key, data, currentCacheVersion, now.Unix())
	}
}

// decodeMetrics restores the value kinds that JSON flattens to float64.
func decodeMetrics(data []byte, cols []schema.Column) (schema.Metrics, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	kinds := make(map[string]schema.ColumnKind, len(cols))
	for _, c := range cols {
		kinds[c.Name] = c.Kind
	}

	m := make(schema.Metrics, len(raw))
	for k, v := range raw {
		num, ok := v.(json.Number)
		if !ok {
			m[k] = v
			continue
		}
		if kinds[k] == schema.IntColumn {
			i, err := num.Int64()
			if err != nil {
				return nil, fmt.Errorf("metric %s: %w", k, err)
			}
			m[k] = i
			continue
		}
		f, err := num.Float64()
		if err != nil {
			return nil, fmt.Errorf("metric %s: %w", k, err)
		}
		m[k] = f
	}
	return m, nil
}

// lookup checks the cache for a bucket and returns the key to store a fresh fetch under.
func (f *RangeFetcher) lookup(src contract.Source, term string, b schema.TimeBucket) (schema.Metrics, string, bool) {
	if f.Cache == nil {
		return nil, "", false
	}
	key := generateCacheKey(src.Name(), term, b)
	if f.Refresh {
		return nil, key, false
	}
	m, ok := checkCacheHit(f.Cache, key, src.Columns(), f.now())
	metrics.RecordCacheLookup(ok)
	return m, key, ok
}
