package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("unit", "200"))
	RecordRequest("unit", "200", 5*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("unit", "200")))

	unknown := testutil.ToFloat64(RequestsTotal.WithLabelValues("unknown", "error"))
	RecordRequest("", "error", time.Millisecond)
	assert.Equal(t, unknown+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("unknown", "error")))
}

func TestRecordBucketAndCache(t *testing.T) {
	RecordBucket("unit", OutcomeDegraded)
	assert.GreaterOrEqual(t, testutil.ToFloat64(BucketsTotal.WithLabelValues("unit", OutcomeDegraded)), 1.0)

	hits := testutil.ToFloat64(CacheLookups.WithLabelValues("hit"))
	RecordCacheLookup(true)
	RecordCacheLookup(false)
	assert.Equal(t, hits+1, testutil.ToFloat64(CacheLookups.WithLabelValues("hit")))
}

func TestHandlerAndTextfile(t *testing.T) {
	RecordBucket("unit", OutcomeFetched)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hypeplot_buckets_total")

	path := filepath.Join(t.TempDir(), "hypeplot.prom")
	require.NoError(t, WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hypeplot_buckets_total")
}
