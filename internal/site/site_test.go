package site

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, parts ...string) {
	t.Helper()
	p := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
}

// seedOutputs lays out two topics: one with a chart, one with only a CSV.
func seedOutputs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "machine_learning", "github", "machine_learning_github_data.csv")
	writeFile(t, dir, "machine_learning", "github", "machine_learning_github.html")
	writeFile(t, dir, "machine_learning", "github", "machine_learning_github.png")
	writeFile(t, dir, "machine_learning", "arxiv", "machine_learning_arxiv_data.csv")
	writeFile(t, dir, "machine_learning", "manifest.yaml")
	writeFile(t, dir, "rust", "trends", "trends_annual_rust.csv")
	writeFile(t, dir, "stray.txt")
	return dir
}

func TestScan(t *testing.T) {
	dir := seedOutputs(t)

	topics, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, topics, 2)

	ml := topics[0]
	assert.Equal(t, "machine_learning", ml.Name)
	assert.Equal(t, "Machine Learning", ml.Display)
	assert.Equal(t, []string{"arxiv", "github"}, ml.SourceNames())
	assert.True(t, ml.HasCSV())

	gh := ml.Sources[1]
	assert.Equal(t, "machine_learning/github/machine_learning_github.html", gh.HTML)
	assert.Equal(t, "machine_learning/github/machine_learning_github_data.csv", gh.CSV)
	assert.Equal(t, "machine_learning/github/machine_learning_github.png", gh.PNG)

	arxiv := ml.Sources[0]
	assert.Empty(t, arxiv.HTML)
	assert.NotEmpty(t, arxiv.CSV)

	assert.Equal(t, "rust", topics[1].Name)
}

func TestScanMissingDir(t *testing.T) {
	topics, err := Scan(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, topics)
}

func TestFormatTopicName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"rust", "Rust"},
		{"machine_learning", "Machine Learning"},
		{"FHIR_r4", "Fhir R4"},
		{"__x__", "X"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTopicName(tt.in))
		})
	}
}

func TestWriteIndex(t *testing.T) {
	root := t.TempDir()
	outputs := filepath.Join(root, "outputs")
	writeFile(t, outputs, "rust", "github", "rust_github.html")
	writeFile(t, outputs, "rust", "github", "rust_github_data.csv")
	writeFile(t, outputs, "rust", "arxiv", "rust_arxiv_data.csv")

	indexPath := filepath.Join(root, IndexFile)
	topics, err := WriteIndex(outputs, indexPath)
	require.NoError(t, err)
	require.Len(t, topics, 1)

	page, err := os.ReadFile(indexPath)
	require.NoError(t, err)
	html := string(page)
	assert.Contains(t, html, `href="outputs/rust/github/rust_github.html"`)
	assert.Contains(t, html, "Github Chart")
	assert.Contains(t, html, "Arxiv (CSV only)")
	assert.Contains(t, html, `href="outputs/rust/arxiv/rust_arxiv_data.csv"`)
	assert.Contains(t, html, "Data from arxiv, github sources")
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil, ""))
	assert.Contains(t, buf.String(), "No outputs yet")
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := seedOutputs(t)
	router := NewRouter(dir)

	tests := []struct {
		name     string
		path     string
		wantCode int
		contains string
	}{
		{"index", "/", http.StatusOK, `href="/files/machine_learning/github/machine_learning_github.html"`},
		{"file", "/files/machine_learning/github/machine_learning_github.png", http.StatusOK, "x"},
		{"missing file", "/files/nope.csv", http.StatusNotFound, ""},
		{"health", "/healthz", http.StatusOK, `"status":"ok"`},
		{"metrics", "/metrics", http.StatusOK, "# HELP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}

	t.Run("topics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/topics", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Total int     `json:"total"`
			Items []Topic `json:"items"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 2, body.Total)
		assert.Equal(t, "Machine Learning", body.Items[0].Display)
	})
}
