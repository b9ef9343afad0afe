package contract

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/huangsam/hypeplot/schema"
)

func TestParseBoolString(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"yes", true, false},
		{"TRUE", true, false},
		{"1", true, false},
		{"no", false, false},
		{"False", false, false},
		{"0", false, false},
		{"maybe", false, true},
		{"", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBoolString(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "abcdefg...", TruncateText("abcdefghijklmnop", 10))
	assert.Equal(t, "abc", TruncateText("abc", 2))
}

func TestGetStatusLabel(t *testing.T) {
	for _, s := range []schema.SourceStatus{schema.StatusOK, schema.StatusDegraded, schema.StatusFailed} {
		assert.Contains(t, GetStatusLabel(s), string(s))
	}
}

func TestDBFilePaths(t *testing.T) {
	assert.True(t, strings.HasSuffix(GetCacheDBFilePath(), ".hypeplot_cache.db"))
	assert.True(t, strings.HasSuffix(GetRunsDBFilePath(), ".hypeplot_runs.db"))
	assert.NotEqual(t, GetCacheDBFilePath(), GetRunsDBFilePath())
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	assert.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := t.TempDir() + "/out.txt"
	f, err = SelectOutputFile(path)
	assert.NoError(t, err)
	assert.NoError(t, f.Close())
	assert.FileExists(t, path)
}
