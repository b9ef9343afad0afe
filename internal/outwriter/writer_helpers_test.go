package outwriter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		expected string
	}{
		{
			name: "simple object",
			data: map[string]any{"name": "test", "value": 42},
			expected: `{
  "name": "test",
  "value": 42
}
`,
		},
		{
			name: "array",
			data: []string{"a", "b"},
			expected: `[
  "a",
  "b"
]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeJSON(&buf, tt.data))
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}

func TestWriteCSVWithHeader(t *testing.T) {
	var buf bytes.Buffer
	err := writeCSVWithHeader(&buf, []string{"a", "b"}, func(w *csv.Writer) error {
		return w.Write([]string{"1", "x,y"})
	})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,\"x,y\"\n", buf.String())

	err = writeCSVWithHeader(&buf, []string{"a"}, func(*csv.Writer) error {
		return errors.New("boom")
	})
	assert.EqualError(t, err, "boom")
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "out.txt")

	t.Run("creates parents and replaces content", func(t *testing.T) {
		require.NoError(t, writeAtomic(path, func(w io.Writer) error {
			_, err := io.WriteString(w, "first")
			return err
		}))
		require.NoError(t, writeAtomic(path, func(w io.Writer) error {
			_, err := io.WriteString(w, "second")
			return err
		}))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "second", string(data))
	})

	t.Run("failed write keeps the previous file and leaves no temp", func(t *testing.T) {
		err := writeAtomic(path, func(w io.Writer) error {
			_, _ = io.WriteString(w, "partial")
			return errors.New("disk full")
		})
		require.Error(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "second", string(data))

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestWriteWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, writeWithFile(path, func(w io.Writer) error {
		return writeJSON(w, []int{1})
	}, "Wrote JSON"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n  1\n]\n", string(data))
}
