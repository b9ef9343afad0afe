package outwriter

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/huangsam/hypeplot/schema"
)

// WriteManifest writes the manifest of a run as YAML.
func WriteManifest(path string, m *schema.ResultManifest) error {
	return writeAtomic(path, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("failed to encode manifest: %w", err)
		}
		return enc.Close()
	})
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*schema.ResultManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m schema.ResultManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &m, nil
}
