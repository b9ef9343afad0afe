package schema

import "time"

// ManifestEntry points at one artifact written for a source.
type ManifestEntry struct {
	Source string       `json:"source" yaml:"source"`
	Kind   ArtifactKind `json:"kind" yaml:"kind"`
	Path   string       `json:"path" yaml:"path"`
}

// Key returns the lookup key used in summaries, e.g. "github_csv".
func (e ManifestEntry) Key() string {
	return e.Source + "_" + string(e.Kind)
}

// SourceOutcome captures how one source finished.
type SourceOutcome struct {
	Source   string       `json:"source" yaml:"source"`
	Status   SourceStatus `json:"status" yaml:"status"`
	Rows     int          `json:"rows" yaml:"rows"`
	Warnings int          `json:"warnings" yaml:"warnings"`
	Error    string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// ResultManifest maps artifacts of a run to their paths, in the order they were written.
type ResultManifest struct {
	RunID     string          `json:"run_id" yaml:"run_id"`
	Term      string          `json:"term" yaml:"term"`
	Slug      string          `json:"slug" yaml:"slug"`
	StartYear int             `json:"start_year" yaml:"start_year"`
	EndYear   int             `json:"end_year" yaml:"end_year"`
	Bucket    string          `json:"bucket" yaml:"bucket"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
	Entries   []ManifestEntry `json:"entries" yaml:"entries"`
	Outcomes  []SourceOutcome `json:"outcomes" yaml:"outcomes"`
}

// Add records an artifact. A later entry with the same key replaces the earlier path.
func (m *ResultManifest) Add(source string, kind ArtifactKind, path string) {
	for i, e := range m.Entries {
		if e.Source == source && e.Kind == kind {
			m.Entries[i].Path = path
			return
		}
	}
	m.Entries = append(m.Entries, ManifestEntry{Source: source, Kind: kind, Path: path})
}

// Get returns the path stored under a key such as "trends_html".
func (m *ResultManifest) Get(key string) (string, bool) {
	for _, e := range m.Entries {
		if e.Key() == key {
			return e.Path, true
		}
	}
	return "", false
}

// FirstOfKind returns the first artifact path of the given kind.
func (m *ResultManifest) FirstOfKind(kind ArtifactKind) (string, bool) {
	for _, e := range m.Entries {
		if e.Kind == kind {
			return e.Path, true
		}
	}
	return "", false
}

// Record stores the outcome of a source.
func (m *ResultManifest) Record(outcome SourceOutcome) {
	m.Outcomes = append(m.Outcomes, outcome)
}
