// Package site builds the browsable index of generated artifacts and serves it over HTTP.
package site

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

// IndexFile is the page written by WriteIndex.
const IndexFile = "index.html"

// SourceFiles lists the artifacts found in one outputs/<topic>/<source>/ folder.
// Paths are slash separated and relative to the outputs dir.
type SourceFiles struct {
	Name string `json:"name"`
	HTML string `json:"html,omitempty"`
	CSV  string `json:"csv,omitempty"`
	PNG  string `json:"png,omitempty"`
}

// Topic is one outputs/<topic>/ folder.
type Topic struct {
	Name    string        `json:"name"`
	Display string        `json:"display"`
	Sources []SourceFiles `json:"sources"`
}

// SourceNames returns the source folder names of the topic.
func (t Topic) SourceNames() []string {
	names := make([]string, 0, len(t.Sources))
	for _, s := range t.Sources {
		names = append(names, s.Name)
	}
	return names
}

// HasCSV reports whether any source of the topic has a CSV file.
func (t Topic) HasCSV() bool {
	return slices.ContainsFunc(t.Sources, func(s SourceFiles) bool { return s.CSV != "" })
}

// Scan walks outputDir and returns every topic with its source folders sorted by name.
// A missing outputDir yields no topics.
func Scan(outputDir string) ([]Topic, error) {
	topicDirs, err := os.ReadDir(outputDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", outputDir, err)
	}

	var topics []Topic
	for _, td := range topicDirs {
		if !td.IsDir() {
			continue
		}
		sourceDirs, err := os.ReadDir(filepath.Join(outputDir, td.Name()))
		if err != nil {
			return nil, fmt.Errorf("scan topic %s: %w", td.Name(), err)
		}

		topic := Topic{Name: td.Name(), Display: FormatTopicName(td.Name())}
		for _, sd := range sourceDirs {
			if !sd.IsDir() {
				continue
			}
			files, err := scanSource(outputDir, td.Name(), sd.Name())
			if err != nil {
				return nil, err
			}
			topic.Sources = append(topic.Sources, files)
		}
		topics = append(topics, topic)
	}
	return topics, nil
}

// scanSource keeps the first file of each kind in name order.
func scanSource(outputDir, topic, src string) (SourceFiles, error) {
	entries, err := os.ReadDir(filepath.Join(outputDir, topic, src))
	if err != nil {
		return SourceFiles{}, fmt.Errorf("scan source %s/%s: %w", topic, src, err)
	}
	files := SourceFiles{Name: src}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		rel := path.Join(topic, src, e.Name())
		var slot *string
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".html":
			slot = &files.HTML
		case ".csv":
			slot = &files.CSV
		case ".png":
			slot = &files.PNG
		default:
			continue
		}
		if *slot == "" {
			*slot = rel
		}
	}
	return files, nil
}

// FormatTopicName turns a topic slug into a display title: "machine_learning" -> "Machine Learning".
func FormatTopicName(topic string) string {
	words := strings.Fields(strings.ReplaceAll(topic, "_", " "))
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// WriteIndex scans outputDir and writes indexPath with links relative to the page.
func WriteIndex(outputDir, indexPath string) ([]Topic, error) {
	topics, err := Scan(outputDir)
	if err != nil {
		return nil, err
	}

	prefix, err := filepath.Rel(filepath.Dir(indexPath), outputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve link prefix: %w", err)
	}

	if dir := filepath.Dir(indexPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(indexPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if err := Render(f, topics, filepath.ToSlash(prefix)); err != nil {
		return nil, err
	}
	return topics, f.Close()
}

// Render writes the index page. Artifact links are joined onto hrefPrefix.
func Render(w io.Writer, topics []Topic, hrefPrefix string) error {
	return indexTemplate.Execute(w, pageData{Topics: topics, Prefix: hrefPrefix})
}
