package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/site"
)

// outputDir resolves --output-dir for commands that skip full validation.
func outputDir() string {
	if dir := viper.GetString("output-dir"); dir != "" {
		return dir
	}
	return contract.DefaultOutputDir
}

// indexCmd writes a static index page over the outputs dir.
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Generate an index.html linking every chart and CSV",
	Long: `Scan outputs/<topic>/<source>/ and write an index page with one card per
topic, linking HTML charts and CSV downloads.

Examples:
  hypeplot index
  hypeplot index --output-dir outputs --index-file public/index.html`,
	Args: cobra.NoArgs,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return loadConfigFile()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir := outputDir()
		indexFile := viper.GetString("index-file")
		topics, err := site.WriteIndex(dir, indexFile)
		if err != nil {
			return fmt.Errorf("failed to write index: %w", err)
		}
		cmd.Printf("Found %d topics:\n", len(topics))
		for _, t := range topics {
			cmd.Printf("  - %s: %v\n", t.Name, t.SourceNames())
		}
		cmd.Printf("✅ Generated %s\n", indexFile)
		return nil
	},
}

// serveCmd runs the dashboard over the outputs dir.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the outputs dir with an index, a JSON API and metrics",
	Long: `Start an HTTP server over the outputs dir.

Routes:
  /             index page of every topic
  /files/*      raw artifacts
  /api/topics   JSON listing of topics and artifacts
  /healthz      health probe
  /metrics      Prometheus metrics

Examples:
  hypeplot serve --addr 127.0.0.1:8080`,
	Args: cobra.NoArgs,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return loadConfigFile()
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return site.Serve(rootCtx, viper.GetString("addr"), outputDir())
	},
}
