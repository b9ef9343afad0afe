package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/huangsam/hypeplot/core"
	"github.com/huangsam/hypeplot/internal/bucket"
	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/outwriter"
)

// listingFlags reads the --output and --output-file flags of a listing command.
func listingFlags(cmd *cobra.Command) (string, string, error) {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return "", "", err
	}
	outputFile, err := cmd.Flags().GetString("output-file")
	if err != nil {
		return "", "", err
	}
	return strings.ToLower(format), outputFile, nil
}

// sourcesCmd lists the source catalogue.
var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the data sources, their credentials and pacing",
	Long: `List every source HypePlot can query.

Shows the environment variable a source needs (sources without one are
skipped with zero-filled output), the pause after each request and the
metric columns written to CSV.

Examples:
  hypeplot sources
  hypeplot sources --output json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, outputFile, err := listingFlags(cmd)
		if err != nil {
			return err
		}
		infos, err := core.Sources.Describe()
		if err != nil {
			return err
		}
		return outwriter.WriteSources(infos, format, outputFile)
	},
}

// bucketsCmd previews the buckets of a year range.
var bucketsCmd = &cobra.Command{
	Use:   "buckets <start> <end>",
	Short: "Preview the time buckets for a year range",
	Long: `Print the buckets a fetch would use, without calling any API.

Examples:
  hypeplot buckets 2024 2025 --bucket quarterly
  hypeplot buckets 2025 2025 --bucket days:10 --output csv`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, outputFile, err := listingFlags(cmd)
		if err != nil {
			return err
		}
		start, err := contract.ParseYear(args[0])
		if err != nil {
			return fmt.Errorf("invalid start: %w", err)
		}
		end, err := contract.ParseYear(args[1])
		if err != nil {
			return fmt.Errorf("invalid end: %w", err)
		}
		w, err := bucket.Parse(viper.GetString("bucket"))
		if err != nil {
			return err
		}
		buckets, err := bucket.Collect(start, end, w)
		if err != nil {
			return err
		}
		return outwriter.WriteBuckets(buckets, format, outputFile)
	},
}
