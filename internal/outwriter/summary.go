package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/schema"
)

// PrintSummary lists every artifact of a run by its manifest key.
func PrintSummary(w io.Writer, m *schema.ResultManifest, outDir string) error {
	if _, err := fmt.Fprintln(w, "=== Summary ==="); err != nil {
		return err
	}
	for _, e := range m.Entries {
		if _, err := fmt.Fprintf(w, "  • %s: %s\n", e.Key(), e.Path); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n🔥 HypePlot complete! Check %s/ for results.\n", outDir)
	return err
}

// PrintStatusTable renders how each source finished.
func PrintStatusTable(w io.Writer, m *schema.ResultManifest, useColors bool, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Source", "Status", "Rows", "Warnings", "Error"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	maxErr := GetMaxTablePathWidth(w)
	var data [][]string
	for _, o := range m.Outcomes {
		label := string(o.Status)
		if useColors {
			label = contract.GetStatusLabel(o.Status)
		}
		data = append(data, []string{
			o.Source,
			label,
			strconv.Itoa(o.Rows),
			strconv.Itoa(o.Warnings),
			contract.TruncateText(o.Error, maxErr),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Fetched %d sources in %v (run %s)\n", len(m.Outcomes), duration.Round(time.Millisecond), m.RunID)
	return err
}
