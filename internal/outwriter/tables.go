package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/hypeplot/internal/source"
	"github.com/huangsam/hypeplot/schema"
)

// Listing formats accepted by the sources and buckets commands.
const (
	TableListing = "table"
	JSONListing  = "json"
	CSVListing   = "csv"
)

// sourceRecord is the JSON and CSV view of a source.
type sourceRecord struct {
	Name         string   `json:"name"`
	Credential   string   `json:"credential,omitempty"`
	DelaySeconds float64  `json:"delay_seconds"`
	Columns      []string `json:"columns"`
}

func toSourceRecord(info source.Info) sourceRecord {
	names := make([]string, 0, len(info.Columns))
	for _, c := range info.Columns {
		names = append(names, c.Name)
	}
	return sourceRecord{
		Name:         info.Name,
		Credential:   info.Credential,
		DelaySeconds: info.Delay.Seconds(),
		Columns:      names,
	}
}

// WriteSources prints the source catalogue in the requested listing format.
// An empty outputFile writes to stdout.
func WriteSources(infos []source.Info, format, outputFile string) error {
	switch format {
	case JSONListing:
		records := make([]sourceRecord, 0, len(infos))
		for _, info := range infos {
			records = append(records, toSourceRecord(info))
		}
		return writeWithFile(outputFile, func(w io.Writer) error {
			return writeJSON(w, records)
		}, "Wrote JSON")
	case CSVListing:
		return writeWithFile(outputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"source", "credential", "delay_seconds", "columns"}, func(cw *csv.Writer) error {
				for _, info := range infos {
					r := toSourceRecord(info)
					rec := []string{r.Name, r.Credential, strconv.FormatFloat(r.DelaySeconds, 'f', -1, 64), strings.Join(r.Columns, ";")}
					if err := cw.Write(rec); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case TableListing, "":
		return writeWithFile(outputFile, func(w io.Writer) error {
			return PrintSources(w, infos)
		}, "Wrote table")
	default:
		return fmt.Errorf("invalid listing format '%s'. must be table, json, csv", format)
	}
}

// PrintSources renders the source catalogue.
func PrintSources(w io.Writer, infos []source.Info) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Source", "Credential", "Delay", "Columns"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, info := range infos {
		cred := info.Credential
		if cred == "" {
			cred = "-"
		}
		delay := "-"
		if info.Delay > 0 {
			delay = info.Delay.String()
		}
		names := make([]string, 0, len(info.Columns))
		for _, c := range info.Columns {
			names = append(names, c.Name)
		}
		data = append(data, []string{info.Name, cred, delay, strings.Join(names, ", ")})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// WriteBuckets prints the buckets of a range in the requested listing format.
// An empty outputFile writes to stdout.
func WriteBuckets(buckets []schema.TimeBucket, format, outputFile string) error {
	switch format {
	case JSONListing:
		return writeWithFile(outputFile, func(w io.Writer) error {
			return writeJSON(w, buckets)
		}, "Wrote JSON")
	case CSVListing:
		return writeWithFile(outputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"period", "start_date", "end_date", "days"}, func(cw *csv.Writer) error {
				for _, b := range buckets {
					if err := cw.Write(bucketRecord(b)); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case TableListing, "":
		return writeWithFile(outputFile, func(w io.Writer) error {
			return printBucketTable(w, buckets)
		}, "Wrote table")
	default:
		return fmt.Errorf("invalid listing format '%s'. must be table, json, csv", format)
	}
}

func bucketRecord(b schema.TimeBucket) []string {
	return []string{b.Label, schema.FormatDate(b.Start), schema.FormatDate(b.End), strconv.Itoa(b.Days())}
}

func printBucketTable(w io.Writer, buckets []schema.TimeBucket) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Period", "Start", "End", "Days"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})
	data := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		data = append(data, bucketRecord(b))
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d buckets\n", len(buckets))
	return err
}
