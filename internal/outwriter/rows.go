package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/huangsam/hypeplot/schema"
)

// Identity columns that lead every source CSV.
var identityHeader = []string{"period", "start_date", "end_date"}

// RowHeader returns the identity columns, the declared metric columns and then
// any extra metric keys present in rows, sorted.
func RowHeader(cols []schema.Column, rows []schema.SourceRow) []string {
	header := slices.Clone(identityHeader)
	declared := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		header = append(header, c.Name)
		declared[c.Name] = struct{}{}
	}

	var extras []string
	for _, r := range rows {
		for k := range r.Metrics {
			if _, ok := declared[k]; ok {
				continue
			}
			if !slices.Contains(extras, k) {
				extras = append(extras, k)
			}
		}
	}
	slices.Sort(extras)
	return append(header, extras...)
}

// WriteRows writes rows as CSV to path, creating parent directories and
// replacing any previous file. Identical input gives byte-identical output.
func WriteRows(path string, cols []schema.Column, rows []schema.SourceRow) error {
	return writeAtomic(path, func(w io.Writer) error {
		return writeRowsCSV(w, cols, rows)
	})
}

func writeRowsCSV(w io.Writer, cols []schema.Column, rows []schema.SourceRow) error {
	header := RowHeader(cols, rows)
	metricNames := header[len(identityHeader):]
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range rows {
			record := []string{r.Period, schema.FormatDate(r.StartDate), schema.FormatDate(r.EndDate)}
			for _, name := range metricNames {
				record = append(record, schema.FormatValue(r.Metrics[name]))
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV row %s: %w", r.Period, err)
			}
		}
		return nil
	})
}

// WriteAnnual writes a yearly series with the header year,interest.
func WriteAnnual(path string, points []schema.AnnualPoint) error {
	return writeAtomic(path, func(w io.Writer) error {
		return writeCSVWithHeader(w, []string{"year", "interest"}, func(cw *csv.Writer) error {
			for _, p := range points {
				rec := []string{strconv.Itoa(p.Year), strconv.FormatFloat(p.Interest, 'f', -1, 64)}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
			return nil
		})
	})
}
