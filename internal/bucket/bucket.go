// Package bucket partitions a span of years into labelled calendar windows.
package bucket

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/hypeplot/schema"
)

// ErrInvalidWidth is returned for bucket specs that cannot produce windows.
var ErrInvalidWidth = errors.New("invalid bucket width")

// Yearly, Quarterly and Monthly are the calendar-aligned widths.
var (
	Yearly    = schema.BucketWidth{Kind: schema.YearlyBucket}
	Quarterly = schema.BucketWidth{Kind: schema.QuarterlyBucket}
	Monthly   = schema.BucketWidth{Kind: schema.MonthlyBucket}
)

// Days returns a fixed width of n days.
func Days(n int) schema.BucketWidth {
	return schema.BucketWidth{Kind: schema.DaysBucket, Days: n}
}

// Parse reads a bucket spec: yearly, quarterly, monthly or days:N.
func Parse(spec string) (schema.BucketWidth, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	if rest, ok := strings.CutPrefix(s, string(schema.DaysBucket)+":"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return schema.BucketWidth{}, fmt.Errorf("%w: %q is not a day count", ErrInvalidWidth, rest)
		}
		w := Days(n)
		if err := Validate(w); err != nil {
			return schema.BucketWidth{}, err
		}
		return w, nil
	}
	kind := schema.BucketKind(s)
	if kind == schema.DaysBucket {
		return schema.BucketWidth{}, fmt.Errorf("%w: days requires a count, e.g. days:30", ErrInvalidWidth)
	}
	if _, ok := schema.ValidBucketKinds[kind]; !ok {
		return schema.BucketWidth{}, fmt.Errorf("%w: %q (use yearly, quarterly, monthly or days:N)", ErrInvalidWidth, spec)
	}
	return schema.BucketWidth{Kind: kind}, nil
}

// Validate rejects widths that cannot be generated.
func Validate(w schema.BucketWidth) error {
	if _, ok := schema.ValidBucketKinds[w.Kind]; !ok {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidWidth, w.Kind)
	}
	if w.Kind == schema.DaysBucket && w.Days <= 0 {
		return fmt.Errorf("%w: day count must be positive, got %d", ErrInvalidWidth, w.Days)
	}
	return nil
}

// Generate returns the ordered windows covering Jan 1 of startYear through Dec 31 of endYear.
// The sequence is lazy and can be ranged over more than once. An endYear before startYear
// yields no windows.
func Generate(startYear, endYear int, w schema.BucketWidth) (iter.Seq[schema.TimeBucket], error) {
	if err := Validate(w); err != nil {
		return nil, err
	}
	switch w.Kind {
	case schema.QuarterlyBucket:
		return calendar(startYear, endYear, 3, quarterLabel), nil
	case schema.MonthlyBucket:
		return calendar(startYear, endYear, 1, monthLabel), nil
	case schema.DaysBucket:
		return fixed(startYear, endYear, w.Days), nil
	default:
		return calendar(startYear, endYear, 12, yearLabel), nil
	}
}

// Collect materializes the windows of Generate.
func Collect(startYear, endYear int, w schema.BucketWidth) ([]schema.TimeBucket, error) {
	seq, err := Generate(startYear, endYear, w)
	if err != nil {
		return nil, err
	}
	var out []schema.TimeBucket
	for b := range seq {
		out = append(out, b)
	}
	return out, nil
}

// Count returns how many windows Generate produces without generating them.
func Count(startYear, endYear int, w schema.BucketWidth) int {
	if endYear < startYear || Validate(w) != nil {
		return 0
	}
	years := endYear - startYear + 1
	switch w.Kind {
	case schema.QuarterlyBucket:
		return years * 4
	case schema.MonthlyBucket:
		return years * 12
	case schema.DaysBucket:
		first := schema.Date(startYear, time.January, 1)
		last := schema.Date(endYear, time.December, 31)
		total := int(last.Sub(first).Hours()/24) + 1
		return (total + w.Days - 1) / w.Days
	default:
		return years
	}
}

// calendar emits windows of the given number of months aligned to Jan 1.
func calendar(startYear, endYear, months int, label func(start time.Time) string) iter.Seq[schema.TimeBucket] {
	return func(yield func(schema.TimeBucket) bool) {
		for year := startYear; year <= endYear; year++ {
			for m := 1; m <= 12; m += months {
				start := schema.Date(year, time.Month(m), 1)
				end := start.AddDate(0, months, -1)
				if !yield(schema.TimeBucket{Start: start, End: end, Label: label(start)}) {
					return
				}
			}
		}
	}
}

// fixed emits n-day windows, truncating the last one at Dec 31 of endYear.
func fixed(startYear, endYear, n int) iter.Seq[schema.TimeBucket] {
	return func(yield func(schema.TimeBucket) bool) {
		if endYear < startYear {
			return
		}
		last := schema.Date(endYear, time.December, 31)
		for start := schema.Date(startYear, time.January, 1); !start.After(last); {
			end := start.AddDate(0, 0, n-1)
			if end.After(last) {
				end = last
			}
			if !yield(schema.TimeBucket{Start: start, End: end, Label: dayLabel(start, end)}) {
				return
			}
			start = end.AddDate(0, 0, 1)
		}
	}
}

func yearLabel(start time.Time) string {
	return strconv.Itoa(start.Year())
}

func quarterLabel(start time.Time) string {
	return fmt.Sprintf("%d-Q%d", start.Year(), (int(start.Month())-1)/3+1)
}

func monthLabel(start time.Time) string {
	return fmt.Sprintf("%d-%02d", start.Year(), int(start.Month()))
}

// dayLabel uses a single date when the window stays inside one calendar month.
func dayLabel(start, end time.Time) string {
	if start.Year() == end.Year() && start.Month() == end.Month() {
		return schema.FormatDate(start)
	}
	return schema.FormatDate(start) + "_" + schema.FormatDate(end)
}
