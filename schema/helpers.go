package schema

import (
	"strconv"
	"strings"
	"time"
)

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Slug turns a display term into a path-safe name: slashes are dropped,
// spaces become underscores and the result is lowercased.
func Slug(term string) string {
	s := strings.NewReplacer("\\", "", "/", "").Replace(term)
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ToLower(s)
}

// ZeroMetrics builds the degraded value set for a list of columns.
func ZeroMetrics(cols []Column) Metrics {
	m := make(Metrics, len(cols))
	for _, c := range cols {
		switch c.Kind {
		case FloatColumn:
			m[c.Name] = float64(0)
		case StringColumn:
			m[c.Name] = ""
		default:
			m[c.Name] = int64(0)
		}
	}
	return m
}

// FormatValue renders a metric value for tabular output.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// NumericValue returns the float form of a numeric metric value.
// The second result is false for strings and missing values.
func NumericValue(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
