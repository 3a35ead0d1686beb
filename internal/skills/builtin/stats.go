package builtin

import (
	"math"
	"sort"
	"strconv"

	"evalpilot/internal/skills"
)

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func numericColumn(rows []map[string]any, col string) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if f, ok := toFloat(row[col]); ok {
			out = append(out, f)
		}
	}
	return out
}

// metricColumns prefers the caller-declared metric columns and falls back to
// sniffing numeric fields off the first row.
func metricColumns(in *skills.Input) []string {
	if in.DataContext != nil && len(in.DataContext.MetricColumns) > 0 {
		return in.DataContext.MetricColumns
	}
	if len(in.Rows) == 0 {
		return nil
	}
	var cols []string
	for k, v := range in.Rows[0] {
		if _, ok := toFloat(v); ok {
			cols = append(cols, k)
		}
	}
	sort.Strings(cols)
	return cols
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

// percentile uses nearest-rank on a copy of xs; p in [0,100].
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	rank := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
