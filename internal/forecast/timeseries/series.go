// internal/forecast/timeseries/series.go
package timeseries

import (
	"math"
	"sort"
	"time"

	"github.com/judyjanx-jpg/inventory-advisor-sub007/internal/domain"
)

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation, 0 below two samples.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

// CoefVar returns stddev/mean, 0 when the mean is zero.
func CoefVar(values []float64) float64 {
	mean := Mean(values)
	if mean == 0 {
		return 0
	}
	return StdDev(values) / mean
}

// Percentile returns the p-th percentile (0..1) using nearest-rank on a copy.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	rank := int(math.Ceil(p*float64(len(sorted)))) - 1
	if rank < 0 {
		rank = 0
	}
	return sorted[rank]
}

// Units extracts the units column from sales history.
func Units(data []domain.SalesDataPoint) []float64 {
	out := make([]float64, len(data))
	for i, d := range data {
		out[i] = d.Units
	}
	return out
}

// LastN returns the trailing n points (or all of them when fewer exist).
func LastN(data []domain.SalesDataPoint, n int) []domain.SalesDataPoint {
	if n <= 0 || len(data) <= n {
		return data
	}
	return data[len(data)-n:]
}

// Since filters points on or after the cutoff. Input is assumed sorted
// ascending by date, so a binary search would do; histories are short enough
// that a linear scan keeps this trivial.
func Since(data []domain.SalesDataPoint, cutoff time.Time) []domain.SalesDataPoint {
	for i, d := range data {
		if !d.Date.Before(cutoff) {
			return data[i:]
		}
	}
	return nil
}

// SpanYears counts distinct calendar years present in the history.
func SpanYears(data []domain.SalesDataPoint) int {
	years := make(map[int]struct{})
	for _, d := range data {
		years[d.Date.Year()] = struct{}{}
	}
	return len(years)
}
