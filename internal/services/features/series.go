package features

import (
	"math"
	"sort"

	"FinValue/internal/domain/models"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of xs, or NaN when xs is empty.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// SampleStdDev returns the Bessel-corrected (n-1) standard deviation of xs.
// It returns 0 for fewer than two observations.
func SampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// CAGR computes the compound annual growth rate between the first and last
// observation: (last/first)^(1/(n-1)) - 1. The result is NaN when it is not
// defined for the inputs (fewer than two points, zero base, or a negative
// ratio).
func CAGR(xs []float64) float64 {
	if len(xs) < 2 || xs[0] == 0 {
		return math.NaN()
	}
	periods := float64(len(xs) - 1)
	return math.Pow(xs[len(xs)-1]/xs[0], 1.0/periods) - 1
}

// Summarize reduces a sample of estimates to its location and spread.
// The input slice is not modified.
func Summarize(xs []float64) models.Distribution {
	if len(xs) == 0 {
		return models.Distribution{}
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	return models.Distribution{
		Count:  len(sorted),
		Mean:   stat.Mean(sorted, nil),
		StdDev: SampleStdDev(sorted),
		Min:    sorted[0],
		P5:     stat.Quantile(0.05, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}
