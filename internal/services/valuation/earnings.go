package valuation

import (
	"fmt"

	"FinValue/internal/services/features"
)

// Graham formula constants.
const (
	grahamBase             = 8.0
	grahamBaseConservative = 7.0
	grahamMult             = 2.0
	grahamMultConservative = 1.5
	grahamBondYieldPct     = 4.4

	// DefaultRiskFreeRate approximates the long AAA corporate bond yield.
	DefaultRiskFreeRate = 0.025
)

// GrahamOptions selects the variant of the earnings formula.
type GrahamOptions struct {
	RiskFreeRate           float64
	ConservativeBase       bool // 7 instead of 8 for a no-growth company
	ConservativeMultiplier bool // 1.5 instead of 2 per point of growth
	UseAverage             bool // also value the mean EPS of the history
}

// DefaultGrahamOptions returns the standard formula with the average-EPS
// adjustment enabled.
func DefaultGrahamOptions() GrahamOptions {
	return GrahamOptions{RiskFreeRate: DefaultRiskFreeRate, UseAverage: true}
}

// EarningsResult is the value on the latest EPS and, when requested, on the
// average EPS of the history.
type EarningsResult struct {
	Value         float64
	AdjustedValue *float64
}

// EarningsValue applies the Graham growth formula
//
//	V = EPS * (base + mult * g * 100 * 4.4) / (rf * 100)
//
// to the most recent observation of eps. The current EPS is the last element
// of eps whatever the history length, so a trailing TTM value is used when
// present.
func EarningsValue(eps []float64, projGrowth float64, opts GrahamOptions) (EarningsResult, error) {
	if err := requireHistory("eps history", eps); err != nil {
		return EarningsResult{}, err
	}
	if err := requireFinite("projected growth", projGrowth); err != nil {
		return EarningsResult{}, err
	}
	if err := requireFinite("risk free rate", opts.RiskFreeRate); err != nil {
		return EarningsResult{}, err
	}
	if opts.RiskFreeRate == 0 {
		return EarningsResult{}, fmt.Errorf("%w: risk free rate must be non-zero", ErrInvalidParameter)
	}

	base := grahamBase
	if opts.ConservativeBase {
		base = grahamBaseConservative
	}
	mult := grahamMult
	if opts.ConservativeMultiplier {
		mult = grahamMultConservative
	}
	factor := (base + mult*(projGrowth*100)*grahamBondYieldPct) / (opts.RiskFreeRate * 100)

	res := EarningsResult{Value: eps[len(eps)-1] * factor}
	if !isFinite(res.Value) {
		return EarningsResult{}, fmt.Errorf("%w: earnings value is not finite", ErrNumericDegeneracy)
	}
	if opts.UseAverage {
		adj := features.Mean(eps) * factor
		if !isFinite(adj) {
			return EarningsResult{}, fmt.Errorf("%w: adjusted earnings value is not finite", ErrNumericDegeneracy)
		}
		res.AdjustedValue = &adj
	}
	return res, nil
}
