package valuation

import (
	"fmt"
	"math"
	"math/rand/v2"

	"FinValue/internal/services/features"

	"gonum.org/v1/gonum/floats"
)

const (
	// Trials is the number of randomized projections per DCF run.
	Trials = 100
	// HorizonYears is the length of each of the two projection phases.
	HorizonYears = 10

	capmRiskFreePct     = 2.5
	capmMarketReturnPct = 9.11
)

// NormalSource draws standard normal variates. *rand.Rand satisfies it.
type NormalSource interface {
	NormFloat64() float64
}

// NewSource returns a deterministic generator for the given seed. A generator
// must not be shared between goroutines.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// DCFInput holds the inputs of a discounted cash flow run.
type DCFInput struct {
	History  []float64 // free cash flow, oldest to newest, millions
	Rate1    float64   // growth for projection years 1-10
	Rate2    float64   // growth for projection years 11-20
	Discount float64   // required return
	Shares   float64   // shares outstanding, millions
	Beta     float64
}

// DCFResult holds the per-trial per-share estimates under both discount rates.
// CAGR is nil when the growth of the history is undefined.
type DCFResult struct {
	CAGR          *float64
	CAPMRate      float64
	Estimates     []float64 // discounted at DCFInput.Discount
	CAPMEstimates []float64 // discounted at CAPMRate
}

// CAPMRate derives a discount rate from beta using a fixed 2.5% risk-free
// rate and 9.11% market return.
func CAPMRate(beta float64) float64 {
	return (capmRiskFreePct + beta*(capmMarketReturnPct-capmRiskFreePct)) / 100.0
}

// DiscountedCashFlow projects free cash flow over two ten-year phases with
// normally distributed noise and discounts it to a per-share value, Trials
// times over. CAGR is reported alongside the estimates and does not feed
// into them.
func DiscountedCashFlow(in DCFInput, rng NormalSource) (DCFResult, error) {
	if err := validateDCF(in); err != nil {
		return DCFResult{}, err
	}
	if rng == nil {
		return DCFResult{}, fmt.Errorf("%w: random source is required", ErrInvalidParameter)
	}

	fcf := make([]float64, len(in.History))
	copy(fcf, in.History)
	if fcf[0] < 0 {
		fcf[0] = features.Mean(fcf)
	}
	var cagr *float64
	if g := features.CAGR(fcf); isFinite(g) {
		cagr = &g
	}

	capm := CAPMRate(in.Beta)
	if capm <= -1 {
		return DCFResult{}, fmt.Errorf("%w: beta %g yields capm rate %g", ErrInvalidParameter, in.Beta, capm)
	}

	sigma := features.SampleStdDev(fcf)
	latest := fcf[len(fcf)-1]

	// Discount factors are identical across trials.
	const periods = 2 * HorizonYears
	userDF := discountFactors(in.Discount, periods)
	capmDF := discountFactors(capm, periods)
	growth1 := growthFactors(in.Rate1, HorizonYears)
	growth2 := growthFactors(in.Rate2, HorizonYears)

	res := DCFResult{
		CAGR:          cagr,
		CAPMRate:      capm,
		Estimates:     make([]float64, Trials),
		CAPMEstimates: make([]float64, Trials),
	}

	proj := make([]float64, periods)
	for i := 0; i < Trials; i++ {
		for t := 0; t < HorizonYears; t++ {
			proj[t] = latest*growth1[t] + sigma*rng.NormFloat64()
		}
		base := proj[HorizonYears-1]
		for t := 0; t < HorizonYears; t++ {
			proj[HorizonYears+t] = base*growth2[t] + sigma*rng.NormFloat64()
		}

		res.Estimates[i] = floats.Dot(proj, userDF) / in.Shares
		res.CAPMEstimates[i] = floats.Dot(proj, capmDF) / in.Shares
	}

	for i := range res.Estimates {
		if !isFinite(res.Estimates[i]) || !isFinite(res.CAPMEstimates[i]) {
			return DCFResult{}, fmt.Errorf("%w: trial %d produced a non-finite estimate", ErrNumericDegeneracy, i)
		}
	}
	return res, nil
}

func validateDCF(in DCFInput) error {
	if err := requireHistory("free cash flow history", in.History); err != nil {
		return err
	}
	if err := requireRate("rate1", in.Rate1); err != nil {
		return err
	}
	if err := requireRate("rate2", in.Rate2); err != nil {
		return err
	}
	if err := requireRate("discount", in.Discount); err != nil {
		return err
	}
	if err := requireFinite("beta", in.Beta); err != nil {
		return err
	}
	if err := requireFinite("shares", in.Shares); err != nil {
		return err
	}
	if in.Shares <= 0 {
		return fmt.Errorf("%w: shares must be positive, got %g", ErrInvalidParameter, in.Shares)
	}
	return nil
}

// growthFactors returns (1+rate)^t for t = 1..n.
func growthFactors(rate float64, n int) []float64 {
	out := make([]float64, n)
	for t := range out {
		out[t] = math.Pow(1+rate, float64(t+1))
	}
	return out
}

// discountFactors returns 1/(1+rate)^t for t = 1..n.
func discountFactors(rate float64, n int) []float64 {
	out := make([]float64, n)
	for t := range out {
		out[t] = 1 / math.Pow(1+rate, float64(t+1))
	}
	return out
}
