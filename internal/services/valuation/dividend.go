package valuation

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// DividendStages parametrizes the two-stage dividend discount model with a
// perpetuity tail.
type DividendStages struct {
	CurrentDividend float64
	Discount        float64
	Growth1         float64
	Period1         int
	Growth2         float64
	Period2         int
	TerminalGrowth  float64
}

// GordonGrowth values a dividend growing at constGrowth forever:
// D * (1 + g) / (d - g).
func GordonGrowth(currentDiv, constGrowth, discount float64) (float64, error) {
	if err := requireDividend(currentDiv); err != nil {
		return 0, err
	}
	if err := requireRate("constant growth", constGrowth); err != nil {
		return 0, err
	}
	if err := requireRate("discount", discount); err != nil {
		return 0, err
	}
	if discount <= constGrowth {
		return 0, fmt.Errorf("%w: discount %g must exceed constant growth %g", ErrInvalidParameter, discount, constGrowth)
	}
	v := perpetuity(currentDiv, constGrowth, discount)
	if !isFinite(v) {
		return 0, fmt.Errorf("%w: gordon value is not finite", ErrNumericDegeneracy)
	}
	return v, nil
}

// DividendDiscount projects Period1 years of dividends at Growth1, Period2
// further years at Growth2, appends a Gordon terminal value as one more
// period, and discounts every value to the present at Discount.
func DividendDiscount(in DividendStages) (float64, error) {
	if err := validateStages(in); err != nil {
		return 0, err
	}

	n := in.Period1 + in.Period2
	flows := make([]float64, 0, n+1)
	div := in.CurrentDividend
	for t := 0; t < in.Period1; t++ {
		div *= 1 + in.Growth1
		flows = append(flows, div)
	}
	for t := 0; t < in.Period2; t++ {
		div *= 1 + in.Growth2
		flows = append(flows, div)
	}
	flows = append(flows, perpetuity(div, in.TerminalGrowth, in.Discount))

	value := floats.Dot(flows, discountFactors(in.Discount, len(flows)))
	if !isFinite(value) {
		return 0, fmt.Errorf("%w: dividend discount value is not finite", ErrNumericDegeneracy)
	}
	return value, nil
}

func validateStages(in DividendStages) error {
	if err := requireDividend(in.CurrentDividend); err != nil {
		return err
	}
	if in.Period1 < 1 || in.Period2 < 1 {
		return fmt.Errorf("%w: periods must be at least one year, got %d and %d", ErrInvalidParameter, in.Period1, in.Period2)
	}
	for _, r := range []struct {
		name string
		v    float64
	}{
		{"discount", in.Discount},
		{"growth1", in.Growth1},
		{"growth2", in.Growth2},
		{"terminal growth", in.TerminalGrowth},
	} {
		if err := requireRate(r.name, r.v); err != nil {
			return err
		}
	}
	if in.Discount <= in.TerminalGrowth {
		return fmt.Errorf("%w: discount %g must exceed terminal growth %g", ErrInvalidParameter, in.Discount, in.TerminalGrowth)
	}
	return nil
}

func requireDividend(d float64) error {
	if err := requireFinite("current dividend", d); err != nil {
		return err
	}
	if d < 0 {
		return fmt.Errorf("%w: current dividend must not be negative, got %g", ErrInvalidParameter, d)
	}
	return nil
}

// perpetuity is the Gordon value of a stream whose next payment is d*(1+g).
func perpetuity(d, g, discount float64) float64 {
	return d * (1 + g) / (discount - g)
}
