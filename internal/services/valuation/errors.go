package valuation

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInsufficientHistory is returned when a series is shorter than a formula requires.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrInvalidParameter is returned when a scalar input violates a precondition.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrNumericDegeneracy is returned when a computation would divide by zero or
	// produce a non-finite result.
	ErrNumericDegeneracy = errors.New("numeric degeneracy")
)

// MinHistory is the minimum number of observations required by the DCF and
// earnings estimators.
const MinHistory = 11

func requireHistory(name string, xs []float64) error {
	if len(xs) < MinHistory {
		return fmt.Errorf("%w: %s has %d observations, need at least %d", ErrInsufficientHistory, name, len(xs), MinHistory)
	}
	for i, x := range xs {
		if !isFinite(x) {
			return fmt.Errorf("%w: %s[%d] is not a finite number", ErrInvalidParameter, name, i)
		}
	}
	return nil
}

func requireFinite(name string, v float64) error {
	if !isFinite(v) {
		return fmt.Errorf("%w: %s must be finite", ErrInvalidParameter, name)
	}
	return nil
}

// requireRate checks a growth or discount rate lies in (-1, +inf).
func requireRate(name string, v float64) error {
	if err := requireFinite(name, v); err != nil {
		return err
	}
	if v <= -1 {
		return fmt.Errorf("%w: %s must be greater than -1, got %g", ErrInvalidParameter, name, v)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
