package valuation

import (
	"errors"
	"math"
	"testing"
)

func TestGordonGrowthKnownValue(t *testing.T) {
	got, err := GordonGrowth(100, 0.03, 0.08)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-2060) > 1e-9 {
		t.Fatalf("expected 2060, got %v", got)
	}
}

func TestGordonGrowthMonotonic(t *testing.T) {
	base := func(d, g, r float64) float64 {
		v, err := GordonGrowth(d, g, r)
		if err != nil {
			t.Fatalf("GordonGrowth(%v, %v, %v): %v", d, g, r, err)
		}
		return v
	}
	ref := base(2, 0.03, 0.09)

	if base(2.5, 0.03, 0.09) <= ref {
		t.Fatalf("expected value to increase with dividend")
	}
	if base(2, 0.05, 0.09) <= ref {
		t.Fatalf("expected value to increase with growth")
	}
	if base(2, 0.03, 0.12) >= ref {
		t.Fatalf("expected value to decrease with discount")
	}
}

func TestGordonGrowthRejectsDiscountNotAboveGrowth(t *testing.T) {
	for _, tc := range []struct{ g, d float64 }{{0.08, 0.08}, {0.1, 0.05}} {
		if _, err := GordonGrowth(1, tc.g, tc.d); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("g=%v d=%v: expected ErrInvalidParameter, got %v", tc.g, tc.d, err)
		}
	}
	if _, err := GordonGrowth(-1, 0.02, 0.08); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("expected ErrInvalidParameter for negative dividend, got %v", err)
	}
}

func TestGordonGrowthZeroDividend(t *testing.T) {
	got, err := GordonGrowth(0, 0.02, 0.08)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0 {
		t.Fatalf("expected 0 for zero dividend, got %v", got)
	}
	v, err := DividendDiscount(DividendStages{Discount: 0.1, Growth1: 0.05, Period1: 2, Growth2: 0.03, Period2: 2, TerminalGrowth: 0.02})
	if err != nil || v != 0 {
		t.Fatalf("expected 0 for zero dividend, got %v err %v", v, err)
	}
}

func TestGordonGrowthOverflow(t *testing.T) {
	if _, err := GordonGrowth(math.MaxFloat64, 0.5, 0.6); !errors.Is(err, ErrNumericDegeneracy) {
		t.Fatalf("expected ErrNumericDegeneracy, got %v", err)
	}
}

func TestDividendDiscountKnownValue(t *testing.T) {
	got, err := DividendDiscount(DividendStages{
		CurrentDividend: 1,
		Discount:        0.1,
		Period1:         1,
		Period2:         1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// flows 1, 1, terminal 10 at periods 1..3
	want := 1/1.1 + 1/math.Pow(1.1, 2) + 10/math.Pow(1.1, 3)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDividendDiscountTerminalMatchesGordon(t *testing.T) {
	const (
		d0 = 2.0
		g  = 0.04
		r  = 0.09
		p1 = 3
		p2 = 4
	)
	got, err := DividendDiscount(DividendStages{
		CurrentDividend: d0, Discount: r,
		Growth1: g, Period1: p1,
		Growth2: g, Period2: p2,
		TerminalGrowth: g,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n := p1 + p2
	explicit := 0.0
	for i := 1; i <= n; i++ {
		explicit += d0 * math.Pow(1+g, float64(i)) / math.Pow(1+r, float64(i))
	}
	last := d0 * math.Pow(1+g, float64(n))
	tail, err := GordonGrowth(last, g, r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := explicit + tail/math.Pow(1+r, float64(n+1))
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestDividendDiscountRejectsInvalidInput(t *testing.T) {
	valid := DividendStages{CurrentDividend: 1, Discount: 0.08, Growth1: 0.1, Period1: 5, Growth2: 0.05, Period2: 5, TerminalGrowth: 0.03}

	cases := []struct {
		name string
		mod  func(*DividendStages)
	}{
		{"discount equals terminal", func(s *DividendStages) { s.TerminalGrowth = 0.08 }},
		{"discount below terminal", func(s *DividendStages) { s.Discount = 0.02 }},
		{"zero first period", func(s *DividendStages) { s.Period1 = 0 }},
		{"zero second period", func(s *DividendStages) { s.Period2 = 0 }},
		{"negative dividend", func(s *DividendStages) { s.CurrentDividend = -1 }},
		{"growth at -1", func(s *DividendStages) { s.Growth2 = -1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mod(&in)
			v, err := DividendDiscount(in)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got value %v err %v", v, err)
			}
		})
	}

	if _, err := DividendDiscount(valid); err != nil {
		t.Fatalf("unexpected error for valid input: %v", err)
	}
}
