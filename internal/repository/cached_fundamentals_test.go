package repository

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"FinValue/internal/domain/models"
	"FinValue/pkg/cache"
)

type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) KeyRatios(_ context.Context, ticker string) (*models.Fundamentals, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.Fundamentals{
		Ticker:   ticker,
		Exchange: "XNAS",
		Periods:  []string{"2015-12", "2016-12", "TTM"},
		Columns:  []string{"Dividends USD"},
		Rows:     map[string][]float64{"Dividends USD": {0.5, math.NaN(), 0.7}},
	}, nil
}

func TestCachedFundamentalsServesSecondCallFromCache(t *testing.T) {
	src := &countingSource{}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	c := NewCachedFundamentals(src, mc, time.Hour, nil, nil)
	ctx := context.Background()

	if _, err := c.KeyRatios(ctx, "aapl"); err != nil {
		t.Fatalf("first call: %v", err)
	}
	f, err := c.KeyRatios(ctx, "AAPL")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected one upstream call, got %d", src.calls)
	}
	row := f.Rows["Dividends USD"]
	if row[0] != 0.5 || !math.IsNaN(row[1]) || row[2] != 0.7 {
		t.Fatalf("unexpected cached row %v", row)
	}
	if f.Exchange != "XNAS" {
		t.Fatalf("expected exchange to survive caching, got %q", f.Exchange)
	}

	if err := c.Invalidate(ctx, "aapl"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := c.KeyRatios(ctx, "AAPL"); err != nil {
		t.Fatalf("third call: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("expected refetch after invalidate, got %d calls", src.calls)
	}
}

func TestCachedFundamentalsPropagatesSourceError(t *testing.T) {
	boom := errors.New("down")
	c := NewCachedFundamentals(&countingSource{err: boom}, nil, time.Hour, nil, nil)
	if _, err := c.KeyRatios(context.Background(), "X"); !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
}
