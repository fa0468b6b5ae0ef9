package ratelimit

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestLimiter(capacity, refill float64) (*Limiter, *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(capacity, refill)
	l.now = clk.now
	return l, clk
}

func TestLimiterBurstThenReject(t *testing.T) {
	l, _ := newTestLimiter(3, 1)
	for i := 0; i < 3; i++ {
		if !l.Allow("a") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if l.Allow("a") {
		t.Fatalf("expected fourth request to be limited")
	}
	if !l.Allow("b") {
		t.Fatalf("keys must be independent")
	}
}

func TestLimiterRefill(t *testing.T) {
	l, clk := newTestLimiter(1, 2)
	if !l.Allow("a") {
		t.Fatalf("first request should pass")
	}
	if l.Allow("a") {
		t.Fatalf("bucket should be empty")
	}
	clk.t = clk.t.Add(500 * time.Millisecond)
	if !l.Allow("a") {
		t.Fatalf("expected one token after half a second at 2/s")
	}
}

func TestLimiterDisabled(t *testing.T) {
	l := New(0, 0)
	for i := 0; i < 100; i++ {
		if !l.Allow("a") {
			t.Fatalf("disabled limiter must allow everything")
		}
	}
}

func TestLimiterPrune(t *testing.T) {
	l, clk := newTestLimiter(2, 1)
	l.Allow("old")
	clk.t = clk.t.Add(time.Hour)
	l.Allow("new")
	if n := l.Prune(time.Minute); n != 1 {
		t.Fatalf("expected 1 pruned bucket, got %d", n)
	}
}
