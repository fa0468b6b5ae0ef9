package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"FinValue/internal/domain/models"
	"FinValue/pkg/metrics"
)

type flakyPublisher struct {
	mu        sync.Mutex
	failFirst int
	calls     int
	published []string
	closed    bool
}

func (f *flakyPublisher) PublishReport(_ context.Context, r *models.ValuationReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failFirst {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, r.Ticker)
	return nil
}

func (f *flakyPublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func newTestPipeline(next *flakyPublisher, opts ...PipelineOption) *PublishPipeline {
	p := NewPublishPipeline(next, metrics.Nop{}, opts...)
	p.sleep = func(time.Duration) {}
	return p
}

func TestPipelineRetriesUntilWritten(t *testing.T) {
	next := &flakyPublisher{failFirst: 2}
	p := newTestPipeline(next, WithMaxAttempts(5))
	p.Start(context.Background())

	if err := p.PublishReport(context.Background(), &models.ValuationReport{Ticker: "AAPL"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if next.calls != 3 || len(next.published) != 1 {
		t.Fatalf("expected 3 attempts and 1 write, got %d and %v", next.calls, next.published)
	}
	if !next.closed {
		t.Fatalf("expected downstream publisher to be closed")
	}
}

func TestPipelineGivesUpAfterMaxAttempts(t *testing.T) {
	next := &flakyPublisher{failFirst: 100}
	p := newTestPipeline(next, WithMaxAttempts(2))
	p.Start(context.Background())

	_ = p.PublishReport(context.Background(), &models.ValuationReport{Ticker: "AAPL"})
	_ = p.Close()
	if next.calls != 2 || len(next.published) != 0 {
		t.Fatalf("expected 2 attempts and no write, got %d and %v", next.calls, next.published)
	}
}

func TestPipelineThrottlesRepeatTickers(t *testing.T) {
	next := &flakyPublisher{}
	p := newTestPipeline(next, WithMinInterval(time.Minute))
	now := time.Unix(1700000000, 0)
	p.now = func() time.Time { return now }
	p.Start(context.Background())

	ctx := context.Background()
	_ = p.PublishReport(ctx, &models.ValuationReport{Ticker: "AAPL"})
	_ = p.PublishReport(ctx, &models.ValuationReport{Ticker: "AAPL"})
	_ = p.PublishReport(ctx, &models.ValuationReport{Ticker: "MSFT"})
	now = now.Add(2 * time.Minute)
	_ = p.PublishReport(ctx, &models.ValuationReport{Ticker: "AAPL"})
	_ = p.Close()

	if len(next.published) != 3 {
		t.Fatalf("expected 3 writes, got %v", next.published)
	}
}

func TestPipelineForgetsExpiredTickers(t *testing.T) {
	p := NewPublishPipeline(&flakyPublisher{}, nil, WithMinInterval(time.Minute))
	now := time.Unix(1700000000, 0)
	p.now = func() time.Time { return now }

	ctx := context.Background()
	for _, ticker := range []string{"AAPL", "MSFT", "KO"} {
		if err := p.PublishReport(ctx, &models.ValuationReport{Ticker: ticker}); err != nil {
			t.Fatalf("publish %s: %v", ticker, err)
		}
	}
	now = now.Add(2 * time.Minute)
	if err := p.PublishReport(ctx, &models.ValuationReport{Ticker: "IBM"}); err != nil {
		t.Fatalf("publish IBM: %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.lastSeen) != 1 {
		t.Fatalf("expected only IBM to be tracked, got %v", p.lastSeen)
	}
	if _, ok := p.lastSeen["IBM"]; !ok {
		t.Fatalf("expected IBM to be tracked, got %v", p.lastSeen)
	}
}

func TestPipelineBufferFull(t *testing.T) {
	next := &flakyPublisher{}
	// not started: nothing drains the buffer
	p := newTestPipeline(next, WithBufferSize(1))
	ctx := context.Background()
	if err := p.PublishReport(ctx, &models.ValuationReport{Ticker: "A"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.PublishReport(ctx, &models.ValuationReport{Ticker: "B"}); !errors.Is(err, ErrBufferFull) {
		t.Fatalf("expected ErrBufferFull, got %v", err)
	}
	if err := p.PublishReport(ctx, &models.ValuationReport{}); err == nil {
		t.Fatalf("expected error for report without ticker")
	}
}
