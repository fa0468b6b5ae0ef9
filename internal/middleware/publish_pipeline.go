package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"FinValue/internal/domain/models"
	domrepo "FinValue/internal/domain/repository"
	"FinValue/pkg/metrics"
)

// ErrBufferFull is returned when a report cannot be queued for publishing.
var ErrBufferFull = errors.New("publish buffer full")

// PublishPipeline sits between the valuation use case and the report
// publisher. Reports are queued and written by a background worker so a
// slow broker never delays an HTTP response. Failed writes are retried with
// capped exponential backoff. Repeated reports for one ticker inside
// MinInterval are dropped.
type PublishPipeline struct {
	next        domrepo.ReportPublisher
	metrics     domrepo.Metrics
	bufSize     int
	minInterval time.Duration
	maxAttempts int
	bufCh       chan *models.ValuationReport
	stopCh      chan struct{}
	doneCh      chan struct{}
	started     bool
	mu          sync.Mutex
	lastSeen    map[string]time.Time // per-ticker last accepted time
	lastPrune   time.Time
	now         func() time.Time
	sleep       func(time.Duration)
}

type PipelineOption func(*PublishPipeline)

// WithBufferSize sets how many reports may wait for the broker.
func WithBufferSize(n int) PipelineOption {
	return func(p *PublishPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithMinInterval drops a ticker's report if one was accepted less than d ago.
func WithMinInterval(d time.Duration) PipelineOption {
	return func(p *PublishPipeline) {
		if d >= 0 {
			p.minInterval = d
		}
	}
}

// WithMaxAttempts bounds the writes tried per report.
func WithMaxAttempts(n int) PipelineOption {
	return func(p *PublishPipeline) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// NewPublishPipeline creates a pipeline in front of next. Call Start before
// use. A nil m discards measurements.
func NewPublishPipeline(next domrepo.ReportPublisher, m domrepo.Metrics, opts ...PipelineOption) *PublishPipeline {
	if m == nil {
		m = metrics.Nop{}
	}
	p := &PublishPipeline{
		next:        next,
		metrics:     m,
		bufSize:     256,
		maxAttempts: 5,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		lastSeen:    make(map[string]time.Time),
		now:         time.Now,
		sleep:       time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.ValuationReport, p.bufSize)
	return p
}

// Start launches the background writer.
func (p *PublishPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		defer close(p.doneCh)
		for {
			select {
			case <-p.stopCh:
				p.drain(ctx)
				return
			case r := <-p.bufCh:
				p.write(ctx, r)
			}
		}
	}()
}

// PublishReport queues r. It never blocks on the broker.
func (p *PublishPipeline) PublishReport(_ context.Context, r *models.ValuationReport) error {
	if r == nil || r.Ticker == "" {
		p.record("invalid")
		return fmt.Errorf("publish pipeline: report without ticker")
	}
	if !p.allow(r.Ticker) {
		p.record("throttled")
		return nil
	}
	select {
	case p.bufCh <- r:
		p.metrics.RecordLatency("publish_buffer_depth", float64(len(p.bufCh)))
		return nil
	default:
		p.record("buffer_full")
		return ErrBufferFull
	}
}

// Close stops the writer after flushing queued reports, then closes the
// underlying publisher.
func (p *PublishPipeline) Close() error {
	p.mu.Lock()
	started := p.started
	p.started = false
	p.mu.Unlock()
	if started {
		close(p.stopCh)
		<-p.doneCh
	}
	return p.next.Close()
}

func (p *PublishPipeline) write(ctx context.Context, r *models.ValuationReport) {
	backoff := 50 * time.Millisecond
	for attempt := 1; ; attempt++ {
		start := p.now()
		err := p.next.PublishReport(ctx, r)
		if err == nil {
			p.record("written")
			p.metrics.RecordLatency("publish", p.now().Sub(start).Seconds())
			return
		}
		if attempt >= p.maxAttempts || ctx.Err() != nil {
			p.record("dropped")
			p.metrics.RecordError("publish_dropped")
			return
		}
		p.record("retry")
		p.sleep(backoff)
		// exponential backoff with cap
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
}

func (p *PublishPipeline) drain(ctx context.Context) {
	for {
		select {
		case r := <-p.bufCh:
			p.write(ctx, r)
		default:
			return
		}
	}
}

func (p *PublishPipeline) allow(ticker string) bool {
	if p.minInterval <= 0 {
		return true
	}
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pruneLocked(now)
	last, ok := p.lastSeen[ticker]
	if ok && now.Sub(last) < p.minInterval {
		return false
	}
	p.lastSeen[ticker] = now
	return true
}

// pruneLocked forgets tickers whose throttle window has passed. It sweeps at
// most once per window.
func (p *PublishPipeline) pruneLocked(now time.Time) {
	if now.Sub(p.lastPrune) < p.minInterval {
		return
	}
	for ticker, last := range p.lastSeen {
		if now.Sub(last) >= p.minInterval {
			delete(p.lastSeen, ticker)
		}
	}
	p.lastPrune = now
}

func (p *PublishPipeline) record(outcome string) {
	p.metrics.RecordPublish(outcome)
}
