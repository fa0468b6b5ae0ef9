package repository

import (
	"context"
	"errors"

	"FinValue/internal/domain/models"
)

// ErrTickerNotFound is returned by sources that have no data for a ticker.
var ErrTickerNotFound = errors.New("ticker not found")

// ErrUpstream marks failures of an external data provider.
var ErrUpstream = errors.New("upstream unavailable")

// FundamentalsSource loads the key-ratio table for a ticker.
type FundamentalsSource interface {
	KeyRatios(ctx context.Context, ticker string) (*models.Fundamentals, error)
}

// ProfileSource loads company-level inputs (beta, shares outstanding).
type ProfileSource interface {
	Profile(ctx context.Context, ticker string) (*models.Profile, error)
}

// QuoteSource returns the last traded price of a symbol.
type QuoteSource interface {
	LastQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// ReportPublisher hands a finished report to downstream consumers.
type ReportPublisher interface {
	PublishReport(ctx context.Context, r *models.ValuationReport) error
	Close() error
}

type Metrics interface {
	RecordValuation(model, outcome string)
	RecordError(kind string)
	RecordFetch(source, outcome string)
	RecordPublish(outcome string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
