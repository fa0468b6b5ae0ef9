package repository

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"FinValue/internal/domain/models"
	"FinValue/internal/domain/repository"
	"FinValue/pkg/cache"
	applogger "FinValue/pkg/logger"
)

const keyRatioPrefix = "keyratios"

// CachedFundamentals decorates a FundamentalsSource with a cache.Service.
// Cache failures degrade to the underlying source.
type CachedFundamentals struct {
	source  repository.FundamentalsSource
	cache   cache.Service
	ttl     time.Duration
	log     *applogger.Logger
	metrics repository.Metrics
}

// NewCachedFundamentals wraps source. A nil cache disables caching.
func NewCachedFundamentals(source repository.FundamentalsSource, c cache.Service, ttl time.Duration, l *applogger.Logger, m repository.Metrics) *CachedFundamentals {
	if l == nil {
		l = applogger.Nop()
	}
	return &CachedFundamentals{source: source, cache: c, ttl: ttl, log: l, metrics: m}
}

// cachedTable is the JSON form of models.Fundamentals; NaN cells become null.
type cachedTable struct {
	Ticker    string                `json:"ticker"`
	Exchange  string                `json:"exchange"`
	Periods   []string              `json:"periods"`
	Columns   []string              `json:"columns"`
	Rows      map[string][]*float64 `json:"rows"`
	FetchedAt time.Time             `json:"fetched_at"`
}

func (c *CachedFundamentals) KeyRatios(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	key := cache.GenerateKey(keyRatioPrefix, ticker)

	if c.cache != nil {
		var ct cachedTable
		err := c.cache.Get(ctx, key, &ct)
		switch {
		case err == nil:
			c.record("hit")
			return fromCached(&ct), nil
		case errors.Is(err, cache.ErrCacheMiss):
			c.record("miss")
		default:
			c.log.Warn("key ratio cache read failed", applogger.String("key", key), applogger.Error(err))
		}
	}

	f, err := c.source.KeyRatios(ctx, ticker)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, toCached(f), c.ttl); err != nil {
			c.log.Warn("key ratio cache write failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return f, nil
}

// Invalidate drops the cached table for ticker.
func (c *CachedFundamentals) Invalidate(ctx context.Context, ticker string) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(ctx, cache.GenerateKey(keyRatioPrefix, strings.ToUpper(strings.TrimSpace(ticker))))
}

func (c *CachedFundamentals) record(outcome string) {
	if c.metrics != nil {
		c.metrics.RecordFetch("key_ratios_cache", outcome)
	}
}

func toCached(f *models.Fundamentals) *cachedTable {
	ct := &cachedTable{
		Ticker:    f.Ticker,
		Exchange:  f.Exchange,
		Periods:   f.Periods,
		Columns:   f.Columns,
		Rows:      make(map[string][]*float64, len(f.Rows)),
		FetchedAt: f.FetchedAt,
	}
	for name, vals := range f.Rows {
		row := make([]*float64, len(vals))
		for i, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			v := v
			row[i] = &v
		}
		ct.Rows[name] = row
	}
	return ct
}

func fromCached(ct *cachedTable) *models.Fundamentals {
	f := &models.Fundamentals{
		Ticker:    ct.Ticker,
		Exchange:  ct.Exchange,
		Periods:   ct.Periods,
		Columns:   ct.Columns,
		Rows:      make(map[string][]float64, len(ct.Rows)),
		FetchedAt: ct.FetchedAt,
	}
	for name, row := range ct.Rows {
		vals := make([]float64, len(row))
		for i, p := range row {
			if p == nil {
				vals[i] = math.NaN()
				continue
			}
			vals[i] = *p
		}
		f.Rows[name] = vals
	}
	return f
}
