package morningstar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"FinValue/internal/domain/models"
	domrepo "FinValue/internal/domain/repository"
	xhttp "FinValue/pkg/http"
	applogger "FinValue/pkg/logger"
)

// DefaultExchanges are tried in order: Nasdaq, NYSE, OTC pink sheets.
var DefaultExchanges = []string{"XNAS", "XNYS", "PINX"}

// Client downloads key-ratio exports.
type Client struct {
	http      *xhttp.Client
	baseURL   string
	exchanges []string
	region    string
	culture   string
	log       *applogger.Logger
	metrics   domrepo.Metrics
	now       func() time.Time
}

// Option configures Client.
type Option func(*Client)

// WithExchanges overrides the exchange fallback order.
func WithExchanges(ex []string) Option {
	return func(c *Client) {
		if len(ex) > 0 {
			c.exchanges = ex
		}
	}
}

// WithLocale sets the region and culture query parameters.
func WithLocale(region, culture string) Option {
	return func(c *Client) {
		if region != "" {
			c.region = region
		}
		if culture != "" {
			c.culture = culture
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m domrepo.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a key-ratio client backed by hc.
func New(hc *xhttp.Client, baseURL string, opts ...Option) *Client {
	c := &Client{
		http:      hc,
		baseURL:   baseURL,
		exchanges: DefaultExchanges,
		region:    "usa",
		culture:   "en-US",
		log:       applogger.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// KeyRatios downloads and parses the key-ratio table for ticker, trying each
// configured exchange until one returns a non-empty table.
func (c *Client) KeyRatios(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("%w: empty ticker", domrepo.ErrTickerNotFound)
	}

	var lastErr error
	for _, ex := range c.exchanges {
		body, err := c.download(ctx, ex, ticker)
		if err != nil {
			var se *xhttp.StatusError
			if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.log.Warn("key ratio download failed",
				applogger.String("ticker", ticker),
				applogger.String("exchange", ex),
				applogger.Error(err),
			)
			continue
		}
		if len(strings.TrimSpace(string(body))) == 0 {
			c.log.Debug("key ratio not listed", applogger.String("ticker", ticker), applogger.String("exchange", ex))
			continue
		}

		f, err := ParseKeyRatios(body)
		if err != nil {
			if errors.Is(err, ErrNoTable) {
				continue
			}
			c.record("error")
			return nil, fmt.Errorf("%w: parse key ratios for %s: %v", domrepo.ErrUpstream, ticker, err)
		}
		f.Ticker = ticker
		f.Exchange = ex
		f.FetchedAt = c.now().UTC()
		c.record("ok")
		c.log.Info("key ratios loaded",
			applogger.String("ticker", ticker),
			applogger.String("exchange", ex),
			applogger.Int("periods", len(f.Periods)),
			applogger.Int("columns", len(f.Columns)),
		)
		return f, nil
	}

	if lastErr != nil {
		c.record("error")
		return nil, fmt.Errorf("%w: key ratios for %s: %v", domrepo.ErrUpstream, ticker, lastErr)
	}
	c.record("not_found")
	return nil, fmt.Errorf("%w: %s on %s", domrepo.ErrTickerNotFound, ticker, strings.Join(c.exchanges, ", "))
}

func (c *Client) download(ctx context.Context, exchange, ticker string) ([]byte, error) {
	var body []byte
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL,
		QueryParams: url.Values{
			"t":       {exchange + ":" + ticker},
			"region":  {c.region},
			"culture": {c.culture},
			"cur":     {""},
			"order":   {"asc"},
		},
		Headers: map[string]string{"Accept": "text/csv, text/plain, */*"},
	}, &body)
	return body, err
}

func (c *Client) record(outcome string) {
	if c.metrics != nil {
		c.metrics.RecordFetch("key_ratios", outcome)
	}
}
