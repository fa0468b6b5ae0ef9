package profile

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"FinValue/internal/domain/models"
	domrepo "FinValue/internal/domain/repository"
	xhttp "FinValue/pkg/http"
	applogger "FinValue/pkg/logger"

	"github.com/PuerkitoBio/goquery"
)

// Scraper reads beta and shares outstanding from a quote snapshot page laid
// out as alternating label/value table cells.
type Scraper struct {
	http    *xhttp.Client
	baseURL string
	log     *applogger.Logger
	metrics domrepo.Metrics
}

// New creates a profile scraper.
func New(hc *xhttp.Client, baseURL string, l *applogger.Logger, m domrepo.Metrics) *Scraper {
	if l == nil {
		l = applogger.Nop()
	}
	return &Scraper{http: hc, baseURL: baseURL, log: l, metrics: m}
}

// Profile fetches and parses the snapshot page for ticker.
func (s *Scraper) Profile(ctx context.Context, ticker string) (*models.Profile, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	var body []byte
	err := s.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         s.baseURL,
		QueryParams: url.Values{"t": {ticker}},
		Headers:     map[string]string{"Accept": "text/html"},
	}, &body)
	if err != nil {
		s.record("error")
		return nil, fmt.Errorf("%w: profile page for %s: %v", domrepo.ErrUpstream, ticker, err)
	}

	p, err := ParseSnapshot(body)
	if err != nil {
		s.record("error")
		return nil, fmt.Errorf("profile %s: %w", ticker, err)
	}
	p.Ticker = ticker
	s.record("ok")
	s.log.Debug("profile loaded",
		applogger.String("ticker", ticker),
		applogger.Float64("beta", p.Beta),
		applogger.Float64("shares_mil", p.Shares),
	)
	return p, nil
}

// ParseSnapshot extracts the profile fields from a snapshot page. Shares are
// returned in millions.
func ParseSnapshot(page []byte) (*models.Profile, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	p := &models.Profile{Beta: math.NaN(), Shares: math.NaN()}
	p.CompanyName = strings.TrimSpace(doc.Find("[data-company-name], .quote-header_ticker-wrapper_company").First().Text())

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		cells := table.Find("td")
		cells.Each(func(i int, cell *goquery.Selection) {
			if i+1 >= cells.Length() {
				return
			}
			label := strings.TrimSpace(cell.Text())
			value := strings.TrimSpace(cells.Eq(i + 1).Text())
			switch label {
			case "Beta":
				if v, ok := parseScaled(value); ok && math.IsNaN(p.Beta) {
					p.Beta = v
				}
			case "Shs Outstand", "Shares Outstanding":
				if v, ok := parseScaled(value); ok && math.IsNaN(p.Shares) {
					p.Shares = v / 1e6
				}
			}
		})
	})

	if math.IsNaN(p.Beta) && math.IsNaN(p.Shares) {
		return nil, fmt.Errorf("%w: snapshot has neither beta nor shares outstanding", domrepo.ErrUpstream)
	}
	return p, nil
}

// parseScaled parses numbers such as "1.24", "15.73B", "820.5M" or "12K"
// into absolute values.
func parseScaled(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	mult := 1.0
	switch s[len(s)-1] {
	case 'T', 't':
		mult = 1e12
	case 'B', 'b':
		mult = 1e9
	case 'M', 'm':
		mult = 1e6
	case 'K', 'k':
		mult = 1e3
	}
	if mult != 1 {
		s = s[:len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}

func (s *Scraper) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordFetch("profile", outcome)
	}
}
