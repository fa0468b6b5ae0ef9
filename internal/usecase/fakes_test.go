package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"FinValue/internal/domain/models"
	domrepo "FinValue/internal/domain/repository"
)

type fakeFundamentals struct {
	table       *models.Fundamentals
	err         error
	calls       int
	invalidated []string
}

func (f *fakeFundamentals) KeyRatios(_ context.Context, ticker string) (*models.Fundamentals, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	t := *f.table
	t.Ticker = ticker
	return &t, nil
}

func (f *fakeFundamentals) Invalidate(_ context.Context, ticker string) error {
	f.invalidated = append(f.invalidated, ticker)
	return nil
}

type fakeProfiles struct {
	profile *models.Profile
	err     error
}

func (f *fakeProfiles) Profile(_ context.Context, ticker string) (*models.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := *f.profile
	p.Ticker = ticker
	return &p, nil
}

type fakeQuotes struct {
	price float64
	err   error
}

func (f *fakeQuotes) LastQuote(_ context.Context, symbol string) (*models.Quote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Quote{Symbol: symbol, Price: f.price, Timestamp: time.Unix(1700000000, 0)}, nil
}

type fakePublisher struct {
	reports []*models.ValuationReport
	err     error
}

func (f *fakePublisher) PublishReport(_ context.Context, r *models.ValuationReport) error {
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, r)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	mu         sync.Mutex
	valuations map[string]int
	errs       map[string]int
	publishes  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{valuations: map[string]int{}, errs: map[string]int{}, publishes: map[string]int{}}
}

func (m *fakeMetrics) RecordValuation(model, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.valuations[model+"/"+outcome]++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[kind]++
}

func (m *fakeMetrics) RecordFetch(string, string)      {}
func (m *fakeMetrics) RecordLastPrice(string, float64) {}
func (m *fakeMetrics) RecordLatency(string, float64)   {}

func (m *fakeMetrics) RecordPublish(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishes[outcome]++
}

var _ domrepo.Metrics = (*fakeMetrics)(nil)

var errBoom = errors.New("boom")

func tablePeriods() []string {
	return []string{"2013-12", "2014-12", "2015-12", "2016-12", "2017-12", "2018-12", "2019-12", "2020-12", "2021-12", "2022-12", "TTM"}
}

// sampleTable is an eleven-period key-ratio table with steadily growing
// cash flow, earnings and dividends.
func sampleTable() *models.Fundamentals {
	n := len(tablePeriods())
	fcf := make([]float64, n)
	eps := make([]float64, n)
	div := make([]float64, n)
	shares := make([]float64, n)
	for i := 0; i < n; i++ {
		fcf[i] = 1000 * math.Pow(1.06, float64(i))
		eps[i] = 2 + 0.25*float64(i)
		div[i] = 0.5 + 0.05*float64(i)
		shares[i] = 500
	}
	return &models.Fundamentals{
		Exchange: "XNAS",
		Periods:  tablePeriods(),
		Columns: []string{
			domrepo.ColumnFreeCashFlow, domrepo.ColumnEPS, domrepo.ColumnDividends,
			domrepo.ColumnShares, domrepo.ColumnNetMargin,
		},
		Rows: map[string][]float64{
			domrepo.ColumnFreeCashFlow: fcf,
			domrepo.ColumnEPS:          eps,
			domrepo.ColumnDividends:    div,
			domrepo.ColumnShares:       shares,
			domrepo.ColumnNetMargin:    {20, 21, math.NaN(), 22, 23, 21, 20, 24, 25, 26, 25},
		},
	}
}

func testDefaults() ValuationDefaults {
	return ValuationDefaults{
		Rate1: 0.08, Rate2: 0.04, Discount: 0.1, RiskFreeRate: 0.025,
		Growth1: 0.05, Period1: 5, Growth2: 0.03, Period2: 5, TerminalGrowth: 0.02,
	}
}
