package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Requests for valuation HTTP endpoints. Pointer fields distinguish an
// explicit zero from an omitted value.

type DCFRequest struct {
	History  []float64 `json:"history" validate:"required"`
	Rate1    *float64  `json:"rate1" validate:"required"`
	Rate2    *float64  `json:"rate2" validate:"required"`
	Discount *float64  `json:"discount" validate:"required"`
	Shares   float64   `json:"shares" validate:"required"`
	Beta     *float64  `json:"beta" validate:"required"`
	Seed     *uint64   `json:"seed,omitempty"`
}

type EarningsRequest struct {
	EPS                    []float64 `json:"eps" validate:"required"`
	Growth                 *float64  `json:"growth" validate:"required"`
	RiskFreeRate           *float64  `json:"risk_free_rate,omitempty"`
	ConservativeBase       bool      `json:"conservative_base"`
	ConservativeMultiplier bool      `json:"conservative_multiplier"`
	UseAverage             *bool     `json:"use_average,omitempty"`
}

type DividendRequest struct {
	CurrentDividend *float64 `json:"current_dividend" validate:"required"`
	Discount        *float64 `json:"discount" validate:"required"`
	Growth1         *float64 `json:"growth1" validate:"required"`
	Period1         int      `json:"period1" default:"5" validate:"gte=1,lte=100"`
	Growth2         *float64 `json:"growth2" validate:"required"`
	Period2         int      `json:"period2" default:"5" validate:"gte=1,lte=100"`
	TerminalGrowth  *float64 `json:"terminal_growth" validate:"required"`
}

type GordonRequest struct {
	CurrentDividend *float64 `json:"current_dividend" validate:"required"`
	Growth          *float64 `json:"growth" validate:"required"`
	Discount        *float64 `json:"discount" validate:"required"`
}

type ReportRequest struct {
	Ticker    string `query:"ticker" json:"ticker" validate:"required,ticker"`
	Seed      uint64 `query:"seed" json:"seed"`
	DropTTM   bool   `query:"drop_ttm" json:"drop_ttm"`
	SkipQuote bool   `query:"skip_quote" json:"skip_quote"`
	Refresh   bool   `query:"refresh" json:"refresh"`
}

// SeriesRequest keeps the TTM observation unless ttm is "false".
type SeriesRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,ticker"`
	Column string `query:"column" json:"column" validate:"required"`
	TTM    string `query:"ttm" json:"ttm" validate:"omitempty,oneof=true false 1 0"`
}

type OverviewRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,ticker"`
}

// Responses. Per-share amounts are rounded to cents.

type DistributionResponse struct {
	Count  int             `json:"count"`
	Mean   decimal.Decimal `json:"mean"`
	StdDev decimal.Decimal `json:"std_dev"`
	Min    decimal.Decimal `json:"min"`
	P5     decimal.Decimal `json:"p5"`
	Median decimal.Decimal `json:"median"`
	P95    decimal.Decimal `json:"p95"`
	Max    decimal.Decimal `json:"max"`
}

type DCFResponse struct {
	Periods       []string             `json:"periods,omitempty"`
	CAGR          *float64             `json:"cagr"`
	CAPMRate      float64              `json:"capm_rate"`
	Rate1         float64              `json:"rate1"`
	Rate2         float64              `json:"rate2"`
	Discount      float64              `json:"discount"`
	Beta          float64              `json:"beta"`
	Shares        float64              `json:"shares"`
	Seed          uint64               `json:"seed,string"`
	Estimates     []float64            `json:"estimates,omitempty"`
	CAPMEstimates []float64            `json:"capm_estimates,omitempty"`
	Value         DistributionResponse `json:"value"`
	CAPMValue     DistributionResponse `json:"capm_value"`
}

type EarningsResponse struct {
	Period        string           `json:"period,omitempty"`
	LatestEPS     float64          `json:"latest_eps"`
	AverageEPS    float64          `json:"average_eps"`
	Growth        float64          `json:"growth"`
	RiskFreeRate  float64          `json:"risk_free_rate"`
	Value         decimal.Decimal  `json:"value"`
	AdjustedValue *decimal.Decimal `json:"adjusted_value,omitempty"`
}

type DividendResponse struct {
	CurrentDividend float64          `json:"current_dividend"`
	Discount        float64          `json:"discount"`
	GordonValue     *decimal.Decimal `json:"gordon_value,omitempty"`
	MultiStageValue *decimal.Decimal `json:"multi_stage_value,omitempty"`
}

type ValueResponse struct {
	Value decimal.Decimal `json:"value"`
}

type QuoteResponse struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

type ReportResponse struct {
	ID             string            `json:"id"`
	Ticker         string            `json:"ticker"`
	Exchange       string            `json:"exchange,omitempty"`
	CompanyName    string            `json:"company_name,omitempty"`
	GeneratedAt    time.Time         `json:"generated_at"`
	DCF            *DCFResponse      `json:"dcf,omitempty"`
	Earnings       *EarningsResponse `json:"earnings,omitempty"`
	Dividend       *DividendResponse `json:"dividend,omitempty"`
	Quote          *QuoteResponse    `json:"quote,omitempty"`
	MarginOfSafety *float64          `json:"margin_of_safety,omitempty"`
	Errors         map[string]string `json:"errors,omitempty"`
}

// SeriesResponse carries missing observations as JSON null.
type SeriesResponse struct {
	Name    string     `json:"name"`
	Periods []string   `json:"periods"`
	Values  []*float64 `json:"values"`
}

type OverviewResponse struct {
	Ticker   string           `json:"ticker"`
	Exchange string           `json:"exchange,omitempty"`
	Series   []SeriesResponse `json:"series"`
	Missing  []string         `json:"missing,omitempty"`
}

// Money rounds a per-share amount to cents.
func Money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func moneyPtr(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := Money(*v)
	return &d
}

func NewDistributionResponse(d Distribution) DistributionResponse {
	return DistributionResponse{
		Count:  d.Count,
		Mean:   Money(d.Mean),
		StdDev: Money(d.StdDev),
		Min:    Money(d.Min),
		P5:     Money(d.P5),
		Median: Money(d.Median),
		P95:    Money(d.P95),
		Max:    Money(d.Max),
	}
}

// NewDCFResponse converts a DCF summary. Raw trial arrays are included only
// when withTrials is set.
func NewDCFResponse(s *DCFSummary, withTrials bool) *DCFResponse {
	if s == nil {
		return nil
	}
	out := &DCFResponse{
		Periods:   s.Periods,
		CAGR:      s.CAGR,
		CAPMRate:  s.CAPMRate,
		Rate1:     s.Rate1,
		Rate2:     s.Rate2,
		Discount:  s.Discount,
		Beta:      s.Beta,
		Shares:    s.Shares,
		Seed:      s.Seed,
		Value:     NewDistributionResponse(s.Value),
		CAPMValue: NewDistributionResponse(s.CAPMValue),
	}
	if withTrials {
		out.Estimates = s.Estimates
		out.CAPMEstimates = s.CAPMEstimates
	}
	return out
}

func NewEarningsResponse(s *EarningsSummary) *EarningsResponse {
	if s == nil {
		return nil
	}
	return &EarningsResponse{
		Period:        s.Period,
		LatestEPS:     s.LatestEPS,
		AverageEPS:    s.AverageEPS,
		Growth:        s.Growth,
		RiskFreeRate:  s.RiskFreeRate,
		Value:         Money(s.Value),
		AdjustedValue: moneyPtr(s.AdjustedValue),
	}
}

func NewDividendResponse(s *DividendSummary) *DividendResponse {
	if s == nil {
		return nil
	}
	return &DividendResponse{
		CurrentDividend: s.CurrentDividend,
		Discount:        s.Discount,
		GordonValue:     moneyPtr(s.GordonValue),
		MultiStageValue: moneyPtr(s.MultiStageValue),
	}
}

// NewReportResponse converts a report for transport. Trial arrays are
// omitted to keep the payload small.
func NewReportResponse(r *ValuationReport) *ReportResponse {
	out := &ReportResponse{
		ID:             r.ID,
		Ticker:         r.Ticker,
		Exchange:       r.Exchange,
		CompanyName:    r.CompanyName,
		GeneratedAt:    r.GeneratedAt,
		DCF:            NewDCFResponse(r.DCF, false),
		Earnings:       NewEarningsResponse(r.Earnings),
		Dividend:       NewDividendResponse(r.Dividend),
		MarginOfSafety: r.MarginOfSafety,
		Errors:         r.Errors,
	}
	if r.Quote != nil {
		out.Quote = &QuoteResponse{Symbol: r.Quote.Symbol, Price: Money(r.Quote.Price), Timestamp: r.Quote.Timestamp}
	}
	return out
}

func NewSeriesResponse(s Series) SeriesResponse {
	vals := make([]*float64, len(s.Values))
	for i, v := range s.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		v := v
		vals[i] = &v
	}
	return SeriesResponse{Name: s.Name, Periods: s.Periods, Values: vals}
}

func NewOverviewResponse(o *Overview) *OverviewResponse {
	out := &OverviewResponse{Ticker: o.Ticker, Exchange: o.Exchange, Missing: o.Missing}
	out.Series = make([]SeriesResponse, 0, len(o.Series))
	for _, s := range o.Series {
		out.Series = append(out.Series, NewSeriesResponse(s))
	}
	return out
}
