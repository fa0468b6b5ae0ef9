package models

import (
	"math"
	"time"
)

// Distribution summarizes a sample of per-share estimates.
type Distribution struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	P5     float64
	Median float64
	P95    float64
	Max    float64
}

// Finite reports whether every statistic is a finite number.
func (d Distribution) Finite() bool {
	for _, v := range []float64{d.Mean, d.StdDev, d.Min, d.P5, d.Median, d.P95, d.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// DCFSummary is the outcome of a discounted cash flow run.
type DCFSummary struct {
	Periods       []string
	CAGR          *float64
	Rate1         float64
	Rate2         float64
	Discount      float64
	CAPMRate      float64
	Beta          float64
	Shares        float64
	Seed          uint64
	Estimates     []float64
	CAPMEstimates []float64
	Value         Distribution
	CAPMValue     Distribution
}

// EarningsSummary is the outcome of the Graham formula.
type EarningsSummary struct {
	Period        string
	LatestEPS     float64
	AverageEPS    float64
	Growth        float64
	RiskFreeRate  float64
	Value         float64
	AdjustedValue *float64
}

// DividendSummary holds the constant-growth and multi-stage dividend values.
type DividendSummary struct {
	CurrentDividend float64
	Discount        float64
	GordonValue     *float64
	MultiStageValue *float64
}

// Valuation model names used as keys in ValuationReport.Errors.
const (
	ModelDCF        = "dcf"
	ModelEarnings   = "earnings"
	ModelGordon     = "gordon"
	ModelMultiStage = "multi_stage_dividend"
	ModelQuote      = "quote"
	ModelProfile    = "profile"
)

// ValuationReport consolidates every model that could be run for a ticker.
// Note: no transport (json/http) concerns here.
type ValuationReport struct {
	ID             string
	Ticker         string
	Exchange       string
	CompanyName    string
	GeneratedAt    time.Time
	DCF            *DCFSummary
	Earnings       *EarningsSummary
	Dividend       *DividendSummary
	Quote          *Quote
	MarginOfSafety *float64
	Errors         map[string]string
}
