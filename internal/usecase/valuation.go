package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"FinValue/internal/domain/models"
	domrepo "FinValue/internal/domain/repository"
	"FinValue/internal/services/features"
	"FinValue/internal/services/valuation"
	applogger "FinValue/pkg/logger"

	"github.com/google/uuid"
)

var (
	// ErrSeriesNotFound is returned when a key-ratio table lacks a metric.
	ErrSeriesNotFound = errors.New("series not found")
	// ErrNoValuation is returned when no model could run for a ticker.
	ErrNoValuation = errors.New("no valuation model could run")
)

// DefaultBeta is assumed when no beta is supplied or scraped.
const DefaultBeta = 1.0

// ValuationDefaults are the rates used when a report request does not
// override them.
type ValuationDefaults struct {
	Rate1          float64
	Rate2          float64
	Discount       float64
	RiskFreeRate   float64
	Growth1        float64
	Period1        int
	Growth2        float64
	Period2        int
	TerminalGrowth float64
}

// ReportParams selects the ticker and optional overrides of a report.
type ReportParams struct {
	Ticker    string
	Seed      uint64 // 0 draws a random seed
	Shares    *float64
	Beta      *float64
	Growth    *float64 // projected EPS growth for the Graham formula
	DropTTM   bool
	SkipQuote bool
	Refresh   bool
}

type invalidator interface {
	Invalidate(ctx context.Context, ticker string) error
}

type ValuationUseCase struct {
	fundamentals domrepo.FundamentalsSource
	profiles     domrepo.ProfileSource
	quotes       domrepo.QuoteSource
	publisher    domrepo.ReportPublisher
	metrics      domrepo.Metrics
	log          *applogger.Logger
	defaults     ValuationDefaults
	now          func() time.Time
	newSeed      func() uint64
}

// NewValuationUseCase wires the report pipeline. profiles and quotes may be nil.
func NewValuationUseCase(
	fundamentals domrepo.FundamentalsSource,
	profiles domrepo.ProfileSource,
	quotes domrepo.QuoteSource,
	publisher domrepo.ReportPublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	defaults ValuationDefaults,
) *ValuationUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	return &ValuationUseCase{
		fundamentals: fundamentals,
		profiles:     profiles,
		quotes:       quotes,
		publisher:    publisher,
		metrics:      metrics,
		log:          l,
		defaults:     defaults,
		now:          time.Now,
		newSeed:      rand.Uint64,
	}
}

// Defaults returns the configured fallback rates.
func (u *ValuationUseCase) Defaults() ValuationDefaults { return u.defaults }

// DCF runs the discounted cash flow model on explicit inputs. A nil seed
// draws a fresh one; the seed used is returned in the summary.
func (u *ValuationUseCase) DCF(in valuation.DCFInput, seed *uint64) (*models.DCFSummary, error) {
	s := u.seed(seed)
	start := time.Now()
	res, err := valuation.DiscountedCashFlow(in, valuation.NewSource(s))
	var sum *models.DCFSummary
	if err == nil {
		sum = dcfSummary(in, s, res)
		if !sum.Value.Finite() || !sum.CAPMValue.Finite() {
			sum, err = nil, fmt.Errorf("%w: dcf distribution is not finite", valuation.ErrNumericDegeneracy)
		}
	}
	u.observe(models.ModelDCF, start, err)
	return sum, err
}

func dcfSummary(in valuation.DCFInput, seed uint64, res valuation.DCFResult) *models.DCFSummary {
	return &models.DCFSummary{
		CAGR:          res.CAGR,
		Rate1:         in.Rate1,
		Rate2:         in.Rate2,
		Discount:      in.Discount,
		CAPMRate:      res.CAPMRate,
		Beta:          in.Beta,
		Shares:        in.Shares,
		Seed:          seed,
		Estimates:     res.Estimates,
		CAPMEstimates: res.CAPMEstimates,
		Value:         features.Summarize(res.Estimates),
		CAPMValue:     features.Summarize(res.CAPMEstimates),
	}
}

// Earnings runs the Graham formula on an explicit EPS history.
func (u *ValuationUseCase) Earnings(eps []float64, growth float64, opts valuation.GrahamOptions) (*models.EarningsSummary, error) {
	start := time.Now()
	res, err := valuation.EarningsValue(eps, growth, opts)
	u.observe(models.ModelEarnings, start, err)
	if err != nil {
		return nil, err
	}
	return &models.EarningsSummary{
		LatestEPS:     eps[len(eps)-1],
		AverageEPS:    features.Mean(eps),
		Growth:        growth,
		RiskFreeRate:  opts.RiskFreeRate,
		Value:         res.Value,
		AdjustedValue: res.AdjustedValue,
	}, nil
}

// Dividend runs the multi-stage dividend discount model.
func (u *ValuationUseCase) Dividend(in valuation.DividendStages) (float64, error) {
	start := time.Now()
	v, err := valuation.DividendDiscount(in)
	u.observe(models.ModelMultiStage, start, err)
	return v, err
}

// Gordon runs the constant-growth dividend model.
func (u *ValuationUseCase) Gordon(currentDiv, growth, discount float64) (float64, error) {
	start := time.Now()
	v, err := valuation.GordonGrowth(currentDiv, growth, discount)
	u.observe(models.ModelGordon, start, err)
	return v, err
}

// Report fetches a ticker's key ratios and runs every model its data
// supports. A model that cannot run is recorded in report.Errors; the call
// fails only if the fetch fails or no model ran.
func (u *ValuationUseCase) Report(ctx context.Context, p ReportParams) (*models.ValuationReport, error) {
	start := time.Now()
	ticker := normalizeTicker(p.Ticker)

	if p.Refresh {
		if inv, ok := u.fundamentals.(invalidator); ok {
			if err := inv.Invalidate(ctx, ticker); err != nil {
				u.log.Warn("key ratio cache invalidate failed", applogger.String("ticker", ticker), applogger.Error(err))
			}
		}
	}

	f, err := u.fundamentals.KeyRatios(ctx, ticker)
	if err != nil {
		u.recordError("fetch")
		return nil, fmt.Errorf("fetch key ratios: %w", err)
	}

	report := &models.ValuationReport{
		ID:          uuid.NewString(),
		Ticker:      ticker,
		Exchange:    f.Exchange,
		GeneratedAt: u.now().UTC(),
		Errors:      make(map[string]string),
	}

	shares, beta := u.resolveCompanyInputs(ctx, f, p, report)

	if s, err := u.reportDCF(f, p, shares, beta); err != nil {
		report.Errors[models.ModelDCF] = err.Error()
	} else {
		report.DCF = s
	}

	if s, err := u.reportEarnings(f, p); err != nil {
		report.Errors[models.ModelEarnings] = err.Error()
	} else {
		report.Earnings = s
	}

	report.Dividend = u.reportDividend(f, p, report.Errors)

	if report.DCF == nil && report.Earnings == nil && report.Dividend == nil {
		u.recordError("no_valuation")
		return nil, fmt.Errorf("%w for %s: %s", ErrNoValuation, ticker, joinErrors(report.Errors))
	}

	if u.quotes != nil && !p.SkipQuote {
		q, err := u.quotes.LastQuote(ctx, ticker)
		if err != nil {
			report.Errors[models.ModelQuote] = err.Error()
		} else {
			report.Quote = q
			report.MarginOfSafety = marginOfSafety(report.DCF, q)
		}
	}

	if len(report.Errors) == 0 {
		report.Errors = nil
	}

	if u.publisher != nil {
		if err := u.publisher.PublishReport(ctx, report); err != nil {
			u.log.Error("publish report failed",
				applogger.String("ticker", ticker),
				applogger.String("report_id", report.ID),
				applogger.Error(err),
			)
			u.recordPublish("error")
		} else {
			u.recordPublish("ok")
		}
	}

	if u.metrics != nil {
		u.metrics.RecordLatency("report", time.Since(start).Seconds())
	}
	u.log.Info("valuation report generated",
		applogger.String("ticker", ticker),
		applogger.String("report_id", report.ID),
		applogger.Int("model_errors", len(report.Errors)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return report, nil
}

// resolveCompanyInputs picks shares and beta from overrides, the scraped
// profile, or the key-ratio table, in that order.
func (u *ValuationUseCase) resolveCompanyInputs(ctx context.Context, f *models.Fundamentals, p ReportParams, report *models.ValuationReport) (float64, float64) {
	shares, beta := math.NaN(), math.NaN()
	if p.Shares != nil {
		shares = *p.Shares
	}
	if p.Beta != nil {
		beta = *p.Beta
	}

	if (math.IsNaN(shares) || math.IsNaN(beta)) && u.profiles != nil {
		prof, err := u.profiles.Profile(ctx, report.Ticker)
		if err != nil {
			report.Errors[models.ModelProfile] = err.Error()
		} else {
			report.CompanyName = prof.CompanyName
			if math.IsNaN(shares) && prof.Shares > 0 {
				shares = prof.Shares
			}
			if math.IsNaN(beta) && !math.IsNaN(prof.Beta) {
				beta = prof.Beta
			}
		}
	}

	if math.IsNaN(shares) {
		if s, ok := f.Series(domrepo.ColumnShares); ok {
			if v, _, ok := s.Compact().Latest(); ok {
				shares = v
			}
		}
	}
	if math.IsNaN(beta) {
		beta = DefaultBeta
	}
	return shares, beta
}

func (u *ValuationUseCase) reportDCF(f *models.Fundamentals, p ReportParams, shares, beta float64) (*models.DCFSummary, error) {
	s, err := extract(f, domrepo.ColumnFreeCashFlow, p.DropTTM)
	if err != nil {
		u.observe(models.ModelDCF, time.Now(), err)
		return nil, err
	}
	if math.IsNaN(shares) {
		err := fmt.Errorf("%w: shares outstanding unavailable", valuation.ErrInvalidParameter)
		u.observe(models.ModelDCF, time.Now(), err)
		return nil, err
	}
	var seed *uint64
	if p.Seed != 0 {
		seed = &p.Seed
	}
	sum, err := u.DCF(valuation.DCFInput{
		History:  s.Values,
		Rate1:    u.defaults.Rate1,
		Rate2:    u.defaults.Rate2,
		Discount: u.defaults.Discount,
		Shares:   shares,
		Beta:     beta,
	}, seed)
	if err != nil {
		return nil, err
	}
	sum.Periods = s.Periods
	return sum, nil
}

func (u *ValuationUseCase) reportEarnings(f *models.Fundamentals, p ReportParams) (*models.EarningsSummary, error) {
	s, err := extract(f, domrepo.ColumnEPS, p.DropTTM)
	if err != nil {
		u.observe(models.ModelEarnings, time.Now(), err)
		return nil, err
	}
	growth := u.defaults.Rate1
	if p.Growth != nil {
		growth = *p.Growth
	}
	opts := valuation.DefaultGrahamOptions()
	if u.defaults.RiskFreeRate != 0 {
		opts.RiskFreeRate = u.defaults.RiskFreeRate
	}
	sum, err := u.Earnings(s.Values, growth, opts)
	if err != nil {
		return nil, err
	}
	_, sum.Period, _ = s.Latest()
	return sum, nil
}

func (u *ValuationUseCase) reportDividend(f *models.Fundamentals, p ReportParams, errs map[string]string) *models.DividendSummary {
	s, err := extract(f, domrepo.ColumnDividends, p.DropTTM)
	if err == nil && s.Len() == 0 {
		err = fmt.Errorf("%w: %s has no observations", ErrSeriesNotFound, domrepo.ColumnDividends)
	}
	if err != nil {
		errs[models.ModelGordon] = err.Error()
		errs[models.ModelMultiStage] = err.Error()
		return nil
	}
	d0, _, _ := s.Latest()
	if d0 <= 0 {
		// non-payers are not valued by the dividend models
		err := fmt.Errorf("%w: latest dividend is %g", valuation.ErrInvalidParameter, d0)
		errs[models.ModelGordon] = err.Error()
		errs[models.ModelMultiStage] = err.Error()
		return nil
	}
	d := u.defaults
	out := &models.DividendSummary{CurrentDividend: d0, Discount: d.Discount}

	if v, err := u.Gordon(d0, d.TerminalGrowth, d.Discount); err != nil {
		errs[models.ModelGordon] = err.Error()
	} else {
		out.GordonValue = &v
	}

	v, err := u.Dividend(valuation.DividendStages{
		CurrentDividend: d0,
		Discount:        d.Discount,
		Growth1:         d.Growth1,
		Period1:         d.Period1,
		Growth2:         d.Growth2,
		Period2:         d.Period2,
		TerminalGrowth:  d.TerminalGrowth,
	})
	if err != nil {
		errs[models.ModelMultiStage] = err.Error()
	} else {
		out.MultiStageValue = &v
	}

	if out.GordonValue == nil && out.MultiStageValue == nil {
		return nil
	}
	return out
}

// extract returns the named metric without missing observations.
func extract(f *models.Fundamentals, column string, dropTTM bool) (models.Series, error) {
	s, ok := f.Series(column)
	if !ok {
		return models.Series{}, fmt.Errorf("%w: %s", ErrSeriesNotFound, column)
	}
	if dropTTM {
		s = s.WithoutTTM()
	}
	return s.Compact(), nil
}

func marginOfSafety(dcf *models.DCFSummary, q *models.Quote) *float64 {
	if dcf == nil || q == nil || q.Price <= 0 {
		return nil
	}
	m := (dcf.Value.Median - q.Price) / q.Price
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return nil
	}
	return &m
}

func (u *ValuationUseCase) seed(s *uint64) uint64 {
	if s != nil {
		return *s
	}
	return u.newSeed()
}

func (u *ValuationUseCase) observe(model string, start time.Time, err error) {
	if u.metrics == nil {
		return
	}
	u.metrics.RecordValuation(model, ErrorKind(err))
	u.metrics.RecordLatency(model, time.Since(start).Seconds())
}

func (u *ValuationUseCase) recordError(kind string) {
	if u.metrics != nil {
		u.metrics.RecordError(kind)
	}
}

func (u *ValuationUseCase) recordPublish(outcome string) {
	if u.metrics != nil {
		u.metrics.RecordPublish(outcome)
	}
}

// ErrorKind classifies an error for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, valuation.ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, valuation.ErrInvalidParameter):
		return "invalid_parameter"
	case errors.Is(err, valuation.ErrNumericDegeneracy):
		return "numeric_degeneracy"
	case errors.Is(err, ErrSeriesNotFound):
		return "series_not_found"
	case errors.Is(err, domrepo.ErrTickerNotFound):
		return "ticker_not_found"
	case errors.Is(err, domrepo.ErrUpstream):
		return "upstream"
	default:
		return "error"
	}
}

func joinErrors(m map[string]string) string {
	parts := make([]string, 0, len(m))
	for _, k := range []string{models.ModelDCF, models.ModelEarnings, models.ModelGordon, models.ModelMultiStage} {
		if v, ok := m[k]; ok {
			parts = append(parts, k+": "+v)
		}
	}
	return strings.Join(parts, "; ")
}
