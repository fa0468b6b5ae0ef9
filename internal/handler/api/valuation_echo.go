package api

import (
	"FinValue/internal/domain/models"
	"FinValue/internal/service/metrics"
	"FinValue/internal/service/ratelimit"
	"FinValue/internal/services/valuation"
	"FinValue/internal/usecase"
	xhttp "FinValue/pkg/http"
	applogger "FinValue/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ValuationEchoHandler serves the valuation models over HTTP.
type ValuationEchoHandler struct {
	logger *applogger.Logger
	uc     *usecase.ValuationUseCase
	rl     *ratelimit.Limiter
}

func NewValuationEchoHandler(logger *applogger.Logger, uc *usecase.ValuationUseCase, rl *ratelimit.Limiter) *ValuationEchoHandler {
	metrics.Register()
	if logger == nil {
		logger = applogger.Nop()
	}
	return &ValuationEchoHandler{logger: logger, uc: uc, rl: rl}
}

func (h *ValuationEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/valuation")
	g.POST("/dcf", h.DCF)
	g.POST("/earnings", h.Earnings)
	g.POST("/dividend", h.Dividend)
	g.POST("/gordon", h.Gordon)
	g.GET("/report", h.Report)
}

func (h *ValuationEchoHandler) DCF(c echo.Context) error {
	ep, ok := begin(c, h.logger, h.rl, "dcf")
	if !ok {
		return ep.rateLimited(c)
	}
	req := &models.DCFRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return ep.badRequest(c, verr)
	}
	res, err := h.uc.DCF(valuation.DCFInput{
		History:  req.History,
		Rate1:    *req.Rate1,
		Rate2:    *req.Rate2,
		Discount: *req.Discount,
		Shares:   req.Shares,
		Beta:     *req.Beta,
	}, req.Seed)
	if err != nil {
		return ep.fail(c, err)
	}
	return ep.ok(c, models.NewDCFResponse(res, true))
}

func (h *ValuationEchoHandler) Earnings(c echo.Context) error {
	ep, ok := begin(c, h.logger, h.rl, "earnings")
	if !ok {
		return ep.rateLimited(c)
	}
	req := &models.EarningsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return ep.badRequest(c, verr)
	}
	opts := valuation.DefaultGrahamOptions()
	opts.ConservativeBase = req.ConservativeBase
	opts.ConservativeMultiplier = req.ConservativeMultiplier
	if req.RiskFreeRate != nil {
		opts.RiskFreeRate = *req.RiskFreeRate
	}
	if req.UseAverage != nil {
		opts.UseAverage = *req.UseAverage
	}
	res, err := h.uc.Earnings(req.EPS, *req.Growth, opts)
	if err != nil {
		return ep.fail(c, err)
	}
	return ep.ok(c, models.NewEarningsResponse(res))
}

func (h *ValuationEchoHandler) Dividend(c echo.Context) error {
	ep, ok := begin(c, h.logger, h.rl, "dividend")
	if !ok {
		return ep.rateLimited(c)
	}
	req := &models.DividendRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return ep.badRequest(c, verr)
	}
	v, err := h.uc.Dividend(valuation.DividendStages{
		CurrentDividend: *req.CurrentDividend,
		Discount:        *req.Discount,
		Growth1:         *req.Growth1,
		Period1:         req.Period1,
		Growth2:         *req.Growth2,
		Period2:         req.Period2,
		TerminalGrowth:  *req.TerminalGrowth,
	})
	if err != nil {
		return ep.fail(c, err)
	}
	return ep.ok(c, models.ValueResponse{Value: models.Money(v)})
}

func (h *ValuationEchoHandler) Gordon(c echo.Context) error {
	ep, ok := begin(c, h.logger, h.rl, "gordon")
	if !ok {
		return ep.rateLimited(c)
	}
	req := &models.GordonRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return ep.badRequest(c, verr)
	}
	v, err := h.uc.Gordon(*req.CurrentDividend, *req.Growth, *req.Discount)
	if err != nil {
		return ep.fail(c, err)
	}
	return ep.ok(c, models.ValueResponse{Value: models.Money(v)})
}

// Report accepts optional beta, shares and growth query overrides next to
// the bound ReportRequest fields.
func (h *ValuationEchoHandler) Report(c echo.Context) error {
	ep, ok := begin(c, h.logger, h.rl, "report")
	if !ok {
		return ep.rateLimited(c)
	}
	req := &models.ReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return ep.badRequest(c, verr)
	}
	report, err := h.uc.Report(c.Request().Context(), usecase.ReportParams{
		Ticker:    req.Ticker,
		Seed:      req.Seed,
		Shares:    floatParam(c, "shares"),
		Beta:      floatParam(c, "beta"),
		Growth:    floatParam(c, "growth"),
		DropTTM:   req.DropTTM,
		SkipQuote: req.SkipQuote,
		Refresh:   req.Refresh,
	})
	if err != nil {
		return ep.fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return ep.ok(c, models.NewReportResponse(report))
}
