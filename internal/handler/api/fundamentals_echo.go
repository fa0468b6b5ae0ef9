package api

import (
	"FinValue/internal/domain/models"
	"FinValue/internal/service/metrics"
	"FinValue/internal/service/ratelimit"
	"FinValue/internal/usecase"
	xhttp "FinValue/pkg/http"
	applogger "FinValue/pkg/logger"

	"github.com/labstack/echo/v4"
)

// FundamentalsEchoHandler serves raw key-ratio series.
type FundamentalsEchoHandler struct {
	logger *applogger.Logger
	uc     *usecase.FundamentalsUseCase
	rl     *ratelimit.Limiter
}

func NewFundamentalsEchoHandler(logger *applogger.Logger, uc *usecase.FundamentalsUseCase, rl *ratelimit.Limiter) *FundamentalsEchoHandler {
	metrics.Register()
	if logger == nil {
		logger = applogger.Nop()
	}
	return &FundamentalsEchoHandler{logger: logger, uc: uc, rl: rl}
}

func (h *FundamentalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/fundamentals")
	g.GET("/series", h.Series)
	g.GET("/overview", h.Overview)
}

func (h *FundamentalsEchoHandler) Series(c echo.Context) error {
	ep, ok := begin(c, h.logger, h.rl, "series")
	if !ok {
		return ep.rateLimited(c)
	}
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return ep.badRequest(c, verr)
	}
	withTTM := xhttp.ParseBoolDefault(req.TTM, true)
	s, err := h.uc.Series(c.Request().Context(), req.Ticker, req.Column, !withTTM)
	if err != nil {
		return ep.fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return ep.ok(c, models.NewSeriesResponse(*s))
}

func (h *FundamentalsEchoHandler) Overview(c echo.Context) error {
	ep, ok := begin(c, h.logger, h.rl, "overview")
	if !ok {
		return ep.rateLimited(c)
	}
	req := &models.OverviewRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return ep.badRequest(c, verr)
	}
	o, err := h.uc.Overview(c.Request().Context(), req.Ticker)
	if err != nil {
		return ep.fail(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return ep.ok(c, models.NewOverviewResponse(o))
}
