package api

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	domrepo "FinValue/internal/domain/repository"
	"FinValue/internal/service/metrics"
	"FinValue/internal/service/ratelimit"
	"FinValue/internal/services/valuation"
	"FinValue/internal/usecase"
	xhttp "FinValue/pkg/http"
	applogger "FinValue/pkg/logger"
	xutil "FinValue/pkg/util"

	"github.com/labstack/echo/v4"
)

// toAppError maps domain and collaborator errors onto HTTP errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, valuation.ErrInsufficientHistory):
		return xhttp.NewAppError("ERR_INSUFFICIENT_HISTORY", "", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.Is(err, valuation.ErrInvalidParameter):
		return xhttp.NewAppError("ERR_INVALID_PARAMETER", "", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.Is(err, valuation.ErrNumericDegeneracy):
		return xhttp.NewAppError("ERR_NUMERIC_DEGENERACY", "", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.Is(err, usecase.ErrNoValuation):
		return xhttp.UnprocessableError("ERR_NO_VALUATION", err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrSeriesNotFound):
		return xhttp.NewAppError("ERR_SERIES_NOT_FOUND", "column", err.Error(), http.StatusNotFound).WithError(err)
	case errors.Is(err, domrepo.ErrTickerNotFound):
		return xhttp.NewAppError("ERR_TICKER_NOT_FOUND", "ticker", err.Error(), http.StatusNotFound).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.NewAppError("ERR_TIMEOUT", "", "upstream timed out", http.StatusGatewayTimeout).WithError(err)
	case errors.Is(err, domrepo.ErrUpstream):
		return xhttp.BadGatewayError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}

// endpoint carries the per-route concerns shared by every handler.
type endpoint struct {
	name  string
	start time.Time
	log   *applogger.Logger
}

func begin(c echo.Context, l *applogger.Logger, rl *ratelimit.Limiter, name string) (*endpoint, bool) {
	ep := &endpoint{name: name, start: time.Now(), log: l}
	if !rl.Allow(c.RealIP() + ":" + name) {
		metrics.RateLimited.WithLabelValues(name).Inc()
		l.Warn("request rate limited", applogger.String("endpoint", name), applogger.String("remote", c.RealIP()))
		return ep, false
	}
	return ep, true
}

func (ep *endpoint) done() {
	metrics.ValuationLatency.WithLabelValues(ep.name).Observe(time.Since(ep.start).Seconds())
}

func (ep *endpoint) rateLimited(c echo.Context) error {
	ep.done()
	appErr := xhttp.NewAppError("ERR_RATE_LIMITED", "", "too many requests", http.StatusTooManyRequests)
	return xhttp.DataResponse(c, appErr.Status, []*xhttp.AppError{appErr})
}

func (ep *endpoint) badRequest(c echo.Context, verr interface{}) error {
	ep.done()
	metrics.ValuationErrors.WithLabelValues(ep.name, "ERR_VALIDATION").Inc()
	return xhttp.BadRequestResponse(c, verr)
}

func (ep *endpoint) fail(c echo.Context, err error) error {
	ep.done()
	appErr := toAppError(err)
	metrics.ValuationErrors.WithLabelValues(ep.name, appErr.Code).Inc()
	if appErr.Status >= http.StatusInternalServerError {
		ep.log.Error(ep.name+" failed", applogger.String("code", appErr.Code), applogger.Error(err))
	} else {
		ep.log.Debug(ep.name+" rejected", applogger.String("code", appErr.Code), applogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func (ep *endpoint) ok(c echo.Context, data interface{}) error {
	ep.done()
	return xhttp.SuccessResponse(c, data)
}

// floatParam reads an optional numeric query parameter.
func floatParam(c echo.Context, name string) *float64 {
	v := xutil.ParseFloatDefault(c.QueryParam(name), math.NaN())
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
