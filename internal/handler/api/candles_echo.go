package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"CandlePull/internal/domain/models"
	"CandlePull/internal/service/metrics"
	"CandlePull/internal/service/ratelimit"
	"CandlePull/internal/usecase"
	xhttp "CandlePull/pkg/http"
	applogger "CandlePull/pkg/logger"

	"github.com/labstack/echo/v4"
)

const invalidTimeframeMessage = "Invalid timeframe. Must be 1, 5, 10, 15, 30, or 60"

type CandleFetcher interface {
	Fetch(ctx context.Context, req models.FetchRequest) (*models.FetchResult, error)
}

type TokenRefresher interface {
	Refresh(ctx context.Context) (*models.RefreshResult, error)
	Status(ctx context.Context) (*models.TokenStatusReport, error)
}

type ScheduleRunner interface {
	Run(ctx context.Context) (*models.ScheduleSummary, error)
}

// RateLimit is a per-remote token bucket for the fetch endpoints.
type RateLimit struct {
	Capacity     float64
	RefillPerSec float64
}

// CandlesEchoHandler serves the candle functions.
type CandlesEchoHandler struct {
	logger    *applogger.Logger
	fetcher   CandleFetcher
	refresher TokenRefresher
	scheduler ScheduleRunner
	rl        *ratelimit.Limiter
	limit     RateLimit
}

func NewCandlesEchoHandler(logger *applogger.Logger, fetcher CandleFetcher, refresher TokenRefresher, scheduler ScheduleRunner, limit RateLimit) *CandlesEchoHandler {
	metrics.Register()
	if logger == nil {
		logger = applogger.Nop()
	}
	return &CandlesEchoHandler{
		logger:    logger,
		fetcher:   fetcher,
		refresher: refresher,
		scheduler: scheduler,
		rl:        ratelimit.New(),
		limit:     limit,
	}
}

func (h *CandlesEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/functions/v1")
	g.POST("/fetch-candles", h.FetchCandles)
	g.POST("/fetch-historical-candles", h.FetchHistorical)
	g.POST("/scheduler", h.Scheduler)
	g.POST("/refresh-tokens", h.RefreshTokens)
	g.GET("/token-manager", h.TokenManager)
}

// FetchCandles pulls the latest bars for one timeframe.
func (h *CandlesEchoHandler) FetchCandles(c echo.Context) error {
	const endpoint = "fetch-candles"
	defer observe(endpoint, time.Now())

	if !h.allow(c, endpoint) {
		return h.fail(c, endpoint, xhttp.TooManyRequestsError("rate limited"))
	}
	req := &models.FetchRequest{}
	if verr := xhttp.BindAndValidate(c, req); verr != nil {
		return h.badRequest(c, endpoint, verr)
	}
	return h.fetch(c, endpoint, *req)
}

// FetchHistorical pulls every bar of the last days_back days.
func (h *CandlesEchoHandler) FetchHistorical(c echo.Context) error {
	const endpoint = "fetch-historical-candles"
	defer observe(endpoint, time.Now())

	if !h.allow(c, endpoint) {
		return h.fail(c, endpoint, xhttp.TooManyRequestsError("rate limited"))
	}
	req := &models.HistoricalFetchRequest{}
	if verr := xhttp.BindAndValidate(c, req); verr != nil {
		return h.badRequest(c, endpoint, verr)
	}
	return h.fetch(c, endpoint, models.FetchRequest{
		Timeframe: req.Timeframe,
		Symbol:    req.Symbol,
		DaysBack:  req.DaysBack,
	})
}

func (h *CandlesEchoHandler) fetch(c echo.Context, endpoint string, req models.FetchRequest) error {
	res, err := h.fetcher.Fetch(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidTimeframe) {
			return h.badRequest(c, endpoint, nil)
		}
		h.logger.Error("fetch failed",
			applogger.String("endpoint", endpoint),
			applogger.Int("timeframe", req.Timeframe),
			applogger.Error(err),
		)
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Scheduler runs every due schedule once.
func (h *CandlesEchoHandler) Scheduler(c echo.Context) error {
	const endpoint = "scheduler"
	defer observe(endpoint, time.Now())

	summary, err := h.scheduler.Run(c.Request().Context())
	if err != nil {
		if errors.Is(err, usecase.ErrSchedulerBusy) {
			return h.fail(c, endpoint, xhttp.NewAppError("ERR_BUSY", err.Error(), http.StatusConflict).WithError(err))
		}
		h.logger.Error("scheduler failed", applogger.Error(err))
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, summary)
}

// RefreshTokens renews the cached broker session.
func (h *CandlesEchoHandler) RefreshTokens(c echo.Context) error {
	const endpoint = "refresh-tokens"
	defer observe(endpoint, time.Now())

	res, err := h.refresher.Refresh(c.Request().Context())
	if err != nil {
		h.logger.Error("token refresh failed", applogger.Error(err))
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// TokenManager answers ?action=status with the cached token state per account.
func (h *CandlesEchoHandler) TokenManager(c echo.Context) error {
	const endpoint = "token-manager"
	defer observe(endpoint, time.Now())

	action := c.QueryParam("action")
	if action == "" {
		action = "status"
	}
	if action != "status" {
		return h.fail(c, endpoint, xhttp.BadRequestError("Invalid action. Use: status").
			WithDetails(map[string]string{"action": action}))
	}

	rep, err := h.refresher.Status(c.Request().Context())
	if err != nil {
		h.logger.Error("token status failed", applogger.Error(err))
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, rep)
}

func (h *CandlesEchoHandler) allow(c echo.Context, endpoint string) bool {
	if h.rl.Allow(c.RealIP()+":"+endpoint, h.limit.Capacity, h.limit.RefillPerSec) {
		return true
	}
	metrics.RateLimited.WithLabelValues(endpoint).Inc()
	h.logger.Warn("rate limited", applogger.String("endpoint", endpoint), applogger.String("remote", c.RealIP()))
	return false
}

func (h *CandlesEchoHandler) badRequest(c echo.Context, endpoint string, details interface{}) error {
	return h.fail(c, endpoint, xhttp.BadRequestError(badRequestMessage(details)).WithDetails(details))
}

func badRequestMessage(details interface{}) string {
	errs, ok := details.([]xhttp.ValidationError)
	if !ok {
		return invalidTimeframeMessage
	}
	for _, e := range errs {
		if e.Field == "timeframe" {
			return invalidTimeframeMessage
		}
	}
	return "Invalid request body"
}

func (h *CandlesEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	status := http.StatusInternalServerError
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		status = appErr.Status
	}
	metrics.EndpointErrors.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	return xhttp.AppErrorResponse(c, err)
}

func observe(endpoint string, start time.Time) {
	metrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}
