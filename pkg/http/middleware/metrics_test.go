package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	applogger "CandlePull/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_LabelsByRouteTemplate(t *testing.T) {
	e := echo.New()
	e.Use(Metrics(applogger.Nop(), 0))
	e.POST("/functions/v1/fetch-candles", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	e.POST("/functions/v1/scheduler", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusConflict, "busy")
	})

	okBefore := testutil.ToFloat64(requestsTotal.WithLabelValues("/functions/v1/fetch-candles", http.MethodPost, "200"))
	busyBefore := testutil.ToFloat64(requestsTotal.WithLabelValues("/functions/v1/scheduler", http.MethodPost, "409"))

	for _, path := range []string{"/functions/v1/fetch-candles", "/functions/v1/scheduler"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
	}

	assert.Equal(t, okBefore+1, testutil.ToFloat64(requestsTotal.WithLabelValues("/functions/v1/fetch-candles", http.MethodPost, "200")))
	assert.Equal(t, busyBefore+1, testutil.ToFloat64(requestsTotal.WithLabelValues("/functions/v1/scheduler", http.MethodPost, "409")))
	assert.Zero(t, testutil.ToFloat64(inFlight.WithLabelValues("/functions/v1/fetch-candles")))
}

func TestMetrics_ErrorRenderedOnce(t *testing.T) {
	e := echo.New()
	e.Use(Metrics(applogger.Nop(), 0))
	e.POST("/functions/v1/refresh-tokens", func(c echo.Context) error {
		return errors.New("renew failed")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/functions/v1/refresh-tokens", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(requestsTotal.WithLabelValues("/functions/v1/refresh-tokens", http.MethodPost, "500")))
}
