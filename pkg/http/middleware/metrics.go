package middleware

import (
	"strconv"
	"sync"
	"time"

	applogger "CandlePull/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// unmatchedRoute labels requests no route claimed, keeping scanner noise out
// of the per-route series.
const unmatchedRoute = "unmatched"

var (
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        *prometheus.GaugeVec
	metricsOnce     sync.Once
)

func registerMetrics() {
	metricsOnce.Do(func() {
		requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "candlepull_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"})
		// chart sessions run for seconds and historical pulls for minutes
		requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "candlepull_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120, 180},
		}, []string{"route", "method"})
		inFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "candlepull_http_in_flight_requests",
			Help: "Requests currently being served",
		}, []string{"route"})
	})
}

// Metrics records per-route request counts and latency. Handler errors are
// rendered here so the recorded status is the one the client sees. Requests
// slower than slowThreshold, and every 5xx, are logged.
func Metrics(l *applogger.Logger, slowThreshold time.Duration) echo.MiddlewareFunc {
	registerMetrics()
	if l == nil {
		l = applogger.Nop()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if route == "" {
				route = unmatchedRoute
			}
			method := c.Request().Method

			gauge := inFlight.WithLabelValues(route)
			gauge.Inc()
			defer gauge.Dec()
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			took := time.Since(start)
			requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
			requestDuration.WithLabelValues(route, method).Observe(took.Seconds())

			switch {
			case status >= 500:
				l.Error("http request failed",
					applogger.String("route", route),
					applogger.Int("status", status),
					applogger.Duration("latency", took),
				)
			case slowThreshold > 0 && took >= slowThreshold:
				l.Warn("http request slow",
					applogger.String("route", route),
					applogger.Int("status", status),
					applogger.Duration("latency", took),
				)
			}
			return nil
		}
	}
}
