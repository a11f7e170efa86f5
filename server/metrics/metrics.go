// Package metrics collects prometheus metrics for the API requests.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	requestsReceived *prometheus.CounterVec
	responsesSent    *prometheus.CounterVec
	durations        *prometheus.SummaryVec
}

// New creates and registers the request metrics. The default registry is
// used if reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requestsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_requests_total",
				Help: "Number of API requests received.",
			},
			[]string{"method", "route"},
		),
		responsesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_responses_total",
				Help: "Number of API responses sent.",
			},
			[]string{"method", "route", "status"},
		),
		durations: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "api_durations_seconds",
				Help:       "API latency distributions.",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"method", "route", "status"},
		),
	}

	reg.MustRegister(m.requestsReceived, m.responsesSent, m.durations)
	return m
}

// Middleware records every request by route pattern, so path parameters
// don't create new series.
func (m *Metrics) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		method := c.Request().Method
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		m.requestsReceived.WithLabelValues(method, route).Inc()

		err := next(c)

		status := strconv.Itoa(statusCode(c, err))
		m.responsesSent.WithLabelValues(method, route, status).Inc()
		m.durations.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
		return err
	}
}

// statusCode is the status that will be sent for err; echo writes the
// response for returned errors after the middleware chain.
func statusCode(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}
