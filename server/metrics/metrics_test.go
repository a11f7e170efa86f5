package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	e := echo.New()
	e.Use(m.Middleware)
	e.GET("/v1/facets/:facet/selectors", func(c echo.Context) error {
		return c.String(http.StatusOK, "[]")
	})
	e.GET("/v1/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "nope")
	})

	for _, path := range []string{"/v1/facets/0x01/selectors", "/v1/facets/0x02/selectors", "/v1/missing"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, promtest.ToFloat64(m.responsesSent.WithLabelValues("GET", "/v1/facets/:facet/selectors", "200")))
	assert.Equal(t, 1.0, promtest.ToFloat64(m.responsesSent.WithLabelValues("GET", "/v1/missing", "404")))
	assert.Equal(t, 2, promtest.CollectAndCount(m.requestsReceived))
}
