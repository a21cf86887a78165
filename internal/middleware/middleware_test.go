package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"orderhub/internal/common"
	"orderhub/internal/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestVersionRoute_SetsHeaders(t *testing.T) {
	e := echo.New()
	vm := NewVersionMiddleware()
	e.Use(vm.RejectUnknownVersions())
	vm.VersionRoute(e, "v1").GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v2/ping", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unsupported API version")
}

func TestVersionFromPath(t *testing.T) {
	cases := map[string]string{
		"/v1/orders": "v1",
		"/v12":       "v12",
		"/health":    "",
		"/vx/orders": "",
		"/":          "",
	}
	for path, want := range cases {
		assert.Equal(t, want, versionFromPath(path), path)
	}
}

func TestMetrics_CountsByRouteAndStatus(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	e := echo.New()
	e.HTTPErrorHandler = common.HTTPErrorHandler(zerolog.Nop())
	e.Use(Metrics(m))
	e.GET("/v1/orders/:id", func(c echo.Context) error {
		if c.Param("id") == "missing" {
			return common.OrderNotFound("missing")
		}
		return c.NoContent(http.StatusOK)
	})

	for _, id := range []string{"a", "b", "missing"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/orders/"+id, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/v1/orders/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/v1/orders/:id", "404")))
}

func TestRequestLogger_WritesAccessLine(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestLogger(zerolog.New(&buf)))
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Contains(t, buf.String(), `"route":"/health"`)
	assert.Contains(t, buf.String(), `"status":200`)
}
