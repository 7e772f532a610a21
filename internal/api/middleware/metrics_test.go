package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "github.com/bledden/tinker-voice/internal/api/middleware"
	"github.com/bledden/tinker-voice/internal/metrics"
)

func TestMetricsMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		route      string
		target     string
		handler    echo.HandlerFunc
		wantStatus int
	}{
		{
			name:   "records route template",
			method: http.MethodGet,
			route:  "/api/v1/training/runs/:run_id",
			target: "/api/v1/training/runs/run-42",
			handler: func(c echo.Context) error {
				return c.JSON(http.StatusOK, map[string]string{"id": c.Param("run_id")})
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "records error status",
			method: http.MethodPost,
			route:  "/api/v1/research",
			target: "/api/v1/research",
			handler: func(c echo.Context) error {
				return c.NoContent(http.StatusGatewayTimeout)
			},
			wantStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.Use(mw.Metrics())
			e.Add(tt.method, tt.route, tt.handler)

			req := httptest.NewRequest(tt.method, tt.target, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			statusStr := strconv.Itoa(tt.wantStatus)

			counter, err := metrics.HTTPRequestsTotal.GetMetricWithLabelValues(
				tt.method, tt.route, statusStr,
			)
			require.NoError(t, err)
			assert.Positive(t, testutil.ToFloat64(counter))

			observer, err := metrics.HTTPRequestDuration.GetMetricWithLabelValues(
				tt.method, tt.route, statusStr,
			)
			require.NoError(t, err)

			hm := &io_prometheus_client.Metric{}
			require.NoError(t, observer.(prometheus.Metric).Write(hm))
			assert.Positive(t, hm.GetHistogram().GetSampleCount())
		})
	}
}

func TestMetricsMiddleware_ProbeGauges(t *testing.T) {
	e := echo.New()
	e.Use(mw.Metrics())

	ready := true
	e.GET("/healthz", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/readyz", func(c echo.Context) error {
		if ready {
			return c.NoContent(http.StatusOK)
		}
		return c.NoContent(http.StatusServiceUnavailable)
	})

	serve := func(path string) {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, http.NoBody))
	}

	serve("/healthz")
	serve("/readyz")
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.HealthzUp), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ReadyzUp), 0)

	ready = false
	serve("/readyz")
	assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.ReadyzUp), 0)

	assert.Zero(t, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/readyz", "200")))
}
