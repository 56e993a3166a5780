package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheckDegradedWithoutBackends(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	SetupRoutes(router, Dependencies{Logger: logger})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusServiceUnavailable, recorder.Code)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "degraded", response.Status)
	assert.Equal(t, "error", response.Services.Database)
	assert.Equal(t, "error", response.Services.Redis)
	assert.Greater(t, response.Resources.Goroutines, 0)
}

func TestRouteRegistration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	SetupRoutes(router, Dependencies{Logger: logger})

	paths := map[string]bool{}
	for _, route := range router.Routes() {
		paths[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"GET /health",
		"POST /api/v1/forecast/predict",
		"POST /api/v1/forecast/batch",
		"GET /api/v1/forecast/routes/:route",
		"GET /api/v1/flights/search",
		"GET /api/v1/flights/insights",
		"GET /api/v1/flights/booking-time",
		"GET /api/v1/flights/airports",
		"POST /api/v1/alerts",
		"GET /api/v1/alerts",
		"GET /api/v1/alerts/:id",
		"PUT /api/v1/alerts/:id/deactivate",
		"DELETE /api/v1/alerts/:id",
		"GET /api/v1/analytics/trends",
		"POST /api/v1/packages/bundle",
	}
	for _, route := range expected {
		assert.True(t, paths[route], "missing route %s", route)
	}
}
