package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/voyantic/farecast/internal/api/handlers"
	"github.com/voyantic/farecast/internal/database"
)

type HealthResponse struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Version   string        `json:"version"`
	Services  Services      `json:"services"`
	Resources ResourceStats `json:"resources"`
}

type Services struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

type ResourceStats struct {
	Goroutines     int     `json:"goroutines"`
	MemUsedPercent float64 `json:"mem_used_percent"`
}

// Dependencies carries everything the router needs.
type Dependencies struct {
	DB       *database.PostgresDB
	Redis    *database.RedisClient
	Forecast handlers.Predictor
	Flights  handlers.FlightData
	Alerts   handlers.AlertManager
	Trends   handlers.TrendReader
	Bundler  handlers.PackageBuilder
	Logger   *logrus.Logger
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	forecastHandler := handlers.NewForecastHandler(deps.Forecast, deps.Logger)
	flightsHandler := handlers.NewFlightsHandler(deps.Flights, deps.Logger)
	alertsHandler := handlers.NewAlertsHandler(deps.Alerts, deps.Logger)
	analyticsHandler := handlers.NewAnalyticsHandler(deps.Trends, deps.Logger)
	packagesHandler := handlers.NewPackagesHandler(deps.Bundler, deps.Logger)

	router.GET("/health", healthCheck(deps.DB, deps.Redis))

	v1 := router.Group("/api/v1")
	{
		forecastRoutes := v1.Group("/forecast")
		{
			forecastRoutes.POST("/predict", forecastHandler.Predict)
			forecastRoutes.POST("/batch", forecastHandler.BatchPredict)
			forecastRoutes.GET("/routes/:route", forecastHandler.RouteForecast)
		}

		flights := v1.Group("/flights")
		{
			flights.GET("/search", flightsHandler.Search)
			flights.GET("/insights", flightsHandler.Insights)
			flights.GET("/booking-time", flightsHandler.BookingTime)
			flights.GET("/airports", flightsHandler.Airports)
		}

		alerts := v1.Group("/alerts")
		{
			alerts.POST("", alertsHandler.Create)
			alerts.GET("", alertsHandler.List)
			alerts.GET("/:id", alertsHandler.Get)
			alerts.PUT("/:id/deactivate", alertsHandler.Deactivate)
			alerts.DELETE("/:id", alertsHandler.Delete)
		}

		analytics := v1.Group("/analytics")
		{
			analytics.GET("/trends", analyticsHandler.Trends)
		}

		packages := v1.Group("/packages")
		{
			packages.POST("/bundle", packagesHandler.Bundle)
		}
	}
}

func healthCheck(db *database.PostgresDB, redis *database.RedisClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   "1.0.0",
			Services: Services{
				Database: "ok",
				Redis:    "ok",
			},
			Resources: ResourceStats{
				Goroutines: runtime.NumGoroutine(),
			},
		}

		if vm, err := mem.VirtualMemory(); err == nil {
			response.Resources.MemUsedPercent = vm.UsedPercent
		}

		if db == nil || db.HealthCheck(c.Request.Context()) != nil {
			response.Services.Database = "error"
			response.Status = "degraded"
		}
		if redis == nil || redis.HealthCheck(c.Request.Context()) != nil {
			response.Services.Redis = "error"
			response.Status = "degraded"
		}

		statusCode := http.StatusOK
		if response.Status == "degraded" {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, response)
	}
}
