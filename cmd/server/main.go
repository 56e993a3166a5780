package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/voyantic/farecast/internal/amadeus"
	"github.com/voyantic/farecast/internal/api"
	"github.com/voyantic/farecast/internal/cache"
	"github.com/voyantic/farecast/internal/config"
	"github.com/voyantic/farecast/internal/database"
	"github.com/voyantic/farecast/internal/forecast"
	"github.com/voyantic/farecast/internal/logging"
	"github.com/voyantic/farecast/internal/services"
	"github.com/voyantic/farecast/internal/telemetry"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	ctx := context.Background()
	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry, cfg.Environment, version)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shutdown telemetry")
		}
	}()

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redis.Close()

	// Storage and caching layers.
	historyRepo := database.NewPriceHistoryRepository(db.Pool)
	alertRepo := database.NewAlertRepository(db.Pool)
	cacheTTL := time.Duration(cfg.Forecast.CacheTTLMinutes) * time.Minute
	forecastCache := cache.NewForecastCache(redis.Client, cacheTTL)
	offerCache := cache.NewLivePriceCache(redis.Client, 5*time.Minute)

	// Flight-data provider.
	amadeusClient := amadeus.NewClient(cfg.Amadeus, logger)

	// Forecast engine and domain services.
	engine := forecast.NewEngine(forecast.EngineConfig{
		MinSegmentSize:      cfg.Forecast.MinSegmentSize,
		ClusterCap:          cfg.Forecast.ClusterCap,
		ClusterSeed:         cfg.Forecast.ClusterSeed,
		MovingAverageWindow: cfg.Forecast.MovingAverageWindow,
		SeasonalPeriod:      cfg.Forecast.SeasonalPeriod,
		Weights: forecast.EnsembleWeights{
			Autoregressive:       cfg.Forecast.WeightAutoregressive,
			ExponentialSmoothing: cfg.Forecast.WeightSmoothing,
			MovingAverage:        cfg.Forecast.WeightMovingAverage,
		},
		MergeStrategy: forecast.MergeStrategy(cfg.Forecast.MergeStrategy),
		AncestryDepth: cfg.Forecast.AncestryDepth,
		Workers:       cfg.Forecast.Workers,
	}, logger)

	predictor := services.NewPricePredictor(engine, historyRepo, forecastCache, cfg.Forecast.HistoryDays, forecast.StrategyHierarchical, logger).
		WithBackfill(amadeusClient, historyRepo)
	flightData := services.NewFlightDataService(amadeusClient, offerCache, logger)
	trends := services.NewTrendService(historyRepo, logger)
	bundler := services.NewBundleService(flightData, logger)

	var notifier services.Notifier
	if cfg.Telegram.BotToken != "" {
		telegramNotifier, err := services.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
		if err != nil {
			logger.WithError(err).Warn("Telegram notifier unavailable, alerts will not be delivered")
		} else {
			notifier = telegramNotifier
		}
	}
	alerts := services.NewAlertService(alertRepo, flightData, notifier, logger)

	// Background alert evaluation.
	alertCtx, stopAlerts := context.WithCancel(ctx)
	defer stopAlerts()
	if cfg.Alerts.Enabled {
		go alerts.Run(alertCtx, time.Duration(cfg.Alerts.CheckIntervalMinutes)*time.Minute)
	}

	// HTTP surface.
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("farecast"))

	api.SetupRoutes(router, api.Dependencies{
		DB:       db,
		Redis:    redis,
		Forecast: predictor,
		Flights:  flightData,
		Alerts:   alerts,
		Trends:   trends,
		Bundler:  bundler,
		Logger:   logger,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       15 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for shutdown signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	stopAlerts()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}
