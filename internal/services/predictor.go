package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/voyantic/farecast/internal/cache"
	"github.com/voyantic/farecast/internal/forecast"
	"github.com/voyantic/farecast/internal/models"
)

// ErrNoHistory is returned when a route has no stored observations to
// forecast from.
var ErrNoHistory = errors.New("no price history for route")

// savingsThreshold is the fraction of the current fare a predicted dip must
// exceed before the recommendation flips to waiting.
const savingsThreshold = 0.05

// HistoryStore is the slice of the price-history repository the predictor
// needs.
type HistoryStore interface {
	RouteHistory(ctx context.Context, origin, destination, airline string, since time.Time) ([]models.PriceObservation, error)
	LatestPrice(ctx context.Context, origin, destination string) (decimal.Decimal, error)
}

// PredictionCache is the slice of the forecast cache the predictor needs.
type PredictionCache interface {
	Get(ctx context.Context, origin, destination string, horizon int) (*models.PricePrediction, error)
	Set(ctx context.Context, prediction *models.PricePrediction, horizon int) error
}

// HistoricalSource samples fare observations from the flight-data provider,
// used to seed routes that have no stored history yet.
type HistoricalSource interface {
	HistoricalPrices(ctx context.Context, origin, destination string, start, end time.Time, samples int) ([]models.PriceObservation, error)
}

// ObservationWriter persists sampled observations.
type ObservationWriter interface {
	InsertObservation(ctx context.Context, obs models.PriceObservation) error
}

// PricePredictor turns route history into a price forecast with a booking
// recommendation. Heavy lifting happens in the forecast engine; this service
// handles history loading, caching, and the money-facing summary.
type PricePredictor struct {
	engine      *forecast.Engine
	history     HistoryStore
	cache       PredictionCache
	historyDays int
	strategy    forecast.Strategy
	logger      *logrus.Logger
	tracer      trace.Tracer
	now         func() time.Time

	backfillSource HistoricalSource
	backfillWriter ObservationWriter
}

func NewPricePredictor(engine *forecast.Engine, history HistoryStore, predictionCache PredictionCache, historyDays int, strategy forecast.Strategy, logger *logrus.Logger) *PricePredictor {
	if historyDays < 1 {
		historyDays = 90
	}
	if strategy == "" {
		strategy = forecast.StrategyHierarchical
	}
	return &PricePredictor{
		engine:      engine,
		history:     history,
		cache:       predictionCache,
		historyDays: historyDays,
		strategy:    strategy,
		logger:      logger,
		tracer:      otel.Tracer("farecast/predictor"),
		now:         time.Now,
	}
}

// Predict forecasts fares for a route over the horizon. Results are cached;
// a cache hit skips the engine entirely. An empty airline forecasts across
// all carriers. An empty strategy uses the service default.
func (p *PricePredictor) Predict(ctx context.Context, origin, destination, airline string, horizon int, strategy forecast.Strategy) (*models.PricePrediction, error) {
	ctx, span := p.tracer.Start(ctx, "PricePredictor.Predict", trace.WithAttributes(
		attribute.String("route.origin", origin),
		attribute.String("route.destination", destination),
		attribute.Int("forecast.horizon", horizon),
	))
	defer span.End()

	if strategy == "" {
		strategy = p.strategy
	}

	if p.cache != nil {
		if cached, err := p.cache.Get(ctx, origin, destination, horizon); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			p.logger.WithError(err).Warn("Forecast cache read failed, recomputing")
		}
	}

	since := p.now().AddDate(0, 0, -p.historyDays)
	observations, err := p.history.RouteHistory(ctx, origin, destination, airline, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load route history: %w", err)
	}
	if len(observations) == 0 {
		observations, err = p.backfill(ctx, origin, destination)
		if err != nil {
			return nil, err
		}
	}

	ds := buildDataset(observations)
	merged, err := p.engine.Forecast(ctx, ds, horizon, strategy)
	if err != nil {
		return nil, err
	}

	currentPrice := observations[len(observations)-1].Price
	prediction := p.summarize(origin, destination, currentPrice, merged)

	if p.cache != nil {
		if err := p.cache.Set(ctx, prediction, horizon); err != nil {
			p.logger.WithError(err).Warn("Failed to cache forecast")
		}
	}

	p.logger.WithFields(logrus.Fields{
		"route":          origin + "-" + destination,
		"horizon":        horizon,
		"strategy":       string(strategy),
		"recommendation": prediction.Recommendation,
		"confidence":     prediction.ConfidenceScore,
	}).Info("Prediction generated")
	return prediction, nil
}

// WithBackfill enables provider-sampled seeding for routes with no stored
// history. Sampled observations are persisted so the next request hits the
// database instead.
func (p *PricePredictor) WithBackfill(source HistoricalSource, writer ObservationWriter) *PricePredictor {
	p.backfillSource = source
	p.backfillWriter = writer
	return p
}

func (p *PricePredictor) backfill(ctx context.Context, origin, destination string) ([]models.PriceObservation, error) {
	if p.backfillSource == nil {
		return nil, fmt.Errorf("%s-%s: %w", origin, destination, ErrNoHistory)
	}

	start := p.now().AddDate(0, 0, 1)
	end := p.now().AddDate(0, 0, p.historyDays)
	observations, err := p.backfillSource.HistoricalPrices(ctx, origin, destination, start, end, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to sample provider prices: %w", err)
	}
	if len(observations) == 0 {
		return nil, fmt.Errorf("%s-%s: %w", origin, destination, ErrNoHistory)
	}

	if p.backfillWriter != nil {
		for _, obs := range observations {
			if err := p.backfillWriter.InsertObservation(ctx, obs); err != nil {
				p.logger.WithError(err).Warn("Failed to persist sampled observation")
				break
			}
		}
	}
	p.logger.WithFields(logrus.Fields{
		"route":   origin + "-" + destination,
		"samples": len(observations),
	}).Info("Seeded route history from provider samples")
	return observations, nil
}

// buildDataset converts stored observations into engine records. Prices move
// to float64 here; the engine's math kernels do not use decimals.
func buildDataset(observations []models.PriceObservation) forecast.Dataset {
	ds := make(forecast.Dataset, 0, len(observations))
	for _, obs := range observations {
		ds = append(ds, forecast.PriceRecord{
			Timestamp: obs.ObservedAt,
			Price:     obs.Price.InexactFloat64(),
			Features: map[string]float64{
				"days_to_departure": float64(obs.DaysToDeparture),
				"occupancy_rate":    obs.OccupancyRate,
			},
			Labels: map[string]string{
				"origin":      obs.Origin,
				"destination": obs.Destination,
				"airline":     obs.Airline,
			},
		})
	}
	return ds
}

// summarize builds the API-facing prediction: a dated timeline plus a
// buy/wait/monitor call based on where the predicted minimum falls.
func (p *PricePredictor) summarize(origin, destination string, currentPrice decimal.Decimal, merged *forecast.MergedForecast) *models.PricePrediction {
	generatedAt := p.now().UTC()
	start := generatedAt.Truncate(24 * time.Hour).AddDate(0, 0, 1)

	points := make([]models.PricePoint, len(merged.Forecast))
	minIdx := 0
	for i, price := range merged.Forecast {
		points[i] = models.PricePoint{
			Date:  start.AddDate(0, 0, i),
			Price: decimal.NewFromFloat(price),
		}
		if price < merged.Forecast[minIdx] {
			minIdx = i
		}
	}

	minPrice := points[minIdx].Price
	savings := currentPrice.Sub(minPrice)
	if savings.IsNegative() {
		savings = decimal.Zero
	}

	recommendation := "monitor"
	optimalDate := generatedAt.Truncate(24 * time.Hour)
	threshold := currentPrice.Mul(decimal.NewFromFloat(savingsThreshold))
	switch {
	case savings.GreaterThan(threshold):
		recommendation = "wait"
		optimalDate = points[minIdx].Date
	case points[0].Price.GreaterThanOrEqual(currentPrice):
		// Prices head up from day one with no meaningful dip later.
		recommendation = "buy"
	}

	return &models.PricePrediction{
		Origin:               origin,
		Destination:          destination,
		CurrentPrice:         currentPrice,
		PredictedPrices:      points,
		Recommendation:       recommendation,
		OptimalBookingDate:   optimalDate,
		ExpectedSavings:      savings,
		ConfidenceScore:      merged.Confidence,
		SegmentationStrategy: string(merged.SegmentationStrategy),
		NumSegments:          merged.NumSegments,
		DroppedSegments:      merged.DroppedSegments,
		GeneratedAt:          generatedAt,
	}
}
