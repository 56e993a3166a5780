package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyantic/farecast/internal/cache"
	"github.com/voyantic/farecast/internal/forecast"
	"github.com/voyantic/farecast/internal/models"
)

func testServiceLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

type fakeHistory struct {
	observations []models.PriceObservation
	err          error
}

func (f *fakeHistory) RouteHistory(_ context.Context, _, _, _ string, _ time.Time) ([]models.PriceObservation, error) {
	return f.observations, f.err
}

func (f *fakeHistory) LatestPrice(_ context.Context, _, _ string) (decimal.Decimal, error) {
	if len(f.observations) == 0 {
		return decimal.Zero, ErrNoHistory
	}
	return f.observations[len(f.observations)-1].Price, nil
}

type fakePredictionCache struct {
	entries map[string]*models.PricePrediction
	sets    int
}

func newFakePredictionCache() *fakePredictionCache {
	return &fakePredictionCache{entries: map[string]*models.PricePrediction{}}
}

func (f *fakePredictionCache) key(origin, destination string, horizon int) string {
	return origin + destination + string(rune('0'+horizon))
}

func (f *fakePredictionCache) Get(_ context.Context, origin, destination string, horizon int) (*models.PricePrediction, error) {
	if p, ok := f.entries[f.key(origin, destination, horizon)]; ok {
		return p, nil
	}
	return nil, cache.ErrCacheMiss
}

func (f *fakePredictionCache) Set(_ context.Context, prediction *models.PricePrediction, horizon int) error {
	f.entries[f.key(prediction.Origin, prediction.Destination, horizon)] = prediction
	f.sets++
	return nil
}

func routeObservations(days int) []models.PriceObservation {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	observations := make([]models.PriceObservation, 0, days)
	for i := 0; i < days; i++ {
		price := 300.0 + 40.0*float64(i%7) + 0.2*float64(i)
		observations = append(observations, models.PriceObservation{
			ObservedAt:      start.AddDate(0, 0, i),
			Origin:          "JFK",
			Destination:     "LAX",
			Airline:         "DL",
			CabinClass:      "ECONOMY",
			Price:           decimal.NewFromFloat(price),
			DaysToDeparture: days - i,
			OccupancyRate:   0.5 + 0.3*float64(i%7)/7.0,
		})
	}
	return observations
}

func newTestPredictor(history HistoryStore, predictionCache PredictionCache) *PricePredictor {
	cfg := forecast.DefaultEngineConfig()
	cfg.MinSegmentSize = 5
	cfg.Workers = 2
	engine := forecast.NewEngine(cfg, testServiceLogger())
	return NewPricePredictor(engine, history, predictionCache, 90, forecast.StrategyHierarchical, testServiceLogger())
}

func TestPredictProducesDatedTimeline(t *testing.T) {
	history := &fakeHistory{observations: routeObservations(90)}
	predictor := newTestPredictor(history, nil)

	prediction, err := predictor.Predict(context.Background(), "JFK", "LAX", "", 7, "")
	require.NoError(t, err)

	require.Len(t, prediction.PredictedPrices, 7)
	assert.Equal(t, "JFK", prediction.Origin)
	assert.Equal(t, "LAX", prediction.Destination)
	assert.Equal(t, "hierarchical", prediction.SegmentationStrategy)
	assert.Greater(t, prediction.NumSegments, 0)
	assert.GreaterOrEqual(t, prediction.ConfidenceScore, 0.0)
	assert.LessOrEqual(t, prediction.ConfidenceScore, 1.0)
	assert.Contains(t, []string{"buy", "wait", "monitor"}, prediction.Recommendation)

	lastObserved := history.observations[len(history.observations)-1].Price
	assert.True(t, prediction.CurrentPrice.Equal(lastObserved))

	// Timeline starts tomorrow and advances one day per point.
	for i := 1; i < len(prediction.PredictedPrices); i++ {
		gap := prediction.PredictedPrices[i].Date.Sub(prediction.PredictedPrices[i-1].Date)
		assert.Equal(t, 24*time.Hour, gap)
	}
	assert.True(t, prediction.PredictedPrices[0].Date.After(prediction.GeneratedAt.Truncate(24*time.Hour)))
}

func TestPredictUsesCache(t *testing.T) {
	history := &fakeHistory{observations: routeObservations(90)}
	predictionCache := newFakePredictionCache()
	predictor := newTestPredictor(history, predictionCache)

	first, err := predictor.Predict(context.Background(), "JFK", "LAX", "", 7, "")
	require.NoError(t, err)
	assert.Equal(t, 1, predictionCache.sets)

	// Second call is a cache hit: no recompute, identical result.
	history.err = assert.AnError
	second, err := predictor.Predict(context.Background(), "JFK", "LAX", "", 7, "")
	require.NoError(t, err)
	assert.Equal(t, first.GeneratedAt, second.GeneratedAt)
	assert.Equal(t, 1, predictionCache.sets)
}

func TestPredictNoHistory(t *testing.T) {
	predictor := newTestPredictor(&fakeHistory{}, nil)

	_, err := predictor.Predict(context.Background(), "JFK", "LAX", "", 7, "")
	assert.ErrorIs(t, err, ErrNoHistory)
}

type fakeHistoricalSource struct {
	observations []models.PriceObservation
}

func (f *fakeHistoricalSource) HistoricalPrices(_ context.Context, _, _ string, _, _ time.Time, _ int) ([]models.PriceObservation, error) {
	return f.observations, nil
}

type fakeObservationWriter struct {
	inserted int
}

func (f *fakeObservationWriter) InsertObservation(_ context.Context, _ models.PriceObservation) error {
	f.inserted++
	return nil
}

func TestPredictBackfillsEmptyRoute(t *testing.T) {
	source := &fakeHistoricalSource{observations: routeObservations(30)}
	writer := &fakeObservationWriter{}
	predictor := newTestPredictor(&fakeHistory{}, nil).WithBackfill(source, writer)

	prediction, err := predictor.Predict(context.Background(), "JFK", "LAX", "", 7, "")
	require.NoError(t, err)
	assert.Len(t, prediction.PredictedPrices, 7)
	assert.Equal(t, 30, writer.inserted)
}

func TestSummarizeRecommendsWaitOnDip(t *testing.T) {
	predictor := newTestPredictor(&fakeHistory{}, nil)
	predictor.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }

	merged := &forecast.MergedForecast{
		Forecast:             []float64{300, 250, 280},
		Confidence:           0.8,
		NumSegments:          3,
		SegmentationStrategy: forecast.StrategyRoute,
	}
	prediction := predictor.summarize("JFK", "LAX", decimal.NewFromInt(320), merged)

	assert.Equal(t, "wait", prediction.Recommendation)
	assert.True(t, prediction.ExpectedSavings.Equal(decimal.NewFromInt(70)))
	// Minimum falls on the second predicted day.
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), prediction.OptimalBookingDate)
}

func TestSummarizeRecommendsBuyWhenRising(t *testing.T) {
	predictor := newTestPredictor(&fakeHistory{}, nil)
	predictor.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }

	merged := &forecast.MergedForecast{Forecast: []float64{330, 340}, Confidence: 0.7, NumSegments: 1}
	prediction := predictor.summarize("JFK", "LAX", decimal.NewFromInt(320), merged)

	assert.Equal(t, "buy", prediction.Recommendation)
	assert.True(t, prediction.ExpectedSavings.IsZero())
}

func TestSummarizeRecommendsMonitorOnShallowDip(t *testing.T) {
	predictor := newTestPredictor(&fakeHistory{}, nil)
	predictor.now = func() time.Time { return time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC) }

	merged := &forecast.MergedForecast{Forecast: []float64{310, 315}, Confidence: 0.7, NumSegments: 1}
	prediction := predictor.summarize("JFK", "LAX", decimal.NewFromInt(320), merged)

	assert.Equal(t, "monitor", prediction.Recommendation)
}
