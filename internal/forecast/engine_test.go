package forecast

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultEngineConfig(), testLogger())
}

func TestEngineSingleRouteScenario(t *testing.T) {
	// 90 daily fares for one route, horizon 7, route strategy.
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ds Dataset
	for i := 0; i < 90; i++ {
		ds = append(ds, PriceRecord{
			Timestamp: base.AddDate(0, 0, i),
			Price:     250 + 0.3*float64(i) + 6*math.Sin(2*math.Pi*float64(i)/7),
			Labels:    map[string]string{"origin": "JFK", "destination": "LAX"},
		})
	}

	merged, err := newTestEngine().Forecast(context.Background(), ds, 7, StrategyRoute)
	require.NoError(t, err)
	assert.Equal(t, 1, merged.NumSegments)
	assert.Len(t, merged.Forecast, 7)
	assert.GreaterOrEqual(t, merged.Confidence, 0.6)
	assert.LessOrEqual(t, merged.Confidence, 1.0)
	assert.Equal(t, StrategyRoute, merged.SegmentationStrategy)
	assert.Equal(t, MergeConfidenceBased, merged.Strategy)
}

func TestEngineDegenerateFallbackPath(t *testing.T) {
	// Five records with min segment size ten: every strategy yields zero
	// segments and the engine forecasts the whole dataset as one implicit
	// segment.
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	var ds Dataset
	for i := 0; i < 5; i++ {
		ds = append(ds, PriceRecord{
			Timestamp: base.AddDate(0, 0, i),
			Price:     180 + float64(i),
			Features:  map[string]float64{"days_to_departure": float64(20 - i), "occupancy_rate": 0.6},
			Labels:    map[string]string{"origin": "JFK", "destination": "LAX"},
		})
	}

	for _, strategy := range []Strategy{StrategyRoute, StrategyTemporal, StrategyDemandCluster, StrategyHierarchical} {
		merged, err := newTestEngine().Forecast(context.Background(), ds, 7, strategy)
		require.NoError(t, err, string(strategy))
		assert.Equalf(t, 0, merged.NumSegments, "%s", strategy)
		assert.Lenf(t, merged.Forecast, 7, "%s", strategy)
		assert.Equalf(t, strategy, merged.SegmentationStrategy, "%s", strategy)
	}
}

func TestEngineEmptyDataset(t *testing.T) {
	_, err := newTestEngine().Forecast(context.Background(), nil, 7, StrategyRoute)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestEngineInvalidHorizon(t *testing.T) {
	ds := dailySeries(20, func(i int) float64 { return 100 })
	_, err := newTestEngine().Forecast(context.Background(), ds, 0, StrategyRoute)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestEngineUnknownStrategy(t *testing.T) {
	ds := dailySeries(20, func(i int) float64 { return 100 })
	_, err := newTestEngine().Forecast(context.Background(), ds, 5, Strategy("bogus"))
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestEngineHierarchicalPipeline(t *testing.T) {
	routes := [][2]string{{"JFK", "LAX"}, {"BOS", "SFO"}, {"ORD", "MIA"}}
	ds := routeWeekDataset(routes, 4, 12)

	cfg := DefaultEngineConfig()
	cfg.MergeStrategy = MergeHierarchical
	merged, err := NewEngine(cfg, testLogger()).Forecast(context.Background(), ds, 5, StrategyHierarchical)
	require.NoError(t, err)
	assert.Equal(t, 12, merged.NumSegments)
	assert.Equal(t, 3, merged.NumGroups)
	assert.Len(t, merged.Forecast, 5)
	assert.Equal(t, 0, merged.DroppedSegments)
}

func TestEngineIdempotent(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var ds Dataset
	for i := 0; i < 80; i++ {
		ds = append(ds, PriceRecord{
			Timestamp: base.AddDate(0, 0, i%40),
			Price:     150 + 30*float64(i%4) + float64(i%11),
			Features: map[string]float64{
				"days_to_departure": float64((i * 7) % 60),
				"occupancy_rate":    float64(i%10) / 10,
			},
			Labels: map[string]string{"origin": "JFK", "destination": "LAX"},
		})
	}

	first, err := newTestEngine().Forecast(context.Background(), ds, 7, StrategyDemandCluster)
	require.NoError(t, err)
	second, err := newTestEngine().Forecast(context.Background(), ds, 7, StrategyDemandCluster)
	require.NoError(t, err)
	// Bit-for-bit identical across independent runs: fixed clustering seed,
	// order-insensitive merge.
	assert.Equal(t, first, second)
}

func TestEngineCancelledContext(t *testing.T) {
	ds := routeWeekDataset([][2]string{{"JFK", "LAX"}, {"BOS", "SFO"}}, 4, 12)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestEngine().Forecast(ctx, ds, 7, StrategyHierarchical)
	assert.Error(t, err)
}

func TestEngineWorkerCountOverride(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Workers = 2
	engine := NewEngine(cfg, testLogger())
	assert.Equal(t, 2, engine.workerCount())

	cfg.Workers = 0
	engine = NewEngine(cfg, testLogger())
	assert.Greater(t, engine.workerCount(), 0)
}

func TestEngineInjectedClusterer(t *testing.T) {
	// A stub clusterer proves the engine has no hard dependency on k-means.
	stub := clustererFunc(func(features [][]float64, k int) ([]int, error) {
		assignments := make([]int, len(features))
		for i := range assignments {
			assignments[i] = i % 2
		}
		return assignments, nil
	})

	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	var ds Dataset
	for i := 0; i < 40; i++ {
		ds = append(ds, PriceRecord{
			Timestamp: base.AddDate(0, 0, i),
			Price:     120 + float64(i),
			Features:  map[string]float64{"days_to_departure": float64(i), "occupancy_rate": 0.5},
		})
	}

	merged, err := NewEngineWithClusterer(DefaultEngineConfig(), stub, testLogger()).
		Forecast(context.Background(), ds, 3, StrategyDemandCluster)
	require.NoError(t, err)
	assert.Equal(t, 2, merged.NumSegments)
}

type clustererFunc func(features [][]float64, k int) ([]int, error)

func (f clustererFunc) Cluster(features [][]float64, k int) ([]int, error) {
	return f(features, k)
}
