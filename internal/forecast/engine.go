package forecast

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/sirupsen/logrus"
)

// EngineConfig carries every tunable the pipeline consumes. All values are
// injected rather than hard-coded so deployments can tighten or loosen the
// segmentation and ensemble behavior without code changes.
type EngineConfig struct {
	// MinSegmentSize is the smallest partition the segmenter will emit.
	MinSegmentSize int
	// ClusterCap bounds the demand-pattern cluster count.
	ClusterCap int
	// ClusterSeed fixes the k-means initialization for reproducible runs.
	ClusterSeed int64
	// MovingAverageWindow is the trailing window of the fallback model.
	MovingAverageWindow int
	// SeasonalPeriod is the Holt-Winters season length (7 for daily fares).
	SeasonalPeriod int
	// Weights are the static ensemble member weights.
	Weights EnsembleWeights
	// MergeStrategy is applied in the combine phase.
	MergeStrategy MergeStrategy
	// AncestryDepth is the hierarchical merge grouping depth.
	AncestryDepth int
	// Workers bounds the conquer-phase pool; 0 means one per CPU core.
	Workers int
}

// DefaultEngineConfig mirrors the production defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MinSegmentSize:      10,
		ClusterCap:          5,
		ClusterSeed:         42,
		MovingAverageWindow: 7,
		SeasonalPeriod:      7,
		Weights:             DefaultEnsembleWeights(),
		MergeStrategy:       MergeConfidenceBased,
		AncestryDepth:       2,
	}
}

// Engine runs divide → conquer → combine for one request. It is stateless
// across invocations: every run works purely on its own inputs, so a single
// engine can serve concurrent requests.
type Engine struct {
	cfg        EngineConfig
	segmenter  *Segmenter
	forecaster *SegmentForecaster
	merger     *Merger
	logger     *logrus.Logger
}

// NewEngine builds an engine with the default deterministic k-means
// clusterer.
func NewEngine(cfg EngineConfig, logger *logrus.Logger) *Engine {
	return NewEngineWithClusterer(cfg, NewKMeans(cfg.ClusterSeed), logger)
}

// NewEngineWithClusterer builds an engine around an injected clustering
// implementation.
func NewEngineWithClusterer(cfg EngineConfig, clusterer Clusterer, logger *logrus.Logger) *Engine {
	return &Engine{
		cfg:        cfg,
		segmenter:  NewSegmenter(cfg.MinSegmentSize, cfg.ClusterCap, clusterer, logger),
		forecaster: NewSegmentForecaster(cfg.Weights, cfg.MovingAverageWindow, cfg.SeasonalPeriod, logger),
		merger:     NewMerger(cfg.AncestryDepth),
		logger:     logger,
	}
}

// Segmenter exposes the divide phase for callers that only need partitions.
func (e *Engine) Segmenter() *Segmenter {
	return e.segmenter
}

// Forecast runs the full pipeline: segment the dataset, forecast every
// segment on a bounded worker pool, and merge the survivors. When
// segmentation yields nothing the whole dataset is forecast as one implicit
// segment and the combine phase is bypassed.
func (e *Engine) Forecast(ctx context.Context, ds Dataset, horizon int, strategy Strategy) (*MergedForecast, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("horizon %d: %w", horizon, ErrInvalidHorizon)
	}
	if len(ds) == 0 {
		return nil, ErrEmptyDataset
	}

	// DIVIDE
	segments, err := e.segmenter.Segment(ds, strategy)
	if err != nil {
		if !errors.Is(err, ErrInsufficientForClustering) {
			return nil, err
		}
		e.logger.WithField("strategy", string(strategy)).Info("Too few records to cluster, falling back to global forecast")
		segments = nil
	}
	e.logger.WithFields(logrus.Fields{
		"strategy": string(strategy),
		"records":  len(ds),
		"segments": len(segments),
	}).Debug("Divide phase complete")

	if len(segments) == 0 {
		return e.globalFallback(ds, horizon, strategy)
	}

	// CONQUER
	forecasts, dropped := e.conquer(ctx, segments, horizon)
	if err := ctx.Err(); err != nil && len(forecasts) == 0 {
		return nil, fmt.Errorf("forecast cancelled before any segment completed: %w", err)
	}
	if len(forecasts) == 0 {
		return nil, ErrNoForecast
	}

	// COMBINE
	merged, err := e.merger.Merge(forecasts, e.cfg.MergeStrategy)
	if err != nil {
		return nil, err
	}
	merged.SegmentationStrategy = strategy
	merged.DroppedSegments = dropped
	e.logger.WithFields(logrus.Fields{
		"segments":   merged.NumSegments,
		"dropped":    dropped,
		"confidence": merged.Confidence,
	}).Info("Forecast complete")
	return merged, nil
}

// conquer forecasts each segment independently. Segment work shares no
// mutable state, so it fans out on a bounded pool; a failed segment is
// dropped from the merge input without cancelling its siblings. Results keep
// segment order, which together with the fixed clustering seed makes the
// whole run reproducible.
func (e *Engine) conquer(ctx context.Context, segments []Segment, horizon int) ([]SegmentForecast, int) {
	results := make([]*SegmentForecast, len(segments))

	var wg sync.WaitGroup
	slots := make(chan struct{}, e.workerCount())
	for i, segment := range segments {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		slots <- struct{}{}
		go func(i int, segment Segment) {
			defer wg.Done()
			defer func() { <-slots }()
			sf, err := e.forecaster.Forecast(segment, horizon)
			if err != nil {
				e.logger.WithField("segment", segment.ID).WithError(err).Error("Segment forecast failed, dropping")
				return
			}
			results[i] = &sf
		}(i, segment)
	}
	wg.Wait()

	forecasts := make([]SegmentForecast, 0, len(segments))
	for _, r := range results {
		if r != nil {
			forecasts = append(forecasts, *r)
		}
	}
	return forecasts, len(segments) - len(forecasts)
}

func (e *Engine) globalFallback(ds Dataset, horizon int, strategy Strategy) (*MergedForecast, error) {
	implicit := Segment{
		ID:       "global",
		Type:     SegmentGroup,
		Records:  ds,
		Metadata: map[string]interface{}{"size": len(ds)},
	}
	sf, err := e.forecaster.Forecast(implicit, horizon)
	if err != nil {
		return nil, err
	}
	return &MergedForecast{
		Forecast:             sf.Forecast,
		Confidence:           sf.Confidence,
		NumSegments:          0,
		Strategy:             mergeGlobalFallback,
		SegmentationStrategy: strategy,
	}, nil
}

func (e *Engine) workerCount() int {
	if e.cfg.Workers > 0 {
		return e.cfg.Workers
	}
	if count, err := cpu.Counts(true); err == nil && count > 0 {
		return count
	}
	return runtime.NumCPU()
}
