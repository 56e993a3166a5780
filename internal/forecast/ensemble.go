package forecast

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// EnsembleWeights are the static member weights, renormalized over whichever
// members actually fit a given segment.
type EnsembleWeights struct {
	Autoregressive       float64 `json:"autoregressive"`
	ExponentialSmoothing float64 `json:"exponential_smoothing"`
	MovingAverage        float64 `json:"moving_average"`
}

// DefaultEnsembleWeights mirrors the production weighting: the
// autoregressive model leads, smoothing and the moving average split the
// rest.
func DefaultEnsembleWeights() EnsembleWeights {
	return EnsembleWeights{Autoregressive: 0.4, ExponentialSmoothing: 0.3, MovingAverage: 0.3}
}

// fallbackOnlyConfidence is reported when only the moving-average fallback
// fit, since there is no inter-model agreement to measure.
const fallbackOnlyConfidence = 0.6

// SegmentForecaster implements the conquer phase for a single segment. Each
// ensemble member is independently fallible; a failed member is logged and
// excluded, and only an empty price series fails the segment itself.
type SegmentForecaster struct {
	weights        EnsembleWeights
	window         int
	seasonalPeriod int
	logger         *logrus.Logger
}

// NewSegmentForecaster creates a segment forecaster with the given ensemble
// weights, moving-average window, and seasonal period.
func NewSegmentForecaster(weights EnsembleWeights, window, seasonalPeriod int, logger *logrus.Logger) *SegmentForecaster {
	return &SegmentForecaster{
		weights:        weights,
		window:         window,
		seasonalPeriod: seasonalPeriod,
		logger:         logger,
	}
}

// Forecast produces the ensemble forecast and confidence for one segment.
func (f *SegmentForecaster) Forecast(segment Segment, horizon int) (SegmentForecast, error) {
	if horizon < 1 {
		return SegmentForecast{}, fmt.Errorf("horizon %d: %w", horizon, ErrInvalidHorizon)
	}
	prices := segment.Records.SortedByTime().Prices()
	if len(prices) == 0 {
		return SegmentForecast{}, fmt.Errorf("segment %s: %w", segment.ID, ErrEmptySeries)
	}

	attempts := []struct {
		result ModelResult
		weight float64
	}{
		{f.tryModel(segment.ID, ModelAutoregressive, prices, horizon), f.weights.Autoregressive},
		{f.tryModel(segment.ID, ModelExponentialSmoothing, prices, horizon), f.weights.ExponentialSmoothing},
		{f.tryModel(segment.ID, ModelMovingAverage, prices, horizon), f.weights.MovingAverage},
	}

	var members [][]float64
	var weights []float64
	for _, a := range attempts {
		if a.result.OK() {
			members = append(members, a.result.Forecast)
			weights = append(weights, a.weight)
		}
	}
	if len(members) == 0 {
		// Unreachable for non-empty series: the moving average always fits.
		return SegmentForecast{}, fmt.Errorf("segment %s: all ensemble members failed: %w", segment.ID, ErrModelFit)
	}

	normalize(weights)
	combined := weightedElementwise(members, weights, horizon)

	return SegmentForecast{
		SegmentID:  segment.ID,
		Forecast:   combined,
		Confidence: agreementConfidence(members, combined),
		Metadata:   segment.Metadata,
	}, nil
}

// RegressionForecast is the covariate-driven alternative to the default
// ensemble, used when the caller knows which feature columns carry signal.
func (f *SegmentForecaster) RegressionForecast(segment Segment, horizon int, columns []string) (SegmentForecast, error) {
	if horizon < 1 {
		return SegmentForecast{}, fmt.Errorf("horizon %d: %w", horizon, ErrInvalidHorizon)
	}
	predicted, err := forecastRegression(segment.Records.SortedByTime(), horizon, columns)
	if err != nil {
		return SegmentForecast{}, fmt.Errorf("segment %s: %w", segment.ID, err)
	}
	return SegmentForecast{
		SegmentID:  segment.ID,
		Forecast:   predicted,
		Confidence: fallbackOnlyConfidence,
		Metadata:   segment.Metadata,
	}, nil
}

func (f *SegmentForecaster) tryModel(segmentID string, kind ModelKind, prices []float64, horizon int) ModelResult {
	var result ModelResult
	switch kind {
	case ModelAutoregressive:
		forecast, err := forecastAutoregressive(prices, horizon)
		result = attempt(kind, forecast, err)
	case ModelExponentialSmoothing:
		forecast, err := forecastExponentialSmoothing(prices, horizon, f.seasonalPeriod)
		result = attempt(kind, forecast, err)
	case ModelMovingAverage:
		forecast, err := forecastMovingAverage(prices, horizon, f.window)
		result = attempt(kind, forecast, err)
	}
	if !result.OK() {
		f.logger.WithFields(logrus.Fields{
			"segment": segmentID,
			"model":   string(kind),
		}).WithError(result.Err).Warn("Ensemble member failed, excluding")
	}
	return result
}

// agreementConfidence scores inter-model agreement: the mean per-step
// standard deviation across members relative to the mean forecast level,
// clamped to [0,1]. A single surviving member reports the fixed fallback
// confidence.
func agreementConfidence(members [][]float64, combined []float64) float64 {
	if len(members) < 2 {
		return fallbackOnlyConfidence
	}

	var spread float64
	for t := range combined {
		var sum float64
		for _, m := range members {
			sum += m[t]
		}
		mean := sum / float64(len(members))
		var variance float64
		for _, m := range members {
			d := m[t] - mean
			variance += d * d
		}
		spread += math.Sqrt(variance / float64(len(members)))
	}
	spread /= float64(len(combined))

	var level float64
	for _, v := range combined {
		level += v
	}
	level /= float64(len(combined))
	if level <= 0 {
		return 0.5
	}
	return clamp01(1 - spread/level)
}

func weightedElementwise(members [][]float64, weights []float64, horizon int) []float64 {
	combined := make([]float64, horizon)
	for i, m := range members {
		for t := 0; t < horizon; t++ {
			combined[t] += weights[i] * m[t]
		}
	}
	return combined
}

func normalize(weights []float64) {
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		for i := range weights {
			weights[i] = 1 / float64(len(weights))
		}
		return
	}
	for i := range weights {
		weights[i] /= total
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
