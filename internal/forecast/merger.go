package forecast

import (
	"fmt"
	"sort"
	"strings"
)

// MergeStrategy selects how per-segment forecasts are combined.
type MergeStrategy string

const (
	// MergeWeightedAverage weights each segment by its relative sample size.
	MergeWeightedAverage MergeStrategy = "weighted_average"
	// MergeConfidenceBased weights each segment by its own confidence and
	// reports the best member's confidence rather than diluting it. Default.
	MergeConfidenceBased MergeStrategy = "confidence_based"
	// MergeHierarchical merges within ancestry groups first, then across
	// groups, both confidence-based.
	MergeHierarchical MergeStrategy = "hierarchical"

	// mergeGlobalFallback marks the degenerate whole-dataset result that
	// bypassed the combine phase entirely.
	mergeGlobalFallback MergeStrategy = "global"
)

// Merger implements the combine phase. Strategies never mutate their inputs
// and are insensitive to input order.
type Merger struct {
	// ancestryDepth is how many leading ID tokens form a hierarchical merge
	// group. The production heuristic is two (route origin + destination
	// prefix); it is configurable because other strategy compositions have
	// different ancestry shapes.
	ancestryDepth int
}

// NewMerger creates a merger with the given hierarchical ancestry depth.
func NewMerger(ancestryDepth int) *Merger {
	if ancestryDepth < 1 {
		ancestryDepth = 2
	}
	return &Merger{ancestryDepth: ancestryDepth}
}

// Merge combines a non-empty list of segment forecasts under the named
// strategy. All member vectors must share the same length.
func (m *Merger) Merge(forecasts []SegmentForecast, strategy MergeStrategy) (*MergedForecast, error) {
	if len(forecasts) == 0 {
		return nil, ErrNoForecast
	}
	horizon := len(forecasts[0].Forecast)
	for _, sf := range forecasts {
		if len(sf.Forecast) != horizon {
			return nil, fmt.Errorf("segment %s has horizon %d, want %d", sf.SegmentID, len(sf.Forecast), horizon)
		}
	}

	switch strategy {
	case MergeWeightedAverage:
		return m.weightedAverage(forecasts), nil
	case MergeConfidenceBased:
		return m.confidenceBased(forecasts), nil
	case MergeHierarchical:
		return m.hierarchical(forecasts), nil
	default:
		return nil, fmt.Errorf("%q: %w", strategy, ErrUnknownMergeStrategy)
	}
}

func (m *Merger) weightedAverage(forecasts []SegmentForecast) *MergedForecast {
	weights := make([]float64, len(forecasts))
	for i, sf := range forecasts {
		weights[i] = float64(sf.size())
	}
	normalize(weights)

	horizon := len(forecasts[0].Forecast)
	merged := make([]float64, horizon)
	var confidence float64
	for i, sf := range forecasts {
		for t := 0; t < horizon; t++ {
			merged[t] += weights[i] * sf.Forecast[t]
		}
		confidence += weights[i] * sf.Confidence
	}

	return &MergedForecast{
		Forecast:    merged,
		Confidence:  confidence,
		NumSegments: len(forecasts),
		Strategy:    MergeWeightedAverage,
	}
}

func (m *Merger) confidenceBased(forecasts []SegmentForecast) *MergedForecast {
	weights := make([]float64, len(forecasts))
	best := 0.0
	for i, sf := range forecasts {
		weights[i] = sf.Confidence
		if sf.Confidence > best {
			best = sf.Confidence
		}
	}
	normalize(weights)

	horizon := len(forecasts[0].Forecast)
	merged := make([]float64, horizon)
	for i, sf := range forecasts {
		for t := 0; t < horizon; t++ {
			merged[t] += weights[i] * sf.Forecast[t]
		}
	}

	return &MergedForecast{
		Forecast:    merged,
		Confidence:  best,
		NumSegments: len(forecasts),
		Strategy:    MergeConfidenceBased,
	}
}

func (m *Merger) hierarchical(forecasts []SegmentForecast) *MergedForecast {
	groups := make(map[string][]SegmentForecast)
	for _, sf := range forecasts {
		groups[m.ancestryKey(sf.SegmentID)] = append(groups[m.ancestryKey(sf.SegmentID)], sf)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groupForecasts := make([]SegmentForecast, 0, len(groups))
	var confidenceSum float64
	for _, key := range keys {
		result := m.confidenceBased(groups[key])
		groupForecasts = append(groupForecasts, SegmentForecast{
			SegmentID:  key,
			Forecast:   result.Forecast,
			Confidence: result.Confidence,
		})
		confidenceSum += result.Confidence
	}

	combined := m.confidenceBased(groupForecasts)
	return &MergedForecast{
		Forecast:    combined.Forecast,
		Confidence:  confidenceSum / float64(len(groupForecasts)),
		NumSegments: len(forecasts),
		NumGroups:   len(groups),
		Strategy:    MergeHierarchical,
	}
}

func (m *Merger) ancestryKey(segmentID string) string {
	tokens := strings.Split(segmentID, "_")
	if len(tokens) > m.ancestryDepth {
		tokens = tokens[:m.ancestryDepth]
	}
	return strings.Join(tokens, "_")
}
