package forecast

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// Strategy selects how the divide phase partitions the dataset.
type Strategy string

const (
	StrategyRoute         Strategy = "route"
	StrategyTemporal      Strategy = "temporal"
	StrategyDemandCluster Strategy = "demand-cluster"
	// StrategyHierarchical splits by route first, then weekly within each
	// route. Route and time both materially affect fares and the combination
	// yields the most stable per-segment sample sizes, so it is the default.
	StrategyHierarchical Strategy = "hierarchical"
)

// TemporalBucket is the calendar period used for temporal segmentation.
type TemporalBucket string

const (
	BucketDay   TemporalBucket = "day"
	BucketWeek  TemporalBucket = "week"
	BucketMonth TemporalBucket = "month"
)

// Covariate columns the demand-pattern strategy clusters on, alongside price.
var demandFeatureColumns = []string{"days_to_departure", "occupancy_rate"}

// Segmenter implements the divide phase: it partitions a dataset into
// segments and discards any partition smaller than the configured minimum.
// It only reads its input; segments hold sub-slices views of the caller's
// records and are never mutated downstream.
type Segmenter struct {
	minSegmentSize int
	clusterCap     int
	clusterer      Clusterer
	logger         *logrus.Logger
}

// NewSegmenter creates a segmenter. clusterCap bounds the demand cluster
// count (the original system uses 5 typical demand patterns).
func NewSegmenter(minSegmentSize, clusterCap int, clusterer Clusterer, logger *logrus.Logger) *Segmenter {
	return &Segmenter{
		minSegmentSize: minSegmentSize,
		clusterCap:     clusterCap,
		clusterer:      clusterer,
		logger:         logger,
	}
}

// Segment partitions the dataset with the requested strategy. An empty
// dataset yields an empty segment list for every strategy.
func (s *Segmenter) Segment(ds Dataset, strategy Strategy) ([]Segment, error) {
	switch strategy {
	case StrategyRoute:
		return s.ByRoute(ds), nil
	case StrategyTemporal:
		return s.ByTemporal(ds, BucketMonth), nil
	case StrategyDemandCluster:
		return s.ByDemandPattern(ds)
	case StrategyHierarchical:
		return s.Hierarchical(ds), nil
	default:
		return nil, fmt.Errorf("%q: %w", strategy, ErrUnknownStrategy)
	}
}

// ByRoute groups records by their origin-destination pair.
func (s *Segmenter) ByRoute(ds Dataset) []Segment {
	groups := make(map[string]Dataset)
	for _, r := range ds {
		origin, _ := r.Label("origin")
		destination, _ := r.Label("destination")
		groups[origin+"\x00"+destination] = append(groups[origin+"\x00"+destination], r)
	}

	var segments []Segment
	for _, key := range sortedKeys(groups) {
		records := groups[key]
		if len(records) < s.minSegmentSize {
			continue
		}
		origin, _ := records[0].Label("origin")
		destination, _ := records[0].Label("destination")
		segments = append(segments, Segment{
			ID:      fmt.Sprintf("route_%s_%s", origin, destination),
			Type:    SegmentRoute,
			Records: records,
			Metadata: map[string]interface{}{
				"origin":      origin,
				"destination": destination,
				"size":        len(records),
			},
		})
		s.logger.WithFields(logrus.Fields{
			"origin":      origin,
			"destination": destination,
			"records":     len(records),
		}).Debug("Created route segment")
	}
	return segments
}

// ByGroup groups records by an arbitrary categorical label, e.g. airline.
func (s *Segmenter) ByGroup(ds Dataset, label string) []Segment {
	groups := make(map[string]Dataset)
	for _, r := range ds {
		value, _ := r.Label(label)
		groups[value] = append(groups[value], r)
	}

	var segments []Segment
	for _, value := range sortedKeys(groups) {
		records := groups[value]
		if len(records) < s.minSegmentSize {
			continue
		}
		segments = append(segments, Segment{
			ID:      fmt.Sprintf("%s_%s", label, value),
			Type:    SegmentGroup,
			Records: records,
			Metadata: map[string]interface{}{
				label:  value,
				"size": len(records),
			},
		})
	}
	return segments
}

// ByTemporal groups records by the calendar period their timestamp falls in.
func (s *Segmenter) ByTemporal(ds Dataset, bucket TemporalBucket) []Segment {
	groups := make(map[string]Dataset)
	for _, r := range ds {
		period := periodKey(r.Timestamp, bucket)
		groups[period] = append(groups[period], r)
	}

	var segments []Segment
	for _, period := range sortedKeys(groups) {
		records := groups[period]
		if len(records) < s.minSegmentSize {
			continue
		}
		first, last := timeRange(records)
		segments = append(segments, Segment{
			ID:      "temporal_" + period,
			Type:    SegmentTemporal,
			Records: records,
			Metadata: map[string]interface{}{
				"period": period,
				"start":  first,
				"end":    last,
				"size":   len(records),
			},
		})
	}
	return segments
}

// ByDemandPattern clusters records by booking-behavior features (lead time,
// occupancy, price) and turns each qualifying cluster into a segment. When
// the computed cluster count falls below two it returns
// ErrInsufficientForClustering so callers can tell this apart from a
// strategy that found no qualifying groups.
func (s *Segmenter) ByDemandPattern(ds Dataset) ([]Segment, error) {
	k := len(ds) / s.minSegmentSize
	if k > s.clusterCap {
		k = s.clusterCap
	}
	if k < 2 {
		return nil, fmt.Errorf("%d records with min segment size %d: %w",
			len(ds), s.minSegmentSize, ErrInsufficientForClustering)
	}

	features := make([][]float64, len(ds))
	for i, r := range ds {
		row := make([]float64, 0, len(demandFeatureColumns)+1)
		for _, col := range demandFeatureColumns {
			v, ok := r.Feature(col)
			if !ok {
				return nil, fmt.Errorf("record %d lacks %q: %w", i, col, ErrMissingFeature)
			}
			row = append(row, v)
		}
		features[i] = append(row, r.Price)
	}

	assignments, err := s.clusterer.Cluster(features, k)
	if err != nil {
		return nil, fmt.Errorf("demand clustering: %w", err)
	}

	clusters := make(map[int]Dataset)
	for i, c := range assignments {
		clusters[c] = append(clusters[c], ds[i])
	}

	clusterIDs := make([]int, 0, len(clusters))
	for c := range clusters {
		clusterIDs = append(clusterIDs, c)
	}
	sort.Ints(clusterIDs)

	var segments []Segment
	for _, c := range clusterIDs {
		records := clusters[c]
		if len(records) < s.minSegmentSize {
			continue
		}
		var occupancy float64
		for _, r := range records {
			v, _ := r.Feature("occupancy_rate")
			occupancy += v
		}
		segments = append(segments, Segment{
			ID:      fmt.Sprintf("demand_%d", c),
			Type:    SegmentDemandCluster,
			Records: records,
			Metadata: map[string]interface{}{
				"cluster_id":    c,
				"avg_occupancy": occupancy / float64(len(records)),
				"size":          len(records),
			},
		})
	}
	s.logger.WithFields(logrus.Fields{
		"clusters": k,
		"segments": len(segments),
	}).Debug("Demand-pattern segmentation complete")
	return segments, nil
}

// Hierarchical segments by route first, then weekly within each route.
// Child IDs keep the full ancestry and route metadata is merged into the
// children, with the child's own size kept authoritative.
func (s *Segmenter) Hierarchical(ds Dataset) []Segment {
	var segments []Segment
	for _, route := range s.ByRoute(ds) {
		for _, child := range s.ByTemporal(route.Records, BucketWeek) {
			metadata := make(map[string]interface{}, len(child.Metadata)+len(route.Metadata))
			for k, v := range child.Metadata {
				metadata[k] = v
			}
			for k, v := range route.Metadata {
				if k == "size" {
					continue
				}
				metadata[k] = v
			}
			segments = append(segments, Segment{
				ID:       route.ID + "_" + child.ID,
				Type:     SegmentHierarchical,
				Records:  child.Records,
				Metadata: metadata,
			})
		}
	}
	s.logger.WithField("segments", len(segments)).Debug("Hierarchical segmentation complete")
	return segments
}

func periodKey(ts time.Time, bucket TemporalBucket) string {
	switch bucket {
	case BucketDay:
		return ts.Format("2006-01-02")
	case BucketWeek:
		year, week := ts.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default:
		return ts.Format("2006-01")
	}
}

func timeRange(ds Dataset) (time.Time, time.Time) {
	first, last := ds[0].Timestamp, ds[0].Timestamp
	for _, r := range ds[1:] {
		if r.Timestamp.Before(first) {
			first = r.Timestamp
		}
		if r.Timestamp.After(last) {
			last = r.Timestamp
		}
	}
	return first, last
}

func sortedKeys(groups map[string]Dataset) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
