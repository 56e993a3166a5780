package forecast

// SegmentType identifies which partitioning produced a segment.
type SegmentType string

const (
	SegmentRoute         SegmentType = "route"
	SegmentTemporal      SegmentType = "temporal"
	SegmentGroup         SegmentType = "group"
	SegmentDemandCluster SegmentType = "demand-cluster"
	SegmentHierarchical  SegmentType = "hierarchical-composite"
)

// Segment is a named, non-empty partition of a dataset. Hierarchical
// segmentation composes child IDs as parent_id + "_" + child_id so ancestry
// stays readable from the ID alone. Metadata always carries "size".
type Segment struct {
	ID       string                 `json:"segment_id"`
	Type     SegmentType            `json:"segment_type"`
	Records  Dataset                `json:"-"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Size reports the record count recorded in the segment metadata, falling
// back to the record slice itself.
func (s Segment) Size() int {
	if v, ok := s.Metadata["size"].(int); ok {
		return v
	}
	return len(s.Records)
}

// SegmentForecast is the conquer-phase output for one segment. Metadata is
// carried through from the segment so merge strategies can weight by size.
type SegmentForecast struct {
	SegmentID  string                 `json:"segment_id"`
	Forecast   []float64              `json:"forecast"`
	Confidence float64                `json:"confidence"`
	Metadata   map[string]interface{} `json:"metadata"`
}

func (sf SegmentForecast) size() int {
	if v, ok := sf.Metadata["size"].(int); ok && v > 0 {
		return v
	}
	return 1
}

// MergedForecast is the combined result of one engine run. It is constructed
// once per invocation and never mutated afterwards.
type MergedForecast struct {
	Forecast             []float64     `json:"forecast"`
	Confidence           float64       `json:"confidence"`
	NumSegments          int           `json:"num_segments"`
	NumGroups            int           `json:"num_groups,omitempty"`
	DroppedSegments      int           `json:"dropped_segments,omitempty"`
	Strategy             MergeStrategy `json:"strategy"`
	SegmentationStrategy Strategy      `json:"segmentation_strategy"`
}
