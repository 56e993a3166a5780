package forecast

import "errors"

// Terminal failures surfaced to the caller of Engine.Forecast.
var (
	// ErrEmptyDataset is returned when the input dataset has no records at
	// all, so no forecast can be produced on any path.
	ErrEmptyDataset = errors.New("dataset contains no records")

	// ErrNoForecast is returned when every dispatched segment failed and the
	// merge phase has nothing to combine.
	ErrNoForecast = errors.New("no segment produced a forecast")

	// ErrInvalidHorizon is returned for a non-positive forecast horizon.
	ErrInvalidHorizon = errors.New("forecast horizon must be positive")

	// ErrUnknownStrategy is returned for a segmentation strategy the
	// segmenter does not implement.
	ErrUnknownStrategy = errors.New("unknown segmentation strategy")

	// ErrUnknownMergeStrategy is returned for a merge strategy the merger
	// does not implement.
	ErrUnknownMergeStrategy = errors.New("unknown merge strategy")
)

// Recoverable conditions handled inside the pipeline.
var (
	// ErrInsufficientForClustering signals that the computed cluster count
	// came out below two. Callers can distinguish this from a strategy that
	// simply found no qualifying groups; the engine treats both as the
	// degenerate whole-dataset path.
	ErrInsufficientForClustering = errors.New("not enough records to form demand clusters")

	// ErrEmptySeries signals that a segment carries no price points. The
	// segmenter never emits such segments, so this only reaches callers who
	// build segments by hand.
	ErrEmptySeries = errors.New("price series is empty")

	// ErrModelFit signals that an individual ensemble member could not fit
	// the series. It is logged and the member is excluded, never surfaced.
	ErrModelFit = errors.New("model could not fit series")

	// ErrMissingFeature signals a record without a covariate required by the
	// feature matrix or the clustering step.
	ErrMissingFeature = errors.New("missing feature column")
)
