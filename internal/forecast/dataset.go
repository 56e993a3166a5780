package forecast

import (
	"fmt"
	"sort"
	"time"
)

// PriceRecord is a single historical price observation together with the
// covariates known at observation time. Records are treated as immutable
// once they enter the pipeline.
type PriceRecord struct {
	Timestamp time.Time          `json:"timestamp"`
	Price     float64            `json:"price"`
	Features  map[string]float64 `json:"features,omitempty"`
	Labels    map[string]string  `json:"labels,omitempty"`
}

// Feature returns a named numeric covariate.
func (r PriceRecord) Feature(name string) (float64, bool) {
	v, ok := r.Features[name]
	return v, ok
}

// Label returns a named categorical covariate.
func (r PriceRecord) Label(name string) (string, bool) {
	v, ok := r.Labels[name]
	return v, ok
}

// Dataset is an ordered collection of price records sharing a schema. Input
// order is preserved; stages that need chronological order work on a sorted
// copy so the caller's slice is never rearranged.
type Dataset []PriceRecord

// SortedByTime returns a copy of the dataset in chronological order.
func (d Dataset) SortedByTime() Dataset {
	out := make(Dataset, len(d))
	copy(out, d)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Prices extracts the price series in the dataset's current order.
func (d Dataset) Prices() []float64 {
	prices := make([]float64, len(d))
	for i, r := range d {
		prices[i] = r.Price
	}
	return prices
}

// FeatureMatrix builds one row per record from the named numeric covariates,
// in the given column order. Records missing any of the columns make the
// whole matrix invalid since downstream fits assume a rectangular input.
func (d Dataset) FeatureMatrix(columns []string) ([][]float64, error) {
	matrix := make([][]float64, len(d))
	for i, r := range d {
		row := make([]float64, len(columns))
		for j, name := range columns {
			v, ok := r.Feature(name)
			if !ok {
				return nil, fmt.Errorf("record %d is missing feature %q: %w", i, name, ErrMissingFeature)
			}
			row[j] = v
		}
		matrix[i] = row
	}
	return matrix, nil
}
