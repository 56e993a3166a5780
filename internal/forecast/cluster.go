package forecast

import (
	"fmt"
	"math"
	"math/rand"
)

// Clusterer assigns each feature row to one of k clusters. The demand-pattern
// segmentation only needs this capability, so any partitional clustering
// implementation can be injected.
type Clusterer interface {
	Cluster(features [][]float64, k int) ([]int, error)
}

// KMeans is a fixed-seed Lloyd's algorithm implementation. The seed makes
// cluster assignment, and therefore the whole pipeline, reproducible for
// identical inputs.
type KMeans struct {
	Seed          int64
	MaxIterations int
}

// NewKMeans returns a deterministic k-means clusterer.
func NewKMeans(seed int64) *KMeans {
	return &KMeans{Seed: seed, MaxIterations: 100}
}

// Cluster partitions the rows into k clusters and returns one cluster index
// per row.
func (km *KMeans) Cluster(features [][]float64, k int) ([]int, error) {
	n := len(features)
	if k < 2 {
		return nil, fmt.Errorf("k=%d: %w", k, ErrInsufficientForClustering)
	}
	if n < k {
		return nil, fmt.Errorf("%d rows for %d clusters: %w", n, k, ErrInsufficientForClustering)
	}
	dims := len(features[0])
	for i, row := range features {
		if len(row) != dims {
			return nil, fmt.Errorf("feature row %d has %d columns, want %d", i, len(row), dims)
		}
	}

	maxIter := km.MaxIterations
	if maxIter <= 0 {
		maxIter = 100
	}

	rng := rand.New(rand.NewSource(km.Seed))
	centroids := make([][]float64, k)
	for i, idx := range rng.Perm(n)[:k] {
		centroids[i] = append([]float64(nil), features[idx]...)
	}

	assignments := make([]int, n)
	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, row := range features {
			best := nearestCentroid(row, centroids)
			if best != assignments[i] {
				assignments[i] = best
				changed = true
			}
		}
		if iter > 0 && !changed {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for c := range sums {
			sums[c] = make([]float64, dims)
		}
		for i, row := range features {
			c := assignments[i]
			counts[c]++
			for j, v := range row {
				sums[c][j] += v
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				// Empty cluster keeps its previous centroid.
				continue
			}
			for j := range centroids[c] {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}

	return assignments, nil
}

func nearestCentroid(row []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.MaxFloat64
	for c, centroid := range centroids {
		var dist float64
		for j, v := range row {
			d := v - centroid[j]
			dist += d * d
		}
		if dist < bestDist {
			bestDist = dist
			best = c
		}
	}
	return best
}
