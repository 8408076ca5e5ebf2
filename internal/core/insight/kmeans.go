package insight

import (
	"math"
	"math/rand"
)

const (
	kmeansSeed    = 42
	kmeansMaxIter = 100
)

// kmeans runs Lloyd's algorithm with a fixed seed so repeated runs over
// the same data label rows identically. Callers guarantee len(features)
// >= k and uniform vector width.
func kmeans(features [][]float64, k int) []int {
	rng := rand.New(rand.NewSource(kmeansSeed))

	// Initial centroids: k distinct rows.
	perm := rng.Perm(len(features))
	centroids := make([][]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = append([]float64(nil), features[perm[i]]...)
	}

	labels := make([]int, len(features))
	for iter := 0; iter < kmeansMaxIter; iter++ {
		changed := false
		for i, vec := range features {
			best := nearestCentroid(vec, centroids)
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, len(features[0]))
		}
		for i, vec := range features {
			c := labels[i]
			counts[c]++
			for j, v := range vec {
				sums[c][j] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Empty cluster keeps its previous centroid.
				continue
			}
			for j := range sums[c] {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}
	return labels
}

func nearestCentroid(vec []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.MaxFloat64
	for c, centroid := range centroids {
		var d float64
		for j, v := range vec {
			diff := v - centroid[j]
			d += diff * diff
		}
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}
