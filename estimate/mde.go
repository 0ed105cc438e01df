package estimate

import (
	"math"

	"github.com/statlas/densitree/histogram"
	"github.com/statlas/densitree/log"
)

// MDE selects the minimum-distance estimate among the first k candidates
// of a backtrack trajectory, judged against a held-out validation
// histogram. For each ordered candidate pair the Scheffé set
// {x : f_i(x) > f_j(x)} is assembled from validation leaves, and a
// candidate's distance is its worst absolute deviation between predicted
// and empirical mass over all such sets. The validation truncation must
// refine every candidate so densities are constant on its leaves; count
// validation at the common fine depth to guarantee that.
//
// Returns the winning candidate and its index.
func MDE(candidates []*histogram.DensityHistogram, validation *histogram.Histogram, k int) (*histogram.DensityHistogram, int) {
	if len(candidates) == 0 {
		panic("estimate: MDE over an empty trajectory")
	}
	if k <= 0 || k > len(candidates) {
		k = len(candidates)
	}
	cands := candidates[:k]

	vt := validation.Tree()
	vc := validation.Counts()
	n := vc.Len()
	total := float64(validation.Total())

	// Densities and cell stats on the validation partition.
	dens := make([][]float64, len(cands))
	vols := make([]float64, n)
	emp := make([]float64, n)
	centers := make([][]float64, n)
	for i := 0; i < n; i++ {
		cell := vt.CellAt(vc.Leaf(i))
		vols[i] = cell.Volume()
		emp[i] = float64(vc.Value(i)) / total
		c := make([]float64, cell.Dims())
		for a := range c {
			c[a] = cell.Mid(a)
		}
		centers[i] = c
	}
	for ci, cand := range cands {
		row := make([]float64, n)
		for i := 0; i < n; i++ {
			row[i] = cand.Density(centers[i])
		}
		dens[ci] = row
	}

	delta := make([]float64, len(cands))
	for i := range cands {
		for j := range cands {
			if i == j {
				continue
			}
			// Scheffé set of (i, j); deviations for every candidate.
			for ci := range cands {
				predicted := 0.0
				observed := 0.0
				for leaf := 0; leaf < n; leaf++ {
					if dens[i][leaf] > dens[j][leaf] {
						predicted += dens[ci][leaf] * vols[leaf]
						observed += emp[leaf]
					}
				}
				if dev := math.Abs(predicted - observed); dev > delta[ci] {
					delta[ci] = dev
				}
			}
		}
	}

	best := 0
	for ci := 1; ci < len(cands); ci++ {
		if delta[ci] < delta[best] {
			best = ci
		}
	}
	log.Debugf("mde picked candidate %d of %d, deviation %g", best, len(cands), delta[best])
	return cands[best], best
}
