package histogram

import (
	"sort"

	"github.com/statlas/densitree/tree"
)

// TailProbabilities maps each leaf to the cumulative probability of the
// leaf itself and every leaf before it in density-descending order
// (equal densities ordered by label), i.e. the mass of the smallest
// coverage region containing it. Values are non-decreasing along the
// density-descending build order and the largest equals the total mass.
type TailProbabilities struct {
	tree   SpaceTree
	tails  tree.LeafMap[float64]
	levels []float64 // cumulative values, ascending
}

// TailProbabilities derives the coverage map of a normalized histogram.
func (d *DensityHistogram) TailProbabilities() *TailProbabilities {
	n := d.densities.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := d.densities.Value(order[i]), d.densities.Value(order[j])
		if a.Density != b.Density {
			return a.Density > b.Density
		}
		return d.densities.Leaf(order[i]).Compare(d.densities.Leaf(order[j])) < 0
	})

	vals := make([]float64, n)
	levels := make([]float64, 0, n)
	cum := 0.0
	for _, i := range order {
		v := d.densities.Value(i)
		cum += v.Density * v.Volume
		vals[i] = cum
		levels = append(levels, cum)
	}

	m, err := tree.NewLeafMap(d.densities.Truncation(), vals)
	if err != nil {
		panic(err) // parallel by construction
	}
	return &TailProbabilities{tree: d.tree, tails: m, levels: levels}
}

// NewTailProbabilities rebuilds a coverage map from its leaf values,
// e.g. after decoding. The level index is recovered by sorting.
func NewTailProbabilities(st SpaceTree, tails tree.LeafMap[float64]) *TailProbabilities {
	levels := make([]float64, tails.Len())
	copy(levels, tails.Values())
	sort.Float64s(levels)
	return &TailProbabilities{tree: st, tails: tails, levels: levels}
}

func (t *TailProbabilities) Tree() SpaceTree            { return t.tree }
func (t *TailProbabilities) Map() tree.LeafMap[float64] { return t.tails }

// Query returns the tail probability of the leaf containing point.
// Points outside the root box or off every leaf lie in the complement of
// every finite coverage region; they query to 1.
func (t *TailProbabilities) Query(point []float64) float64 {
	_, v, ok := t.tails.Query(t.tree.DescendBox(point))
	if !ok {
		return 1.0
	}
	return v
}

// ConfidenceRegion returns the smallest stored tail level at least
// alpha: the mass of the tightest coverage region with probability at
// least alpha.
func (t *TailProbabilities) ConfidenceRegion(alpha float64) float64 {
	i := sort.SearchFloat64s(t.levels, alpha)
	if i >= len(t.levels) {
		return t.levels[len(t.levels)-1]
	}
	return t.levels[i]
}

// CoverageLeaves returns the indices of the leaves forming the coverage
// region of the given level, i.e. those with tail value at most level.
func (t *TailProbabilities) CoverageLeaves(level float64) []int {
	var out []int
	for i := 0; i < t.tails.Len(); i++ {
		if t.tails.Value(i) <= level {
			out = append(out, i)
		}
	}
	return out
}
