// Package estimate hosts the workflow around the core histogram: turning
// raw points into aggregated leaf counts and selecting a best estimate
// along a backtrack trajectory.
package estimate

import (
	"sort"

	"github.com/statlas/densitree/histogram"
	"github.com/statlas/densitree/log"
	"github.com/statlas/densitree/tree"
)

// LabelPoints descends every point to the given depth and aggregates the
// resulting labels into a canonical leaf-count map. This is the input
// contract an external shuffler would otherwise deliver.
func LabelPoints(st histogram.SpaceTree, depth int, points [][]float64) (*histogram.Histogram, error) {
	agg := make(map[string]histogram.Count)
	labs := make(map[string]tree.NodeLabel)
	dropped := 0
	for _, p := range points {
		l, ok := descendToDepth(st, p, depth)
		if !ok {
			dropped++
			continue
		}
		key := string(l.Bytes())
		agg[key]++
		labs[key] = l
	}
	if dropped > 0 {
		log.Debugf("labelling dropped %d points outside the root box", dropped)
	}

	leaves := make([]tree.NodeLabel, 0, len(labs))
	for _, l := range labs {
		leaves = append(leaves, l)
	}
	sort.Slice(leaves, func(i, j int) bool {
		return leaves[i].Compare(leaves[j]) < 0
	})
	counts := make([]histogram.Count, len(leaves))
	var total histogram.Count
	for i, l := range leaves {
		counts[i] = agg[string(l.Bytes())]
		total += counts[i]
	}

	trunc, err := tree.NewTruncation(leaves)
	if err != nil {
		return nil, err
	}
	m, err := tree.NewLeafMap(trunc, counts)
	if err != nil {
		return nil, err
	}
	return histogram.New(st, total, m)
}

func descendToDepth(st histogram.SpaceTree, p []float64, depth int) (tree.NodeLabel, bool) {
	desc := st.DescendBox(p)
	var last tree.NodeLabel
	for k := 0; k <= depth; k++ {
		l, ok := desc.Next()
		if !ok {
			return tree.NodeLabel{}, false
		}
		last = l
	}
	return last, true
}

// CoarsenAtDepth pre-aggregates a count map by truncating every leaf
// below the given depth and summing collapsed runs: the cherry-merge
// pre-aggregation a distributed shuffle applies before handing counts to
// the core.
func CoarsenAtDepth(counts tree.LeafMap[histogram.Count], depth int) (tree.LeafMap[histogram.Count], error) {
	var leaves []tree.NodeLabel
	var sums []histogram.Count
	for i := 0; i < counts.Len(); i++ {
		l := counts.Leaf(i).Truncate(depth)
		if n := len(leaves); n > 0 && leaves[n-1].Equal(l) {
			sums[n-1] += counts.Value(i)
			continue
		}
		leaves = append(leaves, l)
		sums = append(sums, counts.Value(i))
	}
	trunc, err := tree.NewTruncation(leaves)
	if err != nil {
		return tree.LeafMap[histogram.Count]{}, err
	}
	return tree.NewLeafMap(trunc, sums)
}
