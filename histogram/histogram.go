// Package histogram implements piecewise-constant density estimates over
// an adaptively refined binary partition of a bounding box, together with
// the priority-driven coarsening that trades resolution for statistical
// stability.
package histogram

import (
	"errors"

	"github.com/statlas/densitree/spatial"
	"github.com/statlas/densitree/tree"
)

type Count = uint64

var (
	ErrZeroTotal     = errors.New("histogram: total count must be positive")
	ErrTotalMismatch = errors.New("histogram: leaf counts do not sum to the total")
	ErrZeroCount     = errors.New("histogram: every leaf count must be positive")
)

// A SpaceTree resolves labels to cells. Satisfied by *spatial.Tree and
// *spatial.CachingTree.
type SpaceTree interface {
	Root() spatial.Rectangle
	Rule() spatial.SplitRule
	Dims() int
	CellAt(tree.NodeLabel) spatial.Rectangle
	VolumeAt(tree.NodeLabel) float64
	AxisAt(tree.NodeLabel) int
	SplitOrderToDepth(int) []int
	DescendBox([]float64) *spatial.Descent
}

// A Histogram carries sample counts on the leaves of a truncation. It is
// immutable: coarsening produces fresh histograms.
type Histogram struct {
	tree   SpaceTree
	total  Count
	counts tree.LeafMap[Count]
}

// New validates the input contract: positive total, positive counts
// summing to the total, leaves a canonical antichain (enforced by the
// LeafMap's truncation).
func New(st SpaceTree, total Count, counts tree.LeafMap[Count]) (*Histogram, error) {
	if total == 0 {
		return nil, ErrZeroTotal
	}
	var sum Count
	for i := 0; i < counts.Len(); i++ {
		c := counts.Value(i)
		if c == 0 {
			return nil, ErrZeroCount
		}
		sum += c
	}
	if sum != total {
		return nil, ErrTotalMismatch
	}
	return &Histogram{tree: st, total: total, counts: counts}, nil
}

func (h *Histogram) Tree() SpaceTree              { return h.tree }
func (h *Histogram) Total() Count                 { return h.total }
func (h *Histogram) Counts() tree.LeafMap[Count]  { return h.counts }
func (h *Histogram) Truncation() tree.Truncation  { return h.counts.Truncation() }

// Density returns the estimated density at a point; 0 outside the root
// box and on cells the truncation does not cover.
func (h *Histogram) Density(point []float64) float64 {
	leaf, c, ok := h.counts.Query(h.tree.DescendBox(point))
	if !ok {
		return 0
	}
	return float64(c) / (float64(h.total) * h.tree.VolumeAt(leaf))
}

// Normalize converts counts to (density, volume) pairs. The result
// integrates to one.
func (h *Histogram) Normalize() *DensityHistogram {
	vals := make([]DensityValue, h.counts.Len())
	for i := 0; i < h.counts.Len(); i++ {
		vol := h.tree.VolumeAt(h.counts.Leaf(i))
		vals[i] = DensityValue{
			Density: float64(h.counts.Value(i)) / (float64(h.total) * vol),
			Volume:  vol,
		}
	}
	m, err := tree.NewLeafMap(h.counts.Truncation(), vals)
	if err != nil {
		panic(err) // parallel by construction
	}
	return &DensityHistogram{tree: h.tree, densities: m}
}

// Limits decides whether a cell is refined further.
type Limits func(depth int, volume float64, count Count) bool

// LimitsFn builds a Limits from the totals, so policies can be stated
// relative to the whole sample.
type LimitsFn func(totalVolume float64, totalCount Count) Limits

// DefaultLimits splits a cell while it holds more than half the sample
// or while the mass outside it is spread over a large cell.
func DefaultLimits(totalVolume float64, totalCount Count) Limits {
	return func(depth int, volume float64, count Count) bool {
		if count > totalCount/2 {
			return true
		}
		return (1-float64(count)/float64(totalCount))*volume > 0.001*totalVolume
	}
}

// SplitAndCountFrom refines the starting truncation, splitting any cell
// for which lims holds, and counts points into the resulting leaves.
// Every returned leaf fails lims and every parent of one passes it.
// Leaves that end up empty are dropped, per the input contract.
func SplitAndCountFrom(st SpaceTree, start tree.Truncation, points [][]float64, lims LimitsFn) (*Histogram, error) {
	root := st.Root()
	inBox := make([][]float64, 0, len(points))
	for _, p := range points {
		if root.Contains(p) {
			inBox = append(inBox, p)
		}
	}
	// Route points to their starting leaves by descent. Points the
	// starting truncation does not cover are dropped, like points
	// outside the root box.
	buckets := make([][][]float64, start.Len())
	for _, p := range inBox {
		desc := st.DescendBox(p)
		for {
			l, ok := desc.Next()
			if !ok {
				break
			}
			lo, hi := start.Subtree(l)
			if hi == lo {
				break
			}
			if hi-lo == 1 && start.Leaf(lo).Equal(l) {
				buckets[lo] = append(buckets[lo], p)
				break
			}
		}
	}

	var total Count
	for _, b := range buckets {
		total += Count(len(b))
	}
	if total == 0 {
		return nil, ErrZeroTotal
	}
	limit := lims(root.Volume(), total)

	var leaves []tree.NodeLabel
	var counts []Count
	var split func(l tree.NodeLabel, cell spatial.Rectangle, pts [][]float64)
	split = func(l tree.NodeLabel, cell spatial.Rectangle, pts [][]float64) {
		c := Count(len(pts))
		if c == 0 {
			return
		}
		if !limit(l.Depth(), cell.Volume(), c) {
			leaves = append(leaves, l)
			counts = append(counts, c)
			return
		}
		axis := st.AxisAt(l)
		lower, upper := cell.Split(axis)
		mid := cell.Mid(axis)
		var left, right [][]float64
		for _, p := range pts {
			if p[axis] < mid {
				left = append(left, p)
			} else {
				right = append(right, p)
			}
		}
		split(l.Left(), lower, left)
		split(l.Right(), upper, right)
	}
	for i := 0; i < start.Len(); i++ {
		l := start.Leaf(i)
		split(l, st.CellAt(l), buckets[i])
	}

	trunc, err := tree.NewTruncation(leaves)
	if err != nil {
		return nil, err
	}
	m, err := tree.NewLeafMap(trunc, counts)
	if err != nil {
		return nil, err
	}
	return New(st, total, m)
}
