package tree

import (
	"errors"
	"sort"
)

var (
	ErrLabelOrder = errors.New("tree: leaves are not an antichain in left/right order")
)

// A Truncation is a finite antichain of labels held in canonical
// left/right order: the leaf set of a finite subtree. It is immutable;
// coarsening builds a fresh one per step.
type Truncation struct {
	leaves []NodeLabel
}

// NewTruncation validates that leaves are sorted and pairwise
// incomparable under ancestry and wraps them without copying.
func NewTruncation(leaves []NodeLabel) (Truncation, error) {
	for i := 1; i < len(leaves); i++ {
		if leaves[i-1].Compare(leaves[i]) >= 0 || leaves[i-1].IsAncestorOf(leaves[i]) {
			return Truncation{}, ErrLabelOrder
		}
	}
	return Truncation{leaves: leaves}, nil
}

// TruncationFromLeafSet sorts an arbitrary leaf set into canonical order.
// The set must still be an antichain.
func TruncationFromLeafSet(leaves []NodeLabel) (Truncation, error) {
	sorted := make([]NodeLabel, len(leaves))
	copy(sorted, leaves)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Compare(sorted[j]) < 0
	})
	return NewTruncation(sorted)
}

func (t Truncation) Len() int             { return len(t.leaves) }
func (t Truncation) Leaf(i int) NodeLabel { return t.leaves[i] }

// Leaves returns the backing slice. Callers must not mutate it.
func (t Truncation) Leaves() []NodeLabel { return t.leaves }

// Subtree returns the half-open index range [i, j) of leaves that are l
// or descendants of l. Descendants of any label form a contiguous run
// because the leaves are in left/right order.
func (t Truncation) Subtree(l NodeLabel) (int, int) {
	lo := sort.Search(len(t.leaves), func(i int) bool {
		return t.leaves[i].Compare(l) >= 0
	})
	hi := sort.Search(len(t.leaves), func(i int) bool {
		return t.leaves[i].Compare(l) >= 0 && !l.IsAncestorOrEqual(t.leaves[i])
	})
	return lo, hi
}

// Slice returns the sub-truncation over [i, j).
func (t Truncation) Slice(i, j int) Truncation {
	return Truncation{leaves: t.leaves[i:j]}
}

// A Cherry is a node whose two children are adjacent leaves of the
// truncation. Index addresses the left child.
type Cherry struct {
	Parent NodeLabel
	Index  int
}

// HasAsCherry reports whether both children of l appear as consecutive
// leaves.
func (t Truncation) HasAsCherry(l NodeLabel) bool {
	lo, hi := t.Subtree(l)
	return hi-lo == 2 && t.leaves[lo].Equal(l.Left()) && t.leaves[lo+1].Equal(l.Right())
}

// Cherries scans the sorted leaves for adjacent sibling pairs.
func (t Truncation) Cherries() []Cherry {
	var out []Cherry
	for i := 0; i+1 < len(t.leaves); i++ {
		l := t.leaves[i]
		if l.IsLeftChild() && t.leaves[i+1].Equal(l.Sibling()) {
			out = append(out, Cherry{Parent: l.Parent(), Index: i})
		}
	}
	return out
}

// MinimalCompletion extends the leaf set so that every internal node of
// the implied subtree has descendants in the set on both sides; the
// result is the leaf set of a finite complete binary subtree.
func (t Truncation) MinimalCompletion() Truncation {
	if len(t.leaves) == 0 {
		return Truncation{leaves: []NodeLabel{RootLabel()}}
	}
	var out []NodeLabel
	var fill func(node NodeLabel, lo, hi int)
	fill = func(node NodeLabel, lo, hi int) {
		if hi == lo {
			out = append(out, node)
			return
		}
		if hi-lo == 1 && t.leaves[lo].Equal(node) {
			out = append(out, node)
			return
		}
		left, right := node.Left(), node.Right()
		_, leftHi := t.Slice(lo, hi).subtreeWithin(lo, left)
		fill(left, lo, leftHi)
		fill(right, leftHi, hi)
	}
	fill(RootLabel(), 0, len(t.leaves))
	return Truncation{leaves: out}
}

// subtreeWithin is Subtree on a slice view, mapped back to indices of the
// parent truncation via base.
func (t Truncation) subtreeWithin(base int, l NodeLabel) (int, int) {
	lo, hi := t.Subtree(l)
	return base + lo, base + hi
}

// Contains reports whether l itself is a leaf of the truncation.
func (t Truncation) Contains(l NodeLabel) bool {
	lo, hi := t.Subtree(l)
	return hi-lo == 1 && t.leaves[lo].Equal(l)
}

// MaxDepth returns the depth of the deepest leaf, or -1 when empty.
func (t Truncation) MaxDepth() int {
	d := -1
	for _, l := range t.leaves {
		if ld := l.Depth(); ld > d {
			d = ld
		}
	}
	return d
}
