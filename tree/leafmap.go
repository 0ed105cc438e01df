package tree

import "errors"

var ErrValueArity = errors.New("tree: value vector length differs from leaf count")

// A LabelStream yields labels root-down, one per call. Streams are the
// explicit form of the lazy descents produced by the spatial tree.
type LabelStream interface {
	Next() (NodeLabel, bool)
}

// A LeafMap pairs a truncation with a parallel value vector.
type LeafMap[V any] struct {
	trunc Truncation
	vals  []V
}

func NewLeafMap[V any](t Truncation, vals []V) (LeafMap[V], error) {
	if t.Len() != len(vals) {
		return LeafMap[V]{}, ErrValueArity
	}
	return LeafMap[V]{trunc: t, vals: vals}, nil
}

func (m LeafMap[V]) Truncation() Truncation { return m.trunc }
func (m LeafMap[V]) Len() int               { return m.trunc.Len() }
func (m LeafMap[V]) Leaf(i int) NodeLabel   { return m.trunc.Leaf(i) }
func (m LeafMap[V]) Value(i int) V          { return m.vals[i] }

// Values returns the backing slice. Callers must not mutate it.
func (m LeafMap[V]) Values() []V { return m.vals }

// Query walks a root-down label stream and returns the deepest streamed
// label that is a leaf or an ancestor of one. The boolean reports whether
// the label is itself a leaf, in which case its value is returned.
func (m LeafMap[V]) Query(desc LabelStream) (NodeLabel, V, bool) {
	var zero V
	best := NodeLabel{}
	for {
		l, ok := desc.Next()
		if !ok {
			return best, zero, false
		}
		lo, hi := m.trunc.Subtree(l)
		if hi == lo {
			return best, zero, false
		}
		best = l
		if hi-lo == 1 && m.trunc.Leaf(lo).Equal(l) {
			return l, m.vals[lo], true
		}
	}
}

// Slice returns the parallel sub-map over [i, j).
func (m LeafMap[V]) Slice(i, j int) LeafMap[V] {
	return LeafMap[V]{trunc: m.trunc.Slice(i, j), vals: m.vals[i:j]}
}

// Concat joins two maps whose truncations are adjacent in left/right
// order.
func Concat[V any](a, b LeafMap[V]) (LeafMap[V], error) {
	leaves := make([]NodeLabel, 0, a.Len()+b.Len())
	leaves = append(leaves, a.trunc.Leaves()...)
	leaves = append(leaves, b.trunc.Leaves()...)
	t, err := NewTruncation(leaves)
	if err != nil {
		return LeafMap[V]{}, err
	}
	vals := make([]V, 0, len(leaves))
	vals = append(vals, a.vals...)
	vals = append(vals, b.vals...)
	return LeafMap[V]{trunc: t, vals: vals}, nil
}
