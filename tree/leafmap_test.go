package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceStream struct {
	labs []NodeLabel
	pos  int
}

func (s *sliceStream) Next() (NodeLabel, bool) {
	if s.pos >= len(s.labs) {
		return NodeLabel{}, false
	}
	l := s.labs[s.pos]
	s.pos++
	return l, true
}

func stream(labs ...uint64) *sliceStream {
	return &sliceStream{labs: labels(labs...)}
}

func TestLeafMapQuery(t *testing.T) {
	trunc, err := NewTruncation(labels(4, 5, 3))
	require.NoError(t, err)
	m, err := NewLeafMap(trunc, []int{1, 2, 3})
	require.NoError(t, err)

	// Descent ending on a leaf returns its value.
	leaf, v, ok := m.Query(stream(1, 2, 4))
	require.True(t, ok)
	assert.Equal(t, 1, v)
	lab, _ := leaf.Uint64()
	assert.Equal(t, uint64(4), lab)

	// A deeper stream stops at the leaf.
	_, v, ok = m.Query(stream(1, 2, 5, 10))
	require.True(t, ok)
	assert.Equal(t, 2, v)

	// Descent stopping above the leaves returns the deepest ancestor.
	leaf, _, ok = m.Query(stream(1, 2))
	assert.False(t, ok)
	lab, _ = leaf.Uint64()
	assert.Equal(t, uint64(2), lab)

	// An empty stream finds nothing.
	_, _, ok = m.Query(stream())
	assert.False(t, ok)
}

func TestLeafMapArity(t *testing.T) {
	trunc, err := NewTruncation(labels(4, 5, 3))
	require.NoError(t, err)
	_, err = NewLeafMap(trunc, []int{1, 2})
	assert.ErrorIs(t, err, ErrValueArity)
}

func TestLeafMapSliceAndConcat(t *testing.T) {
	trunc, err := NewTruncation(labels(8, 9, 5, 6, 14, 15))
	require.NoError(t, err)
	m, err := NewLeafMap(trunc, []int{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	lo, hi := trunc.Subtree(NewNodeLabel(2))
	left := m.Slice(lo, hi)
	assert.Equal(t, []uint64{8, 9, 5}, asUint64s(t, left.Truncation().Leaves()))
	assert.Equal(t, []int{1, 2, 3}, left.Values())

	right := m.Slice(hi, m.Len())
	joined, err := Concat(left, right)
	require.NoError(t, err)
	assert.Equal(t, m.Values(), joined.Values())
	assert.Equal(t, asUint64s(t, m.Truncation().Leaves()), asUint64s(t, joined.Truncation().Leaves()))

	// Concatenation in the wrong order breaks canonical order.
	_, err = Concat(right, left)
	assert.ErrorIs(t, err, ErrLabelOrder)
}
