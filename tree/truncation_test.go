package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(labs ...uint64) []NodeLabel {
	out := make([]NodeLabel, len(labs))
	for i, l := range labs {
		out[i] = NewNodeLabel(l)
	}
	return out
}

func asUint64s(t *testing.T, labs []NodeLabel) []uint64 {
	t.Helper()
	out := make([]uint64, len(labs))
	for i, l := range labs {
		v, ok := l.Uint64()
		require.True(t, ok)
		out[i] = v
	}
	return out
}

func TestNewTruncationValidates(t *testing.T) {
	_, err := NewTruncation(labels(8, 9, 5, 6, 14, 15))
	require.NoError(t, err)

	_, err = NewTruncation(labels(5, 4))
	assert.ErrorIs(t, err, ErrLabelOrder)

	_, err = NewTruncation(labels(2, 4))
	assert.ErrorIs(t, err, ErrLabelOrder)
}

func TestTruncationFromLeafSetSorts(t *testing.T) {
	trunc, err := TruncationFromLeafSet(labels(15, 9))
	require.NoError(t, err)
	assert.Equal(t, []uint64{9, 15}, asUint64s(t, trunc.Leaves()))
}

func TestSubtreeRanges(t *testing.T) {
	trunc, err := NewTruncation(labels(8, 9, 5, 6, 14, 15))
	require.NoError(t, err)

	testCases := []struct {
		lab    uint64
		lo, hi int
	}{
		{1, 0, 6},
		{2, 0, 3},
		{3, 3, 6},
		{4, 0, 2},
		{5, 2, 3},
		{7, 4, 6},
		{9, 1, 2},
		{10, 3, 3}, // inside 5's subtree: empty range past 5
		{28, 5, 5}, // inside 14's subtree: empty range past 14
	}
	for i, c := range testCases {
		lo, hi := trunc.Subtree(NewNodeLabel(c.lab))
		assert.Equalf(t, c.lo, lo, "wrong lower bound for case %d", i)
		assert.Equalf(t, c.hi, hi, "wrong upper bound for case %d", i)
	}
}

func TestCherries(t *testing.T) {
	trunc, err := NewTruncation(labels(8, 9, 5, 6, 14, 15))
	require.NoError(t, err)

	cherries := trunc.Cherries()
	require.Len(t, cherries, 2)
	p0, _ := cherries[0].Parent.Uint64()
	p1, _ := cherries[1].Parent.Uint64()
	assert.Equal(t, uint64(4), p0)
	assert.Equal(t, 0, cherries[0].Index)
	assert.Equal(t, uint64(7), p1)
	assert.Equal(t, 4, cherries[1].Index)

	assert.True(t, trunc.HasAsCherry(NewNodeLabel(4)))
	assert.True(t, trunc.HasAsCherry(NewNodeLabel(7)))
	assert.False(t, trunc.HasAsCherry(NewNodeLabel(2)))
	assert.False(t, trunc.HasAsCherry(NewNodeLabel(3)))
}

func TestMinimalCompletion(t *testing.T) {
	testCases := []struct {
		leaves    []uint64
		completed []uint64
	}{
		{[]uint64{1}, []uint64{1}},
		{[]uint64{2, 3}, []uint64{2, 3}},
		{[]uint64{9, 15}, []uint64{8, 9, 5, 6, 14, 15}},
		{[]uint64{4}, []uint64{4, 5, 3}},
		{[]uint64{4, 3}, []uint64{4, 5, 3}},
	}
	for i, c := range testCases {
		trunc, err := NewTruncation(labels(c.leaves...))
		require.NoError(t, err)
		completed := trunc.MinimalCompletion()
		assert.Equalf(t, c.completed, asUint64s(t, completed.Leaves()), "wrong completion for case %d", i)

		// The completion is itself a valid truncation and every node in
		// it covers a contiguous range of the original.
		_, err = NewTruncation(completed.Leaves())
		require.NoError(t, err)
		for _, l := range completed.Leaves() {
			lo, hi := trunc.Subtree(l)
			assert.LessOrEqual(t, lo, hi)
		}
	}
}

func TestMinimalCompletionOfEmpty(t *testing.T) {
	trunc, err := NewTruncation(nil)
	require.NoError(t, err)
	completed := trunc.MinimalCompletion()
	require.Equal(t, 1, completed.Len())
	assert.True(t, completed.Leaf(0).IsRoot())
}

func TestContainsAndMaxDepth(t *testing.T) {
	trunc, err := NewTruncation(labels(9, 15))
	require.NoError(t, err)
	assert.True(t, trunc.Contains(NewNodeLabel(9)))
	assert.False(t, trunc.Contains(NewNodeLabel(4)))
	assert.False(t, trunc.Contains(NewNodeLabel(18)))
	assert.Equal(t, 3, trunc.MaxDepth())
}
