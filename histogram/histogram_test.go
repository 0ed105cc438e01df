package histogram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statlas/densitree/cache"
	"github.com/statlas/densitree/spatial"
	"github.com/statlas/densitree/tree"
)

func cube(t *testing.T) *spatial.Tree {
	t.Helper()
	box, err := spatial.NewRectangle([]float64{0, 0, 0}, []float64{2, 2, 2})
	require.NoError(t, err)
	st, err := spatial.NewTree(box, spatial.SplitWidest)
	require.NoError(t, err)
	return st
}

func TestNewValidatesInputContract(t *testing.T) {
	st := cube(t)
	trunc, err := tree.NewTruncation([]tree.NodeLabel{tree.NewNodeLabel(9), tree.NewNodeLabel(15)})
	require.NoError(t, err)

	m, err := tree.NewLeafMap(trunc, []Count{6, 4})
	require.NoError(t, err)
	_, err = New(st, 10, m)
	require.NoError(t, err)

	_, err = New(st, 11, m)
	assert.ErrorIs(t, err, ErrTotalMismatch)

	_, err = New(st, 0, m)
	assert.ErrorIs(t, err, ErrZeroTotal)

	zero, err := tree.NewLeafMap(trunc, []Count{10, 0})
	require.NoError(t, err)
	_, err = New(st, 10, zero)
	assert.ErrorIs(t, err, ErrZeroCount)
}

func TestDensityQuery(t *testing.T) {
	st := cube(t)
	h := mustHistogram(t, st, []uint64{9, 15}, []Count{6, 4})

	testCases := []struct {
		point   []float64
		density float64
	}{
		{[]float64{0.5, 0.5, 1.5}, 0.6}, // inside leaf 9, volume 1
		{[]float64{1.5, 1.5, 1.5}, 0.4}, // inside leaf 15
		{[]float64{0.2, 0.2, 0.2}, 0},   // inside the box, off every leaf
		{[]float64{5, 5, 5}, 0},         // outside the root box
	}
	for i, c := range testCases {
		assert.InDeltaf(t, c.density, h.Density(c.point), 1e-12, "wrong density for case %d", i)
	}
}

func TestNormalizeIntegratesToOne(t *testing.T) {
	st := cube(t)
	h := mustHistogram(t, st, []uint64{9, 15}, []Count{6, 4})
	d := h.Normalize()

	mass := 0.0
	for i := 0; i < d.Map().Len(); i++ {
		v := d.Map().Value(i)
		mass += v.Density * v.Volume
	}
	assert.InDelta(t, 1.0, mass, 1e-10)

	deep := mustHistogram(t, unitLine(t),
		[]uint64{16, 17, 9, 5, 12, 13, 7},
		[]Count{5, 1, 2, 8, 3, 1, 4})
	mass = 0.0
	for _, v := range deep.Normalize().Map().Values() {
		mass += v.Density * v.Volume
	}
	assert.InDelta(t, 1.0, mass, 1e-10)
}

func TestSplitAndCountFrom(t *testing.T) {
	st := unitLine(t)
	points := [][]float64{
		{0.05}, {0.1}, {0.15}, {0.2}, {0.3}, {0.45},
		{0.8}, {0.9},
		{1.5}, // outside, dropped
	}
	lims := func(totalVolume float64, totalCount Count) Limits {
		return func(depth int, volume float64, count Count) bool {
			return count > 2 && depth < 20
		}
	}
	start, err := tree.NewTruncation([]tree.NodeLabel{tree.RootLabel()})
	require.NoError(t, err)
	h, err := SplitAndCountFrom(st, start, points, lims)
	require.NoError(t, err)

	assert.Equal(t, Count(8), h.Total())
	var sum Count
	for i := 0; i < h.Counts().Len(); i++ {
		c := h.Counts().Value(i)
		require.Positive(t, c)
		sum += c
		leaf := h.Counts().Leaf(i)
		// Post-condition: every leaf fails lims, every parent passes.
		limit := lims(st.Root().Volume(), h.Total())
		assert.Falsef(t, limit(leaf.Depth(), st.VolumeAt(leaf), c), "leaf %s should not split further", leaf)
		if !leaf.IsRoot() {
			parent := leaf.Parent()
			lo, hi := h.Truncation().Subtree(parent)
			var pc Count
			for k := lo; k < hi; k++ {
				pc += h.Counts().Value(k)
			}
			assert.Truef(t, limit(parent.Depth(), st.VolumeAt(parent), pc), "parent %s should split", parent)
		}
	}
	assert.Equal(t, h.Total(), sum)
}

func TestSplitAndCountFromEmpty(t *testing.T) {
	st := unitLine(t)
	start, err := tree.NewTruncation([]tree.NodeLabel{tree.RootLabel()})
	require.NoError(t, err)
	_, err = SplitAndCountFrom(st, start, [][]float64{{7}}, func(float64, Count) Limits {
		return func(int, float64, Count) bool { return false }
	})
	assert.ErrorIs(t, err, ErrZeroTotal)
}

func TestHistogramWithCachingTree(t *testing.T) {
	base := cube(t)
	st := spatial.NewCachingTree(base, cache.NewSimpleCache(16))
	h := mustHistogram(t, st, []uint64{9, 15}, []Count{6, 4})
	assert.InDelta(t, 0.6, h.Density([]float64{0.5, 0.5, 1.5}), 1e-12)

	coarse := BacktrackNumSteps(h, LowDensityFirst(h.Total()), Float64Less, 1)
	var sum Count
	for _, c := range coarse.Counts().Values() {
		sum += c
	}
	assert.Equal(t, h.Total(), sum)
}
