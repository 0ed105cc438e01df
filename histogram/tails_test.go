package histogram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statlas/densitree/spatial"
)

// 1-D fixture over [0, 4] with leaves [4, 5, 6, 7] of volume 1 and
// densities [0.5, 0.25, 0.15, 0.1].
func rampDensity(t *testing.T) *DensityHistogram {
	t.Helper()
	box, err := spatial.NewRectangle([]float64{0}, []float64{4})
	require.NoError(t, err)
	st, err := spatial.NewTree(box, spatial.SplitCycle)
	require.NoError(t, err)
	h := mustHistogram(t, st, []uint64{4, 5, 6, 7}, []Count{50, 25, 15, 10})
	return h.Normalize()
}

func TestTailProbabilities(t *testing.T) {
	tails := rampDensity(t).TailProbabilities()

	testCases := []struct {
		point float64
		tail  float64
	}{
		{0.5, 0.5},
		{1.5, 0.75},
		{2.5, 0.90},
		{3.5, 1.0},
	}
	for i, c := range testCases {
		assert.InDeltaf(t, c.tail, tails.Query([]float64{c.point}), 1e-10, "wrong tail for case %d", i)
	}

	// Misses lie in the complement of every finite coverage region.
	assert.Equal(t, 1.0, tails.Query([]float64{5}))

	// The largest stored value is the full mass.
	max := 0.0
	for _, v := range tails.Map().Values() {
		if v > max {
			max = v
		}
	}
	assert.InDelta(t, 1.0, max, 1e-10)
}

func TestConfidenceRegion(t *testing.T) {
	tails := rampDensity(t).TailProbabilities()

	assert.InDelta(t, 0.75, tails.ConfidenceRegion(0.74), 1e-10)
	assert.InDelta(t, 1.0, tails.ConfidenceRegion(0.91), 1e-10)
	assert.InDelta(t, 0.5, tails.ConfidenceRegion(0.2), 1e-10)

	// Monotone in alpha and at least alpha for alpha <= 1.
	prev := 0.0
	for _, alpha := range []float64{0.1, 0.4, 0.6, 0.76, 0.95, 1.0} {
		cr := tails.ConfidenceRegion(alpha)
		assert.GreaterOrEqual(t, cr, alpha-1e-10)
		assert.GreaterOrEqual(t, cr, prev)
		prev = cr
	}
}

func TestCoverageLeaves(t *testing.T) {
	tails := rampDensity(t).TailProbabilities()
	region := tails.CoverageLeaves(0.75)
	assert.Equal(t, []int{0, 1}, region)
}
