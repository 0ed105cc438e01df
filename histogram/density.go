package histogram

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/statlas/densitree/spatial"
	"github.com/statlas/densitree/tree"
)

var ErrSplitOrderDepth = errors.New("histogram: split order does not cover the deepest leaf")

// A DensityValue is the (density, volume) pair carried by each leaf of a
// normalized histogram.
type DensityValue struct {
	Density float64
	Volume  float64
}

type DensityHistogram struct {
	tree      SpaceTree
	densities tree.LeafMap[DensityValue]
}

func NewDensityHistogram(st SpaceTree, densities tree.LeafMap[DensityValue]) *DensityHistogram {
	return &DensityHistogram{tree: st, densities: densities}
}

func (d *DensityHistogram) Tree() SpaceTree                      { return d.tree }
func (d *DensityHistogram) Map() tree.LeafMap[DensityValue]      { return d.densities }
func (d *DensityHistogram) Truncation() tree.Truncation          { return d.densities.Truncation() }

func (d *DensityHistogram) Density(point []float64) float64 {
	_, v, ok := d.densities.Query(d.tree.DescendBox(point))
	if !ok {
		return 0
	}
	return v.Density
}

// QuickSlice conditions the density on point values along the given
// axes and returns the slice over the complementary axes. splitOrder is
// the axis sequence of the original tree (SplitOrderToDepth) and must
// cover the deepest leaf. Returns nil when the conditioning point falls
// outside the projected root box or only touches null sets.
//
// Each leaf's path is projected by dropping the steps on conditioning
// axes that agree with the point's side and rejecting the leaf on the
// first disagreement. Because midpoint splits give every cell at one
// depth the same widths, the projected paths are valid paths of the
// spatial tree over the complementary box under the same split rule.
func (d *DensityHistogram) QuickSlice(axes []int, point []float64, splitOrder []int) (*DensityHistogram, error) {
	if len(axes) == 0 || len(axes) != len(point) || len(axes) >= d.tree.Dims() {
		return nil, errors.New("histogram: conditioning axes must be a proper non-empty axis subset")
	}
	if d.densities.Truncation().MaxDepth() > len(splitOrder) {
		return nil, ErrSplitOrderDepth
	}

	cond := make(map[int]float64, len(axes))
	for i, a := range axes {
		cond[a] = point[i]
	}
	root := d.tree.Root()
	for a, v := range cond {
		if v < root.Low[a] || v > root.High[a] {
			return nil, nil
		}
	}

	keptLow := make([]float64, 0, d.tree.Dims()-len(axes))
	keptHigh := make([]float64, 0, d.tree.Dims()-len(axes))
	kept := make([]int, 0, d.tree.Dims()-len(axes))
	for a := 0; a < d.tree.Dims(); a++ {
		if _, ok := cond[a]; !ok {
			kept = append(kept, a)
			keptLow = append(keptLow, root.Low[a])
			keptHigh = append(keptHigh, root.High[a])
		}
	}
	slicedBox, err := spatial.NewRectangle(keptLow, keptHigh)
	if err != nil {
		return nil, err
	}
	slicedTree, err := spatial.NewTree(slicedBox, d.tree.Rule())
	if err != nil {
		return nil, err
	}

	type sliceLeaf struct {
		lab  tree.NodeLabel
		dens float64
		vol  float64
	}
	acc := make(map[string]*sliceLeaf)

	for i := 0; i < d.densities.Len(); i++ {
		leaf := d.densities.Leaf(i)
		path := leaf.PathFromRoot()
		intervals := make(map[int][2]float64, len(cond))
		for a := range cond {
			intervals[a] = [2]float64{root.Low[a], root.High[a]}
		}
		projected := tree.RootLabel()
		rejected := false
		for k := 1; k < len(path); k++ {
			axis := splitOrder[k-1]
			right := path[k].IsRightChild()
			if iv, isCond := intervals[axis]; isCond {
				mid := iv[0] + (iv[1]-iv[0])/2
				pointRight := cond[axis] >= mid
				if pointRight != right {
					rejected = true
					break
				}
				if right {
					intervals[axis] = [2]float64{mid, iv[1]}
				} else {
					intervals[axis] = [2]float64{iv[0], mid}
				}
				continue
			}
			if right {
				projected = projected.Right()
			} else {
				projected = projected.Left()
			}
		}
		if rejected {
			continue
		}

		cell := d.tree.CellAt(leaf)
		projVol := 1.0
		for _, a := range kept {
			projVol *= cell.Width(a)
		}
		newVol := slicedTree.VolumeAt(projected)
		key := string(projected.Bytes())
		entry, ok := acc[key]
		if !ok {
			entry = &sliceLeaf{lab: projected, vol: newVol}
			acc[key] = entry
		}
		weight := 0.0
		if newVol > 0 {
			weight = projVol / newVol
		}
		entry.dens += d.densities.Value(i).Density * weight
	}

	if len(acc) == 0 {
		return nil, nil
	}
	leaves := make([]sliceLeaf, 0, len(acc))
	mass := 0.0
	for _, e := range acc {
		leaves = append(leaves, *e)
		mass += e.dens * e.vol
	}
	if mass == 0 {
		return nil, nil
	}
	sort.Slice(leaves, func(i, j int) bool {
		return leaves[i].lab.Compare(leaves[j].lab) < 0
	})
	labs := make([]tree.NodeLabel, len(leaves))
	vals := make([]DensityValue, len(leaves))
	for i, e := range leaves {
		labs[i] = e.lab
		vals[i] = DensityValue{Density: e.dens, Volume: e.vol}
	}
	trunc, err := tree.NewTruncation(labs)
	if err != nil {
		return nil, err
	}
	m, err := tree.NewLeafMap(trunc, vals)
	if err != nil {
		return nil, err
	}
	return &DensityHistogram{tree: slicedTree, densities: m}, nil
}

// Sample draws n points: a leaf with probability proportional to its
// mass, then a uniform point inside the leaf's cell. Every sample lands
// where the density is positive.
func (d *DensityHistogram) Sample(rng *rand.Rand, n int) [][]float64 {
	cum := make([]float64, d.densities.Len())
	running := 0.0
	for i := 0; i < d.densities.Len(); i++ {
		v := d.densities.Value(i)
		running += v.Density * v.Volume
		cum[i] = running
	}

	out := make([][]float64, 0, n)
	for len(out) < n {
		u := rng.Float64() * running
		i := sort.SearchFloat64s(cum, u)
		if i >= len(cum) {
			i = len(cum) - 1
		}
		cell := d.tree.CellAt(d.densities.Leaf(i))
		p := make([]float64, cell.Dims())
		for a := range p {
			p[a] = cell.Low[a] + rng.Float64()*cell.Width(a)
		}
		out = append(out, p)
	}
	return out
}
