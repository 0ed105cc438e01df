package spatial

import (
	"github.com/statlas/densitree/cache"
	"github.com/statlas/densitree/tree"
	"github.com/statlas/densitree/util"
)

// A CachingTree memoizes label-to-cell resolution in a byte-keyed cache.
// Coarsening and slicing resolve the same ancestors over and over; the
// cache turns those repeated descents into lookups.
type CachingTree struct {
	*Tree
	boxes cache.ModifiableCache
}

func NewCachingTree(t *Tree, boxes cache.ModifiableCache) *CachingTree {
	return &CachingTree{Tree: t, boxes: boxes}
}

func (t *CachingTree) CellAt(l tree.NodeLabel) Rectangle {
	key := l.Bytes()
	if b, ok := t.boxes.Get(key); ok {
		return decodeRect(b, t.Dims())
	}
	cell := t.Tree.CellAt(l)
	t.boxes.Put(key, encodeRect(cell))
	return cell
}

func (t *CachingTree) VolumeAt(l tree.NodeLabel) float64 {
	return t.CellAt(l).Volume()
}

// Warm resolves every given label plus its ancestors through the cache.
func (t *CachingTree) Warm(labels []tree.NodeLabel) {
	for _, l := range labels {
		t.CellAt(l)
		for _, a := range l.Ancestors() {
			t.CellAt(a)
		}
	}
}

func encodeRect(r Rectangle) []byte {
	b := make([]byte, 0, 16*len(r.Low))
	for _, x := range r.Low {
		b = append(b, util.Float64AsBytes(x)...)
	}
	for _, x := range r.High {
		b = append(b, util.Float64AsBytes(x)...)
	}
	return b
}

func decodeRect(b []byte, dims int) Rectangle {
	low := make([]float64, dims)
	high := make([]float64, dims)
	for i := 0; i < dims; i++ {
		low[i] = util.BytesAsFloat64(b[8*i:])
		high[i] = util.BytesAsFloat64(b[8*(dims+i):])
	}
	return Rectangle{Low: low, High: high}
}
