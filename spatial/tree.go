package spatial

import (
	"errors"
	"fmt"

	"github.com/statlas/densitree/tree"
)

var ErrEmptyRoot = errors.New("spatial: root box must have strictly positive widths")

// SplitRule selects the axis used to split a cell. Persisted histograms
// carry the rule tag because label-to-cell resolution depends on it.
type SplitRule int

const (
	// SplitCycle splits the axis depth mod d at its midpoint.
	SplitCycle SplitRule = iota
	// SplitWidest splits the widest axis at its midpoint, ties broken
	// by lowest index.
	SplitWidest
)

func (r SplitRule) String() string {
	if r == SplitWidest {
		return "widest"
	}
	return "cycle"
}

func ParseSplitRule(s string) (SplitRule, error) {
	switch s {
	case "cycle":
		return SplitCycle, nil
	case "widest":
		return SplitWidest, nil
	}
	return 0, fmt.Errorf("spatial: unknown split rule %q", s)
}

// A Tree maps node labels to cells of the recursively halved root box.
// Because every split is at a midpoint, all cells at one depth share the
// same widths, so the split axis is a function of depth alone.
type Tree struct {
	root Rectangle
	rule SplitRule
}

func NewTree(root Rectangle, rule SplitRule) (*Tree, error) {
	if root.Dims() == 0 {
		return nil, ErrEmptyRoot
	}
	for i := 0; i < root.Dims(); i++ {
		if !(root.Width(i) > 0) {
			return nil, ErrEmptyRoot
		}
	}
	return &Tree{root: root, rule: rule}, nil
}

func (t *Tree) Root() Rectangle { return t.root }
func (t *Tree) Rule() SplitRule { return t.rule }
func (t *Tree) Dims() int       { return t.root.Dims() }

func (t *Tree) axisFor(depth int, widths []float64) int {
	if t.rule == SplitCycle {
		return depth % len(widths)
	}
	axis := 0
	for i := 1; i < len(widths); i++ {
		if widths[i] > widths[axis] {
			axis = i
		}
	}
	return axis
}

// SplitOrderToDepth returns the axis split at each depth 0..d-1.
func (t *Tree) SplitOrderToDepth(d int) []int {
	order := make([]int, d)
	widths := t.root.Widths()
	for k := 0; k < d; k++ {
		axis := t.axisFor(k, widths)
		order[k] = axis
		widths[axis] /= 2
	}
	return order
}

// AxisAt returns the axis that would split the cell at l.
func (t *Tree) AxisAt(l tree.NodeLabel) int {
	d := l.Depth()
	widths := t.root.Widths()
	for k := 0; k < d; k++ {
		widths[t.axisFor(k, widths)] /= 2
	}
	return t.axisFor(d, widths)
}

// CellAt descends from the root box following the path bits of l.
func (t *Tree) CellAt(l tree.NodeLabel) Rectangle {
	cell := t.root
	path := l.PathFromRoot()
	for k := 1; k < len(path); k++ {
		axis := t.axisFor(k-1, cell.Widths())
		lower, upper := cell.Split(axis)
		if path[k].IsRightChild() {
			cell = upper
		} else {
			cell = lower
		}
	}
	return cell
}

func (t *Tree) VolumeAt(l tree.NodeLabel) float64 {
	return t.CellAt(l).Volume()
}

// A Descent is the lazy stream of labels whose cells contain a point,
// starting at the root. It never terminates on its own for an in-box
// point; consumers stop it.
type Descent struct {
	t     *Tree
	point []float64
	cur   tree.NodeLabel
	cell  Rectangle
	begun bool
	dead  bool
}

// DescendBox yields the labels containing point, root first. A point
// outside the root box yields an empty stream.
func (t *Tree) DescendBox(point []float64) *Descent {
	return &Descent{
		t:     t,
		point: point,
		cur:   tree.RootLabel(),
		cell:  t.root,
		dead:  !t.root.Contains(point),
	}
}

func (d *Descent) Next() (tree.NodeLabel, bool) {
	l, _, ok := d.NextBox()
	return l, ok
}

// NextBox is the descent with cells materialized alongside the labels.
func (d *Descent) NextBox() (tree.NodeLabel, Rectangle, bool) {
	if d.dead {
		return tree.NodeLabel{}, Rectangle{}, false
	}
	if !d.begun {
		d.begun = true
		return d.cur, d.cell, true
	}
	axis := d.t.axisFor(d.cur.Depth(), d.cell.Widths())
	lower, upper := d.cell.Split(axis)
	if d.point[axis] < d.cell.Mid(axis) {
		d.cur = d.cur.Left()
		d.cell = lower
	} else {
		d.cur = d.cur.Right()
		d.cell = upper
	}
	return d.cur, d.cell, true
}

// DescendBoxPrime is DescendBox with the boxes materialized.
func (t *Tree) DescendBoxPrime(point []float64) *Descent {
	return t.DescendBox(point)
}

// DescendToDepth returns the label at the given depth whose cell
// contains point, or false when the point is outside the root box.
func (t *Tree) DescendToDepth(point []float64, depth int) (tree.NodeLabel, bool) {
	desc := t.DescendBox(point)
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

// DescendWhile descends while the cell's widest side stays above
// minSideLength, returning the last label visited. Implements the
// finest-resolution stop rule.
func (t *Tree) DescendWhile(point []float64, minSideLength float64) (tree.NodeLabel, bool) {
	desc := t.DescendBox(point)
	l, cell, ok := desc.NextBox()
	if !ok {
		return tree.NodeLabel{}, false
	}
	for cell.Width(cell.WidestAxis()) >= minSideLength {
		next, nextCell, ok := desc.NextBox()
		if !ok {
			break
		}
		l, cell = next, nextCell
	}
	return l, true
}
