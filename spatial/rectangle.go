package spatial

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidBox = errors.New("spatial: bounding box must have matching, non-empty low/high vectors")
	ErrNoPoints   = errors.New("spatial: bounding box of an empty point set")
)

// A Rectangle is an axis-aligned box given by its low and high corners.
// Degenerate (zero-width) boxes are representable; NewTree rejects them
// as root boxes.
type Rectangle struct {
	Low  []float64
	High []float64
}

// NewRectangle validates corner arity and ordering. Zero widths are
// allowed here so that point boxes exist; strictly positive widths are
// enforced where a box is used as a splitting domain.
func NewRectangle(low, high []float64) (Rectangle, error) {
	if len(low) == 0 || len(low) != len(high) {
		return Rectangle{}, ErrInvalidBox
	}
	for i := range low {
		if low[i] > high[i] {
			return Rectangle{}, ErrInvalidBox
		}
	}
	return Rectangle{Low: low, High: high}, nil
}

// Point is the degenerate box covering exactly x. Its volume is zero.
func Point(x []float64) Rectangle {
	low := make([]float64, len(x))
	high := make([]float64, len(x))
	copy(low, x)
	copy(high, x)
	return Rectangle{Low: low, High: high}
}

// BoundingBox is the smallest box containing every point.
func BoundingBox(points [][]float64) (Rectangle, error) {
	if len(points) == 0 {
		return Rectangle{}, ErrNoPoints
	}
	r := Point(points[0])
	for _, p := range points[1:] {
		if len(p) != len(r.Low) {
			return Rectangle{}, ErrInvalidBox
		}
		for i, x := range p {
			if x < r.Low[i] {
				r.Low[i] = x
			}
			if x > r.High[i] {
				r.High[i] = x
			}
		}
	}
	return r, nil
}

func (r Rectangle) Dims() int { return len(r.Low) }

func (r Rectangle) Width(axis int) float64 { return r.High[axis] - r.Low[axis] }

func (r Rectangle) Widths() []float64 {
	w := make([]float64, len(r.Low))
	for i := range w {
		w[i] = r.High[i] - r.Low[i]
	}
	return w
}

func (r Rectangle) Volume() float64 {
	v := 1.0
	for i := range r.Low {
		v *= r.High[i] - r.Low[i]
	}
	return v
}

// Contains is closed on both ends so a bounding box contains the extreme
// points it was built from.
func (r Rectangle) Contains(p []float64) bool {
	if len(p) != len(r.Low) {
		return false
	}
	for i, x := range p {
		if x < r.Low[i] || x > r.High[i] {
			return false
		}
	}
	return true
}

func (r Rectangle) Mid(axis int) float64 {
	return r.Low[axis] + (r.High[axis]-r.Low[axis])/2
}

// Split halves the box at the midpoint of the given axis.
func (r Rectangle) Split(axis int) (Rectangle, Rectangle) {
	mid := r.Mid(axis)
	lower := Rectangle{Low: r.Low, High: replaceAt(r.High, axis, mid)}
	upper := Rectangle{Low: replaceAt(r.Low, axis, mid), High: r.High}
	return lower, upper
}

// WidestAxis returns the axis of maximal width, ties broken by lowest
// index.
func (r Rectangle) WidestAxis() int {
	axis := 0
	for i := 1; i < len(r.Low); i++ {
		if r.Width(i) > r.Width(axis) {
			axis = i
		}
	}
	return axis
}

func (r Rectangle) Equal(o Rectangle) bool {
	if len(r.Low) != len(o.Low) {
		return false
	}
	for i := range r.Low {
		if r.Low[i] != o.Low[i] || r.High[i] != o.High[i] {
			return false
		}
	}
	return true
}

func (r Rectangle) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := range r.Low {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%g:%g", r.Low[i], r.High[i])
	}
	sb.WriteByte(']')
	return sb.String()
}

func replaceAt(xs []float64, i int, v float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	out[i] = v
	return out
}
