package tree

// UnfoldTree replays the path of a label over a pair of step functions,
// starting from a root value. It is the generic form of label-to-cell
// resolution: unfolding with the label constructors themselves is the
// identity.
func UnfoldTree[A any](root A, goLeft, goRight func(A) A) func(NodeLabel) A {
	return func(l NodeLabel) A {
		a := root
		for k := 1; k <= l.Depth(); k++ {
			if l.stepRight(k) {
				a = goRight(a)
			} else {
				a = goLeft(a)
			}
		}
		return a
	}
}
