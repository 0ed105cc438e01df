package histogram

import (
	"sort"
	"time"

	"github.com/google/btree"
	metrics "github.com/rcrowley/go-metrics"

	"github.com/statlas/densitree/tree"
)

// A Priority scores a prospective merge. Lower priorities merge first;
// ties are always broken by the left/right label order, so merge order is
// deterministic regardless of how the fine histogram was assembled.
type Priority[H any] func(lab tree.NodeLabel, c Count, vol float64) H

// Less is the caller-supplied strict total order on priorities.
type Less[H any] func(a, b H) bool

// LowDensityFirst is the canonical priority: (1 - c/total) · vol. Small
// cells and cells holding much of the sample get low priorities and
// collapse first; cells holding little mass over large volume collapse
// last.
func LowDensityFirst(total Count) Priority[float64] {
	return func(_ tree.NodeLabel, c Count, vol float64) float64 {
		return (1 - float64(c)/float64(total)) * vol
	}
}

func Float64Less(a, b float64) bool { return a < b }

type mergeItem[H any] struct {
	prio  H
	lab   tree.NodeLabel
	count Count
}

type waitingLeaf struct {
	lab   tree.NodeLabel
	count Count
}

type backtrackStats struct {
	run         metrics.Timer
	materialize metrics.Timer
	merges      metrics.Counter
}

func newBacktrackStats() *backtrackStats {
	s := &backtrackStats{
		run:         metrics.NewTimer(),
		materialize: metrics.NewTimer(),
		merges:      metrics.NewCounter(),
	}
	metrics.GetOrRegister("backtrack.run", s.run)
	metrics.GetOrRegister("backtrack.materialize", s.materialize)
	metrics.GetOrRegister("backtrack.merges", s.merges)
	return s
}

// backtrackRun is the merge loop state: a queue of cherries ordered by
// (priority, label) and the waiting map of lone leaves keyed by the
// sibling they wait for. Subtree ranges are always taken in the original
// truncation; the coarse histogram is realized only on materialize.
type backtrackRun[H any] struct {
	h    *Histogram
	orig tree.Truncation
	prio Priority[H]
	less Less[H]

	queue   *btree.BTreeG[mergeItem[H]]
	waiting map[string]waitingLeaf
	merged  []tree.NodeLabel

	target    map[string]Count // nil outside target-guided runs
	remaining int

	rootReached bool
	stats       *backtrackStats
}

func newBacktrackRun[H any](h *Histogram, prio Priority[H], less Less[H], target *Histogram) *backtrackRun[H] {
	r := &backtrackRun[H]{
		h:       h,
		orig:    h.counts.Truncation(),
		prio:    prio,
		less:    less,
		waiting: make(map[string]waitingLeaf),
		stats:   newBacktrackStats(),
	}
	r.queue = btree.NewG(8, func(a, b mergeItem[H]) bool {
		if less(a.prio, b.prio) {
			return true
		}
		if less(b.prio, a.prio) {
			return false
		}
		return a.lab.Compare(b.lab) < 0
	})
	if target != nil {
		tt := target.Truncation()
		r.target = make(map[string]Count, tt.Len())
		r.remaining = tt.Len()
		for _, l := range tt.Leaves() {
			r.target[string(l.Bytes())] = 0
		}
	}

	// Cherries go straight onto the queue; lone leaves resolve into the
	// waiting map or straight past a pruned sibling.
	inCherry := make([]bool, r.orig.Len())
	for _, ch := range r.orig.Cherries() {
		inCherry[ch.Index] = true
		inCherry[ch.Index+1] = true
		left := h.counts.Value(ch.Index)
		right := h.counts.Value(ch.Index + 1)
		if r.target != nil && (r.isTarget(r.orig.Leaf(ch.Index)) || r.isTarget(r.orig.Leaf(ch.Index+1))) {
			r.finalizeIfTarget(r.orig.Leaf(ch.Index), left)
			r.finalizeIfTarget(r.orig.Leaf(ch.Index+1), right)
			continue
		}
		r.enqueue(ch.Parent, left+right)
	}
	for i := 0; i < r.orig.Len(); i++ {
		if !inCherry[i] {
			r.resolveLeaf(r.orig.Leaf(i), h.counts.Value(i))
		}
	}
	return r
}

func (r *backtrackRun[H]) enqueue(p tree.NodeLabel, c Count) {
	r.queue.ReplaceOrInsert(mergeItem[H]{
		prio:  r.prio(p, c, r.h.tree.VolumeAt(p)),
		lab:   p,
		count: c,
	})
}

func (r *backtrackRun[H]) isTarget(l tree.NodeLabel) bool {
	_, ok := r.target[string(l.Bytes())]
	return ok
}

func (r *backtrackRun[H]) finalizeIfTarget(l tree.NodeLabel, c Count) bool {
	key := string(l.Bytes())
	if _, ok := r.target[key]; !ok {
		return false
	}
	r.target[key] = c
	r.remaining--
	return true
}

// resolveLeaf decides the fate of a node that just became a leaf: pair
// it with a waiting sibling into a new cherry, pass straight through a
// sibling whose subtree was never populated, or wait.
func (r *backtrackRun[H]) resolveLeaf(l tree.NodeLabel, c Count) {
	if r.target != nil && r.finalizeIfTarget(l, c) {
		return
	}
	if l.IsRoot() {
		r.rootReached = true
		return
	}
	key := string(l.Bytes())
	if w, ok := r.waiting[key]; ok {
		delete(r.waiting, key)
		r.enqueue(l.Parent(), c+w.count)
		return
	}
	sib := l.Sibling()
	if lo, hi := r.orig.Subtree(sib); hi == lo {
		r.enqueue(l.Parent(), c)
		return
	}
	r.waiting[string(sib.Bytes())] = waitingLeaf{lab: l, count: c}
}

// step performs one merge. It reports whether further merges remain.
func (r *backtrackRun[H]) step() bool {
	item, ok := r.queue.DeleteMin()
	if !ok {
		return false
	}
	r.merged = append(r.merged, item.lab)
	r.stats.merges.Inc(1)
	if item.lab.IsRoot() {
		r.rootReached = true
		return false
	}
	r.resolveLeaf(item.lab, item.count)
	if r.target != nil && r.remaining == 0 {
		return false
	}
	return true
}

func (r *backtrackRun[H]) sumRange(lo, hi int) Count {
	var c Count
	for i := lo; i < hi; i++ {
		c += r.h.counts.Value(i)
	}
	return c
}

// materialize realizes the current truncation: the still-populated
// children of queued cherries plus every waiting leaf, with counts
// recomputed from the original count vector. Non-destructive, so the
// checkpoint driver can snapshot mid-run.
func (r *backtrackRun[H]) materialize() *Histogram {
	ts := time.Now()
	defer r.stats.materialize.UpdateSince(ts)

	if r.rootReached {
		return r.trivial()
	}

	var leaves []tree.NodeLabel
	r.queue.Ascend(func(item mergeItem[H]) bool {
		for _, ch := range []tree.NodeLabel{item.lab.Left(), item.lab.Right()} {
			if lo, hi := r.orig.Subtree(ch); hi > lo {
				leaves = append(leaves, ch)
			}
		}
		return true
	})
	for _, w := range r.waiting {
		leaves = append(leaves, w.lab)
	}
	sort.Slice(leaves, func(i, j int) bool {
		return leaves[i].Compare(leaves[j]) < 0
	})

	counts := make([]Count, len(leaves))
	for i, l := range leaves {
		lo, hi := r.orig.Subtree(l)
		counts[i] = r.sumRange(lo, hi)
	}
	trunc, err := tree.NewTruncation(leaves)
	if err != nil {
		panic(err)
	}
	m, err := tree.NewLeafMap(trunc, counts)
	if err != nil {
		panic(err)
	}
	out, err := New(r.h.tree, r.h.total, m)
	if err != nil {
		panic(err)
	}
	return out
}

func (r *backtrackRun[H]) trivial() *Histogram {
	trunc, _ := tree.NewTruncation([]tree.NodeLabel{tree.RootLabel()})
	m, _ := tree.NewLeafMap(trunc, []Count{r.h.total})
	out, err := New(r.h.tree, r.h.total, m)
	if err != nil {
		panic(err)
	}
	return out
}

// BacktrackNumSteps merges the numSteps lowest-priority cherries and
// materializes the result. Asking for zero steps is a programmer error.
func BacktrackNumSteps[H any](h *Histogram, prio Priority[H], less Less[H], numSteps int) *Histogram {
	if numSteps <= 0 {
		panic("histogram: backtrack of zero steps")
	}
	r := newBacktrackRun(h, prio, less, nil)
	ts := time.Now()
	for i := 0; i < numSteps; i++ {
		if !r.step() {
			break
		}
	}
	r.stats.run.UpdateSince(ts)
	return r.materialize()
}

// BacktrackCheckpoints materializes the histogram after each of the given
// merge counts in a single pass. Checkpoints must be positive; they are
// visited in ascending order and checkpoints beyond the full collapse all
// yield the trivial histogram.
func BacktrackCheckpoints[H any](h *Histogram, prio Priority[H], less Less[H], checkpoints []int) []*Histogram {
	sorted := make([]int, len(checkpoints))
	copy(sorted, checkpoints)
	sort.Ints(sorted)
	if len(sorted) > 0 && sorted[0] <= 0 {
		panic("histogram: backtrack of zero steps")
	}

	r := newBacktrackRun(h, prio, less, nil)
	out := make([]*Histogram, 0, len(sorted))
	ts := time.Now()
	steps := 0
	for _, cp := range sorted {
		for steps < cp {
			if !r.step() {
				break
			}
			steps++
		}
		out = append(out, r.materialize())
	}
	r.stats.run.UpdateSince(ts)
	return out
}

// BacktrackVerification runs the merge loop to full collapse and returns
// the visited labels in merge order. Testing hook for the coarsening
// laws; production callers use the terminal drivers.
func BacktrackVerification[H any](h *Histogram, prio Priority[H], less Less[H]) []tree.NodeLabel {
	r := newBacktrackRun(h, prio, less, nil)
	for r.step() {
	}
	return r.merged
}

// BacktrackToTarget merges until the histogram equals target. The target
// must be a refinement-predecessor of h: every leaf of h descends from a
// target leaf. Violating the contract is a programmer error.
func BacktrackToTarget[H any](h *Histogram, prio Priority[H], less Less[H], target *Histogram) *Histogram {
	tt := target.Truncation()
	orig := h.counts.Truncation()
	for _, l := range orig.Leaves() {
		covered := false
		for _, t := range tt.Leaves() {
			if t.IsAncestorOrEqual(l) {
				covered = true
				break
			}
		}
		if !covered {
			panic("histogram: target is not a refinement-predecessor")
		}
	}

	r := newBacktrackRun(h, prio, less, target)
	ts := time.Now()
	for r.remaining > 0 && r.step() {
	}
	r.stats.run.UpdateSince(ts)

	counts := make([]Count, tt.Len())
	for i, l := range tt.Leaves() {
		lo, hi := orig.Subtree(l)
		counts[i] = r.sumRange(lo, hi)
	}
	m, err := tree.NewLeafMap(tt, counts)
	if err != nil {
		panic(err)
	}
	out, err := New(h.tree, h.total, m)
	if err != nil {
		panic(err)
	}
	return out
}
