// Package storage serializes histograms for the external collaborators:
// a histogram travels as its split-rule tag, root box and (label, value)
// pairs, the only representation the core promises to the outside.
package storage

import (
	"errors"

	msgpack "github.com/vmihailenco/msgpack/v5"

	"github.com/statlas/densitree/histogram"
	"github.com/statlas/densitree/spatial"
	"github.com/statlas/densitree/tree"
)

var ErrBadEnvelope = errors.New("storage: malformed histogram envelope")

type histogramEnvelope struct {
	Rule   string    `msgpack:"rule"`
	Low    []float64 `msgpack:"low"`
	High   []float64 `msgpack:"high"`
	Total  uint64    `msgpack:"total"`
	Labels [][]byte  `msgpack:"labels"`
	Counts []uint64  `msgpack:"counts"`
}

type densityEnvelope struct {
	Rule      string    `msgpack:"rule"`
	Low       []float64 `msgpack:"low"`
	High      []float64 `msgpack:"high"`
	Labels    [][]byte  `msgpack:"labels"`
	Densities []float64 `msgpack:"densities"`
	Volumes   []float64 `msgpack:"volumes"`
}

func EncodeHistogram(h *histogram.Histogram) ([]byte, error) {
	root := h.Tree().Root()
	env := histogramEnvelope{
		Rule:   h.Tree().Rule().String(),
		Low:    root.Low,
		High:   root.High,
		Total:  h.Total(),
		Labels: make([][]byte, h.Counts().Len()),
		Counts: make([]uint64, h.Counts().Len()),
	}
	for i := 0; i < h.Counts().Len(); i++ {
		env.Labels[i] = h.Counts().Leaf(i).Bytes()
		env.Counts[i] = h.Counts().Value(i)
	}
	return msgpack.Marshal(&env)
}

func DecodeHistogram(b []byte) (*histogram.Histogram, error) {
	var env histogramEnvelope
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	if len(env.Labels) != len(env.Counts) {
		return nil, ErrBadEnvelope
	}
	st, err := decodeTree(env.Rule, env.Low, env.High)
	if err != nil {
		return nil, err
	}
	m, err := decodeLeafMap(env.Labels, env.Counts)
	if err != nil {
		return nil, err
	}
	return histogram.New(st, env.Total, m)
}

func EncodeDensityHistogram(d *histogram.DensityHistogram) ([]byte, error) {
	root := d.Tree().Root()
	m := d.Map()
	env := densityEnvelope{
		Rule:      d.Tree().Rule().String(),
		Low:       root.Low,
		High:      root.High,
		Labels:    make([][]byte, m.Len()),
		Densities: make([]float64, m.Len()),
		Volumes:   make([]float64, m.Len()),
	}
	for i := 0; i < m.Len(); i++ {
		env.Labels[i] = m.Leaf(i).Bytes()
		env.Densities[i] = m.Value(i).Density
		env.Volumes[i] = m.Value(i).Volume
	}
	return msgpack.Marshal(&env)
}

func DecodeDensityHistogram(b []byte) (*histogram.DensityHistogram, error) {
	var env densityEnvelope
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	if len(env.Labels) != len(env.Densities) || len(env.Labels) != len(env.Volumes) {
		return nil, ErrBadEnvelope
	}
	st, err := decodeTree(env.Rule, env.Low, env.High)
	if err != nil {
		return nil, err
	}
	vals := make([]histogram.DensityValue, len(env.Labels))
	for i := range vals {
		vals[i] = histogram.DensityValue{Density: env.Densities[i], Volume: env.Volumes[i]}
	}
	labs, err := decodeLabels(env.Labels)
	if err != nil {
		return nil, err
	}
	trunc, err := tree.NewTruncation(labs)
	if err != nil {
		return nil, err
	}
	m, err := tree.NewLeafMap(trunc, vals)
	if err != nil {
		return nil, err
	}
	return histogram.NewDensityHistogram(st, m), nil
}

type tailsEnvelope struct {
	Rule   string    `msgpack:"rule"`
	Low    []float64 `msgpack:"low"`
	High   []float64 `msgpack:"high"`
	Labels [][]byte  `msgpack:"labels"`
	Tails  []float64 `msgpack:"tails"`
}

func EncodeTailProbabilities(tp *histogram.TailProbabilities) ([]byte, error) {
	root := tp.Tree().Root()
	m := tp.Map()
	env := tailsEnvelope{
		Rule:   tp.Tree().Rule().String(),
		Low:    root.Low,
		High:   root.High,
		Labels: make([][]byte, m.Len()),
		Tails:  make([]float64, m.Len()),
	}
	for i := 0; i < m.Len(); i++ {
		env.Labels[i] = m.Leaf(i).Bytes()
		env.Tails[i] = m.Value(i)
	}
	return msgpack.Marshal(&env)
}

func DecodeTailProbabilities(b []byte) (*histogram.TailProbabilities, error) {
	var env tailsEnvelope
	if err := msgpack.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	if len(env.Labels) != len(env.Tails) {
		return nil, ErrBadEnvelope
	}
	st, err := decodeTree(env.Rule, env.Low, env.High)
	if err != nil {
		return nil, err
	}
	labs, err := decodeLabels(env.Labels)
	if err != nil {
		return nil, err
	}
	trunc, err := tree.NewTruncation(labs)
	if err != nil {
		return nil, err
	}
	m, err := tree.NewLeafMap(trunc, env.Tails)
	if err != nil {
		return nil, err
	}
	return histogram.NewTailProbabilities(st, m), nil
}

func decodeTree(rule string, low, high []float64) (*spatial.Tree, error) {
	r, err := spatial.ParseSplitRule(rule)
	if err != nil {
		return nil, err
	}
	box, err := spatial.NewRectangle(low, high)
	if err != nil {
		return nil, err
	}
	return spatial.NewTree(box, r)
}

func decodeLabels(bs [][]byte) ([]tree.NodeLabel, error) {
	labs := make([]tree.NodeLabel, len(bs))
	for i, b := range bs {
		if len(b) == 0 {
			return nil, ErrBadEnvelope
		}
		labs[i] = tree.NodeLabelFromBytes(b)
	}
	return labs, nil
}

func decodeLeafMap(labels [][]byte, counts []uint64) (tree.LeafMap[histogram.Count], error) {
	labs, err := decodeLabels(labels)
	if err != nil {
		return tree.LeafMap[histogram.Count]{}, err
	}
	trunc, err := tree.NewTruncation(labs)
	if err != nil {
		return tree.LeafMap[histogram.Count]{}, err
	}
	return tree.NewLeafMap(trunc, counts)
}
