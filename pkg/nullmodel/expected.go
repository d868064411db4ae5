package nullmodel

import (
	"gonum.org/v1/gonum/stat/combin"

	"github.com/gilchrisn/multilayer-alignment/pkg/consensus"
	"github.com/gilchrisn/multilayer-alignment/pkg/mutualinfo"
	"github.com/gilchrisn/multilayer-alignment/pkg/partition"
)

// ExpectedCurve approximates the curve expected when layers are independent.
// For a combination of k layers, the NMI of layer l with the joint partition
// J is taken as 1 / (1 + H(J)/H(l)), so the combination scores
// (2/k) * sum over l of that term. Each size keeps its best combination.
//
// H(J) is computed over the rows labelled in every layer of the combination,
// H(l) over the rows labelled in layer l. A combination with no complete row
// is ignored, as is one holding a constant layer whose joint partition is
// also constant, since its ratio is undefined.
func ExpectedCurve(t *partition.Table) ([]float64, error) {
	layers := t.Layers()
	if len(layers) < 2 {
		return []float64{}, nil
	}

	entropies := make(map[string]float64, len(layers))
	for _, layer := range layers {
		h, err := layerEntropy(t, layer)
		if err != nil {
			return nil, err
		}
		entropies[layer] = h
	}

	out := make([]float64, 0, len(layers)-1)
	for size := 2; size <= len(layers); size++ {
		best := 0.0

		gen := combin.NewCombinationGenerator(len(layers), size)
		idx := make([]int, size)
		for gen.Next() {
			gen.Combination(idx)
			selection := make([]string, size)
			for i, col := range idx {
				selection[i] = layers[col]
			}

			score, ok, err := expectedScore(t, selection, entropies)
			if err != nil {
				return nil, err
			}
			if ok && score > best {
				best = score
			}
		}
		out = append(out, best)
	}
	return out, nil
}

func layerEntropy(t *partition.Table, layer string) (float64, error) {
	col, err := t.Column(layer)
	if err != nil {
		return 0, err
	}
	present, err := t.Present(layer)
	if err != nil {
		return 0, err
	}

	labels := make([]int, 0, present.GetCardinality())
	it := present.Iterator()
	for it.HasNext() {
		labels = append(labels, col[it.Next()])
	}
	return mutualinfo.Entropy(labels), nil
}

func expectedScore(t *partition.Table, selection []string, entropies map[string]float64) (float64, bool, error) {
	v, err := t.View(selection)
	if err != nil {
		return 0, false, err
	}
	if v.Len() == 0 {
		return 0, false, nil
	}

	p, err := consensus.FromView(v)
	if err != nil {
		return 0, false, err
	}
	hJoint := mutualinfo.Entropy(consensus.LabelCodes(p, v.Len()))

	sum := 0.0
	for _, layer := range selection {
		hLayer := entropies[layer]
		switch {
		case hLayer > 0:
			sum += 1 / (1 + hJoint/hLayer)
		case hJoint == 0:
			return 0, false, nil
		}
	}
	return sum * 2 / float64(len(selection)), true, nil
}

// ExpectedCurveEqualSized is the expected curve of nLayers independent layers
// that each split the nodes into equally sized clusters: 2/(1+k) for k in
// 2..nLayers.
func ExpectedCurveEqualSized(nLayers int) []float64 {
	if nLayers < 2 {
		return []float64{}
	}
	out := make([]float64, 0, nLayers-1)
	for k := 2; k <= nLayers; k++ {
		out = append(out, 2/(1+float64(k)))
	}
	return out
}
