// Package nullmodel builds reference curves for tables whose layers carry no
// alignment: shuffled copies of a table, analytic expectations and the
// per-size significance of a real curve against them.
package nullmodel

import (
	"math/rand"

	"github.com/gilchrisn/multilayer-alignment/pkg/partition"
)

// DefaultMissingSentinel is the label given to missing cells before shuffling
const DefaultMissingSentinel = 9

// Shuffle returns a copy of the table where every layer's labels are
// independently permuted. Cluster sizes of each layer are kept while any
// agreement between layers is destroyed.
//
// Missing cells are first labelled with sentinel, so the result has no
// missing cells. A layer already using sentinel as a real label gets its
// largest label plus one instead.
func Shuffle(t *partition.Table, rng *rand.Rand, sentinel int) (*partition.Table, error) {
	out := partition.NewTable(t.NumRows())
	for _, layer := range t.Layers() {
		col, err := t.Column(layer)
		if err != nil {
			return nil, err
		}

		fill := fillLabel(col, sentinel)
		for i, label := range col {
			if label == partition.Missing {
				col[i] = fill
			}
		}
		rng.Shuffle(len(col), func(i, j int) { col[i], col[j] = col[j], col[i] })

		if err := out.AddLayer(layer, col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func fillLabel(col []int, sentinel int) int {
	collides := false
	max := sentinel
	seen := false
	for _, label := range col {
		if label == partition.Missing {
			continue
		}
		if label == sentinel {
			collides = true
		}
		if !seen || label > max {
			max = label
			seen = true
		}
	}
	if !collides {
		return sentinel
	}
	return max + 1
}
