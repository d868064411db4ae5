// Package consensus builds the finest joint partition of nodes that is
// consistent with every layer of a selection.
package consensus

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/gilchrisn/multilayer-alignment/pkg/partition"
)

// KeySeparator joins the per-layer parts of a consensus group key
const KeySeparator = "_"

var ErrNoLayers = errors.New("consensus: no layers selected")

// Partition maps a consensus group key to the sorted view rows in that group.
// Only non-empty groups are stored.
type Partition map[string][]int

// Keys returns the group keys in sorted order
func (p Partition) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NumMembers returns the total number of rows across groups
func (p Partition) NumMembers() int {
	total := 0
	for _, members := range p {
		total += len(members)
	}
	return total
}

// Build computes the consensus partition of a table over the given layers,
// using only rows labelled in all of them.
func Build(t *partition.Table, layers []string) (Partition, error) {
	if len(layers) == 0 {
		return nil, ErrNoLayers
	}
	v, err := t.View(layers)
	if err != nil {
		return nil, err
	}
	return FromView(v)
}

// FromView groups the view rows by their tuple of labels. The group key is
// layer+label for each layer in view order, joined by KeySeparator.
func FromView(v *partition.View) (Partition, error) {
	if v.NumLayers() == 0 {
		return nil, ErrNoLayers
	}

	layers := v.Layers()
	groups := make(Partition)
	var sb strings.Builder
	for row := 0; row < v.Len(); row++ {
		sb.Reset()
		for i, layer := range layers {
			if i > 0 {
				sb.WriteString(KeySeparator)
			}
			sb.WriteString(layerKey(layer, v.ColumnAt(i)[row]))
		}
		key := sb.String()
		groups[key] = append(groups[key], row)
	}
	return groups, nil
}

// BuildRecursive computes the same partition as Build by starting from the
// groups of the first layer and intersecting every current group with every
// group of each following layer, keeping only non-empty intersections.
func BuildRecursive(t *partition.Table, layers []string) (Partition, error) {
	if len(layers) == 0 {
		return nil, ErrNoLayers
	}
	v, err := t.View(layers)
	if err != nil {
		return nil, err
	}

	var current map[string]*roaring.Bitmap
	for i, layer := range v.Layers() {
		groups := layerGroups(v.ColumnAt(i))

		if i == 0 {
			current = make(map[string]*roaring.Bitmap, len(groups))
			for label, members := range groups {
				current[layerKey(layer, label)] = members
			}
			continue
		}

		next := make(map[string]*roaring.Bitmap)
		for key, members := range current {
			for label, layerMembers := range groups {
				inter := roaring.And(members, layerMembers)
				if inter.IsEmpty() {
					continue
				}
				next[key+KeySeparator+layerKey(layer, label)] = inter
			}
		}
		current = next
	}

	out := make(Partition, len(current))
	for key, members := range current {
		rows := make([]int, 0, members.GetCardinality())
		it := members.Iterator()
		for it.HasNext() {
			rows = append(rows, int(it.Next()))
		}
		out[key] = rows
	}
	return out, nil
}

// Labels inverts a partition over n view rows: entry r is the key of the group
// holding row r, or "" when no group holds it.
func Labels(p Partition, n int) []string {
	labels := make([]string, n)
	for key, members := range p {
		for _, row := range members {
			if row >= 0 && row < n {
				labels[row] = key
			}
		}
	}
	return labels
}

// Codes maps string labels to dense integer codes in order of first appearance.
func Codes(labels []string) []int {
	codes := make([]int, len(labels))
	seen := make(map[string]int)
	for i, label := range labels {
		code, ok := seen[label]
		if !ok {
			code = len(seen)
			seen[label] = code
		}
		codes[i] = code
	}
	return codes
}

// ToTableRows maps the view row indexes of a partition back to table rows
// using the view's row mapping.
func (p Partition) ToTableRows(rows []int) Partition {
	out := make(Partition, len(p))
	for key, members := range p {
		mapped := make([]int, len(members))
		for i, r := range members {
			mapped[i] = rows[r]
		}
		out[key] = mapped
	}
	return out
}

// LabelCodes is Codes(Labels(p, n))
func LabelCodes(p Partition, n int) []int {
	return Codes(Labels(p, n))
}

func layerKey(layer string, label int) string {
	return layer + strconv.Itoa(label)
}

func layerGroups(col []int) map[int]*roaring.Bitmap {
	groups := make(map[int]*roaring.Bitmap)
	for row, label := range col {
		bm, ok := groups[label]
		if !ok {
			bm = roaring.New()
			groups[label] = bm
		}
		bm.Add(uint32(row))
	}
	return groups
}
