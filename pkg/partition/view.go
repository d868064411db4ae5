package partition

import "fmt"

// View is a read-only projection of a Table onto a subset of layers. It holds
// only rows labelled in every selected layer. View row r corresponds to table
// row Rows()[r]; every consensus and score computed from a view uses this
// dense index.
type View struct {
	layers []string
	rows   []int
	labels [][]int
}

// Len returns the number of rows in the view
func (v *View) Len() int { return len(v.rows) }

// NumLayers returns the number of selected layers
func (v *View) NumLayers() int { return len(v.layers) }

// Layers returns the selected layer names in selection order
func (v *View) Layers() []string {
	out := make([]string, len(v.layers))
	copy(out, v.layers)
	return out
}

// Rows returns the original table row of each view row
func (v *View) Rows() []int {
	out := make([]int, len(v.rows))
	copy(out, v.rows)
	return out
}

// ColumnAt returns the labels of the i-th selected layer. The slice is shared
// with the view and must not be modified.
func (v *View) ColumnAt(i int) []int {
	return v.labels[i]
}

// Column returns the labels of a selected layer, shared with the view.
func (v *View) Column(layer string) ([]int, error) {
	for i, name := range v.layers {
		if name == layer {
			return v.labels[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q not in view", ErrUnknownLayer, layer)
}

// Without returns a view over the same rows with one layer dropped. Rows are
// not re-filtered: they are already labelled in the remaining layers.
func (v *View) Without(layer string) (*View, error) {
	idx := -1
	for i, name := range v.layers {
		if name == layer {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q not in view", ErrUnknownLayer, layer)
	}

	out := &View{
		layers: make([]string, 0, len(v.layers)-1),
		rows:   v.rows,
		labels: make([][]int, 0, len(v.layers)-1),
	}
	for i := range v.layers {
		if i == idx {
			continue
		}
		out.layers = append(out.layers, v.layers[i])
		out.labels = append(out.labels, v.labels[i])
	}
	return out, nil
}
