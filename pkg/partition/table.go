// Package partition holds the per-node, per-layer cluster label table that
// every alignment computation reads from.
package partition

import (
	"errors"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// Missing marks an unlabelled cell in raw label columns passed to AddLayer.
const Missing = math.MinInt

var (
	ErrUnknownLayer   = errors.New("unknown layer")
	ErrDuplicateLayer = errors.New("duplicate layer")
	ErrRowCount       = errors.New("row count mismatch")
)

// Table stores integer cluster labels, one column per layer and one row per node.
// Missing cells are tracked in a presence bitmap per layer, so no label value is
// reserved for them inside the table.
type Table struct {
	numRows int
	layers  []string
	index   map[string]int
	labels  [][]int
	present []*roaring.Bitmap
}

// NewTable creates an empty table for numRows nodes
func NewTable(numRows int) *Table {
	if numRows < 0 {
		numRows = 0
	}
	return &Table{
		numRows: numRows,
		layers:  make([]string, 0),
		index:   make(map[string]int),
		labels:  make([][]int, 0),
		present: make([]*roaring.Bitmap, 0),
	}
}

// FromColumns builds a table from raw columns, adding layers in the given order.
// All columns must have the same length. Cells equal to Missing are unlabelled.
func FromColumns(layers []string, columns map[string][]int) (*Table, error) {
	numRows := 0
	if len(layers) > 0 {
		col, ok := columns[layers[0]]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, layers[0])
		}
		numRows = len(col)
	}

	t := NewTable(numRows)
	for _, layer := range layers {
		col, ok := columns[layer]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, layer)
		}
		if err := t.AddLayer(layer, col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddLayer appends a layer column. The labels slice is copied.
func (t *Table) AddLayer(name string, labels []int) error {
	if _, exists := t.index[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateLayer, name)
	}
	if len(labels) != t.numRows {
		return fmt.Errorf("%w: layer %q has %d rows, table has %d", ErrRowCount, name, len(labels), t.numRows)
	}

	col := make([]int, len(labels))
	copy(col, labels)

	present := roaring.New()
	for row, label := range col {
		if label != Missing {
			present.Add(uint32(row))
		}
	}

	t.index[name] = len(t.layers)
	t.layers = append(t.layers, name)
	t.labels = append(t.labels, col)
	t.present = append(t.present, present)
	return nil
}

// NumRows returns the number of nodes
func (t *Table) NumRows() int { return t.numRows }

// NumLayers returns the number of layer columns
func (t *Table) NumLayers() int { return len(t.layers) }

// Layers returns the layer names in column order
func (t *Table) Layers() []string {
	out := make([]string, len(t.layers))
	copy(out, t.layers)
	return out
}

// Label returns the label of a node in a layer, and false when the cell is missing.
func (t *Table) Label(layer string, row int) (int, bool) {
	i, ok := t.index[layer]
	if !ok || row < 0 || row >= t.numRows {
		return 0, false
	}
	if !t.present[i].Contains(uint32(row)) {
		return 0, false
	}
	return t.labels[i][row], true
}

// Column returns a copy of a layer column, with Missing in unlabelled cells.
func (t *Table) Column(layer string) ([]int, error) {
	i, ok := t.index[layer]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, layer)
	}
	out := make([]int, t.numRows)
	copy(out, t.labels[i])
	return out, nil
}

// Present returns a copy of the set of rows labelled in a layer.
func (t *Table) Present(layer string) (*roaring.Bitmap, error) {
	i, ok := t.index[layer]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, layer)
	}
	return t.present[i].Clone(), nil
}

// MissingCount returns how many rows of a layer are unlabelled
func (t *Table) MissingCount(layer string) int {
	i, ok := t.index[layer]
	if !ok {
		return 0
	}
	return t.numRows - int(t.present[i].GetCardinality())
}

// View restricts the table to the given layers and to the rows labelled in all
// of them, re-indexed densely from zero.
func (t *Table) View(layers []string) (*View, error) {
	cols := make([]int, len(layers))
	seen := make(map[string]bool, len(layers))
	for j, layer := range layers {
		i, ok := t.index[layer]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, layer)
		}
		if seen[layer] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLayer, layer)
		}
		seen[layer] = true
		cols[j] = i
	}

	var rows []int
	if len(cols) == 0 {
		rows = make([]int, t.numRows)
		for r := range rows {
			rows[r] = r
		}
	} else {
		bitmaps := make([]*roaring.Bitmap, len(cols))
		for j, i := range cols {
			bitmaps[j] = t.present[i]
		}
		var complete *roaring.Bitmap
		if len(bitmaps) == 1 {
			complete = bitmaps[0].Clone()
		} else {
			complete = roaring.FastAnd(bitmaps...)
		}
		rows = make([]int, 0, complete.GetCardinality())
		it := complete.Iterator()
		for it.HasNext() {
			rows = append(rows, int(it.Next()))
		}
	}

	v := &View{
		layers: make([]string, len(layers)),
		rows:   rows,
		labels: make([][]int, len(cols)),
	}
	copy(v.layers, layers)
	for j, i := range cols {
		col := make([]int, len(rows))
		for r, row := range rows {
			col[r] = t.labels[i][row]
		}
		v.labels[j] = col
	}
	return v, nil
}
