package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromColumns(t *testing.T) {
	tbl, err := FromColumns([]string{"B", "A"}, map[string][]int{
		"A": {0, 1, 2},
		"B": {1, Missing, 1},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, []string{"B", "A"}, tbl.Layers())
	assert.Equal(t, 1, tbl.MissingCount("B"))
	assert.Equal(t, 0, tbl.MissingCount("A"))

	label, ok := tbl.Label("B", 1)
	assert.False(t, ok)
	assert.Zero(t, label)

	label, ok = tbl.Label("A", 2)
	assert.True(t, ok)
	assert.Equal(t, 2, label)

	_, ok = tbl.Label("C", 0)
	assert.False(t, ok)
}

func TestFromColumnsErrors(t *testing.T) {
	tests := []struct {
		name    string
		layers  []string
		columns map[string][]int
		wantErr error
	}{
		{
			name:    "UnknownLayer",
			layers:  []string{"A", "X"},
			columns: map[string][]int{"A": {0}},
			wantErr: ErrUnknownLayer,
		},
		{
			name:    "DuplicateLayer",
			layers:  []string{"A", "A"},
			columns: map[string][]int{"A": {0}},
			wantErr: ErrDuplicateLayer,
		},
		{
			name:    "RowMismatch",
			layers:  []string{"A", "B"},
			columns: map[string][]int{"A": {0, 1}, "B": {0}},
			wantErr: ErrRowCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromColumns(tt.layers, tt.columns)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestColumnIsCopy(t *testing.T) {
	tbl, err := FromColumns([]string{"A"}, map[string][]int{"A": {0, 1}})
	require.NoError(t, err)

	col, err := tbl.Column("A")
	require.NoError(t, err)
	col[0] = 42

	again, err := tbl.Column("A")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, again)
}

func TestPresentIsCopy(t *testing.T) {
	tbl, err := FromColumns([]string{"A"}, map[string][]int{"A": {4, Missing, 5, Missing}})
	require.NoError(t, err)

	present, err := tbl.Present("A")
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 2}, present.ToArray())

	present.Add(1)
	again, err := tbl.Present("A")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), again.GetCardinality())

	_, err = tbl.Present("B")
	assert.ErrorIs(t, err, ErrUnknownLayer)
}

func TestViewFiltersMissingRows(t *testing.T) {
	tbl, err := FromColumns([]string{"A", "B", "C"}, map[string][]int{
		"A": {0, Missing, 1, 1, 0},
		"B": {1, 1, Missing, 0, 0},
		"C": {Missing, 2, 2, 2, 2},
	})
	require.NoError(t, err)

	v, err := tbl.View([]string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, 3, v.Len())
	assert.Equal(t, []int{0, 3, 4}, v.Rows())
	assert.Equal(t, []int{0, 1, 0}, v.ColumnAt(0))
	assert.Equal(t, []int{1, 0, 0}, v.ColumnAt(1))

	v, err = tbl.View([]string{"C", "A"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 4}, v.Rows())
	assert.Equal(t, []string{"C", "A"}, v.Layers())

	col, err := v.Column("A")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 0}, col)

	v, err = tbl.View([]string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, v.Rows())
}

func TestViewDoesNotMutateTable(t *testing.T) {
	tbl, err := FromColumns([]string{"A", "B"}, map[string][]int{
		"A": {0, Missing, 1},
		"B": {1, 1, Missing},
	})
	require.NoError(t, err)

	_, err = tbl.View([]string{"A", "B"})
	require.NoError(t, err)

	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, 1, tbl.MissingCount("A"))
	assert.Equal(t, 1, tbl.MissingCount("B"))
}

func TestViewErrors(t *testing.T) {
	tbl, err := FromColumns([]string{"A"}, map[string][]int{"A": {0, 1}})
	require.NoError(t, err)

	_, err = tbl.View([]string{"Z"})
	assert.ErrorIs(t, err, ErrUnknownLayer)

	_, err = tbl.View([]string{"A", "A"})
	assert.ErrorIs(t, err, ErrDuplicateLayer)
}

func TestViewWithout(t *testing.T) {
	tbl, err := FromColumns([]string{"A", "B", "C"}, map[string][]int{
		"A": {0, 1},
		"B": {1, 0},
		"C": {2, 2},
	})
	require.NoError(t, err)

	v, err := tbl.View([]string{"A", "B", "C"})
	require.NoError(t, err)

	rest, err := v.Without("B")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, rest.Layers())
	assert.Equal(t, v.Len(), rest.Len())
	assert.Equal(t, []int{2, 2}, rest.ColumnAt(1))

	// original view is untouched
	assert.Equal(t, 3, v.NumLayers())

	_, err = v.Without("Z")
	assert.ErrorIs(t, err, ErrUnknownLayer)
}

func TestEmptyTable(t *testing.T) {
	tbl := NewTable(0)
	assert.Equal(t, 0, tbl.NumLayers())

	v, err := tbl.View(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Len())
}
