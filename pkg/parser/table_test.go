package parser

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gilchrisn/multilayer-alignment/pkg/partition"
)

func columnOf(t *testing.T, tbl *partition.Table, layer string) []int {
	t.Helper()
	col, err := tbl.Column(layer)
	require.NoError(t, err)
	return col
}

func TestReadTable(t *testing.T) {
	input := "id,economy,immigration,climate\n" +
		"n1,0,1,2\n" +
		"n2,1,NA,2.0\n" +
		"n3, 1 ,0,\n" +
		"n4,nan,0,1\n"

	tbl, err := ReadTable(strings.NewReader(input), Options{IDColumn: "id"})
	require.NoError(t, err)

	m := partition.Missing
	assert.Equal(t, []string{"economy", "immigration", "climate"}, tbl.Layers())
	assert.Equal(t, 4, tbl.NumRows())
	assert.Equal(t, []int{0, 1, 1, m}, columnOf(t, tbl, "economy"))
	assert.Equal(t, []int{1, m, 0, 0}, columnOf(t, tbl, "immigration"))
	assert.Equal(t, []int{2, 2, m, 1}, columnOf(t, tbl, "climate"))
}

func TestReadTableSelectsLayers(t *testing.T) {
	input := "A,B,C\n0,1,2\n1,1,0\n"

	tbl, err := ReadTable(strings.NewReader(input), Options{Layers: []string{"C", "A"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, tbl.Layers())
	assert.Equal(t, []int{2, 0}, columnOf(t, tbl, "C"))

	_, err = ReadTable(strings.NewReader(input), Options{Layers: []string{"D"}})
	assert.ErrorIs(t, err, partition.ErrUnknownLayer)
}

func TestReadTableErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  Options
	}{
		{"empty", "", Options{}},
		{"bad label", "A,B\n0,x\n", Options{}},
		{"fractional label", "A\n1.5\n", Options{}},
		{"reserved label", "A\n-9223372036854775808\n", Options{}},
		{"short row", "A,B\n0\n", Options{}},
		{"duplicate header", "A,A\n0,1\n", Options{}},
		{"unknown id column", "A,B\n0,1\n", Options{IDColumn: "id"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTable(strings.NewReader(tt.input), tt.opts)
			assert.Error(t, err)
		})
	}

	_, err := ReadTable(strings.NewReader(""), Options{})
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestReadTableHeaderOnly(t *testing.T) {
	tbl, err := ReadTable(strings.NewReader("A,B\n"), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumLayers())
	assert.Equal(t, 0, tbl.NumRows())
}

func TestWriteTableRoundTrip(t *testing.T) {
	m := partition.Missing
	tbl, err := partition.FromColumns([]string{"A", "B"}, map[string][]int{
		"A": {0, m, 3},
		"B": {1, 1, m},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, tbl))
	assert.Equal(t, "A,B\n0,1\n,1\n3,\n", buf.String())

	back, err := ReadTable(&buf, Options{})
	require.NoError(t, err)
	assert.Equal(t, columnOf(t, tbl, "A"), columnOf(t, back, "A"))
	assert.Equal(t, columnOf(t, tbl, "B"), columnOf(t, back, "B"))
}

func TestLoadTableTSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layers.tsv")
	require.NoError(t, os.WriteFile(path, []byte("A\tB\n0\t1\n1\t0\n"), 0o644))

	tbl, err := LoadTable(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, columnOf(t, tbl, "B"))

	_, err = LoadTable(filepath.Join(t.TempDir(), "missing.csv"), Options{})
	assert.Error(t, err)
}

func TestSaveTable(t *testing.T) {
	tbl, err := partition.FromColumns([]string{"A"}, map[string][]int{"A": {4, 5}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, SaveTable(path, tbl))

	back, err := LoadTable(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, columnOf(t, back, "A"))
}
