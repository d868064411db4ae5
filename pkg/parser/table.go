// Package parser reads and writes partition tables as delimited text: a
// header row of layer names followed by one row of cluster labels per node.
package parser

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gilchrisn/multilayer-alignment/pkg/partition"
)

var ErrNoHeader = errors.New("missing header row")

// Options controls how a table is read
type Options struct {
	Comma    rune     // field delimiter, ',' if zero
	IDColumn string   // header of a node id column to ignore, if any
	Layers   []string // layers to keep, in this order; all columns if empty
}

// missingTokens are the cell values read as unlabelled
var missingTokens = map[string]bool{
	"":     true,
	"na":   true,
	"nan":  true,
	"null": true,
	"none": true,
}

// ReadTable parses a partition table. Labels must be integers; integral floats
// such as "2.0" are accepted since exported data frames often write labels
// that way.
func ReadTable(r io.Reader, opts Options) (*partition.Table, error) {
	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns, err := selectColumns(header, opts)
	if err != nil {
		return nil, err
	}

	labels := make(map[string][]int, len(columns))
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line+1, err)
		}
		line++

		for _, c := range columns {
			label, err := parseLabel(record[c.index])
			if err != nil {
				return nil, fmt.Errorf("line %d, layer %q: %w", line, c.name, err)
			}
			labels[c.name] = append(labels[c.name], label)
		}
	}

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.name
		if labels[c.name] == nil {
			labels[c.name] = []int{}
		}
	}
	return partition.FromColumns(names, labels)
}

// LoadTable reads a table file. Files ending in .tsv are tab separated.
func LoadTable(path string, opts Options) (*partition.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	defer file.Close()

	if opts.Comma == 0 && strings.EqualFold(filepath.Ext(path), ".tsv") {
		opts.Comma = '\t'
	}

	t, err := ReadTable(file, opts)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return t, nil
}

// WriteTable writes a table with missing cells left empty
func WriteTable(w io.Writer, t *partition.Table) error {
	writer := csv.NewWriter(w)

	layers := t.Layers()
	if err := writer.Write(layers); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(layers))
	for row := 0; row < t.NumRows(); row++ {
		for i, layer := range layers {
			record[i] = ""
			if label, ok := t.Label(layer, row); ok {
				record[i] = strconv.Itoa(label)
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveTable writes a table to a file
func SaveTable(path string, t *partition.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := WriteTable(file, t); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

type column struct {
	name  string
	index int
}

func selectColumns(header []string, opts Options) ([]column, error) {
	position := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := position[name]; dup {
			return nil, fmt.Errorf("%w: %q", partition.ErrDuplicateLayer, name)
		}
		position[name] = i
	}
	if opts.IDColumn != "" {
		if _, ok := position[opts.IDColumn]; !ok {
			return nil, fmt.Errorf("id column %q not in header", opts.IDColumn)
		}
	}

	if len(opts.Layers) > 0 {
		columns := make([]column, 0, len(opts.Layers))
		for _, name := range opts.Layers {
			i, ok := position[name]
			if !ok || name == opts.IDColumn {
				return nil, fmt.Errorf("%w: %q", partition.ErrUnknownLayer, name)
			}
			columns = append(columns, column{name: name, index: i})
		}
		return columns, nil
	}

	columns := make([]column, 0, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == opts.IDColumn {
			continue
		}
		columns = append(columns, column{name: name, index: i})
	}
	return columns, nil
}

func parseLabel(cell string) (int, error) {
	cell = strings.TrimSpace(cell)
	if missingTokens[strings.ToLower(cell)] {
		return partition.Missing, nil
	}
	if label, err := strconv.Atoi(cell); err == nil {
		if label == partition.Missing {
			return 0, fmt.Errorf("label %q out of range", cell)
		}
		return label, nil
	}

	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("invalid label %q", cell)
	}
	return int(f), nil
}
