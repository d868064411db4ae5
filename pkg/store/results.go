package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gilchrisn/multilayer-alignment/pkg/curve"
)

// Blob name suffixes of a saved curve
const (
	AllSuffix  = "_all"
	BestSuffix = "_best"
)

// SaveCurve writes the score table as <name>_all and the best-by-size table
// as <name>_best.
func SaveCurve(ctx context.Context, s BlobStore, name string, r *curve.Result) error {
	if err := putJSON(ctx, s, name+AllSuffix, r.Scores); err != nil {
		return err
	}
	return putJSON(ctx, s, name+BestSuffix, r.Best)
}

// LoadCurve reads a curve saved by SaveCurve. Statistics are not persisted.
func LoadCurve(ctx context.Context, s BlobStore, name string) (*curve.Result, error) {
	r := &curve.Result{
		Scores: make(curve.ScoreTable),
		Best:   make(curve.BestBySize),
	}
	if err := getJSON(ctx, s, name+AllSuffix, &r.Scores); err != nil {
		return nil, err
	}
	if err := getJSON(ctx, s, name+BestSuffix, &r.Best); err != nil {
		return nil, err
	}
	return r, nil
}

// NullName is the blob prefix of null trial i under dir
func NullName(dir string, i int) string {
	return fmt.Sprintf("%s/null_%d", dir, i)
}

// SaveNullCurves writes every null trial under dir, in trial order
func SaveNullCurves(ctx context.Context, s BlobStore, dir string, results []*curve.Result) error {
	for i, r := range results {
		if err := SaveCurve(ctx, s, NullName(dir, i), r); err != nil {
			return fmt.Errorf("saving null trial %d: %w", i, err)
		}
	}
	return nil
}

// LoadNullCurves reads n null trials saved by SaveNullCurves
func LoadNullCurves(ctx context.Context, s BlobStore, dir string, n int) ([]*curve.Result, error) {
	out := make([]*curve.Result, n)
	for i := range out {
		r, err := LoadCurve(ctx, s, NullName(dir, i))
		if err != nil {
			return nil, fmt.Errorf("loading null trial %d: %w", i, err)
		}
		out[i] = r
	}
	return out, nil
}

func putJSON(ctx context.Context, s BlobStore, name string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", name, err)
	}
	return s.Put(ctx, name, data)
}

func getJSON(ctx context.Context, s BlobStore, name string, v interface{}) error {
	data, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %q: %w", name, err)
	}
	return nil
}
