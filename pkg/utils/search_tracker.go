package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// CombinationEvent records one evaluated layer combination
type CombinationEvent struct {
	Sequence  int     `json:"seq"`
	Size      int     `json:"size"`
	Signature string  `json:"signature"`
	Score     float64 `json:"score"`
	Rows      int     `json:"rows"`
	Groups    int     `json:"groups"`
	Best      bool    `json:"best"`
	ElapsedUS int64   `json:"elapsed_us"`
	Timestamp int64   `json:"timestamp"`
}

// SearchTracker writes one JSON line per evaluated combination. A nil tracker
// is valid and records nothing.
type SearchTracker struct {
	mu       sync.Mutex
	file     *os.File
	encoder  *json.Encoder
	sequence int
}

// NewSearchTracker creates the trace file, truncating any previous one
func NewSearchTracker(filename string) (*SearchTracker, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create search trace: %w", err)
	}

	return &SearchTracker{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

// LogCombination appends an event; the sequence number is assigned here.
func (st *SearchTracker) LogCombination(ev CombinationEvent) error {
	if st == nil {
		return nil
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	st.sequence++
	ev.Sequence = st.sequence
	if ev.Timestamp == 0 {
		ev.Timestamp = time.Now().Unix()
	}
	return st.encoder.Encode(ev)
}

// Count returns how many events were written
func (st *SearchTracker) Count() int {
	if st == nil {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sequence
}

func (st *SearchTracker) Close() error {
	if st == nil || st.file == nil {
		return nil
	}
	return st.file.Close()
}
