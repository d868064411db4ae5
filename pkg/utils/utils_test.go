package utils

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPreservesOrder(t *testing.T) {
	out, err := Map(context.Background(), 4, 50, func(_ context.Context, i int) (int, error) {
		// later tasks finish first
		time.Sleep(time.Duration(50-i) * 50 * time.Microsecond)
		return i * i, nil
	})
	require.NoError(t, err)
	require.Len(t, out, 50)
	for i, v := range out {
		assert.Equal(t, i*i, v)
	}
}

func TestMapRespectsLimit(t *testing.T) {
	var running, peak int32
	_, err := Map(context.Background(), 2, 20, func(_ context.Context, i int) (struct{}, error) {
		cur := atomic.AddInt32(&running, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&running, -1)
		return struct{}{}, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak, int32(2))
}

func TestMapFailsWholeBatch(t *testing.T) {
	boom := errors.New("boom")
	out, err := Map(context.Background(), 3, 10, func(_ context.Context, i int) (int, error) {
		if i == 4 {
			return 0, boom
		}
		return i, nil
	})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, out)
}

func TestMapRecoversPanics(t *testing.T) {
	_, err := Map(context.Background(), 2, 3, func(_ context.Context, i int) (int, error) {
		if i == 1 {
			panic("worker died")
		}
		return i, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker died")
}

func TestMapEmpty(t *testing.T) {
	out, err := Map(context.Background(), 0, 0, func(_ context.Context, i int) (int, error) {
		return i, nil
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestDefaultWorkers(t *testing.T) {
	assert.GreaterOrEqual(t, DefaultWorkers(), 1)
}

func TestSearchTracker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	tracker, err := NewSearchTracker(path)
	require.NoError(t, err)

	require.NoError(t, tracker.LogCombination(CombinationEvent{Size: 2, Signature: "2+A+B", Score: 0.5}))
	require.NoError(t, tracker.LogCombination(CombinationEvent{Size: 2, Signature: "2+A+C", Score: 0.7, Best: true}))
	assert.Equal(t, 2, tracker.Count())
	require.NoError(t, tracker.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []CombinationEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev CombinationEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].Sequence)
	assert.Equal(t, "2+A+C", events[1].Signature)
	assert.True(t, events[1].Best)
}

func TestNilSearchTracker(t *testing.T) {
	var tracker *SearchTracker
	assert.NoError(t, tracker.LogCombination(CombinationEvent{}))
	assert.Zero(t, tracker.Count())
	assert.NoError(t, tracker.Close())
}
