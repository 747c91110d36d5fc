package llm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func stringItem(id, value string) WorkItem[string] {
	return WorkItem[string]{
		ID:      id,
		Execute: func(ctx context.Context) (string, error) { return value, nil },
	}
}

func TestProcess_AllItemsComplete(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())
	items := []WorkItem[string]{
		stringItem("pat-1", "add index"),
		stringItem("pat-2", "rewrite join"),
		stringItem("pat-3", "avoid wildcard"),
	}

	results := Process(context.Background(), pool, items, nil)
	require.Len(t, results, 3)

	byID := make(map[string]WorkResult[string])
	for _, r := range results {
		assert.NoError(t, r.Err, "item %s", r.ID)
		byID[r.ID] = r
	}
	assert.Equal(t, "add index", byID["pat-1"].Result)
	assert.Equal(t, "rewrite join", byID["pat-2"].Result)
	assert.Equal(t, "avoid wildcard", byID["pat-3"].Result)
}

func TestProcess_FailuresDoNotAbortBatch(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())
	boom := errors.New("provider rejected request")
	items := []WorkItem[string]{
		stringItem("pat-1", "add index"),
		{ID: "pat-2", Execute: func(ctx context.Context) (string, error) { return "", boom }},
		stringItem("pat-3", "avoid wildcard"),
	}

	results := Process(context.Background(), pool, items, nil)
	require.Len(t, results, 3)

	byID := make(map[string]WorkResult[string])
	for _, r := range results {
		byID[r.ID] = r
	}
	assert.NoError(t, byID["pat-1"].Err)
	assert.ErrorIs(t, byID["pat-2"].Err, boom)
	assert.NoError(t, byID["pat-3"].Err)
}

func TestProcess_EmptyBatch(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())

	results := Process(context.Background(), pool, []WorkItem[string]{}, nil)
	assert.Nil(t, results)
}

func TestProcess_CancellationDrainsQueue(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 1}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	items := []WorkItem[string]{
		{ID: "pat-1", Execute: func(ctx context.Context) (string, error) {
			// Cancel while the first call is in flight; the queued item
			// behind it must be drained instead of executed.
			cancel()
			time.Sleep(10 * time.Millisecond)
			return "", ctx.Err()
		}},
		stringItem("pat-2", "never runs"),
	}

	results := Process(ctx, pool, items, nil)
	require.Len(t, results, 2)

	cancelled := 0
	for _, r := range results {
		if errors.Is(r.Err, context.Canceled) {
			cancelled++
		}
	}
	assert.GreaterOrEqual(t, cancelled, 1, "cancellation should surface in results")
}

func TestProcess_RespectsConcurrencyCap(t *testing.T) {
	const limit = 3
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: limit}, zap.NewNop())

	var inFlight, peak atomic.Int32
	items := make([]WorkItem[string], 10)
	for i := range items {
		items[i] = WorkItem[string]{
			ID: fmt.Sprintf("pat-%d", i),
			Execute: func(ctx context.Context) (string, error) {
				n := inFlight.Add(1)
				defer inFlight.Add(-1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(50 * time.Millisecond)
				return "done", nil
			},
		}
	}

	results := Process(context.Background(), pool, items, nil)
	require.Len(t, results, 10)

	assert.LessOrEqual(t, peak.Load(), int32(limit), "cap exceeded")
	assert.GreaterOrEqual(t, peak.Load(), int32(2), "expected overlapping calls")
}

func TestProcess_ReportsProgressPerCompletion(t *testing.T) {
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: 2}, zap.NewNop())
	items := []WorkItem[string]{
		stringItem("pat-1", "a"),
		stringItem("pat-2", "b"),
		stringItem("pat-3", "c"),
	}

	var updates []int
	results := Process(context.Background(), pool, items, func(completed, total int) {
		assert.Equal(t, 3, total)
		updates = append(updates, completed)
	})

	require.Len(t, results, 3)
	assert.Equal(t, []int{1, 2, 3}, updates)
}

func TestNewWorkerPool_CorrectsNonPositiveCap(t *testing.T) {
	for _, bad := range []int{0, -1} {
		pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: bad}, zap.NewNop())
		assert.Equal(t, DefaultMaxConcurrent, pool.cfg.MaxConcurrent, "MaxConcurrent=%d", bad)
	}
}

func TestDefaultWorkerPoolConfig(t *testing.T) {
	assert.Equal(t, DefaultMaxConcurrent, DefaultWorkerPoolConfig().MaxConcurrent)
}
