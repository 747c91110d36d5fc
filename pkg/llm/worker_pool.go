package llm

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// WorkerPoolConfig bounds how many provider calls run at once.
type WorkerPoolConfig struct {
	MaxConcurrent int
}

// DefaultWorkerPoolConfig caps a batch at DefaultMaxConcurrent in-flight
// calls, which stays under the rate limits of the hosted providers.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		MaxConcurrent: DefaultMaxConcurrent,
	}
}

// WorkerPool runs a recommendation batch through a fixed crew of workers.
// Each worker pulls the next pattern off a shared queue as soon as it
// finishes the previous one, so slow calls never stall the rest of the
// batch and at most MaxConcurrent requests are outstanding at any moment.
type WorkerPool struct {
	cfg    WorkerPoolConfig
	logger *zap.Logger
}

// NewWorkerPool builds a pool, correcting a non-positive concurrency
// setting to DefaultMaxConcurrent.
func NewWorkerPool(config WorkerPoolConfig, logger *zap.Logger) *WorkerPool {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = DefaultMaxConcurrent
	}
	return &WorkerPool{
		cfg:    config,
		logger: logger.Named("llm-worker-pool"),
	}
}

// WorkItem is one pending provider call, tagged with an ID so the caller
// can map results back to query patterns.
type WorkItem[T any] struct {
	ID      string
	Execute func(ctx context.Context) (T, error)
}

// WorkResult pairs an item's ID with whatever its Execute returned.
type WorkResult[T any] struct {
	ID     string
	Result T
	Err    error
}

// Process runs every item and returns one result per item, ordered by
// completion rather than submission. Failures are recorded in the result
// rather than aborting the batch; once ctx is cancelled the remaining
// queued items are drained with ctx.Err() instead of being executed.
// onProgress, if non-nil, is invoked on the calling goroutine after each
// completion.
func Process[T any](
	ctx context.Context,
	pool *WorkerPool,
	items []WorkItem[T],
	onProgress func(completed, total int),
) []WorkResult[T] {
	if len(items) == 0 {
		return nil
	}

	workers := pool.cfg.MaxConcurrent
	if workers > len(items) {
		workers = len(items)
	}
	pool.logger.Debug("dispatching batch",
		zap.Int("items", len(items)),
		zap.Int("workers", workers))

	queue := make(chan WorkItem[T], len(items))
	for _, item := range items {
		queue <- item
	}
	close(queue)

	out := make(chan WorkResult[T], len(items))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range queue {
				if err := ctx.Err(); err != nil {
					out <- WorkResult[T]{ID: item.ID, Err: err}
					continue
				}
				value, err := item.Execute(ctx)
				out <- WorkResult[T]{ID: item.ID, Result: value, Err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()

	results := make([]WorkResult[T], 0, len(items))
	for result := range out {
		results = append(results, result)
		if onProgress != nil {
			onProgress(len(results), len(items))
		}
	}
	return results
}
