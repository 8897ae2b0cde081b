// Package worker runs the per-file pipeline across a bounded pool of
// goroutines. Goroutines + channels (core Go concurrency primitives) power
// the implementation; the status store is the only shared mutable state and
// every store call is its own transaction.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/dharsanguruparan/RenameVault/internal/logging"
	"github.com/dharsanguruparan/RenameVault/internal/model"
	"github.com/dharsanguruparan/RenameVault/internal/pipeline"
	"github.com/dharsanguruparan/RenameVault/internal/store"
)

// PipelineFunc processes one file and reports its outcome.
type PipelineFunc func(ctx context.Context, path string) model.ProcessingResult

// maxWorkerCeiling caps the pool regardless of what the operator asks for.
const maxWorkerCeiling = 16

// Pool dispatches files to a fixed set of workers and aggregates results.
type Pool struct {
	store   *store.Store
	workers int
}

// NewPool builds a Pool with requested workers, clamped to at most
// min(2 x available parallelism, 16). A clamped request is logged; zero or
// negative means "pick for me".
func NewPool(st *store.Store, requested int) *Pool {
	ceiling := 2 * runtime.NumCPU()
	if ceiling > maxWorkerCeiling {
		ceiling = maxWorkerCeiling
	}
	workers := requested
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > ceiling {
		logging.L.Warnf("worker count %d is too high, clamped to %d", workers, ceiling)
		workers = ceiling
	}
	return &Pool{store: st, workers: workers}
}

// Workers returns the effective pool size.
func (p *Pool) Workers() int {
	return p.workers
}

// Run processes every file and returns the count of successes. Results are
// collected in completion order; a panic or error in one file never cancels
// its siblings. When ctx is cancelled, in-flight files finish and every file
// not yet started is marked failed with a cancellation message. The only
// cancellation gate is the check before a file starts: a file already handed
// to the pipeline runs on a detached context so its extraction and file
// action complete normally.
func (p *Pool) Run(ctx context.Context, files []string, fn PipelineFunc) int {
	if len(files) == 0 {
		logging.L.Info("no files to process")
		return 0
	}

	added, err := p.store.Register(files)
	if err != nil {
		logging.L.Warnf("register files: %v", err)
	} else {
		logging.L.Infof("registered %d new file(s), %d total", added, len(files))
	}

	tasks := make(chan string, len(files))
	results := make(chan model.ProcessingResult, len(files))

	for _, path := range files {
		p.markStatus(path, model.StatusQueued, "queued")
		tasks <- path
	}
	close(tasks)

	runID := uuid.NewString()[:8]
	// Once a file is picked up it runs to completion; cancellation only
	// stops files that have not started yet.
	fileCtx := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		workerID := fmt.Sprintf("%s-w%d", runID, i+1)
		go func() {
			defer wg.Done()
			for path := range tasks {
				// Cancellation check at the top of each file: the current
				// file finishes, no new file starts.
				if ctx.Err() != nil {
					p.markStatus(path, model.StatusFailed, "cancelled before processing")
					results <- model.ProcessingResult{Path: path, Err: ctx.Err()}
					continue
				}
				results <- p.runOne(fileCtx, workerID, path, fn)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	success := 0
	for res := range results {
		if res.Success {
			success++
		}
	}
	logging.L.Infof("processing finished: %d/%d succeeded", success, len(files))
	return success
}

// runOne executes the pipeline for a single path, keeping the task boundary
// tight: status transitions around the call and panic recovery so one bad
// file cannot sink a worker slot.
func (p *Pool) runOne(ctx context.Context, workerID, path string, fn PipelineFunc) (res model.ProcessingResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic processing %s: %v", path, r)
			logging.L.Error(err.Error())
			p.markStatus(path, model.StatusFailed, err.Error())
			res = model.ProcessingResult{Path: path, Err: err}
		}
	}()

	if err := p.store.MarkProcessing(path, workerID); err != nil {
		logging.L.Warnf("mark processing %s: %v", path, err)
	}

	res = fn(ctx, path)

	if res.Success {
		p.markStatus(path, model.StatusSucceeded, pipeline.Describe(res))
	} else {
		p.markStatus(path, model.StatusFailed, pipeline.Describe(res))
	}
	return res
}

// markStatus writes a transition, logging and swallowing store errors:
// status tracking is observability, never a reason to stop processing.
func (p *Pool) markStatus(path string, status model.Status, message string) {
	if err := p.store.SetStatus(path, status, message); err != nil {
		logging.L.Warnf("update status of %s: %v", path, err)
	}
}
