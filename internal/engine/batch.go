package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultWorkers is the worker-pool size used when the caller passes 0.
const DefaultWorkers = 4

// BatchResult summarizes a bulk run over a tournament's stored logs.
type BatchResult struct {
	Processed int
	Failed    int
}

// ProcessTournament runs the pipeline over every log the store holds for a
// tournament using a fixed pool of workers. A failing log is logged with its
// tournament and filename and does not stop the batch; matches complete in no
// particular order.
func (e *Engine) ProcessTournament(ctx context.Context, tournamentID int64, workers int) (BatchResult, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	filenames, err := e.store.List(ctx, tournamentID)
	if err != nil {
		return BatchResult{}, fmt.Errorf("list logs for tournament %d: %w", tournamentID, err)
	}

	jobs := make(chan string, workers)
	var processed, failed atomic.Int64

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for filename := range jobs {
				if _, err := e.ProcessStored(ctx, tournamentID, filename); err != nil {
					failed.Add(1)
					e.log.Error("log processing failed",
						"tournament", tournamentID, "file", filename, "error", err)
					continue
				}
				processed.Add(1)
			}
		}()
	}

	for _, filename := range filenames {
		select {
		case jobs <- filename:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return BatchResult{Processed: int(processed.Load()), Failed: int(failed.Load())}, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	return BatchResult{Processed: int(processed.Load()), Failed: int(failed.Load())}, nil
}
