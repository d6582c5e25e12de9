package resolver

import (
	"context"
	"sync"

	"media-catalog/internal/catalog"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
	"media-catalog/internal/workers"
)

// ResolveMany fans a batch of sibling entries out across a worker pool,
// resolving each through the PathResolver and keeping only results of type T.
//
// Per-entry failures are logged with the offending path and dropped; one bad
// entry never aborts the batch. Results of the wrong type (including nil)
// are filtered out. Result order follows concurrent completion and callers
// must not depend on it.
func ResolveMany[T catalog.Entity](ctx context.Context, pr *PathResolver, entries []filesystem.Entry, parent catalog.Entity) []T {
	if len(entries) == 0 {
		return nil
	}

	numWorkers := workers.ForIO(len(entries))

	jobs := make(chan filesystem.Entry)

	var (
		mu      sync.Mutex
		results []T
		wg      sync.WaitGroup
	)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for entry := range jobs {
				entity, err := pr.ResolvePath(ctx, entry.Path, parent, entry.Info)
				if err != nil {
					metrics.ResolveErrorsTotal.Inc()
					logging.Error("Error resolving %s: %v", entry.Path, err)
					continue
				}
				if entity == nil {
					continue
				}

				typed, ok := any(entity).(T)
				if !ok {
					logging.Debug("Dropping %s: resolved to %s, not the requested type",
						entry.Path, entity.Kind())
					continue
				}

				mu.Lock()
				results = append(results, typed)
				mu.Unlock()
			}
		}()
	}

	for _, entry := range entries {
		select {
		case jobs <- entry:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return results
		}
	}
	close(jobs)
	wg.Wait()

	return results
}
