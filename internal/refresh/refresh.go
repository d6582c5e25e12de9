package refresh

import (
	"context"
	"fmt"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/logging"
	"media-catalog/internal/repository"
)

// Provider enriches an entity with metadata from one source. Slow providers
// (network-bound lookups) are skipped when a bulk sweep asks for cheap
// refresh only.
type Provider interface {
	Name() string
	Slow() bool
	Apply(ctx context.Context, e catalog.Entity) error
}

// StoreRefresher runs the configured providers against an entity and writes
// the result through to the repository. The write-through is what gives a
// creation unit read-your-writes within a single pass.
type StoreRefresher struct {
	repo      repository.Store
	providers []Provider
}

// New builds a StoreRefresher over the repository and provider pipeline.
func New(repo repository.Store, providers ...Provider) *StoreRefresher {
	return &StoreRefresher{repo: repo, providers: providers}
}

// Refresh implements the MetadataRefresher boundary consumed by the
// named-entity cache and the validation orchestrator.
func (r *StoreRefresher) Refresh(ctx context.Context, e catalog.Entity, isNew, allowSlowProviders bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, p := range r.providers {
		if p.Slow() && !allowSlowProviders {
			logging.Debug("Skipping slow provider %s for %s", p.Name(), e.Info().Name)
			continue
		}
		if err := p.Apply(ctx, e); err != nil {
			// Provider failures degrade metadata, not the catalog.
			logging.Warn("Provider %s failed for %s: %v", p.Name(), e.Info().Name, err)
		}
	}

	if !isNew {
		e.Info().Modified = time.Now()
	}
	e.Info().IsNew = false

	if err := r.repo.Put(ctx, e); err != nil {
		return fmt.Errorf("refresh %s: persist: %w", e.Info().Name, err)
	}
	return nil
}
