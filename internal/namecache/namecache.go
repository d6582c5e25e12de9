package namecache

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"media-catalog/internal/catalog"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
	"media-catalog/internal/repository"
)

// MetadataRefresher runs the external provider pipeline against an entity.
// allowSlowProviders lets bulk background sweeps opt out of network-bound
// providers to bound total latency.
type MetadataRefresher interface {
	Refresh(ctx context.Context, e catalog.Entity, isNew, allowSlowProviders bool) error
}

// Paths holds the per-category base directories under which named entities
// are materialized.
type Paths struct {
	People  string
	Studios string
	Genres  string
	Years   string
}

// entry is a single-assignment result slot for one creation unit of work.
// The goroutine that registered it closes done exactly once; every other
// requester for the same key waits on done and observes the same outcome.
type entry struct {
	done   chan struct{}
	entity catalog.Entity
	err    error
}

// Cache is the get-or-create store for named entities (people, studios,
// genres, years). For a given key at most one creation/refresh unit of work
// exists at a time; all concurrent requesters share its result. Entries are
// never evicted individually — Clear resets the whole map at the start of
// each people sweep, leaving persisted entities untouched.
type Cache struct {
	fs        filesystem.Access
	repo      repository.Store
	refresher MetadataRefresher
	paths     Paths

	mu      sync.Mutex
	entries map[string]*entry
}

// New builds a Cache over the given collaborators.
func New(fs filesystem.Access, repo repository.Store, refresher MetadataRefresher, paths Paths) *Cache {
	return &Cache{
		fs:        fs,
		repo:      repo,
		refresher: refresher,
		paths:     paths,
		entries:   make(map[string]*entry),
	}
}

// Clear drops every registered unit of work. In-flight units keep running;
// their results simply stop being shared with later requesters.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.mu.Unlock()
}

// Len returns the number of registered units, for tests and diagnostics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetOrCreate returns the named entity for (kind, name) under basePath,
// creating and refreshing it if no unit of work is registered for the key.
// Keys are compared case-insensitively on the filesystem-safe name.
func (c *Cache) GetOrCreate(ctx context.Context, kind catalog.Kind, basePath, name string, allowSlowProviders bool) (catalog.Entity, error) {
	if basePath == "" {
		return nil, fmt.Errorf("get or create %s: %w: base path is empty", kind, catalog.ErrInvalidArgument)
	}
	if name == "" {
		return nil, fmt.Errorf("get or create %s: %w: name is empty", kind, catalog.ErrInvalidArgument)
	}

	path := filepath.Join(basePath, c.fs.MakeSafeFilename(name))
	key := cases.Fold().String(path)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		metrics.NameCacheHitsTotal.Inc()
		select {
		case <-e.done:
			return e.entity, e.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e := &entry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	metrics.NameCacheCreationsTotal.WithLabelValues(string(kind)).Inc()

	e.entity, e.err = c.create(ctx, kind, name, path, allowSlowProviders)
	if e.err != nil {
		metrics.NameCacheErrorsTotal.Inc()
	}
	close(e.done)

	return e.entity, e.err
}

// create is the creation unit of work: materialize the on-disk directory,
// load or construct the entity, attach fresh filesystem metadata, and run
// the provider pipeline.
func (c *Cache) create(ctx context.Context, kind catalog.Kind, name, path string, allowSlowProviders bool) (catalog.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := c.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("create %s %q: %w", kind, name, err)
	}
	if info == nil {
		logging.Debug("Creating directory for %s %q at %s", kind, name, path)
		if err := c.fs.EnsureDir(path); err != nil {
			return nil, fmt.Errorf("create %s %q: %w: %v", kind, name, catalog.ErrIOFailure, err)
		}
		info, err = c.fs.Stat(path)
		if err != nil || info == nil {
			return nil, fmt.Errorf("create %s %q: %w: directory unreadable after creation", kind, name, catalog.ErrIOFailure)
		}
	}

	id := catalog.DeterministicID(kind, path)
	ent, err := c.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("create %s %q: repository lookup: %w", kind, name, err)
	}

	isNew := ent == nil
	if isNew {
		ent = catalog.New(kind, name, path, time.Now())
		ent.Info().IsNew = true
		if y, ok := ent.(*catalog.Year); ok {
			y.Value, _ = strconv.Atoi(name)
		}
	}

	// Reuse the metadata gathered above so refresh skips a second stat.
	ent.Info().Modified = info.ModTime()

	if err := c.refresher.Refresh(ctx, ent, isNew, allowSlowProviders); err != nil {
		return nil, fmt.Errorf("create %s %q: refresh: %w", kind, name, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ent, nil
}

// GetPerson returns the Person entity for name, creating it if needed.
func (c *Cache) GetPerson(ctx context.Context, name string, allowSlowProviders bool) (*catalog.Person, error) {
	return getTyped[*catalog.Person](ctx, c, catalog.KindPerson, c.paths.People, name, allowSlowProviders)
}

// GetStudio returns the Studio entity for name, creating it if needed.
func (c *Cache) GetStudio(ctx context.Context, name string, allowSlowProviders bool) (*catalog.Studio, error) {
	return getTyped[*catalog.Studio](ctx, c, catalog.KindStudio, c.paths.Studios, name, allowSlowProviders)
}

// GetGenre returns the Genre entity for name, creating it if needed.
func (c *Cache) GetGenre(ctx context.Context, name string, allowSlowProviders bool) (*catalog.Genre, error) {
	return getTyped[*catalog.Genre](ctx, c, catalog.KindGenre, c.paths.Genres, name, allowSlowProviders)
}

// GetYear returns the Year entity for a production year. Zero or negative
// values are rejected before any work begins.
func (c *Cache) GetYear(ctx context.Context, year int, allowSlowProviders bool) (*catalog.Year, error) {
	if year <= 0 {
		return nil, fmt.Errorf("get year: %w: year %d is not positive", catalog.ErrInvalidArgument, year)
	}
	return getTyped[*catalog.Year](ctx, c, catalog.KindYear, c.paths.Years, strconv.Itoa(year), allowSlowProviders)
}

func getTyped[T catalog.Entity](ctx context.Context, c *Cache, kind catalog.Kind, basePath, name string, allowSlowProviders bool) (T, error) {
	var zero T
	ent, err := c.GetOrCreate(ctx, kind, basePath, name, allowSlowProviders)
	if err != nil {
		return zero, err
	}
	typed, ok := any(ent).(T)
	if !ok {
		return zero, fmt.Errorf("get or create %s %q: unexpected entity type %T", kind, name, ent)
	}
	return typed, nil
}
