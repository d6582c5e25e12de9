package validation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
	"media-catalog/internal/namecache"
)

// User identifies a registered library user whose views are validated.
type User struct {
	ID   string
	Name string
}

// UserSource lists the registered users.
type UserSource interface {
	Users(ctx context.Context) ([]User, error)
}

// FolderValidator reconciles a folder's children against the filesystem.
type FolderValidator interface {
	ValidateChildren(ctx context.Context, folder catalog.Entity, progress Progress, recursive bool) error
}

// UserValidator runs per-user validation passes.
type UserValidator interface {
	ValidateCollectionFolders(ctx context.Context, user User, progress Progress) error
	ValidateMediaLibrary(ctx context.Context, user User, progress Progress) error
}

// MetadataRefresher runs the external provider pipeline against an entity.
type MetadataRefresher interface {
	Refresh(ctx context.Context, e catalog.Entity, isNew, allowSlowProviders bool) error
}

// maxPeopleInFlight bounds the number of concurrent person refresh units.
// When the in-flight set fills, the sweep drains it completely before
// checking cancellation, so no person is left half-initialized.
const maxPeopleInFlight = 250

// Orchestrator drives the multi-phase validation passes over the catalog
// tree. It owns the root AggregateFolder for the duration of a pass; the
// repository remains the system of record across passes.
type Orchestrator struct {
	root      *catalog.AggregateFolder
	users     UserSource
	folders   FolderValidator
	userVal   UserValidator
	refresher MetadataRefresher
	people    *namecache.Cache

	statusMu    sync.Mutex
	running     bool
	lastRun     time.Time
	lastRunTook time.Duration
}

// NewOrchestrator wires a validation orchestrator over its collaborators.
func NewOrchestrator(
	root *catalog.AggregateFolder,
	users UserSource,
	folders FolderValidator,
	userVal UserValidator,
	refresher MetadataRefresher,
	people *namecache.Cache,
) *Orchestrator {
	return &Orchestrator{
		root:      root,
		users:     users,
		folders:   folders,
		userVal:   userVal,
		refresher: refresher,
		people:    people,
	}
}

// ValidateMediaLibrary runs the five-phase library validation sequence.
// Each phase completes fully before the next starts:
//
//  1. refresh metadata on the root itself
//  2. shallow-validate the root's direct children
//  3. validate every user's collection-folder view, in parallel
//  4. deep-validate the whole tree with real progress
//  5. run every user's full library validation, sequentially
//
// Per-user failures in phases 3 and 5 are logged and do not abort the pass;
// cancellation always propagates.
func (o *Orchestrator) ValidateMediaLibrary(ctx context.Context, progress Progress) error {
	if progress == nil {
		progress = Noop
	}

	start := time.Now()
	o.setRunning(true)
	metrics.ValidationRunning.Set(1)
	metrics.ValidationRunsTotal.WithLabelValues("library").Inc()
	defer func() {
		o.finishRun(start)
		metrics.ValidationRunning.Set(0)
		metrics.ValidationLastRunDuration.WithLabelValues("library").Set(time.Since(start).Seconds())
	}()

	logging.Info("Starting library validation")

	// Phase 1: the root itself.
	if err := o.refresher.Refresh(ctx, o.root, false, true); err != nil {
		return fmt.Errorf("validate library: refresh root: %w", err)
	}
	progress.Report(2)

	// Phase 2: shallow pass so the top level is browsable quickly.
	if err := o.folders.ValidateChildren(ctx, o.root, Noop, false); err != nil {
		return fmt.Errorf("validate library: shallow pass: %w", err)
	}
	progress.Report(5)

	users, err := o.users.Users(ctx)
	if err != nil {
		return fmt.Errorf("validate library: list users: %w", err)
	}

	// Phase 3: per-user collection folders, in parallel. Per-user progress
	// is not surfaced at this phase.
	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u User) {
			defer wg.Done()
			if err := o.userVal.ValidateCollectionFolders(ctx, u, Noop); err != nil {
				logging.Error("Error validating collection folders for user %s: %v", u.Name, err)
			}
		}(u)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	progress.Report(10)

	// Phase 4: the deep pass, reporting real progress.
	if err := o.folders.ValidateChildren(ctx, o.root, scaled(progress, 10, 90), true); err != nil {
		return fmt.Errorf("validate library: deep pass: %w", err)
	}

	// Phase 5: per-user full library validation, sequentially. Parallel
	// execution here contends on shared per-user state.
	for i, u := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		from := 90 + 10*float64(i)/float64(len(users))
		to := 90 + 10*float64(i+1)/float64(len(users))
		if err := o.userVal.ValidateMediaLibrary(ctx, u, scaled(progress, from, to)); err != nil {
			logging.Error("Error validating library for user %s: %v", u.Name, err)
		}
	}

	progress.Report(100)

	logging.Info("Library validation complete in %v", time.Since(start))
	return nil
}

// ValidatePeople sweeps every Actor and Director referenced in the tree and
// refreshes their named-entity records. At most maxPeopleInFlight refresh
// units run concurrently; cancellation is honored only at batch boundaries
// where no unit is outstanding.
func (o *Orchestrator) ValidatePeople(ctx context.Context, progress Progress) error {
	if progress == nil {
		progress = Noop
	}

	start := time.Now()
	metrics.ValidationRunsTotal.WithLabelValues("people").Inc()
	defer func() {
		metrics.ValidationLastRunDuration.WithLabelValues("people").Set(time.Since(start).Seconds())
	}()

	// Force fresh creation units for this sweep; persisted data is untouched.
	o.people.Clear()

	names := collectPeople(o.root)
	total := len(names)
	metrics.PeopleSweepSize.Set(float64(total))

	if total == 0 {
		progress.Report(100)
		return nil
	}

	logging.Info("Starting people validation for %d people", total)

	var (
		completed  int
		progressMu sync.Mutex

		sweepErr error
		errMu    sync.Mutex

		wg       sync.WaitGroup
		inFlight int
	)

	for _, name := range names {
		wg.Add(1)
		inFlight++
		go func(name string) {
			defer wg.Done()

			if _, err := o.people.GetPerson(ctx, name, true); err != nil {
				switch {
				case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
					// The post-batch checkpoint reports cancellation.
				case errors.Is(err, catalog.ErrIOFailure):
					metrics.PeopleSweepErrorsTotal.Inc()
					logging.Error("Error validating person %q: %v", name, err)
				default:
					errMu.Lock()
					if sweepErr == nil {
						sweepErr = err
					}
					errMu.Unlock()
				}
			}

			progressMu.Lock()
			completed++
			progress.Report(100 * float64(completed) / float64(total))
			progressMu.Unlock()
		}(name)

		if inFlight >= maxPeopleInFlight {
			// Drain everything outstanding, then check cancellation. This
			// is the only point where cancellation is honored.
			wg.Wait()
			inFlight = 0
			if err := ctx.Err(); err != nil {
				return err
			}
			errMu.Lock()
			err := sweepErr
			errMu.Unlock()
			if err != nil {
				return fmt.Errorf("validate people: %w", err)
			}
		}
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	errMu.Lock()
	err := sweepErr
	errMu.Unlock()
	if err != nil {
		return fmt.Errorf("validate people: %w", err)
	}

	progress.Report(100)
	logging.Info("People validation complete: %d people in %v", total, time.Since(start))
	return nil
}

// collectPeople gathers every Actor/Director name referenced anywhere in
// the tree, deduplicated case-insensitively with first occurrence winning.
func collectPeople(root catalog.Entity) []string {
	var (
		names []string
		seen  = make(map[string]struct{})
	)

	var walk func(e catalog.Entity)
	walk = func(e catalog.Entity) {
		for _, ref := range e.Info().People {
			if ref.Role != catalog.RoleActor && ref.Role != catalog.RoleDirector {
				continue
			}
			if ref.Name == "" {
				continue
			}
			key := foldName(ref.Name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			names = append(names, ref.Name)
		}

		switch f := e.(type) {
		case *catalog.AggregateFolder:
			for _, c := range f.ChildEntities() {
				walk(c)
			}
		case *catalog.Folder:
			for _, c := range f.ChildEntities() {
				walk(c)
			}
		}
	}
	walk(root)

	return names
}

func (o *Orchestrator) setRunning(v bool) {
	o.statusMu.Lock()
	o.running = v
	o.statusMu.Unlock()
}

func (o *Orchestrator) finishRun(start time.Time) {
	o.statusMu.Lock()
	o.running = false
	o.lastRun = time.Now()
	o.lastRunTook = time.Since(start)
	o.statusMu.Unlock()
}

// Status reports whether a pass is running and when the last one finished.
func (o *Orchestrator) Status() (running bool, lastRun time.Time, lastTook time.Duration) {
	o.statusMu.Lock()
	defer o.statusMu.Unlock()
	return o.running, o.lastRun, o.lastRunTook
}
