package validation

import (
	"context"
	"fmt"

	"media-catalog/internal/catalog"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"
	"media-catalog/internal/notify"
	"media-catalog/internal/repository"
	"media-catalog/internal/resolver"
)

// FolderScanner is the concrete FolderValidator: it re-resolves a folder's
// children from the filesystem, replaces the folder's child set, and emits a
// change notification when the set differs from the last persisted pass.
type FolderScanner struct {
	fs        filesystem.Access
	resolver  *resolver.PathResolver
	refresher MetadataRefresher
	repo      repository.Store
	notifier  *notify.Notifier
}

// NewFolderScanner builds a FolderScanner.
func NewFolderScanner(fs filesystem.Access, pr *resolver.PathResolver, refresher MetadataRefresher, repo repository.Store, notifier *notify.Notifier) *FolderScanner {
	return &FolderScanner{fs: fs, resolver: pr, refresher: refresher, repo: repo, notifier: notifier}
}

// ValidateChildren implements FolderValidator.
func (s *FolderScanner) ValidateChildren(ctx context.Context, folder catalog.Entity, progress Progress, recursive bool) error {
	if progress == nil {
		progress = Noop
	}

	f, ok := folderOf(folder)
	if !ok {
		return fmt.Errorf("validate children: %w: %s is not a folder", catalog.ErrInvalidArgument, folder.Info().Path)
	}

	path := folder.Info().Path
	flatten := 0
	if path == s.resolver.Root() {
		flatten = 2
	}

	entries, err := s.fs.ListFiltered(ctx, path, flatten)
	if err != nil {
		return fmt.Errorf("validate children of %s: %w", path, err)
	}

	before := s.priorChildren(ctx, folder, f)

	children := resolver.ResolveMany[catalog.Entity](ctx, s.resolver, entries, folder)
	if err := ctx.Err(); err != nil {
		return err
	}

	f.SetChildren(children)

	for _, c := range children {
		if err := s.refresher.Refresh(ctx, c, c.Info().IsNew, false); err != nil {
			// One bad child never aborts the folder.
			logging.Error("Error refreshing %s: %v", c.Info().Path, err)
		}
	}

	// Persist the reconciled child set so the next pass diffs against it.
	if err := s.repo.Put(ctx, folder); err != nil {
		logging.Error("Error persisting %s: %v", path, err)
	}

	s.notifyDiff(folder, before, children)

	if !recursive {
		progress.Report(100)
		return nil
	}

	for i, c := range children {
		if err := ctx.Err(); err != nil {
			return err
		}
		if sub, ok := folderOf(c); ok {
			from := 100 * float64(i) / float64(len(children))
			to := 100 * float64(i+1) / float64(len(children))
			if err := s.ValidateChildren(ctx, sub, scaled(progress, from, to), true); err != nil {
				logging.Error("Error validating %s: %v", sub.Info().Path, err)
			}
		}
		progress.Report(100 * float64(i+1) / float64(len(children)))
	}

	progress.Report(100)
	return nil
}

// priorChildren seeds the change diff with the child ids from the folder's
// persisted record. Folder entities below the root are constructed fresh
// every pass, so the in-memory set is only trusted when no record exists yet.
func (s *FolderScanner) priorChildren(ctx context.Context, folder catalog.Entity, f *catalog.Folder) map[string]struct{} {
	ids := f.Children
	prior, err := s.repo.Get(ctx, folder.Info().ID)
	if err != nil {
		logging.Warn("Error loading prior record for %s: %v", folder.Info().Path, err)
	} else if prior != nil {
		if pf, ok := folderOf(prior); ok {
			ids = pf.Children
		}
	}

	before := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		before[id] = struct{}{}
	}
	return before
}

// notifyDiff fires a change delta when the folder's children set changed.
func (s *FolderScanner) notifyDiff(folder catalog.Entity, before map[string]struct{}, children []catalog.Entity) {
	if s.notifier == nil {
		return
	}

	var added, removed []string
	after := make(map[string]struct{}, len(children))
	for _, c := range children {
		id := c.Info().ID
		after[id] = struct{}{}
		if _, ok := before[id]; !ok {
			added = append(added, id)
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			removed = append(removed, id)
		}
	}

	if len(added) == 0 && len(removed) == 0 {
		return
	}

	s.notifier.NotifyChanged(notify.ChangeDelta{
		FolderID:   folder.Info().ID,
		FolderPath: folder.Info().Path,
		Added:      added,
		Removed:    removed,
	})
}

// folderOf extracts the Folder record from folder-like entities.
func folderOf(e catalog.Entity) (*catalog.Folder, bool) {
	switch f := e.(type) {
	case *catalog.AggregateFolder:
		return &f.Folder, true
	case *catalog.Folder:
		return f, true
	default:
		return nil, false
	}
}
