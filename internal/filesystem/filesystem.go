package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"media-catalog/internal/logging"
)

// Entry is a single filtered directory entry produced by ListFiltered.
type Entry struct {
	// Name is the base name of the entry.
	Name string
	// Path is the absolute path of the entry.
	Path string
	// Info is the entry's file metadata.
	Info os.FileInfo
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Info != nil && e.Info.IsDir()
}

// Access is the filesystem boundary consumed by the resolver and the
// named-entity cache. The OS-backed implementation lives in this package;
// tests substitute fakes.
type Access interface {
	// Stat returns metadata for path, or (nil, nil) if the path no longer
	// exists. Other errors are returned as-is.
	Stat(path string) (os.FileInfo, error)

	// ListFiltered enumerates the children of a directory, excluding hidden
	// entries. When flattenDepth is greater than zero, directory entries are
	// replaced by their own filtered children, repeated flattenDepth times:
	// a depth of 2 surfaces grandchildren in place of children.
	ListFiltered(ctx context.Context, path string, flattenDepth int) ([]Entry, error)

	// ResolveShortcut follows a symlink chain and returns the real path.
	ResolveShortcut(path string) (string, error)

	// EnsureDir creates the directory (and any missing parents) at path.
	EnsureDir(path string) error

	// MakeSafeFilename transforms an arbitrary display name into a form
	// safe to use as a single path segment.
	MakeSafeFilename(name string) string
}

// OS is the operating-system backed Access implementation.
type OS struct {
	retry RetryConfig
}

// NewOS returns an Access backed by the local filesystem with default
// retry behavior for NFS stale handles.
func NewOS() *OS {
	return &OS{retry: DefaultRetryConfig()}
}

// Stat implements Access. A missing path is reported as (nil, nil) so that
// callers treat it as "no longer exists" rather than an error.
func (o *OS) Stat(path string) (os.FileInfo, error) {
	info, err := StatWithRetry(path, o.retry)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}

// ListFiltered implements Access.
func (o *OS) ListFiltered(ctx context.Context, path string, flattenDepth int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}

		childPath := filepath.Join(path, de.Name())

		if de.IsDir() && flattenDepth > 0 {
			children, err := o.ListFiltered(ctx, childPath, flattenDepth-1)
			if err != nil {
				// A single unreadable subdirectory does not fail the listing.
				logging.Warn("Error flattening directory %s: %v", childPath, err)
				continue
			}
			entries = append(entries, children...)
			continue
		}

		info, err := de.Info()
		if err != nil {
			logging.Warn("Error getting info for %s: %v", childPath, err)
			continue
		}

		entries = append(entries, Entry{Name: de.Name(), Path: childPath, Info: info})
	}

	return entries, nil
}

// ResolveShortcut implements Access.
func (o *OS) ResolveShortcut(path string) (string, error) {
	return filepath.EvalSymlinks(path)
}

// EnsureDir implements Access.
func (o *OS) EnsureDir(path string) error {
	return MkdirWithRetry(path, 0o755, o.retry)
}

// unsafeFilenameChars are stripped from display names before they become
// path segments.
const unsafeFilenameChars = `<>:"/\|?*`

// MakeSafeFilename implements Access. Names are unicode-normalized (NFKC)
// so visually identical names from different metadata providers map to the
// same on-disk directory.
func (o *OS) MakeSafeFilename(name string) string {
	name = norm.NFKC.String(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < 0x20 || strings.ContainsRune(unsafeFilenameChars, r) {
			b.WriteRune('-')
			continue
		}
		b.WriteRune(r)
	}

	safe := strings.Trim(b.String(), " .")
	if safe == "" {
		safe = "_"
	}
	return safe
}
