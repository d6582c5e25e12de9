package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"media-catalog/internal/catalog"
	"media-catalog/internal/filesystem"
)

func listEntries(t *testing.T, fs filesystem.Access, dir string) []filesystem.Entry {
	t.Helper()
	entries, err := fs.ListFiltered(context.Background(), dir, 0)
	if err != nil {
		t.Fatalf("ListFiltered failed: %v", err)
	}
	return entries
}

// TestResolveManyMixed verifies a batch resolves every sibling and that the
// generic type filter keeps only matching results.
func TestResolveManyMixed(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "extras"), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"heat.mkv", "ronin.avi", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	fs := filesystem.NewOS()
	pr := NewPathResolver(fs, root, DefaultRules(), DefaultChain())
	entries := listEntries(t, fs, root)

	t.Run("all entities", func(t *testing.T) {
		// notes.txt resolves to nothing; the two videos and the directory
		// survive.
		results := ResolveMany[catalog.Entity](context.Background(), pr, entries, nil)
		if len(results) != 3 {
			t.Fatalf("Expected 3 entities, got %d", len(results))
		}
	})

	t.Run("videos only", func(t *testing.T) {
		results := ResolveMany[*catalog.Video](context.Background(), pr, entries, nil)
		if len(results) != 2 {
			t.Fatalf("Expected 2 videos, got %d", len(results))
		}
		for _, v := range results {
			if v.Kind() != catalog.KindVideo {
				t.Errorf("Expected video kind, got %s", v.Kind())
			}
		}
	})
}

// failingResolver errors out on one file name and passes on the rest.
type failingResolver struct {
	failName string
}

func (r failingResolver) Resolve(args *ItemResolveArgs) (catalog.Entity, error) {
	if args.FileName() == r.failName {
		return nil, errors.New("unreadable header")
	}
	return nil, nil
}

// TestResolveManyResolverErrorIsolated verifies a resolution error on one
// entry is dropped while the rest of the batch resolves.
func TestResolveManyResolverErrorIsolated(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, name := range []string{"heat.mkv", "ronin.mkv", "corrupt.mkv"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	fs := filesystem.NewOS()
	chain := []Resolver{failingResolver{failName: "corrupt.mkv"}, VideoResolver{}, FolderResolver{}}
	pr := NewPathResolver(fs, root, DefaultRules(), chain)
	entries := listEntries(t, fs, root)

	results := ResolveMany[*catalog.Video](context.Background(), pr, entries, nil)
	if len(results) != 2 {
		t.Fatalf("Expected 2 videos despite one failing entry, got %d", len(results))
	}
	for _, v := range results {
		if v.Info().Name == "corrupt" {
			t.Errorf("Failing entry leaked into results: %s", v.Info().Path)
		}
	}
}

// TestResolveManyBadEntrySurvives verifies a vanished entry is dropped while
// the rest of the batch resolves.
func TestResolveManyBadEntrySurvives(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "heat.mkv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := filesystem.NewOS()
	pr := NewPathResolver(fs, root, DefaultRules(), DefaultChain())
	entries := listEntries(t, fs, root)

	// Simulate a file deleted between enumeration and resolution.
	entries = append(entries, filesystem.Entry{
		Name: "gone.mkv",
		Path: filepath.Join(root, "gone.mkv"),
	})

	results := ResolveMany[catalog.Entity](context.Background(), pr, entries, nil)
	if len(results) != 1 {
		t.Fatalf("Expected 1 entity, got %d", len(results))
	}
	if results[0].Info().Name != "heat" {
		t.Errorf("Expected surviving entity heat, got %s", results[0].Info().Name)
	}
}

// TestResolveManyEmpty verifies an empty batch short-circuits.
func TestResolveManyEmpty(t *testing.T) {
	t.Parallel()

	pr := NewPathResolver(filesystem.NewOS(), t.TempDir(), DefaultRules(), DefaultChain())
	if results := ResolveMany[catalog.Entity](context.Background(), pr, nil, nil); results != nil {
		t.Errorf("Expected nil for empty batch, got %v", results)
	}
}

// TestResolveManyCanceled verifies a canceled context stops enqueueing and
// returns whatever finished.
func TestResolveManyCanceled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	entries := make([]filesystem.Entry, 0, 64)
	for i := 0; i < 64; i++ {
		name := filepath.Join(root, "missing", "x.mkv")
		entries = append(entries, filesystem.Entry{Name: "x.mkv", Path: name})
	}

	pr := NewPathResolver(filesystem.NewOS(), root, DefaultRules(), DefaultChain())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := ResolveMany[catalog.Entity](ctx, pr, entries, nil)
	if len(results) != 0 {
		t.Errorf("Expected no results after cancellation, got %d", len(results))
	}
}
