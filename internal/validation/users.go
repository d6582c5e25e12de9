package validation

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"media-catalog/internal/catalog"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"
)

// StaticUserSource serves a fixed user list, typically parsed from
// configuration at startup.
type StaticUserSource []User

// Users implements UserSource.
func (s StaticUserSource) Users(ctx context.Context) ([]User, error) {
	return s, nil
}

// ParseUsers parses a comma-separated list of user names into a source.
// User ids are derived from the lowercased name.
func ParseUsers(list string) StaticUserSource {
	var users StaticUserSource
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		users = append(users, User{ID: strings.ToLower(name), Name: name})
	}
	return users
}

// ViewValidator validates per-user views. Each user owns a view folder
// under the views directory; collection-folder validation reconciles that
// folder shallowly, library validation reconciles it recursively.
type ViewValidator struct {
	fs       filesystem.Access
	folders  FolderValidator
	viewsDir string
}

// NewViewValidator builds a ViewValidator over the views directory.
func NewViewValidator(fs filesystem.Access, folders FolderValidator, viewsDir string) *ViewValidator {
	return &ViewValidator{fs: fs, folders: folders, viewsDir: viewsDir}
}

// ValidateCollectionFolders implements UserValidator.
func (v *ViewValidator) ValidateCollectionFolders(ctx context.Context, user User, progress Progress) error {
	return v.validateView(ctx, user, progress, false)
}

// ValidateMediaLibrary implements UserValidator.
func (v *ViewValidator) ValidateMediaLibrary(ctx context.Context, user User, progress Progress) error {
	return v.validateView(ctx, user, progress, true)
}

func (v *ViewValidator) validateView(ctx context.Context, user User, progress Progress, recursive bool) error {
	if progress == nil {
		progress = Noop
	}

	viewPath := filepath.Join(v.viewsDir, user.ID)
	info, err := v.fs.Stat(viewPath)
	if err != nil {
		return fmt.Errorf("validate view for %s: %w", user.Name, err)
	}
	if info == nil {
		// A user without a view folder has nothing to validate.
		logging.Debug("No view folder for user %s at %s", user.Name, viewPath)
		progress.Report(100)
		return nil
	}

	folder := catalog.New(catalog.KindFolder, user.Name, viewPath, info.ModTime())
	if err := v.folders.ValidateChildren(ctx, folder, progress, recursive); err != nil {
		return err
	}
	progress.Report(100)
	return nil
}

// DefaultViewsDir resolves the per-user views directory under the library
// root, creating nothing.
func DefaultViewsDir(libraryDir string) string {
	return filepath.Join(libraryDir, "views")
}
