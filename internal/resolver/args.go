package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"media-catalog/internal/catalog"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/mediatypes"
)

// ItemResolveArgs is the per-path resolution context handed to ignore rules
// and resolvers. It is created for one ResolvePath call and discarded.
type ItemResolveArgs struct {
	// Path is the absolute path being resolved.
	Path string

	// Parent is the entity the result will be attached to. Nil only for
	// the library root.
	Parent catalog.Entity

	// FileInfo is the raw filesystem metadata for Path.
	FileInfo os.FileInfo

	// Children is the filtered set of child entries. Populated only for
	// directories, after flattening has been applied.
	Children []filesystem.Entry

	// IsPhysicalRoot marks the distinguished library root path, which gets
	// its grandchildren flattened so per-user view folders disappear from
	// the top level.
	IsPhysicalRoot bool
}

// IsDirectory reports whether the path under resolution is a directory.
func (a *ItemResolveArgs) IsDirectory() bool {
	return a.FileInfo != nil && a.FileInfo.IsDir()
}

// FileName returns the base name of the path under resolution.
func (a *ItemResolveArgs) FileName() string {
	return filepath.Base(a.Path)
}

// Extension returns the lowercase extension of the path, with leading dot.
func (a *ItemResolveArgs) Extension() string {
	return strings.ToLower(filepath.Ext(a.Path))
}

// isMultiPartContainer reports whether the directory holds nothing but
// multi-part video files. Such directories belong to the media item that
// owns the parts and are never resolved on their own.
func (a *ItemResolveArgs) isMultiPartContainer() bool {
	if !a.IsDirectory() || len(a.Children) == 0 {
		return false
	}
	for _, c := range a.Children {
		if c.IsDir() {
			return false
		}
		if !mediatypes.IsVideoFile(c.Name) || !mediatypes.IsMultiPart(c.Name) {
			return false
		}
	}
	return true
}
