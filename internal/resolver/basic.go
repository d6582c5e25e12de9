package resolver

import (
	"strings"

	"media-catalog/internal/catalog"
	"media-catalog/internal/mediatypes"
)

// VideoResolver classifies recognized video files as Video entities.
type VideoResolver struct{}

// Resolve implements Resolver.
func (VideoResolver) Resolve(args *ItemResolveArgs) (catalog.Entity, error) {
	if args.IsDirectory() || !mediatypes.IsVideoFile(args.FileName()) {
		return nil, nil
	}

	name := strings.TrimSuffix(args.FileName(), args.Extension())
	entity := catalog.New(catalog.KindVideo, name, args.Path, args.FileInfo.ModTime())

	video := entity.(*catalog.Video)
	video.Container = strings.TrimPrefix(args.Extension(), ".")
	video.Size = args.FileInfo.Size()
	return video, nil
}

// FolderResolver classifies any remaining directory as a plain Folder.
// It should be ordered last: more specific directory resolvers (and the
// multi-part container short-circuit) run first.
type FolderResolver struct{}

// Resolve implements Resolver.
func (FolderResolver) Resolve(args *ItemResolveArgs) (catalog.Entity, error) {
	if !args.IsDirectory() {
		return nil, nil
	}

	kind := catalog.KindFolder
	if args.IsPhysicalRoot {
		kind = catalog.KindAggregateFolder
	}
	return catalog.New(kind, args.FileName(), args.Path, args.FileInfo.ModTime()), nil
}

// DefaultChain returns the built-in resolver ordering. Callers may replace
// it wholesale; the engine treats the ordering as opaque configuration.
func DefaultChain() []Resolver {
	return []Resolver{
		VideoResolver{},
		FolderResolver{},
	}
}

// DefaultRules returns the built-in ignore rule ordering.
func DefaultRules() []IgnoreRule {
	return []IgnoreRule{
		HiddenRule{},
		NewDefaultPatternRule(),
	}
}
