package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"media-catalog/internal/catalog"
	"media-catalog/internal/filesystem"
	"media-catalog/internal/logging"
	"media-catalog/internal/metrics"
)

// The library root has its grandchildren flattened one extra level so the
// top level shows user-view contents instead of the view folders themselves.
const rootFlattenDepth = 2

// Resolver attempts to classify a path into a catalog entity. Returning
// (nil, nil) means "not recognized here"; the chain moves on.
type Resolver interface {
	Resolve(args *ItemResolveArgs) (catalog.Entity, error)
}

// IgnoreRule excludes a path from resolution entirely. Any rule returning
// true short-circuits the whole chain.
type IgnoreRule interface {
	ShouldIgnore(args *ItemResolveArgs) bool
}

// PathResolver is the single-path entry point: it gathers filesystem facts,
// applies the ignore rules, and feeds the resolver chain. Rule and resolver
// ordering is caller configuration and treated as an opaque total order.
type PathResolver struct {
	fs        filesystem.Access
	rootPath  string
	rules     []IgnoreRule
	resolvers []Resolver
}

// NewPathResolver builds a PathResolver for the library rooted at rootPath.
func NewPathResolver(fs filesystem.Access, rootPath string, rules []IgnoreRule, resolvers []Resolver) *PathResolver {
	return &PathResolver{
		fs:        fs,
		rootPath:  filepath.Clean(rootPath),
		rules:     rules,
		resolvers: resolvers,
	}
}

// ResolvePath classifies a single path. It returns (nil, nil) when the path
// no longer exists, matches an ignore rule, is a multi-part container, or no
// resolver recognizes it. It never mutates persisted state.
func (p *PathResolver) ResolvePath(ctx context.Context, path string, parent catalog.Entity, knownInfo os.FileInfo) (catalog.Entity, error) {
	if path == "" {
		return nil, fmt.Errorf("resolve path: %w: path is empty", catalog.ErrInvalidArgument)
	}

	start := time.Now()
	defer func() {
		metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	}()
	metrics.ResolveAttemptsTotal.Inc()

	info := knownInfo
	if info == nil {
		var err error
		info, err = p.fs.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("resolve path %s: %w", path, err)
		}
		// Path disappeared between enumeration and resolution.
		if info == nil {
			logging.Debug("Path no longer exists, skipping: %s", path)
			return nil, nil
		}
	}

	args := &ItemResolveArgs{
		Path:           path,
		Parent:         parent,
		FileInfo:       info,
		IsPhysicalRoot: filepath.Clean(path) == p.rootPath,
	}

	for _, rule := range p.rules {
		if rule.ShouldIgnore(args) {
			metrics.ResolveIgnoredTotal.Inc()
			logging.Debug("Ignoring path: %s", path)
			return nil, nil
		}
	}

	if args.IsDirectory() {
		flatten := 0
		if args.IsPhysicalRoot {
			flatten = rootFlattenDepth
		}

		children, err := p.fs.ListFiltered(ctx, path, flatten)
		if err != nil {
			return nil, fmt.Errorf("resolve path %s: list children: %w", path, err)
		}
		args.Children = children

		// A directory holding only multi-part files belongs to the item
		// that owns the parts, not the catalog.
		if args.isMultiPartContainer() {
			logging.Debug("Skipping multi-part container: %s", path)
			return nil, nil
		}
	}

	for _, r := range p.resolvers {
		entity, err := r.Resolve(args)
		if err != nil {
			return nil, fmt.Errorf("resolve path %s: %w", path, err)
		}
		if entity != nil {
			return entity, nil
		}
	}

	return nil, nil
}

// Root returns the configured physical library root path.
func (p *PathResolver) Root() string { return p.rootPath }
