package resolver

import (
	"path/filepath"
	"strings"
)

// HiddenRule ignores dotfiles and dot-directories.
type HiddenRule struct{}

// ShouldIgnore implements IgnoreRule.
func (HiddenRule) ShouldIgnore(args *ItemResolveArgs) bool {
	return strings.HasPrefix(args.FileName(), ".")
}

// defaultIgnorePatterns are directory names that never hold library media.
var defaultIgnorePatterns = []string{
	"@eaDir",
	"#recycle",
	"lost+found",
	"extrafanart",
	"metadata",
	"$RECYCLE.BIN",
	"System Volume Information",
}

// PatternRule ignores entries whose base name matches one of the configured
// glob patterns. Matching is case-insensitive.
type PatternRule struct {
	Patterns []string
}

// NewDefaultPatternRule returns a PatternRule covering well-known junk
// directories created by NAS appliances and metadata managers.
func NewDefaultPatternRule() *PatternRule {
	return &PatternRule{Patterns: defaultIgnorePatterns}
}

// ShouldIgnore implements IgnoreRule.
func (r *PatternRule) ShouldIgnore(args *ItemResolveArgs) bool {
	name := strings.ToLower(args.FileName())
	for _, pattern := range r.Patterns {
		if ok, err := filepath.Match(strings.ToLower(pattern), name); err == nil && ok {
			return true
		}
	}
	return false
}
