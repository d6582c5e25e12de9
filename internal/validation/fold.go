package validation

import "golang.org/x/text/cases"

// foldName normalizes a person name for case-insensitive deduplication.
func foldName(s string) string {
	return cases.Fold().String(s)
}
