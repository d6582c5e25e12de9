// Package namecache deduplicates creation and refresh work for named
// entities (people, studios, genres, years) shared across thousands of
// media items.
//
// The cache maps a case-insensitive (category path, safe name) key to a
// single-assignment result slot registered under the cache lock, so a storm
// of concurrent requesters for the same name triggers exactly one creation
// unit of work and every caller observes its outcome.
package namecache
