// Package resolver classifies filesystem paths into catalog entities.
//
// Resolution runs a path through an ordered chain: ignore rules first (any
// match excludes the path), then resolvers (first non-nil result wins).
// Both chains are caller-supplied configuration. ResolveMany fans a batch
// of sibling entries across a worker pool, isolating per-entry failures so
// one bad file never aborts a library scan.
package resolver
