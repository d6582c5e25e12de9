// Package repository persists catalog entities in SQLite, keyed by their
// deterministic ids. Entities survive across validation passes; the
// in-memory named-entity cache only deduplicates creation work on top of
// this store.
package repository
