// Package catalog defines the entity model for the media catalog tree.
//
// Every node in the tree is an Entity: folders, videos, and the "named"
// entities (people, studios, genres, years) that live under fixed
// per-category directories. Entity identifiers are a pure function of the
// entity's absolute path and concrete kind, so repeated resolution passes
// over an unchanged filesystem reuse the persisted record instead of
// creating a new one.
package catalog
