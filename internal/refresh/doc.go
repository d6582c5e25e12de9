// Package refresh runs the metadata-provider pipeline against catalog
// entities and persists the result. Providers are pluggable; slow
// (network-bound) providers can be skipped during bulk sweeps.
package refresh
