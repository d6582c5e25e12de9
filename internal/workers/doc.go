// Package workers sizes worker pools from available CPUs, honoring
// container limits and the CATALOG_WORKERS override.
package workers
