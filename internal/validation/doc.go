// Package validation drives the multi-phase passes that keep the catalog
// consistent with the filesystem.
//
// ValidateMediaLibrary runs five strictly ordered phases over the root
// aggregate folder and the registered users' views. ValidatePeople sweeps
// every referenced actor and director through the named-entity cache in
// bounded batches, honoring cancellation only at batch boundaries so no
// entity is left half-initialized.
package validation
