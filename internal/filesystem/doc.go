// Package filesystem provides the filesystem access boundary for the media
// catalog: directory enumeration with hidden-entry filtering and optional
// flattening, stat with retry logic for NFS stale file handles, shortcut
// resolution, and filename sanitization for named-entity directories.
package filesystem
