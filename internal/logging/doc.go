// Package logging provides leveled logging for the media catalog.
//
// The log level is configured once from the environment:
//   - DEBUG=1 (or true/yes/on) enables debug output
//   - LOG_LEVEL=debug|info|warn|error selects the level explicitly
//
// The default level is info.
package logging
