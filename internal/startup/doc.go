// Package startup loads daemon configuration from environment variables
// and resolves the derived directory layout.
package startup
