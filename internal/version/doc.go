// Package version exposes build metadata for the alarm history binaries.
//
// Version, Commit and BuildTime are injected at build time via ldflags. The
// same metadata is printed by the `version` subcommand and reported by the
// server health endpoint.
package version
