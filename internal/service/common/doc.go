// Package common holds helpers shared by the alarm history binaries.
//
// It provides a gRPC client that satisfies the history backend contract and a
// helper that detects the current system actor (hostname/username) for audit
// purposes.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
