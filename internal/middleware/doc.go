// Package middleware decorates a history.Backend with logging and metrics.
package middleware
