// Package logger wraps zap to offer:
//   - a global sugared logger with a console encoder writing to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithFields),
//   - level parsing and configuration (ParseLogLevel/Configure),
//   - convenience functions (InfoKV, ErrorKV, etc.).
//
// Query stages, backends and transports take a context and log through the
// logger stored in it, so every line carries the query or request scope.
package logger
