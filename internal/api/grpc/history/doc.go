// Package history implements the gRPC transport for the alarm history service.
//
// The service has a single unary method, FetchHistoricalAlarms. Its request
// and response messages are protobuf Structs whose layout is defined by the
// codec in this package, so no generated code is required on either side.
package history
