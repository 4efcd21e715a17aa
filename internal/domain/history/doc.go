// Package history contains the domain types of the service history alarms
// data source.
//
// It defines the query arguments, the immutable fetch filter, raw alarm
// records owned by the backend, the fixed-shape output rows, the fetch state
// machine and the Backend interface every alarm store implements.
package history
