// Package query implements the service history alarms data source as an
// explicit pipeline object.
//
// A Source is driven through Init, ProcessArguments, PrepareFetch, Columns and
// ReadPage. PrepareFetch starts the single backend fetch in the background and
// ReadPage is the only place that waits for it. Every Source owns its
// arguments, filter and fetch; nothing is shared between instances.
package query
