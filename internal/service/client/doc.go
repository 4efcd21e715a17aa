// Package client implements the alarm-history query command.
//
// The command connects to the alarm history server, runs one query for the
// requested service and time window, and prints the resulting page as a table
// or as JSON.
package client
