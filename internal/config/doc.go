// Package config defines the settings used by the alarm history binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Values read from the file can be overridden with ALARM_HISTORY_* environment
// variables. The Config type holds the backend server address, the alarm store
// selection and the metrics endpoint.
package config
