package query

import (
	"strings"

	"github.com/oshokin/alarm-history/internal/domain/history"
)

// NormalizeService maps a query-time service key to the backend's stored
// service-name convention, which uses '_' where keys use ':'.
func NormalizeService(service string) string {
	return strings.ReplaceAll(service, ":", "_")
}

// ServicePattern returns the wildcard-contains pattern for a service key.
func ServicePattern(service string) string {
	return "*" + NormalizeService(service) + "*"
}

// BuildFilter constructs the fetch predicate for the given arguments:
// a contains match on the service name over an inclusive window of the
// historical alarm table.
func BuildFilter(args history.QueryArguments) history.FetchFilter {
	return history.FetchFilter{
		ServicePattern: ServicePattern(args.Service),
		StartTime:      args.StartTime,
		EndTime:        args.EndTime,
		Scope:          history.ScopeAlarmTable,
	}
}
