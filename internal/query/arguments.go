package query

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oshokin/alarm-history/internal/domain/history"
)

// Argument names as exposed to the host.
const (
	ArgService   = "Service"
	ArgStartTime = "Start Time"
	ArgEndTime   = "End Time"
)

// RawArguments is the argument set supplied by the host, keyed by argument name.
type RawArguments map[string]any

// ErrMissingArgument is returned when a required argument is absent or has the wrong type.
var ErrMissingArgument = errors.New("missing required argument")

// newArgumentDescriptors builds the input argument schema of one Source.
func newArgumentDescriptors() []history.Argument {
	return []history.Argument{
		{Name: ArgService, Type: history.ArgumentString, Required: true},
		{Name: ArgStartTime, Type: history.ArgumentDateTime, Required: true},
		{Name: ArgEndTime, Type: history.ArgumentDateTime, Required: true},
	}
}

// parseArguments extracts QueryArguments from raw host arguments.
// The service is read permissively: absent, non-string or blank values all
// yield an empty service.
func parseArguments(raw RawArguments) (history.QueryArguments, error) {
	var args history.QueryArguments

	if service, ok := raw[ArgService].(string); ok {
		args.Service = service
	}

	start, err := timeArgument(raw, ArgStartTime)
	if err != nil {
		return history.QueryArguments{}, err
	}

	end, err := timeArgument(raw, ArgEndTime)
	if err != nil {
		return history.QueryArguments{}, err
	}

	args.StartTime = start
	args.EndTime = end

	return args, nil
}

// timeArgument reads a required instant.
func timeArgument(raw RawArguments, name string) (time.Time, error) {
	switch v := raw[name].(type) {
	case time.Time:
		return v, nil
	case *time.Time:
		if v != nil {
			return *v, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %s", ErrMissingArgument, name)
}

// isBlank reports whether the service key is empty or whitespace only.
func isBlank(service string) bool {
	return strings.TrimSpace(service) == ""
}
