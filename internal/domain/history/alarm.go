package history

import (
	"context"
	"strconv"
	"time"
)

// Scope selects the backend table a fetch is restricted to.
type Scope string

// ScopeAlarmTable restricts a fetch to persisted alarms, excluding live alarms
// and information events.
const ScopeAlarmTable Scope = "alarm_table"

// QueryArguments are the validated inputs of one query.
type QueryArguments struct {
	// Service is the service key; blank means no retrieval is attempted.
	Service string
	// StartTime is the inclusive start of the retrieval window.
	StartTime time.Time
	// EndTime is the inclusive end of the retrieval window.
	EndTime time.Time
}

// FetchFilter is the predicate sent to the backend. It is built once per
// query and never mutated.
type FetchFilter struct {
	// ServicePattern is a case-sensitive wildcard pattern over the service name.
	ServicePattern string
	// StartTime is the inclusive start of the window.
	StartTime time.Time
	// EndTime is the inclusive end of the window.
	EndTime time.Time
	// Scope is the table the fetch is restricted to.
	Scope Scope
}

// Contains reports whether t falls inside the inclusive window.
func (f FetchFilter) Contains(t time.Time) bool {
	return !t.Before(f.StartTime) && !t.After(f.EndTime)
}

// AlarmRecord is a historical alarm as stored by the backend.
type AlarmRecord struct {
	// DeviceID identifies the agent that raised the alarm.
	DeviceID int
	// AlarmID identifies the alarm on that agent.
	AlarmID int
	// ElementName is the monitored element.
	ElementName string
	// ParameterName is the monitored parameter.
	ParameterName string
	// DisplayValue is the parameter value as displayed.
	DisplayValue string
	// CreationTime is when the alarm was raised, in any zone.
	CreationTime time.Time
	// Severity is the alarm level, e.g. "Critical".
	Severity string
	// Owner is the user the alarm is assigned to, if any.
	Owner string
	// ServiceName is the stored service name the filter pattern is matched against.
	ServiceName string
}

// Key returns the "{deviceId}/{alarmId}" identifier of the record.
func (r *AlarmRecord) Key() string {
	return strconv.Itoa(r.DeviceID) + "/" + strconv.Itoa(r.AlarmID)
}

// Backend retrieves historical alarms. A non-nil error is a retrieval
// failure; an empty result means nothing matched.
type Backend interface {
	FetchHistoricalAlarms(ctx context.Context, filter FetchFilter) ([]AlarmRecord, error)
}

// BackendFunc adapts a plain function to the Backend interface.
type BackendFunc func(ctx context.Context, filter FetchFilter) ([]AlarmRecord, error)

// FetchHistoricalAlarms calls f.
func (f BackendFunc) FetchHistoricalAlarms(ctx context.Context, filter FetchFilter) ([]AlarmRecord, error) {
	return f(ctx, filter)
}
