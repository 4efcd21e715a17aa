package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/alarm-history/internal/domain/history"
)

// Struct field names of requests and responses.
const (
	fieldServicePattern = "service_pattern"
	fieldStartTime      = "start_time"
	fieldEndTime        = "end_time"
	fieldScope          = "scope"
	fieldAlarms         = "alarms"

	fieldDeviceID  = "device_id"
	fieldAlarmID   = "alarm_id"
	fieldElement   = "element"
	fieldParameter = "parameter"
	fieldValue     = "value"
	fieldTime      = "time"
	fieldSeverity  = "severity"
	fieldOwner     = "owner"
	fieldService   = "service"
)

// Metadata keys carrying the requesting actor.
const (
	metadataActorHostname = "x-actor-hostname"
	metadataActorUsername = "x-actor-username"
)

var (
	// errMissingField is returned when a required Struct field is absent.
	errMissingField = errors.New("missing field")
	// errMalformedAlarm is returned when a response alarm is not a Struct.
	errMalformedAlarm = errors.New("malformed alarm")
)

// EncodeFilter converts a filter into a request Struct.
func EncodeFilter(filter domain.FetchFilter) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{
		fieldServicePattern: filter.ServicePattern,
		fieldStartTime:      filter.StartTime.Format(time.RFC3339Nano),
		fieldEndTime:        filter.EndTime.Format(time.RFC3339Nano),
		fieldScope:          string(filter.Scope),
	})
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}

	return req, nil
}

// DecodeFilter converts a request Struct into a filter.
func DecodeFilter(req *structpb.Struct) (domain.FetchFilter, error) {
	fields := req.GetFields()

	pattern, ok := fields[fieldServicePattern]
	if !ok {
		return domain.FetchFilter{}, fmt.Errorf("%w: %s", errMissingField, fieldServicePattern)
	}

	start, err := timeField(fields, fieldStartTime)
	if err != nil {
		return domain.FetchFilter{}, err
	}

	end, err := timeField(fields, fieldEndTime)
	if err != nil {
		return domain.FetchFilter{}, err
	}

	return domain.FetchFilter{
		ServicePattern: pattern.GetStringValue(),
		StartTime:      start,
		EndTime:        end,
		Scope:          domain.Scope(fields[fieldScope].GetStringValue()),
	}, nil
}

// EncodeRecords converts records into a response Struct, keeping their order.
func EncodeRecords(records []domain.AlarmRecord) (*structpb.Struct, error) {
	alarms := make([]any, 0, len(records))

	for i := range records {
		r := &records[i]
		alarms = append(alarms, map[string]any{
			fieldDeviceID:  r.DeviceID,
			fieldAlarmID:   r.AlarmID,
			fieldElement:   r.ElementName,
			fieldParameter: r.ParameterName,
			fieldValue:     r.DisplayValue,
			fieldTime:      r.CreationTime.Format(time.RFC3339Nano),
			fieldSeverity:  r.Severity,
			fieldOwner:     r.Owner,
			fieldService:   r.ServiceName,
		})
	}

	resp, err := structpb.NewStruct(map[string]any{fieldAlarms: alarms})
	if err != nil {
		return nil, fmt.Errorf("encode alarms: %w", err)
	}

	return resp, nil
}

// DecodeRecords converts a response Struct into records. A response without
// alarms decodes to an empty, non-nil slice.
func DecodeRecords(resp *structpb.Struct) ([]domain.AlarmRecord, error) {
	values := resp.GetFields()[fieldAlarms].GetListValue().GetValues()
	records := make([]domain.AlarmRecord, 0, len(values))

	for i, v := range values {
		alarm := v.GetStructValue()
		if alarm == nil {
			return nil, fmt.Errorf("%w at index %d", errMalformedAlarm, i)
		}

		fields := alarm.GetFields()

		created, err := timeField(fields, fieldTime)
		if err != nil {
			return nil, fmt.Errorf("alarm at index %d: %w", i, err)
		}

		records = append(records, domain.AlarmRecord{
			DeviceID:      int(fields[fieldDeviceID].GetNumberValue()),
			AlarmID:       int(fields[fieldAlarmID].GetNumberValue()),
			ElementName:   fields[fieldElement].GetStringValue(),
			ParameterName: fields[fieldParameter].GetStringValue(),
			DisplayValue:  fields[fieldValue].GetStringValue(),
			CreationTime:  created,
			Severity:      fields[fieldSeverity].GetStringValue(),
			Owner:         fields[fieldOwner].GetStringValue(),
			ServiceName:   fields[fieldService].GetStringValue(),
		})
	}

	return records, nil
}

// timeField parses an RFC 3339 timestamp field.
func timeField(fields map[string]*structpb.Value, name string) (time.Time, error) {
	v, ok := fields[name]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s", errMissingField, name)
	}

	t, err := time.Parse(time.RFC3339Nano, v.GetStringValue())
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", name, err)
	}

	return t, nil
}

// WithOutgoingActor attaches the requesting actor to outgoing call metadata.
func WithOutgoingActor(ctx context.Context, actor *domain.Actor) context.Context {
	if actor == nil {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx,
		metadataActorHostname, actor.Hostname,
		metadataActorUsername, actor.Username,
	)
}

// IncomingActor extracts the requesting actor from incoming call metadata.
func IncomingActor(ctx context.Context) *domain.Actor {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}

	hostnames, usernames := md.Get(metadataActorHostname), md.Get(metadataActorUsername)
	if len(hostnames) == 0 && len(usernames) == 0 {
		return nil
	}

	actor := new(domain.Actor)

	if len(hostnames) > 0 {
		actor.Hostname = hostnames[0]
	}

	if len(usernames) > 0 {
		actor.Username = usernames[0]
	}

	return actor
}
