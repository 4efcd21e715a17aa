package history

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/alarm-history/internal/domain/history"
)

var errTestBackend = errors.New("backend unavailable")

// fakeBackend records the last filter and returns a fixed outcome.
type fakeBackend struct {
	// records is returned on success.
	records []domain.AlarmRecord

	// err, when set, is returned instead of records.
	err error

	// filter is the last filter received.
	filter domain.FetchFilter

	// actor is the last actor seen in incoming metadata.
	actor *domain.Actor
}

// FetchHistoricalAlarms captures the call and returns the configured outcome.
func (f *fakeBackend) FetchHistoricalAlarms(ctx context.Context, filter domain.FetchFilter) ([]domain.AlarmRecord, error) {
	f.filter = filter
	f.actor = IncomingActor(ctx)

	if f.err != nil {
		return nil, f.err
	}

	return f.records, nil
}

// testFilter returns a filter for a one-day window.
func testFilter() domain.FetchFilter {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	return domain.FetchFilter{
		ServicePattern: "*Service_1*",
		StartTime:      start,
		EndTime:        start.Add(24 * time.Hour),
		Scope:          domain.ScopeAlarmTable,
	}
}

// testRecords returns two records in backend order.
func testRecords() []domain.AlarmRecord {
	return []domain.AlarmRecord{
		{
			DeviceID:      346,
			AlarmID:       10021,
			ElementName:   "Encoder 01",
			ParameterName: "CPU",
			DisplayValue:  "97 %",
			CreationTime:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			Severity:      "Critical",
			Owner:         "noc",
			ServiceName:   "Service_1",
		},
		{
			DeviceID:      346,
			AlarmID:       10022,
			ElementName:   "Encoder 02",
			ParameterName: "Temperature",
			DisplayValue:  "81 C",
			CreationTime:  time.Date(2024, 1, 1, 13, 30, 0, 500, time.UTC),
			Severity:      "Major",
			ServiceName:   "Service_1",
		},
	}
}

// TestServer_Validation ensures malformed requests return InvalidArgument errors.
func TestServer_Validation(t *testing.T) {
	t.Parallel()

	s := NewServer(new(fakeBackend))

	_, err := s.FetchHistoricalAlarms(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.FetchHistoricalAlarms(context.Background(), new(structpb.Struct))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	req, err := structpb.NewStruct(map[string]any{
		"service_pattern": "*",
		"start_time":      "yesterday",
		"end_time":        "today",
	})
	require.NoError(t, err)

	_, err = s.FetchHistoricalAlarms(context.Background(), req)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_BackendError maps backend failures to Internal without leaking details.
func TestServer_BackendError(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeBackend{err: errTestBackend})

	req, err := EncodeFilter(testFilter())
	require.NoError(t, err)

	_, err = s.FetchHistoricalAlarms(context.Background(), req)
	require.Equal(t, codes.Internal, status.Code(err))
	require.NotContains(t, err.Error(), errTestBackend.Error())
}

// TestCodec_FilterAndRecords checks that filters and records survive the Struct encoding.
func TestCodec_FilterAndRecords(t *testing.T) {
	t.Parallel()

	req, err := EncodeFilter(testFilter())
	require.NoError(t, err)

	filter, err := DecodeFilter(req)
	require.NoError(t, err)
	require.Equal(t, testFilter().ServicePattern, filter.ServicePattern)
	require.True(t, testFilter().StartTime.Equal(filter.StartTime))
	require.True(t, testFilter().EndTime.Equal(filter.EndTime))
	require.Equal(t, domain.ScopeAlarmTable, filter.Scope)

	resp, err := EncodeRecords(testRecords())
	require.NoError(t, err)

	records, err := DecodeRecords(resp)
	require.NoError(t, err)
	require.Len(t, records, 2)

	for i, want := range testRecords() {
		require.Equal(t, want.Key(), records[i].Key())
		require.Equal(t, want.ElementName, records[i].ElementName)
		require.Equal(t, want.Owner, records[i].Owner)
		require.True(t, want.CreationTime.Equal(records[i].CreationTime))
	}

	empty, err := DecodeRecords(new(structpb.Struct))
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

// TestIncomingActor_Absent returns nil when no actor metadata is present.
func TestIncomingActor_Absent(t *testing.T) {
	t.Parallel()

	require.Nil(t, IncomingActor(context.Background()))

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-other", "1"))
	require.Nil(t, IncomingActor(ctx))
}

// TestService_OverConnection drives the hand-written descriptor through a real gRPC connection.
func TestService_OverConnection(t *testing.T) {
	t.Parallel()

	backend := &fakeBackend{records: testRecords()}

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterAlarmHistoryServiceServer(server, NewServer(backend))

	go func() {
		_ = server.Serve(listener)
	}()

	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() { _ = conn.Close() })

	req, err := EncodeFilter(testFilter())
	require.NoError(t, err)

	ctx := WithOutgoingActor(context.Background(), &domain.Actor{Hostname: "desk-7", Username: "o.shokin"})

	resp, err := NewAlarmHistoryServiceClient(conn).FetchHistoricalAlarms(ctx, req)
	require.NoError(t, err)

	records, err := DecodeRecords(resp)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "346/10021", records[0].Key())
	require.Equal(t, "346/10022", records[1].Key())

	require.Equal(t, "*Service_1*", backend.filter.ServicePattern)
	require.Equal(t, &domain.Actor{Hostname: "desk-7", Username: "o.shokin"}, backend.actor)
}
