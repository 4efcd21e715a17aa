package history

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "alarmhistory.v1.AlarmHistoryService"
	// FetchHistoricalAlarmsMethod is the full method name of the single RPC.
	FetchHistoricalAlarmsMethod = "/" + ServiceName + "/FetchHistoricalAlarms"
)

// AlarmHistoryServiceServer is the server API of the alarm history service.
// Requests and responses are protobuf Structs; see EncodeFilter and
// EncodeRecords for their layout.
type AlarmHistoryServiceServer interface {
	FetchHistoricalAlarms(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAlarmHistoryServiceServer registers srv on the gRPC registrar.
func RegisterAlarmHistoryServiceServer(registrar grpc.ServiceRegistrar, srv AlarmHistoryServiceServer) {
	registrar.RegisterService(&serviceDesc, srv)
}

// serviceDesc describes the alarm history service to the gRPC runtime.
//
//nolint:gochecknoglobals // gRPC keeps a pointer to the descriptor.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlarmHistoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "FetchHistoricalAlarms",
			Handler:    fetchHistoricalAlarmsHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "alarmhistory/v1/alarm_history.proto",
}

// fetchHistoricalAlarmsHandler decodes the request and dispatches it through
// the optional unary interceptor.
func fetchHistoricalAlarmsHandler(
	srv any,
	ctx context.Context, //nolint:revive // Signature is fixed by grpc.MethodHandler.
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	server, _ := srv.(AlarmHistoryServiceServer)

	if interceptor == nil {
		return server.FetchHistoricalAlarms(ctx, in)
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: FetchHistoricalAlarmsMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		request, _ := req.(*structpb.Struct)

		return server.FetchHistoricalAlarms(ctx, request)
	}

	return interceptor(ctx, in, info, handler)
}

// AlarmHistoryServiceClient is the client API of the alarm history service.
type AlarmHistoryServiceClient interface {
	FetchHistoricalAlarms(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type alarmHistoryServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAlarmHistoryServiceClient returns a client bound to the connection.
func NewAlarmHistoryServiceClient(cc grpc.ClientConnInterface) AlarmHistoryServiceClient {
	return &alarmHistoryServiceClient{cc: cc}
}

func (c *alarmHistoryServiceClient) FetchHistoricalAlarms(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FetchHistoricalAlarmsMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
