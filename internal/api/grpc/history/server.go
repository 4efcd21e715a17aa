package history

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	domain "github.com/oshokin/alarm-history/internal/domain/history"
	"github.com/oshokin/alarm-history/internal/logger"
)

// Server implements the AlarmHistoryService gRPC API.
type Server struct {
	// backend answers historical alarm queries.
	backend domain.Backend
}

var _ AlarmHistoryServiceServer = (*Server)(nil)

// NewServer wires the provided backend into a gRPC handler.
func NewServer(backend domain.Backend) *Server {
	return &Server{
		backend: backend,
	}
}

// FetchHistoricalAlarms decodes the filter, queries the backend and encodes
// the matching records.
func (s *Server) FetchHistoricalAlarms(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	filter, err := DecodeFilter(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}

	ctx = logger.WithKV(ctx, "actor", IncomingActor(ctx).String())

	records, err := s.backend.FetchHistoricalAlarms(ctx, filter)
	if err != nil {
		logger.ErrorKV(ctx, "Unable to fetch alarms", "error", err)

		return nil, status.Error(codes.Internal, "unable to fetch alarms")
	}

	resp, err := EncodeRecords(records)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode alarms")
	}

	return resp, nil
}
