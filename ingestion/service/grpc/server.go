package grpc

import (
	"context"
	"errors"
	"log"
	"time"

	core "logshelf/ingestion/service/core"
	"logshelf/internal/models"
	"logshelf/storage/store"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "logshelf.v1.LogStore"

const (
	storeLogsMethod = "/" + ServiceName + "/StoreLogs"
	listLogsMethod  = "/" + ServiceName + "/ListLogs"
)

// LogStoreServer is the server API of the LogStore service. Messages are
// protobuf well-known types, so no generated code is needed.
type LogStoreServer interface {
	StoreLogs(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListLogs(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
}

// ServiceDesc describes the LogStore service for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LogStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StoreLogs", Handler: storeLogsHandler},
		{MethodName: "ListLogs", Handler: listLogsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "logshelf/v1/logstore",
}

func storeLogsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LogStoreServer).StoreLogs(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: storeLogsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LogStoreServer).StoreLogs(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func listLogsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LogStoreServer).ListLogs(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: listLogsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LogStoreServer).ListLogs(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// Server implements the LogStoreServer interface
type Server struct {
	svc    *core.Service
	logger *log.Logger
}

// NewServer creates a new gRPC Server instance
func NewServer(s *core.Service, l *log.Logger) *Server {
	return &Server{svc: s, logger: l}
}

// Register attaches the LogStore service to s
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(&ServiceDesc, s)
}

// StoreLogs runs one ingestion pass
func (s *Server) StoreLogs(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	s.logger.Println("gRPC Server: Received StoreLogs request")

	result, err := s.svc.StoreLogs(ctx)
	if err != nil {
		s.logger.Printf("gRPC Server: Service layer error: %v", err)
		return nil, toStatus(err)
	}

	resp, err := structpb.NewStruct(map[string]interface{}{
		"pass_id":              result.PassID,
		"stored":               result.Stored,
		"lines":                result.Lines,
		"malformed_timestamps": result.MalformedTimestamps,
		"dropped_lines":        result.DroppedLines,
		"queued":               result.Queued,
		"duration_ms":          result.Duration.Milliseconds(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode result: %v", err)
	}

	s.logger.Printf("gRPC Server: Pass %s stored %d records", result.PassID, result.Stored)
	return resp, nil
}

// ListLogs returns every stored record
func (s *Server) ListLogs(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	records, err := s.svc.ListLogs(ctx)
	if err != nil {
		s.logger.Printf("gRPC Server: Service layer error: %v", err)
		return nil, toStatus(err)
	}

	values := make([]*structpb.Value, 0, len(records))
	for _, rec := range records {
		values = append(values, structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				"timestamp": structpb.NewStringValue(rec.Timestamp.UTC().Format(time.RFC3339Nano)),
				"severity":  structpb.NewStringValue(rec.Severity),
				"logger":    structpb.NewStringValue(rec.Logger),
				"message":   structpb.NewStringValue(rec.Message),
			},
		}))
	}
	return &structpb.ListValue{Values: values}, nil
}

// toStatus maps service errors to gRPC status codes
func toStatus(err error) error {
	switch {
	case errors.Is(err, store.ErrPersistence):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// recordFromValue decodes one ListLogs element
func recordFromValue(v *structpb.Value) (models.LogRecord, error) {
	fields := v.GetStructValue().GetFields()
	ts, err := time.Parse(time.RFC3339Nano, fields["timestamp"].GetStringValue())
	if err != nil {
		return models.LogRecord{}, err
	}
	return models.LogRecord{
		Timestamp: ts.UTC(),
		Severity:  fields["severity"].GetStringValue(),
		Logger:    fields["logger"].GetStringValue(),
		Message:   fields["message"].GetStringValue(),
	}, nil
}

// Ensure Server implements the interface (compile-time check)
var _ LogStoreServer = (*Server)(nil)
