package grpc

import (
	"context"
	"fmt"
	"time"

	core "logshelf/ingestion/service/core"
	"logshelf/internal/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote LogStore service
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to addr without transport security. Extra options are
// appended after the default credentials.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client for '%s': %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// StoreLogs asks the server to run one ingestion pass
func (c *Client) StoreLogs(ctx context.Context) (*core.IngestResult, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, storeLogsMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}

	f := out.GetFields()
	return &core.IngestResult{
		PassID:              f["pass_id"].GetStringValue(),
		Stored:              int64(f["stored"].GetNumberValue()),
		Lines:               int(f["lines"].GetNumberValue()),
		MalformedTimestamps: int(f["malformed_timestamps"].GetNumberValue()),
		DroppedLines:        int(f["dropped_lines"].GetNumberValue()),
		Queued:              int(f["queued"].GetNumberValue()),
		Duration:            time.Duration(f["duration_ms"].GetNumberValue()) * time.Millisecond,
	}, nil
}

// ListLogs fetches every stored record
func (c *Client) ListLogs(ctx context.Context) ([]models.LogRecord, error) {
	out := new(structpb.ListValue)
	if err := c.conn.Invoke(ctx, listLogsMethod, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}

	records := make([]models.LogRecord, 0, len(out.GetValues()))
	for i, v := range out.GetValues() {
		rec, err := recordFromValue(v)
		if err != nil {
			return nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close releases the connection
func (c *Client) Close() error {
	return c.conn.Close()
}
