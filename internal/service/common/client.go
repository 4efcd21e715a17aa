//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	api "github.com/oshokin/alarm-history/internal/api/grpc/history"
	"github.com/oshokin/alarm-history/internal/domain/history"
)

// Client is a history.Backend served by a remote alarm history server.
type Client struct {
	// conn is the underlying gRPC connection to the alarm history server.
	conn *grpc.ClientConn
	// api is the AlarmHistoryService client bound to conn.
	api api.AlarmHistoryServiceClient

	// actor identifies the caller in request metadata, if known.
	actor *history.Actor

	// callTimeout bounds individual RPC calls; zero means no deadline.
	callTimeout time.Duration
}

var _ history.Backend = (*Client)(nil)

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor attaches the requesting actor to every call.
func WithActor(actor *history.Actor) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the alarm history server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial alarm history server: %w", err)
	}

	client := &Client{
		conn: conn,
		api:  api.NewAlarmHistoryServiceClient(conn),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// FetchHistoricalAlarms asks the server for the alarms matching filter.
func (c *Client) FetchHistoricalAlarms(ctx context.Context, filter history.FetchFilter) ([]history.AlarmRecord, error) {
	req, err := api.EncodeFilter(filter)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := c.callContext(api.WithOutgoingActor(ctx, c.actor))
	defer cancel()

	resp, err := c.api.FetchHistoricalAlarms(callCtx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch historical alarms: %w", err)
	}

	records, err := api.DecodeRecords(resp)
	if err != nil {
		return nil, fmt.Errorf("decode historical alarms: %w", err)
	}

	return records, nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
