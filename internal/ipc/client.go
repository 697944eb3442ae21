package ipc

import (
	"context"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

const dialTimeout = 2 * time.Second

// Client provides RPC access to a host socket.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(ctx context.Context, path string) (*Client, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, client: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Eval sends a script and waits for the reply or for ctx to end. When ctx ends
// first the connection is closed, which abandons the call on both sides.
func (c *Client) Eval(ctx context.Context, req EvalRequest) (string, error) {
	var resp EvalResponse
	call := c.client.Go(ServiceName+".Eval", req, &resp, make(chan *rpc.Call, 1))
	select {
	case <-call.Done:
		if call.Error != nil {
			return "", fmt.Errorf("host eval: %w", call.Error)
		}
		return resp.Reply, nil
	case <-ctx.Done():
		_ = c.Close()
		return "", ctx.Err()
	}
}
