package rpc

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

const dialTimeout = 10 * time.Second

// Connection manages one gRPC channel to an Arvak endpoint. The generated
// service stubs are constructed over Conn() by the caller; this client only
// owns the channel lifecycle.
type Connection struct {
	endpoint string
	conn     *grpc.ClientConn
}

// Dial connects to the given endpoint. https:// or :443 endpoints get TLS,
// everything else dials insecurely with the scheme stripped.
func Dial(ctx context.Context, endpoint string) (*Connection, error) {
	target := endpoint
	var opts []grpc.DialOption

	if strings.HasPrefix(endpoint, "https://") || strings.HasSuffix(endpoint, ":443") {
		creds := credentials.NewTLS(&tls.Config{})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		target = strings.TrimPrefix(target, "https://")
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		target = strings.TrimPrefix(target, "http://")
	}

	opts = append(opts, grpc.WithBlock())

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, err := grpc.DialContext(dialCtx, target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial grpc endpoint %s: %w", target, err)
	}

	return &Connection{endpoint: endpoint, conn: conn}, nil
}

// DialWith connects using caller-supplied dial options, for tests and
// custom transports (in-memory listeners, extra interceptors).
func DialWith(ctx context.Context, target string, opts ...grpc.DialOption) (*Connection, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, err := grpc.DialContext(dialCtx, target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial grpc endpoint %s: %w", target, err)
	}
	return &Connection{endpoint: target, conn: conn}, nil
}

// Endpoint returns the configured endpoint string.
func (c *Connection) Endpoint() string { return c.endpoint }

// Conn returns the underlying gRPC channel for use by generated clients.
func (c *Connection) Conn() *grpc.ClientConn { return c.conn }

// Close tears down the channel.
func (c *Connection) Close() error { return c.conn.Close() }
