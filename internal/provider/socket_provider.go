package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/runger/typeahead/internal/daemon"
	"github.com/runger/typeahead/internal/transport"
)

// searchTimeout is the maximum time allowed for a single Search call,
// covering both connection establishment and the query itself. The daemon
// serves from a warm index, so this is generous.
const searchTimeout = 400 * time.Millisecond

// SocketProvider answers queries by asking the typeahead daemon over its
// Unix socket. Each call opens a fresh connection; the daemon protocol is
// one NDJSON request line, one NDJSON response line.
type SocketProvider struct {
	transport transport.Transport
}

// Compile-time check that SocketProvider implements Provider.
var _ Provider = (*SocketProvider)(nil)

// NewSocketProvider creates a provider that connects to the daemon socket.
// If socketPath is empty the platform default is used.
func NewSocketProvider(socketPath string) *SocketProvider {
	return &SocketProvider{transport: transport.New(socketPath)}
}

// Search implements Provider.
func (p *SocketProvider) Search(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	conn, err := p.transport.Dial(searchTimeout)
	if err != nil {
		return Response{}, fmt.Errorf("socket provider: dial: %w", err)
	}
	defer conn.Close()

	// Unblock the blocking reads below if the pipeline cancels this
	// search mid-flight.
	watchdog := make(chan struct{})
	defer close(watchdog)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchdog:
		}
	}()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	wireReq := daemon.QueryRequest{
		Version:   daemon.WireVersion,
		RequestID: req.RequestID,
		Query:     req.Query,
		Limit:     req.Limit,
	}
	if err := json.NewEncoder(conn).Encode(&wireReq); err != nil {
		return Response{}, fmt.Errorf("socket provider: write: %w", err)
	}

	var wireResp daemon.QueryResponse
	if err := json.NewDecoder(conn).Decode(&wireResp); err != nil {
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		return Response{}, fmt.Errorf("socket provider: read: %w", err)
	}

	if wireResp.Err != "" {
		return Response{}, fmt.Errorf("socket provider: %s", wireResp.Err)
	}

	return Response{
		RequestID: req.RequestID,
		Hits:      wireResp.Hits,
	}, nil
}
