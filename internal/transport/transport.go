// Package transport provides IPC transport abstractions for the typeahead
// daemon. It supports Unix domain sockets on macOS/Linux; Windows named
// pipes are stubbed.
package transport

import (
	"net"
	"time"
)

// Transport defines the interface for daemon IPC communication.
type Transport interface {
	// Listen creates and returns a listener for the transport. The
	// implementation is responsible for creating any necessary directories
	// and cleaning up stale sockets.
	Listen() (net.Listener, error)

	// Dial connects to the transport with the specified timeout.
	Dial(timeout time.Duration) (net.Conn, error)

	// Close releases any resources held by the transport, including
	// removing socket files on Unix systems.
	Close() error

	// SocketPath returns the path to the socket file or pipe name.
	SocketPath() string
}
