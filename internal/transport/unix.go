//go:build !windows

package transport

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// UnixTransport implements Transport using Unix domain sockets.
type UnixTransport struct {
	socketPath string
	listener   net.Listener
	mu         sync.Mutex
}

// NewUnixTransport creates a new Unix socket transport. If socketPath is
// empty, the default path resolution is used:
//  1. $XDG_RUNTIME_DIR/typeahead/daemon.sock (preferred)
//  2. $TMPDIR/typeahead-$UID/daemon.sock
//  3. /tmp/typeahead-$UID/daemon.sock (fallback)
func NewUnixTransport(socketPath string) *UnixTransport {
	if socketPath == "" {
		socketPath = DefaultSocketPath()
	}
	return &UnixTransport{socketPath: socketPath}
}

// DefaultSocketPath returns the default socket path following XDG and
// security conventions.
func DefaultSocketPath() string {
	if xdgRuntime := os.Getenv("XDG_RUNTIME_DIR"); xdgRuntime != "" {
		return filepath.Join(xdgRuntime, "typeahead", "daemon.sock")
	}

	uid := strconv.Itoa(os.Getuid())

	if tmpdir := os.Getenv("TMPDIR"); tmpdir != "" {
		return filepath.Join(tmpdir, "typeahead-"+uid, "daemon.sock")
	}

	return filepath.Join("/tmp", "typeahead-"+uid, "daemon.sock")
}

// Listen creates and returns a listener for the Unix socket. It ensures
// the parent directory exists with 0700 permissions and cleans up any
// stale socket file before listening.
func (t *UnixTransport) Listen() (net.Listener, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	dir := filepath.Dir(t.socketPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}

	if err := t.cleanupStaleSocket(); err != nil {
		return nil, fmt.Errorf("failed to cleanup stale socket: %w", err)
	}

	listener, err := net.Listen("unix", t.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on socket: %w", err)
	}

	if err := os.Chmod(t.socketPath, 0600); err != nil {
		listener.Close()
		os.Remove(t.socketPath)
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}

	t.listener = listener
	return listener, nil
}

// cleanupStaleSocket removes a socket file if it exists and is not
// responsive. This handles the case where a previous daemon crashed
// without cleanup.
func (t *UnixTransport) cleanupStaleSocket() error {
	_, err := os.Stat(t.socketPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat socket: %w", err)
	}

	conn, err := net.DialTimeout("unix", t.socketPath, 100*time.Millisecond)
	if err == nil {
		conn.Close()
		return fmt.Errorf("socket is active (another daemon may be running)")
	}

	if err := os.Remove(t.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}

	return nil
}

// Dial connects to the Unix socket with the specified timeout.
func (t *UnixTransport) Dial(timeout time.Duration) (net.Conn, error) {
	if _, err := os.Stat(t.socketPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("socket not found: %s", t.socketPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", t.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to socket: %w", err)
	}

	return conn, nil
}

// Close releases resources and removes the socket file.
func (t *UnixTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var errs []error

	if t.listener != nil {
		if err := t.listener.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close listener: %w", err))
		}
		t.listener = nil
	}

	if err := os.Remove(t.socketPath); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove socket: %w", err))
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// SocketPath returns the socket file path.
func (t *UnixTransport) SocketPath() string {
	return t.socketPath
}

// New returns the platform transport for the given socket path.
func New(socketPath string) Transport {
	return NewUnixTransport(socketPath)
}
