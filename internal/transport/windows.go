//go:build windows

package transport

import (
	"errors"
	"fmt"
	"net"
	"os/user"
	"time"
)

// ErrNotImplemented is returned when Windows named pipe support is not yet
// implemented.
var ErrNotImplemented = errors.New("windows named pipe transport not implemented")

// WindowsTransport implements Transport using Windows named pipes. This is
// currently a stub implementation that returns ErrNotImplemented.
type WindowsTransport struct {
	pipePath string
}

// NewWindowsTransport creates a new Windows named pipe transport. If
// pipePath is empty, the default path is \\.\pipe\typeahead-<SID>-daemon.
func NewWindowsTransport(pipePath string) *WindowsTransport {
	if pipePath == "" {
		pipePath = DefaultSocketPath()
	}
	return &WindowsTransport{pipePath: pipePath}
}

// DefaultSocketPath returns the default named pipe path for the current user.
func DefaultSocketPath() string {
	sid := "unknown"
	if u, err := user.Current(); err == nil {
		// On Windows, u.Uid contains the SID.
		sid = u.Uid
	}
	return fmt.Sprintf(`\\.\pipe\typeahead-%s-daemon`, sid)
}

// Listen returns ErrNotImplemented.
func (t *WindowsTransport) Listen() (net.Listener, error) {
	return nil, ErrNotImplemented
}

// Dial returns ErrNotImplemented.
func (t *WindowsTransport) Dial(timeout time.Duration) (net.Conn, error) {
	return nil, ErrNotImplemented
}

// Close is a no-op for the stub.
func (t *WindowsTransport) Close() error {
	return nil
}

// SocketPath returns the named pipe path.
func (t *WindowsTransport) SocketPath() string {
	return t.pipePath
}

// New returns the platform transport for the given socket path.
func New(socketPath string) Transport {
	return NewWindowsTransport(socketPath)
}
