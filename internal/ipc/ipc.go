// Package ipc is the local channel between the clipvault daemon and its CLI.
//
// The daemon listens on a Unix domain socket. gRPC (with a JSON codec and a
// hand-written service descriptor) and plain HTTP/1 share the socket; cmux
// splits incoming connections by protocol.
package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrAlreadyRunning is returned by Listen when another daemon answers on the
// socket.
var ErrAlreadyRunning = errors.New("clipvault daemon already running")

// SocketPath returns the path of the IPC socket:
//
//   - $CLIPVAULT_SOCKET when set
//   - $XDG_RUNTIME_DIR/clipvault.sock
//   - $TMPDIR/clipvault-<uid>.sock otherwise
func SocketPath() string {
	if s := os.Getenv("CLIPVAULT_SOCKET"); s != "" {
		return s
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "clipvault.sock")
	}
	return filepath.Join(os.TempDir(), "clipvault-"+strconv.Itoa(os.Getuid())+".sock")
}

// IsRunning reports whether a daemon appears to be listening on path. It
// does a cheap dial-and-close; no data is exchanged.
func IsRunning(path string) bool {
	c, err := net.DialTimeout("unix", path, time.Second)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a listener on path, readable only by the current user. A
// stale socket left by a crashed daemon is removed first.
func Listen(path string) (net.Listener, error) {
	if IsRunning(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrAlreadyRunning)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	_ = os.Remove(path)
	ln, err := listenUnix(path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}
	return ln, nil
}
