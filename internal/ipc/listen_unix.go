//go:build unix

package ipc

import (
	"net"
	"sync"
	"syscall"
)

// umaskMu serialises umask changes made while binding.
var umaskMu sync.Mutex

// listenUnix binds path with a umask that leaves the socket inaccessible to
// group and others from the moment it exists.
func listenUnix(path string) (net.Listener, error) {
	umaskMu.Lock()
	defer umaskMu.Unlock()
	old := syscall.Umask(0o077)
	defer syscall.Umask(old)
	return net.Listen("unix", path)
}
