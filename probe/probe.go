// Package probe provides loopback port allocation and TCP readiness polling
// for the server under test.
package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const (
	connectTimeout = 500 * time.Millisecond
	pollInterval   = 50 * time.Millisecond
)

// FreePort asks the kernel for an unused TCP port on the loopback interface.
// The listening socket is released before returning, so the port is free for
// the server to bind.
func FreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, errors.Wrap(err, "allocating ephemeral port")
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// WaitForListen polls 127.0.0.1:port with short-lived connects until one
// succeeds or the timeout elapses. It returns true as soon as a connection
// is accepted. Note this only confirms the server accepts TCP connections,
// not that its own initialization has finished.
func WaitForListen(ctx context.Context, port int, timeout time.Duration) bool {
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, connectTimeout)
		if err == nil {
			conn.Close()
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(pollInterval):
		}
	}
	return false
}
