package probe

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreePort(t *testing.T) {
	port, err := FreePort()
	require.NoError(t, err)
	require.Greater(t, port, 0)

	// The port must be free for the caller to bind.
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	require.NoError(t, l.Close())
}

func TestFreePortDistinctAcrossListeners(t *testing.T) {
	p1, err := FreePort()
	require.NoError(t, err)

	// Hold the first port so a second allocation cannot reuse it.
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", p1))
	require.NoError(t, err)
	defer l.Close()

	p2, err := FreePort()
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)
}

func TestWaitForListenSucceedsWithListener(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	ok := WaitForListen(context.Background(), port, 5*time.Second)
	assert.True(t, ok)
}

func TestWaitForListenTimesOutWithoutListener(t *testing.T) {
	port, err := FreePort()
	require.NoError(t, err)

	timeout := 300 * time.Millisecond
	start := time.Now()
	ok := WaitForListen(context.Background(), port, timeout)
	elapsed := time.Since(start)

	assert.False(t, ok)
	// The deadline must be respected within polling granularity.
	assert.GreaterOrEqual(t, elapsed, timeout-pollInterval)
	assert.Less(t, elapsed, timeout+time.Second)
}

func TestWaitForListenHonorsContextCancellation(t *testing.T) {
	port, err := FreePort()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	ok := WaitForListen(ctx, port, 10*time.Second)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestWaitForListenLateListener(t *testing.T) {
	port, err := FreePort()
	require.NoError(t, err)

	go func() {
		time.Sleep(200 * time.Millisecond)
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			return
		}
		time.Sleep(3 * time.Second)
		l.Close()
	}()

	ok := WaitForListen(context.Background(), port, 5*time.Second)
	assert.True(t, ok)
}
