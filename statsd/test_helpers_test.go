package statsd

import (
	"io"
	"net"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// float64Value drives gauge functions from tests without races.
type float64Value struct {
	bits atomic.Uint64
}

func (v *float64Value) store(f float64) { storeFloat64(&v.bits, f) }
func (v *float64Value) load() float64   { return loadFloat64(&v.bits) }

// manualClock lets tests drive timers and step windows deterministically.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Unix(1700000000, 0)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// newTestRegistry returns an unstarted registry. Published lines pile up in
// the queue where drainLines reads them back, no socket involved.
func newTestRegistry(t *testing.T, options ...Option) *Registry {
	t.Helper()
	reg, err := New("127.0.0.1:8125", options...)
	require.NoError(t, err)
	return reg
}

func drainLines(reg *Registry) []string {
	var lines []string
	for {
		line, ok := reg.queue.pop()
		if !ok {
			return lines
		}
		lines = append(lines, line)
	}
}

// testServer acts as a fake collector and keeps track of every line a
// registry sent to it, for end-to-end testing over a real socket.
type testServer struct {
	sync.Mutex

	conn io.ReadCloser
	data []string
	addr string
}

func newUDPTestServer(t *testing.T) *testServer {
	udpAddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err)
	conn, err := net.ListenUDP("udp", udpAddr)
	require.NoError(t, err)

	ts := &testServer{conn: conn, addr: conn.LocalAddr().String()}
	go ts.start()
	return ts
}

// newRegistryAndServer returns a started registry wired to a fake UDP
// collector. The registry is connected by the time this returns.
func newRegistryAndServer(t *testing.T, options ...Option) (*testServer, *Registry) {
	ts := newUDPTestServer(t)

	reg, err := New(ts.addr, options...)
	require.NoError(t, err)
	require.NoError(t, reg.Start())
	waitForState(t, reg, StateConnected)

	t.Cleanup(func() {
		reg.Close()
		ts.close()
	})
	return ts, reg
}

func waitForState(t *testing.T, reg *Registry, want ConnState) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for reg.State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("registry stuck in state %q waiting for %q", reg.State(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (ts *testServer) start() {
	buffer := make([]byte, 2048)
	for {
		n, err := ts.conn.Read(buffer)
		if err != nil {
			// connection has been closed
			return
		}
		ts.Lock()
		for _, s := range strings.Split(string(buffer[:n]), "\n") {
			if s != "" {
				ts.data = append(ts.data, s)
			}
		}
		ts.Unlock()
	}
}

func (ts *testServer) close() {
	ts.conn.Close()
}

func (ts *testServer) getData() []string {
	ts.Lock()
	defer ts.Unlock()

	data := make([]string, len(ts.data))
	copy(data, ts.data)
	sort.Strings(data)
	return data
}

func (ts *testServer) count() int {
	ts.Lock()
	defer ts.Unlock()
	return len(ts.data)
}

// wait blocks until at least n lines arrived or the timeout elapsed.
func (ts *testServer) wait(t *testing.T, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for ts.count() < n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d lines within %s, got %d: %v", n, timeout, ts.count(), ts.getData())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (ts *testServer) assertReceived(t *testing.T, expected []string) {
	t.Helper()
	sort.Strings(expected)
	assert.Equal(t, expected, ts.getData())
}
