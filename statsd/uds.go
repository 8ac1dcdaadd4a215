//go:build !windows

package statsd

import (
	"net"
	"strings"
	"sync"
	"time"
)

// udsWriter sends lines over a Unix domain socket. The connection is opened
// lazily on the first write and dropped on a hard error, so a collector
// restart only costs the lines sent while its socket was gone.
type udsWriter struct {
	// Socket path, kept to allow reconnection on error.
	addr string
	// "unixgram", "unix", or empty to probe datagram first.
	transport    string
	conn         net.Conn
	writeTimeout time.Duration
	sync.RWMutex // guards conn replacement
}

func newUDSWriter(addr string, writeTimeout time.Duration, transport string) (*udsWriter, error) {
	// Defer connection to first Write.
	return &udsWriter{addr: addr, transport: transport, conn: nil, writeTimeout: writeTimeout}, nil
}

func (w *udsWriter) Write(data []byte) (int, error) {
	conn, err := w.ensureConnection()
	if err != nil {
		return 0, err
	}

	conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))

	var n int
	if w.streaming() {
		// Stream sockets carry newline-delimited lines.
		n, err = w.writeFull(conn, append(data, '\n'))
	} else {
		n, err = conn.Write(data)
	}

	if w.shouldCloseConnection(err) {
		w.unsetConnection()
	}
	return n, err
}

func (w *udsWriter) Close() error {
	w.Lock()
	defer w.Unlock()
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}

func (w *udsWriter) streaming() bool {
	w.RLock()
	defer w.RUnlock()
	return w.transport == "unix"
}

// writeFull keeps writing on timeouts, a stream write may have landed a
// partial line.
func (w *udsWriter) writeFull(conn net.Conn, data []byte) (int, error) {
	written := 0
	for written < len(data) {
		n, err := conn.Write(data[written:])
		written += n
		if err != nil && !w.retryOnWriteErr(err) {
			return written, err
		}
	}
	return written, nil
}

func (w *udsWriter) retryOnWriteErr(err error) bool {
	if err == nil {
		return true
	}
	if networkError, ok := err.(net.Error); ok && networkError.Timeout() {
		return true
	}
	return false
}

func (w *udsWriter) shouldCloseConnection(err error) bool {
	if err, isNetworkErr := err.(net.Error); err != nil && (!isNetworkErr || !err.Temporary()) {
		// Collector went away, reconnect on the next line.
		return true
	}
	return false
}

func (w *udsWriter) ensureConnection() (net.Conn, error) {
	w.RLock()
	currentConn := w.conn
	w.RUnlock()

	if currentConn != nil {
		return currentConn, nil
	}

	w.Lock()
	defer w.Unlock()
	if w.conn != nil {
		return w.conn, nil
	}

	var newConn net.Conn
	var err error

	if w.transport == "" {
		newConn, err = w.dial("unixgram")
		// The socket may be a stream socket, try again with "unix".
		if err != nil && strings.Contains(err.Error(), "protocol wrong type for socket") {
			newConn, err = w.dial("unix")
		}
	} else {
		newConn, err = w.dial(w.transport)
	}

	if err != nil {
		return nil, err
	}
	w.conn = newConn
	w.transport = newConn.RemoteAddr().Network()
	return newConn, nil
}

func (w *udsWriter) dial(network string) (net.Conn, error) {
	udsAddr, err := net.ResolveUnixAddr(network, w.addr)
	if err != nil {
		return nil, err
	}
	return net.Dial(udsAddr.Network(), udsAddr.String())
}

func (w *udsWriter) unsetConnection() {
	w.Lock()
	defer w.Unlock()
	w.conn = nil
}
