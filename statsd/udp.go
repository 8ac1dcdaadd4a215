package statsd

import "net"

// udpWriter sends each line as one UDP datagram. The address is resolved
// and the socket connected when the writer is created, so a bad address
// surfaces as a connect failure instead of per-line errors.
type udpWriter struct {
	conn net.Conn
}

func newUDPWriter(addr string) (*udpWriter, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}
	return &udpWriter{conn: conn}, nil
}

func (w *udpWriter) Write(data []byte) (int, error) {
	return w.conn.Write(data)
}

func (w *udpWriter) Close() error {
	return w.conn.Close()
}
