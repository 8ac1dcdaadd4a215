package statsd

//go:generate mockgen -source=transport.go -destination=mocks/transport.go

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Address prefixes understood by New. A bare "host:port" is treated as UDP.
const (
	// UDPAddressPrefix marks an explicit UDP address.
	UDPAddressPrefix = "udp://"
	// UnixAddressPrefix marks a Unix domain socket path. The socket type is
	// probed on first write, datagram first.
	UnixAddressPrefix = "unix://"
	// UnixgramAddressPrefix marks a Unix datagram socket path.
	UnixgramAddressPrefix = "unixgram://"
	// WindowsPipeAddressPrefix marks a Windows named pipe path.
	WindowsPipeAddressPrefix = `\\.\pipe\`
	// StdoutAddressPrefix marks the debug writer which prints lines to
	// standard output instead of the network.
	StdoutAddressPrefix = "stdout://"
)

// A lineWriter delivers one encoded line per Write call. Writes are
// synchronous and happen only from the drain goroutine; implementations do
// not need to be safe for concurrent Write.
type lineWriter interface {
	Write(data []byte) (n int, err error)
	Close() error
}

// resolveWriter picks the transport for an address. A writer installed via
// WithWriter wins over any address.
func resolveWriter(addr string, o *Options) (lineWriter, error) {
	switch {
	case o.Writer != nil:
		return o.Writer, nil
	case strings.HasPrefix(addr, WindowsPipeAddressPrefix):
		return newPipeWriter(addr)
	case strings.HasPrefix(addr, UnixgramAddressPrefix):
		return newUDSWriter(addr[len(UnixgramAddressPrefix):], o.WriteTimeout, "unixgram")
	case strings.HasPrefix(addr, UnixAddressPrefix):
		return newUDSWriter(addr[len(UnixAddressPrefix):], o.WriteTimeout, "")
	case strings.HasPrefix(addr, StdoutAddressPrefix):
		return newStdOutWriter(addr[len(StdoutAddressPrefix):])
	case strings.HasPrefix(addr, UDPAddressPrefix):
		return newUDPWriter(addr[len(UDPAddressPrefix):])
	default:
		return newUDPWriter(addr)
	}
}

// ConnState is the lifecycle state of a registry's connection.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
	StateDisposed
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisposed:
		return "disposed"
	default:
		return "invalid"
	}
}

// swapCell holds the teardown of at most one live resource. replace installs
// a new teardown and runs the previous one; close runs the current teardown
// and makes the cell terminal, so a resource installed afterwards (a dial
// that finished after Close) is torn down on arrival. Each teardown runs
// exactly once.
type swapCell struct {
	mu       sync.Mutex
	teardown func()
	closed   bool
}

func (c *swapCell) replace(next func()) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		if next != nil {
			next()
		}
		return false
	}
	old := c.teardown
	c.teardown = next
	c.mu.Unlock()

	if old != nil {
		old()
	}
	return true
}

func (c *swapCell) close() {
	c.mu.Lock()
	old := c.teardown
	c.teardown = nil
	c.closed = true
	c.mu.Unlock()

	if old != nil {
		old()
	}
}

// drain moves lines from the publish queue to the writer, one write per
// line, until stopped. Write errors are counted and logged, then the loop
// keeps going; a lossy transport is expected here.
type drain struct {
	writer lineWriter
	queue  *publishQueue
	tel    *telemetry
	logger *zap.Logger
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newDrain(writer lineWriter, queue *publishQueue, tel *telemetry, logger *zap.Logger) *drain {
	d := &drain{
		writer: writer,
		queue:  queue,
		tel:    tel,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *drain) loop() {
	defer close(d.done)
	for {
		line, ok := d.queue.next(d.stop)
		if !ok {
			return
		}
		d.send(line)
	}
}

func (d *drain) send(line string) {
	if _, err := d.writer.Write([]byte(line)); err != nil {
		d.tel.sendErrors.Add(1)
		d.logger.Warn("statsd: send failed", zap.Error(err))
	} else {
		d.tel.datagramsSent.Add(1)
	}
}

// close stops the loop, waits for it to exit, flushes whatever is still
// queued and closes the writer.
func (d *drain) close() {
	d.once.Do(func() {
		close(d.stop)
		<-d.done
		for {
			line, ok := d.queue.pop()
			if !ok {
				break
			}
			d.send(line)
		}
		if err := d.writer.Close(); err != nil {
			d.logger.Debug("statsd: writer close failed", zap.Error(err))
		}
	})
}
