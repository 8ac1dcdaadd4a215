package statsd

import "sync/atomic"

// Telemetry is a snapshot of the registry's own counters since it was
// created.
type Telemetry struct {
	// LinesPublished counts lines accepted into the publish queue.
	LinesPublished uint64
	// LinesDropped counts updates refused before the queue, today these are
	// values with no protocol representation (NaN, infinities).
	LinesDropped uint64
	// DatagramsSent counts successful writes to the transport.
	DatagramsSent uint64
	// SendErrors counts failed writes. The drain keeps going after each one.
	SendErrors uint64
	// PollTicks counts completed poll passes over the pull-based meters.
	PollTicks uint64
}

type telemetry struct {
	linesPublished atomic.Uint64
	linesDropped   atomic.Uint64
	datagramsSent  atomic.Uint64
	sendErrors     atomic.Uint64
	pollTicks      atomic.Uint64
}

func (t *telemetry) snapshot() Telemetry {
	return Telemetry{
		LinesPublished: t.linesPublished.Load(),
		LinesDropped:   t.linesDropped.Load(),
		DatagramsSent:  t.datagramsSent.Load(),
		SendErrors:     t.sendErrors.Load(),
		PollTicks:      t.pollTicks.Load(),
	}
}
