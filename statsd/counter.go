package statsd

import (
	"math"
	"sync/atomic"
)

// Counter is a push meter: every positive increment goes out immediately as
// a count line. Calls never block, whatever the state of the connection.
type Counter struct {
	count atomic.Uint64
	line  *lineBuilder
	reg   *Registry
}

func newCounter(reg *Registry, line *lineBuilder) *Counter {
	return &Counter{line: line, reg: reg}
}

// Increment adds one to the counter.
func (c *Counter) Increment() {
	c.Add(1)
}

// Add increments the counter by v. Counters are monotone, zero, negative and
// non-finite amounts are ignored.
func (c *Counter) Add(v float64) {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	addFloat64(&c.count, v)
	c.reg.publish(c.line.count(v, 1))
}

// Count returns the total amount accumulated since creation.
func (c *Counter) Count() float64 {
	return loadFloat64(&c.count)
}
