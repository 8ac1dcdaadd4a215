package statsd

import (
	"math"
	"sync/atomic"
)

// Gauge is a pull meter: the registered function is sampled on every poll
// tick while the registry is connected. By default a poll that reads the
// same value as the previous publication is suppressed; WithPublishUnchanged
// turns every tick into a line.
type Gauge struct {
	fn   func() float64
	line *lineBuilder
	reg  *Registry

	publishUnchanged bool
	last             atomic.Uint64
}

func newGauge(reg *Registry, line *lineBuilder, fn func() float64) *Gauge {
	g := &Gauge{
		fn:               fn,
		line:             line,
		reg:              reg,
		publishUnchanged: reg.opts.PublishUnchanged,
	}
	storeFloat64(&g.last, math.NaN())
	return g
}

// Value samples the gauge function directly.
func (g *Gauge) Value() float64 {
	return g.fn()
}

func (g *Gauge) poll() {
	v := g.fn()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	if !g.publishUnchanged && v == loadFloat64(&g.last) {
		return
	}
	storeFloat64(&g.last, v)
	g.reg.publish(g.line.gauge(v))
}
