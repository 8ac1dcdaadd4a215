package statsd

import "math"

// CustomMeter is a pull meter assembled from caller-supplied measurements.
// Each poll tick samples every measurement and publishes its raw value as a
// count or gauge line depending on the measurement's statistic, with a
// statistic tag telling the series apart.
type CustomMeter struct {
	reg          *Registry
	measurements []customMeasurement
}

type customMeasurement struct {
	value   func() float64
	line    *lineBuilder
	counter bool
}

func newCustomMeter(reg *Registry, measurements []customMeasurement) *CustomMeter {
	return &CustomMeter{reg: reg, measurements: measurements}
}

func (m *CustomMeter) poll() {
	for i := range m.measurements {
		c := &m.measurements[i]
		v := c.value()
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if c.counter {
			m.reg.publish(c.line.count(v, 1))
		} else {
			m.reg.publish(c.line.gauge(v))
		}
	}
}
