package statsd

import (
	"math"
	"time"
)

// FunctionCounter is a pull meter over a monotone total. Each poll tick
// publishes the increase since the previous tick as a count line, nothing
// when the total did not move.
type FunctionCounter struct {
	fn   func() float64
	line *lineBuilder
	reg  *Registry

	// last is only touched from the poller goroutine.
	last float64
}

func newFunctionCounter(reg *Registry, line *lineBuilder, fn func() float64) *FunctionCounter {
	return &FunctionCounter{fn: fn, line: line, reg: reg}
}

// Count samples the underlying total directly.
func (c *FunctionCounter) Count() float64 {
	return c.fn()
}

func (c *FunctionCounter) poll() {
	v := c.fn()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	delta := v - c.last
	c.last = v
	if delta <= 0 {
		return
	}
	c.reg.publish(c.line.count(delta, 1))
}

// FunctionTimer is a pull meter over an external pair of totals, a sample
// count and a total time. Each poll tick publishes both increases as count
// lines distinguished by a statistic tag, the time one converted to
// milliseconds.
type FunctionTimer struct {
	countFn func() float64
	totalFn func() float64
	unitMs  float64

	countLine *lineBuilder
	totalLine *lineBuilder
	reg       *Registry

	// lastCount and lastTotal are only touched from the poller goroutine.
	lastCount float64
	lastTotal float64
}

func newFunctionTimer(reg *Registry, countLine, totalLine *lineBuilder, countFn, totalTimeFn func() float64, unit time.Duration) *FunctionTimer {
	return &FunctionTimer{
		countFn:   countFn,
		totalFn:   totalTimeFn,
		unitMs:    float64(unit) / float64(time.Millisecond),
		countLine: countLine,
		totalLine: totalLine,
		reg:       reg,
	}
}

// Count samples the underlying call total directly.
func (t *FunctionTimer) Count() float64 {
	return t.countFn()
}

// TotalTime samples the underlying time total directly.
func (t *FunctionTimer) TotalTime() time.Duration {
	return msToDuration(t.totalFn() * t.unitMs)
}

func (t *FunctionTimer) poll() {
	if v := t.countFn(); !math.IsNaN(v) && !math.IsInf(v, 0) {
		delta := v - t.lastCount
		t.lastCount = v
		if delta > 0 {
			t.reg.publish(t.countLine.count(delta, 1))
		}
	}

	if v := t.totalFn(); !math.IsNaN(v) && !math.IsInf(v, 0) {
		ms := v * t.unitMs
		delta := ms - t.lastTotal
		t.lastTotal = ms
		if delta > 0 {
			t.reg.publish(t.totalLine.count(delta, 1))
		}
	}
}
