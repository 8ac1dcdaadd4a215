package statsd

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFunctionCounterPublishesDeltas(t *testing.T) {
	reg := newTestRegistry(t)

	var total float64Value
	total.store(5)
	reg.FunctionCounter("jobs.completed", nil, total.load)

	reg.pollAll()
	assert.Equal(t, []string{"jobs.completed:5|c"}, drainLines(reg))

	total.store(8)
	reg.pollAll()
	assert.Equal(t, []string{"jobs.completed:3|c"}, drainLines(reg))

	// No movement, no line.
	reg.pollAll()
	assert.Empty(t, drainLines(reg))
}

func TestFunctionCounterIgnoresDecrease(t *testing.T) {
	reg := newTestRegistry(t)

	var total float64Value
	total.store(8)
	reg.FunctionCounter("jobs.completed", nil, total.load)
	reg.pollAll()
	drainLines(reg)

	// The total went backwards, say after a restart of the counted system.
	// Nothing is published and the new baseline sticks.
	total.store(3)
	reg.pollAll()
	assert.Empty(t, drainLines(reg))

	total.store(4)
	reg.pollAll()
	assert.Equal(t, []string{"jobs.completed:1|c"}, drainLines(reg))
}

func TestFunctionCounterSkipsNonFinite(t *testing.T) {
	reg := newTestRegistry(t)

	var total float64Value
	total.store(5)
	reg.FunctionCounter("jobs.completed", nil, total.load)
	reg.pollAll()
	drainLines(reg)

	total.store(math.NaN())
	reg.pollAll()
	assert.Empty(t, drainLines(reg))

	// The baseline survived the bad reading.
	total.store(6)
	reg.pollAll()
	assert.Equal(t, []string{"jobs.completed:1|c"}, drainLines(reg))
}

func TestFunctionCounterCount(t *testing.T) {
	reg := newTestRegistry(t)

	c := reg.FunctionCounter("jobs.completed", nil, func() float64 { return 42 })
	assert.Equal(t, 42.0, c.Count())
}

func TestFunctionTimerPublishesBothStatistics(t *testing.T) {
	reg := newTestRegistry(t)

	var calls, seconds float64Value
	calls.store(2)
	seconds.store(0.5)
	reg.FunctionTimer("db.calls", nil, calls.load, seconds.load, time.Second)

	reg.pollAll()
	assert.Equal(t, []string{
		"db.calls:2|c|#statistic:count",
		"db.calls:500|c|#statistic:total_time",
	}, drainLines(reg))

	calls.store(5)
	seconds.store(0.75)
	reg.pollAll()
	assert.Equal(t, []string{
		"db.calls:3|c|#statistic:count",
		"db.calls:250|c|#statistic:total_time",
	}, drainLines(reg))
}

func TestFunctionTimerSilentWithoutMovement(t *testing.T) {
	reg := newTestRegistry(t)

	reg.FunctionTimer("db.calls", nil, func() float64 { return 2 }, func() float64 { return 0.5 }, time.Second)
	reg.pollAll()
	drainLines(reg)

	reg.pollAll()
	assert.Empty(t, drainLines(reg))
}

func TestFunctionTimerTelegrafStatisticTag(t *testing.T) {
	reg := newTestRegistry(t, WithFlavor(FlavorTelegraf))

	reg.FunctionTimer("db.calls", nil, func() float64 { return 1 }, func() float64 { return 0 }, time.Second)
	reg.pollAll()
	assert.Equal(t, []string{"db_calls,statistic=count:1|c"}, drainLines(reg))
}

func TestFunctionTimerAccessors(t *testing.T) {
	reg := newTestRegistry(t)

	ft := reg.FunctionTimer("db.calls", nil, func() float64 { return 7 }, func() float64 { return 1.5 }, time.Second)
	assert.Equal(t, 7.0, ft.Count())
	assert.Equal(t, 1500*time.Millisecond, ft.TotalTime())
}
