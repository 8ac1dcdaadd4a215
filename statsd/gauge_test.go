package statsd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGaugeSuppressesUnchangedValue(t *testing.T) {
	reg := newTestRegistry(t)

	var value float64Value
	value.store(42.5)
	reg.Gauge("cpu.usage", nil, value.load)

	reg.pollAll()
	reg.pollAll()
	assert.Equal(t, []string{"cpu.usage:42.5|g"}, drainLines(reg))

	value.store(43)
	reg.pollAll()
	assert.Equal(t, []string{"cpu.usage:43|g"}, drainLines(reg))
}

func TestGaugePublishUnchanged(t *testing.T) {
	reg := newTestRegistry(t, WithPublishUnchanged(true))

	var value float64Value
	value.store(7)
	reg.Gauge("queue.depth", nil, value.load)

	reg.pollAll()
	reg.pollAll()
	reg.pollAll()
	assert.Equal(t, []string{
		"queue.depth:7|g",
		"queue.depth:7|g",
		"queue.depth:7|g",
	}, drainLines(reg))
}

func TestGaugeSkipsNonFiniteValues(t *testing.T) {
	reg := newTestRegistry(t)

	var value float64Value
	value.store(5)
	reg.Gauge("ratio", nil, value.load)

	reg.pollAll()
	assert.Equal(t, []string{"ratio:5|g"}, drainLines(reg))

	// A bad reading produces nothing and does not disturb suppression.
	value.store(math.NaN())
	reg.pollAll()
	value.store(5)
	reg.pollAll()
	assert.Empty(t, drainLines(reg))

	value.store(math.Inf(1))
	reg.pollAll()
	assert.Empty(t, drainLines(reg))
}

func TestGaugeValue(t *testing.T) {
	reg := newTestRegistry(t)

	g := reg.Gauge("cpu.usage", nil, func() float64 { return 12.25 })
	assert.Equal(t, 12.25, g.Value())
}

func TestGaugeSameInstance(t *testing.T) {
	reg := newTestRegistry(t)

	fn := func() float64 { return 1 }
	a := reg.Gauge("cpu.usage", nil, fn)
	b := reg.Gauge("cpu.usage", nil, fn)
	assert.Same(t, a, b)

	// The second registration did not add a second pollable.
	reg.pollAll()
	assert.Equal(t, []string{"cpu.usage:1|g"}, drainLines(reg))
}
