package statsd

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterPublishesEachIncrement(t *testing.T) {
	reg := newTestRegistry(t)

	c := reg.Counter("requests", []Tag{{Key: "host", Value: "a"}})
	c.Increment()
	c.Add(2.5)

	assert.Equal(t, []string{
		"requests:1|c|#host:a",
		"requests:2.5|c|#host:a",
	}, drainLines(reg))
	assert.Equal(t, 3.5, c.Count())
}

func TestCounterIgnoresNonPositive(t *testing.T) {
	reg := newTestRegistry(t)

	c := reg.Counter("requests", nil)
	c.Add(0)
	c.Add(-1)
	c.Add(math.NaN())
	c.Add(math.Inf(1))

	assert.Empty(t, drainLines(reg))
	assert.Equal(t, 0.0, c.Count())
}

func TestCounterSameInstance(t *testing.T) {
	reg := newTestRegistry(t)

	a := reg.Counter("requests", []Tag{{Key: "host", Value: "a"}})
	b := reg.Counter("requests", []Tag{{Key: "host", Value: "a"}})
	other := reg.Counter("requests", []Tag{{Key: "host", Value: "b"}})

	assert.Same(t, a, b)
	assert.NotSame(t, a, other)
}

func TestCounterConcurrent(t *testing.T) {
	reg := newTestRegistry(t)
	c := reg.Counter("requests", nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Increment()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1000.0, c.Count())
	assert.Equal(t, 1000, reg.QueueSize())
}
