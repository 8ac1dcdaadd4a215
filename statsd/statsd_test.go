package statsd

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	reg, err := New("127.0.0.1:8125")
	require.NoError(t, err)

	assert.Equal(t, StateDisconnected, reg.State())
	assert.Equal(t, 0, reg.QueueSize())
	assert.Equal(t, QueueUnbounded, reg.QueueCapacity())
}

func TestNewRegistryRejectsBadOptions(t *testing.T) {
	_, err := New("127.0.0.1:8125", WithPollInterval(-time.Second))
	assert.Error(t, err)
}

func TestMeterKindsAreIndependent(t *testing.T) {
	reg := newTestRegistry(t)

	c := reg.Counter("requests", nil)
	g := reg.Gauge("requests", nil, func() float64 { return 1 })
	tm := reg.Timer("requests", nil)

	assert.NotNil(t, c)
	assert.NotNil(t, g)
	assert.NotNil(t, tm)

	// Same name, three kinds, three series.
	c.Increment()
	tm.Record(time.Millisecond)
	reg.pollAll()
	assert.Len(t, drainLines(reg), 3)
}

func TestConcurrentMeterCreation(t *testing.T) {
	reg := newTestRegistry(t)

	instances := make([]*Counter, 10)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			instances[i] = reg.Counter("requests", []Tag{{Key: "host", Value: "a"}})
		}(i)
	}
	wg.Wait()

	for _, c := range instances {
		assert.Same(t, instances[0], c)
	}
}

func TestMeterIDAppliesPrefixAndCommonTags(t *testing.T) {
	reg := newTestRegistry(t,
		WithNamePrefix("myapp"),
		WithCommonTags([]Tag{{Key: "region", Value: "eu"}}),
	)

	id := reg.newMeterID("requests", []Tag{{Key: "host", Value: "a"}})
	assert.Equal(t, "myapp.requests", id.Name)
	assert.Equal(t, []Tag{{Key: "region", Value: "eu"}, {Key: "host", Value: "a"}}, id.Tags)
}

func TestStopBeforeStart(t *testing.T) {
	reg := newTestRegistry(t)
	reg.Stop()
	assert.Equal(t, StateDisconnected, reg.State())
}

func TestStopIdempotent(t *testing.T) {
	_, reg := newRegistryAndServer(t)

	reg.Stop()
	reg.Stop()
	assert.Equal(t, StateDisconnected, reg.State())
}

func TestCloseIdempotent(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Close())
	require.NoError(t, reg.Close())
	assert.Equal(t, StateDisposed, reg.State())
}

func TestStartAfterClose(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.Close())
	assert.ErrorIs(t, reg.Start(), ErrClosed)
}

func TestStartIdempotent(t *testing.T) {
	_, reg := newRegistryAndServer(t)

	require.NoError(t, reg.Start())
	assert.Equal(t, StateConnected, reg.State())
}

func TestStopThenStartReconnects(t *testing.T) {
	ts, reg := newRegistryAndServer(t)

	reg.Stop()
	assert.Equal(t, StateDisconnected, reg.State())

	// Pushes keep queueing while stopped.
	reg.Counter("requests", nil).Increment()
	assert.Equal(t, 1, reg.QueueSize())

	require.NoError(t, reg.Start())
	waitForState(t, reg, StateConnected)

	ts.wait(t, 1, 5*time.Second)
	ts.assertReceived(t, []string{"requests:1|c"})
}

func TestNoPollingWithoutConnection(t *testing.T) {
	reg := newTestRegistry(t, WithPollInterval(10*time.Millisecond))

	reg.Gauge("cpu.usage", nil, func() float64 { return 1 })
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 0, reg.QueueSize())
	assert.Equal(t, uint64(0), reg.GetTelemetry().PollTicks)
}

func TestPollingStopsWithRegistry(t *testing.T) {
	_, reg := newRegistryAndServer(t, WithPollInterval(10*time.Millisecond))

	reg.Gauge("cpu.usage", nil, func() float64 { return 1 })
	deadline := time.Now().Add(5 * time.Second)
	for reg.GetTelemetry().PollTicks == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.NotZero(t, reg.GetTelemetry().PollTicks)

	reg.Stop()
	ticks := reg.GetTelemetry().PollTicks
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, ticks, reg.GetTelemetry().PollTicks)
}

func TestPublishDropsEmptyLines(t *testing.T) {
	reg := newTestRegistry(t)

	reg.publish("")
	assert.Equal(t, 0, reg.QueueSize())
	assert.Equal(t, uint64(1), reg.GetTelemetry().LinesDropped)

	reg.publish("requests:1|c")
	assert.Equal(t, 1, reg.QueueSize())
	assert.Equal(t, uint64(1), reg.GetTelemetry().LinesPublished)
}

type memoryWriter struct {
	mu     sync.Mutex
	lines  []string
	closed bool
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines = append(w.lines, string(p))
	return len(p), nil
}

func (w *memoryWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *memoryWriter) snapshot() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	lines := make([]string, len(w.lines))
	copy(lines, w.lines)
	return lines
}

func TestNewWithWriter(t *testing.T) {
	w := &memoryWriter{}
	reg, err := NewWithWriter(w)
	require.NoError(t, err)

	require.NoError(t, reg.Start())
	waitForState(t, reg, StateConnected)

	reg.Counter("requests", nil).Increment()

	deadline := time.Now().Add(5 * time.Second)
	for len(w.snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, []string{"requests:1|c"}, w.snapshot())

	require.NoError(t, reg.Close())
	assert.True(t, w.closed)
}

func TestRegisterMeterSameInstance(t *testing.T) {
	reg := newTestRegistry(t)

	ms := []Measurement{{Stat: StatValue, Value: func() float64 { return 1 }}}
	a := reg.RegisterMeter("cache", nil, ms)
	b := reg.RegisterMeter("cache", nil, ms)
	assert.Same(t, a, b)
}
