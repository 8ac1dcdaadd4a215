/*
Package statsd exports in-process meters to a StatsD collector over UDP,
Unix domain sockets or Windows named pipes.

A Registry hands out meter adapters (counters, gauges, timers, distribution
summaries and a few composite kinds) that serialize every update into
protocol lines of the configured dialect. Recording never blocks and never
returns an error: lines go through an unbounded in-memory queue that a
single drain goroutine writes to the socket, one datagram per line, and
pull-based meters are sampled by a poll loop that only runs while the
registry is connected.

	reg, err := statsd.New("127.0.0.1:8125", statsd.WithFlavor(statsd.FlavorDatadog))
	if err != nil {
		log.Fatal(err)
	}
	reg.Start()
	defer reg.Close()

	requests := reg.Counter("http.requests", []statsd.Tag{{Key: "service", Value: "api"}})
	requests.Increment()
*/
package statsd

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync"
	"go.uber.org/zap"
)

// ErrClosed is returned by Start on a registry that has been closed.
var ErrClosed = errors.New("statsd: registry closed")

// Registry creates meters and owns the pipeline that carries their updates
// to the collector. It is safe for use from multiple goroutines.
//
// A new registry is idle: meters can be created and recorded against, push
// lines accumulate in the queue, but nothing touches the network until
// Start is called.
type Registry struct {
	opts   *Options
	addr   string
	queue  *publishQueue
	tel    telemetry
	logger *zap.Logger

	// meters deduplicates adapters by kind, name and tags. Reads are lock
	// free; creation is serialized by createMu so a meter's side effects
	// (synthetic percentile gauges, pollable registration) run once.
	meters   *xsync.MapOf[meterKey, any]
	createMu sync.Mutex

	pmu       sync.Mutex
	pollables []pollable

	// lmu serializes lifecycle transitions, the cells make resource
	// teardown exactly-once even on paths that race a late dial.
	lmu   sync.Mutex
	state atomic.Int32
	conn  swapCell
	poll  swapCell
}

// New returns a registry publishing to addr. Accepted address forms are
// "host:port" or "udp://host:port" for UDP, "unix:///path/to/socket" and
// "unixgram:///path/to/socket" for Unix domain sockets, "\\.\pipe\name" for
// Windows named pipes and "stdout://" for the debug writer.
//
// The registry does not connect until Start is called.
func New(addr string, options ...Option) (*Registry, error) {
	o, err := resolveOptions(options)
	if err != nil {
		return nil, err
	}

	return &Registry{
		opts:   o,
		addr:   addr,
		queue:  newPublishQueue(o.Silencer),
		logger: o.Logger,
		meters: xsync.NewTypedMapOf[meterKey, any](hashMeterKey),
	}, nil
}

// NewWithWriter returns a registry publishing to the given writer instead
// of a network address.
func NewWithWriter(w io.WriteCloser, options ...Option) (*Registry, error) {
	opts := make([]Option, 0, len(options)+1)
	opts = append(opts, options...)
	opts = append(opts, WithWriter(w))
	return New("", opts...)
}

// Start begins connecting to the collector. The dial happens in the
// background: Start itself never blocks on the network and returns nil
// unless the registry is closed. On connect failure the registry logs the
// error and goes back to disconnected; calling Start again retries. Start
// on a connecting or connected registry is a no-op.
func (r *Registry) Start() error {
	r.lmu.Lock()
	defer r.lmu.Unlock()

	switch r.State() {
	case StateDisposed:
		return ErrClosed
	case StateConnecting, StateConnected:
		return nil
	}

	r.state.Store(int32(StateConnecting))
	go r.connect()
	return nil
}

func (r *Registry) connect() {
	writer, err := resolveWriter(r.addr, r.opts)

	r.lmu.Lock()
	defer r.lmu.Unlock()

	if r.State() != StateConnecting {
		// Stopped or closed while dialing.
		if err == nil {
			writer.Close()
		}
		return
	}
	if err != nil {
		r.logger.Warn("statsd: connect failed", zap.String("addr", r.addr), zap.Error(err))
		r.state.Store(int32(StateDisconnected))
		return
	}

	d := newDrain(writer, r.queue, &r.tel, r.logger)
	if !r.conn.replace(d.close) {
		return
	}
	// The poller is armed only once a connection exists, so pull meters
	// produce nothing while disconnected.
	r.poll.replace(r.startPoller())
	r.state.Store(int32(StateConnected))
	r.logger.Debug("statsd: connected", zap.String("addr", r.addr))
}

// Stop halts polling, flushes what is queued and releases the socket.
// Meters keep working and push lines keep queueing; Start brings the
// registry back. Stop is idempotent and safe before Start.
func (r *Registry) Stop() {
	r.lmu.Lock()
	defer r.lmu.Unlock()

	if r.State() == StateDisposed {
		return
	}
	r.poll.replace(nil)
	r.conn.replace(nil)
	r.state.Store(int32(StateDisconnected))
}

// Close stops the registry for good. Meters created from it remain usable
// but their updates go nowhere; Start returns ErrClosed afterwards.
func (r *Registry) Close() error {
	r.lmu.Lock()
	defer r.lmu.Unlock()

	if r.State() == StateDisposed {
		return nil
	}
	r.poll.close()
	r.conn.close()
	r.state.Store(int32(StateDisposed))
	r.logger.Debug("statsd: closed")
	return nil
}

// State returns the connection lifecycle state.
func (r *Registry) State() ConnState {
	return ConnState(r.state.Load())
}

// QueueSize returns the number of lines waiting for the drain.
func (r *Registry) QueueSize() int {
	return r.queue.Len()
}

// QueueCapacity returns QueueUnbounded; the queue grows as needed.
func (r *Registry) QueueCapacity() int {
	return r.queue.Cap()
}

// GetTelemetry returns a snapshot of the registry's own counters.
func (r *Registry) GetTelemetry() Telemetry {
	return r.tel.snapshot()
}

// publish hands a line to the queue. Empty lines are the encoder's way of
// refusing a value; they are counted and dropped.
func (r *Registry) publish(line string) {
	if line == "" {
		r.tel.linesDropped.Add(1)
		return
	}
	r.queue.publish(line)
	r.tel.linesPublished.Add(1)
}

func (r *Registry) newMeterID(name string, tags []Tag) ID {
	if r.opts.NamePrefix != "" {
		name = r.opts.NamePrefix + name
	}
	if len(r.opts.CommonTags) == 0 {
		return newID(name, tags)
	}
	merged := make([]Tag, 0, len(r.opts.CommonTags)+len(tags))
	merged = append(merged, r.opts.CommonTags...)
	merged = append(merged, tags...)
	return ID{Name: name, Tags: merged}
}

func (r *Registry) builder(id ID) *lineBuilder {
	return newLineBuilder(id, r.opts.Flavor, r.opts.NameMapper)
}

func statTag(stat Statistic) Tag {
	return Tag{Key: "statistic", Value: stat.String()}
}

// Counter returns the push counter for the identifier, creating it on first
// use. Repeated calls with the same name and tags return the same instance.
func (r *Registry) Counter(name string, tags []Tag) *Counter {
	id := r.newMeterID(name, tags)
	key := newMeterKey(counterKind, id)
	if m, ok := r.meters.Load(key); ok {
		return m.(*Counter)
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()
	if m, ok := r.meters.Load(key); ok {
		return m.(*Counter)
	}
	c := newCounter(r, r.builder(id))
	r.meters.Store(key, c)
	return c
}

// Gauge registers fn to be sampled on every poll tick and returns the
// gauge. The function must be safe to call from the poller goroutine.
func (r *Registry) Gauge(name string, tags []Tag, fn func() float64) *Gauge {
	id := r.newMeterID(name, tags)

	r.createMu.Lock()
	defer r.createMu.Unlock()
	return r.gaugeLocked(id, fn)
}

// gaugeLocked creates or returns a gauge for a fully built identifier.
// Callers hold createMu.
func (r *Registry) gaugeLocked(id ID, fn func() float64) *Gauge {
	key := newMeterKey(gaugeKind, id)
	if m, ok := r.meters.Load(key); ok {
		return m.(*Gauge)
	}
	g := newGauge(r, r.builder(id), fn)
	r.meters.Store(key, g)
	r.addPollable(g)
	return g
}

// Timer returns the push timer for the identifier, creating it on first
// use. Percentiles and Buckets options register synthetic pull gauges named
// "<name>.percentile" (tagged phi) and "<name>.histogram" (tagged le, bounds
// in milliseconds) alongside the timer itself.
func (r *Registry) Timer(name string, tags []Tag, opts ...DistributionOption) *Timer {
	id := r.newMeterID(name, tags)
	key := newMeterKey(timerKind, id)
	if m, ok := r.meters.Load(key); ok {
		return m.(*Timer)
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()
	if m, ok := r.meters.Load(key); ok {
		return m.(*Timer)
	}
	cfg := resolveDistributionConfig(opts)
	t := newTimer(r, r.builder(id), cfg)
	r.meters.Store(key, t)
	r.registerDistributionGauges(id, cfg, t.percentileMs, t.bucketCount)
	return t
}

// DistributionSummary returns the push summary for the identifier, creating
// it on first use. Bucket bounds are in raw recorded units.
func (r *Registry) DistributionSummary(name string, tags []Tag, opts ...DistributionOption) *DistributionSummary {
	id := r.newMeterID(name, tags)
	key := newMeterKey(summaryKind, id)
	if m, ok := r.meters.Load(key); ok {
		return m.(*DistributionSummary)
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()
	if m, ok := r.meters.Load(key); ok {
		return m.(*DistributionSummary)
	}
	cfg := resolveDistributionConfig(opts)
	s := newDistributionSummary(r, r.builder(id), cfg)
	r.meters.Store(key, s)
	r.registerDistributionGauges(id, cfg, s.Percentile, s.bucketCount)
	return s
}

// registerDistributionGauges creates the synthetic percentile and bucket
// gauges of a timer or summary. Callers hold createMu.
func (r *Registry) registerDistributionGauges(id ID, cfg distributionConfig, percentileFn func(float64) float64, bucketFn func(int) float64) {
	for _, phi := range cfg.percentiles {
		phi := phi
		auxID := id.withSuffix(".percentile").withTag(Tag{Key: "phi", Value: fmtPhi(phi)})
		r.gaugeLocked(auxID, func() float64 { return percentileFn(phi) })
	}
	for i, bound := range cfg.buckets {
		i := i
		auxID := id.withSuffix(".histogram").withTag(Tag{Key: "le", Value: fmtBound(bound)})
		r.gaugeLocked(auxID, func() float64 { return bucketFn(i) })
	}
}

// FunctionCounter registers fn, a monotone running total, to be sampled on
// every poll tick. Each tick publishes the increase since the previous one.
func (r *Registry) FunctionCounter(name string, tags []Tag, fn func() float64) *FunctionCounter {
	id := r.newMeterID(name, tags)
	key := newMeterKey(functionCounterKind, id)
	if m, ok := r.meters.Load(key); ok {
		return m.(*FunctionCounter)
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()
	if m, ok := r.meters.Load(key); ok {
		return m.(*FunctionCounter)
	}
	c := newFunctionCounter(r, r.builder(id), fn)
	r.meters.Store(key, c)
	r.addPollable(c)
	return c
}

// FunctionTimer registers an external pair of totals, a call count and a
// total time expressed in unit. Each poll tick publishes both increases as
// count lines tagged statistic:count and statistic:total_time.
func (r *Registry) FunctionTimer(name string, tags []Tag, countFn, totalTimeFn func() float64, unit time.Duration) *FunctionTimer {
	id := r.newMeterID(name, tags)
	key := newMeterKey(functionTimerKind, id)
	if m, ok := r.meters.Load(key); ok {
		return m.(*FunctionTimer)
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()
	if m, ok := r.meters.Load(key); ok {
		return m.(*FunctionTimer)
	}
	countLine := r.builder(id.withTag(statTag(StatCount)))
	totalLine := r.builder(id.withTag(statTag(StatTotalTime)))
	t := newFunctionTimer(r, countLine, totalLine, countFn, totalTimeFn, unit)
	r.meters.Store(key, t)
	r.addPollable(t)
	return t
}

// LongTaskTimer returns the long task timer for the identifier, creating it
// on first use. Each poll tick publishes gauges tagged
// statistic:active_tasks and statistic:duration.
func (r *Registry) LongTaskTimer(name string, tags []Tag) *LongTaskTimer {
	id := r.newMeterID(name, tags)
	key := newMeterKey(longTaskKind, id)
	if m, ok := r.meters.Load(key); ok {
		return m.(*LongTaskTimer)
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()
	if m, ok := r.meters.Load(key); ok {
		return m.(*LongTaskTimer)
	}
	activeLine := r.builder(id.withTag(statTag(StatActiveTasks)))
	durationLine := r.builder(id.withTag(statTag(StatDuration)))
	t := newLongTaskTimer(r, activeLine, durationLine)
	r.meters.Store(key, t)
	r.addPollable(t)
	return t
}

// RegisterMeter assembles a pull meter from arbitrary measurements. Each
// poll tick samples every measurement and publishes its value as a count or
// gauge line depending on the statistic, tagged with it.
func (r *Registry) RegisterMeter(name string, tags []Tag, measurements []Measurement) *CustomMeter {
	id := r.newMeterID(name, tags)
	key := newMeterKey(customKind, id)
	if m, ok := r.meters.Load(key); ok {
		return m.(*CustomMeter)
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()
	if m, ok := r.meters.Load(key); ok {
		return m.(*CustomMeter)
	}
	ms := make([]customMeasurement, 0, len(measurements))
	for _, measurement := range measurements {
		ms = append(ms, customMeasurement{
			value:   measurement.Value,
			line:    r.builder(id.withTag(statTag(measurement.Stat))),
			counter: measurement.Stat.counter(),
		})
	}
	c := newCustomMeter(r, ms)
	r.meters.Store(key, c)
	r.addPollable(c)
	return c
}
