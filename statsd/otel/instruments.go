package otel

import (
	"context"
	"math"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/embedded"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/meterkit/statsd-go/statsd"
)

// levelCell holds the current value of one series as float64 bits. Registry
// gauges and function counters read it through load when they poll.
type levelCell struct {
	bits atomic.Uint64
}

func (c *levelCell) load() float64 {
	return math.Float64frombits(c.bits.Load())
}

func (c *levelCell) store(v float64) {
	c.bits.Store(math.Float64bits(v))
}

func (c *levelCell) add(delta float64) {
	for {
		old := c.bits.Load()
		if c.bits.CompareAndSwap(old, math.Float64bits(math.Float64frombits(old)+delta)) {
			return
		}
	}
}

// levelSet keeps one cell per attribute set and registers the backing
// registry meter the first time a series is seen.
type levelSet struct {
	cells cache[attribute.Distinct, *levelCell]
}

func (s *levelSet) gauge(reg *statsd.Registry, name string, attrs attribute.Set, tags []statsd.Tag) *levelCell {
	return s.cells.Lookup(attrs.Equivalent(), func() *levelCell {
		cell := &levelCell{}
		reg.Gauge(name, tags, cell.load)
		return cell
	})
}

func (s *levelSet) functionCounter(reg *statsd.Registry, name string, attrs attribute.Set, tags []statsd.Tag) *levelCell {
	return s.cells.Lookup(attrs.Equivalent(), func() *levelCell {
		cell := &levelCell{}
		reg.FunctionCounter(name, tags, cell.load)
		return cell
	})
}

type int64Inst struct {
	embedded.Int64Counter
	embedded.Int64UpDownCounter
	embedded.Int64Histogram
	embedded.Int64Gauge

	meter  *meter
	levels *levelSet
	instID
}

var _ otelmetric.Int64Counter = (*int64Inst)(nil)
var _ otelmetric.Int64UpDownCounter = (*int64Inst)(nil)
var _ otelmetric.Int64Histogram = (*int64Inst)(nil)
var _ otelmetric.Int64Gauge = (*int64Inst)(nil)

func (i *int64Inst) Add(_ context.Context, incr int64, options ...otelmetric.AddOption) {
	c := otelmetric.NewAddConfig(options)
	attrs := c.Attributes()
	tags := attrsToTags(i.meter.cfg.res, attrs)

	// Up/down counters keep a running level that the registry polls as a
	// gauge. Monotonic counters publish each increment directly.
	if i.Kind == sdkmetric.InstrumentKindUpDownCounter {
		i.levels.gauge(i.meter.reg, i.Name, attrs, tags).add(float64(incr))
	} else {
		i.meter.reg.Counter(i.Name, tags).Add(float64(incr))
	}
}

func (i *int64Inst) Record(_ context.Context, value int64, options ...otelmetric.RecordOption) {
	c := otelmetric.NewRecordConfig(options)
	attrs := c.Attributes()
	tags := attrsToTags(i.meter.cfg.res, attrs)

	if i.Kind == sdkmetric.InstrumentKindGauge {
		i.levels.gauge(i.meter.reg, i.Name, attrs, tags).store(float64(value))
	} else {
		i.meter.reg.DistributionSummary(i.Name, tags).Record(float64(value))
	}
}

type float64Inst struct {
	embedded.Float64Counter
	embedded.Float64UpDownCounter
	embedded.Float64Histogram
	embedded.Float64Gauge

	meter  *meter
	levels *levelSet
	instID
}

var _ otelmetric.Float64Counter = (*float64Inst)(nil)
var _ otelmetric.Float64UpDownCounter = (*float64Inst)(nil)
var _ otelmetric.Float64Histogram = (*float64Inst)(nil)
var _ otelmetric.Float64Gauge = (*float64Inst)(nil)

func (i *float64Inst) Add(_ context.Context, incr float64, options ...otelmetric.AddOption) {
	c := otelmetric.NewAddConfig(options)
	attrs := c.Attributes()
	tags := attrsToTags(i.meter.cfg.res, attrs)

	if i.Kind == sdkmetric.InstrumentKindUpDownCounter {
		i.levels.gauge(i.meter.reg, i.Name, attrs, tags).add(incr)
	} else {
		i.meter.reg.Counter(i.Name, tags).Add(incr)
	}
}

func (i *float64Inst) Record(_ context.Context, value float64, options ...otelmetric.RecordOption) {
	c := otelmetric.NewRecordConfig(options)
	attrs := c.Attributes()
	tags := attrsToTags(i.meter.cfg.res, attrs)

	if i.Kind == sdkmetric.InstrumentKindGauge {
		i.levels.gauge(i.meter.reg, i.Name, attrs, tags).store(value)
	} else {
		i.meter.reg.DistributionSummary(i.Name, tags).Record(value)
	}
}

type int64Observable struct {
	otelmetric.Int64Observable
	meter *meter
	cells *levelSet
	kind  sdkmetric.InstrumentKind
	name  string
	desc  string
	unit  string

	embedded.Int64Observer
	embedded.Int64ObservableCounter
	embedded.Int64ObservableUpDownCounter
	embedded.Int64ObservableGauge
}

var _ otelmetric.Int64ObservableCounter = int64Observable{}
var _ otelmetric.Int64ObservableUpDownCounter = int64Observable{}
var _ otelmetric.Int64ObservableGauge = int64Observable{}
var _ otelmetric.Int64Observer = int64Observable{}

func newInt64Observable(m *meter, kind sdkmetric.InstrumentKind, name, desc, u string) int64Observable {
	return int64Observable{
		meter: m,
		cells: &levelSet{},
		kind:  kind,
		name:  name,
		desc:  desc,
		unit:  u,
	}
}

func (o int64Observable) Observe(val int64, opts ...otelmetric.ObserveOption) {
	c := otelmetric.NewObserveConfig(opts)
	attrs := c.Attributes()
	tags := attrsToTags(o.meter.cfg.res, attrs)
	switch o.kind {
	case sdkmetric.InstrumentKindObservableCounter:
		// Callbacks report cumulative totals. The registry publishes the
		// delta between polls.
		o.cells.functionCounter(o.meter.reg, o.name, attrs, tags).store(float64(val))
	case sdkmetric.InstrumentKindObservableUpDownCounter, sdkmetric.InstrumentKindObservableGauge:
		o.cells.gauge(o.meter.reg, o.name, attrs, tags).store(float64(val))
	default:
		o.meter.errHandler(errInvalidObserverKind)
	}
}

type float64Observable struct {
	otelmetric.Float64Observable
	meter *meter
	cells *levelSet
	kind  sdkmetric.InstrumentKind
	name  string
	desc  string
	unit  string

	embedded.Float64Observer
	embedded.Float64ObservableCounter
	embedded.Float64ObservableUpDownCounter
	embedded.Float64ObservableGauge
}

var _ otelmetric.Float64ObservableCounter = float64Observable{}
var _ otelmetric.Float64ObservableUpDownCounter = float64Observable{}
var _ otelmetric.Float64ObservableGauge = float64Observable{}
var _ otelmetric.Float64Observer = float64Observable{}

func newFloat64Observable(m *meter, kind sdkmetric.InstrumentKind, name, desc, u string) float64Observable {
	return float64Observable{
		meter: m,
		cells: &levelSet{},
		kind:  kind,
		name:  name,
		desc:  desc,
		unit:  u,
	}
}

func (o float64Observable) Observe(val float64, opts ...otelmetric.ObserveOption) {
	c := otelmetric.NewObserveConfig(opts)
	attrs := c.Attributes()
	tags := attrsToTags(o.meter.cfg.res, attrs)
	switch o.kind {
	case sdkmetric.InstrumentKindObservableCounter:
		o.cells.functionCounter(o.meter.reg, o.name, attrs, tags).store(val)
	case sdkmetric.InstrumentKindObservableUpDownCounter, sdkmetric.InstrumentKindObservableGauge:
		o.cells.gauge(o.meter.reg, o.name, attrs, tags).store(val)
	default:
		o.meter.errHandler(errInvalidObserverKind)
	}
}

// instID are the identifying properties of an instrument.
type instID struct {
	// Name is the name of the stream.
	Name string
	// Description is the description of the stream.
	Description string
	// Kind defines the functional group of the instrument.
	Kind sdkmetric.InstrumentKind
	// Unit is the unit of the stream.
	Unit string
}

func (m *meter) int64ObservableInstrument(id sdkmetric.Instrument, callbacks []otelmetric.Int64Callback) (int64Observable, error) {
	key := instID{
		Name:        id.Name,
		Description: id.Description,
		Unit:        id.Unit,
		Kind:        id.Kind,
	}
	if m.int64Observables.HasKey(key) && len(callbacks) > 0 {
		warnRepeatedObservableCallbacks(m.errHandler, id)
	}
	return m.int64Observables.Lookup(key, func() (int64Observable, error) {
		inst := newInt64Observable(m, id.Kind, id.Name, id.Description, id.Unit)

		for _, callback := range callbacks {
			callback := callback
			m.addCallback(func(ctx context.Context) error {
				return callback(ctx, inst)
			})
		}

		return inst, validateInstrumentName(id.Name)
	})
}

func (m *meter) float64ObservableInstrument(id sdkmetric.Instrument, callbacks []otelmetric.Float64Callback) (float64Observable, error) {
	key := instID{
		Name:        id.Name,
		Description: id.Description,
		Unit:        id.Unit,
		Kind:        id.Kind,
	}
	if m.float64Observables.HasKey(key) && len(callbacks) > 0 {
		warnRepeatedObservableCallbacks(m.errHandler, id)
	}
	return m.float64Observables.Lookup(key, func() (float64Observable, error) {
		inst := newFloat64Observable(m, id.Kind, id.Name, id.Description, id.Unit)

		for _, callback := range callbacks {
			callback := callback
			m.addCallback(func(ctx context.Context) error {
				return callback(ctx, inst)
			})
		}

		return inst, validateInstrumentName(id.Name)
	})
}
