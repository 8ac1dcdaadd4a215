package otel

import (
	"context"
	"fmt"
	"sync"
	"time"

	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/embedded"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/meterkit/statsd-go/statsd"
)

type meter struct {
	embedded.Meter

	cfg   Config
	scope instrumentation.Scope
	reg   *statsd.Registry

	cacheInts          *cacheWithErr[instID, *int64Inst]
	cacheFloats        *cacheWithErr[instID, *float64Inst]
	int64Observables   *cacheWithErr[instID, int64Observable]
	float64Observables *cacheWithErr[instID, float64Observable]

	errHandler ErrorHandler

	cbMu         sync.Mutex
	callbacks    map[uint64]func(context.Context) error
	nextCallback uint64
}

var _ otelmetric.Meter = (*meter)(nil)

func newMeter(s instrumentation.Scope, cfg Config, errHandler ErrorHandler, done <-chan struct{}) *meter {
	var int64Insts cacheWithErr[instID, *int64Inst]
	var float64Insts cacheWithErr[instID, *float64Inst]
	var int64ObservableInsts cacheWithErr[instID, int64Observable]
	var float64ObservableInsts cacheWithErr[instID, float64Observable]

	m := &meter{
		scope:      s,
		reg:        cfg.registry,
		cfg:        cfg,
		errHandler: errHandler,

		cacheInts:          &int64Insts,
		cacheFloats:        &float64Insts,
		int64Observables:   &int64ObservableInsts,
		float64Observables: &float64ObservableInsts,

		callbacks: map[uint64]func(context.Context) error{},
	}

	go m.run(cfg.observerCollectionInterval, done)

	return m
}

func (m *meter) Int64Counter(name string, options ...otelmetric.Int64CounterOption) (otelmetric.Int64Counter, error) {
	cfg := otelmetric.NewInt64CounterConfig(options...)
	id := instID{
		Name:        name,
		Description: cfg.Description(),
		Unit:        cfg.Unit(),
		Kind:        sdkmetric.InstrumentKindCounter,
	}
	return m.cacheInts.Lookup(id, func() (*int64Inst, error) {
		return &int64Inst{
			instID: id,
			meter:  m,
			levels: &levelSet{},
		}, validateInstrumentName(name)
	})
}

func (m *meter) Int64UpDownCounter(name string, options ...otelmetric.Int64UpDownCounterOption) (otelmetric.Int64UpDownCounter, error) {
	cfg := otelmetric.NewInt64UpDownCounterConfig(options...)
	id := instID{
		Name:        name,
		Description: cfg.Description(),
		Unit:        cfg.Unit(),
		Kind:        sdkmetric.InstrumentKindUpDownCounter,
	}
	return m.cacheInts.Lookup(id, func() (*int64Inst, error) {
		return &int64Inst{
			instID: id,
			meter:  m,
			levels: &levelSet{},
		}, validateInstrumentName(name)
	})
}

func (m *meter) Int64Histogram(name string, options ...otelmetric.Int64HistogramOption) (otelmetric.Int64Histogram, error) {
	cfg := otelmetric.NewInt64HistogramConfig(options...)
	id := instID{
		Name:        name,
		Description: cfg.Description(),
		Unit:        cfg.Unit(),
		Kind:        sdkmetric.InstrumentKindHistogram,
	}
	return m.cacheInts.Lookup(id, func() (*int64Inst, error) {
		return &int64Inst{
			instID: id,
			meter:  m,
			levels: &levelSet{},
		}, validateInstrumentName(name)
	})
}

func (m *meter) Int64Gauge(name string, options ...otelmetric.Int64GaugeOption) (otelmetric.Int64Gauge, error) {
	cfg := otelmetric.NewInt64GaugeConfig(options...)
	id := instID{
		Name:        name,
		Description: cfg.Description(),
		Unit:        cfg.Unit(),
		Kind:        sdkmetric.InstrumentKindGauge,
	}
	return m.cacheInts.Lookup(id, func() (*int64Inst, error) {
		return &int64Inst{
			instID: id,
			meter:  m,
			levels: &levelSet{},
		}, validateInstrumentName(name)
	})
}

func (m *meter) Float64Counter(name string, options ...otelmetric.Float64CounterOption) (otelmetric.Float64Counter, error) {
	cfg := otelmetric.NewFloat64CounterConfig(options...)
	id := instID{
		Name:        name,
		Description: cfg.Description(),
		Unit:        cfg.Unit(),
		Kind:        sdkmetric.InstrumentKindCounter,
	}
	return m.cacheFloats.Lookup(id, func() (*float64Inst, error) {
		return &float64Inst{
			instID: id,
			meter:  m,
			levels: &levelSet{},
		}, validateInstrumentName(name)
	})
}

func (m *meter) Float64UpDownCounter(name string, options ...otelmetric.Float64UpDownCounterOption) (otelmetric.Float64UpDownCounter, error) {
	cfg := otelmetric.NewFloat64UpDownCounterConfig(options...)
	id := instID{
		Name:        name,
		Description: cfg.Description(),
		Unit:        cfg.Unit(),
		Kind:        sdkmetric.InstrumentKindUpDownCounter,
	}
	return m.cacheFloats.Lookup(id, func() (*float64Inst, error) {
		return &float64Inst{
			instID: id,
			meter:  m,
			levels: &levelSet{},
		}, validateInstrumentName(name)
	})
}

func (m *meter) Float64Histogram(name string, options ...otelmetric.Float64HistogramOption) (otelmetric.Float64Histogram, error) {
	cfg := otelmetric.NewFloat64HistogramConfig(options...)
	id := instID{
		Name:        name,
		Description: cfg.Description(),
		Unit:        cfg.Unit(),
		Kind:        sdkmetric.InstrumentKindHistogram,
	}
	return m.cacheFloats.Lookup(id, func() (*float64Inst, error) {
		return &float64Inst{
			instID: id,
			meter:  m,
			levels: &levelSet{},
		}, validateInstrumentName(name)
	})
}

func (m *meter) Float64Gauge(name string, options ...otelmetric.Float64GaugeOption) (otelmetric.Float64Gauge, error) {
	cfg := otelmetric.NewFloat64GaugeConfig(options...)
	id := instID{
		Name:        name,
		Description: cfg.Description(),
		Unit:        cfg.Unit(),
		Kind:        sdkmetric.InstrumentKindGauge,
	}
	return m.cacheFloats.Lookup(id, func() (*float64Inst, error) {
		return &float64Inst{
			instID: id,
			meter:  m,
			levels: &levelSet{},
		}, validateInstrumentName(name)
	})
}

func (m *meter) Int64ObservableCounter(name string, options ...otelmetric.Int64ObservableCounterOption) (otelmetric.Int64ObservableCounter, error) {
	cfg := otelmetric.NewInt64ObservableCounterConfig(options...)
	id := sdkmetric.Instrument{
		Name:        name,
		Description: cfg.Description(),
		Unit:        cfg.Unit(),
		Kind:        sdkmetric.InstrumentKindObservableCounter,
		Scope:       m.scope,
	}
	return m.int64ObservableInstrument(id, cfg.Callbacks())
}

func (m *meter) Int64ObservableUpDownCounter(name string, options ...otelmetric.Int64ObservableUpDownCounterOption) (otelmetric.Int64ObservableUpDownCounter, error) {
	cfg := otelmetric.NewInt64ObservableUpDownCounterConfig(options...)
	id := sdkmetric.Instrument{
		Name:        name,
		Description: cfg.Description(),
		Unit:        cfg.Unit(),
		Kind:        sdkmetric.InstrumentKindObservableUpDownCounter,
		Scope:       m.scope,
	}
	return m.int64ObservableInstrument(id, cfg.Callbacks())
}

func (m *meter) Int64ObservableGauge(name string, options ...otelmetric.Int64ObservableGaugeOption) (otelmetric.Int64ObservableGauge, error) {
	cfg := otelmetric.NewInt64ObservableGaugeConfig(options...)
	id := sdkmetric.Instrument{
		Name:        name,
		Description: cfg.Description(),
		Unit:        cfg.Unit(),
		Kind:        sdkmetric.InstrumentKindObservableGauge,
		Scope:       m.scope,
	}
	return m.int64ObservableInstrument(id, cfg.Callbacks())
}

func (m *meter) Float64ObservableCounter(name string, options ...otelmetric.Float64ObservableCounterOption) (otelmetric.Float64ObservableCounter, error) {
	cfg := otelmetric.NewFloat64ObservableCounterConfig(options...)
	id := sdkmetric.Instrument{
		Name:        name,
		Description: cfg.Description(),
		Unit:        cfg.Unit(),
		Kind:        sdkmetric.InstrumentKindObservableCounter,
		Scope:       m.scope,
	}
	return m.float64ObservableInstrument(id, cfg.Callbacks())
}

func (m *meter) Float64ObservableUpDownCounter(name string, options ...otelmetric.Float64ObservableUpDownCounterOption) (otelmetric.Float64ObservableUpDownCounter, error) {
	cfg := otelmetric.NewFloat64ObservableUpDownCounterConfig(options...)
	id := sdkmetric.Instrument{
		Name:        name,
		Description: cfg.Description(),
		Unit:        cfg.Unit(),
		Kind:        sdkmetric.InstrumentKindObservableUpDownCounter,
		Scope:       m.scope,
	}
	return m.float64ObservableInstrument(id, cfg.Callbacks())
}

func (m *meter) Float64ObservableGauge(name string, options ...otelmetric.Float64ObservableGaugeOption) (otelmetric.Float64ObservableGauge, error) {
	cfg := otelmetric.NewFloat64ObservableGaugeConfig(options...)
	id := sdkmetric.Instrument{
		Name:        name,
		Description: cfg.Description(),
		Unit:        cfg.Unit(),
		Kind:        sdkmetric.InstrumentKindObservableGauge,
		Scope:       m.scope,
	}
	return m.float64ObservableInstrument(id, cfg.Callbacks())
}

func (m *meter) RegisterCallback(f otelmetric.Callback, instruments ...otelmetric.Observable) (otelmetric.Registration, error) {
	if len(instruments) == 0 {
		return registration{unregister: func() {}}, nil
	}

	for _, inst := range instruments {
		switch inst.(type) {
		case int64Observable, float64Observable:
		default:
			return nil, fmt.Errorf("%w: %T", errUnknownObservable, inst)
		}
	}

	obs := observer{meter: m}
	id := m.addCallback(func(ctx context.Context) error {
		return f(ctx, obs)
	})

	return registration{unregister: func() { m.removeCallback(id) }}, nil
}

func (m *meter) addCallback(f func(context.Context) error) uint64 {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()

	id := m.nextCallback
	m.nextCallback++
	m.callbacks[id] = f
	return id
}

func (m *meter) removeCallback(id uint64) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()

	delete(m.callbacks, id)
}

// collect runs every observable callback once. Callbacks run outside the
// callback lock so they may create more instruments.
func (m *meter) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.observerCollectionTimeout)
	defer cancel()

	m.cbMu.Lock()
	callbacks := make([]func(context.Context) error, 0, len(m.callbacks))
	for _, callback := range m.callbacks {
		callbacks = append(callbacks, callback)
	}
	m.cbMu.Unlock()

	for _, callback := range callbacks {
		if err := callback(ctx); err != nil {
			m.errHandler(err)
		}
	}
}

func (m *meter) run(interval time.Duration, done <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			m.collect()
		}
	}
}

type observer struct {
	embedded.Observer

	meter *meter
}

var _ otelmetric.Observer = observer{}

func (o observer) ObserveInt64(obsrv otelmetric.Int64Observable, value int64, opts ...otelmetric.ObserveOption) {
	inst, ok := obsrv.(int64Observable)
	if !ok {
		o.meter.errHandler(errUnknownObservable)
		return
	}
	inst.Observe(value, opts...)
}

func (o observer) ObserveFloat64(obsrv otelmetric.Float64Observable, value float64, opts ...otelmetric.ObserveOption) {
	inst, ok := obsrv.(float64Observable)
	if !ok {
		o.meter.errHandler(errUnknownObservable)
		return
	}
	inst.Observe(value, opts...)
}

type registration struct {
	embedded.Registration

	unregister func()
}

var _ otelmetric.Registration = registration{}

func (r registration) Unregister() error {
	r.unregister()
	return nil
}
