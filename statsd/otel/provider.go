// Package otel exposes a statsd Registry through the OpenTelemetry metric
// API.
//
// A MeterProvider built with NewMeterProvider maps every instrument onto
// registry meters. Counters publish each increment, up/down counters and
// gauges are polled as gauge levels, histograms record into distribution
// summaries and observable counters publish the delta between collections.
// Observable callbacks run on the provider's collection interval; lines
// leave through the registry, which the caller starts and closes.
package otel

import (
	"context"
	"sync/atomic"

	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/embedded"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	"go.uber.org/zap"
)

type MeterProvider struct {
	embedded.MeterProvider

	cfg     Config
	errChan chan error

	stopped atomic.Bool
	done    chan struct{}
	meters  cache[instrumentation.Scope, *meter]
}

var _ otelmetric.MeterProvider = (*MeterProvider)(nil)

// NewMeterProvider returns a MeterProvider reporting into the registry set
// with WithRegistry.
func NewMeterProvider(options ...Option) (*MeterProvider, error) {
	cfg := newConfig(options...)

	if cfg.registry == nil {
		return nil, ErrNoRegistry
	}

	mp := &MeterProvider{
		cfg:     cfg,
		errChan: make(chan error, 10),
		done:    make(chan struct{}),
	}

	go mp.processErrors()

	return mp, nil
}

func (mp *MeterProvider) Meter(name string, opts ...otelmetric.MeterOption) otelmetric.Meter {
	if name == "" {
		mp.cfg.logger.Warn("otel: invalid meter name", zap.String("name", name))
	}

	if mp.stopped.Load() {
		return noop.Meter{}
	}

	c := otelmetric.NewMeterConfig(opts...)

	s := instrumentation.Scope{
		Name:      name,
		Version:   c.InstrumentationVersion(),
		SchemaURL: c.SchemaURL(),
	}

	return mp.meters.Lookup(s, func() *meter {
		return newMeter(s, mp.cfg, mp.handleError, mp.done)
	})
}

// Shutdown stops observable collection and error processing. Meters handed
// out earlier keep returning instruments but no callbacks run anymore. The
// registry stays open, the caller owns its lifecycle.
func (mp *MeterProvider) Shutdown(context.Context) error {
	if mp.stopped.Swap(true) {
		return nil
	}
	close(mp.done)
	return nil
}

func (mp *MeterProvider) handleError(err error) {
	select {
	case mp.errChan <- err:
	default:
		mp.cfg.logger.Error("otel: dropped error", zap.Error(err))
	}
}

func (mp *MeterProvider) processErrors() {
	for {
		select {
		case <-mp.done:
			return
		case err := <-mp.errChan:
			mp.cfg.errHandler(err)
		}
	}
}
