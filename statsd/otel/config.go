package otel

import (
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/zap"

	"github.com/meterkit/statsd-go/statsd"
)

const (
	defaultObserverCollectionInterval = time.Second * 10
	defaultObserverCollectionTimeout  = time.Second * 2
)

// Config carries the settings of a MeterProvider.
type Config struct {
	registry   *statsd.Registry
	logger     *zap.Logger
	res        *resource.Resource
	errHandler ErrorHandler

	observerCollectionInterval time.Duration
	observerCollectionTimeout  time.Duration
}

// Option applies a configuration option to the MeterProvider.
type Option func(Config) Config

func newConfig(options ...Option) Config {
	cfg := Config{
		logger: zap.NewNop(),
		res:    resource.Empty(),

		observerCollectionInterval: defaultObserverCollectionInterval,
		observerCollectionTimeout:  defaultObserverCollectionTimeout,
	}

	for _, option := range options {
		cfg = option(cfg)
	}

	if cfg.errHandler == nil {
		logger := cfg.logger
		cfg.errHandler = func(err error) {
			logger.Warn("otel bridge error", zap.Error(err))
		}
	}

	return cfg
}

// WithRegistry sets the registry every instrument reports into. Required.
func WithRegistry(registry *statsd.Registry) Option {
	return func(cfg Config) Config {
		cfg.registry = registry
		return cfg
	}
}

// WithLogger sets the logger used for bridge diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg Config) Config {
		cfg.logger = logger
		return cfg
	}
}

// WithResource sets the resource whose attributes are added as tags on
// every line, before the per-observation attributes.
func WithResource(res *resource.Resource) Option {
	return func(cfg Config) Config {
		cfg.res = res
		return cfg
	}
}

// WithErrorHandler sets the sink for instrument errors. The default logs
// them.
func WithErrorHandler(f ErrorHandler) Option {
	return func(cfg Config) Config {
		cfg.errHandler = f
		return cfg
	}
}

// WithObserverCollectionInterval sets how often observable callbacks run.
func WithObserverCollectionInterval(interval time.Duration) Option {
	return func(cfg Config) Config {
		cfg.observerCollectionInterval = interval
		return cfg
	}
}

// WithObserverCollectionTimeout bounds one collection pass over the
// observable callbacks.
func WithObserverCollectionTimeout(timeout time.Duration) Option {
	return func(cfg Config) Config {
		cfg.observerCollectionTimeout = timeout
		return cfg
	}
}
