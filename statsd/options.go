package statsd

import (
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// DefaultFlavor is the default value for the Flavor option.
	DefaultFlavor = FlavorDatadog
	// DefaultPollInterval is the default value for the PollInterval option.
	DefaultPollInterval = 10 * time.Second
	// DefaultStep is the default value for the Step option.
	DefaultStep = 1 * time.Minute
	// DefaultPublishUnchanged is the default value for the PublishUnchanged option.
	DefaultPublishUnchanged = false
	// DefaultWriteTimeout is the default value for the WriteTimeout option.
	DefaultWriteTimeout = 100 * time.Millisecond
)

// Options contains the configuration options for a registry.
type Options struct {
	// Flavor is the StatsD dialect written on the wire.
	Flavor Flavor
	// PollInterval is how often pull meters are sampled while connected.
	PollInterval time.Duration
	// Step is the rotation period of windowed statistics such as a timer's
	// max.
	Step time.Duration
	// PublishUnchanged makes gauges publish on every poll tick even when
	// the value did not change since the last publication.
	PublishUnchanged bool
	// NamePrefix is prepended to every meter name. A trailing dot is added
	// when missing.
	NamePrefix string
	// CommonTags are added before each meter's own tags.
	CommonTags []Tag
	// NameMapper flattens identifiers into hierarchical names for the Etsy
	// flavor.
	NameMapper NameMapper
	// Logger receives connection lifecycle and send failures. Defaults to a
	// no-op logger.
	Logger *zap.Logger
	// Clock supplies time to timers and step windows.
	Clock Clock
	// Silencer, when set, wraps every enqueue so log-driven meters can mute
	// their own log output.
	Silencer LogSilencer
	// Writer overrides the transport entirely. The address passed to New is
	// ignored when set.
	Writer io.WriteCloser
	// WriteTimeout is the per-write deadline on stream transports.
	WriteTimeout time.Duration
}

func resolveOptions(options []Option) (*Options, error) {
	o := &Options{
		Flavor:           DefaultFlavor,
		PollInterval:     DefaultPollInterval,
		Step:             DefaultStep,
		PublishUnchanged: DefaultPublishUnchanged,
		NameMapper:       HierarchicalNameMapper,
		Logger:           zap.NewNop(),
		Clock:            systemClock{},
		WriteTimeout:     DefaultWriteTimeout,
	}

	for _, option := range options {
		err := option(o)
		if err != nil {
			return nil, err
		}
	}

	if o.NamePrefix != "" && !strings.HasSuffix(o.NamePrefix, ".") {
		o.NamePrefix += "."
	}

	return o, nil
}

// Option is a registry option. Can return an error if validation fails.
type Option func(*Options) error

// WithFlavor sets the Flavor option.
func WithFlavor(flavor Flavor) Option {
	return func(o *Options) error {
		o.Flavor = flavor
		return nil
	}
}

// WithPollInterval sets the PollInterval option.
func WithPollInterval(interval time.Duration) Option {
	return func(o *Options) error {
		if interval <= 0 {
			return errors.New("statsd: poll interval must be positive")
		}
		o.PollInterval = interval
		return nil
	}
}

// WithStep sets the Step option.
func WithStep(step time.Duration) Option {
	return func(o *Options) error {
		if step <= 0 {
			return errors.New("statsd: step must be positive")
		}
		o.Step = step
		return nil
	}
}

// WithPublishUnchanged sets the PublishUnchanged option.
func WithPublishUnchanged(publishUnchanged bool) Option {
	return func(o *Options) error {
		o.PublishUnchanged = publishUnchanged
		return nil
	}
}

// WithNamePrefix sets the NamePrefix option.
func WithNamePrefix(prefix string) Option {
	return func(o *Options) error {
		o.NamePrefix = prefix
		return nil
	}
}

// WithCommonTags sets the CommonTags option.
func WithCommonTags(tags []Tag) Option {
	return func(o *Options) error {
		o.CommonTags = copyTags(tags)
		return nil
	}
}

// WithNameMapper sets the NameMapper option.
func WithNameMapper(mapper NameMapper) Option {
	return func(o *Options) error {
		if mapper == nil {
			return errors.New("statsd: name mapper must not be nil")
		}
		o.NameMapper = mapper
		return nil
	}
}

// WithLogger sets the Logger option.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) error {
		if logger == nil {
			return errors.New("statsd: logger must not be nil")
		}
		o.Logger = logger
		return nil
	}
}

// WithClock sets the Clock option.
func WithClock(clock Clock) Option {
	return func(o *Options) error {
		if clock == nil {
			return errors.New("statsd: clock must not be nil")
		}
		o.Clock = clock
		return nil
	}
}

// WithLogSilencer sets the Silencer option.
func WithLogSilencer(silencer LogSilencer) Option {
	return func(o *Options) error {
		o.Silencer = silencer
		return nil
	}
}

// WithWriter sets the Writer option.
func WithWriter(writer io.WriteCloser) Option {
	return func(o *Options) error {
		o.Writer = writer
		return nil
	}
}

// WithWriteTimeout sets the WriteTimeout option.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(o *Options) error {
		if timeout <= 0 {
			return errors.New("statsd: write timeout must be positive")
		}
		o.WriteTimeout = timeout
		return nil
	}
}
