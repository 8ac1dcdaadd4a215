package otel

import (
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// ErrNoRegistry is returned by NewMeterProvider when no registry was
// configured.
var ErrNoRegistry = errors.New("otel: no statsd registry configured")

// ErrorHandler receives errors raised asynchronously by instruments and
// observable callbacks.
type ErrorHandler func(error)

var (
	errInvalidObserverKind = errors.New("unknown observer instrument kind")
	errUnknownObservable   = errors.New("observable not created by this provider")
)

func warnRepeatedObservableCallbacks(handler ErrorHandler, id sdkmetric.Instrument) {
	handler(fmt.Errorf("Repeated observable instrument creation with callbacks. Ignoring new callbacks. Use meter.RegisterCallback and Registration.Unregister to manage callbacks. Instrument{Name: %q, Description: %q, Kind: %q, Unit: %q}",
		id.Name, id.Description, "InstrumentKind"+id.Kind.String(), id.Unit,
	))
}
