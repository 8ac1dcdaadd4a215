package statsd

import "time"

// Clock supplies the registry's notion of time. Timers and step windows read
// through it so tests can drive rotation deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
