//go:build windows

package statsd

import (
	"errors"
	"time"
)

// Unix sockets are not available on windows, named pipes are the equivalent.
func newUDSWriter(string, time.Duration, string) (lineWriter, error) {
	return nil, errors.New("statsd: unix sockets are not available on windows")
}
