//go:build !windows

package statsd

import "errors"

func newPipeWriter(pipepath string) (lineWriter, error) {
	return nil, errors.New("statsd: named pipes are only supported on windows")
}
