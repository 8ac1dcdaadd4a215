//go:build windows

package statsd

import (
	"net"

	"github.com/Microsoft/go-winio"
)

type pipeWriter struct{ net.Conn }

func newPipeWriter(pipepath string) (lineWriter, error) {
	conn, err := winio.DialPipe(pipepath, nil)
	if err != nil {
		return nil, err
	}
	return &pipeWriter{conn}, nil
}
