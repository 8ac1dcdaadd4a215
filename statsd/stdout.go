package statsd

import (
	"bufio"
	"io"
	"os"
	"strings"
)

var (
	defaultStdoutPrefix = []byte("METRICS|")
	defaultStdoutSuffix = []byte("\n")
)

// stdOutWriter prints lines to standard output instead of the network.
// Useful to eyeball the exact wire format, or in environments where a log
// pipeline scrapes metrics from stdout.
type stdOutWriter struct {
	prefix []byte
	suffix []byte
	output io.Writer // os.Stdout unless overridden in tests
}

// newStdOutWriter returns a stdout writer. The address may override the
// defaults as "prefix/suffix".
func newStdOutWriter(addr string) (*stdOutWriter, error) {
	prefix := defaultStdoutPrefix
	suffix := defaultStdoutSuffix

	for i, s := range strings.SplitN(addr, "/", 2) {
		if i == 0 && s != "" {
			prefix = []byte(s)
		} else if i == 1 && s != "" {
			suffix = []byte(s)
			if suffix[len(suffix)-1] != '\n' {
				suffix = append(suffix, '\n')
			}
		}
	}

	return &stdOutWriter{
		prefix: prefix,
		suffix: suffix,
		output: os.Stdout,
	}, nil
}

func (w *stdOutWriter) Write(data []byte) (int, error) {
	buf := bufio.NewWriter(w.output)
	buf.Write(w.prefix)
	buf.Write(data)
	buf.Write(w.suffix)
	return len(data), buf.Flush()
}

func (w *stdOutWriter) Close() error {
	return nil
}
