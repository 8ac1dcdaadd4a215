package statsd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdOutWriterDefaults(t *testing.T) {
	w, err := newStdOutWriter("")
	require.NoError(t, err)

	var buf bytes.Buffer
	w.output = &buf

	n, err := w.Write([]byte("requests:1|c"))
	require.NoError(t, err)
	assert.Equal(t, len("requests:1|c"), n)
	assert.Equal(t, "METRICS|requests:1|c\n", buf.String())
	assert.NoError(t, w.Close())
}

func TestStdOutWriterOverrides(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want string
	}{
		{"prefix only", "dbg.", "dbg.requests:1|c\n"},
		{"prefix and suffix", "dbg./;", "dbg.requests:1|c;\n"},
		{"empty prefix keeps default", "/;", "METRICS|requests:1|c;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := newStdOutWriter(tt.addr)
			require.NoError(t, err)

			var buf bytes.Buffer
			w.output = &buf

			_, err = w.Write([]byte("requests:1|c"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
