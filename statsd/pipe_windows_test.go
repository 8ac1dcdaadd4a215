//go:build windows

package statsd

import (
	"log"
	"os"
	"testing"

	"github.com/Microsoft/go-winio"
)

func TestPipeWriter(t *testing.T) {
	f, err := os.CreateTemp("", "test-pipe-")
	if err != nil {
		log.Fatal(err)
	}
	defer os.Remove(f.Name())
	pipepath := WindowsPipeAddressPrefix + f.Name()
	ln, err := winio.ListenPipe(pipepath, &winio.PipeConfig{
		SecurityDescriptor: "D:AI(A;;GA;;;WD)",
		InputBufferSize:    1_000_000,
	})
	if err != nil {
		log.Fatal(err)
	}
	out := make(chan string)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			log.Fatal(err)
		}
		buf := make([]byte, 512)
		n, err := conn.Read(buf)
		if err != nil {
			log.Fatal(err)
		}
		conn.Close()
		out <- string(buf[:n])
	}()

	reg, err := New(pipepath)
	if err != nil {
		log.Fatal(err)
	}
	if err := reg.Start(); err != nil {
		log.Fatal(err)
	}
	waitForState(t, reg, StateConnected)
	defer reg.Close()

	reg.Counter("metric", []Tag{{Key: "key", Value: "val"}}).Increment()

	got := <-out
	if exp := "metric:1|c|#key:val"; got != exp {
		t.Fatalf("Expected %q, got %q", exp, got)
	}
}
