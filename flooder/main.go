package main

import (
	"github.com/meterkit/statsd-go/flooder/cmd/flood"
)

func main() {
	flood.Execute()
}
