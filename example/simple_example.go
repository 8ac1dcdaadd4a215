package main

import (
	"log"
	"time"

	"github.com/meterkit/statsd-go/statsd"
)

func main() {
	reg, err := statsd.New("127.0.0.1:8125",
		statsd.WithNamePrefix("myservice"),
		statsd.WithCommonTags([]statsd.Tag{
			statsd.NewTag("env", "prod"),
			statsd.NewTag("service", "myservice"),
		}),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := reg.Start(); err != nil {
		log.Fatal(err)
	}

	requests := reg.Counter("requests", []statsd.Tag{statsd.NewTag("route", "/")})
	requests.Increment()

	latency := reg.Timer("latency", nil, statsd.Percentiles(0.5, 0.95))
	latency.Record(21 * time.Millisecond)

	reg.Gauge("queue.depth", nil, func() float64 { return 42 })

	// Close flushes whatever is still queued before shutting the writer.
	if err := reg.Close(); err != nil {
		log.Fatal(err)
	}
}
