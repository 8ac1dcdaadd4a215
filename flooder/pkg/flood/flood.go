package flood

import (
	"fmt"
	"hash/fnv"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meterkit/statsd-go/statsd"
)

type flooder struct {
	reg                 *statsd.Registry
	counter             *statsd.Counter
	expected            *statsd.Counter
	latency             *statsd.Timer
	pointsPer10Seconds  int
	sendAtStartOfBucket bool
}

func initRegistry(command *cobra.Command) (*flooder, error) {
	var options []statsd.Option

	tags := []string{}

	flavorName, err := command.Flags().GetString("flavor")
	if err != nil {
		return nil, err
	}
	flavor, err := parseFlavor(flavorName)
	if err != nil {
		return nil, err
	}
	options = append(options, statsd.WithFlavor(flavor))
	tags = append(tags, "flavor:"+flavor.String())

	prefix, err := command.Flags().GetString("name-prefix")
	if err != nil {
		return nil, err
	}
	options = append(options, statsd.WithNamePrefix(prefix))
	tags = append(tags, "name-prefix:"+prefix)

	d, err := command.Flags().GetDuration("poll-interval")
	if err != nil {
		return nil, err
	}
	options = append(options, statsd.WithPollInterval(d))
	tags = append(tags, "poll-interval:"+d.String())

	d, err = command.Flags().GetDuration("write-timeout")
	if err != nil {
		return nil, err
	}
	options = append(options, statsd.WithWriteTimeout(d))
	tags = append(tags, "write-timeout:"+d.String())

	b, err := command.Flags().GetBool("publish-unchanged")
	if err != nil {
		return nil, err
	}
	options = append(options, statsd.WithPublishUnchanged(b))
	tags = append(tags, "publish-unchanged:"+strconv.FormatBool(b))

	rate, err := command.Flags().GetFloat64("sample-rate")
	if err != nil {
		return nil, err
	}
	tags = append(tags, "sample-rate:"+strconv.FormatFloat(rate, 'f', -1, 64))

	pointsPer10Seconds, err := command.Flags().GetInt("points-per-10seconds")
	if err != nil {
		return nil, err
	}
	tags = append(tags, "points-per-10seconds:"+strconv.Itoa(pointsPer10Seconds))

	sendAtStart, err := command.Flags().GetBool("send-at-start-of-bucket")
	if err != nil {
		return nil, err
	}
	tags = append(tags, "send-at-start-of-bucket:"+strconv.FormatBool(sendAtStart))

	address, err := command.Flags().GetString("address")
	if err != nil {
		return nil, err
	}
	tags = append(tags, "address:"+address)

	transport := "udp"
	switch {
	case strings.HasPrefix(address, statsd.UnixgramAddressPrefix):
		transport = "unixgram"
	case strings.HasPrefix(address, statsd.UnixAddressPrefix):
		transport = "unix"
	case strings.HasPrefix(address, statsd.WindowsPipeAddressPrefix):
		transport = "pipe"
	}
	tags = append(tags, "transport:"+transport)

	verbose, err := command.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		options = append(options, statsd.WithLogger(logger))
	}

	t, err := command.Flags().GetStringSlice("tags")
	if err != nil {
		return nil, err
	}
	tags = append(tags, t...)
	h := hash(tags)

	commonTags := parseTags(t)
	commonTags = append(commonTags, statsd.NewTag("client-hash", strconv.FormatUint(uint64(h), 16)))
	options = append(options, statsd.WithCommonTags(commonTags))

	log.Printf("Tags: %v - Hash: %x", tags, h)

	reg, err := statsd.New(address, options...)
	if err != nil {
		return nil, err
	}

	// The registry's own counters go out as pull meters, so a flood run can
	// be watched from the receiving side.
	reg.FunctionCounter("telemetry.lines_published", nil, func() float64 {
		return float64(reg.GetTelemetry().LinesPublished)
	})
	reg.FunctionCounter("telemetry.datagrams_sent", nil, func() float64 {
		return float64(reg.GetTelemetry().DatagramsSent)
	})
	reg.FunctionCounter("telemetry.send_errors", nil, func() float64 {
		return float64(reg.GetTelemetry().SendErrors)
	})
	reg.Gauge("queue.depth", nil, func() float64 {
		return float64(reg.QueueSize())
	})

	return &flooder{
		reg:                 reg,
		counter:             reg.Counter("statsd.count", nil),
		expected:            reg.Counter("statsd.expected", nil),
		latency:             reg.Timer("statsd.enqueue", nil, statsd.SampleRate(rate)),
		pointsPer10Seconds:  pointsPer10Seconds,
		sendAtStartOfBucket: sendAtStart,
	}, nil
}

func parseFlavor(name string) (statsd.Flavor, error) {
	switch name {
	case "datadog":
		return statsd.FlavorDatadog, nil
	case "etsy":
		return statsd.FlavorEtsy, nil
	case "telegraf":
		return statsd.FlavorTelegraf, nil
	case "plain":
		return statsd.FlavorPlain, nil
	}
	return statsd.FlavorDatadog, fmt.Errorf("unknown flavor %q", name)
}

func parseTags(kvs []string) []statsd.Tag {
	tags := make([]statsd.Tag, 0, len(kvs))
	for _, kv := range kvs {
		k, v, _ := strings.Cut(kv, ":")
		tags = append(tags, statsd.NewTag(k, v))
	}
	return tags
}

func hash(s []string) uint32 {
	h := fnv.New32a()
	for _, e := range s {
		h.Write([]byte(e))
	}
	return h.Sum32()
}

func Flood(command *cobra.Command, args []string) {
	f, err := initRegistry(command)
	if err != nil {
		log.Fatal(err)
	}
	if err := f.reg.Start(); err != nil {
		log.Fatal(err)
	}
	log.Printf("Sending %d points per 10 seconds", f.pointsPer10Seconds)

	for {
		t1 := time.Now()

		for sent := 0; sent < f.pointsPer10Seconds; sent++ {
			start := time.Now()
			f.counter.Increment()
			f.latency.Record(time.Since(start))
			if !f.sendAtStartOfBucket {
				time.Sleep(time.Duration(8) * time.Second / time.Duration(f.pointsPer10Seconds))
			}
		}
		f.expected.Add(float64(f.pointsPer10Seconds))

		duration := time.Since(t1)
		s := time.Duration(10)*time.Second - duration
		if s > 0 {
			// Sleep until the next bucket
			log.Printf("Sleeping for %f seconds", s.Seconds())
			time.Sleep(s)
		} else {
			log.Printf("We're %f seconds behind", s.Seconds()*-1)
		}
	}
}
