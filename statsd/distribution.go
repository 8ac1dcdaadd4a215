package statsd

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultReservoirSize is the default number of recent samples kept per timer
// or summary for percentile estimation.
var DefaultReservoirSize = 1024

type distributionConfig struct {
	percentiles   []float64
	buckets       []float64
	sampleRate    float64
	reservoirSize int
	scale         float64
}

// DistributionOption configures a Timer or DistributionSummary at creation.
type DistributionOption func(*distributionConfig)

// Percentiles asks the registry to publish a synthetic ".percentile" gauge
// per quantile, tagged with phi. Values outside (0, 1] are kept as given and
// simply report NaN.
func Percentiles(phis ...float64) DistributionOption {
	return func(c *distributionConfig) {
		c.percentiles = append(c.percentiles, phis...)
	}
}

// Buckets asks the registry to publish a synthetic ".histogram" gauge per
// bound, tagged with le, carrying the cumulative count of samples at or
// below the bound. Bounds are in milliseconds for timers and in raw units
// for summaries. Non-finite bounds are ignored.
func Buckets(bounds ...float64) DistributionOption {
	return func(c *distributionConfig) {
		for _, b := range bounds {
			if math.IsNaN(b) || math.IsInf(b, 0) {
				continue
			}
			c.buckets = append(c.buckets, b)
		}
	}
}

// SampleRate applies client-side sampling to the pushed lines of a timer or
// summary. Sampled-out updates still count toward the meter's own state. The
// rate is clamped to (0, 1].
func SampleRate(rate float64) DistributionOption {
	return func(c *distributionConfig) {
		if rate > 0 && rate <= 1 {
			c.sampleRate = rate
		}
	}
}

// ReservoirSize bounds the percentile sample buffer.
func ReservoirSize(n int) DistributionOption {
	return func(c *distributionConfig) {
		if n > 0 {
			c.reservoirSize = n
		}
	}
}

// Scale multiplies every recorded summary amount before it is kept or
// published.
func Scale(factor float64) DistributionOption {
	return func(c *distributionConfig) {
		if !math.IsNaN(factor) && !math.IsInf(factor, 0) && factor != 0 {
			c.scale = factor
		}
	}
}

func resolveDistributionConfig(opts []DistributionOption) distributionConfig {
	c := distributionConfig{
		sampleRate:    1,
		reservoirSize: DefaultReservoirSize,
		scale:         1,
	}
	for _, opt := range opts {
		opt(&c)
	}
	sort.Float64s(c.buckets)
	return c
}

// reservoir keeps the most recent samples in a fixed-size channel ring.
// When full, the oldest sample is dropped to make room, so percentiles track
// recent behavior instead of the whole process lifetime.
type reservoir struct {
	data chan float64
}

func newReservoir(size int) *reservoir {
	return &reservoir{data: make(chan float64, size)}
}

func (r *reservoir) record(v float64) {
	select {
	case r.data <- v:
	default:
		// Full: drop the oldest sample, then try once more. Losing the new
		// sample on a concurrent refill is acceptable.
		select {
		case <-r.data:
		default:
		}
		select {
		case r.data <- v:
		default:
		}
	}
}

// values drains the ring into a slice and feeds each sample back, so a read
// does not reset the reservoir.
func (r *reservoir) values() []float64 {
	l := len(r.data)
	arr := make([]float64, 0, l)

	for len(arr) < l {
		select {
		case v := <-r.data:
			arr = append(arr, v)
			r.record(v)
		default:
			return arr
		}
	}
	return arr
}

// percentileOf returns the nearest-rank percentile of the samples, NaN when
// there are none.
func percentileOf(samples []float64, phi float64) float64 {
	if len(samples) == 0 || math.IsNaN(phi) || phi <= 0 || phi > 1 {
		return math.NaN()
	}

	sorted := make([]float64, len(samples))
	copy(sorted, samples)
	sort.Float64s(sorted)

	rank := int(math.Ceil(phi * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

// stepMax tracks the maximum over a rotating pair of step windows. Reads see
// the larger of the current and previous window, so a spike stays visible
// for at least one full step after it happens.
type stepMax struct {
	mu       sync.Mutex
	clock    Clock
	step     time.Duration
	rotateAt time.Time
	current  float64
	previous float64
}

func newStepMax(clock Clock, step time.Duration) *stepMax {
	return &stepMax{
		clock:    clock,
		step:     step,
		rotateAt: clock.Now().Add(step),
	}
}

func (m *stepMax) record(v float64) {
	m.mu.Lock()
	m.rotate()
	if v > m.current {
		m.current = v
	}
	m.mu.Unlock()
}

func (m *stepMax) value() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotate()
	if m.previous > m.current {
		return m.previous
	}
	return m.current
}

// rotate shifts windows forward. Callers hold mu.
func (m *stepMax) rotate() {
	now := m.clock.Now()
	if now.Before(m.rotateAt) {
		return
	}
	if now.Before(m.rotateAt.Add(m.step)) {
		m.previous = m.current
	} else {
		// Idle past a full step, both windows are stale.
		m.previous = 0
	}
	m.current = 0
	missed := time.Duration(now.Sub(m.rotateAt)/m.step) + 1
	m.rotateAt = m.rotateAt.Add(missed * m.step)
}

// bucketCounts keeps a cumulative sample count per configured upper bound.
type bucketCounts struct {
	bounds []float64
	counts []int64
}

func newBucketCounts(bounds []float64) *bucketCounts {
	if len(bounds) == 0 {
		return nil
	}
	return &bucketCounts{
		bounds: bounds,
		counts: make([]int64, len(bounds)),
	}
}

func (b *bucketCounts) record(v float64) {
	if b == nil {
		return
	}
	for i := len(b.bounds) - 1; i >= 0; i-- {
		if v > b.bounds[i] {
			break
		}
		atomic.AddInt64(&b.counts[i], 1)
	}
}

func (b *bucketCounts) count(i int) int64 {
	return atomic.LoadInt64(&b.counts[i])
}
