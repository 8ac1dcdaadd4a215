package statsd

import (
	"math"
	"sync/atomic"
	"time"
)

// Timer is a push meter for durations: every recorded sample goes out
// immediately as a timing line in milliseconds. The timer also keeps enough
// local state to answer Count, TotalTime, Mean, Max and Percentile, and to
// feed the synthetic percentile and histogram gauges configured at creation.
type Timer struct {
	reg  *Registry
	line *lineBuilder

	count   atomic.Int64
	totalMs atomic.Uint64
	max     *stepMax
	res     *reservoir
	buckets *bucketCounts
	rate    float64
}

func newTimer(reg *Registry, line *lineBuilder, cfg distributionConfig) *Timer {
	return &Timer{
		reg:     reg,
		line:    line,
		max:     newStepMax(reg.opts.Clock, reg.opts.Step),
		res:     newReservoir(cfg.reservoirSize),
		buckets: newBucketCounts(cfg.buckets),
		rate:    cfg.sampleRate,
	}
}

// Record adds one duration sample. Negative durations are ignored. When a
// sample rate below 1 is configured the line may be sampled out, the local
// statistics still see every sample.
func (t *Timer) Record(d time.Duration) {
	if d < 0 {
		return
	}
	ms := float64(d) / float64(time.Millisecond)

	t.count.Add(1)
	addFloat64(&t.totalMs, ms)
	t.max.record(ms)
	t.res.record(ms)
	t.buckets.record(ms)

	if shouldSample(t.rate) {
		t.reg.publish(t.line.timing(ms, t.rate))
	}
}

// Time runs fn and records how long it took.
func (t *Timer) Time(fn func()) {
	start := t.reg.opts.Clock.Now()
	fn()
	t.Record(t.reg.opts.Clock.Now().Sub(start))
}

// Count returns the number of samples recorded since creation.
func (t *Timer) Count() int64 {
	return t.count.Load()
}

// TotalTime returns the sum of all recorded durations.
func (t *Timer) TotalTime() time.Duration {
	return msToDuration(loadFloat64(&t.totalMs))
}

// Mean returns the average recorded duration, zero before the first sample.
func (t *Timer) Mean() time.Duration {
	n := t.count.Load()
	if n == 0 {
		return 0
	}
	return msToDuration(loadFloat64(&t.totalMs) / float64(n))
}

// Max returns the largest duration seen inside the current step window.
func (t *Timer) Max() time.Duration {
	return msToDuration(t.max.value())
}

// Percentile estimates the phi percentile over the retained samples, zero
// when nothing has been recorded yet.
func (t *Timer) Percentile(phi float64) time.Duration {
	return msToDuration(t.percentileMs(phi))
}

func (t *Timer) percentileMs(phi float64) float64 {
	return percentileOf(t.res.values(), phi)
}

func (t *Timer) bucketCount(i int) float64 {
	return float64(t.buckets.count(i))
}

func msToDuration(ms float64) time.Duration {
	if math.IsNaN(ms) || ms <= 0 {
		return 0
	}
	return time.Duration(ms * float64(time.Millisecond))
}
