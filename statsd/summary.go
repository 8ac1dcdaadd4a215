package statsd

import (
	"math"
	"sync/atomic"
)

// DistributionSummary is a push meter for arbitrary sample distributions,
// request sizes, batch counts and the like. Every recorded amount goes out
// immediately as a histogram line ("h", or "ms" for dialects without it).
type DistributionSummary struct {
	reg  *Registry
	line *lineBuilder

	count   atomic.Int64
	total   atomic.Uint64
	max     *stepMax
	res     *reservoir
	buckets *bucketCounts
	rate    float64
	scale   float64
}

func newDistributionSummary(reg *Registry, line *lineBuilder, cfg distributionConfig) *DistributionSummary {
	return &DistributionSummary{
		reg:     reg,
		line:    line,
		max:     newStepMax(reg.opts.Clock, reg.opts.Step),
		res:     newReservoir(cfg.reservoirSize),
		buckets: newBucketCounts(cfg.buckets),
		rate:    cfg.sampleRate,
		scale:   cfg.scale,
	}
}

// Record adds one sample, multiplied by the configured scale. Negative and
// non-finite amounts are ignored.
func (s *DistributionSummary) Record(v float64) {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	v *= s.scale

	s.count.Add(1)
	addFloat64(&s.total, v)
	s.max.record(v)
	s.res.record(v)
	s.buckets.record(v)

	if shouldSample(s.rate) {
		s.reg.publish(s.line.histogram(v, s.rate))
	}
}

// Count returns the number of samples recorded since creation.
func (s *DistributionSummary) Count() int64 {
	return s.count.Load()
}

// TotalAmount returns the sum of all recorded samples after scaling.
func (s *DistributionSummary) TotalAmount() float64 {
	return loadFloat64(&s.total)
}

// Mean returns the average sample, zero before the first one.
func (s *DistributionSummary) Mean() float64 {
	n := s.count.Load()
	if n == 0 {
		return 0
	}
	return loadFloat64(&s.total) / float64(n)
}

// Max returns the largest sample seen inside the current step window.
func (s *DistributionSummary) Max() float64 {
	return s.max.value()
}

// Percentile estimates the phi percentile over the retained samples, NaN
// when nothing has been recorded yet.
func (s *DistributionSummary) Percentile(phi float64) float64 {
	return percentileOf(s.res.values(), phi)
}

func (s *DistributionSummary) bucketCount(i int) float64 {
	return float64(s.buckets.count(i))
}
