package statsd

import (
	"math"
	"math/rand"
	"sync/atomic"
)

// shouldSample decides whether an update survives client-side sampling.
// The unseeded package-level source in math/rand is sharded per P, so concurrent
// meters do not contend on a shared lock.
func shouldSample(rate float64) bool {
	if rate >= 1 {
		return true
	}

	if rand.Float64() > rate {
		return false
	}
	return true
}

// addFloat64 atomically adds delta to a float64 stored as its IEEE bits.
func addFloat64(bits *atomic.Uint64, delta float64) {
	for {
		old := bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if bits.CompareAndSwap(old, next) {
			return
		}
	}
}

func loadFloat64(bits *atomic.Uint64) float64 {
	return math.Float64frombits(bits.Load())
}

func storeFloat64(bits *atomic.Uint64, v float64) {
	bits.Store(math.Float64bits(v))
}
