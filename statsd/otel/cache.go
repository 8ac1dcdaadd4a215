package otel

import "sync"

// cache is a locking store. Lookup runs f and remembers its result the
// first time a key is seen, so every caller gets the same value back.
type cache[K comparable, V any] struct {
	sync.Mutex
	data map[K]V
}

func (c *cache[K, V]) Lookup(key K, f func() V) V {
	c.Lock()
	defer c.Unlock()

	if c.data == nil {
		c.data = map[K]V{}
	}
	if v, ok := c.data[key]; ok {
		return v
	}
	v := f()
	c.data[key] = v
	return v
}

func (c *cache[K, V]) HasKey(key K) bool {
	c.Lock()
	defer c.Unlock()
	_, ok := c.data[key]
	return ok
}

type valAndErr[V any] struct {
	val V
	err error
}

// cacheWithErr remembers the value and the error of the first construction
// together, so repeated lookups return the same pair.
type cacheWithErr[K comparable, V any] struct {
	cache[K, valAndErr[V]]
}

func (c *cacheWithErr[K, V]) Lookup(key K, f func() (V, error)) (V, error) {
	combined := c.cache.Lookup(key, func() valAndErr[V] {
		val, err := f()
		return valAndErr[V]{val: val, err: err}
	})
	return combined.val, combined.err
}

func (c *cacheWithErr[K, V]) HasKey(key K) bool {
	return c.cache.HasKey(key)
}
