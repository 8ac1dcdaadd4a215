package statsd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "requests", toSnakeCase("requests"))
	assert.Equal(t, "my_counter", toSnakeCase("myCounter"))
	assert.Equal(t, "my_counter_rate", toSnakeCase("my.counter.rate"))
	assert.Equal(t, "my_counter", toSnakeCase("MyCounter"))
	assert.Equal(t, "http2xx", toSnakeCase("http2xx"))
	assert.Equal(t, "jvm_gc_ps_mark_sweep", toSnakeCase("jvm.gc.PS-MarkSweep"))
}

func TestToCamelCase(t *testing.T) {
	assert.Equal(t, "requests", toCamelCase("requests"))
	assert.Equal(t, "myCounter", toCamelCase("my.counter"))
	assert.Equal(t, "myCounterRate", toCamelCase("my.counter.rate"))
	assert.Equal(t, "myCounter", toCamelCase("my-counter"))
	assert.Equal(t, "myCounter", toCamelCase("my_counter"))
	assert.Equal(t, "myCounter", toCamelCase("my counter"))
	assert.Equal(t, "GET", toCamelCase("GET"))
	assert.Equal(t, "leading", toCamelCase(".leading"))
}

func TestHierarchicalNameMapper(t *testing.T) {
	id := newID("http.server.requests", []Tag{
		{Key: "method", Value: "GET"},
		{Key: "status.code", Value: "200"},
	})
	assert.Equal(t, "httpServerRequests.method.GET.statusCode.200", HierarchicalNameMapper(id))
}

func TestHierarchicalNameMapperNoTags(t *testing.T) {
	assert.Equal(t, "myCounter", HierarchicalNameMapper(newID("my.counter", nil)))
}

func TestSanitizeFastPath(t *testing.T) {
	s := "already.clean"
	assert.Equal(t, s, sanitize(s, ":|,"))
}

func TestSanitizeReserved(t *testing.T) {
	assert.Equal(t, "a_b_c_d", sanitize("a:b|c,d", ":|,"))
}

func TestFlavorString(t *testing.T) {
	assert.Equal(t, "datadog", FlavorDatadog.String())
	assert.Equal(t, "etsy", FlavorEtsy.String())
	assert.Equal(t, "telegraf", FlavorTelegraf.String())
	assert.Equal(t, "plain", FlavorPlain.String())
}

func TestFmtFloat(t *testing.T) {
	assert.Equal(t, "5", fmtFloat(5.0))
	assert.Equal(t, "0.5", fmtFloat(0.5))
	assert.Equal(t, "-4", fmtFloat(-4.0))
}

func TestFmtPhi(t *testing.T) {
	assert.Equal(t, "0.95", fmtPhi(0.95))
	assert.Equal(t, "nan", fmtPhi(math.NaN()))
}

func TestFmtBound(t *testing.T) {
	assert.Equal(t, "100", fmtBound(100.0))
	assert.Equal(t, "2.5", fmtBound(2.5))
}
