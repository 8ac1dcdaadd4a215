package otel

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/meterkit/statsd-go/statsd"
)

// attrsToTags flattens the provider resource and the measurement attributes
// into registry tags, resource attributes first. Both sources are already
// sorted by key, which keeps the tag order stable across observations.
func attrsToTags(res *resource.Resource, attrs attribute.Set) []statsd.Tag {
	resAttrs := res.Attributes()
	tags := make([]statsd.Tag, 0, len(resAttrs)+attrs.Len())
	for _, kv := range resAttrs {
		tags = append(tags, keyValueToTag(kv))
	}
	for _, kv := range attrs.ToSlice() {
		tags = append(tags, keyValueToTag(kv))
	}
	return tags
}

func keyValueToTag(kv attribute.KeyValue) statsd.Tag {
	return statsd.NewTag(string(kv.Key), kv.Value.Emit())
}
