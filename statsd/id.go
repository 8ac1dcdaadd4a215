package statsd

import (
	"strings"

	"github.com/twmb/murmur3"
)

// Tag is a single key/value dimension attached to a meter.
type Tag struct {
	Key   string
	Value string
}

// NewTag returns a Tag with the given key and value.
func NewTag(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// ID identifies a meter by name and ordered tags. Two meters with the same
// name but different tags are distinct time series.
type ID struct {
	Name string
	Tags []Tag
}

func newID(name string, tags []Tag) ID {
	return ID{Name: name, Tags: copyTags(tags)}
}

// withTag returns a copy of the ID with an extra tag appended. Used for the
// synthetic series derived from a meter (percentiles, histogram buckets,
// statistics of composite meters).
func (id ID) withTag(tag Tag) ID {
	tags := make([]Tag, 0, len(id.Tags)+1)
	tags = append(tags, id.Tags...)
	tags = append(tags, tag)
	return ID{Name: id.Name, Tags: tags}
}

func (id ID) withSuffix(suffix string) ID {
	return ID{Name: id.Name + suffix, Tags: id.Tags}
}

func copyTags(src []Tag) []Tag {
	if src == nil {
		return nil
	}

	c := make([]Tag, len(src))
	copy(c, src)
	return c
}

// Statistic describes what a measurement of a composite meter represents. It
// decides whether the poller reports the value as a count or as a gauge.
type Statistic uint8

const (
	StatCount Statistic = iota
	StatTotal
	StatTotalTime
	StatValue
	StatActiveTasks
	StatDuration
	StatUnknown
)

func (s Statistic) String() string {
	switch s {
	case StatCount:
		return "count"
	case StatTotal:
		return "total"
	case StatTotalTime:
		return "total_time"
	case StatValue:
		return "value"
	case StatActiveTasks:
		return "active_tasks"
	case StatDuration:
		return "duration"
	default:
		return "unknown"
	}
}

// counter reports whether values carrying this statistic go out as count
// lines. Everything else is reported as a gauge.
func (s Statistic) counter() bool {
	switch s {
	case StatCount, StatTotal, StatTotalTime:
		return true
	}
	return false
}

// Measurement is one sampled value of a composite meter registered through
// RegisterMeter.
type Measurement struct {
	Stat  Statistic
	Value func() float64
}

type meterKind uint8

const (
	counterKind meterKind = iota
	gaugeKind
	timerKind
	summaryKind
	functionCounterKind
	functionTimerKind
	longTaskKind
	customKind
)

// meterKey is the registry map key. The kind is part of the key so that a
// re-registration under the same name with a different meter type yields an
// independent meter instead of a panic or a miscast.
type meterKey struct {
	kind  meterKind
	ident string
}

const identSeparator = "\x00"

func newMeterKey(kind meterKind, id ID) meterKey {
	var b strings.Builder
	b.WriteString(id.Name)
	for _, tag := range id.Tags {
		b.WriteString(identSeparator)
		b.WriteString(tag.Key)
		b.WriteString(identSeparator)
		b.WriteString(tag.Value)
	}
	return meterKey{kind: kind, ident: b.String()}
}

func hashMeterKey(k meterKey) uint64 {
	return murmur3.SeedStringSum64(uint64(k.kind), k.ident)
}
