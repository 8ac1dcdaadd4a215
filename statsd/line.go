package statsd

import (
	"math"
	"strconv"
)

var (
	gaugeSymbol     = []byte("g")
	countSymbol     = []byte("c")
	timingSymbol    = []byte("ms")
	histogramSymbol = []byte("h")
)

// lineBuilder serializes one meter's updates into protocol lines. The name
// and tag sections only depend on the identifier and the flavor, so they are
// rendered once when the meter is created; encoding an update then appends
// the value between the two precomputed halves. Builders are pure and safe
// for concurrent use.
type lineBuilder struct {
	// prefix is "<name>:" with the flavor's naming convention applied and,
	// for Telegraf, the ",key=value" tag section folded into the name.
	prefix string
	// suffix is the trailing "|#key:value" tag section for Datadog, empty
	// for every other flavor.
	suffix string
	// histSymbol is "h" where the dialect supports it, "ms" for the Etsy and
	// plain daemons which predate the histogram type.
	histSymbol []byte
}

func newLineBuilder(id ID, flavor Flavor, mapper NameMapper) *lineBuilder {
	b := &lineBuilder{histSymbol: histogramSymbol}

	switch flavor {
	case FlavorTelegraf:
		name := make([]byte, 0, 64)
		name = append(name, flavor.convertName(id.Name)...)
		for _, tag := range id.Tags {
			name = append(name, ',')
			name = append(name, flavor.convertTagKey(tag.Key)...)
			name = append(name, '=')
			name = append(name, flavor.convertTagValue(tag.Value)...)
		}
		b.prefix = string(append(name, ':'))

	case FlavorEtsy:
		b.prefix = sanitize(mapper(id), ":|,") + ":"
		b.histSymbol = timingSymbol

	case FlavorPlain:
		b.prefix = flavor.convertName(id.Name) + ":"
		b.histSymbol = timingSymbol

	default: // FlavorDatadog
		b.prefix = flavor.convertName(id.Name) + ":"
		if len(id.Tags) > 0 {
			suffix := make([]byte, 0, 64)
			suffix = append(suffix, "|#"...)
			for i, tag := range id.Tags {
				if i > 0 {
					suffix = append(suffix, ',')
				}
				suffix = append(suffix, flavor.convertTagKey(tag.Key)...)
				suffix = append(suffix, ':')
				suffix = append(suffix, flavor.convertTagValue(tag.Value)...)
			}
			b.suffix = string(suffix)
		}
	}

	return b
}

// count renders a "|c" line. Returns "" for values that have no protocol
// representation; the caller drops those updates.
func (b *lineBuilder) count(value float64, rate float64) string {
	return b.line(countSymbol, value, rate)
}

func (b *lineBuilder) gauge(value float64) string {
	return b.line(gaugeSymbol, value, 1)
}

func (b *lineBuilder) timing(value float64, rate float64) string {
	return b.line(timingSymbol, value, rate)
}

func (b *lineBuilder) histogram(value float64, rate float64) string {
	return b.line(b.histSymbol, value, rate)
}

func (b *lineBuilder) line(symbol []byte, value float64, rate float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return ""
	}

	buffer := make([]byte, 0, len(b.prefix)+len(b.suffix)+len(symbol)+24)
	buffer = append(buffer, b.prefix...)
	buffer = strconv.AppendFloat(buffer, value, 'f', -1, 64)
	buffer = append(buffer, '|')
	buffer = append(buffer, symbol...)
	buffer = appendRate(buffer, rate)
	buffer = append(buffer, b.suffix...)
	return string(buffer)
}

func appendRate(buffer []byte, rate float64) []byte {
	if rate < 1 {
		buffer = append(buffer, "|@"...)
		buffer = strconv.AppendFloat(buffer, rate, 'f', -1, 64)
	}
	return buffer
}
