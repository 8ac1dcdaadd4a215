package statsd

import (
	"math"
	"strconv"
	"strings"
)

// Flavor selects the StatsD dialect spoken on the wire. It is fixed when the
// registry is created and drives both the naming convention and the way tags
// are serialized.
type Flavor uint8

const (
	// FlavorDatadog emits dotted names with tags in a trailing "|#key:value"
	// section.
	FlavorDatadog Flavor = iota
	// FlavorEtsy emits camelCase hierarchical names. Tags are folded into the
	// name by the registry's NameMapper since the Etsy daemon has no tag
	// syntax.
	FlavorEtsy
	// FlavorTelegraf emits snake_case names with ",key=value" tags appended
	// to the name section.
	FlavorTelegraf
	// FlavorPlain emits dotted names and drops tags entirely, for standard
	// StatsD daemons that understand neither tag syntax.
	FlavorPlain
)

func (f Flavor) String() string {
	switch f {
	case FlavorDatadog:
		return "datadog"
	case FlavorEtsy:
		return "etsy"
	case FlavorTelegraf:
		return "telegraf"
	case FlavorPlain:
		return "plain"
	default:
		return "unknown"
	}
}

// NameMapper flattens an identifier into a single hierarchical name for
// flavors without tag support. The result is sanitized but otherwise used
// verbatim.
type NameMapper func(id ID) string

// HierarchicalNameMapper is the default NameMapper. It appends each tag as a
// ".key.value" pair of camelCase segments after the camelCase name, so
// requests{host=a} becomes "requests.host.a".
func HierarchicalNameMapper(id ID) string {
	var b strings.Builder
	b.WriteString(toCamelCase(id.Name))
	for _, tag := range id.Tags {
		b.WriteByte('.')
		b.WriteString(toCamelCase(tag.Key))
		b.WriteByte('.')
		b.WriteString(toCamelCase(tag.Value))
	}
	return b.String()
}

func (f Flavor) convertName(name string) string {
	switch f {
	case FlavorTelegraf:
		return toSnakeCase(name)
	case FlavorEtsy:
		return toCamelCase(name)
	default:
		return sanitize(name, ":|,")
	}
}

func (f Flavor) convertTagKey(key string) string {
	switch f {
	case FlavorTelegraf:
		return toSnakeCase(key)
	case FlavorEtsy:
		return toCamelCase(key)
	default:
		return sanitize(key, ":|,")
	}
}

func (f Flavor) convertTagValue(value string) string {
	switch f {
	case FlavorTelegraf:
		return sanitize(value, ",= |")
	case FlavorEtsy:
		return toCamelCase(value)
	default:
		return sanitize(value, ",|")
	}
}

// sanitize strips newlines and replaces the flavor-reserved runes with '_' so
// a hostile tag value cannot break the line grammar.
func sanitize(s, reserved string) string {
	if strings.IndexByte(s, '\n') == -1 && !strings.ContainsAny(s, reserved) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n':
		case strings.ContainsRune(reserved, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// toSnakeCase lowers camel humps into underscores and replaces everything
// outside [a-zA-Z0-9_] with '_': "myCounter.rate" -> "my_counter_rate".
func toSnakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	prevLower := false
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			if prevLower {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			prevLower = false
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_':
			b.WriteRune(r)
			prevLower = r >= 'a' && r <= 'z'
		default:
			b.WriteByte('_')
			prevLower = false
		}
	}
	return b.String()
}

// toCamelCase joins dot, dash, underscore and space separated words into a
// single camelCase segment: "my.counter" -> "myCounter".
func toCamelCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	upperNext := false
	first := true
	for _, r := range s {
		switch r {
		case '.', '-', '_', ' ', ':', '|', ',', '\n':
			if !first {
				upperNext = true
			}
		default:
			if upperNext && r >= 'a' && r <= 'z' {
				b.WriteRune(r - ('a' - 'A'))
			} else {
				b.WriteRune(r)
			}
			upperNext = false
			first = false
		}
	}
	return b.String()
}

// fmtFloat renders a value the short way: whole numbers carry no decimal
// point, so a count of 5.0 goes out as "5".
func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// fmtPhi renders a percentile for the "phi" tag, "nan" when undefined.
func fmtPhi(phi float64) string {
	if math.IsNaN(phi) {
		return "nan"
	}
	return fmtFloat(phi)
}

// fmtBound renders a histogram bucket bound for the "le" tag, whole numbers
// without a decimal point.
func fmtBound(bound float64) string {
	return fmtFloat(bound)
}
