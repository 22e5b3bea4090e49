package types

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// hoursMarkers identify interval type labels and line descriptions that
// carry worked hours.
var hoursMarkers = []string{"heure", "hour"}

// hoursUnits are the unit-of-measure codes for hours.
var hoursUnits = []string{"HUR"}

// IsHoursLabel reports whether a type label or description denotes hours.
func IsHoursLabel(label string) bool {
	lower := strings.ToLower(label)
	for _, marker := range hoursMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// IsHoursUnit reports whether a uom code denotes hours.
func IsHoursUnit(unit string) bool {
	for _, u := range hoursUnits {
		if strings.EqualFold(strings.TrimSpace(unit), u) {
			return true
		}
	}
	return false
}

// RoundCents rounds half away from zero to two decimals.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseDate parses a free-text date and truncates it to the calendar day.
// Slash dates are read day first (30/06/2025, 01/07/2025 is July 1st);
// month-first text is only accepted when it cannot be read that way.
// The second return value is false when the text is not a date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false))
	if err != nil {
		if t, err = dateparse.ParseAny(s); err != nil {
			return time.Time{}, false
		}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}

// SameDay compares two date strings by calendar day, falling back to a
// plain string comparison when either side does not parse.
func SameDay(a, b string) bool {
	ta, okA := ParseDate(a)
	tb, okB := ParseDate(b)
	if okA && okB {
		return ta.Equal(tb)
	}
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

func marshalOrdered(q *Quantities) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if q != nil {
		for i, key := range q.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(key)
			if err != nil {
				return nil, err
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.WriteString(q.values[key].String())
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func yamlOrdered(q *Quantities) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	if q == nil {
		return node
	}
	for _, key := range q.keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Value: q.values[key].String()},
		)
	}
	return node
}
