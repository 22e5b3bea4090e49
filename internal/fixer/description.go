package fixer

import (
	"regexp"
	"time"
)

// Date layouts found in line descriptions.
const (
	layoutISO    = "2006-01-02"
	layoutFrench = "02/01/2006"
)

var (
	rangeFR = regexp.MustCompile(`(?i)(\s+)du(\s+)(\S+)\s+au\s+(\S+)`)
	rangeEN = regexp.MustCompile(`(?i)(\s+)from(\s+)(\S+)\s+to\s+(\S+)`)

	isoDate    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	frenchDate = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
)

// RewritePeriod replaces the date range of a description ("du X au Y" or
// "from X to Y") with the target period, in the layout of the original
// dates. A single-day target collapses to "du X" / "on X". Descriptions
// without a range are returned unchanged.
func RewritePeriod(desc, start, end string) string {
	if loc := rangeFR.FindStringSubmatchIndex(desc); loc != nil {
		layout := dateLayout(desc[loc[6]:loc[7]])
		s, e := format(start, layout), format(end, layout)
		repl := desc[loc[2]:loc[3]] + "du" + desc[loc[4]:loc[5]] + s
		if s != e {
			repl += " au " + e
		}
		return desc[:loc[0]] + repl + desc[loc[1]:]
	}
	if loc := rangeEN.FindStringSubmatchIndex(desc); loc != nil {
		layout := dateLayout(desc[loc[6]:loc[7]])
		s, e := format(start, layout), format(end, layout)
		var repl string
		if s == e {
			repl = desc[loc[2]:loc[3]] + "on" + desc[loc[4]:loc[5]] + s
		} else {
			repl = desc[loc[2]:loc[3]] + "from" + desc[loc[4]:loc[5]] + s + " to " + e
		}
		return desc[:loc[0]] + repl + desc[loc[1]:]
	}
	return desc
}

func dateLayout(sample string) string {
	switch {
	case frenchDate.MatchString(sample):
		return layoutFrench
	case isoDate.MatchString(sample):
		return layoutISO
	default:
		return ""
	}
}

// format renders an ISO target date in layout. Targets that are not ISO
// dates, or an unknown layout, leave the target text as is.
func format(date, layout string) string {
	if layout == "" {
		return date
	}
	t, err := time.Parse(layoutISO, date)
	if err != nil {
		return date
	}
	return t.Format(layout)
}
