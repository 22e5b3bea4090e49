package parser

import (
	"github.com/beevik/etree"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/types"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/xmltree"
)

// unknownIntervalType labels intervals without a type attribute.
const unknownIntervalType = "Unknown"

// detectTimecardsPosition looks under the header first, then under lines.
func detectTimecardsPosition(invoice *etree.Element, loc *xmltree.Locator) types.TimecardsPosition {
	if loc.Find(invoice, ".//Header//TimeCard") != nil {
		return types.TimecardsInHeader
	}
	if loc.Find(invoice, ".//Line//TimeCard") != nil {
		return types.TimecardsInLine
	}
	return types.TimecardsNone
}

func timecards(invoice *etree.Element, loc *xmltree.Locator, position types.TimecardsPosition) []*etree.Element {
	switch position {
	case types.TimecardsInHeader:
		return loc.FindAll(invoice, ".//Header//TimeCard")
	case types.TimecardsInLine:
		return loc.FindAll(invoice, ".//Line//TimeCard")
	default:
		return nil
	}
}

// parseTimecards aggregates the RAF period and quantities. With several
// timecards the period spans the earliest start to the latest end.
func (x *Extractor) parseTimecards(record *types.InvoiceRecord, cards []*etree.Element, loc *xmltree.Locator) {
	for _, card := range cards {
		if start := xmltree.Text(loc.Find(card, ".//PeriodStartDate")); start != "" {
			if record.PeriodStart == "" || before(start, record.PeriodStart) {
				record.PeriodStart = start
			}
		}
		if end := xmltree.Text(loc.Find(card, ".//PeriodEndDate")); end != "" {
			if record.PeriodEnd == "" || before(record.PeriodEnd, end) {
				record.PeriodEnd = end
			}
		}

		for _, interval := range loc.FindAll(card, ".//TimeInterval") {
			label := interval.SelectAttrValue("type", unknownIntervalType)

			value, ok := x.number(loc.Find(interval, ".//Duration"), "TimeInterval/Duration")
			if !ok {
				value, _ = x.number(loc.Find(interval, ".//Quantity"), "TimeInterval/Quantity")
			}

			record.RAFDetails.Add(label, value)
			if types.IsHoursLabel(label) {
				record.RAFHours = record.RAFHours.Add(value)
			}
		}
	}
}

// before reports whether date a is strictly earlier than date b. Dates that
// do not parse never replace an existing value.
func before(a, b string) bool {
	ta, okA := types.ParseDate(a)
	tb, okB := types.ParseDate(b)
	if !okA || !okB {
		return false
	}
	return ta.Before(tb)
}
