// =============================================================================
// PIXID Invoice Corrector - Document Fixer
// =============================================================================
//
// The fixer applies an AdjustmentSet to a PIXID document. It works on a deep
// copy: the source tree is never modified, and the returned tree shares no
// node with it.
//
// STEPS (in order):
//   1. Timecards: rewrite the period and drop intervals outside of it
//   2. Lines: remove or rewrite each line matched to an adjustment
//   3. Header: totals and the invoiced hours annotation
//   4. Period markers DEB_PER / FIN_PER
//
// =============================================================================

package fixer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/parser"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/types"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/xmltree"
)

// ErrNoDocument is returned when Fix is given a nil tree.
var ErrNoDocument = errors.New("no document to fix")

// Fixer applies AdjustmentSets.
type Fixer struct {
	logger zerolog.Logger
}

// New creates a Fixer.
func New(logger zerolog.Logger) *Fixer {
	return &Fixer{logger: logger}
}

// Fix applies adj to a copy of src.
func Fix(src *etree.Document, adj *types.AdjustmentSet) (*etree.Document, error) {
	return New(zerolog.Nop()).Fix(src, adj)
}

// Fix applies adj to a copy of src and returns the copy.
func (f *Fixer) Fix(src *etree.Document, adj *types.AdjustmentSet) (*etree.Document, error) {
	if src == nil || src.Root() == nil {
		return nil, ErrNoDocument
	}
	if adj == nil {
		return nil, fmt.Errorf("no adjustment set")
	}

	doc := xmltree.Clone(src)
	loc := xmltree.NewLocator(doc)

	invoice := parser.FindInvoice(doc, loc)
	if invoice == nil {
		return nil, &parser.DocumentStructureError{Reason: "missing Invoice element", Err: parser.ErrNoInvoice}
	}

	f.fixTimecards(invoice, loc, adj)
	f.fixLines(invoice, loc, adj)

	if header := loc.Find(invoice, ".//Header"); header != nil {
		f.fixHeader(header, loc, adj)
	}

	return doc, nil
}

// =============================================================================
// TIMECARDS
// =============================================================================

func (f *Fixer) fixTimecards(invoice *etree.Element, loc *xmltree.Locator, adj *types.AdjustmentSet) {
	start, okS := types.ParseDate(adj.TargetPeriodStart)
	end, okE := types.ParseDate(adj.TargetPeriodEnd)

	for _, card := range loc.FindAll(invoice, ".//TimeCard") {
		xmltree.SetText(loc.Find(card, ".//PeriodStartDate"), adj.TargetPeriodStart)
		xmltree.SetText(loc.Find(card, ".//PeriodEndDate"), adj.TargetPeriodEnd)

		if !okS || !okE {
			continue
		}
		for _, interval := range loc.FindAll(card, ".//TimeInterval") {
			if outside(xmltree.Text(loc.Find(interval, ".//StartDateTime")), start, end) ||
				outside(xmltree.Text(loc.Find(interval, ".//EndDateTime")), start, end) {
				f.logger.Debug().
					Str("type", interval.SelectAttrValue("type", "")).
					Msg("removing time interval outside target period")
				xmltree.Remove(interval)
			}
		}
	}
}

// outside reports whether a timestamp falls outside [start, end]. Missing or
// malformed timestamps are kept.
func outside(stamp string, start, end time.Time) bool {
	day, ok := types.ParseDate(stamp)
	if !ok {
		return false
	}
	return day.Before(start) || day.After(end)
}

// =============================================================================
// LINES
// =============================================================================

func (f *Fixer) fixLines(invoice *etree.Element, loc *xmltree.Locator, adj *types.AdjustmentSet) {
	consumed := make(map[string]bool, len(adj.Order))

	for i, line := range loc.FindAll(invoice, ".//Line") {
		descEl := loc.Find(line, ".//Description")
		desc := xmltree.Text(descEl)

		key := match(desc, i, adj.Order, consumed)
		if key == "" {
			f.logger.Warn().Str("description", desc).Msg("no adjustment matches line, left unchanged")
			continue
		}
		consumed[key] = true
		a := adj.Lines[key]

		if a.Action == types.ActionRemove {
			xmltree.Remove(line)
			f.logger.Debug().Str("line", key).Msg("line removed")
			continue
		}

		xmltree.SetText(loc.Find(line, ".//ItemQuantity"), a.NewQuantity.StringFixed(2))
		xmltree.SetText(loc.Find(line, ".//Charges/Charge/Total"), a.NewAmount.StringFixed(2))
		if descEl != nil {
			descEl.SetText(RewritePeriod(desc, adj.TargetPeriodStart, adj.TargetPeriodEnd))
		}
	}
}

// match picks the adjustment key for a line: an exact key match first, then
// key containment in either direction. Each key is used at most once.
// Lines without a description only match their positional key.
func match(desc string, index int, order []string, consumed map[string]bool) string {
	if desc == "" {
		key := fmt.Sprintf("line-%d", index+1)
		for _, k := range order {
			if k == key && !consumed[k] {
				return k
			}
		}
		return ""
	}

	for _, k := range order {
		if !consumed[k] && (k == desc || strings.HasPrefix(k, desc+" #")) {
			return k
		}
	}
	for _, k := range order {
		if !consumed[k] && (strings.Contains(k, desc) || strings.Contains(desc, k)) {
			return k
		}
	}
	return ""
}

// =============================================================================
// HEADER
// =============================================================================

func (f *Fixer) fixHeader(header *etree.Element, loc *xmltree.Locator, adj *types.AdjustmentSet) {
	xmltree.SetText(loc.Find(header, ".//TotalCharges"), adj.NewTotalCharges.StringFixed(2))
	xmltree.SetText(loc.Find(header, ".//TotalTax"), adj.NewTotalTax.StringFixed(2))
	xmltree.SetText(loc.Find(header, ".//TotalAmount"), adj.NewTotalAmount.StringFixed(2))

	xmltree.SetText(loc.FindByOwner(header, "Description", parser.OwnerHoursCount), adj.TargetHours.StringFixed(2))
	xmltree.SetText(loc.FindByOwner(header, "Description", parser.OwnerPeriodStart), adj.TargetPeriodStart)
	xmltree.SetText(loc.FindByOwner(header, "Description", parser.OwnerPeriodEnd), adj.TargetPeriodEnd)
}
