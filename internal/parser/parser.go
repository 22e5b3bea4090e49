// =============================================================================
// PIXID Invoice Corrector - Document Model Extractor
// =============================================================================
//
// This module turns a raw PIXID XML document into a types.InvoiceRecord. The
// record is namespace-agnostic: every lookup goes through xmltree.Locator,
// which tries a namespace-qualified match first and falls back to a local
// name match.
//
// EXTRACTION STEPS:
//   1. Parse the XML and locate the Invoice element (fatal if missing)
//   2. Read the invoice identifier
//   3. Detect where the timecards are anchored (header or lines)
//   4. Aggregate the timecards: RAF period, RAF hours, per-type details
//   5. Read the header totals, VAT rate and period annotations
//   6. Read the lines
//   7. Derive the invoiced hours from the lines
//
// ERROR HANDLING:
//   - Only a missing Invoice element (or unreadable XML) is an error
//   - Missing optional elements default to zero or empty
//   - Unparseable numbers default to zero and are logged at debug level
//
// =============================================================================

package parser

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/types"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/xmltree"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrNoInvoice is returned when the document has no Invoice element.
var ErrNoInvoice = errors.New("no invoice found in XML document")

// DocumentStructureError is the only fatal extraction failure. Everything
// else degrades to default values.
type DocumentStructureError struct {
	// Reason is a short human-readable cause.
	Reason string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *DocumentStructureError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("invalid document structure: %s", e.Reason)
	}
	return fmt.Sprintf("invalid document structure: %s: %v", e.Reason, e.Err)
}

// Unwrap returns the underlying error.
func (e *DocumentStructureError) Unwrap() error {
	return e.Err
}

// =============================================================================
// DOCUMENT
// =============================================================================

// Document bundles the parsed tree with the record extracted from it.
// Tree is the caller's read-only source; the fixer works on its own copy.
type Document struct {
	Tree    *etree.Document
	Invoice *etree.Element
	Locator *xmltree.Locator
	Record  *types.InvoiceRecord
}

// =============================================================================
// EXTRACTOR
// =============================================================================

// Extractor builds InvoiceRecords from XML.
type Extractor struct {
	logger zerolog.Logger
}

// NewExtractor creates an Extractor that reports recoverable anomalies to
// logger.
func NewExtractor(logger zerolog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract parses data and extracts its invoice record.
func Extract(data []byte) (*Document, error) {
	return NewExtractor(zerolog.Nop()).Extract(data)
}

// ExtractTree extracts the invoice record from an already parsed tree.
func ExtractTree(tree *etree.Document) (*Document, error) {
	return NewExtractor(zerolog.Nop()).ExtractTree(tree)
}

// Extract parses data and extracts its invoice record.
func (x *Extractor) Extract(data []byte) (*Document, error) {
	tree, err := xmltree.Parse(data)
	if err != nil {
		return nil, &DocumentStructureError{Reason: "malformed XML", Err: err}
	}
	return x.ExtractTree(tree)
}

// ExtractTree extracts the invoice record from tree without modifying it.
func (x *Extractor) ExtractTree(tree *etree.Document) (*Document, error) {
	loc := xmltree.NewLocator(tree)

	invoice := FindInvoice(tree, loc)
	if invoice == nil {
		return nil, &DocumentStructureError{Reason: "missing Invoice element", Err: ErrNoInvoice}
	}

	record := &types.InvoiceRecord{
		InvoiceID:    invoiceID(invoice, loc),
		VATRate:      types.DefaultVATRate,
		RAFDetails:   types.NewQuantities(),
		RAFHours:     decimal.Zero,
		InvoiceHours: decimal.Zero,
		Namespaces:   loc.Namespaces(),
	}

	record.TimecardsPosition = detectTimecardsPosition(invoice, loc)
	x.parseTimecards(record, timecards(invoice, loc, record.TimecardsPosition), loc)

	if header := loc.Find(invoice, ".//Header"); header != nil {
		x.parseHeader(record, header, loc)
	}

	for _, line := range loc.FindAll(invoice, ".//Line") {
		record.Lines = append(record.Lines, x.parseLine(line, loc))
	}

	record.InvoiceHours = invoiceHours(record.Lines)

	x.logger.Debug().
		Str("invoice_id", record.InvoiceID).
		Str("timecards", string(record.TimecardsPosition)).
		Str("raf_hours", record.RAFHours.String()).
		Str("invoice_hours", record.InvoiceHours.String()).
		Int("lines", len(record.Lines)).
		Msg("extracted invoice record")

	return &Document{Tree: tree, Invoice: invoice, Locator: loc, Record: record}, nil
}

// FindInvoice accepts the root itself or any descendant named Invoice.
func FindInvoice(tree *etree.Document, loc *xmltree.Locator) *etree.Element {
	root := tree.Root()
	if root == nil {
		return nil
	}
	if root.Tag == "Invoice" {
		return root
	}
	return loc.Find(root, ".//Invoice")
}

func invoiceID(invoice *etree.Element, loc *xmltree.Locator) string {
	if id := xmltree.Text(loc.Find(invoice, ".//Header/DocumentIds//Id")); id != "" {
		return id
	}
	return types.UnknownInvoiceID
}

// invoiceHours sums the quantities of hour lines billed in an hours unit.
// The RAF is not consulted; the detector compares both.
func invoiceHours(lines []types.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		if types.IsHoursLabel(line.Description) && types.IsHoursUnit(line.Unit) {
			total = total.Add(line.Quantity)
		}
	}
	return total
}

func (x *Extractor) number(el *etree.Element, field string) (decimal.Decimal, bool) {
	if el == nil {
		return decimal.Zero, false
	}
	d, ok := xmltree.Decimal(el)
	if !ok {
		x.logger.Debug().Str("field", field).Str("text", el.Text()).Msg("unparseable number, defaulting to zero")
		return decimal.Zero, false
	}
	return d, true
}
