// =============================================================================
// PIXID Invoice Corrector - Shared Types
// =============================================================================
//
// This package contains the data model shared by every stage of the
// correction pipeline. Keeping it in one place avoids import cycles between:
//   - parser      (produces InvoiceRecord)
//   - detector    (reads InvoiceRecord, produces Detection)
//   - calculator  (reads InvoiceRecord, produces AdjustmentSet)
//   - fixer       (reads AdjustmentSet)
//   - validation  (produces ValidationResult)
//   - converter   (assembles the Report)
//
// All currency and quantity values are decimal.Decimal. Conversion to
// float64 only happens in the report summaries.
//
// =============================================================================

package types

import (
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

// =============================================================================
// INVOICE RECORD
// =============================================================================

// TimecardsPosition tells where the timesheet block is anchored.
type TimecardsPosition string

const (
	TimecardsInHeader TimecardsPosition = "header"
	TimecardsInLine   TimecardsPosition = "line"
	TimecardsNone     TimecardsPosition = "none"
)

// DefaultVATRate is used when the header carries no Tax/PercentQuantity.
var DefaultVATRate = decimal.NewFromInt(20)

// UnknownInvoiceID is reported when Header/DocumentIds//Id is missing.
const UnknownInvoiceID = "UNKNOWN"

// InvoiceRecord is the normalized, namespace-agnostic view of one invoice.
// It is built once by the parser and never mutated downstream.
type InvoiceRecord struct {
	// InvoiceID is the document identifier from the header.
	InvoiceID string `json:"invoice_id"`

	// VATRate is the declared VAT percentage (20 means 20%).
	VATRate decimal.Decimal `json:"vat_rate"`

	// Header totals.
	TotalCharges decimal.Decimal `json:"total_charges"`
	TotalTax     decimal.Decimal `json:"total_tax"`
	TotalAmount  decimal.Decimal `json:"total_amount"`

	// DebPer and FinPer are the raw period annotations of the header
	// (owner="DEB_PER" / owner="FIN_PER"). Empty when absent.
	DebPer string `json:"deb_per,omitempty"`
	FinPer string `json:"fin_per,omitempty"`

	// TimecardsPosition is detected once per document.
	TimecardsPosition TimecardsPosition `json:"timecards_position"`

	// PeriodStart and PeriodEnd come from the timecards (the RAF period).
	PeriodStart string `json:"period_start,omitempty"`
	PeriodEnd   string `json:"period_end,omitempty"`

	// RAFHours is the sum of every interval whose type label denotes hours.
	RAFHours decimal.Decimal `json:"raf_hours"`

	// RAFDetails accumulates interval quantities per type label.
	RAFDetails *Quantities `json:"raf_details"`

	// InvoiceHours is derived from the lines, independently of the RAF.
	InvoiceHours decimal.Decimal `json:"invoice_hours"`

	// Lines holds the invoice lines in document order.
	Lines []LineItem `json:"lines"`

	// Namespaces is the prefix to URI map declared on the document root.
	// The default namespace is stored under the empty prefix.
	Namespaces map[string]string `json:"namespaces,omitempty"`
}

// LineItem is one invoice line.
type LineItem struct {
	ReasonCode  string          `json:"reason_code,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`

	// Element points back at the <Line> node of the source tree.
	// It is owned by the source document and must not be mutated.
	Element *etree.Element `json:"-"`
}

// SinglePeriod reports whether the RAF period collapses to one day.
func (r *InvoiceRecord) SinglePeriod() bool {
	return SameDay(r.PeriodStart, r.PeriodEnd)
}

// =============================================================================
// ORDERED QUANTITIES
// =============================================================================

// Quantities is an insertion-ordered map of label to accumulated quantity.
// Map iteration order is random in Go, and the RAF details are reported and
// summed in the order the intervals appear in the document.
type Quantities struct {
	keys   []string
	values map[string]decimal.Decimal
}

// NewQuantities creates an empty Quantities.
func NewQuantities() *Quantities {
	return &Quantities{values: make(map[string]decimal.Decimal)}
}

// Add accumulates value under label.
func (q *Quantities) Add(label string, value decimal.Decimal) {
	if _, ok := q.values[label]; !ok {
		q.keys = append(q.keys, label)
		q.values[label] = decimal.Zero
	}
	q.values[label] = q.values[label].Add(value)
}

// Get returns the quantity for label.
func (q *Quantities) Get(label string) (decimal.Decimal, bool) {
	v, ok := q.values[label]
	return v, ok
}

// Keys returns the labels in insertion order.
func (q *Quantities) Keys() []string {
	out := make([]string, len(q.keys))
	copy(out, q.keys)
	return out
}

// Len returns the number of labels.
func (q *Quantities) Len() int {
	if q == nil {
		return 0
	}
	return len(q.keys)
}

// MarshalJSON renders the quantities as a JSON object in insertion order.
func (q *Quantities) MarshalJSON() ([]byte, error) {
	return marshalOrdered(q)
}

// MarshalYAML renders the quantities as a YAML mapping in insertion order.
func (q *Quantities) MarshalYAML() (interface{}, error) {
	return yamlOrdered(q), nil
}

// =============================================================================
// ADJUSTMENTS
// =============================================================================

// Action is what the fixer does with a line.
type Action string

const (
	ActionAdjust Action = "adjust"
	ActionRemove Action = "remove"
)

// Adjustment is the plan for one line.
type Adjustment struct {
	OldQuantity decimal.Decimal `json:"old_quantity" yaml:"old_quantity"`
	NewQuantity decimal.Decimal `json:"new_quantity" yaml:"new_quantity"`
	OldAmount   decimal.Decimal `json:"old_amount" yaml:"old_amount"`
	NewAmount   decimal.Decimal `json:"new_amount" yaml:"new_amount"`
	UnitPrice   decimal.Decimal `json:"unit_price" yaml:"unit_price"`
	Action      Action          `json:"action" yaml:"action"`

	// Rule is the name of the rule that produced this adjustment.
	Rule string `json:"rule" yaml:"rule"`
}

// Reconciliation records a cent-reconciliation pass.
type Reconciliation struct {
	Line       string          `json:"line" yaml:"line"`
	Difference decimal.Decimal `json:"difference" yaml:"difference"`
	Estimate   decimal.Decimal `json:"raf_estimate" yaml:"raf_estimate"`
}

// AdjustmentSet is the single contract between planning and mutation.
type AdjustmentSet struct {
	TargetPeriodStart string          `json:"target_period_start" yaml:"target_period_start"`
	TargetPeriodEnd   string          `json:"target_period_end" yaml:"target_period_end"`
	TargetHours       decimal.Decimal `json:"target_hours" yaml:"target_hours"`
	Ratio             decimal.Decimal `json:"ratio" yaml:"ratio"`

	// Lines maps line key (the description) to its adjustment.
	Lines map[string]*Adjustment `json:"lines" yaml:"lines"`

	// Order lists the keys of Lines in document order.
	Order []string `json:"order" yaml:"order"`

	NewTotalCharges decimal.Decimal `json:"new_total_charges" yaml:"new_total_charges"`
	NewTotalTax     decimal.Decimal `json:"new_total_tax" yaml:"new_total_tax"`
	NewTotalAmount  decimal.Decimal `json:"new_total_amount" yaml:"new_total_amount"`

	Reconciled *Reconciliation `json:"reconciled,omitempty" yaml:"reconciled,omitempty"`
}

// SinglePeriod reports whether the target period collapses to one day.
func (a *AdjustmentSet) SinglePeriod() bool {
	return SameDay(a.TargetPeriodStart, a.TargetPeriodEnd)
}

// Get returns the adjustment stored under key.
func (a *AdjustmentSet) Get(key string) *Adjustment {
	return a.Lines[key]
}

// =============================================================================
// DETECTION
// =============================================================================

// InconsistencyType tags the detection outcome.
type InconsistencyType string

const (
	HoursMismatch  InconsistencyType = "hours_mismatch"
	WeekOverlap    InconsistencyType = "week_overlap"
	AmountMismatch InconsistencyType = "amount_mismatch"
	PeriodIssue    InconsistencyType = "period_issue"
	Multiple       InconsistencyType = "multiple"
)

// Detection is the structured report of the inconsistency detector.
type Detection struct {
	HasInconsistency bool                   `json:"has_inconsistency" yaml:"has_inconsistency"`
	Type             InconsistencyType      `json:"type,omitempty" yaml:"type,omitempty"`
	Message          string                 `json:"message,omitempty" yaml:"message,omitempty"`
	Details          map[string]interface{} `json:"details" yaml:"details"`

	// Fired lists every check that fired, in evaluation order.
	Fired []InconsistencyType `json:"fired,omitempty" yaml:"fired,omitempty"`
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationResult is the outcome of validating a corrected document.
type ValidationResult struct {
	IsValid          bool     `json:"is_valid" yaml:"is_valid"`
	RAFEqualsLines   bool     `json:"raf_equals_lines" yaml:"raf_equals_lines"`
	LinesEqualTotal  bool     `json:"lines_equal_total" yaml:"lines_equal_total"`
	TaxCorrect       bool     `json:"tax_correct" yaml:"tax_correct"`
	MandatoryFields  bool     `json:"mandatory_fields" yaml:"mandatory_fields"`
	PeriodConsistent bool     `json:"period_consistent" yaml:"period_consistent"`
	Errors           []string `json:"errors" yaml:"errors"`
	Warnings         []string `json:"warnings" yaml:"warnings"`

	// Error joins Errors with "; " for display. Empty when valid.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// =============================================================================
// TOLERANCES
// =============================================================================

// Tolerances bounds the comparisons made by the detector and validator.
type Tolerances struct {
	// Hours is the accepted gap between RAF hours and invoiced hours.
	Hours decimal.Decimal

	// Amount is the accepted gap between RAF estimates and invoice totals.
	// Gaps below one currency unit are treated as rounding noise.
	Amount decimal.Decimal

	// Cent is the accepted gap between the lines and the header total.
	Cent decimal.Decimal
}

// DefaultTolerances returns the tolerances used when none are configured.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Hours:  decimal.RequireFromString("0.01"),
		Amount: decimal.NewFromInt(1),
		Cent:   decimal.RequireFromString("0.01"),
	}
}
