// =============================================================================
// PIXID Invoice Corrector - Validation Engine
// =============================================================================
//
// This module validates a corrected PIXID document. It re-reads the tree
// from scratch and never looks at the AdjustmentSet that produced it, so a
// fixer bug cannot hide behind the calculator's own numbers.
//
// CHECKS:
//   1. raf_equals_lines   - RAF hours valued at the lines' hourly rate match
//                           the lines total
//   2. lines_equal_total  - the line totals add up to TotalCharges
//   3. tax_correct        - TotalTax and TotalAmount follow from TotalCharges
//   4. mandatory_fields   - invoice id present, at least one line
//   5. period_consistent  - period markers agree with the timecards
//
// ERROR HANDLING:
//   - Checks 1 to 4 are blocking: a failure is an "error"
//   - Check 5 only produces "warning" entries
//   - Errors are collected, never returned early
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/parser"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Check names.
const (
	CheckRAFEqualsLines   = "raf_equals_lines"
	CheckLinesEqualTotal  = "lines_equal_total"
	CheckTaxCorrect       = "tax_correct"
	CheckMandatoryFields  = "mandatory_fields"
	CheckPeriodConsistent = "period_consistent"
)

// ValidationError represents a single failed check.
type ValidationError struct {
	// Severity is "error" for blocking checks, "warning" otherwise.
	Severity string

	// Check is the name of the check that failed.
	Check string

	// Message is a human-readable error message.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(e.Severity), e.Check, e.Message)
}

// =============================================================================
// VALIDATOR
// =============================================================================

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// Tolerances bounds the numeric comparisons.
	Tolerances types.Tolerances

	// TreatWarningsAsErrors makes period warnings invalidate the document.
	// Default: false
	TreatWarningsAsErrors bool
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{Tolerances: types.DefaultTolerances()}
}

// Validator checks corrected documents.
type Validator struct {
	options ValidationOptions
	logger  zerolog.Logger
}

// NewValidator creates a Validator with default options.
func NewValidator(logger zerolog.Logger) *Validator {
	return NewValidatorWithOptions(DefaultValidationOptions(), logger)
}

// NewValidatorWithOptions creates a Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions, logger zerolog.Logger) *Validator {
	return &Validator{options: options, logger: logger}
}

// Validate checks doc with the given tolerances.
func Validate(doc *etree.Document, tol types.Tolerances) *types.ValidationResult {
	return NewValidatorWithOptions(ValidationOptions{Tolerances: tol}, zerolog.Nop()).Validate(doc)
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate checks doc and returns a detailed result.
func (v *Validator) Validate(doc *etree.Document) *types.ValidationResult {
	if doc == nil {
		return summarize([]*ValidationError{{
			Severity: SeverityError, Check: CheckMandatoryFields, Message: "no document",
		}}, v.options.TreatWarningsAsErrors)
	}

	parsed, err := parser.ExtractTree(doc)
	if err != nil {
		msg := err.Error()
		var structErr *parser.DocumentStructureError
		if errors.As(err, &structErr) {
			msg = structErr.Reason
		}
		return summarize([]*ValidationError{{
			Severity: SeverityError, Check: CheckMandatoryFields, Message: msg,
		}}, v.options.TreatWarningsAsErrors)
	}

	return v.ValidateRecord(parsed.Record)
}

// ValidateRecord runs every check on an extracted record.
func (v *Validator) ValidateRecord(rec *types.InvoiceRecord) *types.ValidationResult {
	var errs []*ValidationError
	errs = append(errs, v.checkRAFEqualsLines(rec)...)
	errs = append(errs, v.checkLinesEqualTotal(rec)...)
	errs = append(errs, v.checkTax(rec)...)
	errs = append(errs, v.checkMandatoryFields(rec)...)
	errs = append(errs, v.checkPeriod(rec)...)

	result := summarize(errs, v.options.TreatWarningsAsErrors)

	v.logger.Debug().
		Str("invoice_id", rec.InvoiceID).
		Bool("valid", result.IsValid).
		Int("errors", len(result.Errors)).
		Int("warnings", len(result.Warnings)).
		Msg("validation complete")

	return result
}

func summarize(errs []*ValidationError, warningsAreErrors bool) *types.ValidationResult {
	result := &types.ValidationResult{
		RAFEqualsLines:   true,
		LinesEqualTotal:  true,
		TaxCorrect:       true,
		MandatoryFields:  true,
		PeriodConsistent: true,
		Errors:           make([]string, 0),
		Warnings:         make([]string, 0),
	}

	for _, e := range errs {
		switch e.Check {
		case CheckRAFEqualsLines:
			result.RAFEqualsLines = false
		case CheckLinesEqualTotal:
			result.LinesEqualTotal = false
		case CheckTaxCorrect:
			result.TaxCorrect = false
		case CheckMandatoryFields:
			result.MandatoryFields = false
		case CheckPeriodConsistent:
			result.PeriodConsistent = false
		}

		if e.Severity == SeverityError {
			result.Errors = append(result.Errors, e.Message)
		} else {
			result.Warnings = append(result.Warnings, e.Message)
		}
	}

	result.IsValid = result.RAFEqualsLines && result.LinesEqualTotal &&
		result.TaxCorrect && result.MandatoryFields
	if warningsAreErrors && len(result.Warnings) > 0 {
		result.IsValid = false
	}
	result.Error = strings.Join(result.Errors, "; ")

	return result
}

// =============================================================================
// CHECKS
// =============================================================================

var hundred = decimal.NewFromInt(100)

func linesTotal(rec *types.InvoiceRecord) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range rec.Lines {
		sum = sum.Add(line.Total)
	}
	return sum
}

// checkRAFEqualsLines values the RAF hours at the hourly rate of the lines
// (lines total / hour-line quantity) and compares with the lines total.
func (v *Validator) checkRAFEqualsLines(rec *types.InvoiceRecord) []*ValidationError {
	sum := linesTotal(rec)

	if !rec.InvoiceHours.IsPositive() {
		if rec.RAFHours.IsZero() {
			return nil
		}
		return []*ValidationError{{
			Severity: SeverityError,
			Check:    CheckRAFEqualsLines,
			Message:  fmt.Sprintf("RAF has %s hours but no line invoices hours", rec.RAFHours.String()),
		}}
	}

	estimate := types.RoundCents(rec.RAFHours.Mul(sum).Div(rec.InvoiceHours))
	if estimate.Sub(sum).Abs().GreaterThan(v.options.Tolerances.Amount) {
		return []*ValidationError{{
			Severity: SeverityError,
			Check:    CheckRAFEqualsLines,
			Message: fmt.Sprintf("RAF total %s does not match lines total %s",
				estimate.StringFixed(2), sum.StringFixed(2)),
		}}
	}
	return nil
}

func (v *Validator) checkLinesEqualTotal(rec *types.InvoiceRecord) []*ValidationError {
	sum := linesTotal(rec)
	if sum.Sub(rec.TotalCharges).Abs().GreaterThan(v.options.Tolerances.Cent) {
		return []*ValidationError{{
			Severity: SeverityError,
			Check:    CheckLinesEqualTotal,
			Message: fmt.Sprintf("lines total %s does not match TotalCharges %s",
				sum.StringFixed(2), rec.TotalCharges.StringFixed(2)),
		}}
	}
	return nil
}

func (v *Validator) checkTax(rec *types.InvoiceRecord) []*ValidationError {
	var errs []*ValidationError

	expected := types.RoundCents(rec.TotalCharges.Mul(rec.VATRate).Div(hundred))
	if !expected.Equal(rec.TotalTax) {
		errs = append(errs, &ValidationError{
			Severity: SeverityError,
			Check:    CheckTaxCorrect,
			Message: fmt.Sprintf("TotalTax %s should be %s at %s%%",
				rec.TotalTax.StringFixed(2), expected.StringFixed(2), rec.VATRate.String()),
		})
	}
	if amount := rec.TotalCharges.Add(rec.TotalTax); !amount.Equal(rec.TotalAmount) {
		errs = append(errs, &ValidationError{
			Severity: SeverityError,
			Check:    CheckTaxCorrect,
			Message: fmt.Sprintf("TotalAmount %s should be %s",
				rec.TotalAmount.StringFixed(2), amount.StringFixed(2)),
		})
	}
	return errs
}

func (v *Validator) checkMandatoryFields(rec *types.InvoiceRecord) []*ValidationError {
	var errs []*ValidationError
	if rec.InvoiceID == "" || rec.InvoiceID == types.UnknownInvoiceID {
		errs = append(errs, &ValidationError{
			Severity: SeverityError, Check: CheckMandatoryFields, Message: "missing invoice id",
		})
	}
	if len(rec.Lines) == 0 {
		errs = append(errs, &ValidationError{
			Severity: SeverityError, Check: CheckMandatoryFields, Message: "invoice has no lines",
		})
	}
	return errs
}

func (v *Validator) checkPeriod(rec *types.InvoiceRecord) []*ValidationError {
	warn := func(format string, args ...interface{}) *ValidationError {
		return &ValidationError{
			Severity: SeverityWarning, Check: CheckPeriodConsistent, Message: fmt.Sprintf(format, args...),
		}
	}

	if rec.PeriodStart == "" || rec.PeriodEnd == "" {
		return []*ValidationError{warn("no timecard period")}
	}

	var errs []*ValidationError
	start, okS := types.ParseDate(rec.PeriodStart)
	end, okE := types.ParseDate(rec.PeriodEnd)
	if okS && okE && end.Before(start) {
		errs = append(errs, warn("timecard period ends %s before it starts %s", rec.PeriodEnd, rec.PeriodStart))
	}
	if rec.DebPer != "" && !types.SameDay(rec.DebPer, rec.PeriodStart) {
		errs = append(errs, warn("DEB_PER %s differs from timecard start %s", rec.DebPer, rec.PeriodStart))
	}
	if rec.FinPer != "" && !types.SameDay(rec.FinPer, rec.PeriodEnd) {
		errs = append(errs, warn("FIN_PER %s differs from timecard end %s", rec.FinPer, rec.PeriodEnd))
	}
	return errs
}
