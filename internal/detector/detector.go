// =============================================================================
// PIXID Invoice Corrector - Inconsistency Detector
// =============================================================================
//
// The detector diagnoses an InvoiceRecord. It runs every check, merges the
// details of those that fired and never stops at the first one.
//
// CHECKS:
//   hours_mismatch   - RAF hours differ from invoiced hours
//   week_overlap     - the RAF week straddles two months and the invoice
//                      bills more than the RAF portion
//   amount_mismatch  - the RAF estimate differs from the declared total
//   period_issue     - DEB_PER/FIN_PER disagree with the timecard period
//
// The Type of the result is the single fired tag, or "multiple".
//
// =============================================================================

package detector

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/calculator"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/types"
)

const dateLayout = "2006-01-02"

// Invoiced portion of an overlapping week.
const (
	PortionSingleDay   = "single_day"
	PortionPartialWeek = "partial_week"
	PortionFullWeek    = "full_week"
)

// Detector runs the consistency checks.
type Detector struct {
	tol    types.Tolerances
	logger zerolog.Logger
}

// New creates a Detector.
func New(tol types.Tolerances, logger zerolog.Logger) *Detector {
	return &Detector{tol: tol, logger: logger}
}

// Detect diagnoses rec with the given tolerances.
func Detect(rec *types.InvoiceRecord, tol types.Tolerances) types.Detection {
	return New(tol, zerolog.Nop()).Detect(rec)
}

// check is one independent consistency check. It returns whether it fired,
// a message and its details. Details are merged only for fired checks.
type check struct {
	tag types.InconsistencyType
	run func(rec *types.InvoiceRecord) (bool, string, map[string]interface{})
}

// Detect diagnoses rec.
func (d *Detector) Detect(rec *types.InvoiceRecord) types.Detection {
	checks := []check{
		{types.HoursMismatch, d.hoursMismatch},
		{types.WeekOverlap, d.weekOverlap},
		{types.AmountMismatch, d.amountMismatch},
		{types.PeriodIssue, d.periodIssue},
	}

	result := types.Detection{Details: make(map[string]interface{})}
	var messages []string

	for _, c := range checks {
		fired, msg, details := c.run(rec)
		if !fired {
			continue
		}
		for k, v := range details {
			result.Details[k] = v
		}
		result.Fired = append(result.Fired, c.tag)
		messages = append(messages, msg)
	}

	switch len(result.Fired) {
	case 0:
	case 1:
		result.HasInconsistency = true
		result.Type = result.Fired[0]
	default:
		result.HasInconsistency = true
		result.Type = types.Multiple
	}
	result.Message = strings.Join(messages, "; ")

	d.logger.Debug().
		Str("invoice_id", rec.InvoiceID).
		Bool("inconsistent", result.HasInconsistency).
		Str("type", string(result.Type)).
		Msg("detection complete")

	return result
}

// =============================================================================
// CHECKS
// =============================================================================

func (d *Detector) hoursMismatch(rec *types.InvoiceRecord) (bool, string, map[string]interface{}) {
	diff := rec.RAFHours.Sub(rec.InvoiceHours).Abs()
	details := map[string]interface{}{
		"raf_hours":     rec.RAFHours.InexactFloat64(),
		"invoice_hours": rec.InvoiceHours.InexactFloat64(),
	}
	if !diff.GreaterThan(d.tol.Hours) {
		return false, "", details
	}
	details["hours_difference"] = diff.InexactFloat64()
	return true, fmt.Sprintf("RAF hours %s differ from invoiced hours %s",
		rec.RAFHours.String(), rec.InvoiceHours.String()), details
}

func (d *Detector) weekOverlap(rec *types.InvoiceRecord) (bool, string, map[string]interface{}) {
	start, ok := types.ParseDate(rec.PeriodStart)
	if !ok {
		return false, "", nil
	}
	weekStart, weekEnd := Week(start)
	if weekStart.Month() == weekEnd.Month() {
		return false, "", nil
	}

	details := map[string]interface{}{
		"week_start":      weekStart.Format(dateLayout),
		"week_end":        weekEnd.Format(dateLayout),
		"month_start":     weekStart.Month().String(),
		"month_end":       weekEnd.Month().String(),
		"invoiced_period": InvoicedPortion(rec.PeriodStart, rec.PeriodEnd, weekStart),
	}

	var overbilled bool
	if rec.DebPer != "" || rec.FinPer != "" {
		overbilled = !types.SameDay(rec.DebPer, rec.PeriodStart) || !types.SameDay(rec.FinPer, rec.PeriodEnd)
	} else {
		overbilled = rec.RAFHours.Sub(rec.InvoiceHours).Abs().GreaterThan(d.tol.Hours)
	}
	if !overbilled {
		return false, "", details
	}

	return true, fmt.Sprintf("week %s to %s spans %s and %s but only %s is worked",
		details["week_start"], details["week_end"], details["month_start"], details["month_end"],
		describePeriod(rec.PeriodStart, rec.PeriodEnd)), details
}

func (d *Detector) amountMismatch(rec *types.InvoiceRecord) (bool, string, map[string]interface{}) {
	estimate, ok := calculator.Estimate(rec)
	if !ok {
		return false, "", nil
	}
	details := map[string]interface{}{
		"raf_estimate":  estimate.InexactFloat64(),
		"total_charges": rec.TotalCharges.InexactFloat64(),
	}
	diff := estimate.Sub(rec.TotalCharges).Abs()
	if !diff.GreaterThan(d.tol.Amount) {
		return false, "", details
	}
	details["amount_difference"] = diff.InexactFloat64()
	return true, fmt.Sprintf("RAF estimate %s differs from total charges %s",
		estimate.StringFixed(2), rec.TotalCharges.StringFixed(2)), details
}

func (d *Detector) periodIssue(rec *types.InvoiceRecord) (bool, string, map[string]interface{}) {
	if rec.PeriodStart == "" || (rec.DebPer == "" && rec.FinPer == "") {
		return false, "", nil
	}
	if types.SameDay(rec.DebPer, rec.PeriodStart) && types.SameDay(rec.FinPer, rec.PeriodEnd) {
		return false, "", nil
	}
	details := map[string]interface{}{
		"declared_start": rec.DebPer,
		"declared_end":   rec.FinPer,
		"raf_start":      rec.PeriodStart,
		"raf_end":        rec.PeriodEnd,
	}
	return true, fmt.Sprintf("declared period %s to %s does not match timecard period %s",
		rec.DebPer, rec.FinPer, describePeriod(rec.PeriodStart, rec.PeriodEnd)), details
}

// =============================================================================
// WEEK HELPERS
// =============================================================================

// Week returns the Monday and Sunday of the week containing day.
func Week(day time.Time) (time.Time, time.Time) {
	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)
	return monday, monday.AddDate(0, 0, 6)
}

// InvoicedPortion classifies the RAF period within its week.
func InvoicedPortion(start, end string, weekStart time.Time) string {
	if types.SameDay(start, end) {
		return PortionSingleDay
	}
	s, okS := types.ParseDate(start)
	e, okE := types.ParseDate(end)
	if okS && okE && s.Equal(weekStart) && !e.Before(weekStart.AddDate(0, 0, 4)) {
		return PortionFullWeek
	}
	return PortionPartialWeek
}

func describePeriod(start, end string) string {
	if types.SameDay(start, end) {
		return start
	}
	return start + " to " + end
}
