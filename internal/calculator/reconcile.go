package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/types"
)

// reconcileLimit is the largest drift treated as rounding noise.
var reconcileLimit = decimal.NewFromInt(1)

// Estimate values the hour-type RAF quantities at the invoice's average
// hourly rate (TotalCharges / InvoiceHours), rounded to cents. ok is false
// when no estimate can be made.
func Estimate(rec *types.InvoiceRecord) (decimal.Decimal, bool) {
	if !rec.InvoiceHours.IsPositive() || rec.RAFDetails.Len() == 0 {
		return decimal.Zero, false
	}

	hours := decimal.Zero
	found := false
	for _, label := range rec.RAFDetails.Keys() {
		if !types.IsHoursLabel(label) {
			continue
		}
		q, _ := rec.RAFDetails.Get(label)
		hours = hours.Add(q)
		found = true
	}
	if !found {
		return decimal.Zero, false
	}

	rate := rec.TotalCharges.Div(rec.InvoiceHours)
	return types.RoundCents(hours.Mul(rate)), true
}

// reconcile absorbs a sub-unit drift between the RAF estimate and the new
// total into the smallest positive line amount, then recomputes the totals.
func (c *Calculator) reconcile(rec *types.InvoiceRecord, set *types.AdjustmentSet) {
	estimate, ok := Estimate(rec)
	if !ok {
		return
	}

	diff := estimate.Sub(set.NewTotalCharges)
	if diff.IsZero() || diff.Abs().GreaterThanOrEqual(reconcileLimit) {
		return
	}

	var (
		target string
		amount decimal.Decimal
	)
	for _, key := range set.Order {
		adj := set.Lines[key]
		if adj.Action == types.ActionRemove || !adj.NewAmount.IsPositive() {
			continue
		}
		if target == "" || adj.NewAmount.LessThan(amount) {
			target, amount = key, adj.NewAmount
		}
	}
	if target == "" {
		return
	}

	adjusted := amount.Add(diff)
	if adjusted.IsNegative() {
		c.logger.Warn().
			Str("line", target).
			Str("difference", diff.StringFixed(2)).
			Msg("cent reconciliation skipped, absorbing line would turn negative")
		return
	}

	set.Lines[target].NewAmount = adjusted
	Totals(set, rec.VATRate)
	set.Reconciled = &types.Reconciliation{Line: target, Difference: diff, Estimate: estimate}

	c.logger.Debug().
		Str("line", target).
		Str("difference", diff.StringFixed(2)).
		Str("raf_estimate", estimate.StringFixed(2)).
		Msg("cent reconciliation applied")
}
