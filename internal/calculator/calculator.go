// =============================================================================
// PIXID Invoice Corrector - Adjustment Calculator
// =============================================================================
//
// The calculator plans the correction of one invoice. It never touches XML:
// its only output is a types.AdjustmentSet that the fixer applies later.
//
// ALGORITHM:
//   1. ratio = RAF hours / invoiced hours (1 when nothing is invoiced)
//   2. For each line, dispatch on the description through the rule table
//      and compute the new quantity (ratio, working days or removal)
//   3. New amount = new quantity x unit price, rounded half-up to cents
//   4. New totals: charges = sum of amounts, tax = charges x VAT rate
//   5. Cent reconciliation against the RAF estimate (see reconcile.go)
//
// =============================================================================

package calculator

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/types"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Calculator computes AdjustmentSets from InvoiceRecords.
type Calculator struct {
	rules  RuleTable
	logger zerolog.Logger
}

// New creates a Calculator. A nil or empty table selects DefaultRules.
func New(rules RuleTable, logger zerolog.Logger) *Calculator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Calculator{rules: rules, logger: logger}
}

// Calculate plans the correction of rec with the default rule table.
func Calculate(rec *types.InvoiceRecord) *types.AdjustmentSet {
	return New(nil, zerolog.Nop()).Calculate(rec)
}

// Rules returns the rule table in use.
func (c *Calculator) Rules() RuleTable {
	return c.rules
}

// Calculate plans the correction of rec. rec is not modified.
func (c *Calculator) Calculate(rec *types.InvoiceRecord) *types.AdjustmentSet {
	start, end := TargetPeriod(rec)
	set := &types.AdjustmentSet{
		TargetPeriodStart: start,
		TargetPeriodEnd:   end,
		TargetHours:       rec.RAFHours,
		Ratio:             Ratio(rec),
		Lines:             make(map[string]*types.Adjustment, len(rec.Lines)),
	}

	singleDay := set.SinglePeriod()
	workingDays := WorkingDays(start, end)
	keys := LineKeys(rec.Lines)

	for i, line := range rec.Lines {
		rule := c.rules.Match(line.Description)
		adj := &types.Adjustment{
			OldQuantity: line.Quantity,
			OldAmount:   line.Total,
			UnitPrice:   line.UnitPrice,
			Action:      types.ActionAdjust,
			Rule:        rule.Name,
		}

		switch rule.Strategy {
		case StrategyRemoveIfSingleDay:
			if singleDay {
				adj.Action = types.ActionRemove
				adj.NewQuantity = decimal.Zero
			} else {
				adj.NewQuantity = scale(line.Quantity, set.Ratio)
			}
		case StrategyWorkingDays:
			adj.NewQuantity = decimal.NewFromInt(int64(workingDays))
		default:
			adj.NewQuantity = scale(line.Quantity, set.Ratio)
		}

		if adj.Action == types.ActionRemove {
			adj.NewAmount = decimal.Zero
		} else {
			adj.NewAmount = types.RoundCents(adj.NewQuantity.Mul(line.UnitPrice))
		}

		set.Lines[keys[i]] = adj
		set.Order = append(set.Order, keys[i])

		c.logger.Debug().
			Str("line", keys[i]).
			Str("rule", rule.Name).
			Str("action", string(adj.Action)).
			Str("old_quantity", adj.OldQuantity.String()).
			Str("new_quantity", adj.NewQuantity.String()).
			Str("new_amount", adj.NewAmount.StringFixed(2)).
			Msg("line planned")
	}

	Totals(set, rec.VATRate)
	c.reconcile(rec, set)

	return set
}

// =============================================================================
// HELPERS
// =============================================================================

// Ratio is RAFHours / InvoiceHours, or 1 when no hours are invoiced.
func Ratio(rec *types.InvoiceRecord) decimal.Decimal {
	if !rec.InvoiceHours.IsPositive() {
		return one
	}
	return rec.RAFHours.Div(rec.InvoiceHours)
}

// TargetPeriod is the RAF period. Invoices without timecards fall back to
// the declared DEB_PER/FIN_PER markers.
func TargetPeriod(rec *types.InvoiceRecord) (string, string) {
	start, end := rec.PeriodStart, rec.PeriodEnd
	if start == "" {
		start = rec.DebPer
	}
	if end == "" {
		end = rec.FinPer
	}
	if end == "" {
		end = start
	}
	return start, end
}

// Totals recomputes the three header totals from the surviving lines.
func Totals(set *types.AdjustmentSet, vatRate decimal.Decimal) {
	charges := decimal.Zero
	for _, key := range set.Order {
		adj := set.Lines[key]
		if adj.Action == types.ActionRemove {
			continue
		}
		charges = charges.Add(adj.NewAmount)
	}
	set.NewTotalCharges = types.RoundCents(charges)
	set.NewTotalTax = types.RoundCents(set.NewTotalCharges.Mul(vatRate).Div(hundred))
	set.NewTotalAmount = set.NewTotalCharges.Add(set.NewTotalTax)
}

// LineKeys derives a unique key per line: the description, suffixed with
// " #n" from its second occurrence on. Lines without a description are
// keyed by their 1-based position.
func LineKeys(lines []types.LineItem) []string {
	keys := make([]string, len(lines))
	seen := make(map[string]int, len(lines))
	for i, line := range lines {
		base := line.Description
		if base == "" {
			base = fmt.Sprintf("line-%d", i+1)
		}
		seen[base]++
		if n := seen[base]; n > 1 {
			keys[i] = fmt.Sprintf("%s #%d", base, n)
		} else {
			keys[i] = base
		}
	}
	return keys
}

func scale(quantity, ratio decimal.Decimal) decimal.Decimal {
	return types.RoundCents(quantity.Mul(ratio))
}
