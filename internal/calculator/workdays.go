package calculator

import (
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/types"
)

// maxWorkingDays caps the allowance count of a period.
const maxWorkingDays = 5

// WorkingDays counts the allowance days of a period: 1 for a single day,
// otherwise the inclusive day count capped at 5. Weekends are not excluded.
// Unparseable or inverted dates count as 1.
func WorkingDays(start, end string) int {
	if types.SameDay(start, end) {
		return 1
	}
	s, okS := types.ParseDate(start)
	e, okE := types.ParseDate(end)
	if !okS || !okE || e.Before(s) {
		return 1
	}

	days := int(e.Sub(s).Hours()/24) + 1
	if days > maxWorkingDays {
		return maxWorkingDays
	}
	return days
}
