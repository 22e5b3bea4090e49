// Package fixtures embeds sample PIXID invoices shared by the package tests
// and by the CLI's self-check.
package fixtures

import (
	_ "embed"
)

// SingleDay is a week from Monday 30/06/2025 to Friday 04/07/2025 billed in
// full, while the June timecard covers Monday only (8h of 38h).
//
//go:embed single_day.xml
var SingleDay []byte

// PartialWeekNS uses a default namespace and line-anchored timecards. The
// week of 28/07/2025 is billed up to Friday 01/08 while the July timecard
// stops on Thursday 31/07 (30h of 37.5h).
//
//go:embed partial_week_ns.xml
var PartialWeekNS []byte
