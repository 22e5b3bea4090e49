// =============================================================================
// PIXID Invoice Corrector - Line Rule Table
// =============================================================================
//
// Invoice lines are dispatched on their free-text description through an
// ordered table of (predicate, strategy) pairs. The first matching rule wins.
//
// PREDICATES (all case-insensitive):
//   keywords  - matches if any keyword is a substring of the description
//   tokens    - matches if any token is a whole word of the description
//   required  - every entry must be a substring
//   excluded  - no entry may be a substring
//   A rule with neither keywords nor tokens matches on required/excluded
//   alone; a rule with no predicate at all matches every line.
//
// STRATEGIES:
//   ratio                 - quantity scaled by the RAF/invoice hours ratio
//   remove_if_single_day  - removed when the target period is one day,
//                           ratio-scaled otherwise
//   prorate               - ratio-scaled, whatever the period
//   working_days          - quantity set to the working days of the period
//   default_ratio         - fallback, ratio-scaled
//
// The table is data: it can be loaded from YAML (config package) or from an
// XLSX workbook (xlsxparser package) without touching the dispatch logic.
//
// =============================================================================

package calculator

import (
	"fmt"
	"strings"
	"unicode"
)

// Strategy is a closed set of line policies.
type Strategy string

const (
	StrategyRatio             Strategy = "ratio"
	StrategyRemoveIfSingleDay Strategy = "remove_if_single_day"
	StrategyProrate           Strategy = "prorate"
	StrategyWorkingDays       Strategy = "working_days"
	StrategyDefaultRatio      Strategy = "default_ratio"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	switch s {
	case StrategyRatio, StrategyRemoveIfSingleDay, StrategyProrate, StrategyWorkingDays, StrategyDefaultRatio:
		return s, nil
	default:
		return "", fmt.Errorf("unknown line strategy: %q", name)
	}
}

// Rule is one row of the table.
type Rule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords,omitempty"`
	Tokens   []string `yaml:"tokens,omitempty"`
	Required []string `yaml:"required,omitempty"`
	Excluded []string `yaml:"excluded,omitempty"`
	Strategy Strategy `yaml:"strategy"`
}

// Matches reports whether the rule applies to a description.
func (r Rule) Matches(description string) bool {
	lower := strings.ToLower(description)

	for _, req := range r.Required {
		if !strings.Contains(lower, strings.ToLower(req)) {
			return false
		}
	}
	for _, exc := range r.Excluded {
		if strings.Contains(lower, strings.ToLower(exc)) {
			return false
		}
	}

	if len(r.Keywords) == 0 && len(r.Tokens) == 0 {
		return true
	}
	for _, kw := range r.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	if len(r.Tokens) > 0 {
		words := strings.FieldsFunc(lower, func(c rune) bool {
			return !unicode.IsLetter(c) && !unicode.IsDigit(c)
		})
		for _, tok := range r.Tokens {
			for _, w := range words {
				if w == strings.ToLower(tok) {
					return true
				}
			}
		}
	}
	return false
}

// RuleTable is an ordered list of rules.
type RuleTable []Rule

// Match returns the first rule matching description. A table without a
// catch-all rule falls back to default_ratio.
func (t RuleTable) Match(description string) Rule {
	for _, r := range t {
		if r.Matches(description) {
			return r
		}
	}
	return Rule{Name: "default", Strategy: StrategyDefaultRatio}
}

// Validate checks names and strategies.
func (t RuleTable) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("rule table is empty")
	}
	seen := make(map[string]bool)
	for i, r := range t {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("rule %d has no name", i+1)
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate rule name %q", r.Name)
		}
		seen[r.Name] = true
		if _, err := ParseStrategy(string(r.Strategy)); err != nil {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
	}
	return nil
}

// DefaultRules returns the PIXID line categories in priority order.
func DefaultRules() RuleTable {
	return RuleTable{
		{
			Name:     "regular_hours",
			Required: []string{"heure"},
			Excluded: []string{"supplémentaire", "supplementaire"},
			Strategy: StrategyRatio,
		},
		{
			Name:     "overtime",
			Keywords: []string{"supplémentaire", "supplementaire"},
			Tokens:   []string{"hs"},
			Strategy: StrategyRemoveIfSingleDay,
		},
		{
			Name:     "rtt",
			Tokens:   []string{"rtt"},
			Strategy: StrategyRemoveIfSingleDay,
		},
		{
			Name:     "thirteenth_month",
			Required: []string{"13", "mois"},
			Strategy: StrategyProrate,
		},
		{
			Name:     "allowance",
			Keywords: []string{"panier", "transport"},
			Strategy: StrategyWorkingDays,
		},
		{
			Name:     "default",
			Strategy: StrategyDefaultRatio,
		},
	}
}
