// =============================================================================
// PIXID Invoice Corrector - XLSX Rule Workbook Parser
// =============================================================================
//
// Billing teams maintain the line rule table in a spreadsheet. This module
// reads that workbook into a calculator.RuleTable, and can write the current
// table back as a template.
//
// WORKBOOK STRUCTURE (Expected Columns):
//   One rule per row, evaluated top to bottom (first match wins).
//   List cells hold several entries separated by ";" or ",".
//
//   | Column A      | Column B             | Column C                  | Column D | Column E    | Column F        |
//   |---------------|----------------------|---------------------------|----------|-------------|-----------------|
//   | Name          | Strategy             | Keywords                  | Tokens   | Required    | Excluded        |
//   | regular_hours | ratio                |                           |          | heure       | supplémentaire  |
//   | overtime      | remove_if_single_day | supplémentaire;supplementaire | hs   |             |                 |
//   | allowance     | working_days         | panier;transport          |          |             |                 |
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/calculator"
)

// =============================================================================
// WORKBOOK COLUMN CONFIGURATION
// =============================================================================

// RuleColumns defines which columns of the workbook contain which data.
// Column indices are 0-based (A=0, B=1, C=2, etc.)
type RuleColumns struct {
	// NameColumn holds the rule name.
	// Default: 0 (Column A)
	NameColumn int

	// StrategyColumn holds the strategy name.
	// Default: 1 (Column B)
	StrategyColumn int

	// KeywordsColumn holds any-of substrings.
	// Default: 2 (Column C)
	KeywordsColumn int

	// TokensColumn holds any-of whole words.
	// Default: 3 (Column D)
	TokensColumn int

	// RequiredColumn holds all-of substrings.
	// Default: 4 (Column E)
	RequiredColumn int

	// ExcludedColumn holds none-of substrings.
	// Default: 5 (Column F)
	ExcludedColumn int

	// DataStartRow is the row number where data begins (0-based).
	// Default: 1 (Row 2)
	DataStartRow int
}

// DefaultRuleColumns returns the default column configuration.
func DefaultRuleColumns() RuleColumns {
	return RuleColumns{
		NameColumn:     0, // Column A
		StrategyColumn: 1, // Column B
		KeywordsColumn: 2, // Column C
		TokensColumn:   3, // Column D
		RequiredColumn: 4, // Column E
		ExcludedColumn: 5, // Column F
		DataStartRow:   1, // Row 2
	}
}

// headerRow is written at the top of exported workbooks.
var headerRow = []interface{}{"Name", "Strategy", "Keywords", "Tokens", "Required", "Excluded"}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseRules reads the rule table from the first sheet of an XLSX workbook.
func ParseRules(path string) (calculator.RuleTable, error) {
	return ParseRulesWithConfig(path, "", DefaultRuleColumns())
}

// ParseRulesWithConfig reads the rule table from sheet (the first sheet when
// empty) using a custom column configuration.
func ParseRulesWithConfig(path, sheet string, columns RuleColumns) (calculator.RuleTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rule workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, fmt.Errorf("rule workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	var table calculator.RuleTable
	for i := columns.DataStartRow; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || isRowEmpty(row) {
			continue
		}

		rule, err := parseRow(row, columns)
		if err != nil {
			return nil, fmt.Errorf("error parsing row %d: %w", i+1, err)
		}
		table = append(table, rule)
	}

	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule workbook %s: %w", path, err)
	}
	return table, nil
}

// parseRow extracts a Rule from a single row.
func parseRow(row []string, columns RuleColumns) (calculator.Rule, error) {
	getCell := func(index int) string {
		if index >= 0 && index < len(row) {
			return strings.TrimSpace(row[index])
		}
		return ""
	}

	strategy, err := calculator.ParseStrategy(getCell(columns.StrategyColumn))
	if err != nil {
		return calculator.Rule{}, err
	}

	return calculator.Rule{
		Name:     getCell(columns.NameColumn),
		Strategy: strategy,
		Keywords: splitList(getCell(columns.KeywordsColumn)),
		Tokens:   splitList(getCell(columns.TokensColumn)),
		Required: splitList(getCell(columns.RequiredColumn)),
		Excluded: splitList(getCell(columns.ExcludedColumn)),
	}, nil
}

// =============================================================================
// EXPORT
// =============================================================================

// WriteRules saves table as a workbook that ParseRules reads back.
func WriteRules(path string, table calculator.RuleTable) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, rule := range table {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			rule.Name,
			string(rule.Strategy),
			strings.Join(rule.Keywords, ";"),
			strings.Join(rule.Tokens, ";"),
			strings.Join(rule.Required, ";"),
			strings.Join(rule.Excluded, ";"),
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write rule %q: %w", rule.Name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save rule workbook: %w", err)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// splitList splits a list cell on ";" and ",".
func splitList(value string) []string {
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ';' || r == ','
	})
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
