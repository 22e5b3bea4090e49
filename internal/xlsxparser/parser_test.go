package xlsxparser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/calculator"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &r))
	}

	path := filepath.Join(t.TempDir(), "rules.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParseRules(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Name", "Strategy", "Keywords", "Tokens", "Required", "Excluded"},
		{"hours", "ratio", "", "", "heure", "supplémentaire"},
		{},
		{"meals", "Working_Days", "panier; repas , ticket", "", "", ""},
		{"astreinte", "remove_if_single_day", "", "AST", "", ""},
		{"default", "default_ratio"},
	})

	table, err := ParseRules(path)
	require.NoError(t, err)
	require.Len(t, table, 4)

	assert.Equal(t, "hours", table[0].Name)
	assert.Equal(t, calculator.StrategyRatio, table[0].Strategy)
	assert.Equal(t, []string{"heure"}, table[0].Required)
	assert.Equal(t, []string{"supplémentaire"}, table[0].Excluded)

	assert.Equal(t, calculator.StrategyWorkingDays, table[1].Strategy)
	assert.Equal(t, []string{"panier", "repas", "ticket"}, table[1].Keywords)

	assert.Equal(t, "astreinte", table.Match("Prime AST nuit").Name)
	assert.Equal(t, "meals", table.Match("Ticket restaurant").Name)
	assert.Equal(t, "default", table.Match("Autre").Name)
}

func TestParseRulesRejectsUnknownStrategy(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Name", "Strategy"},
		{"bonus", "double"},
	})

	_, err := ParseRules(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestParseRulesRejectsEmptyWorkbook(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"Name", "Strategy"},
	})

	_, err := ParseRules(path)
	assert.Error(t, err)
}

func TestParseRulesMissingFile(t *testing.T) {
	_, err := ParseRules(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}

func TestWriteRulesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.xlsx")
	require.NoError(t, WriteRules(path, calculator.DefaultRules()))

	table, err := ParseRules(path)
	require.NoError(t, err)
	assert.Equal(t, calculator.DefaultRules(), table)
}
