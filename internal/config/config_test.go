package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/calculator"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/xlsxparser"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "./input", cfg.InputDir)
	assert.Equal(t, "*.xml", cfg.InputPattern)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ReportJSON, cfg.ReportFormat)
	assert.Equal(t, 4, cfg.MaxConcurrency)
	assert.True(t, cfg.ContinueOnError)
	assert.False(t, cfg.Force)
	assert.Equal(t, 2, cfg.XML.Indent)
	assert.True(t, cfg.XML.Declaration)

	tol := cfg.ToleranceValues()
	assert.Equal(t, "0.01", tol.Hours.String())
	assert.Equal(t, "1", tol.Amount.String())
	assert.Equal(t, "0.01", tol.Cent.String())
}

func TestLoadMainConfigFromFile(t *testing.T) {
	path := writeFile(t, "config.yaml", `
output_dir: /tmp/pixid/out
log_level: debug
report_format: YAML
max_concurrency: 2
force: true
xml:
  indent: 4
tolerances:
  amount: 0.5
`)

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/pixid/out", cfg.OutputDir)
	assert.Equal(t, "./input", cfg.InputDir, "defaults fill the gaps")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ReportYAML, cfg.ReportFormat)
	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.True(t, cfg.Force)
	assert.Equal(t, 4, cfg.XML.Indent)
	assert.True(t, cfg.XML.Declaration)
	assert.Equal(t, "0.5", cfg.ToleranceValues().Amount.String())
	assert.Equal(t, "0.01", cfg.ToleranceValues().Hours.String())
}

func TestLoadMainConfigEnvOverride(t *testing.T) {
	path := writeFile(t, "config.yaml", "max_concurrency: 2\n")
	t.Setenv("PIXID_MAX_CONCURRENCY", "8")
	t.Setenv("PIXID_TOLERANCES_CENT", "0.02")

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.MaxConcurrency)
	assert.Equal(t, "0.02", cfg.ToleranceValues().Cent.String())
}

func TestLoadMainConfigErrors(t *testing.T) {
	_, err := LoadMainConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	for name, content := range map[string]string{
		"bad level":       "log_level: loud\n",
		"bad format":      "report_format: xml\n",
		"bad concurrency": "max_concurrency: 0\n",
		"negative":        "tolerances:\n  hours: -1\n",
		"bad pattern":     "input_pattern: \"[x\"\n",
		"bad retention":   "archive_retention_days: -3\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadMainConfig(writeFile(t, "config.yaml", content))
			assert.Error(t, err)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.InputDir = filepath.Join(root, "in")
	cfg.OutputDir = filepath.Join(root, "out")
	cfg.ReportDir = filepath.Join(root, "reports")
	cfg.InputArchiveDir = filepath.Join(root, "in_archive")
	cfg.OutputArchiveDir = ""
	cfg.LogDir = filepath.Join(root, "logs")

	require.NoError(t, cfg.EnsureDirectories())
	for _, dir := range []string{cfg.InputDir, cfg.OutputDir, cfg.ReportDir, cfg.InputArchiveDir, cfg.LogDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestLoadRulesDefault(t *testing.T) {
	table, err := Default().LoadRules()
	require.NoError(t, err)
	assert.Equal(t, calculator.DefaultRules(), table)
}

func TestLoadYAMLRules(t *testing.T) {
	path := writeFile(t, "rules.yaml", `
rules:
  - name: hours
    required: [heure]
    excluded: [supplémentaire]
    strategy: ratio
  - name: meals
    keywords: [panier, repas]
    strategy: WORKING_DAYS
  - name: default
    strategy: default_ratio
`)

	table, err := LoadRuleTable(path)
	require.NoError(t, err)
	require.Len(t, table, 3)
	assert.Equal(t, calculator.StrategyWorkingDays, table[1].Strategy)
	assert.Equal(t, "meals", table.Match("Repas midi").Name)
}

func TestLoadRuleTableErrors(t *testing.T) {
	_, err := LoadRuleTable(writeFile(t, "rules.json", "{}"))
	assert.Error(t, err)

	_, err = LoadRuleTable(writeFile(t, "rules.yaml", "rules:\n  - name: x\n    strategy: triple\n"))
	assert.Error(t, err)

	_, err = LoadRuleTable(writeFile(t, "rules.yml", "rules: []\n"))
	assert.Error(t, err)
}

func TestMarshalRulesRoundTrip(t *testing.T) {
	data, err := MarshalRules(calculator.DefaultRules())
	require.NoError(t, err)

	path := writeFile(t, "rules.yaml", string(data))
	table, err := LoadRuleTable(path)
	require.NoError(t, err)
	assert.Equal(t, calculator.DefaultRules(), table)
}

func TestLoadXLSXRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.xlsx")
	require.NoError(t, xlsxparser.WriteRules(path, calculator.DefaultRules()))

	cfg := Default()
	cfg.RulesFile = path
	table, err := cfg.LoadRules()
	require.NoError(t, err)
	assert.Len(t, table, len(calculator.DefaultRules()))
}
