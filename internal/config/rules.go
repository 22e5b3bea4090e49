package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/pixid-invoice-corrector/internal/calculator"
	"github.com/ginjaninja78/pixid-invoice-corrector/internal/xlsxparser"
)

// ruleFile is the YAML layout of a rule table file:
//
//	rules:
//	  - name: regular_hours
//	    required: [heure]
//	    excluded: [supplémentaire]
//	    strategy: ratio
type ruleFile struct {
	Rules calculator.RuleTable `yaml:"rules"`
}

// LoadRules returns the rule table configured by RulesFile, or the default
// table when none is set.
func (c *MainConfig) LoadRules() (calculator.RuleTable, error) {
	if c.RulesFile == "" {
		return calculator.DefaultRules(), nil
	}
	return LoadRuleTable(c.RulesFile)
}

// LoadRuleTable reads a rule table from a .yaml/.yml file or an .xlsx
// workbook.
func LoadRuleTable(path string) (calculator.RuleTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return xlsxparser.ParseRules(path)
	case ".yaml", ".yml":
		return loadYAMLRules(path)
	default:
		return nil, fmt.Errorf("unsupported rule file %s: expected .yaml, .yml or .xlsx", path)
	}
}

func loadYAMLRules(path string) (calculator.RuleTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rule file: %w", err)
	}

	for i := range file.Rules {
		s, err := calculator.ParseStrategy(string(file.Rules[i].Strategy))
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", file.Rules[i].Name, err)
		}
		file.Rules[i].Strategy = s
	}

	if err := file.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rule file %s: %w", path, err)
	}
	return file.Rules, nil
}

// MarshalRules renders a rule table in the YAML layout LoadRuleTable reads.
func MarshalRules(table calculator.RuleTable) ([]byte, error) {
	return yaml.Marshal(ruleFile{Rules: table})
}
