package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRulesDispatch(t *testing.T) {
	table := DefaultRules()
	require.NoError(t, table.Validate())

	tests := []struct {
		description string
		rule        string
	}{
		{"Heures travaillées du 30/06/2025 au 04/07/2025", "regular_hours"},
		{"HEURES NORMALES", "regular_hours"},
		{"Majoration Heures Supplémentaires 25%", "overtime"},
		{"Heures supplementaires 150%", "overtime"},
		{"Majoration HS 25%", "overtime"},
		{"Paiement RTT", "rtt"},
		{"Prime de 13 ème Mois", "thirteenth_month"},
		{"Prime de Panier de Chantier", "allowance"},
		{"Indemnité de Transport", "allowance"},
		{"Prime d'équipe", "default"},
		{"Chausses de sécurité", "default"},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.rule, table.Match(tt.description).Name)
		})
	}
}

func TestTokensMatchWholeWordsOnly(t *testing.T) {
	rule := Rule{Name: "rtt", Tokens: []string{"rtt"}, Strategy: StrategyRemoveIfSingleDay}
	assert.True(t, rule.Matches("Jours RTT pris"))
	assert.True(t, rule.Matches("RTT/2025"))
	assert.False(t, rule.Matches("Partners"))
}

func TestMatchWithoutCatchAll(t *testing.T) {
	table := RuleTable{{Name: "panier", Keywords: []string{"panier"}, Strategy: StrategyWorkingDays}}
	r := table.Match("Something else")
	assert.Equal(t, StrategyDefaultRatio, r.Strategy)
}

func TestRuleTableValidate(t *testing.T) {
	assert.Error(t, RuleTable{}.Validate())
	assert.Error(t, RuleTable{{Name: "", Strategy: StrategyRatio}}.Validate())
	assert.Error(t, RuleTable{{Name: "a", Strategy: "bogus"}}.Validate())
	assert.Error(t, RuleTable{
		{Name: "a", Strategy: StrategyRatio},
		{Name: "a", Strategy: StrategyProrate},
	}.Validate())
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy(" Working_Days ")
	require.NoError(t, err)
	assert.Equal(t, StrategyWorkingDays, s)

	_, err = ParseStrategy("halve")
	assert.Error(t, err)
}
