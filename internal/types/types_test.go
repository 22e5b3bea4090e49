package types

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestQuantitiesKeepInsertionOrder(t *testing.T) {
	q := NewQuantities()
	q.Add("Heures travaillées", decimal.NewFromInt(7))
	q.Add("Prime de Panier", decimal.NewFromInt(1))
	q.Add("Heures travaillées", decimal.NewFromInt(1))

	assert.Equal(t, []string{"Heures travaillées", "Prime de Panier"}, q.Keys())
	v, ok := q.Get("Heures travaillées")
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(8)))

	data, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Heures travaillées":8,"Prime de Panier":1}`, string(data))

	out, err := yaml.Marshal(q)
	require.NoError(t, err)
	var decoded map[string]float64
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, map[string]float64{"Heures travaillées": 8, "Prime de Panier": 1}, decoded)
	assert.Less(t, strings.Index(string(out), "Heures"), strings.Index(string(out), "Panier"))
}

func TestSameDay(t *testing.T) {
	assert.True(t, SameDay("2025-06-30", "2025-06-30T00:00:00"))
	assert.False(t, SameDay("2025-06-30", "2025-07-01"))
	assert.True(t, SameDay("01/07/2025", "2025-07-01"))
	assert.True(t, SameDay("not a date", "not a date"))
	assert.False(t, SameDay("", "2025-06-30"))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"2025-06-30", "2025-06-30", true},
		{"2025-06-30T08:00:00", "2025-06-30", true},
		{" 2025-07-01T17:30:00+02:00 ", "2025-07-01", true},
		{"30/06/2025", "2025-06-30", true},
		{"01/07/2025", "2025-07-01", true},
		{"04/07/2025 08:00", "2025-07-04", true},
		{"06/30/2025", "2025-06-30", true},
		{"", "", false},
		{"not a date", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.expected, got.Format("2006-01-02"))
			}
		})
	}
}

func TestHoursMarkers(t *testing.T) {
	assert.True(t, IsHoursLabel("Heures Supplémentaires 125%"))
	assert.True(t, IsHoursLabel("Regular hours"))
	assert.False(t, IsHoursLabel("Prime de Panier"))

	assert.True(t, IsHoursUnit("hur"))
	assert.False(t, IsHoursUnit("PCE"))
}

func TestRoundCentsHalfUp(t *testing.T) {
	assert.Equal(t, "2.38", RoundCents(decimal.RequireFromString("2.375")).StringFixed(2))
	assert.Equal(t, "46.75", RoundCents(decimal.RequireFromString("46.7520")).StringFixed(2))
}
