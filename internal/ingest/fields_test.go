package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveFields_EnglishExport(t *testing.T) {
	header := []string{
		"Campaign status", "Campaign", "Budget", "Budget type", "Campaign type",
		"Impr.", "Clicks", "CTR", "Currency code", "Avg. CPC", "Cost",
		"Conv. rate", "Conversions", "Cost / conv.", "Day",
	}

	m := ResolveFields(header, DefaultFieldRules)

	want := FieldIndexMap{
		FieldStatus:      0,
		FieldName:        1,
		FieldBudget:      2,
		FieldType:        4,
		FieldImpressions: 5,
		FieldClicks:      6,
		FieldCurrency:    8,
		FieldSpend:       10,
		FieldConversions: 12,
		FieldPeriod:      14,
	}
	assert.Equal(t, want, m)
	assert.True(t, m.Valid())
	assert.Empty(t, m.Collisions())
}

func TestResolveFields_RussianExport(t *testing.T) {
	header := []string{"Кампания", "Тип кампании", "Статус", "Бюджет", "Показы", "Клики", "CTR", "Стоимость", "Конверсии", "Стоимость/конв.", "Валюта", "День"}

	m := ResolveFields(header, DefaultFieldRules)

	assert.Equal(t, FieldIndexMap{
		FieldName:        0,
		FieldType:        1,
		FieldStatus:      2,
		FieldBudget:      3,
		FieldImpressions: 4,
		FieldClicks:      5,
		FieldSpend:       7,
		FieldConversions: 8,
		FieldCurrency:    10,
		FieldPeriod:      11,
	}, m)
}

func TestResolveFields_SubstringWithExclusions(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		field  Field
		want   int
		found  bool
	}{
		{"click rate is not clicks", []string{"Click rate", "Total clicks"}, FieldClicks, 1, true},
		{"cost per conversion is not spend", []string{"Cost per conv.", "Total cost"}, FieldSpend, 1, true},
		{"only rate columns", []string{"Avg. cost", "Cost / conv."}, FieldSpend, -1, false},
		{"conversion value is not conversions", []string{"Conv. value", "All conv."}, FieldConversions, 1, true},
		{"impression share is not impressions", []string{"Search impr. share", "Impressions (total)"}, FieldImpressions, 1, true},
		{"campaign id is not a name", []string{"Campaign ID", "Campaign title"}, FieldName, 1, true},
		{"day of week is not a period", []string{"Day of week", "Reporting date"}, FieldPeriod, 1, true},
		{"case insensitive exact", []string{"  CLICKS  "}, FieldClicks, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ResolveFields(tt.header, DefaultFieldRules)
			idx, ok := m.Index(tt.field)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, idx)
			}
		})
	}
}

func TestResolveFields_ExactBeatsEarlierSubstring(t *testing.T) {
	m := ResolveFields([]string{"Total cost", "Cost"}, DefaultFieldRules)
	idx, _ := m.Index(FieldSpend)
	assert.Equal(t, 1, idx)
}

func TestResolveFields_ExclusionTokenInsideCandidate(t *testing.T) {
	rules := []FieldRule{{
		Field:    FieldSpend,
		Contains: []string{"cost per day", "cost"},
		Exclude:  []string{"per"},
	}}
	m := ResolveFields([]string{"Cost per day"}, rules)
	idx, ok := m.Index(FieldSpend)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
}

func TestFieldIndexMap_Valid(t *testing.T) {
	assert.True(t, FieldIndexMap{FieldName: 0, FieldSpend: 1}.Valid())
	assert.True(t, FieldIndexMap{FieldName: 0, FieldImpressions: 1}.Valid())
	assert.False(t, FieldIndexMap{FieldName: 0, FieldClicks: 1}.Valid())
	assert.False(t, FieldIndexMap{FieldSpend: 1, FieldImpressions: 2}.Valid())
}

func TestFieldIndexMap_Collisions(t *testing.T) {
	m := FieldIndexMap{FieldSpend: 2, FieldBudget: 2, FieldName: 0}
	assert.Equal(t, map[int][]Field{2: {FieldBudget, FieldSpend}}, m.Collisions())
}
