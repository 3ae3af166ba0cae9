package ingest

import (
	"slices"
	"strings"
)

// Field is a canonical campaign attribute a column can map to.
type Field string

const (
	FieldName        Field = "name"
	FieldType        Field = "type"
	FieldStatus      Field = "status"
	FieldBudget      Field = "budget"
	FieldImpressions Field = "impressions"
	FieldClicks      Field = "clicks"
	FieldSpend       Field = "spend"
	FieldConversions Field = "conversions"
	FieldCurrency    Field = "currency"
	FieldPeriod      Field = "period"
)

// FieldRule resolves one canonical field. Exact names are tried first
// against whole header cells, then Contains names as substrings. A
// substring hit is rejected when the header holds an Exclude token that the
// candidate itself does not. All names are lower case.
type FieldRule struct {
	Field    Field
	Exact    []string
	Contains []string
	Exclude  []string
}

// DefaultFieldRules cover English and Russian Google Ads exports.
var DefaultFieldRules = []FieldRule{
	{
		Field:    FieldName,
		Exact:    []string{"campaign", "campaign name", "кампания", "название кампании"},
		Contains: []string{"campaign", "кампания"},
		Exclude:  []string{"type", "status", "state", "budget", "id", "тип", "статус", "бюджет"},
	},
	{
		Field:    FieldType,
		Exact:    []string{"campaign type", "advertising channel type", "тип кампании"},
		Contains: []string{"type", "тип"},
		Exclude:  []string{"budget", "bid", "бюджет", "ставк"},
	},
	{
		Field:    FieldStatus,
		Exact:    []string{"campaign status", "status", "статус кампании", "статус"},
		Contains: []string{"status", "state", "статус"},
		Exclude:  []string{"reason", "причин"},
	},
	{
		Field:    FieldBudget,
		Exact:    []string{"budget", "campaign budget", "daily budget", "бюджет", "бюджет кампании"},
		Contains: []string{"budget", "бюджет"},
		Exclude:  []string{"type", "name", "explicitly shared", "тип", "название"},
	},
	{
		Field:    FieldImpressions,
		Exact:    []string{"impressions", "impr.", "impr", "показы"},
		Contains: []string{"impr", "показ"},
		Exclude:  []string{"%", "share", "rate", "cost", "cpm", "доля", "цена", "стоимость"},
	},
	{
		Field:    FieldClicks,
		Exact:    []string{"clicks", "клики"},
		Contains: []string{"click", "клик"},
		Exclude:  []string{"%", "rate", "ctr", "cost", "cpc", "per", "avg", "цена", "стоимость", "коэф", "средн"},
	},
	{
		Field:    FieldSpend,
		Exact:    []string{"cost", "spend", "amount spent", "стоимость", "расход", "расходы"},
		Contains: []string{"cost", "spend", "стоимость", "расход"},
		Exclude:  []string{"/", "per", "avg", "cpc", "cpa", "cpm", "за", "средн", "цена"},
	},
	{
		Field:    FieldConversions,
		Exact:    []string{"conversions", "conv.", "конверсии"},
		Contains: []string{"conversion", "conv", "конверс"},
		Exclude:  []string{"%", "/", "rate", "value", "cost", "per", "коэф", "ценность", "стоимость", "цена"},
	},
	{
		Field:    FieldCurrency,
		Exact:    []string{"currency", "currency code", "валюта", "код валюты"},
		Contains: []string{"currency", "валют"},
	},
	{
		Field:    FieldPeriod,
		Exact:    []string{"day", "date", "period", "month", "день", "дата", "период", "месяц"},
		Contains: []string{"date", "day", "period", "month", "дата", "день", "период", "месяц"},
		Exclude:  []string{"of week", "недели", "hour", "час"},
	},
}

// FieldIndexMap maps canonical fields to zero-based column indices.
// Absent fields were not found.
type FieldIndexMap map[Field]int

// Index reports the column of f.
func (m FieldIndexMap) Index(f Field) (int, bool) {
	idx, ok := m[f]
	return idx, ok
}

// Has reports whether f resolved to a column.
func (m FieldIndexMap) Has(f Field) bool {
	_, ok := m[f]
	return ok
}

// Valid is the gate for a genuine campaign performance export: a name
// column plus spend or impressions.
func (m FieldIndexMap) Valid() bool {
	return m.Has(FieldName) && (m.Has(FieldSpend) || m.Has(FieldImpressions))
}

// ResolveFields maps header cells to canonical fields using rules.
func ResolveFields(header []string, rules []FieldRule) FieldIndexMap {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(h))
	}

	m := make(FieldIndexMap, len(rules))
	for _, rule := range rules {
		if idx, ok := rule.resolve(normalized); ok {
			m[rule.Field] = idx
		}
	}
	return m
}

func (r FieldRule) resolve(header []string) (int, bool) {
	for _, name := range r.Exact {
		for i, h := range header {
			if h == name {
				return i, true
			}
		}
	}
	for _, name := range r.Contains {
		for i, h := range header {
			if strings.Contains(h, name) && !r.excluded(h, name) {
				return i, true
			}
		}
	}
	return -1, false
}

func (r FieldRule) excluded(header, candidate string) bool {
	for _, token := range r.Exclude {
		if strings.Contains(header, token) && !strings.Contains(candidate, token) {
			return true
		}
	}
	return false
}

// Collisions lists columns claimed by more than one field.
func (m FieldIndexMap) Collisions() map[int][]Field {
	byIndex := make(map[int][]Field)
	for field, idx := range m {
		byIndex[idx] = append(byIndex[idx], field)
	}
	for idx, fields := range byIndex {
		if len(fields) < 2 {
			delete(byIndex, idx)
			continue
		}
		slices.Sort(fields)
	}
	return byIndex
}

// Names renders the map with plain string keys for reports.
func (m FieldIndexMap) Names() map[string]int {
	out := make(map[string]int, len(m))
	for field, idx := range m {
		out[string(field)] = idx
	}
	return out
}
