package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PartialCampaign is whatever field set an extractor could read from a
// document. Missing fields stay at their zero value and get defaulted by
// the record builder.
type PartialCampaign struct {
	Name         string    `json:"name"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	Budget       FlexValue `json:"budget"`
	BudgetType   string    `json:"budgetType"`
	Impressions  FlexValue `json:"impressions"`
	Clicks       FlexValue `json:"clicks"`
	Spend        FlexValue `json:"spend"`
	Conversions  FlexValue `json:"conversions"`
	Strategy     string    `json:"strategy"`
	Period       string    `json:"period"`
	CurrencyCode string    `json:"currencyCode"`
}

// FlexValue holds a scalar that may arrive as a JSON number or as a
// locale-formatted string such as "1 234,50".
type FlexValue struct {
	Raw     string
	Numeric bool
	Set     bool
}

func (v *FlexValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = FlexValue{}
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FlexValue{Raw: s, Set: s != ""}
	case len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')):
		*v = FlexValue{Raw: string(data), Numeric: true, Set: true}
	default:
		return fmt.Errorf("unsupported numeric value %s", data)
	}
	return nil
}

func (v FlexValue) MarshalJSON() ([]byte, error) {
	if !v.Set {
		return []byte("null"), nil
	}
	if v.Numeric {
		return []byte(v.Raw), nil
	}
	return json.Marshal(v.Raw)
}
