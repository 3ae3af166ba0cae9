package domain

import (
	"math"
	"time"
)

type BudgetType string

const (
	BudgetDaily BudgetType = "Daily"
	BudgetTotal BudgetType = "Total"
)

// Campaign is one reporting row of an ad campaign. ID stays empty until a
// repository assigns one on Replace.
type Campaign struct {
	ID             string     `json:"id,omitempty"`
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	Budget         float64    `json:"budget"`
	BudgetType     BudgetType `json:"budget_type"`
	Impressions    int64      `json:"impressions"`
	Clicks         int64      `json:"clicks"`
	CTR            float64    `json:"ctr"`
	Spend          float64    `json:"spend"`
	Conversions    float64    `json:"conversions"`
	CPC            float64    `json:"cpc"`
	ConversionRate float64    `json:"conversion_rate"`
	CPA            float64    `json:"cpa"`
	Strategy       string     `json:"strategy"`
	Period         string     `json:"period"`
	CurrencyCode   string     `json:"currency_code"`
}

// Derive recomputes CTR, CPC, ConversionRate and CPA from the base fields.
// Source values for the ratios are never trusted.
func (c *Campaign) Derive() {
	c.CTR, c.CPC, c.ConversionRate, c.CPA = 0, 0, 0, 0

	if c.Impressions > 0 {
		c.CTR = float64(c.Clicks) / float64(c.Impressions) * 100
	}
	if c.Clicks > 0 {
		c.CPC = c.Spend / float64(c.Clicks)
		c.ConversionRate = c.Conversions / float64(c.Clicks) * 100
	}
	if c.Conversions > 0 {
		c.CPA = c.Spend / c.Conversions
	}
}

// ClampNonNegative forces the base metrics to be >= 0.
func (c *Campaign) ClampNonNegative() {
	c.Budget = nonNegative(c.Budget)
	c.Spend = nonNegative(c.Spend)
	c.Conversions = nonNegative(c.Conversions)
	if c.Impressions < 0 {
		c.Impressions = 0
	}
	if c.Clicks < 0 {
		c.Clicks = 0
	}
}

// PeriodKey returns the (year, month) the campaign reports on. ok is false
// when Period does not hold a parseable ISO-8601 date.
func (c Campaign) PeriodKey() (PeriodKey, bool) {
	return PeriodKeyOf(c.Period)
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// PeriodTime formats t the way Campaign.Period is stored.
func PeriodTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
