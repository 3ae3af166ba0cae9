package infrastructure

import (
	"adsimport/internal/domain"
)

// campaignColumns is the column order shared by the SQL stores. position
// preserves the collection order across Replace.
var campaignColumns = []string{
	"position", "id", "name", "type", "status", "budget", "budget_type",
	"impressions", "clicks", "ctr", "spend", "conversions", "cpc",
	"conversion_rate", "cpa", "strategy", "period", "currency_code",
}

func campaignRow(position int, c domain.Campaign) []any {
	return []any{
		position, c.ID, c.Name, c.Type, c.Status, c.Budget, string(c.BudgetType),
		c.Impressions, c.Clicks, c.CTR, c.Spend, c.Conversions, c.CPC,
		c.ConversionRate, c.CPA, c.Strategy, c.Period, c.CurrencyCode,
	}
}

// scanner is satisfied by pgx.Rows and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanCampaign reads the columns after position.
func scanCampaign(row scanner) (domain.Campaign, error) {
	var (
		c          domain.Campaign
		position   int
		budgetType string
	)
	err := row.Scan(
		&position, &c.ID, &c.Name, &c.Type, &c.Status, &c.Budget, &budgetType,
		&c.Impressions, &c.Clicks, &c.CTR, &c.Spend, &c.Conversions, &c.CPC,
		&c.ConversionRate, &c.CPA, &c.Strategy, &c.Period, &c.CurrencyCode,
	)
	c.BudgetType = domain.BudgetType(budgetType)
	return c, err
}
