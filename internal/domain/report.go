package domain

// represents filters for querying stored campaigns
type CampaignFilter struct {
	Period *PeriodKey `json:"period,omitempty"`
	Status string     `json:"status,omitempty"`
	Type   string     `json:"type,omitempty"`
	Name   string     `json:"name,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}

// represents the API response for campaign queries
type CampaignPage struct {
	Data    []Campaign `json:"data"`
	Total   int        `json:"total"`
	Limit   int        `json:"limit"`
	Offset  int        `json:"offset"`
	HasMore bool       `json:"has_more"`
}

// PeriodSummary aggregates one reporting month. Ratios are recomputed from
// the totals, not averaged.
type PeriodSummary struct {
	Period         string   `json:"period"`
	PeriodLabel    string   `json:"period_label"`
	Campaigns      int      `json:"campaigns"`
	Impressions    int64    `json:"impressions"`
	Clicks         int64    `json:"clicks"`
	Spend          float64  `json:"spend"`
	Conversions    float64  `json:"conversions"`
	Budget         float64  `json:"budget"`
	CTR            float64  `json:"ctr"`
	CPC            float64  `json:"cpc"`
	ConversionRate float64  `json:"conversion_rate"`
	CPA            float64  `json:"cpa"`
	Currencies     []string `json:"currencies"`
}

// ImportResult describes the outcome of one import.
type ImportResult struct {
	Recognized bool        `json:"recognized"`
	Source     string      `json:"source"`
	Imported   int         `json:"imported"`
	Replaced   int         `json:"replaced"`
	Period     string      `json:"period,omitempty"`
	Campaigns  []Campaign  `json:"campaigns,omitempty"`
	Report     ParseReport `json:"report"`
}

// ParseReport carries the diagnostics of a parse. Parsing itself never
// fails on data quality; this is where the problems show up. Collisions
// lists columns that more than one field resolved to.
type ParseReport struct {
	HeaderLine    int              `json:"header_line"`
	Delimiter     string           `json:"delimiter,omitempty"`
	Fields        map[string]int   `json:"fields,omitempty"`
	Collisions    map[int][]string `json:"collisions,omitempty"`
	DataRows      int              `json:"data_rows"`
	DroppedShort  int              `json:"dropped_short"`
	DroppedTotals int              `json:"dropped_totals"`
	Coerced       map[string]int   `json:"coerced,omitempty"`
	Reason        string           `json:"reason,omitempty"`
}
