package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"adsimport/internal/domain"
)

const placeholderName = "N/A"

var currencyCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

var (
	totalBudgetTokens  = []string{"total", "lifetime", "общий"}
	summaryRowPrefixes = []string{"total", "итого"}
)

// rowBuilder assembles campaigns from the data rows under one resolved
// header. It counts the cells it had to default.
type rowBuilder struct {
	opts       Options
	fields     FieldIndexMap
	budgetType domain.BudgetType
	coerced    map[string]int
}

func newRowBuilder(opts Options, header []string, fields FieldIndexMap) *rowBuilder {
	b := &rowBuilder{
		opts:       opts,
		fields:     fields,
		budgetType: domain.BudgetDaily,
		coerced:    make(map[string]int),
	}
	if idx, ok := fields.Index(FieldBudget); ok && idx < len(header) {
		b.budgetType = budgetTypeOf(header[idx])
	}
	return b
}

func (b *rowBuilder) build(row []string) domain.Campaign {
	c := domain.Campaign{
		Name:         b.name(row),
		Type:         b.text(row, FieldType, b.opts.DefaultType),
		Status:       b.text(row, FieldStatus, b.opts.DefaultStatus),
		Budget:       b.number(row, FieldBudget, false),
		BudgetType:   b.budgetType,
		Impressions:  roundCount(b.number(row, FieldImpressions, true)),
		Clicks:       roundCount(b.number(row, FieldClicks, true)),
		Spend:        b.number(row, FieldSpend, false),
		Conversions:  b.number(row, FieldConversions, false),
		Strategy:     b.opts.DefaultStrategy,
		Period:       b.period(row),
		CurrencyCode: b.currency(row),
	}
	c.ClampNonNegative()
	c.Derive()
	return c
}

func (b *rowBuilder) cell(row []string, f Field) (string, bool) {
	idx, ok := b.fields.Index(f)
	if !ok || idx >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[idx]), true
}

func (b *rowBuilder) coerce(f Field) {
	b.coerced[string(f)]++
}

func (b *rowBuilder) name(row []string) string {
	raw, _ := b.cell(row, FieldName)
	if raw == "" {
		b.coerce(FieldName)
		return placeholderName
	}
	return raw
}

func (b *rowBuilder) text(row []string, f Field, fallback string) string {
	if raw, _ := b.cell(row, f); raw != "" {
		return raw
	}
	return fallback
}

func (b *rowBuilder) number(row []string, f Field, integer bool) float64 {
	raw, ok := b.cell(row, f)
	if !ok {
		return 0
	}
	v, parsed := ParseNumber(raw, integer)
	if !parsed {
		b.coerce(f)
	}
	return v
}

func (b *rowBuilder) period(row []string) string {
	raw, ok := b.cell(row, FieldPeriod)
	if !ok {
		return domain.PeriodTime(b.opts.Clock())
	}
	t, parsed := ParseDate(raw, b.opts.Clock)
	if !parsed {
		b.coerce(FieldPeriod)
	}
	return domain.PeriodTime(t)
}

func (b *rowBuilder) currency(row []string) string {
	raw, ok := b.cell(row, FieldCurrency)
	if !ok {
		return b.opts.DefaultCurrency
	}
	if !currencyCodePattern.MatchString(raw) {
		b.coerce(FieldCurrency)
		return b.opts.DefaultCurrency
	}
	return raw
}

// isSummary reports whether the row is a "Total: ..." footer. The label
// sits in the name column or, in Google Ads exports, in the first cell.
func (b *rowBuilder) isSummary(row []string) bool {
	name, _ := b.cell(row, FieldName)
	return isSummaryLabel(name) || isSummaryLabel(firstNonBlank(row))
}

// isSummaryLabel matches the footer label alone ("Total", "Итого") or
// followed by a colon ("Total: Campaigns"). A campaign named "Total Brand
// Awareness" is not a footer.
func isSummaryLabel(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	for _, prefix := range summaryRowPrefixes {
		rest, ok := strings.CutPrefix(lower, prefix)
		if !ok {
			continue
		}
		if rest = strings.TrimSpace(rest); rest == "" || strings.HasPrefix(rest, ":") {
			return true
		}
	}
	return false
}

func firstNonBlank(row []string) string {
	for _, cell := range row {
		if cell = strings.TrimSpace(cell); cell != "" {
			return cell
		}
	}
	return ""
}

// Normalize fills a partially extracted campaign the same way a CSV row is
// filled: defaults for missing text, locale-aware numbers, a parsed period
// and recomputed ratios.
func (p *Parser) Normalize(pc domain.PartialCampaign) domain.Campaign {
	c := domain.Campaign{
		Name:         orDefault(pc.Name, placeholderName),
		Type:         orDefault(pc.Type, p.opts.DefaultType),
		Status:       orDefault(pc.Status, p.opts.DefaultStatus),
		Budget:       flexNumber(pc.Budget, false),
		BudgetType:   budgetTypeOf(pc.BudgetType),
		Impressions:  roundCount(flexNumber(pc.Impressions, true)),
		Clicks:       roundCount(flexNumber(pc.Clicks, true)),
		Spend:        flexNumber(pc.Spend, false),
		Conversions:  flexNumber(pc.Conversions, false),
		Strategy:     orDefault(pc.Strategy, p.opts.DefaultStrategy),
		CurrencyCode: p.opts.DefaultCurrency,
	}

	t, _ := ParseDate(pc.Period, p.opts.Clock)
	c.Period = domain.PeriodTime(t)

	if code := strings.ToUpper(strings.TrimSpace(pc.CurrencyCode)); currencyCodePattern.MatchString(code) {
		c.CurrencyCode = code
	}

	c.ClampNonNegative()
	c.Derive()
	return c
}

// NormalizeAll applies Normalize to every extracted campaign.
func (p *Parser) NormalizeAll(partials []domain.PartialCampaign) []domain.Campaign {
	out := make([]domain.Campaign, 0, len(partials))
	for _, pc := range partials {
		out = append(out, p.Normalize(pc))
	}
	return out
}

func flexNumber(v domain.FlexValue, integer bool) float64 {
	if !v.Set {
		return 0
	}
	if v.Numeric {
		f, err := strconv.ParseFloat(v.Raw, 64)
		if err != nil {
			return 0
		}
		return f
	}
	f, _ := ParseNumber(v.Raw, integer)
	return f
}

func budgetTypeOf(s string) domain.BudgetType {
	lower := strings.ToLower(s)
	for _, token := range totalBudgetTokens {
		if strings.Contains(lower, token) {
			return domain.BudgetTotal
		}
	}
	return domain.BudgetDaily
}

func roundCount(v float64) int64 {
	return int64(math.Round(v))
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}
