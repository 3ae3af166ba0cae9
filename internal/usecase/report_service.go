package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"adsimport/internal/domain"
	"adsimport/pkg/logger"
	"adsimport/pkg/metrics"
)

const defaultPageLimit = 100

// ReportService answers queries over the stored campaigns.
type ReportService struct {
	repo         domain.CampaignRepository
	exportClient domain.ExportClient
	logger       *logger.Logger
	metrics      *metrics.Metrics
}

// NewReportService creates a report service. exportClient may be nil when
// no sink is configured.
func NewReportService(
	repo domain.CampaignRepository,
	exportClient domain.ExportClient,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *ReportService {
	return &ReportService{
		repo:         repo,
		exportClient: exportClient,
		logger:       logger,
		metrics:      metrics,
	}
}

// ListCampaigns returns one page of stored campaigns matching filter, in
// stored order (most recent import first).
func (s *ReportService) ListCampaigns(ctx context.Context, filter domain.CampaignFilter) (*domain.CampaignPage, error) {
	log := s.logger.WithContext(ctx)
	log.WithFields(map[string]any{
		"period": filter.Period,
		"status": filter.Status,
		"type":   filter.Type,
		"name":   filter.Name,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	}).Info("Listing campaigns")

	all, err := s.repo.GetAll(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load campaigns")
		return nil, fmt.Errorf("failed to load campaigns: %w", err)
	}

	var filtered []domain.Campaign
	for _, c := range all {
		if matchesFilter(c, filter) {
			filtered = append(filtered, c)
		}
	}

	limit := defaultPageLimit
	offset := 0
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	if filter.Offset > 0 {
		offset = filter.Offset
	}

	total := len(filtered)
	start := min(offset, total)
	end := start + min(limit, total-start)

	page := []domain.Campaign{}
	if start < end {
		page = filtered[start:end]
	}

	s.metrics.RecordReportQuery("list")

	log.WithFields(map[string]any{
		"count": len(page),
		"total": total,
	}).Info("Listed campaigns")

	return &domain.CampaignPage{
		Data:    page,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
	}, nil
}

func matchesFilter(c domain.Campaign, filter domain.CampaignFilter) bool {
	if filter.Period != nil {
		key, ok := c.PeriodKey()
		if !ok || key != *filter.Period {
			return false
		}
	}
	if filter.Status != "" && !strings.EqualFold(c.Status, filter.Status) {
		return false
	}
	if filter.Type != "" && !strings.EqualFold(c.Type, filter.Type) {
		return false
	}
	if filter.Name != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(filter.Name)) {
		return false
	}
	return true
}

// Summaries aggregates the stored campaigns per period, newest period
// first. A non-nil period restricts the result to that month. Campaigns
// with an unreadable period are left out.
func (s *ReportService) Summaries(ctx context.Context, period *domain.PeriodKey) ([]domain.PeriodSummary, error) {
	log := s.logger.WithContext(ctx)
	log.WithField("period", period).Info("Getting period summaries")

	all, err := s.repo.GetAll(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load campaigns")
		return nil, fmt.Errorf("failed to load campaigns: %w", err)
	}

	byPeriod := make(map[domain.PeriodKey][]domain.Campaign)
	for _, c := range all {
		key, ok := c.PeriodKey()
		if !ok || (period != nil && key != *period) {
			continue
		}
		byPeriod[key] = append(byPeriod[key], c)
	}

	keys := make([]domain.PeriodKey, 0, len(byPeriod))
	for key := range byPeriod {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b domain.PeriodKey) int {
		if a.Year != b.Year {
			return b.Year - a.Year
		}
		return int(b.Month) - int(a.Month)
	})

	summaries := make([]domain.PeriodSummary, 0, len(keys))
	for _, key := range keys {
		summaries = append(summaries, Summarize(key, byPeriod[key]))
	}

	s.metrics.RecordReportQuery("summary")

	log.WithField("periods", len(summaries)).Info("Computed period summaries")
	return summaries, nil
}

// Summarize totals one period's campaigns. Ratios are derived from the
// totals.
func Summarize(key domain.PeriodKey, campaigns []domain.Campaign) domain.PeriodSummary {
	var total domain.Campaign
	currencies := make(map[string]bool)
	for _, c := range campaigns {
		total.Impressions += c.Impressions
		total.Clicks += c.Clicks
		total.Spend += c.Spend
		total.Conversions += c.Conversions
		total.Budget += c.Budget
		if c.CurrencyCode != "" {
			currencies[c.CurrencyCode] = true
		}
	}
	total.Derive()

	codes := make([]string, 0, len(currencies))
	for code := range currencies {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	return domain.PeriodSummary{
		Period:         key.Param(),
		PeriodLabel:    key.String(),
		Campaigns:      len(campaigns),
		Impressions:    total.Impressions,
		Clicks:         total.Clicks,
		Spend:          total.Spend,
		Conversions:    total.Conversions,
		Budget:         total.Budget,
		CTR:            total.CTR,
		CPC:            total.CPC,
		ConversionRate: total.ConversionRate,
		CPA:            total.CPA,
		Currencies:     codes,
	}
}

// ExportPeriod sends the campaigns of one period to the export sink and
// returns how many were sent.
func (s *ReportService) ExportPeriod(ctx context.Context, period domain.PeriodKey) (int, error) {
	log := s.logger.WithContext(ctx)
	log.WithField("period", period.Param()).Info("Starting campaign export")

	if s.exportClient == nil {
		return 0, domain.ErrExportNotConfigured
	}

	all, err := s.repo.GetAll(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load campaigns for export")
		return 0, fmt.Errorf("failed to load campaigns for export: %w", err)
	}

	var campaigns []domain.Campaign
	for _, c := range all {
		if key, ok := c.PeriodKey(); ok && key == period {
			campaigns = append(campaigns, c)
		}
	}

	if len(campaigns) == 0 {
		log.Warn("No campaigns found for export period")
		return 0, fmt.Errorf("%w for period %s", domain.ErrNoCampaigns, period.Param())
	}

	if err := s.exportClient.Export(ctx, campaigns, period); err != nil {
		log.WithError(err).Error("Failed to export campaigns")
		return 0, fmt.Errorf("failed to export campaigns: %w", err)
	}

	s.metrics.RecordReportQuery("export")

	log.WithField("records", len(campaigns)).Info("Campaign export completed successfully")
	return len(campaigns), nil
}
