package delivery

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"adsimport/internal/domain"
	"adsimport/internal/usecase"
	"adsimport/pkg/logger"
	"adsimport/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultMaxUploadBytes = 20 << 20

var (
	errNoFile       = errors.New("file form field is required")
	errEmptyFile    = errors.New("uploaded file is empty")
	errFileTooLarge = errors.New("uploaded file is too large")
)

// handles HTTP requests
type HTTPHandlers struct {
	importService  *usecase.ImportService
	reportService  *usecase.ReportService
	logger         *logger.Logger
	metrics        *metrics.Metrics
	maxUploadBytes int64
}

// creates new HTTP handlers
func NewHTTPHandlers(
	importService *usecase.ImportService,
	reportService *usecase.ReportService,
	logger *logger.Logger,
	metrics *metrics.Metrics,
	maxUploadBytes int64,
) *HTTPHandlers {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &HTTPHandlers{
		importService:  importService,
		reportService:  reportService,
		logger:         logger,
		metrics:        metrics,
		maxUploadBytes: maxUploadBytes,
	}
}

// ImportCampaigns parses the uploaded report and merges it into the store
func (h *HTTPHandlers) ImportCampaigns(c *gin.Context) {
	requestID := requestIDOf(c)
	ctx := c.Request.Context()

	upload, err := h.readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid upload",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	result, err := h.importService.Import(ctx, upload)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Campaign import failed")
		c.JSON(statusFor(err), gin.H{
			"error":      "Campaign import failed",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	status := http.StatusOK
	if !result.Recognized {
		status = http.StatusUnprocessableEntity
	}

	c.JSON(status, gin.H{
		"recognized": result.Recognized,
		"source":     result.Source,
		"imported":   result.Imported,
		"replaced":   result.Replaced,
		"period":     result.Period,
		"campaigns":  result.Campaigns,
		"report":     result.Report,
		"request_id": requestID,
	})
}

// ParseCampaigns runs the pipeline over an upload without storing anything
func (h *HTTPHandlers) ParseCampaigns(c *gin.Context) {
	requestID := requestIDOf(c)
	ctx := c.Request.Context()

	upload, err := h.readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid upload",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	res, source, err := h.importService.Parse(ctx, upload)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Campaign parse failed")
		c.JSON(statusFor(err), gin.H{
			"error":      "Campaign parse failed",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	status := http.StatusOK
	if !res.Recognized() {
		status = http.StatusUnprocessableEntity
	}

	campaigns := res.Campaigns
	if campaigns == nil {
		campaigns = []domain.Campaign{}
	}

	c.JSON(status, gin.H{
		"recognized": res.Recognized(),
		"source":     source,
		"campaigns":  campaigns,
		"report":     res.Report,
		"request_id": requestID,
	})
}

// ListCampaigns returns stored campaigns filtered by period, status, type and name
func (h *HTTPHandlers) ListCampaigns(c *gin.Context) {
	requestID := requestIDOf(c)
	ctx := c.Request.Context()

	filter, err := parseCampaignFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid parameters",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	page, err := h.reportService.ListCampaigns(ctx, filter)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to list campaigns")
		c.JSON(statusFor(err), gin.H{
			"error":      "Failed to retrieve campaigns",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       page.Data,
		"total":      page.Total,
		"limit":      page.Limit,
		"offset":     page.Offset,
		"has_more":   page.HasMore,
		"request_id": requestID,
	})
}

// GetCampaignSummary aggregates stored campaigns per reporting month
func (h *HTTPHandlers) GetCampaignSummary(c *gin.Context) {
	requestID := requestIDOf(c)
	ctx := c.Request.Context()

	var period *domain.PeriodKey
	if raw := c.Query("period"); raw != "" {
		key, err := domain.ParsePeriodKey(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      "Invalid period",
				"message":    err.Error(),
				"request_id": requestID,
			})
			return
		}
		period = &key
	}

	summaries, err := h.reportService.Summaries(ctx, period)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to summarize campaigns")
		c.JSON(statusFor(err), gin.H{
			"error":      "Failed to retrieve summary",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       summaries,
		"request_id": requestID,
	})
}

// ExportRun sends one period of stored campaigns to the export sink
func (h *HTTPHandlers) ExportRun(c *gin.Context) {
	requestID := requestIDOf(c)
	ctx := c.Request.Context()

	raw := c.Query("period")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Missing required parameter",
			"message":    "period parameter is required",
			"request_id": requestID,
		})
		return
	}

	period, err := domain.ParsePeriodKey(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "Invalid period",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	count, err := h.reportService.ExportPeriod(ctx, period)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("Failed to export campaigns")
		c.JSON(statusFor(err), gin.H{
			"error":      "Export failed",
			"message":    err.Error(),
			"request_id": requestID,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Export completed successfully",
		"period":     period.Param(),
		"exported":   count,
		"request_id": requestID,
	})
}

// GetAPIInfo returns API v1 information and available endpoints
func (h *HTTPHandlers) GetAPIInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api_version": "v1",
		"service":     "Campaign Import Service",
		"version":     "1.0.0",
		"description": "Imports Google Ads campaign performance exports and serves per-period reports",
		"endpoints": gin.H{
			"import": gin.H{
				"path":        "/api/v1/campaigns/import",
				"method":      "POST",
				"description": "Upload a report (multipart field \"file\") and replace the stored campaigns of its period",
				"formats":     []string{"csv", "tsv", "txt", "xlsx", "png", "jpeg", "webp", "gif", "pdf"},
			},
			"parse": gin.H{
				"path":        "/api/v1/campaigns/parse",
				"method":      "POST",
				"description": "Parse a report without storing it",
			},
			"list": gin.H{
				"path":        "/api/v1/campaigns",
				"method":      "GET",
				"description": "List stored campaigns",
				"parameters": gin.H{
					"period": "Optional: reporting month (YYYY-MM)",
					"status": "Optional: campaign status",
					"type":   "Optional: campaign type",
					"name":   "Optional: name substring",
					"limit":  "Optional: Number of results (default: 100)",
					"offset": "Optional: Pagination offset (default: 0)",
				},
				"example": "/api/v1/campaigns?period=2024-03&status=Enabled",
			},
			"summary": gin.H{
				"path":        "/api/v1/campaigns/summary",
				"method":      "GET",
				"description": "Totals and derived ratios per reporting month",
				"parameters":  gin.H{"period": "Optional: reporting month (YYYY-MM)"},
			},
			"export": gin.H{
				"path":        "/api/v1/export/run",
				"method":      "POST",
				"description": "Export one reporting month to the configured sink",
				"parameters":  gin.H{"period": "Required: reporting month (YYYY-MM)"},
				"example":     "/api/v1/export/run?period=2024-03",
			},
		},
		"derived_metrics": gin.H{
			"ctr":             "Click-through rate, percent (clicks / impressions * 100)",
			"cpc":             "Cost per click (spend / clicks)",
			"conversion_rate": "Conversion rate, percent (conversions / clicks * 100)",
			"cpa":             "Cost per acquisition (spend / conversions)",
		},
		"request_id": requestIDOf(c),
	})
}

// HealthCheck returns the health status of the service
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "adsimport",
		"version":    "1.0.0",
		"request_id": requestIDOf(c),
	})
}

func (h *HTTPHandlers) readUpload(c *gin.Context) (usecase.Upload, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return usecase.Upload{}, errNoFile
	}
	if header.Size > h.maxUploadBytes {
		return usecase.Upload{}, errFileTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return usecase.Upload{}, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return usecase.Upload{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return usecase.Upload{}, errFileTooLarge
	}
	if len(data) == 0 {
		return usecase.Upload{}, errEmptyFile
	}

	return usecase.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// parseCampaignFilter parses the query parameters of the list endpoint
func parseCampaignFilter(c *gin.Context) (domain.CampaignFilter, error) {
	filter := domain.CampaignFilter{
		Status: c.Query("status"),
		Type:   c.Query("type"),
		Name:   c.Query("name"),
	}

	if raw := c.Query("period"); raw != "" {
		key, err := domain.ParsePeriodKey(raw)
		if err != nil {
			return filter, err
		}
		filter.Period = &key
	}

	var err error
	if filter.Limit, err = nonNegativeQuery(c, "limit"); err != nil {
		return filter, err
	}
	if filter.Offset, err = nonNegativeQuery(c, "offset"); err != nil {
		return filter, err
	}
	return filter, nil
}

func nonNegativeQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return v, nil
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoCampaigns):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrExtractorUnavailable),
		errors.Is(err, domain.ErrExportNotConfigured),
		errors.Is(err, domain.ErrLockNotAcquired):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func requestIDOf(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return uuid.New().String()
}
