package infrastructure

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"adsimport/internal/domain"
	"adsimport/pkg/logger"
	"adsimport/pkg/metrics"

	"golang.org/x/time/rate"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Signature"

// ExportPayload is the body posted to the sink.
type ExportPayload struct {
	Period      string            `json:"period"`
	PeriodLabel string            `json:"period_label"`
	ExportedAt  time.Time         `json:"exported_at"`
	Count       int               `json:"count"`
	Campaigns   []domain.Campaign `json:"campaigns"`
}

// implements domain.ExportClient
type SinkClient struct {
	client      *http.Client
	sinkURL     string
	sinkSecret  string
	logger      *logger.Logger
	metrics     *metrics.Metrics
	rateLimiter *rate.Limiter
	now         func() time.Time
}

// creates a new sink client
func NewSinkClient(sinkURL, sinkSecret string, timeout time.Duration, logger *logger.Logger, metrics *metrics.Metrics) *SinkClient {
	return &SinkClient{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		sinkURL:     sinkURL,
		sinkSecret:  sinkSecret,
		logger:      logger,
		metrics:     metrics,
		rateLimiter: rate.NewLimiter(rate.Limit(10), 5),
		now:         time.Now,
	}
}

func (c *SinkClient) Export(ctx context.Context, campaigns []domain.Campaign, period domain.PeriodKey) error {
	if c.sinkURL == "" {
		return domain.ErrExportNotConfigured
	}

	start := time.Now()

	if err := c.rateLimiter.Wait(ctx); err != nil {
		c.metrics.RecordExternalAPIFailure("sink", "rate_limit")
		return fmt.Errorf("rate limit exceeded: %w", err)
	}

	payload, err := json.Marshal(ExportPayload{
		Period:      period.Param(),
		PeriodLabel: period.String(),
		ExportedAt:  c.now().UTC(),
		Count:       len(campaigns),
		Campaigns:   campaigns,
	})
	if err != nil {
		c.metrics.RecordExternalAPIFailure("sink", "json_marshal")
		return fmt.Errorf("failed to marshal export data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sinkURL, bytes.NewReader(payload))
	if err != nil {
		c.metrics.RecordExternalAPIFailure("sink", "request_creation")
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.sinkSecret != "" {
		req.Header.Set(SignatureHeader, Sign(c.sinkSecret, payload))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.RecordExternalAPIFailure("sink", "network_error")
		return fmt.Errorf("failed to export campaigns: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.RecordExternalAPICall("sink", fmt.Sprintf("error_%d", resp.StatusCode), duration)
		return fmt.Errorf("sink API returned status %d", resp.StatusCode)
	}

	c.metrics.RecordExternalAPICall("sink", "success", duration)

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"url":      c.sinkURL,
		"duration": duration,
		"records":  len(campaigns),
		"period":   period.Param(),
	}).Info("Successfully exported campaigns")

	return nil
}

// Sign returns the hex HMAC-SHA256 of payload under secret.
func Sign(secret string, payload []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
