package infrastructure

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"adsimport/internal/domain"
	"adsimport/pkg/logger"
	"adsimport/pkg/metrics"
)

const extractionPrompt = `The attached document is an advertising campaign performance report.
Extract every campaign row and answer with a JSON array only, no prose.
Each element is an object with these keys (omit a key when the value is not shown):
"name", "type", "status", "budget", "budgetType" ("Daily" or "Total"),
"impressions", "clicks", "spend", "conversions", "strategy",
"period" (the report date or the start of the date range, as shown),
"currencyCode" (ISO 4217).
Copy numbers exactly as printed. Skip total and summary rows.`

// ExtractorConfig configures AnthropicExtractor.
type ExtractorConfig struct {
	APIKey             string
	BaseURL            string
	Model              string
	MaxTokens          int64
	RateLimitPerSecond float64
}

// AnthropicExtractor implements domain.DocumentExtractor by asking a
// Claude model to transcribe a report image or PDF into campaign rows.
type AnthropicExtractor struct {
	client      sdk.Client
	model       string
	maxTokens   int64
	rateLimiter *rate.Limiter
	logger      *logger.Logger
	metrics     *metrics.Metrics
}

func NewAnthropicExtractor(cfg ExtractorConfig, logger *logger.Logger, metrics *metrics.Metrics, opts ...option.RequestOption) *AnthropicExtractor {
	clientOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	clientOpts = append(clientOpts, opts...)

	limit := rate.Inf
	if cfg.RateLimitPerSecond > 0 {
		limit = rate.Limit(cfg.RateLimitPerSecond)
	}

	return &AnthropicExtractor{
		client:      sdk.NewClient(clientOpts...),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		rateLimiter: rate.NewLimiter(limit, 1),
		logger:      logger,
		metrics:     metrics,
	}
}

func (e *AnthropicExtractor) ExtractCampaigns(ctx context.Context, mimeType, base64Data string) ([]domain.PartialCampaign, error) {
	block, err := documentBlock(mimeType, base64Data)
	if err != nil {
		return nil, err
	}

	if err := e.rateLimiter.Wait(ctx); err != nil {
		e.metrics.RecordExternalAPIFailure("anthropic", "rate_limit")
		return nil, eris.Wrap(err, "anthropic: rate limit")
	}

	start := time.Now()
	msg, err := e.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(e.model),
		MaxTokens: e.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(block, sdk.NewTextBlock(extractionPrompt)),
		},
	})
	duration := time.Since(start)
	if err != nil {
		e.metrics.RecordExternalAPICall("anthropic", "error", duration)
		e.metrics.RecordExternalAPIFailure("anthropic", "request")
		return nil, eris.Wrap(err, "anthropic: create message")
	}
	e.metrics.RecordExternalAPICall("anthropic", "success", duration)

	var text strings.Builder
	for _, c := range msg.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}

	partials, err := decodePartials(text.String())
	if err != nil {
		e.metrics.RecordExternalAPIFailure("anthropic", "decode")
		return nil, err
	}

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"mime_type":     mimeType,
		"campaigns":     len(partials),
		"input_tokens":  msg.Usage.InputTokens,
		"output_tokens": msg.Usage.OutputTokens,
		"duration":      duration,
	}).Info("Extracted campaigns from document")

	return partials, nil
}

func documentBlock(mimeType, base64Data string) (sdk.ContentBlockParamUnion, error) {
	switch mimeType {
	case "application/pdf":
		return sdk.NewDocumentBlock(sdk.Base64PDFSourceParam{Data: base64Data}), nil
	case "image/png", "image/jpeg", "image/webp", "image/gif":
		return sdk.NewImageBlockBase64(mimeType, base64Data), nil
	}
	return sdk.ContentBlockParamUnion{}, eris.Wrapf(domain.ErrUnsupportedFormat, "anthropic: media type %s", mimeType)
}

// decodePartials reads the JSON array out of a model answer, tolerating
// markdown code fences and surrounding prose.
func decodePartials(answer string) ([]domain.PartialCampaign, error) {
	start := strings.Index(answer, "[")
	end := strings.LastIndex(answer, "]")
	if start < 0 || end < start {
		return nil, eris.New("anthropic: answer holds no JSON array")
	}

	var partials []domain.PartialCampaign
	if err := json.Unmarshal([]byte(answer[start:end+1]), &partials); err != nil {
		return nil, eris.Wrap(err, "anthropic: decode campaigns")
	}
	return partials, nil
}
