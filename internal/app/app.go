// Package app wires configuration into the import and report services
// shared by the HTTP server and the CLI.
package app

import (
	"context"

	"adsimport/internal/domain"
	"adsimport/internal/infrastructure"
	"adsimport/internal/ingest"
	"adsimport/internal/usecase"
	"adsimport/pkg/config"
	"adsimport/pkg/logger"
	"adsimport/pkg/metrics"
)

type App struct {
	Imports *usecase.ImportService
	Reports *usecase.ReportService

	closers []func()
}

// ParserOptions maps the import section of the config onto parser options.
func ParserOptions(cfg config.ImportConfig) ingest.Options {
	opts := ingest.DefaultOptions()
	opts.Markers = cfg.HeaderMarkers
	opts.ScanWindow = cfg.HeaderScanWindow
	opts.DefaultCurrency = cfg.DefaultCurrency
	opts.DefaultType = cfg.DefaultType
	opts.DefaultStatus = cfg.DefaultStatus
	opts.DefaultStrategy = cfg.DefaultStrategy
	opts.SkipTotalRows = cfg.SkipTotalRows
	return opts
}

// New opens the configured store and optional collaborators. Close must be
// called to release them.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (*App, error) {
	a := &App{}

	repo, closeRepo, err := infrastructure.OpenRepository(ctx, cfg.Store, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeRepo)

	var locker domain.Locker
	if cfg.Redis.Addr != "" {
		client, err := infrastructure.OpenRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() { client.Close() })
		locker = infrastructure.NewRedisLocker(client, cfg.Redis.LockTTL, log)
	}

	var extractor domain.DocumentExtractor
	if cfg.AI.APIKey != "" {
		extractor = infrastructure.NewAnthropicExtractor(infrastructure.ExtractorConfig{
			APIKey:             cfg.AI.APIKey,
			BaseURL:            cfg.AI.BaseURL,
			Model:              cfg.AI.Model,
			MaxTokens:          cfg.AI.MaxTokens,
			RateLimitPerSecond: cfg.AI.RateLimitPerSecond,
		}, log, m)
	}

	var exportClient domain.ExportClient
	if cfg.Export.SinkURL != "" {
		exportClient = infrastructure.NewSinkClient(cfg.Export.SinkURL, cfg.Export.SinkSecret, cfg.Export.Timeout, log, m)
	}

	parser := ingest.NewParser(ParserOptions(cfg.Import))
	a.Imports = usecase.NewImportService(repo, parser, extractor, locker, log, m)
	a.Reports = usecase.NewReportService(repo, exportClient, log, m)

	log.WithFields(map[string]any{
		"store":     cfg.Store.Driver,
		"redis":     locker != nil,
		"extractor": extractor != nil,
		"export":    exportClient != nil,
	}).Info("Services initialized")

	return a, nil
}

// Close releases collaborators in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
