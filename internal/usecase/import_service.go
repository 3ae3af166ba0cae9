package usecase

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"adsimport/internal/domain"
	"adsimport/internal/ingest"
	"adsimport/pkg/logger"
	"adsimport/pkg/metrics"
)

// MergeLockKey names the distributed lock held around the stored
// collection's read-modify-write.
const MergeLockKey = "adsimport:merge"

// Upload sources, also used as metric labels.
const (
	SourceCSV      = "csv"
	SourceXLSX     = "xlsx"
	SourceDocument = "document"
)

const reasonNothingExtracted = "no campaigns extracted"

// Upload is one file handed to the importer.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

var documentTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
}

// DetectSource picks the importer for an upload by file extension, falling
// back to the declared content type. mimeType is set for documents.
func DetectSource(filename, contentType string) (source, mimeType string, err error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".csv", ".tsv", ".txt":
		return SourceCSV, "", nil
	case ".xlsx":
		return SourceXLSX, "", nil
	default:
		if mt, ok := documentTypes[ext]; ok {
			return SourceDocument, mt, nil
		}
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "text/csv", "text/plain", "text/tab-separated-values", "application/csv":
		return SourceCSV, "", nil
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return SourceXLSX, "", nil
	case "image/png", "image/jpeg", "image/webp", "image/gif", "application/pdf":
		return SourceDocument, mediaType, nil
	}

	return "", "", fmt.Errorf("%w: %q (%s)", domain.ErrUnsupportedFormat, filename, contentType)
}

// ImportService parses uploads and merges them into the stored collection.
type ImportService struct {
	repo      domain.CampaignRepository
	parser    *ingest.Parser
	extractor domain.DocumentExtractor
	locker    domain.Locker
	logger    *logger.Logger
	metrics   *metrics.Metrics

	// mu serializes merges within this process; locker extends that
	// across processes sharing the store.
	mu sync.Mutex
}

// NewImportService wires the importer. extractor and locker may be nil:
// without an extractor documents are rejected, without a locker only the
// in-process mutex guards the merge.
func NewImportService(
	repo domain.CampaignRepository,
	parser *ingest.Parser,
	extractor domain.DocumentExtractor,
	locker domain.Locker,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *ImportService {
	return &ImportService{
		repo:      repo,
		parser:    parser,
		extractor: extractor,
		locker:    locker,
		logger:    logger,
		metrics:   metrics,
	}
}

// Parse runs an upload through the pipeline without touching the store.
func (s *ImportService) Parse(ctx context.Context, upload Upload) (ingest.Result, string, error) {
	source, mimeType, err := DetectSource(upload.Filename, upload.ContentType)
	if err != nil {
		return ingest.Result{}, "", err
	}

	log := s.logger.WithContext(ctx)

	var res ingest.Result
	switch source {
	case SourceCSV:
		res = s.parser.Parse(s.parser.Decode(upload.Data))
	case SourceXLSX:
		rows, err := ingest.ReadXLSXRows(upload.Data)
		if err != nil {
			log.WithError(err).Warn("Unreadable workbook treated as unrecognized")
			res = ingest.Result{Report: domain.ParseReport{HeaderLine: -1, Reason: err.Error()}}
			break
		}
		res = s.parser.ParseRows(rows)
	case SourceDocument:
		res, err = s.extract(ctx, mimeType, upload.Data)
		if err != nil {
			return ingest.Result{}, source, err
		}
	}

	s.recordReport(res.Report)

	log.WithFields(map[string]any{
		"filename":       upload.Filename,
		"source":         source,
		"header_line":    res.Report.HeaderLine,
		"delimiter":      res.Report.Delimiter,
		"data_rows":      res.Report.DataRows,
		"dropped_short":  res.Report.DroppedShort,
		"dropped_totals": res.Report.DroppedTotals,
		"coerced":        res.Report.Coerced,
		"reason":         res.Report.Reason,
	}).Debug("Parsed upload")

	return res, source, nil
}

func (s *ImportService) extract(ctx context.Context, mimeType string, data []byte) (ingest.Result, error) {
	if s.extractor == nil {
		return ingest.Result{}, domain.ErrExtractorUnavailable
	}

	partials, err := s.extractor.ExtractCampaigns(ctx, mimeType, base64.StdEncoding.EncodeToString(data))
	if err != nil {
		return ingest.Result{}, fmt.Errorf("failed to extract campaigns from document: %w", err)
	}

	campaigns := s.parser.NormalizeAll(partials)
	report := domain.ParseReport{HeaderLine: -1, DataRows: len(campaigns)}
	if len(campaigns) == 0 {
		report.Reason = reasonNothingExtracted
		return ingest.Result{Report: report}, nil
	}
	return ingest.Result{Campaigns: campaigns, Report: report}, nil
}

func (s *ImportService) recordReport(report domain.ParseReport) {
	s.metrics.RecordDroppedRows("short", report.DroppedShort)
	s.metrics.RecordDroppedRows("summary", report.DroppedTotals)
	for field, n := range report.Coerced {
		s.metrics.RecordCoercedCells(field, n)
	}
}

// Import parses an upload and, when it is recognized, replaces the stored
// campaigns of the batch period with it. An unrecognized upload is not an
// error: the result comes back with Recognized false.
func (s *ImportService) Import(ctx context.Context, upload Upload) (*domain.ImportResult, error) {
	start := time.Now()
	s.metrics.IncImportJobsInProgress()
	defer s.metrics.DecImportJobsInProgress()

	log := s.logger.WithContext(ctx)
	log.WithField("filename", upload.Filename).Info("Starting campaign import")

	res, source, err := s.Parse(ctx, upload)
	if err != nil {
		s.metrics.RecordImportJob("failed", sourceLabel(source), time.Since(start))
		return nil, err
	}

	return s.commit(ctx, upload.Filename, res, source, start)
}

// commit merges a parsed upload into the store and records the outcome.
func (s *ImportService) commit(ctx context.Context, filename string, res ingest.Result, source string, start time.Time) (*domain.ImportResult, error) {
	log := s.logger.WithContext(ctx)

	result := &domain.ImportResult{
		Recognized: res.Recognized(),
		Source:     source,
		Report:     res.Report,
	}

	if !result.Recognized {
		s.metrics.RecordImportJob("unrecognized", source, time.Since(start))
		log.WithFields(map[string]any{
			"filename": filename,
			"reason":   res.Report.Reason,
		}).Info("Upload not recognized as a campaign report")
		return result, nil
	}

	imported, replaced, stored, err := s.merge(ctx, res.Campaigns)
	if err != nil {
		s.metrics.RecordImportJob("failed", source, time.Since(start))
		log.WithError(err).Error("Failed to store imported campaigns")
		return nil, fmt.Errorf("failed to store imported campaigns: %w", err)
	}

	result.Imported = len(imported)
	result.Replaced = replaced
	result.Campaigns = imported
	if key, ok := BatchPeriod(imported); ok {
		result.Period = key.String()
	}

	duration := time.Since(start)
	s.metrics.RecordImportJob("success", source, duration)
	s.metrics.RecordImportedRecords(source, result.Imported)
	s.metrics.RecordReplacedRecords(replaced)
	s.metrics.SetStoredCampaigns(stored)

	log.WithFields(map[string]any{
		"duration": duration,
		"source":   source,
		"imported": result.Imported,
		"replaced": replaced,
		"stored":   stored,
		"period":   result.Period,
	}).Info("Campaign import completed successfully")

	return result, nil
}

// merge is the critical section around the stored collection. It returns
// the batch as stored, with IDs assigned.
func (s *ImportService) merge(ctx context.Context, batch []domain.Campaign) (imported []domain.Campaign, replaced, stored int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, MergeLockKey)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to acquire merge lock: %w", err)
		}
		defer unlock()
	}

	existing, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to load stored campaigns: %w", err)
	}

	merged, replaced := MergeByPeriod(batch, existing)
	if err := s.repo.Replace(ctx, merged); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to replace stored campaigns: %w", err)
	}

	return merged[:len(batch)], replaced, len(merged), nil
}

func sourceLabel(source string) string {
	if source == "" {
		return "unknown"
	}
	return source
}
