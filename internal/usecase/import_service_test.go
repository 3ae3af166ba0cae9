package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"adsimport/internal/domain"
	"adsimport/internal/ingest"
	"adsimport/pkg/logger"
	"adsimport/pkg/metrics"
)

var testNow = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestImportService(repo domain.CampaignRepository, extractor domain.DocumentExtractor, locker domain.Locker) (*ImportService, *metrics.Metrics) {
	opts := ingest.DefaultOptions()
	opts.Clock = func() time.Time { return testNow }
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	return NewImportService(repo, ingest.NewParser(opts), extractor, locker, logger.Discard(), m), m
}

func csvUpload(body string) Upload {
	return Upload{Filename: "campaigns.csv", ContentType: "text/csv", Data: []byte(body)}
}

const marchReport = "Report\nCampaign;Impr.;Clicks;Cost;Conversions;Day\n" +
	"\"Summer Sale\";1000;50;500,00;5;15.03.2024\n" +
	"Brand;200;10;20,00;0;15.03.2024\n"

func TestImport_ReplacesSamePeriod(t *testing.T) {
	repo := &memRepo{campaigns: []domain.Campaign{
		{ID: "old-mar", Name: "Old March", Period: "2024-03-02T00:00:00Z"},
		{ID: "feb", Name: "February", Period: "2024-02-02T00:00:00Z"},
		{ID: "odd", Name: "Odd", Period: "sometime"},
	}}
	svc, m := newTestImportService(repo, nil, nil)

	result, err := svc.Import(context.Background(), csvUpload(marchReport))
	require.NoError(t, err)

	assert.True(t, result.Recognized)
	assert.Equal(t, SourceCSV, result.Source)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.Replaced)
	assert.Equal(t, "March 2024", result.Period)
	require.Len(t, result.Campaigns, 2)
	assert.NotEmpty(t, result.Campaigns[0].ID)
	assert.Equal(t, "semicolon", result.Report.Delimiter)

	stored, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 4)
	assert.Equal(t, "Summer Sale", stored[0].Name)
	assert.Equal(t, "Brand", stored[1].Name)
	assert.Equal(t, "February", stored[2].Name)
	assert.Equal(t, "Odd", stored[3].Name)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportJobsTotal.WithLabelValues("success", SourceCSV)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsImported.WithLabelValues(SourceCSV)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsReplaced))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.StoredCampaignsGauge))
}

func TestImport_Windows1251CSV(t *testing.T) {
	body := "Кампания;Показы;Клики;Стоимость;Дата\nЛето;100;5;50,00;15.03.2024\n"
	data, _, err := transform.Bytes(charmap.Windows1251.NewEncoder(), []byte(body))
	require.NoError(t, err)

	repo := &memRepo{}
	svc, _ := newTestImportService(repo, nil, nil)

	result, err := svc.Import(context.Background(), Upload{Filename: "март.csv", Data: data})
	require.NoError(t, err)
	assert.True(t, result.Recognized)
	require.Len(t, result.Campaigns, 1)
	assert.Equal(t, "Лето", result.Campaigns[0].Name)
	assert.Equal(t, int64(100), result.Campaigns[0].Impressions)
}

func TestImport_ReimportIsIdempotent(t *testing.T) {
	repo := &memRepo{campaigns: []domain.Campaign{{ID: "feb", Name: "February", Period: "2024-02-02T00:00:00Z"}}}
	svc, _ := newTestImportService(repo, nil, nil)

	_, err := svc.Import(context.Background(), csvUpload(marchReport))
	require.NoError(t, err)
	first, _ := repo.GetAll(context.Background())

	result, err := svc.Import(context.Background(), csvUpload(marchReport))
	require.NoError(t, err)
	second, _ := repo.GetAll(context.Background())

	assert.Equal(t, 2, result.Replaced)
	assert.Equal(t, withoutIDs(first), withoutIDs(second))
}

func withoutIDs(campaigns []domain.Campaign) []domain.Campaign {
	out := make([]domain.Campaign, len(campaigns))
	for i, c := range campaigns {
		c.ID = ""
		out[i] = c
	}
	return out
}

func TestImport_UnrecognizedLeavesStoreUntouched(t *testing.T) {
	repo := &memRepo{campaigns: []domain.Campaign{{ID: "feb", Name: "February"}}}
	svc, m := newTestImportService(repo, nil, nil)

	result, err := svc.Import(context.Background(), csvUpload("Name,Email\nAnn,ann@example.com\n"))
	require.NoError(t, err)

	assert.False(t, result.Recognized)
	assert.Zero(t, result.Imported)
	assert.Equal(t, ingest.ReasonHeaderNotFound, result.Report.Reason)
	assert.Zero(t, repo.replaceCalls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportJobsTotal.WithLabelValues("unrecognized", SourceCSV)))
}

func TestImport_UnsupportedFormat(t *testing.T) {
	svc, _ := newTestImportService(&memRepo{}, nil, nil)

	_, err := svc.Import(context.Background(), Upload{Filename: "notes.docx", ContentType: "application/msword", Data: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestImport_DocumentWithoutExtractor(t *testing.T) {
	svc, _ := newTestImportService(&memRepo{}, nil, nil)

	_, err := svc.Import(context.Background(), Upload{Filename: "report.pdf", Data: []byte("%PDF-1.7")})
	assert.ErrorIs(t, err, domain.ErrExtractorUnavailable)
}

func TestImport_Document(t *testing.T) {
	data := []byte("\x89PNG fake image")
	extractor := &mockExtractor{}
	extractor.On("ExtractCampaigns", mock.Anything, "image/png", base64.StdEncoding.EncodeToString(data)).
		Return([]domain.PartialCampaign{{
			Name:   "Screenshot campaign",
			Clicks: domain.FlexValue{Raw: "20", Numeric: true, Set: true},
			Spend:  domain.FlexValue{Raw: "1 000,00", Set: true},
			Period: "2024-04-10",
		}}, nil).Once()

	repo := &memRepo{}
	svc, _ := newTestImportService(repo, extractor, nil)

	result, err := svc.Import(context.Background(), Upload{Filename: "shot.PNG", Data: data})
	require.NoError(t, err)

	assert.True(t, result.Recognized)
	assert.Equal(t, SourceDocument, result.Source)
	assert.Equal(t, "April 2024", result.Period)
	require.Len(t, result.Campaigns, 1)
	assert.InDelta(t, 50.0, result.Campaigns[0].CPC, 1e-9)
	extractor.AssertExpectations(t)
}

func TestImport_DocumentNothingExtracted(t *testing.T) {
	extractor := &mockExtractor{}
	extractor.On("ExtractCampaigns", mock.Anything, "application/pdf", mock.AnythingOfType("string")).
		Return([]domain.PartialCampaign{}, nil).Once()

	svc, _ := newTestImportService(&memRepo{}, extractor, nil)

	result, err := svc.Import(context.Background(), Upload{Filename: "empty.pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.False(t, result.Recognized)
	assert.Equal(t, "no campaigns extracted", result.Report.Reason)
}

func TestImport_ExtractorFailure(t *testing.T) {
	extractor := &mockExtractor{}
	extractor.On("ExtractCampaigns", mock.Anything, "application/pdf", mock.Anything).
		Return(nil, errors.New("upstream timeout")).Once()

	svc, m := newTestImportService(&memRepo{}, extractor, nil)

	_, err := svc.Import(context.Background(), Upload{Filename: "r.pdf", Data: []byte("%PDF")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream timeout")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImportJobsTotal.WithLabelValues("failed", SourceDocument)))
}

func TestImport_XLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Report")
	require.NoError(t, err)
	for _, rowData := range [][]string{
		{"Campaign", "Impressions", "Cost", "Date"},
		{"Workbook", "400", "12.5", "2024-05-02"},
	} {
		row := sheet.AddRow()
		for _, v := range rowData {
			row.AddCell().SetString(v)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	repo := &memRepo{}
	svc, _ := newTestImportService(repo, nil, nil)

	result, err := svc.Import(context.Background(), Upload{Filename: "report.xlsx", Data: buf.Bytes()})
	require.NoError(t, err)
	assert.Equal(t, SourceXLSX, result.Source)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, "May 2024", result.Period)
}

func TestImport_CorruptWorkbookIsUnrecognized(t *testing.T) {
	svc, _ := newTestImportService(&memRepo{}, nil, nil)

	result, err := svc.Import(context.Background(), Upload{Filename: "broken.xlsx", Data: []byte("not a zip")})
	require.NoError(t, err)
	assert.False(t, result.Recognized)
	assert.NotEmpty(t, result.Report.Reason)
}

func TestImport_HoldsAndReleasesLock(t *testing.T) {
	locker := &mockLocker{}
	locker.On("Lock", mock.Anything, MergeLockKey).Return(nil).Once()

	svc, _ := newTestImportService(&memRepo{}, nil, locker)

	_, err := svc.Import(context.Background(), csvUpload(marchReport))
	require.NoError(t, err)
	assert.Equal(t, 1, locker.released)
	locker.AssertExpectations(t)
}

func TestImport_LockNotAcquired(t *testing.T) {
	locker := &mockLocker{}
	locker.On("Lock", mock.Anything, MergeLockKey).Return(domain.ErrLockNotAcquired).Once()

	repo := &memRepo{}
	svc, _ := newTestImportService(repo, nil, locker)

	_, err := svc.Import(context.Background(), csvUpload(marchReport))
	assert.ErrorIs(t, err, domain.ErrLockNotAcquired)
	assert.Zero(t, repo.replaceCalls)
}

func TestImport_StoreFailure(t *testing.T) {
	repo := &memRepo{replaceErr: errors.New("disk full")}
	svc, _ := newTestImportService(repo, nil, nil)

	_, err := svc.Import(context.Background(), csvUpload(marchReport))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestImport_ConcurrentImportsDoNotLoseUpdates(t *testing.T) {
	repo := &memRepo{}
	svc, _ := newTestImportService(repo, nil, nil)

	var wg sync.WaitGroup
	for month := 1; month <= 8; month++ {
		wg.Add(1)
		go func(month int) {
			defer wg.Done()
			body := fmt.Sprintf("Campaign,Cost,Date\nM%d,1.00,2024-%02d-01\n", month, month)
			_, err := svc.Import(context.Background(), csvUpload(body))
			assert.NoError(t, err)
		}(month)
	}
	wg.Wait()

	stored, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 8)
}

func TestParse_DoesNotStore(t *testing.T) {
	repo := &memRepo{}
	svc, _ := newTestImportService(repo, nil, nil)

	res, source, err := svc.Parse(context.Background(), csvUpload(marchReport))
	require.NoError(t, err)
	assert.Equal(t, SourceCSV, source)
	assert.Len(t, res.Campaigns, 2)
	assert.Zero(t, repo.replaceCalls)
}

func TestDetectSource(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		source      string
		mimeType    string
	}{
		{"report.csv", "", SourceCSV, ""},
		{"report.TSV", "", SourceCSV, ""},
		{"report.txt", "", SourceCSV, ""},
		{"report.xlsx", "", SourceXLSX, ""},
		{"shot.jpg", "", SourceDocument, "image/jpeg"},
		{"shot.webp", "", SourceDocument, "image/webp"},
		{"report.pdf", "", SourceDocument, "application/pdf"},
		{"upload", "text/csv; charset=utf-8", SourceCSV, ""},
		{"upload", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", SourceXLSX, ""},
		{"upload", "image/png", SourceDocument, "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.filename+" "+tt.contentType, func(t *testing.T) {
			source, mimeType, err := DetectSource(tt.filename, tt.contentType)
			require.NoError(t, err)
			assert.Equal(t, tt.source, source)
			assert.Equal(t, tt.mimeType, mimeType)
		})
	}

	_, _, err := DetectSource("archive.zip", "application/zip")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}
