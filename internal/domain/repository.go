package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUnsupportedFormat    = errors.New("unsupported file format")
	ErrExtractorUnavailable = errors.New("document extraction is not configured")
	ErrLockNotAcquired      = errors.New("import lock not acquired")
	ErrExportNotConfigured  = errors.New("export sink is not configured")
	ErrNoCampaigns          = errors.New("no campaigns found")
)

// CampaignRepository persists the whole campaign collection. Replace
// assigns an ID to every campaign in the given slice that has none, in
// place, so callers see the stored IDs.
type CampaignRepository interface {
	GetAll(ctx context.Context) ([]Campaign, error)
	Replace(ctx context.Context, campaigns []Campaign) error
}

// DocumentExtractor reads campaign figures out of images and PDFs.
type DocumentExtractor interface {
	ExtractCampaigns(ctx context.Context, mimeType, base64Data string) ([]PartialCampaign, error)
}

// Locker guards the read-modify-write of the stored collection.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// interface for campaign export
type ExportClient interface {
	Export(ctx context.Context, campaigns []Campaign, period PeriodKey) error
}

// Clock lets tests pin "now" for date fallbacks.
type Clock func() time.Time
