package usecase

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/stretchr/testify/mock"

	"adsimport/internal/domain"
)

// --- Repository fake ---

type memRepo struct {
	mu           sync.Mutex
	campaigns    []domain.Campaign
	nextID       int
	getErr       error
	replaceErr   error
	replaceCalls int
}

func (r *memRepo) GetAll(ctx context.Context) ([]domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	return slices.Clone(r.campaigns), nil
}

func (r *memRepo) Replace(ctx context.Context, campaigns []domain.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.replaceCalls++
	for i := range campaigns {
		if campaigns[i].ID == "" {
			r.nextID++
			campaigns[i].ID = fmt.Sprintf("c-%d", r.nextID)
		}
	}
	r.campaigns = slices.Clone(campaigns)
	return nil
}

// --- Extractor mock ---

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) ExtractCampaigns(ctx context.Context, mimeType, base64Data string) ([]domain.PartialCampaign, error) {
	args := m.Called(ctx, mimeType, base64Data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PartialCampaign), args.Error(1)
}

// --- Locker mock ---

type mockLocker struct {
	mock.Mock
	released int
}

func (m *mockLocker) Lock(ctx context.Context, key string) (func(), error) {
	args := m.Called(ctx, key)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return func() { m.released++ }, nil
}

// --- Export client mock ---

type mockExportClient struct {
	mock.Mock
}

func (m *mockExportClient) Export(ctx context.Context, campaigns []domain.Campaign, period domain.PeriodKey) error {
	args := m.Called(ctx, campaigns, period)
	return args.Error(0)
}
