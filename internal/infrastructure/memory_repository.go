package infrastructure

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"adsimport/internal/domain"
	"adsimport/pkg/logger"
)

// MemoryRepository keeps the campaign collection in process memory.
type MemoryRepository struct {
	data   []domain.Campaign
	mutex  sync.RWMutex
	logger *logger.Logger
}

func NewMemoryRepository(logger *logger.Logger) *MemoryRepository {
	return &MemoryRepository{logger: logger}
}

func (r *MemoryRepository) GetAll(ctx context.Context) ([]domain.Campaign, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return slices.Clone(r.data), nil
}

func (r *MemoryRepository) Replace(ctx context.Context, campaigns []domain.Campaign) error {
	assignIDs(campaigns)

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.data = slices.Clone(campaigns)

	r.logger.WithContext(ctx).WithField("count", len(campaigns)).Info("Replaced campaigns in memory")
	return nil
}

// assignIDs gives every campaign without an ID a fresh UUID.
func assignIDs(campaigns []domain.Campaign) {
	for i := range campaigns {
		if campaigns[i].ID == "" {
			campaigns[i].ID = uuid.NewString()
		}
	}
}
