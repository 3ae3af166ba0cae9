package usecase

import (
	"adsimport/internal/domain"
)

// MergeByPeriod builds the new stored collection: the batch first, then
// every existing campaign whose period differs from the batch period. The
// batch period is taken from its first record. Existing campaigns with an
// unreadable period never collide and are always kept. replaced counts the
// existing campaigns that were dropped.
func MergeByPeriod(batch, existing []domain.Campaign) (merged []domain.Campaign, replaced int) {
	merged = make([]domain.Campaign, 0, len(batch)+len(existing))
	merged = append(merged, batch...)

	if len(batch) == 0 {
		return append(merged, existing...), 0
	}

	key, ok := batch[0].PeriodKey()
	for _, c := range existing {
		if ok {
			if k, valid := c.PeriodKey(); valid && k == key {
				replaced++
				continue
			}
		}
		merged = append(merged, c)
	}
	return merged, replaced
}

// BatchPeriod reports the period a batch is filed under.
func BatchPeriod(batch []domain.Campaign) (domain.PeriodKey, bool) {
	if len(batch) == 0 {
		return domain.PeriodKey{}, false
	}
	return batch[0].PeriodKey()
}
