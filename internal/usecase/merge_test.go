package usecase

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"adsimport/internal/domain"
)

func campaign(name, period string) domain.Campaign {
	return domain.Campaign{Name: name, Period: period}
}

func names(campaigns []domain.Campaign) []string {
	out := make([]string, len(campaigns))
	for i, c := range campaigns {
		out[i] = c.Name
	}
	return out
}

func TestMergeByPeriod_ReplacesSamePeriod(t *testing.T) {
	existing := []domain.Campaign{
		campaign("feb-a", "2024-02-10T00:00:00Z"),
		campaign("mar-old-a", "2024-03-01T00:00:00Z"),
		campaign("broken", "not a date"),
		campaign("mar-old-b", "2024-03-31T00:00:00Z"),
		campaign("mar-last-year", "2023-03-15T00:00:00Z"),
	}
	batch := []domain.Campaign{
		campaign("mar-new-a", "2024-03-15T00:00:00Z"),
		campaign("mar-new-b", "2024-03-16T00:00:00Z"),
	}

	merged, replaced := MergeByPeriod(batch, existing)

	assert.Equal(t, 2, replaced)
	assert.Equal(t, []string{"mar-new-a", "mar-new-b", "feb-a", "broken", "mar-last-year"}, names(merged))
}

func TestMergeByPeriod_InvalidBatchPeriodKeepsEverything(t *testing.T) {
	existing := []domain.Campaign{campaign("mar", "2024-03-01T00:00:00Z"), campaign("blank", "")}
	batch := []domain.Campaign{campaign("new", "")}

	merged, replaced := MergeByPeriod(batch, existing)

	assert.Zero(t, replaced)
	assert.Equal(t, []string{"new", "mar", "blank"}, names(merged))
}

func TestMergeByPeriod_EmptyBatch(t *testing.T) {
	existing := []domain.Campaign{campaign("mar", "2024-03-01T00:00:00Z")}

	merged, replaced := MergeByPeriod(nil, existing)

	assert.Zero(t, replaced)
	assert.Equal(t, []string{"mar"}, names(merged))
}

func TestMergeByPeriod_DoesNotAliasInputs(t *testing.T) {
	existing := make([]domain.Campaign, 1, 8)
	existing[0] = campaign("feb", "2024-02-01T00:00:00Z")
	batch := []domain.Campaign{campaign("mar", "2024-03-01T00:00:00Z")}

	merged, _ := MergeByPeriod(batch, existing)
	merged[0].Name = "changed"

	assert.Equal(t, "mar", batch[0].Name)
	assert.Equal(t, "feb", existing[0].Name)
}

func TestBatchPeriod(t *testing.T) {
	key, ok := BatchPeriod([]domain.Campaign{campaign("a", "2024-03-15T00:00:00Z"), campaign("b", "2024-04-01T00:00:00Z")})
	assert.True(t, ok)
	assert.Equal(t, domain.PeriodKey{Year: 2024, Month: 3}, key)

	_, ok = BatchPeriod(nil)
	assert.False(t, ok)
}

func TestMergeByPeriod_ReimportIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	periods := []string{
		"2024-03-01T00:00:00Z",
		"2024-01-31T00:00:00Z",
		"2024-02-05T00:00:00Z",
		"2024-03-20T00:00:00Z",
		"garbage",
	}

	properties.Property("importing the same batch twice leaves the collection unchanged", prop.ForAll(
		func(existingPeriods []int, batchSize int, batchPeriod int) bool {
			existing := make([]domain.Campaign, len(existingPeriods))
			for i, p := range existingPeriods {
				existing[i] = campaign("old", periods[p])
			}
			batch := make([]domain.Campaign, batchSize)
			for i := range batch {
				batch[i] = campaign("new", periods[batchPeriod])
			}

			once, _ := MergeByPeriod(batch, existing)
			twice, replaced := MergeByPeriod(batch, once)

			return replaced == batchSize && assert.ObjectsAreEqual(once, twice)
		},
		gen.SliceOf(gen.IntRange(0, len(periods)-1)),
		gen.IntRange(1, 5),
		gen.IntRange(0, 1),
	))

	properties.TestingRun(t)
}
