package usecase

import (
	"context"
	"sync"
	"time"

	"adsimport/internal/domain"
	"adsimport/internal/ingest"
)

const defaultImportWorkers = 4

// BatchOutcome is the result of one upload of an ImportAll call. Exactly
// one of Result and Err is set.
type BatchOutcome struct {
	Filename string
	Result   *domain.ImportResult
	Err      error
}

type parsedUpload struct {
	index  int
	res    ingest.Result
	source string
	start  time.Time
	err    error
}

// ImportAll imports several uploads. Parsing runs on a pool of workers;
// merging then happens one upload at a time in input order, so a later
// upload of the same period wins just as with sequential Import calls.
// A failing upload does not stop the others.
func (s *ImportService) ImportAll(ctx context.Context, uploads []Upload, workers int) []BatchOutcome {
	if workers <= 0 {
		workers = defaultImportWorkers
	}

	log := s.logger.WithContext(ctx)
	log.WithFields(map[string]any{
		"uploads": len(uploads),
		"workers": workers,
	}).Info("Starting batch import")

	// Create jobs for worker pool
	jobs := make(chan int, len(uploads))
	results := make(chan parsedUpload, len(uploads))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Go(func() {
			for idx := range jobs {
				start := time.Now()
				s.metrics.IncImportJobsInProgress()
				res, source, err := s.Parse(ctx, uploads[idx])
				s.metrics.DecImportJobsInProgress()
				results <- parsedUpload{index: idx, res: res, source: source, start: start, err: err}
			}
		})
	}

	// Send jobs
	for idx := range uploads {
		jobs <- idx
	}
	close(jobs)

	// Collect results
	go func() {
		wg.Wait()
		close(results)
	}()

	parsed := make([]parsedUpload, len(uploads))
	for p := range results {
		parsed[p.index] = p
	}

	outcomes := make([]BatchOutcome, len(uploads))
	for i, p := range parsed {
		outcomes[i].Filename = uploads[i].Filename
		if p.err != nil {
			s.metrics.RecordImportJob("failed", sourceLabel(p.source), time.Since(p.start))
			outcomes[i].Err = p.err
			continue
		}
		outcomes[i].Result, outcomes[i].Err = s.commit(ctx, uploads[i].Filename, p.res, p.source, p.start)
	}

	log.WithField("uploads", len(uploads)).Info("Batch import completed")
	return outcomes
}
