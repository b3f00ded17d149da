// Package seed bulk-loads an icon dataset into the remote store.
//
// Records are upserted on id in fixed-size batches. A failed batch is logged
// and skipped; the run continues with the next one.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Adalene/glyph/internal/storage"
	"github.com/Adalene/glyph/pkg/types"
)

// DefaultBatchSize is the number of records per upsert.
const DefaultBatchSize = 50

// BatchError records one failed batch as the half-open range [Start, End).
type BatchError struct {
	Start int
	End   int
	Err   error
}

func (e BatchError) Error() string {
	return fmt.Sprintf("batch %d-%d: %v", e.Start, e.End, e.Err)
}

func (e BatchError) Unwrap() error { return e.Err }

// Report summarises a seeding run.
type Report struct {
	Total    int // records in the dataset
	Skipped  int // records that failed validation
	Uploaded int // records in batches that succeeded
	Batches  int // batches attempted
	Failures []BatchError
}

// Failed returns the number of records in failed batches.
func (r Report) Failed() int {
	n := 0
	for _, f := range r.Failures {
		n += f.End - f.Start
	}
	return n
}

// Seeder upserts datasets into a store.
type Seeder struct {
	store     storage.IconStore
	batchSize int
	logger    *zap.Logger
}

// New creates a Seeder. A non-positive batchSize uses DefaultBatchSize.
func New(store storage.IconStore, batchSize int, logger *zap.Logger) *Seeder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{store: store, batchSize: batchSize, logger: logger}
}

// Run upserts icons batch by batch. Records without a valid id or path are
// skipped so a single bad entry cannot sink its batch. Run stops early only
// when ctx is cancelled, returning the partial report and ctx.Err().
func (s *Seeder) Run(ctx context.Context, icons []types.Icon) (Report, error) {
	report := Report{Total: len(icons)}

	valid := make([]types.Icon, 0, len(icons))
	for _, icon := range icons {
		if err := icon.Validate(); err != nil {
			report.Skipped++
			s.logger.Warn("skipping invalid icon", zap.String("id", icon.ID), zap.Error(err))
			continue
		}
		icon.Normalize()
		valid = append(valid, icon)
	}

	for start := 0; start < len(valid); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		end := start + s.batchSize
		if end > len(valid) {
			end = len(valid)
		}

		report.Batches++
		if err := s.store.UpsertBatch(ctx, valid[start:end]); err != nil {
			report.Failures = append(report.Failures, BatchError{Start: start, End: end, Err: err})
			s.logger.Error("batch upload failed",
				zap.Int("start", start),
				zap.Int("end", end),
				zap.Error(err))
			continue
		}
		report.Uploaded += end - start
		s.logger.Info("batch uploaded",
			zap.Int("start", start),
			zap.Int("end", end),
			zap.Int("total", len(valid)))
	}

	return report, nil
}
