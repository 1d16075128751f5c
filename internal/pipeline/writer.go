package pipeline

import (
	"context"
	"errors"
	"fmt"

	"teetimes-backend/internal/components/assert"
	"teetimes-backend/internal/components/telemetry"
	"teetimes-backend/internal/extract"
	"teetimes-backend/internal/store"
	"teetimes-backend/internal/teetime"
)

const (
	report_writer_normalize = "writer.normalize"
	report_writer_write     = "writer.write"
)

type WriteResult struct {
	Written int
	// Dropped rows had a time token that could not be normalized.
	Dropped int
	// Failed rows were rejected by the store.
	Failed  int
	// Skipped means the unit was left untouched because its scrape failed
	// and stale records are kept on error.
	Skipped bool
}

// Writer normalizes, deduplicates and stores one refresh unit at a time.
type Writer struct {
	store            store.Store
	// keepStaleOnError leaves the stored records of a unit alone when its
	// scrape failed, instead of clearing them like an empty result.
	keepStaleOnError bool
	tel              telemetry.API
}

func NewWriter(s store.Store, keepStaleOnError bool, tel telemetry.API) Writer {
	assert.NotNil(s)
	assert.NotNil(tel)
	return Writer{
		store:            s,
		keepStaleOnError: keepStaleOnError,
		tel:              telemetry.NewScopedAPI("writer", tel),
	}
}

// Normalize converts extracted rows into canonical records for key, dropping
// rows whose time cannot be read.
func (w Writer) Normalize(key teetime.Key, rows []extract.Row, bookingURL string) ([]teetime.TeeTime, int) {
	records := make([]teetime.TeeTime, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		record, err := teetime.Normalize(key, row, bookingURL)
		var normErr *teetime.NormalizationError
		if errors.As(err, &normErr) {
			dropped++
			w.tel.ReportDebug(report_writer_normalize, key.String(), normErr)
			continue
		}
		records = append(records, record)
	}
	return records, dropped
}

// Write refreshes key with the rows of result. An empty result still clears
// the unit. scrapeFailed marks a result that is empty because the scrape
// failed.
func (w Writer) Write(ctx context.Context, key teetime.Key, result extract.Result, bookingURL string, scrapeFailed bool) (WriteResult, error) {
	if scrapeFailed && w.keepStaleOnError {
		return WriteResult{Skipped: true}, nil
	}

	records, dropped := w.Normalize(key, result.Rows, bookingURL)
	records = Dedupe(records, result.Pass)

	refreshed, err := w.store.Refresh(ctx, key, records)
	if err != nil {
		w.tel.ReportBroken(report_writer_write, fmt.Errorf("refresh %s: %w", key, err))
		return WriteResult{Dropped: dropped}, err
	}
	return WriteResult{
		Written: refreshed.Inserted,
		Dropped: dropped,
		Failed:  len(refreshed.Failed),
	}, nil
}
