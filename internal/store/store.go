// Package store persists canonical tee times. Every write is scoped to one
// refresh unit (course, date, source), refreshing a unit replaces everything
// previously stored for it.
package store

import (
	"context"
	"fmt"
	"strings"

	"teetimes-backend/internal/teetime"
)

// Store is the insert/delete/query surface the pipeline consumes.
type Store interface {
	// DeleteByCourseDateSource removes every record of key, removing nothing is
	// not an error.
	DeleteByCourseDateSource(ctx context.Context, key teetime.Key) error
	// InsertTeeTime inserts one record, failing with a *WriteError.
	InsertTeeTime(ctx context.Context, record teetime.TeeTime) error
	// Refresh atomically replaces the records of key with records. Records
	// that fail to insert are skipped and reported in the result, the rest of
	// the batch is still written.
	Refresh(ctx context.Context, key teetime.Key, records []teetime.TeeTime) (RefreshResult, error)
	// Query returns stored records ordered by date, time, course and source.
	Query(ctx context.Context, filter Filter) ([]teetime.TeeTime, error)
	Close() error
}

type RefreshResult struct {
	Deleted  int
	Inserted int
	Failed   []*WriteError
}

// WriteError is a failed insert of a single record.
type WriteError struct {
	Record teetime.TeeTime
	Err    error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf(
		"insert %s %s %s %s: %s",
		e.Record.Source, e.Record.CourseID, e.Record.Date, e.Record.Time, e.Err,
	)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Filter narrows Query, empty fields match everything.
type Filter struct {
	CourseID string
	Date     string
	Source   string
}

// where renders the filter with placeholder producing the n-th bind marker.
func (f Filter) where(placeholder func(n int) string) (string, []any) {
	var clauses []string
	var args []any
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf("%s = %s", column, placeholder(len(args))))
	}
	add("course_id", f.CourseID)
	add("date", f.Date)
	add("source", f.Source)

	if len(clauses) == 0 {
		return "", nil
	}
	return " where " + strings.Join(clauses, " and "), args
}

func checkKey(record teetime.TeeTime, key teetime.Key) error {
	if record.Key() != key {
		return fmt.Errorf("record belongs to %s, not %s", record.Key(), key)
	}
	return nil
}
