package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"teetimes-backend/internal/components/assert"
	"teetimes-backend/internal/components/telemetry"
	"teetimes-backend/internal/teetime"
)

//go:embed schema.sql
var schema string

const (
	report_sql_refresh = "sql.refresh"
	report_sql_insert  = "sql.insert"
)

const insertQuery = `insert into tee_times
(course_id, date, time, players, holes, price, has_cart, booking_url, source)
values (?, ?, ?, ?, ?, ?, ?, ?, ?)`

const deleteQuery = `delete from tee_times where course_id = ? and date = ? and source = ?`

// SQL is a Store over database/sql for the sqlite and libsql drivers.
type SQL struct {
	db  *sql.DB
	tel telemetry.API
}

// NewSQL wraps db and makes sure the schema exists.
func NewSQL(ctx context.Context, db *sql.DB, tel telemetry.API) (*SQL, error) {
	assert.NotNil(db)
	assert.NotNil(tel)

	err := migrate(ctx, db, schema)
	if err != nil {
		return nil, err
	}
	return &SQL{db: db, tel: telemetry.NewScopedAPI("store", tel)}, nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insert(ctx context.Context, db execer, record teetime.TeeTime) error {
	var price sql.NullInt64
	if record.Price != nil {
		price = sql.NullInt64{Int64: int64(*record.Price), Valid: true}
	}
	_, err := db.ExecContext(
		ctx, insertQuery,
		record.CourseID,
		record.Date,
		record.Time,
		record.Players,
		record.Holes,
		price,
		record.HasCart,
		record.BookingURL,
		record.Source,
	)
	if err != nil {
		return &WriteError{Record: record, Err: err}
	}
	return nil
}

// migrate runs statements one at a time, remote libsql does not accept
// several statements in one request.
func migrate(ctx context.Context, db execer, script string) error {
	for _, stmt := range strings.Split(script, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *SQL) DeleteByCourseDateSource(ctx context.Context, key teetime.Key) error {
	_, err := s.db.ExecContext(ctx, deleteQuery, key.CourseID, key.Date, key.Source)
	return err
}

func (s *SQL) InsertTeeTime(ctx context.Context, record teetime.TeeTime) error {
	return insert(ctx, s.db, record)
}

func (s *SQL) Refresh(ctx context.Context, key teetime.Key, records []teetime.TeeTime) (RefreshResult, error) {
	var result RefreshResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	deleted, err := tx.ExecContext(ctx, deleteQuery, key.CourseID, key.Date, key.Source)
	if err != nil {
		s.tel.ReportBroken(report_sql_refresh, err, key.String())
		return result, fmt.Errorf("delete %s: %w", key, err)
	}
	n, _ := deleted.RowsAffected()
	result.Deleted = int(n)

	for _, record := range records {
		err := checkKey(record, key)
		if err == nil {
			// sqlite rolls back only the failed statement, the transaction
			// survives a constraint violation
			err = insert(ctx, tx, record)
		}
		if err != nil {
			var writeErr *WriteError
			if !errors.As(err, &writeErr) {
				writeErr = &WriteError{Record: record, Err: err}
			}
			result.Failed = append(result.Failed, writeErr)
			s.tel.ReportWarning(report_sql_insert, writeErr)
			continue
		}
		result.Inserted++
	}

	err = tx.Commit()
	if err != nil {
		s.tel.ReportBroken(report_sql_refresh, err, key.String())
		return RefreshResult{}, fmt.Errorf("commit %s: %w", key, err)
	}
	return result, nil
}

func (s *SQL) Query(ctx context.Context, filter Filter) ([]teetime.TeeTime, error) {
	where, args := filter.where(func(int) string { return "?" })
	rows, err := s.db.QueryContext(
		ctx,
		`select course_id, date, time, players, holes, price, has_cart, booking_url, source
		from tee_times`+where+` order by date, time, course_id, source`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []teetime.TeeTime
	for rows.Next() {
		var record teetime.TeeTime
		var price sql.NullInt64
		err := rows.Scan(
			&record.CourseID,
			&record.Date,
			&record.Time,
			&record.Players,
			&record.Holes,
			&price,
			&record.HasCart,
			&record.BookingURL,
			&record.Source,
		)
		if err != nil {
			return nil, err
		}
		if price.Valid {
			p := int(price.Int64)
			record.Price = &p
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *SQL) Close() error {
	return s.db.Close()
}
