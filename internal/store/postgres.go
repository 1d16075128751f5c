package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"teetimes-backend/internal/components/assert"
	"teetimes-backend/internal/components/telemetry"
	"teetimes-backend/internal/teetime"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema_postgres.sql
var postgresSchema string

const (
	report_postgres_refresh = "postgres.refresh"
	report_postgres_insert  = "postgres.insert"
)

const pgInsertQuery = `insert into tee_times
(course_id, date, time, players, holes, price, has_cart, booking_url, source)
values ($1, $2::date, $3, $4, $5, $6, $7, $8, $9)`

const pgDeleteQuery = `delete from tee_times where course_id = $1 and date = $2::date and source = $3`

// Postgres is a Store over a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	tel  telemetry.API
}

func OpenPostgres(ctx context.Context, dsn string, tel telemetry.API) (*Postgres, error) {
	assert.NotEmptyStr(dsn)
	assert.NotNil(tel)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	for _, stmt := range strings.Split(postgresSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err = pool.Exec(ctx, stmt)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &Postgres{pool: pool, tel: telemetry.NewScopedAPI("store", tel)}, nil
}

// pgExecer is satisfied by the pool and by transactions.
type pgExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func pgInsert(ctx context.Context, db pgExecer, record teetime.TeeTime) error {
	_, err := db.Exec(
		ctx, pgInsertQuery,
		record.CourseID,
		record.Date,
		record.Time,
		record.Players,
		record.Holes,
		record.Price,
		record.HasCart,
		record.BookingURL,
		record.Source,
	)
	if err != nil {
		return &WriteError{Record: record, Err: err}
	}
	return nil
}

func (p *Postgres) DeleteByCourseDateSource(ctx context.Context, key teetime.Key) error {
	_, err := p.pool.Exec(ctx, pgDeleteQuery, key.CourseID, key.Date, key.Source)
	return err
}

func (p *Postgres) InsertTeeTime(ctx context.Context, record teetime.TeeTime) error {
	return pgInsert(ctx, p.pool, record)
}

func (p *Postgres) Refresh(ctx context.Context, key teetime.Key, records []teetime.TeeTime) (RefreshResult, error) {
	var result RefreshResult

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, pgDeleteQuery, key.CourseID, key.Date, key.Source)
	if err != nil {
		p.tel.ReportBroken(report_postgres_refresh, err, key.String())
		return result, fmt.Errorf("delete %s: %w", key, err)
	}
	result.Deleted = int(tag.RowsAffected())

	for _, record := range records {
		err := p.insertIsolated(ctx, tx, key, record)
		if err != nil {
			result.Failed = append(result.Failed, err)
			p.tel.ReportWarning(report_postgres_insert, err)
			continue
		}
		result.Inserted++
	}

	err = tx.Commit(ctx)
	if err != nil {
		p.tel.ReportBroken(report_postgres_refresh, err, key.String())
		return RefreshResult{}, fmt.Errorf("commit %s: %w", key, err)
	}
	return result, nil
}

// insertIsolated inserts inside a savepoint. A failed statement aborts a
// postgres transaction, rolling back to the savepoint keeps the rest of the
// batch alive.
func (p *Postgres) insertIsolated(ctx context.Context, tx pgx.Tx, key teetime.Key, record teetime.TeeTime) *WriteError {
	err := checkKey(record, key)
	if err != nil {
		return &WriteError{Record: record, Err: err}
	}

	savepoint, err := tx.Begin(ctx)
	if err != nil {
		return &WriteError{Record: record, Err: err}
	}
	err = pgInsert(ctx, savepoint, record)
	if err != nil {
		savepoint.Rollback(ctx)
		return &WriteError{Record: record, Err: errors.Unwrap(err)}
	}
	err = savepoint.Commit(ctx)
	if err != nil {
		return &WriteError{Record: record, Err: err}
	}
	return nil
}

func (p *Postgres) Query(ctx context.Context, filter Filter) ([]teetime.TeeTime, error) {
	where, args := filter.where(func(n int) string { return fmt.Sprintf("$%d", n) })
	rows, err := p.pool.Query(
		ctx,
		`select course_id, to_char(date, 'YYYY-MM-DD'), time, players, holes, price, has_cart, booking_url, source
		from tee_times`+where+` order by date, time, course_id, source`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (teetime.TeeTime, error) {
		var record teetime.TeeTime
		var players, holes int16
		err := row.Scan(
			&record.CourseID,
			&record.Date,
			&record.Time,
			&players,
			&holes,
			&record.Price,
			&record.HasCart,
			&record.BookingURL,
			&record.Source,
		)
		record.Players = int(players)
		record.Holes = int(holes)
		return record, err
	})
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
