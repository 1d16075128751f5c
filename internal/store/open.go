package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"teetimes-backend/internal/components/telemetry"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

type Config struct {
	// Driver is one of sqlite, libsql or postgres. Defaults to sqlite.
	Driver string `json:"driver"`
	// File is the sqlite database path, ":memory:" works too.
	File string `json:"file"`
	// Url is the remote libsql database url.
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
	// Dsn is the postgres connection string.
	Dsn string `json:"dsn"`
}

// Open connects to the configured database and migrates it.
func (c Config) Open(ctx context.Context, tel telemetry.API) (Store, error) {
	switch c.Driver {
	case "", "sqlite":
		return OpenSqlite(ctx, c.File, tel)
	case "libsql":
		if c.Url == "" {
			return nil, fmt.Errorf("libsql database needs a url")
		}
		values := url.Values{}
		if c.AuthToken != "" {
			values.Add("authToken", c.AuthToken)
		}
		dsn := c.Url
		if len(values) > 0 {
			dsn += "?" + values.Encode()
		}
		db, err := sql.Open("libsql", dsn)
		if err != nil {
			return nil, err
		}
		s, err := NewSQL(ctx, db, tel)
		if err != nil {
			db.Close()
			return nil, err
		}
		return s, nil
	case "postgres":
		if c.Dsn == "" {
			return nil, fmt.Errorf("postgres database needs a dsn")
		}
		return OpenPostgres(ctx, c.Dsn, tel)
	}
	return nil, fmt.Errorf("unknown database driver %q", c.Driver)
}

// OpenSqlite opens a local sqlite database. Writes go through one connection,
// sqlite allows a single writer anyway.
func OpenSqlite(ctx context.Context, path string, tel telemetry.API) (*SQL, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite database needs a file")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		_, err = db.ExecContext(ctx, "pragma journal_mode=wal")
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("enable wal: %w", err)
		}
	}
	s, err := NewSQL(ctx, db, tel)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}
