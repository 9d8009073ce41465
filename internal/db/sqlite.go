// Package db provides metadata store connectivity and migration support.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
)

// PoolMode selects how a SQLite pool is tuned.
type PoolMode string

// Pool modes. Writers share a single connection so SQLite never sees two
// concurrent write transactions; readers fan out.
const (
	PoolWrite PoolMode = "write"
	PoolRead  PoolMode = "read"
)

const (
	busyTimeoutMs    = "5000"
	synchronousMode  = "NORMAL"
	journalMode      = "WAL"
	defaultReadConns = 4
)

// OpenSQLite opens a tuned *sql.DB pool for the SQLite file at path and
// verifies it with a ping.
func OpenSQLite(path string, mode PoolMode, maxOpen int) (*sql.DB, error) {
	if mode != PoolRead && mode != PoolWrite {
		return nil, fmt.Errorf("invalid SQLite pool mode %q", mode)
	}

	db, err := sql.Open("sqlite3", buildDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", mode, err)
	}

	if mode == PoolWrite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		if maxOpen <= 0 {
			maxOpen = defaultReadConns
		}
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen)
	}
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", mode, err)
	}
	return db, nil
}

// OpenSQLitePair opens the write pool and a read pool for the same file.
// Repositories that append or mutate use writeDB; read-only lookups on the
// request path use readDB.
func OpenSQLitePair(path string, readMaxOpen int) (writeDB, readDB *sql.DB, err error) {
	writeDB, err = OpenSQLite(path, PoolWrite, 0)
	if err != nil {
		return nil, nil, err
	}
	readDB, err = OpenSQLite(path, PoolRead, readMaxOpen)
	if err != nil {
		_ = writeDB.Close()
		return nil, nil, err
	}
	return writeDB, readDB, nil
}

func buildDSN(path string, mode PoolMode) string {
	params := url.Values{}
	params.Set("_journal_mode", journalMode)
	params.Set("_busy_timeout", busyTimeoutMs)
	params.Set("_synchronous", synchronousMode)
	params.Set("_foreign_keys", "on")
	if mode == PoolWrite {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}
