package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the trip dataset in a local SQLite file.
type SQLiteStore struct {
	sqlTripStore
}

// NewSQLiteStore opens (creating if needed) the database at path with WAL
// mode and ensures the schema exists.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	// 100 rows of 9 columns stays under SQLite's bound-variable limit.
	ss := &SQLiteStore{sqlTripStore{
		db:          db,
		name:        "sqlite",
		placeholder: func(int) string { return "?" },
		batchSize:   100,
	}}
	if err := ss.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return ss, nil
}

func (ss *SQLiteStore) migrate(ctx context.Context) error {
	_, err := ss.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trips (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			rent_lat   TEXT NOT NULL DEFAULT '',
			rent_lon   TEXT NOT NULL DEFAULT '',
			rent_nm    TEXT NOT NULL DEFAULT '',
			rtn_lat    TEXT NOT NULL DEFAULT '',
			rtn_lon    TEXT NOT NULL DEFAULT '',
			rtn_nm     TEXT NOT NULL DEFAULT '',
			rent_dt    TEXT NOT NULL DEFAULT '',
			birth_year TEXT NOT NULL DEFAULT '',
			sex_cd     TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_trips_rent_dt ON trips(rent_dt);
	`)
	return err
}
