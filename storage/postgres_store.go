package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"bikeshare-flow/utils"
)

// PostgresStore keeps the trip dataset in PostgreSQL.
type PostgresStore struct {
	sqlTripStore
}

// NewPostgresStore opens a connection to PostgreSQL, waits for it to accept
// connections, runs schema migrations and returns a ready-to-use store.
func NewPostgresStore(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	ps := &PostgresStore{sqlTripStore{
		db:          db,
		name:        "postgres",
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		batchSize:   500,
	}}
	if err := ps.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	db.SetConnMaxLifetime(time.Hour)
	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS trips (
			id         BIGSERIAL PRIMARY KEY,
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
