package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bikeshare-flow/models"
)

const tripColumns = "rent_lat, rent_lon, rent_nm, rtn_lat, rtn_lon, rtn_nm, rent_dt, birth_year, sex_cd"

// sqlTripStore holds the trip-table logic shared by the PostgreSQL and
// SQLite backends. The table keeps the dataset's raw text values; parsing
// happens in the cleaner, as for CSV input.
type sqlTripStore struct {
	db          *sql.DB
	name        string
	placeholder func(n int) string
	batchSize   int
}

// Clear deletes all stored trips.
func (s *sqlTripStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM trips"); err != nil {
		return fmt.Errorf("%s: clear: %w", s.name, err)
	}
	return nil
}

// WriteRaw replaces the stored dataset with trips, in batches, inside one
// transaction.
func (s *sqlTripStore) WriteRaw(ctx context.Context, trips []*models.RawTrip) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", s.name, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM trips"); err != nil {
		return fmt.Errorf("%s: clear: %w", s.name, err)
	}

	rows := make([]*models.RawTrip, 0, len(trips))
	for _, t := range trips {
		if t != nil {
			rows = append(rows, t)
		}
	}

	for i := 0; i < len(rows); i += s.batchSize {
		end := i + s.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.insertBatch(ctx, tx, rows[i:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", s.name, err)
	}
	return nil
}

func (s *sqlTripStore) insertBatch(ctx context.Context, tx *sql.Tx, batch []*models.RawTrip) error {
	const width = 9
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*width)

	for idx, t := range batch {
		base := idx * width
		ph := make([]string, width)
		for j := range ph {
			ph[j] = s.placeholder(base + j + 1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		for _, v := range t.Row() {
			valueArgs = append(valueArgs, v)
		}
	}

	query := fmt.Sprintf("INSERT INTO trips (%s) VALUES %s", tripColumns, strings.Join(valueStrings, ","))
	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("%s: insert batch: %w", s.name, err)
	}
	return nil
}

// FetchAll retrieves every stored trip in insertion order.
func (s *sqlTripStore) FetchAll(ctx context.Context) ([]*models.RawTrip, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+tripColumns+" FROM trips ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%s: fetch all: %w", s.name, err)
	}
	defer rows.Close()

	var trips []*models.RawTrip
	for rows.Next() {
		t := &models.RawTrip{}
		if err := rows.Scan(
			&t.RentLat, &t.RentLon, &t.RentName,
			&t.ReturnLat, &t.ReturnLon, &t.ReturnName,
			&t.RentTime, &t.BirthYear, &t.SexCode,
		); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", s.name, err)
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// Count returns the number of stored trips.
func (s *sqlTripStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM trips").Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: count: %w", s.name, err)
	}
	return n, nil
}

func (s *sqlTripStore) Close() error {
	return s.db.Close()
}
