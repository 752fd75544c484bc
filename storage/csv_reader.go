package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bikeshare-flow/models"
	"bikeshare-flow/utils"
)

// CSVReader loads raw trips from one or more CSV exports. Files are read
// concurrently; rows are returned in file order, then row order.
type CSVReader struct {
	paths  []string
	pool   int
	logger *utils.Logger
}

// NewCSVReader creates a reader over paths using at most maxConcurrency
// goroutines.
func NewCSVReader(paths []string, maxConcurrency int, logger *utils.Logger) *CSVReader {
	return &CSVReader{paths: paths, pool: maxConcurrency, logger: logger}
}

// FetchAll reads every configured file. A file listed twice, even under
// different spellings of its path, is read once.
// Any unreadable file fails the whole load.
func (r *CSVReader) FetchAll(ctx context.Context) ([]*models.RawTrip, error) {
	if len(r.paths) == 0 {
		return nil, errors.New("csv: no input files configured")
	}

	pool := utils.NewWorkerPool(ctx, r.pool)
	claimed := utils.NewKeySet()
	perFile := make([][]*models.RawTrip, len(r.paths))

	for i, path := range r.paths {
		if !claimed.Add(canonicalPath(path)) {
			r.logger.Warn("[csv] %s listed more than once, reading it once", path)
			continue
		}
		i, path := i, path
		pool.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := ReadCSVFile(path)
			if err != nil {
				return err
			}
			perFile[i] = rows
			r.logger.Info("[csv] Read %d rows from %s", len(rows), path)
			return nil
		})
	}
	if err := pool.Wait(); err != nil {
		return nil, err
	}

	var all []*models.RawTrip
	for _, rows := range perFile {
		all = append(all, rows...)
	}
	return all, nil
}

// canonicalPath makes "./a.csv", "a.csv" and its absolute form compare equal.
func canonicalPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// ReadCSVFile opens path and decodes it with DecodeCSV.
func ReadCSVFile(path string) ([]*models.RawTrip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	rows, err := DecodeCSV(f)
	if err != nil {
		return nil, fmt.Errorf("csv: %s: %w", path, err)
	}
	return rows, nil
}

// DecodeCSV reads a header row followed by trip rows. Columns are matched
// by name, case-insensitively, in any order; extra columns are ignored.
// Short rows yield empty fields rather than an error.
func DecodeCSV(in io.Reader) ([]*models.RawTrip, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		index[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	for _, col := range models.Columns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %s", col)
		}
	}

	field := func(rec []string, col string) string {
		i := index[col]
		if i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var rows []*models.RawTrip
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, &models.RawTrip{
			RentLat:    field(rec, "RENT_LAT"),
			RentLon:    field(rec, "RENT_LON"),
			RentName:   field(rec, "RENT_NM"),
			ReturnLat:  field(rec, "RTN_LAT"),
			ReturnLon:  field(rec, "RTN_LON"),
			ReturnName: field(rec, "RTN_NM"),
			RentTime:   field(rec, "RENT_DT"),
			BirthYear:  field(rec, "BIRTH_YEAR"),
			SexCode:    field(rec, "SEX_CD"),
		})
	}
	return rows, nil
}
