package storage

import (
	"context"

	"bikeshare-flow/models"
)

// RawTripReader is the interface any trip dataset backend must satisfy.
type RawTripReader interface {
	FetchAll(ctx context.Context) ([]*models.RawTrip, error)
}

// RawTripWriter is the interface for persisting raw trip rows, either to
// seed a database or to dump rejected rows for inspection.
type RawTripWriter interface {
	WriteRaw(ctx context.Context, trips []*models.RawTrip) error
	Close() error
}
