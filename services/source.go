package services

import (
	"context"

	"bikeshare-flow/models"
)

// RawSource supplies unparsed trip rows.
type RawSource interface {
	FetchAll(ctx context.Context) ([]*models.RawTrip, error)
}

// CleanSource turns a RawSource into a TripSource by running every row
// through the cleaner. If OnRejected is set it is called after every
// successful load with that load's rejected rows, possibly none.
type CleanSource struct {
	raw        RawSource
	cleaner    *Cleaner
	OnRejected func(rows []*models.RawTrip)
}

func NewCleanSource(raw RawSource, cleaner *Cleaner) *CleanSource {
	return &CleanSource{raw: raw, cleaner: cleaner}
}

// Trips implements TripSource.
func (s *CleanSource) Trips(ctx context.Context) ([]models.TripRecord, error) {
	rows, err := s.raw.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	records := s.cleaner.Clean(rows)

	if s.OnRejected != nil {
		rejected := make([]*models.RawTrip, 0)
		for i, rec := range records {
			if !rec.Valid() {
				rejected = append(rejected, rows[i])
			}
		}
		s.OnRejected(rejected)
	}
	return records, nil
}
