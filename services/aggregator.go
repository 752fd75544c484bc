package services

import (
	"context"
	"fmt"
	"time"

	"bikeshare-flow/models"
	"bikeshare-flow/utils"
)

// UnknownBand is the demographic band for riders without a birth year.
const UnknownBand = "unknown"

// BirthYearBands lists the demographic bands in display order.
var BirthYearBands = []string{"-1964", "1965-1974", "1975-1984", "1985-1994", "1995-2004", "2005-"}

// TripSource supplies the full trip sequence for one aggregation.
type TripSource interface {
	Trips(ctx context.Context) ([]models.TripRecord, error)
}

// Aggregator turns trip records into the frequency tables used by every view.
// It holds no state between calls.
type Aggregator struct {
	logger *utils.Logger
}

// NewAggregator creates an Aggregator with the given logger.
func NewAggregator(logger *utils.Logger) *Aggregator {
	return &Aggregator{logger: logger}
}

// Aggregate builds a fresh AggregateResult from records. Malformed records
// are left out of every table and counted in Skipped. The result depends
// only on the multiset of records, not their order, except for station
// names: the first record that introduces a station names it.
func (a *Aggregator) Aggregate(records []models.TripRecord) *models.AggregateResult {
	result := models.NewAggregateResult()

	for _, rec := range records {
		if !rec.Valid() {
			result.Skipped++
			continue
		}

		start := models.NewStationKey(rec.Rent.Lat, rec.Rent.Lon)
		end := models.NewStationKey(rec.Return.Lat, rec.Return.Lon)

		a.station(result, start, rec.Rent).RentCount++
		a.station(result, end, rec.Return).ReturnCount++

		result.Paths[models.NewPathKey(start, end)]++
		result.TimeBuckets[TimeBucketOf(rec.RentTime)]++
		result.Demographics[models.DemographicBucket{Band: BandOf(rec.BirthYear), Sex: sexOf(rec.Sex)}]++
		result.Trips++
	}

	if result.Skipped > 0 {
		a.logger.Warn("[aggregator] Skipped %d malformed records out of %d", result.Skipped, len(records))
	}
	a.logger.Debug("[aggregator] %d trips -> %d stations, %d paths",
		result.Trips, len(result.Stations), len(result.Paths))
	return result
}

// AggregateSource loads the trip sequence from src and aggregates it. A
// missing source or a load failure yields ErrInvalidInput and no result.
func (a *Aggregator) AggregateSource(ctx context.Context, src TripSource) (*models.AggregateResult, error) {
	if src == nil {
		return nil, fmt.Errorf("aggregate: nil trip source: %w", ErrInvalidInput)
	}
	records, err := src.Trips(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate: load trips: %w: %w", ErrInvalidInput, err)
	}
	return a.Aggregate(records), nil
}

func (a *Aggregator) station(result *models.AggregateResult, key models.StationKey, s *models.Station) *models.StationStats {
	stats, ok := result.Stations[key]
	if !ok {
		stats = &models.StationStats{Name: s.Name, Lat: s.Lat, Lon: s.Lon}
		result.Stations[key] = stats
		return stats
	}
	if s.Name != "" && s.Name != stats.Name {
		a.logger.Debug("[aggregator] Station %s seen as %q, keeping %q", key, s.Name, stats.Name)
	}
	return stats
}

// TimeBucketOf maps a rent time to its (day, slot) cell. Monday is day 0.
// Slots are two hours wide and labelled by their centre, so 13:xx falls in
// slot 14. Slot 0 covers 23:00-01:00, so 23:xx belongs to slot 0 of the
// following day.
func TimeBucketOf(t time.Time) models.TimeBucket {
	day := (int(t.Weekday()) + 6) % 7
	slot := ((t.Hour() + 1) / 2) * 2
	if slot == 24 {
		day, slot = (day+1)%7, 0
	}
	return models.TimeBucket{Day: day, Slot: slot}
}

// BandOf returns the birth-year band for year; 0 means unknown.
func BandOf(year int) string {
	switch {
	case year <= 0:
		return UnknownBand
	case year < 1965:
		return "-1964"
	case year <= 1974:
		return "1965-1974"
	case year <= 1984:
		return "1975-1984"
	case year <= 1994:
		return "1985-1994"
	case year <= 2004:
		return "1995-2004"
	default:
		return "2005-"
	}
}

func sexOf(s models.Sex) models.Sex {
	if s == models.SexMale || s == models.SexFemale {
		return s
	}
	return models.SexUnknown
}
