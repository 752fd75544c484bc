package services

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"bikeshare-flow/models"
	"bikeshare-flow/utils"
)

// RentTimeLayout is the RENT_DT format of the source dataset.
const RentTimeLayout = "2006-01-02 15:04"

// Cleaner transforms RawTrips into TripRecords. Fields that fail to parse
// leave the corresponding part of the record empty, so the aggregator can
// skip and count it; the cleaner never drops rows itself.
type Cleaner struct {
	logger   *utils.Logger
	location *time.Location
}

// NewCleaner creates a Cleaner that interprets RENT_DT in loc.
// A nil loc means UTC.
func NewCleaner(logger *utils.Logger, loc *time.Location) *Cleaner {
	if loc == nil {
		loc = time.UTC
	}
	return &Cleaner{logger: logger, location: loc}
}

// Clean converts raw rows into trip records, preserving order.
func (c *Cleaner) Clean(raw []*models.RawTrip) []models.TripRecord {
	result := make([]models.TripRecord, 0, len(raw))
	incomplete := 0

	for _, r := range raw {
		if r == nil {
			incomplete++
			result = append(result, models.TripRecord{Sex: models.SexUnknown})
			continue
		}

		rec := models.TripRecord{
			Rent:      parseStation(r.RentLat, r.RentLon, r.RentName),
			Return:    parseStation(r.ReturnLat, r.ReturnLon, r.ReturnName),
			RentTime:  c.parseRentTime(r.RentTime),
			BirthYear: parseBirthYear(r.BirthYear),
			Sex:       models.ParseSex(r.SexCode),
		}
		if !rec.Valid() {
			incomplete++
			c.logger.Debug("[cleaner] Incomplete trip row: %v", r.Row())
		}
		result = append(result, rec)
	}

	c.logger.Info("[cleaner] Cleaned %d rows (%d incomplete)", len(raw), incomplete)
	return result
}

func (c *Cleaner) parseRentTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(RentTimeLayout, raw, c.location)
	if err != nil {
		// Some exports carry seconds.
		t, err = time.ParseInLocation("2006-01-02 15:04:05", raw, c.location)
		if err != nil {
			return time.Time{}
		}
	}
	return t
}

// parseStation returns nil when either coordinate is missing or not a number.
func parseStation(rawLat, rawLon, name string) *models.Station {
	lat, err := strconv.ParseFloat(strings.TrimSpace(rawLat), 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(rawLon), 64)
	if err != nil {
		return nil
	}
	return &models.Station{Lat: lat, Lon: lon, Name: normaliseText(name)}
}

// parseBirthYear returns 0 for anything that is not a positive year.
func parseBirthYear(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
