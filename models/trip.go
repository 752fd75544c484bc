package models

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Sex is the rider sex code recorded with a trip.
type Sex string

const (
	SexMale    Sex = "M"
	SexFemale  Sex = "F"
	SexUnknown Sex = "unknown"
)

// ParseSex maps a raw sex code to a Sex. Anything other than M/F is unknown.
func ParseSex(raw string) Sex {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "M":
		return SexMale
	case "F":
		return SexFemale
	default:
		return SexUnknown
	}
}

// Station is a physical rental/return location.
type Station struct {
	Lat  float64
	Lon  float64
	Name string
}

// Valid reports whether both coordinates are finite numbers.
func (s *Station) Valid() bool {
	if s == nil {
		return false
	}
	return finite(s.Lat) && finite(s.Lon)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// TripRecord is one observed rental. A nil station or a zero RentTime marks
// the record as malformed; BirthYear 0 means the year is unknown.
type TripRecord struct {
	Rent      *Station
	Return    *Station
	RentTime  time.Time
	BirthYear int
	Sex       Sex
}

// Valid reports whether the record can be aggregated.
func (t TripRecord) Valid() bool {
	return t.Rent.Valid() && t.Return.Valid() && !t.RentTime.IsZero()
}

// StationKey identifies a station by its coordinate pair.
type StationKey string

// NewStationKey formats the coordinates with the shortest exact decimal
// representation, so equal float64 values always produce equal keys.
func NewStationKey(lat, lon float64) StationKey {
	return StationKey(strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lon, 'f', -1, 64))
}

// Coordinates parses the key back into lat/lon.
func (k StationKey) Coordinates() (lat, lon float64, ok bool) {
	a, b, found := strings.Cut(string(k), ",")
	if !found {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(b, 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// PathKey is an undirected pair of stations: A→B and B→A share a key.
type PathKey string

const pathSeparator = "_"

// NewPathKey sorts the two station keys before joining them.
func NewPathKey(a, b StationKey) PathKey {
	pair := []string{string(a), string(b)}
	sort.Strings(pair)
	return PathKey(pair[0] + pathSeparator + pair[1])
}

// Stations splits the key into its two (sorted) station keys.
func (k PathKey) Stations() (StationKey, StationKey) {
	a, b, _ := strings.Cut(string(k), pathSeparator)
	return StationKey(a), StationKey(b)
}
