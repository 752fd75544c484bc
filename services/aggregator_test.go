package services

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"bikeshare-flow/models"
)

var (
	stationX = &models.Station{Lat: 37.55, Lon: 127.04, Name: "X"}
	stationY = &models.Station{Lat: 37.56, Lon: 127.05, Name: "Y"}
	stationZ = &models.Station{Lat: 37.54, Lon: 127.06, Name: "Z"}
)

// wednesday is 2024-05-15, a Wednesday.
func wednesday(hour, minute int) time.Time {
	return time.Date(2024, 5, 15, hour, minute, 0, 0, time.UTC)
}

func trip(from, to *models.Station, at time.Time, year int, sex models.Sex) models.TripRecord {
	return models.TripRecord{Rent: from, Return: to, RentTime: at, BirthYear: year, Sex: sex}
}

func sampleTrips() []models.TripRecord {
	return []models.TripRecord{
		trip(stationX, stationY, wednesday(13, 45), 1994, models.SexMale),
		trip(stationY, stationX, wednesday(8, 5), 2006, models.SexFemale),
		trip(stationX, stationZ, wednesday(23, 30), 1960, models.SexFemale),
		trip(stationZ, stationZ, wednesday(0, 10), 0, models.SexUnknown),
		trip(stationX, stationY, wednesday(14, 0), 1985, models.SexMale),
	}
}

func TestAggregateEmpty(t *testing.T) {
	agg := NewAggregator(newTestLogger())
	r := agg.Aggregate(nil)
	if r.Trips != 0 || r.Skipped != 0 {
		t.Errorf("counts: got %d/%d, want 0/0", r.Trips, r.Skipped)
	}
	if r.Stations == nil || r.Paths == nil || r.TimeBuckets == nil || r.Demographics == nil {
		t.Error("all tables should be allocated")
	}
}

func TestAggregateConservesCounts(t *testing.T) {
	agg := NewAggregator(newTestLogger())
	trips := sampleTrips()
	r := agg.Aggregate(trips)

	sumPaths, sumRent, sumReturn, sumTime, sumDemo := 0, 0, 0, 0, 0
	for _, c := range r.Paths {
		sumPaths += c
	}
	for _, s := range r.Stations {
		sumRent += s.RentCount
		sumReturn += s.ReturnCount
	}
	for _, c := range r.TimeBuckets {
		sumTime += c
	}
	for _, c := range r.Demographics {
		sumDemo += c
	}

	n := len(trips)
	for name, got := range map[string]int{
		"paths": sumPaths, "rent": sumRent, "return": sumReturn,
		"time": sumTime, "demographics": sumDemo, "trips": r.Trips,
	} {
		if got != n {
			t.Errorf("%s sum: got %d, want %d", name, got, n)
		}
	}
}

func TestAggregateUndirectedPaths(t *testing.T) {
	agg := NewAggregator(newTestLogger())
	r := agg.Aggregate(sampleTrips())

	x := models.NewStationKey(stationX.Lat, stationX.Lon)
	y := models.NewStationKey(stationY.Lat, stationY.Lon)
	if models.NewPathKey(x, y) != models.NewPathKey(y, x) {
		t.Fatal("path key should not depend on direction")
	}
	if got := r.Paths[models.NewPathKey(x, y)]; got != 3 {
		t.Errorf("X<->Y count: got %d, want 3", got)
	}
	if len(r.Paths) != 3 {
		t.Errorf("distinct paths: got %d, want 3", len(r.Paths))
	}
}

func TestAggregateStationStats(t *testing.T) {
	agg := NewAggregator(newTestLogger())
	r := agg.Aggregate(sampleTrips())

	x := r.Stations[models.NewStationKey(37.55, 127.04)]
	if x == nil {
		t.Fatal("station X missing")
	}
	if x.Name != "X" || x.RentCount != 3 || x.ReturnCount != 1 {
		t.Errorf("station X: got %+v", *x)
	}

	z := r.Stations[models.NewStationKey(37.54, 127.06)]
	if z.RentCount != 1 || z.ReturnCount != 2 {
		t.Errorf("station Z: got %+v", *z)
	}
}

func TestAggregateFirstSeenNameWins(t *testing.T) {
	agg := NewAggregator(newTestLogger())
	renamed := &models.Station{Lat: stationX.Lat, Lon: stationX.Lon, Name: "X (renamed)"}
	r := agg.Aggregate([]models.TripRecord{
		trip(stationX, stationY, wednesday(9, 0), 1990, models.SexMale),
		trip(renamed, stationY, wednesday(9, 0), 1990, models.SexMale),
	})

	if got := r.Stations[models.NewStationKey(stationX.Lat, stationX.Lon)].Name; got != "X" {
		t.Errorf("name: got %q, want %q", got, "X")
	}
}

func TestAggregateSkipsMalformed(t *testing.T) {
	agg := NewAggregator(newTestLogger())
	trips := append(sampleTrips(),
		trip(nil, stationY, wednesday(9, 0), 1990, models.SexMale),
		trip(stationX, &models.Station{Lat: math.NaN(), Lon: 127}, wednesday(9, 0), 1990, models.SexMale),
		trip(stationX, stationY, time.Time{}, 1990, models.SexMale),
	)

	r := agg.Aggregate(trips)
	if r.Skipped != 3 {
		t.Errorf("Skipped: got %d, want 3", r.Skipped)
	}
	if r.Trips != 5 {
		t.Errorf("Trips: got %d, want 5", r.Trips)
	}
	if got := r.Stations[models.NewStationKey(stationX.Lat, stationX.Lon)].RentCount; got != 3 {
		t.Errorf("malformed records leaked into station X: rent=%d", got)
	}
}

func TestAggregateIdempotentAndOrderIndependent(t *testing.T) {
	agg := NewAggregator(newTestLogger())
	trips := sampleTrips()
	first := agg.Aggregate(trips)
	second := agg.Aggregate(trips)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("aggregating the same input twice should give identical results")
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]models.TripRecord{}, trips...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		if got := agg.Aggregate(shuffled); !reflect.DeepEqual(first, got) {
			t.Fatalf("shuffle %d changed the result", i)
		}
	}
}

func TestTimeBucketOf(t *testing.T) {
	tests := []struct {
		at   time.Time
		want models.TimeBucket
	}{
		{wednesday(13, 45), models.TimeBucket{Day: 2, Slot: 14}},
		{wednesday(14, 59), models.TimeBucket{Day: 2, Slot: 14}},
		{wednesday(0, 0), models.TimeBucket{Day: 2, Slot: 0}},
		{wednesday(1, 0), models.TimeBucket{Day: 2, Slot: 2}},
		{wednesday(23, 30), models.TimeBucket{Day: 3, Slot: 0}},
		{time.Date(2024, 5, 16, 0, 10, 0, 0, time.UTC), models.TimeBucket{Day: 3, Slot: 0}},
		{time.Date(2024, 5, 19, 23, 0, 0, 0, time.UTC), models.TimeBucket{Day: 0, Slot: 0}},
		{time.Date(2024, 5, 13, 8, 0, 0, 0, time.UTC), models.TimeBucket{Day: 0, Slot: 8}},
		{time.Date(2024, 5, 19, 21, 0, 0, 0, time.UTC), models.TimeBucket{Day: 6, Slot: 22}},
	}

	for _, tt := range tests {
		if got := TimeBucketOf(tt.at); got != tt.want {
			t.Errorf("TimeBucketOf(%v) = %+v; want %+v", tt.at, got, tt.want)
		}
	}
}

func TestBandOf(t *testing.T) {
	tests := []struct {
		year int
		want string
	}{
		{1940, "-1964"},
		{1964, "-1964"},
		{1965, "1965-1974"},
		{1974, "1965-1974"},
		{1984, "1975-1984"},
		{1994, "1985-1994"},
		{2004, "1995-2004"},
		{2005, "2005-"},
		{2006, "2005-"},
		{0, UnknownBand},
	}

	for _, tt := range tests {
		if got := BandOf(tt.year); got != tt.want {
			t.Errorf("BandOf(%d) = %q; want %q", tt.year, got, tt.want)
		}
	}
}

func TestAggregateDemographics(t *testing.T) {
	agg := NewAggregator(newTestLogger())
	r := agg.Aggregate(sampleTrips())

	if got := r.Demographics[models.DemographicBucket{Band: "1985-1994", Sex: models.SexMale}]; got != 2 {
		t.Errorf("1985-1994/M: got %d, want 2", got)
	}
	if got := r.Demographics[models.DemographicBucket{Band: "2005-", Sex: models.SexFemale}]; got != 1 {
		t.Errorf("2005-/F: got %d, want 1", got)
	}
	if got := r.Demographics[models.DemographicBucket{Band: UnknownBand, Sex: models.SexUnknown}]; got != 1 {
		t.Errorf("unknown/unknown: got %d, want 1", got)
	}
}

type stubSource struct {
	trips []models.TripRecord
	err   error
}

func (s stubSource) Trips(context.Context) ([]models.TripRecord, error) {
	return s.trips, s.err
}

func TestAggregateSource(t *testing.T) {
	agg := NewAggregator(newTestLogger())

	r, err := agg.AggregateSource(context.Background(), stubSource{trips: sampleTrips()})
	if err != nil {
		t.Fatalf("AggregateSource: %v", err)
	}
	if r.Trips != 5 {
		t.Errorf("Trips: got %d, want 5", r.Trips)
	}

	if _, err := agg.AggregateSource(context.Background(), nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("nil source: got %v, want ErrInvalidInput", err)
	}

	loadErr := errors.New("disk gone")
	r, err = agg.AggregateSource(context.Background(), stubSource{err: loadErr})
	if !errors.Is(err, ErrInvalidInput) || !errors.Is(err, loadErr) {
		t.Errorf("failing source: got %v", err)
	}
	if r != nil {
		t.Error("no partial result expected on failure")
	}
}
