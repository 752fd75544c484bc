package models

// StationStats holds per-station rent and return counts. Name is taken from
// the first record that introduced the station.
type StationStats struct {
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	RentCount   int     `json:"rentCount"`
	ReturnCount int     `json:"returnCount"`
}

// Total is rent plus return count.
func (s StationStats) Total() int {
	return s.RentCount + s.ReturnCount
}

// TimeBucket is a (day-of-week, two-hour slot) cell. Day 0 is Monday and
// Slot is one of 0, 2, ..., 22.
type TimeBucket struct {
	Day  int `json:"day"`
	Slot int `json:"slot"`
}

// DemographicBucket groups riders by birth-year band and sex.
type DemographicBucket struct {
	Band string `json:"band"`
	Sex  Sex    `json:"sex"`
}

// AggregateResult is a pure projection of a trip sequence. It is rebuilt on
// every aggregation and keeps no reference to the input records.
type AggregateResult struct {
	Stations     map[StationKey]*StationStats
	Paths        map[PathKey]int
	TimeBuckets  map[TimeBucket]int
	Demographics map[DemographicBucket]int

	// Trips is the number of aggregated records, Skipped the number of
	// malformed ones left out of every table.
	Trips   int
	Skipped int
}

// NewAggregateResult returns an empty result with all tables allocated.
func NewAggregateResult() *AggregateResult {
	return &AggregateResult{
		Stations:     make(map[StationKey]*StationStats),
		Paths:        make(map[PathKey]int),
		TimeBuckets:  make(map[TimeBucket]int),
		Demographics: make(map[DemographicBucket]int),
	}
}

// PathCount is one ranked path.
type PathCount struct {
	Key   PathKey `json:"key"`
	Count int     `json:"count"`
}
