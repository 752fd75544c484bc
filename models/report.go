package models

// TripReport is the terminal summary of one aggregation.
type TripReport struct {
	Profile      string
	TotalTrips   int
	SkippedTrips int
	Stations     int
	Paths        int
	RoundTrips   int
	TopStations  []RankedItem
	TopPaths     []RankedItem
	BusiestSlot  *HeatmapCell
	Demographics []MosaicBand
}
