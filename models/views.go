package models

// BubbleMode selects which station count drives a bubble view.
type BubbleMode string

const (
	BubbleRent     BubbleMode = "rent"
	BubbleReturn   BubbleMode = "return"
	BubbleCombined BubbleMode = "combined"
)

// Bubble is one station marker sized by a count.
type Bubble struct {
	Key    StationKey `json:"key"`
	Name   string     `json:"name"`
	Lat    float64    `json:"lat"`
	Lon    float64    `json:"lon"`
	Count  int        `json:"count"`
	Radius float64    `json:"radius"`
}

// StyledPath is a top path with its visual encoding. ColorBucket runs 0-9
// from lightest to darkest.
type StyledPath struct {
	Key         PathKey `json:"key"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	Count       int     `json:"count"`
	ColorBucket int     `json:"colorBucket"`
	Thickness   float64 `json:"thickness"`
}

// PathView is the result of a zoom-dependent path query.
type PathView struct {
	Zoom      float64      `json:"zoom"`
	Threshold float64      `json:"threshold"`
	Paths     []StyledPath `json:"paths"`
}

// HeatmapCell is one populated (day, slot) cell.
type HeatmapCell struct {
	Day   int `json:"day"`
	Slot  int `json:"slot"`
	Count int `json:"count"`
}

// HeatmapView lists the populated cells ordered by day then slot.
type HeatmapView struct {
	Cells []HeatmapCell `json:"cells"`
	Max   int           `json:"max"`
}

// RankingMode selects what the lollipop ranking counts.
type RankingMode string

const (
	RankPaths    RankingMode = "paths"
	RankRent     RankingMode = "rent"
	RankReturn   RankingMode = "return"
	RankCombined RankingMode = "combined"
)

// RankedItem is one lollipop entry.
type RankedItem struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// MosaicCell is one (band, sex) tile.
type MosaicCell struct {
	Sex   Sex     `json:"sex"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// MosaicBand is one birth-year column of the mosaic.
type MosaicBand struct {
	Band  string       `json:"band"`
	Total int          `json:"total"`
	Share float64      `json:"share"`
	Cells []MosaicCell `json:"cells"`
}
