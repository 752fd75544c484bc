package services

import (
	"fmt"
	"sort"

	"bikeshare-flow/models"
)

// Views derives renderer-ready sequences from an AggregateResult using one
// render profile. Every method is a pure query.
type Views struct {
	profile models.RenderProfile
}

// NewViews creates Views bound to profile.
func NewViews(profile models.RenderProfile) *Views {
	return &Views{profile: profile}
}

// Profile returns the active render profile.
func (v *Views) Profile() models.RenderProfile {
	return v.profile
}

// Paths returns the top paths for zoom with their colour bucket and
// thickness. Buckets quantize the list position, so the last (busiest)
// paths get the darkest, thickest lines.
func (v *Views) Paths(result *models.AggregateResult, zoom float64) (*models.PathView, error) {
	threshold := ZoomThreshold(v.profile.Threshold, zoom)
	top, err := RankTopPercentilePaths(result.Paths, threshold)
	if err != nil {
		return nil, err
	}

	view := &models.PathView{
		Zoom:      zoom,
		Threshold: threshold,
		Paths:     make([]models.StyledPath, 0, len(top)),
	}
	for i, p := range top {
		bucket := quantize(i, len(top), v.profile.ColorSteps)
		from, to := p.Key.Stations()
		view.Paths = append(view.Paths, models.StyledPath{
			Key:         p.Key,
			From:        stationName(result, from),
			To:          stationName(result, to),
			Count:       p.Count,
			ColorBucket: bucket,
			Thickness:   v.profile.Thickness.Weight(bucket),
		})
	}
	return view, nil
}

// quantize maps index in [0, n) onto steps equal-width buckets.
func quantize(index, n, steps int) int {
	if n <= 0 || steps <= 1 {
		return 0
	}
	b := index * steps / n
	if b >= steps {
		b = steps - 1
	}
	return b
}

// Bubbles returns one marker per station sized by the chosen count,
// ordered by station key. Stations with a zero count for the mode are
// left out.
func (v *Views) Bubbles(result *models.AggregateResult, mode models.BubbleMode) ([]models.Bubble, error) {
	count, err := stationCounter(mode)
	if err != nil {
		return nil, err
	}

	bubbles := make([]models.Bubble, 0, len(result.Stations))
	for _, key := range SortedStationKeys(result) {
		s := result.Stations[key]
		c := count(s)
		if c == 0 {
			continue
		}
		bubbles = append(bubbles, models.Bubble{
			Key:    key,
			Name:   s.Name,
			Lat:    s.Lat,
			Lon:    s.Lon,
			Count:  c,
			Radius: v.profile.Radius.Radius(c),
		})
	}
	return bubbles, nil
}

func stationCounter(mode models.BubbleMode) (func(*models.StationStats) int, error) {
	switch mode {
	case models.BubbleRent:
		return func(s *models.StationStats) int { return s.RentCount }, nil
	case models.BubbleReturn:
		return func(s *models.StationStats) int { return s.ReturnCount }, nil
	case models.BubbleCombined:
		return func(s *models.StationStats) int { return s.Total() }, nil
	}
	return nil, fmt.Errorf("bubble mode %q: %w", mode, ErrInvalidParameter)
}

// Heatmap flattens the time buckets into cells ordered by day, then slot.
func (v *Views) Heatmap(result *models.AggregateResult) models.HeatmapView {
	view := models.HeatmapView{Cells: make([]models.HeatmapCell, 0, len(result.TimeBuckets))}
	for b, c := range result.TimeBuckets {
		view.Cells = append(view.Cells, models.HeatmapCell{Day: b.Day, Slot: b.Slot, Count: c})
		if c > view.Max {
			view.Max = c
		}
	}
	sort.Slice(view.Cells, func(i, j int) bool {
		if view.Cells[i].Day != view.Cells[j].Day {
			return view.Cells[i].Day < view.Cells[j].Day
		}
		return view.Cells[i].Slot < view.Cells[j].Slot
	})
	return view
}

// Ranking returns the lollipop entries for mode. k <= 0 uses the profile's
// ranking size. Candidates are fed to RankTopK in key order, so ties are
// broken by key.
func (v *Views) Ranking(result *models.AggregateResult, mode models.RankingMode, order Order, k int) ([]models.RankedItem, error) {
	if k <= 0 {
		k = v.profile.RankingSize
	}

	var entries []Entry[string, int]
	switch mode {
	case models.RankPaths:
		keys := make([]models.PathKey, 0, len(result.Paths))
		for key := range result.Paths {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		for _, key := range keys {
			from, to := key.Stations()
			label := stationName(result, from) + "<->" + stationName(result, to)
			entries = append(entries, Entry[string, int]{Key: label, Value: result.Paths[key]})
		}
	case models.RankRent, models.RankReturn, models.RankCombined:
		count, err := stationCounter(models.BubbleMode(mode))
		if err != nil {
			return nil, err
		}
		for _, key := range SortedStationKeys(result) {
			s := result.Stations[key]
			entries = append(entries, Entry[string, int]{Key: stationName(result, key), Value: count(s)})
		}
	default:
		return nil, fmt.Errorf("ranking mode %q: %w", mode, ErrInvalidParameter)
	}

	top, err := RankTopK(entries, func(c int) float64 { return float64(c) }, k, order)
	if err != nil {
		return nil, err
	}
	items := make([]models.RankedItem, len(top))
	for i, e := range top {
		items[i] = models.RankedItem{Label: e.Key, Value: e.Value}
	}
	return items, nil
}

// Mosaic returns one column per birth-year band in display order. A band's
// Share is its fraction of all trips; cell shares are fractions within the
// band, for M and F. The unknown band is appended only when it has trips.
func (v *Views) Mosaic(result *models.AggregateResult) []models.MosaicBand {
	totals := make(map[string]int)
	overall := 0
	for b, c := range result.Demographics {
		totals[b.Band] += c
		overall += c
	}

	bands := append([]string{}, BirthYearBands...)
	if totals[UnknownBand] > 0 {
		bands = append(bands, UnknownBand)
	}

	out := make([]models.MosaicBand, 0, len(bands))
	for _, band := range bands {
		total := totals[band]
		col := models.MosaicBand{Band: band, Total: total, Share: ratio(total, overall)}
		for _, sex := range []models.Sex{models.SexMale, models.SexFemale} {
			c := result.Demographics[models.DemographicBucket{Band: band, Sex: sex}]
			col.Cells = append(col.Cells, models.MosaicCell{Sex: sex, Count: c, Share: ratio(c, total)})
		}
		out = append(out, col)
	}
	return out
}

func ratio(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}

// stationName falls back to the key when the station is unknown or unnamed.
func stationName(result *models.AggregateResult, key models.StationKey) string {
	if s, ok := result.Stations[key]; ok && s.Name != "" {
		return s.Name
	}
	return string(key)
}

// SortedStationKeys returns the station keys of result in ascending order.
func SortedStationKeys(result *models.AggregateResult) []models.StationKey {
	keys := make([]models.StationKey, 0, len(result.Stations))
	for key := range result.Stations {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
