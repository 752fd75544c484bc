package services

import (
	"fmt"
	"io"
	"strings"

	"bikeshare-flow/models"
	"bikeshare-flow/utils"
)

var dayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ReportService summarises an AggregateResult for the terminal.
type ReportService struct {
	logger *utils.Logger
	views  *Views
}

func NewReportService(logger *utils.Logger, views *Views) *ReportService {
	return &ReportService{logger: logger, views: views}
}

func (s *ReportService) Generate(result *models.AggregateResult) *models.TripReport {
	report := &models.TripReport{
		Profile:      s.views.Profile().Name,
		TotalTrips:   result.Trips,
		SkippedTrips: result.Skipped,
		Stations:     len(result.Stations),
		Paths:        len(result.Paths),
	}

	for key, c := range result.Paths {
		if a, b := key.Stations(); a == b {
			report.RoundTrips += c
		}
	}

	var err error
	if report.TopStations, err = s.views.Ranking(result, models.RankCombined, Desc, 0); err != nil {
		s.logger.Warn("[report] Station ranking failed: %v", err)
	}
	if report.TopPaths, err = s.views.Ranking(result, models.RankPaths, Desc, 0); err != nil {
		s.logger.Warn("[report] Path ranking failed: %v", err)
	}

	heat := s.views.Heatmap(result)
	for i := range heat.Cells {
		if heat.Cells[i].Count == heat.Max && heat.Max > 0 {
			cell := heat.Cells[i]
			report.BusiestSlot = &cell
			break
		}
	}

	if result.Trips > 0 {
		report.Demographics = s.views.Mosaic(result)
	}
	return report
}

func (s *ReportService) Print(w io.Writer, r *models.TripReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  BIKE-SHARE TRIP SUMMARY (%s)\033[0m\n", r.Profile)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Trips aggregated : \033[1m%d\033[0m\n", r.TotalTrips)
	fmt.Fprintf(w, "  Skipped (bad)    : \033[1m%d\033[0m\n", r.SkippedTrips)
	fmt.Fprintf(w, "  Stations         : \033[1m%d\033[0m\n", r.Stations)
	fmt.Fprintf(w, "  Distinct paths   : \033[1m%d\033[0m\n", r.Paths)
	fmt.Fprintf(w, "  Round trips      : \033[1m%d\033[0m\n", r.RoundTrips)
	fmt.Fprintln(w)

	printRanking(w, "Busiest Stations (rent + return)", r.TopStations, thin)
	printRanking(w, "Busiest Paths", r.TopPaths, thin)

	if r.BusiestSlot != nil {
		fmt.Fprintf(w, "\033[1;33m  Peak Time Slot\033[0m\n")
		fmt.Fprintf(w, "  %s\n", thin)
		fmt.Fprintf(w, "  %s %02d:00-%02d:00 : \033[1;32m%d trips\033[0m\n",
			dayNames[r.BusiestSlot.Day], (r.BusiestSlot.Slot+23)%24, (r.BusiestSlot.Slot+1)%24, r.BusiestSlot.Count)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\033[1;33m  Riders by Birth Year\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.Demographics) == 0 {
		fmt.Fprintf(w, "  No demographic data\n")
	} else {
		for _, band := range r.Demographics {
			fmt.Fprintf(w, "  %-10s %6d  (%5.1f%%)  M %5.1f%%  F %5.1f%%\n",
				band.Band, band.Total, band.Share*100, band.Cells[0].Share*100, band.Cells[1].Share*100)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func printRanking(w io.Writer, title string, items []models.RankedItem, thin string) {
	fmt.Fprintf(w, "\033[1;33m  %s\033[0m\n", title)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(items) == 0 {
		fmt.Fprintf(w, "  No data\n")
	} else {
		for i, item := range items {
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-42s \033[1;32m%d\033[0m\n", i+1, truncate(item.Label, 40), item.Value)
		}
	}
	fmt.Fprintln(w)
}

// truncate shortens s to max runes; station names are often not ASCII.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
