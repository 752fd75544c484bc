package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bikeshare-flow/models"
	"bikeshare-flow/services"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// StationEntry is a station with its key, as listed by GET /api/stations.
type StationEntry struct {
	Key models.StationKey `json:"key"`
	*models.StationStats
}

// StationsResponse is the body of GET /api/stations.
type StationsResponse struct {
	Stations []StationEntry `json:"stations"`
	Count    int            `json:"count"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status     string    `json:"status"`
	Snapshot   string    `json:"snapshot,omitempty"`
	Generation uint64    `json:"generation,omitempty"`
	Trips      int       `json:"trips"`
	Skipped    int       `json:"skipped"`
	Timestamp  time.Time `json:"timestamp"`
}

// ReloadResponse is the body of POST /api/reload.
type ReloadResponse struct {
	Published  bool   `json:"published"`
	Snapshot   string `json:"snapshot,omitempty"`
	Generation uint64 `json:"generation,omitempty"`
	Trips      int    `json:"trips"`
	Skipped    int    `json:"skipped"`
}

// handleHealth handles GET /health. It reports 503 until a snapshot exists.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.recomputer.Current()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "empty", Timestamp: time.Now().UTC()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Snapshot:   snap.ID,
		Generation: snap.Generation,
		Trips:      snap.Result.Trips,
		Skipped:    snap.Result.Skipped,
		Timestamp:  time.Now().UTC(),
	})
}

// handleStations handles GET /api/stations
func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	keys := services.SortedStationKeys(snap.Result)
	resp := StationsResponse{Stations: make([]StationEntry, 0, len(keys)), Count: len(keys)}
	for _, key := range keys {
		resp.Stations = append(resp.Stations, StationEntry{Key: key, StationStats: snap.Result.Stations[key]})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePaths handles GET /api/paths?zoom=. Without zoom the profile's base
// zoom is used.
func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	zoom := s.views.Profile().Threshold.BaseZoom
	if raw := r.URL.Query().Get("zoom"); raw != "" {
		z, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "zoom must be a number", map[string]interface{}{"zoom": raw})
			return
		}
		zoom = z
	}

	key := fmt.Sprintf("%s|%g", snap.ID, zoom)
	if cached, err := s.pathCache.Get(key); err == nil {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	view, err := s.views.Paths(snap.Result, zoom)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if err := s.pathCache.Set(key, view); err != nil {
		s.logger.Warn("[http] Caching paths for %s: %v", key, err)
	}
	writeJSON(w, http.StatusOK, view)
}

// handleBubbles handles GET /api/bubbles?mode=rent|return|combined
func (s *Server) handleBubbles(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	mode := models.BubbleMode(queryOr(r, "mode", string(models.BubbleCombined)))
	bubbles, err := s.views.Bubbles(snap.Result, mode)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bubbles)
}

// handleHeatmap handles GET /api/heatmap
func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.views.Heatmap(snap.Result))
}

// handleMosaic handles GET /api/mosaic
func (s *Server) handleMosaic(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.views.Mosaic(snap.Result))
}

// handleRanking handles GET /api/ranking?mode=&order=&k=. Defaults are the
// busiest paths, descending, with the profile's ranking size.
func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}

	order, err := services.ParseOrder(queryOr(r, "order", string(services.Desc)))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		k, err = strconv.Atoi(raw)
		if err != nil || k < 0 {
			writeError(w, http.StatusBadRequest, "k must be a non-negative integer", map[string]interface{}{"k": raw})
			return
		}
	}

	mode := models.RankingMode(queryOr(r, "mode", string(models.RankPaths)))
	items, err := s.views.Ranking(snap.Result, mode, order, k)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleReload handles POST /api/reload. A reload overtaken by a newer one
// answers 202 with published=false.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		writeError(w, http.StatusServiceUnavailable, "reloading is not configured", nil)
		return
	}

	snap, published, err := s.recomputer.Reload(r.Context(), s.source)
	if err != nil {
		s.logger.Error("[http] Reload failed: %v", err)
		writeServiceError(w, err)
		return
	}
	if !published {
		writeJSON(w, http.StatusAccepted, ReloadResponse{Published: false})
		return
	}

	s.pathCache.Purge()
	writeJSON(w, http.StatusOK, ReloadResponse{
		Published:  true,
		Snapshot:   snap.ID,
		Generation: snap.Generation,
		Trips:      snap.Result.Trips,
		Skipped:    snap.Result.Skipped,
	})
}

// snapshot returns the current snapshot and sets its ETag. It writes the
// response itself, and reports false, when there is nothing to serve or the
// client copy is current.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*services.Snapshot, bool) {
	snap := s.recomputer.Current()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, "no aggregation available yet", nil)
		return nil, false
	}

	etag := `"` + snap.ID + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return nil, false
	}
	return snap, true
}

func queryOr(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, details map[string]interface{}) {
	writeJSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// writeServiceError maps invalid parameters to 400 and bad input data to 502.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidParameter):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, services.ErrInvalidInput):
		writeError(w, http.StatusBadGateway, "trip source unavailable", map[string]interface{}{"internal": err.Error()})
	default:
		writeError(w, http.StatusInternalServerError, "internal error", map[string]interface{}{"internal": err.Error()})
	}
}
