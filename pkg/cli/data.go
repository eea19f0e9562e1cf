package cli

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mchmarny/rimecast/pkg/data"
	"github.com/mchmarny/rimecast/pkg/terrain"
)

const (
	runListLimitDefault = 20
	runListLimitMax     = 500
	maxCompassSize      = 1000
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryParamInt(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return def
	}
	return i
}

// LocationInfo is a configured location with its derived terrain, if any.
type LocationInfo struct {
	terrain.Location `json:",inline" yaml:",inline"`
	Terrain          *terrain.Info `json:"terrain,omitempty" yaml:"terrain,omitempty"`
}

func locationsAPIHandler(srv *scoreServer) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		list := make([]*LocationInfo, 0, len(srv.app.Config.Locations))
		for _, loc := range srv.app.Config.Locations {
			info, err := data.GetTerrain(srv.app.DB, loc.Name)
			if err != nil {
				slog.Error("failed to get terrain", "location", loc.Name, "error", err)
				writeError(w, http.StatusInternalServerError, "failed to get terrain")
				return
			}
			list = append(list, &LocationInfo{Location: loc, Terrain: info})
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// scoresAPIHandler returns the full result, or one location with
// ?location=name. Adding ?at=RFC3339 narrows the output to the point at that
// time.
func scoresAPIHandler(srv *scoreServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := srv.current()
		if res == nil {
			writeError(w, http.StatusServiceUnavailable, "no scores available yet")
			return
		}

		at := srv.now()
		atParam := r.URL.Query().Get("at")
		if atParam != "" {
			t, err := time.Parse(time.RFC3339, atParam)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid at, expected RFC3339 time")
				return
			}
			at = t.UTC()
		}

		name := r.URL.Query().Get("location")
		if name == "" {
			if atParam == "" {
				writeJSON(w, http.StatusOK, res)
				return
			}
			writeJSON(w, http.StatusOK, scoresAt(res, at, true))
			return
		}

		loc, ok := terrain.Find(srv.app.Config.Locations, name)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown location")
			return
		}
		lr := res.Find(loc.Name)
		if lr == nil {
			writeError(w, http.StatusNotFound, "no scores for location")
			return
		}
		if atParam == "" {
			writeJSON(w, http.StatusOK, lr)
			return
		}
		p := lr.At(at)
		if p == nil {
			writeError(w, http.StatusNotFound, "no score at or before the requested time")
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func stateAPIHandler(srv *scoreServer) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		state, err := data.GetDataState(srv.app.DB)
		if err != nil {
			slog.Error("failed to get data state", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get data state")
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func runsAPIHandler(srv *scoreServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := min(queryParamInt(r, "limit", runListLimitDefault), runListLimitMax)
		runs, err := data.GetRuns(srv.app.DB, limit)
		if err != nil {
			slog.Error("failed to get runs", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get runs")
			return
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

func refreshAPIHandler(srv *scoreServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := srv.update(r.Context()); err != nil {
			slog.Error("refresh failed", "error", err)
			writeError(w, http.StatusBadGateway, "refresh failed")
			return
		}
		res := srv.current()
		writeJSON(w, http.StatusOK, map[string]any{
			"generated_at": res.GeneratedAt,
			"locations":    len(res.Locations),
			"timestamps":   len(res.Timestamps),
		})
	}
}
