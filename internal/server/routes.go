package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/motivaitor/insight/internal/activity"
)

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.momentum.ProjectsWithStats(r.Context(), s.db, ownerParam(r), s.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(projects),
		"projects": projects,
	})
}

func (s *Server) handleGetAbilities(w http.ResponseWriter, r *http.Request) {
	state, err := s.db.GetAbilities(r.Context(), ownerParam(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state.Rounded())
}

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	owner := ownerParam(r)
	state, err := s.abilities.Recompute(r.Context(), owner, s.now())
	if err != nil {
		slog.Error("recompute failed", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state.Rounded())
}

func (s *Server) handleUpsertDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       string            `json:"id"`
		Text     string            `json:"text"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id required")
		return
	}

	if err := s.index.Upsert(r.Context(), ownerParam(r), req.ID, req.Text, req.Metadata); err != nil {
		if errors.Is(err, activity.ErrEmptyOwner) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	status := "indexed"
	if req.Text == "" {
		status = "skipped"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status, "id": req.ID})
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	days := 30
	if d := r.URL.Query().Get("days"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil || n <= 0 || n > 3650 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}

	since := activity.Midnight(s.now()).AddDate(0, 0, -days)
	workouts, err := s.db.WorkoutsSince(r.Context(), ownerParam(r), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"days":   days,
		"since":  since.Format(time.DateOnly),
		"points": activity.VolumeSeries(workouts, since),
	})
}
