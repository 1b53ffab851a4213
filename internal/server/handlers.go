package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/logger"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/tracker"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

type habitRequest struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Color       *string           `json:"color"`
	Frequency   *models.Frequency `json:"frequency"`
}

type habitResponse struct {
	Habit    models.Habit `json:"habit"`
	Warnings []string     `json:"warnings,omitempty"`
}

type logRequest struct {
	Status constants.LogStatus `json:"status"`
}

type dayEntry struct {
	models.DailyHabitView
	Status constants.LogStatus `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

// writeError maps domain error kinds onto HTTP status codes
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsNotFound(err):
		status = http.StatusNotFound
	case apperrors.IsValidation(err):
		status = http.StatusBadRequest
	case apperrors.IsStorage(err):
		status = http.StatusServiceUnavailable
	}

	msg := err.Error()
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		logger.Error("Request failed", "status", status, "error", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
			return apperrors.Validation("body", "malformed JSON: %v", err)
		default:
			return apperrors.Validation("body", "%v", err)
		}
	}
	return nil
}

func (s *Server) listHabits(w http.ResponseWriter, r *http.Request) {
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("inactive"))
	habits, err := s.tracker.Habits(r.Context(), userFrom(r), includeInactive)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

func (s *Server) createHabit(w http.ResponseWriter, r *http.Request) {
	var req habitRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	in := tracker.HabitInput{}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Color != nil {
		in.Color = *req.Color
	}
	if req.Frequency != nil {
		in.Frequency = *req.Frequency
	}

	habit, warnings, err := s.tracker.CreateHabit(r.Context(), userFrom(r), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, habitResponse{Habit: habit, Warnings: warnings})
}

func (s *Server) updateHabit(w http.ResponseWriter, r *http.Request) {
	var req habitRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	patch := tracker.HabitPatch{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Frequency:   req.Frequency,
	}
	habit, warnings, err := s.tracker.UpdateHabit(r.Context(), userFrom(r), mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habitResponse{Habit: habit, Warnings: warnings})
}

func (s *Server) deleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeleteHabit(r.Context(), userFrom(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) restoreHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.RestoreHabit(r.Context(), userFrom(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setLog(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	vars := mux.Vars(r)
	log, err := s.tracker.SetStatus(r.Context(), vars["id"], userFrom(r), vars["date"], req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (s *Server) undoLog(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.tracker.Undo(r.Context(), vars["id"], userFrom(r), vars["date"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) habitStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.tracker.Recompute(r.Context(), mux.Vars(r)["id"], userFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) today(w http.ResponseWriter, r *http.Request) {
	views, err := s.views.Today(r.Context(), userFrom(r), r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}

	entries := make([]dayEntry, len(views))
	for i, v := range views {
		entries[i] = dayEntry{DailyHabitView: v, Status: v.Status()}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) analytics(w http.ResponseWriter, r *http.Request) {
	weeks, err := intParam(r, "weeks", constants.DefaultWeeksBack)
	if err != nil {
		writeError(w, err)
		return
	}
	months, err := intParam(r, "months", constants.DefaultMonthsBack)
	if err != nil {
		writeError(w, err)
		return
	}

	report, err := s.tracker.Stats().Report(r.Context(), userFrom(r), weeks, months)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) missedDays(w http.ResponseWriter, r *http.Request) {
	n, err := s.tracker.DetectMissedDays(r.Context(), userFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"marked": n})
}

// resetAll requires ?confirm=true since the deletion cannot be undone
func (s *Server) resetAll(w http.ResponseWriter, r *http.Request) {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); !ok {
		writeError(w, apperrors.Validation("confirm", "bulk reset deletes all data; pass confirm=true"))
		return
	}
	if err := s.tracker.ResetAll(r.Context(), userFrom(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 104 {
		return 0, apperrors.Validation(name, "must be a whole number between 1 and 104")
	}
	return n, nil
}
