package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/truevault/tv-dvr/internal/middleware"
	"github.com/truevault/tv-dvr/internal/recorder"
	"github.com/truevault/tv-dvr/internal/schedule"
	"github.com/truevault/tv-dvr/internal/shares"
)

// Helpers
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func authUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	ac, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		respondError(w, http.StatusForbidden, "Forbidden")
		return uuid.Nil, false
	}
	return ac.UserID, true
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

func queryInt(r *http.Request, name string, def, max int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}

// respondServiceError maps domain errors onto the HTTP envelope. Process
// failures stay generic on the wire; the services already logged the cause.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, recorder.ErrCameraNotFound),
		errors.Is(err, recorder.ErrRecordingNotFound),
		errors.Is(err, shares.ErrShareNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, recorder.ErrAlreadyRecording):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, recorder.ErrNotRecording):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, recorder.ErrQuotaExceeded):
		respondError(w, http.StatusInsufficientStorage, err.Error())
	case errors.Is(err, shares.ErrShareExpired):
		respondError(w, http.StatusGone, err.Error())
	case errors.Is(err, recorder.ErrProcessFailure):
		respondError(w, http.StatusBadGateway, "recording backend unavailable")
	case errors.Is(err, schedule.ErrInvalidSlot):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
