package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/truevault/tv-dvr/internal/data"
	"github.com/truevault/tv-dvr/internal/schedule"
)

type ScheduleService interface {
	Replace(ctx context.Context, cameraID, userID uuid.UUID, inputs []schedule.SlotInput) ([]data.ScheduleSlot, error)
	ListByCamera(ctx context.Context, cameraID, userID uuid.UUID) ([]data.ScheduleSlot, error)
}

type ScheduleHandler struct {
	Service ScheduleService
}

func NewScheduleHandler(svc ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{Service: svc}
}

// PUT /api/v1/cameras/{id}/schedule
func (h *ScheduleHandler) Replace(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}
	cameraID, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid camera id")
		return
	}

	var req struct {
		Slots []schedule.SlotInput `json:"slots"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	slots, err := h.Service.Replace(r.Context(), cameraID, userID, req.Slots)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "camera not found")
			return
		}
		respondServiceError(w, err)
		return
	}
	if slots == nil {
		slots = []data.ScheduleSlot{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

// GET /api/v1/cameras/{id}/schedule
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}
	cameraID, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid camera id")
		return
	}

	slots, err := h.Service.ListByCamera(r.Context(), cameraID, userID)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "camera not found")
			return
		}
		respondServiceError(w, err)
		return
	}
	if slots == nil {
		slots = []data.ScheduleSlot{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"slots": slots})
}
