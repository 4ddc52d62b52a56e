package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/truevault/tv-dvr/internal/data"
)

type MotionService interface {
	RecordMotion(ctx context.Context, cameraID, userID uuid.UUID, detectedAt time.Time, confidence int) (*data.MotionEvent, error)
	ListEvents(ctx context.Context, cameraID, userID uuid.UUID, limit, offset int) ([]*data.MotionEvent, error)
	MarkViewed(ctx context.Context, eventID, userID uuid.UUID) error
}

type MotionHandler struct {
	Service MotionService
}

func NewMotionHandler(svc MotionService) *MotionHandler {
	return &MotionHandler{Service: svc}
}

// POST /api/v1/cameras/{id}/motion
func (h *MotionHandler) Report(w http.ResponseWriter, r *http.Request) {
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
		DetectedAt *time.Time `json:"detected_at"`
		Confidence int        `json:"confidence"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	detectedAt := time.Now().UTC()
	if req.DetectedAt != nil {
		detectedAt = *req.DetectedAt
	}

	event, err := h.Service.RecordMotion(r.Context(), cameraID, userID, detectedAt, req.Confidence)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, event)
}

// GET /api/v1/cameras/{id}/motion/events
func (h *MotionHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}
	cameraID, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid camera id")
		return
	}

	limit := queryInt(r, "limit", 50, 200)
	offset := queryInt(r, "offset", 0, 0)

	events, err := h.Service.ListEvents(r.Context(), cameraID, userID, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if events == nil {
		events = []*data.MotionEvent{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"events": events})
}

// POST /api/v1/motion/events/{id}/viewed
func (h *MotionHandler) MarkViewed(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}
	eventID, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	if err := h.Service.MarkViewed(r.Context(), eventID, userID); err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "motion event not found")
			return
		}
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
