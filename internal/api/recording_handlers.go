package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/truevault/tv-dvr/internal/data"
	"github.com/truevault/tv-dvr/internal/recorder"
	"github.com/truevault/tv-dvr/internal/shares"
)

// RecordingService is the slice of the lifecycle controller the HTTP
// surface drives.
type RecordingService interface {
	StartRecording(ctx context.Context, req recorder.StartRequest) (*recorder.StartResult, error)
	StopRecording(ctx context.Context, userID uuid.UUID, recordingID, cameraID *uuid.UUID) (*recorder.Summary, error)
	GetRecording(ctx context.Context, id, userID uuid.UUID) (*data.Recording, error)
	ListRecordings(ctx context.Context, userID uuid.UUID, filter data.RecordingFilter, limit, offset int) ([]*data.Recording, int, error)
	DeleteRecording(ctx context.Context, id, userID uuid.UUID) error
	ClipPath(r *data.Recording) string
}

type ShareIssuer interface {
	Issue(ctx context.Context, userID, recordingID uuid.UUID, ttl time.Duration) (*shares.Grant, error)
}

type RecordingHandler struct {
	Recorder RecordingService
	Shares   ShareIssuer
}

func NewRecordingHandler(rec RecordingService, sh ShareIssuer) *RecordingHandler {
	return &RecordingHandler{Recorder: rec, Shares: sh}
}

// POST /api/v1/cameras/{id}/recordings/start
func (h *RecordingHandler) Start(w http.ResponseWriter, r *http.Request) {
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
		Mode               string `json:"mode"`
		MaxDurationSeconds int    `json:"max_duration_seconds"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}
	if req.Mode == "" {
		req.Mode = data.ModeManual
	}
	if !data.ValidMode(req.Mode) {
		respondError(w, http.StatusBadRequest, "unknown recording mode")
		return
	}

	res, err := h.Recorder.StartRecording(r.Context(), recorder.StartRequest{
		CameraID:    cameraID,
		UserID:      userID,
		Mode:        req.Mode,
		MaxDuration: time.Duration(req.MaxDurationSeconds) * time.Second,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, res)
}

// POST /api/v1/cameras/{id}/recordings/stop
func (h *RecordingHandler) Stop(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}
	cameraID, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid camera id")
		return
	}

	summary, err := h.Recorder.StopRecording(r.Context(), userID, nil, &cameraID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// POST /api/v1/recordings/{id}/stop
func (h *RecordingHandler) StopByRecording(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}
	recordingID, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid recording id")
		return
	}

	summary, err := h.Recorder.StopRecording(r.Context(), userID, &recordingID, nil)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// GET /api/v1/recordings
func (h *RecordingHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}

	var filter data.RecordingFilter
	q := r.URL.Query()
	if v := q.Get("camera_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid camera_id filter")
			return
		}
		filter.CameraID = &id
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from timestamp")
			return
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to timestamp")
			return
		}
		filter.To = &t
	}
	if v := q.Get("mode"); v != "" {
		if !data.ValidMode(v) {
			respondError(w, http.StatusBadRequest, "unknown recording mode")
			return
		}
		filter.Mode = v
	}

	limit := queryInt(r, "limit", 50, 200)
	offset := queryInt(r, "offset", 0, 0)

	recs, total, err := h.Recorder.ListRecordings(r.Context(), userID, filter, limit, offset)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if recs == nil {
		recs = []*data.Recording{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"recordings": recs,
		"total":      total,
		"limit":      limit,
		"offset":     offset,
	})
}

// GET /api/v1/recordings/{id}
func (h *RecordingHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid recording id")
		return
	}

	rec, err := h.Recorder.GetRecording(r.Context(), id, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// DELETE /api/v1/recordings/{id}
func (h *RecordingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid recording id")
		return
	}

	if err := h.Recorder.DeleteRecording(r.Context(), id, userID); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/recordings/{id}/download
func (h *RecordingHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid recording id")
		return
	}

	rec, err := h.Recorder.GetRecording(r.Context(), id, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if rec.Active() {
		respondError(w, http.StatusConflict, "recording still in progress")
		return
	}

	serveClip(w, r, h.Recorder.ClipPath(rec), rec.Filename, rec.StartTime)
}

// POST /api/v1/recordings/{id}/share
func (h *RecordingHandler) Share(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid recording id")
		return
	}

	var req struct {
		TTLHours int `json:"ttl_hours"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	grant, err := h.Shares.Issue(r.Context(), userID, id, time.Duration(req.TTLHours)*time.Hour)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, grant)
}

// serveClip streams a clip with range support. http.ServeContent handles
// Range and If-Modified-Since from the file handle.
func serveClip(w http.ResponseWriter, r *http.Request, path, name string, modTime time.Time) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			respondError(w, http.StatusNotFound, "media file missing")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeContent(w, r, name, modTime, f)
}
