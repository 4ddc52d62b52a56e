package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/truevault/tv-dvr/internal/data"
)

type CameraStore interface {
	Create(ctx context.Context, c *data.Camera) error
	GetOwned(ctx context.Context, id, userID uuid.UUID) (*data.Camera, error)
	Update(ctx context.Context, c *data.Camera) error
	SetMode(ctx context.Context, id, userID uuid.UUID, mode string) error
	SoftDelete(ctx context.Context, id, userID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*data.Camera, error)
}

// CameraPurger tears down a camera's recordings and shares ahead of the
// camera row's deletion.
type CameraPurger interface {
	PurgeCamera(ctx context.Context, cameraID, userID uuid.UUID) error
}

type CameraHandler struct {
	Cameras CameraStore
	Purger  CameraPurger
}

func NewCameraHandler(cameras CameraStore, purger CameraPurger) *CameraHandler {
	return &CameraHandler{Cameras: cameras, Purger: purger}
}

type cameraRequest struct {
	Name           string `json:"name"`
	Location       string `json:"location"`
	Host           string `json:"host"`
	RTSPPort       int    `json:"rtsp_port"`
	RTSPPath       string `json:"rtsp_path"`
	RTSPUsername   string `json:"rtsp_username"`
	RTSPPassword   string `json:"rtsp_password"`
	RTSPUrl        string `json:"rtsp_url"`
	SupportsAudio  bool   `json:"supports_audio"`
	SupportsPTZ    bool   `json:"supports_ptz"`
	SupportsTwoWay bool   `json:"supports_two_way"`
	RetentionDays  int    `json:"retention_days"`
	DisplayOrder   int    `json:"display_order"`
}

func (req *cameraRequest) apply(c *data.Camera) {
	c.Name = req.Name
	c.Location = req.Location
	c.Host = req.Host
	c.RTSPPort = req.RTSPPort
	c.RTSPPath = req.RTSPPath
	c.RTSPUsername = req.RTSPUsername
	c.RTSPPassword = req.RTSPPassword
	c.RTSPOverrideURL = req.RTSPUrl
	c.SupportsAudio = req.SupportsAudio
	c.SupportsPTZ = req.SupportsPTZ
	c.SupportsTwoWay = req.SupportsTwoWay
	c.RetentionDays = req.RetentionDays
	c.DisplayOrder = req.DisplayOrder
}

func (req *cameraRequest) validate() string {
	if req.Name == "" {
		return "name is required"
	}
	if req.Host == "" && req.RTSPUrl == "" {
		return "host or rtsp_url is required"
	}
	return ""
}

// POST /api/v1/cameras
func (h *CameraHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}

	var req cameraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	c := &data.Camera{
		UserID:        userID,
		RecordingMode: data.ModeManual,
	}
	req.apply(c)
	if c.RTSPPort == 0 {
		c.RTSPPort = 554
	}
	if c.RetentionDays == 0 {
		c.RetentionDays = 30
	}

	if err := h.Cameras.Create(r.Context(), c); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, c)
}

// GET /api/v1/cameras
func (h *CameraHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}

	cams, err := h.Cameras.List(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if cams == nil {
		cams = []*data.Camera{}
	}

	respondJSON(w, http.StatusOK, map[string]any{"cameras": cams})
}

// GET /api/v1/cameras/{id}
func (h *CameraHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid camera id")
		return
	}

	cam, err := h.Cameras.GetOwned(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "camera not found")
			return
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cam)
}

// PUT /api/v1/cameras/{id}
func (h *CameraHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid camera id")
		return
	}

	cam, err := h.Cameras.GetOwned(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "camera not found")
			return
		}
		respondServiceError(w, err)
		return
	}

	var req cameraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	req.apply(cam)
	if err := h.Cameras.Update(r.Context(), cam); err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "camera not found")
			return
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cam)
}

// PUT /api/v1/cameras/{id}/mode
func (h *CameraHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid camera id")
		return
	}

	var req struct {
		Mode string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if !data.ValidMode(req.Mode) {
		respondError(w, http.StatusBadRequest, "unknown recording mode")
		return
	}

	if err := h.Cameras.SetMode(r.Context(), id, userID, req.Mode); err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "camera not found")
			return
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"mode": req.Mode})
}

// DELETE /api/v1/cameras/{id}
func (h *CameraHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid camera id")
		return
	}

	if _, err := h.Cameras.GetOwned(r.Context(), id, userID); err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "camera not found")
			return
		}
		respondServiceError(w, err)
		return
	}

	// Recordings and shares go first so the camera never outlives a
	// capture nobody can reach anymore.
	if err := h.Purger.PurgeCamera(r.Context(), id, userID); err != nil {
		respondServiceError(w, err)
		return
	}

	if err := h.Cameras.SoftDelete(r.Context(), id, userID); err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "camera not found")
			return
		}
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
