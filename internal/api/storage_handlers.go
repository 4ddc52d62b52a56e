package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/truevault/tv-dvr/internal/quota"
)

type StorageStats interface {
	Stats(ctx context.Context, userID uuid.UUID) (*quota.Stats, error)
}

type StorageHandler struct {
	Quota StorageStats
}

func NewStorageHandler(q StorageStats) *StorageHandler {
	return &StorageHandler{Quota: q}
}

// GET /api/v1/storage/stats
func (h *StorageHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := authUser(w, r)
	if !ok {
		return
	}

	stats, err := h.Quota.Stats(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
