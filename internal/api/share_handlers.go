package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/truevault/tv-dvr/internal/data"
)

type ShareResolver interface {
	Resolve(ctx context.Context, token string) (*data.Recording, error)
}

type ClipLocator interface {
	ClipPath(r *data.Recording) string
}

// SharedClipHandler serves the unauthenticated share endpoint.
type SharedClipHandler struct {
	Shares ShareResolver
	Clips  ClipLocator
}

func NewSharedClipHandler(sh ShareResolver, clips ClipLocator) *SharedClipHandler {
	return &SharedClipHandler{Shares: sh, Clips: clips}
}

// GET /shared/{token}
func (h *SharedClipHandler) Stream(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if len(token) != 64 {
		respondError(w, http.StatusNotFound, "share not found")
		return
	}

	rec, err := h.Shares.Resolve(r.Context(), token)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	serveClip(w, r, h.Clips.ClipPath(rec), rec.Filename, rec.StartTime)
}
