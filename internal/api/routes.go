package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/truevault/tv-dvr/internal/metrics"
	mw "github.com/truevault/tv-dvr/internal/middleware"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Cameras    *CameraHandler
	Recordings *RecordingHandler
	Schedules  *ScheduleHandler
	Motion     *MotionHandler
	SharedClip *SharedClipHandler
	Storage    *StorageHandler
	EventsWS   *EventsWSHandler

	Auth      *mw.JWTAuth
	Collector *metrics.Collector
}

// NewRouter assembles the HTTP surface. Everything under /api/v1 requires
// a bearer token; /shared, /healthz, /metrics and /events/ws do not (the
// websocket authenticates via query param).
func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestLogger)
	r.Use(mw.CORS)
	if h.Collector != nil {
		r.Use(mw.HTTPMetrics(h.Collector))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.Collector != nil {
		r.Method(http.MethodGet, "/metrics", h.Collector.Handler())
	}

	r.Get("/shared/{token}", h.SharedClip.Stream)
	r.Get("/events/ws", h.EventsWS.ServeWS)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.Auth.Middleware)

		r.Route("/cameras", func(r chi.Router) {
			r.Post("/", h.Cameras.Create)
			r.Get("/", h.Cameras.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Cameras.Get)
				r.Put("/", h.Cameras.Update)
				r.Delete("/", h.Cameras.Delete)
				r.Put("/mode", h.Cameras.SetMode)

				r.Post("/recordings/start", h.Recordings.Start)
				r.Post("/recordings/stop", h.Recordings.Stop)

				r.Put("/schedule", h.Schedules.Replace)
				r.Get("/schedule", h.Schedules.List)

				r.Post("/motion", h.Motion.Report)
				r.Get("/motion/events", h.Motion.ListEvents)
			})
		})

		r.Route("/recordings", func(r chi.Router) {
			r.Get("/", h.Recordings.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Recordings.Get)
				r.Post("/stop", h.Recordings.StopByRecording)
				r.Delete("/", h.Recordings.Delete)
				r.Get("/download", h.Recordings.Download)
				r.Post("/share", h.Recordings.Share)
			})
		})

		r.Post("/motion/events/{id}/viewed", h.Motion.MarkViewed)
		r.Get("/storage/stats", h.Storage.Stats)
	})

	return r
}
