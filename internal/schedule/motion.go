package schedule

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/truevault/tv-dvr/internal/data"
	"github.com/truevault/tv-dvr/internal/events"
	"github.com/truevault/tv-dvr/internal/metrics"
	"github.com/truevault/tv-dvr/internal/recorder"
)

type MotionStore interface {
	Create(ctx context.Context, e *data.MotionEvent) error
	AttachRecording(ctx context.Context, eventID, recordingID uuid.UUID) error
	ListByCamera(ctx context.Context, cameraID uuid.UUID, limit, offset int) ([]*data.MotionEvent, error)
	MarkViewed(ctx context.Context, id, userID uuid.UUID) error
	MarkNotified(ctx context.Context, id uuid.UUID) error
}

// CorrelatorConfig tunes motion-triggered capture.
type CorrelatorConfig struct {
	Cooldown       time.Duration // min spacing between triggered recordings per camera
	RecordDuration time.Duration // length of each triggered clip
	CacheSize      int
}

// Correlator ingests detector reports. Every report is appended; a report
// for a motion-mode camera with capture enabled also triggers a bounded
// recording, rate-limited per camera by the cooldown cache.
type Correlator struct {
	config  CorrelatorConfig
	motion  MotionStore
	cameras CameraStore
	rec     Recorder
	bus     events.Publisher
	metrics *metrics.Collector

	recent *lru.Cache[uuid.UUID, time.Time]
}

func NewCorrelator(cfg CorrelatorConfig, motion MotionStore, cameras CameraStore, rec Recorder, bus events.Publisher, collector *metrics.Collector) *Correlator {
	if cfg.Cooldown == 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.RecordDuration == 0 {
		cfg.RecordDuration = 60 * time.Second
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = 1024
	}
	if bus == nil {
		bus = events.NoopPublisher{}
	}
	cache, _ := lru.New[uuid.UUID, time.Time](cfg.CacheSize)
	return &Correlator{
		config:  cfg,
		motion:  motion,
		cameras: cameras,
		rec:     rec,
		bus:     bus,
		metrics: collector,
		recent:  cache,
	}
}

// inCooldown reports and refreshes the camera's trigger window.
func (c *Correlator) inCooldown(cameraID uuid.UUID) bool {
	if last, ok := c.recent.Get(cameraID); ok {
		if time.Since(last) < c.config.Cooldown {
			return true
		}
	}
	c.recent.Add(cameraID, time.Now())
	return false
}

// RecordMotion appends a detector report and, when the camera is armed for
// motion capture, starts a bounded recording linked back to the event.
func (c *Correlator) RecordMotion(ctx context.Context, cameraID, userID uuid.UUID, detectedAt time.Time, confidence int) (*data.MotionEvent, error) {
	cam, err := c.cameras.GetOwned(ctx, cameraID, userID)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return nil, recorder.ErrCameraNotFound
		}
		return nil, err
	}

	if detectedAt.IsZero() {
		detectedAt = time.Now().UTC()
	}
	event := &data.MotionEvent{
		CameraID:   cam.ID,
		DetectedAt: detectedAt,
		Confidence: confidence,
	}
	if err := c.motion.Create(ctx, event); err != nil {
		return nil, err
	}
	c.metrics.MotionEvent()

	if cam.RecordingMode == data.ModeMotion && cam.RecordingEnabled && !c.inCooldown(cam.ID) {
		res, err := c.rec.StartRecording(ctx, recorder.StartRequest{
			CameraID:    cam.ID,
			UserID:      userID,
			Mode:        data.ModeMotion,
			MaxDuration: c.config.RecordDuration,
		})
		switch {
		case err == nil:
			event.RecordingID = &res.RecordingID
			if err := c.motion.AttachRecording(ctx, event.ID, res.RecordingID); err != nil {
				log.Printf("[MOTION] attach recording %s to event %s: %v", res.RecordingID, event.ID, err)
			}
		case errors.Is(err, recorder.ErrAlreadyRecording):
			// A capture is already running; the event stands on its own.
		default:
			log.Printf("[MOTION] triggered recording for camera %s: %v", cam.ID, err)
		}
	}

	if err := c.bus.Publish(events.SubjectMotion, events.Event{
		Type:        "motion.detected",
		CameraID:    cam.ID,
		RecordingID: event.RecordingID,
		UserID:      userID,
		OccurredAt:  detectedAt,
		Detail:      map[string]any{"confidence": confidence},
	}); err != nil {
		log.Printf("[MOTION] event publish failed: %v", err)
	}

	return event, nil
}

func (c *Correlator) ListEvents(ctx context.Context, cameraID, userID uuid.UUID, limit, offset int) ([]*data.MotionEvent, error) {
	if _, err := c.cameras.GetOwned(ctx, cameraID, userID); err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return nil, recorder.ErrCameraNotFound
		}
		return nil, err
	}
	return c.motion.ListByCamera(ctx, cameraID, limit, offset)
}

func (c *Correlator) MarkViewed(ctx context.Context, eventID, userID uuid.UUID) error {
	return c.motion.MarkViewed(ctx, eventID, userID)
}

func (c *Correlator) MarkNotified(ctx context.Context, eventID uuid.UUID) error {
	return c.motion.MarkNotified(ctx, eventID)
}
