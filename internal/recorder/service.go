package recorder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/truevault/tv-dvr/internal/data"
	"github.com/truevault/tv-dvr/internal/events"
	"github.com/truevault/tv-dvr/internal/metrics"
	"github.com/truevault/tv-dvr/internal/supervisor"
)

type CameraStore interface {
	GetOwned(ctx context.Context, id, userID uuid.UUID) (*data.Camera, error)
}

type RecordingStore interface {
	CreateOpen(ctx context.Context, r *data.Recording) error
	Get(ctx context.Context, id uuid.UUID) (*data.Recording, error)
	GetOwned(ctx context.Context, id, userID uuid.UUID) (*data.Recording, error)
	FindActive(ctx context.Context, cameraID uuid.UUID) (*data.Recording, error)
	FindActiveOwned(ctx context.Context, recordingID, cameraID *uuid.UUID, userID uuid.UUID) (*data.Recording, error)
	Finalize(ctx context.Context, id uuid.UUID, endTime time.Time, fileSize int64, durationSeconds int) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID, filter data.RecordingFilter, limit, offset int) ([]*data.Recording, int, error)
}

type ShareStore interface {
	DeleteForRecording(ctx context.Context, recordingID uuid.UUID) error
}

// Encoder is the slice of the process supervisor the controller needs.
type Encoder interface {
	Spawn(ctx context.Context, spec supervisor.SpawnSpec) (int, error)
	Terminate(ctx context.Context, cameraID uuid.UUID) error
	ProbeDuration(ctx context.Context, path string) (int, error)
	CaptureThumbnail(ctx context.Context, rtspURL, thumbPath string) error
}

// Quota gates new recordings on the user's completed-byte usage.
type Quota interface {
	UsedBytes(ctx context.Context, userID uuid.UUID) (int64, error)
	MaxBytes() int64
}

// StartRequest carries one start-recording intent, whatever its trigger.
type StartRequest struct {
	CameraID    uuid.UUID
	UserID      uuid.UUID
	Mode        string
	MaxDuration time.Duration
}

type StartResult struct {
	RecordingID uuid.UUID `json:"recording_id"`
	Filename    string    `json:"filename"`
}

type Summary struct {
	RecordingID     uuid.UUID `json:"recording_id"`
	Filename        string    `json:"filename"`
	FileSize        int64     `json:"file_size"`
	DurationSeconds int       `json:"duration_seconds"`
}

// Service is the recording lifecycle controller: Idle -> Active ->
// Completed, where Active is "an open row exists" and Completed is
// terminal. The store's partial unique index arbitrates concurrent Starts.
type Service struct {
	cameras CameraStore
	recs    RecordingStore
	shares  ShareStore
	enc     Encoder
	quota   Quota
	bus     events.Publisher
	metrics *metrics.Collector

	clipsDir  string
	thumbsDir string
}

func NewService(cameras CameraStore, recs RecordingStore, shares ShareStore, enc Encoder, quota Quota, bus events.Publisher, collector *metrics.Collector, clipsDir, thumbsDir string) *Service {
	if bus == nil {
		bus = events.NoopPublisher{}
	}
	return &Service{
		cameras:   cameras,
		recs:      recs,
		shares:    shares,
		enc:       enc,
		quota:     quota,
		bus:       bus,
		metrics:   collector,
		clipsDir:  clipsDir,
		thumbsDir: thumbsDir,
	}
}

// clipName derives the deterministic clip filename for a session.
func clipName(cameraID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("%s_%s.mp4", cameraID, at.Format("2006-01-02_15-04-05"))
}

func thumbName(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg"
}

// ClipPath resolves a recording's media file on disk.
func (s *Service) ClipPath(r *data.Recording) string {
	return filepath.Join(s.clipsDir, r.Filename)
}

func (s *Service) thumbPath(r *data.Recording) string {
	if r.Thumbnail == "" {
		return ""
	}
	return filepath.Join(s.thumbsDir, r.Thumbnail)
}

// StartRecording validates ownership and quota, creates the open row, and
// spawns the encoder. The row insert is the race gate: if two Starts race,
// the store admits exactly one. A failed spawn rolls the row back so no
// Active row ever exists without a live process.
func (s *Service) StartRecording(ctx context.Context, req StartRequest) (*StartResult, error) {
	if !data.ValidMode(req.Mode) {
		req.Mode = data.ModeManual
	}

	cam, err := s.cameras.GetOwned(ctx, req.CameraID, req.UserID)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return nil, ErrCameraNotFound
		}
		return nil, err
	}

	used, err := s.quota.UsedBytes(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if used >= s.quota.MaxBytes() {
		s.metrics.QuotaDenied()
		return nil, ErrQuotaExceeded
	}

	now := time.Now().UTC()
	rec := &data.Recording{
		CameraID:      cam.ID,
		UserID:        req.UserID,
		Filename:      clipName(cam.ID, now),
		RecordingMode: req.Mode,
		StartTime:     now,
	}
	rec.Thumbnail = thumbName(rec.Filename)

	if err := s.recs.CreateOpen(ctx, rec); err != nil {
		if errors.Is(err, data.ErrActiveRecordingExists) {
			s.metrics.ConflictDenied()
			return nil, ErrAlreadyRecording
		}
		return nil, err
	}

	rtspURL := cam.RTSPURL()
	_, err = s.enc.Spawn(ctx, supervisor.SpawnSpec{
		CameraID:    cam.ID,
		RecordingID: rec.ID,
		RTSPURL:     rtspURL,
		OutputPath:  s.ClipPath(rec),
		MaxDuration: req.MaxDuration,
	})
	if err != nil {
		// Roll back: an Active row without a live encoder is a ghost.
		if delErr := s.recs.Delete(ctx, rec.ID); delErr != nil {
			log.Printf("[RECORDER] rollback of recording %s failed: %v", rec.ID, delErr)
		}
		s.metrics.SpawnFailed()
		log.Printf("[RECORDER] encoder spawn failed for camera %s: %v", cam.ID, err)
		return nil, ErrProcessFailure
	}

	go func() {
		thumbCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.enc.CaptureThumbnail(thumbCtx, rtspURL, filepath.Join(s.thumbsDir, rec.Thumbnail)); err != nil {
			log.Printf("[RECORDER] thumbnail capture failed for recording %s: %v", rec.ID, err)
		}
	}()

	s.metrics.RecordingStarted(req.Mode)
	s.publish(events.SubjectRecording, "recording.started", cam.ID, &rec.ID, req.UserID, nil)

	return &StartResult{RecordingID: rec.ID, Filename: rec.Filename}, nil
}

// StopRecording terminates the encoder and finalizes the open row exactly
// once. One of recordingID/cameraID must be set. A camera with no open row
// yields ErrNotRecording, which makes repeated Stops safe.
func (s *Service) StopRecording(ctx context.Context, userID uuid.UUID, recordingID, cameraID *uuid.UUID) (*Summary, error) {
	if recordingID == nil && cameraID == nil {
		return nil, ErrNotRecording
	}

	rec, err := s.recs.FindActiveOwned(ctx, recordingID, cameraID, userID)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return nil, ErrNotRecording
		}
		return nil, err
	}

	if err := s.enc.Terminate(ctx, rec.CameraID); err != nil {
		// The encoder may already be gone; finalize regardless so the row
		// does not stay open forever.
		log.Printf("[RECORDER] terminate failed for camera %s: %v", rec.CameraID, err)
	}

	summary, err := s.finalize(ctx, rec)
	if errors.Is(err, ErrNotRecording) {
		// The reaper can observe the encoder's exit and finalize the row
		// before we do. The stop still succeeded; report the closed row.
		if done, getErr := s.recs.Get(ctx, rec.ID); getErr == nil && !done.Active() {
			return summaryOf(done), nil
		}
	}
	return summary, err
}

func summaryOf(rec *data.Recording) *Summary {
	s := &Summary{RecordingID: rec.ID, Filename: rec.Filename}
	if rec.FileSize != nil {
		s.FileSize = *rec.FileSize
	}
	if rec.DurationSeconds != nil {
		s.DurationSeconds = *rec.DurationSeconds
	}
	return s
}

// HandleProcessExit reconciles a recording whose encoder exited on its own
// (maxDuration elapsed, stream dropped). Invoked by the supervisor's reaper.
func (s *Service) HandleProcessExit(cameraID, recordingID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rec, err := s.recs.FindActive(ctx, cameraID)
	if err != nil {
		if !errors.Is(err, data.ErrRecordNotFound) {
			log.Printf("[RECORDER] exit reconciliation lookup failed for camera %s: %v", cameraID, err)
		}
		return
	}
	if rec.ID != recordingID {
		return
	}
	if _, err := s.finalize(ctx, rec); err != nil && !errors.Is(err, ErrNotRecording) {
		log.Printf("[RECORDER] exit reconciliation failed for recording %s: %v", rec.ID, err)
	}
}

func (s *Service) finalize(ctx context.Context, rec *data.Recording) (*Summary, error) {
	clipPath := s.ClipPath(rec)

	var size int64
	if fi, err := os.Stat(clipPath); err == nil {
		size = fi.Size()
	}

	duration, err := s.enc.ProbeDuration(ctx, clipPath)
	if err != nil {
		log.Printf("[RECORDER] duration probe failed for %s: %v", rec.Filename, err)
	}

	now := time.Now().UTC()
	if err := s.recs.Finalize(ctx, rec.ID, now, size, duration); err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return nil, ErrNotRecording
		}
		return nil, err
	}

	s.metrics.RecordingStopped(size)
	s.publish(events.SubjectRecording, "recording.stopped", rec.CameraID, &rec.ID, rec.UserID, map[string]any{
		"file_size":        size,
		"duration_seconds": duration,
	})

	return &Summary{
		RecordingID:     rec.ID,
		Filename:        rec.Filename,
		FileSize:        size,
		DurationSeconds: duration,
	}, nil
}

// ActiveRecording reports the camera's open recording, if any.
func (s *Service) ActiveRecording(ctx context.Context, cameraID uuid.UUID) (*data.Recording, error) {
	rec, err := s.recs.FindActive(ctx, cameraID)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func (s *Service) GetRecording(ctx context.Context, id, userID uuid.UUID) (*data.Recording, error) {
	rec, err := s.recs.GetOwned(ctx, id, userID)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return nil, ErrRecordingNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *Service) ListRecordings(ctx context.Context, userID uuid.UUID, filter data.RecordingFilter, limit, offset int) ([]*data.Recording, int, error) {
	return s.recs.List(ctx, userID, filter, limit, offset)
}

// DeleteRecording removes the row, its media and thumbnail, and any share
// tokens. An active recording is stopped first.
func (s *Service) DeleteRecording(ctx context.Context, id, userID uuid.UUID) error {
	rec, err := s.recs.GetOwned(ctx, id, userID)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return ErrRecordingNotFound
		}
		return err
	}

	if rec.Active() {
		if err := s.enc.Terminate(ctx, rec.CameraID); err != nil {
			log.Printf("[RECORDER] terminate before delete failed for camera %s: %v", rec.CameraID, err)
		}
	}

	removeIfExists(s.ClipPath(rec))
	if p := s.thumbPath(rec); p != "" {
		removeIfExists(p)
	}

	if err := s.shares.DeleteForRecording(ctx, rec.ID); err != nil {
		return err
	}
	if err := s.recs.Delete(ctx, rec.ID); err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return ErrRecordingNotFound
		}
		return err
	}

	s.publish(events.SubjectRecording, "recording.deleted", rec.CameraID, &rec.ID, userID, nil)
	return nil
}

// PurgeCamera tears down everything a camera owns before the camera row
// itself is removed: any in-flight capture is terminated, and every
// recording with its media, thumbnail, and share tokens is deleted.
func (s *Service) PurgeCamera(ctx context.Context, cameraID, userID uuid.UUID) error {
	if err := s.enc.Terminate(ctx, cameraID); err != nil {
		log.Printf("[RECORDER] terminate during purge failed for camera %s: %v", cameraID, err)
	}

	const batch = 200
	filter := data.RecordingFilter{CameraID: &cameraID}
	for {
		recs, _, err := s.recs.List(ctx, userID, filter, batch, 0)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			break
		}
		for _, rec := range recs {
			removeIfExists(s.ClipPath(rec))
			if p := s.thumbPath(rec); p != "" {
				removeIfExists(p)
			}
			if err := s.shares.DeleteForRecording(ctx, rec.ID); err != nil {
				return err
			}
			if err := s.recs.Delete(ctx, rec.ID); err != nil && !errors.Is(err, data.ErrRecordNotFound) {
				return err
			}
		}
		if len(recs) < batch {
			break
		}
	}

	s.publish(events.SubjectRecording, "camera.purged", cameraID, nil, userID, nil)
	return nil
}

func (s *Service) publish(subject, eventType string, cameraID uuid.UUID, recordingID *uuid.UUID, userID uuid.UUID, detail any) {
	err := s.bus.Publish(subject, events.Event{
		Type:        eventType,
		CameraID:    cameraID,
		RecordingID: recordingID,
		UserID:      userID,
		OccurredAt:  time.Now().UTC(),
		Detail:      detail,
	})
	if err != nil {
		log.Printf("[RECORDER] event publish failed (%s): %v", eventType, err)
	}
}

func removeIfExists(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("[RECORDER] remove %s: %v", path, err)
	}
}
