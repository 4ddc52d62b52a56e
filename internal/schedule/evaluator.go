package schedule

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/truevault/tv-dvr/internal/data"
	"github.com/truevault/tv-dvr/internal/recorder"
)

// Recorder is the slice of the lifecycle controller the evaluators drive.
type Recorder interface {
	StartRecording(ctx context.Context, req recorder.StartRequest) (*recorder.StartResult, error)
	StopRecording(ctx context.Context, userID uuid.UUID, recordingID, cameraID *uuid.UUID) (*recorder.Summary, error)
	ActiveRecording(ctx context.Context, cameraID uuid.UUID) (*data.Recording, error)
}

// EvaluatorConfig defines evaluation cadence.
type EvaluatorConfig struct {
	Interval time.Duration
}

// Evaluator walks scheduled-mode cameras on a fixed tick and reconciles
// each one against its slots: inside a slot and Idle it starts, outside
// every slot with a scheduled open row it stops. Continuous-mode cameras
// are reconciled too, so an encoder that died restarts within one tick.
type Evaluator struct {
	config  EvaluatorConfig
	cameras CameraStore
	slots   SlotStore
	rec     Recorder

	quit chan struct{}
	wg   sync.WaitGroup
}

func NewEvaluator(cfg EvaluatorConfig, cameras CameraStore, slots SlotStore, rec Recorder) *Evaluator {
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}
	return &Evaluator{
		config:  cfg,
		cameras: cameras,
		slots:   slots,
		rec:     rec,
		quit:    make(chan struct{}),
	}
}

func (e *Evaluator) Start() {
	e.wg.Add(1)
	go e.run()
}

func (e *Evaluator) Stop() {
	close(e.quit)
	e.wg.Wait()
}

func (e *Evaluator) run() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.config.Interval)
	defer ticker.Stop()

	e.tick(time.Now())

	for {
		select {
		case <-ticker.C:
			e.tick(time.Now())
		case <-e.quit:
			return
		}
	}
}

func (e *Evaluator) tick(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	e.reconcileScheduled(ctx, now)
	e.reconcileContinuous(ctx)
}

func (e *Evaluator) reconcileScheduled(ctx context.Context, now time.Time) {
	cams, err := e.cameras.ListByMode(ctx, data.ModeScheduled)
	if err != nil {
		log.Printf("[SCHEDULE] list scheduled cameras: %v", err)
		return
	}

	for _, cam := range cams {
		if !cam.RecordingEnabled {
			continue
		}
		slots, err := e.slots.ListByCamera(ctx, cam.ID)
		if err != nil {
			log.Printf("[SCHEDULE] slots for camera %s: %v", cam.ID, err)
			continue
		}

		active, err := e.rec.ActiveRecording(ctx, cam.ID)
		if err != nil {
			log.Printf("[SCHEDULE] active lookup for camera %s: %v", cam.ID, err)
			continue
		}

		switch {
		case inAnySlot(slots, now) && active == nil:
			e.start(ctx, cam, data.ModeScheduled)
		case !inAnySlot(slots, now) && active != nil && active.RecordingMode == data.ModeScheduled:
			e.stop(ctx, cam)
		}
	}
}

// reconcileContinuous restarts continuous cameras whose encoder is gone.
func (e *Evaluator) reconcileContinuous(ctx context.Context) {
	cams, err := e.cameras.ListByMode(ctx, data.ModeContinuous)
	if err != nil {
		log.Printf("[SCHEDULE] list continuous cameras: %v", err)
		return
	}

	for _, cam := range cams {
		if !cam.RecordingEnabled {
			continue
		}
		active, err := e.rec.ActiveRecording(ctx, cam.ID)
		if err != nil || active != nil {
			continue
		}
		e.start(ctx, cam, data.ModeContinuous)
	}
}

func (e *Evaluator) start(ctx context.Context, cam *data.Camera, mode string) {
	_, err := e.rec.StartRecording(ctx, recorder.StartRequest{
		CameraID: cam.ID,
		UserID:   cam.UserID,
		Mode:     mode,
	})
	if err != nil && !errors.Is(err, recorder.ErrAlreadyRecording) {
		log.Printf("[SCHEDULE] start %s recording for camera %s: %v", mode, cam.ID, err)
	}
}

func (e *Evaluator) stop(ctx context.Context, cam *data.Camera) {
	_, err := e.rec.StopRecording(ctx, cam.UserID, nil, &cam.ID)
	if err != nil && !errors.Is(err, recorder.ErrNotRecording) {
		log.Printf("[SCHEDULE] stop recording for camera %s: %v", cam.ID, err)
	}
}
