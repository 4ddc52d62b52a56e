package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/truevault/tv-dvr/internal/data"
	"github.com/truevault/tv-dvr/internal/recorder"
)

func newTestCorrelator(cfg CorrelatorConfig) (*Correlator, *MockMotionStore, *MockCameraStore, *MockRecorder) {
	motion := new(MockMotionStore)
	cams := new(MockCameraStore)
	rec := new(MockRecorder)
	return NewCorrelator(cfg, motion, cams, rec, nil, nil), motion, cams, rec
}

func TestRecordMotion_TriggersRecording(t *testing.T) {
	c, motion, cams, rec := newTestCorrelator(CorrelatorConfig{})

	userID := uuid.New()
	cam := &data.Camera{
		ID:               uuid.New(),
		UserID:           userID,
		RecordingMode:    data.ModeMotion,
		RecordingEnabled: true,
	}
	cams.On("GetOwned", mock.Anything, cam.ID, userID).Return(cam, nil)

	eventID := uuid.New()
	motion.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*data.MotionEvent).ID = eventID
	}).Return(nil)

	recID := uuid.New()
	rec.On("StartRecording", mock.Anything, mock.MatchedBy(func(req recorder.StartRequest) bool {
		return req.CameraID == cam.ID && req.Mode == data.ModeMotion && req.MaxDuration == 60*time.Second
	})).Return(&recorder.StartResult{RecordingID: recID}, nil)
	motion.On("AttachRecording", mock.Anything, eventID, recID).Return(nil)

	event, err := c.RecordMotion(context.Background(), cam.ID, userID, time.Now(), 87)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.RecordingID == nil || *event.RecordingID != recID {
		t.Errorf("expected event linked to recording %s", recID)
	}

	motion.AssertExpectations(t)
	rec.AssertExpectations(t)
}

func TestRecordMotion_CooldownSuppressesSecondTrigger(t *testing.T) {
	c, motion, cams, rec := newTestCorrelator(CorrelatorConfig{Cooldown: time.Minute})

	userID := uuid.New()
	cam := &data.Camera{
		ID:               uuid.New(),
		UserID:           userID,
		RecordingMode:    data.ModeMotion,
		RecordingEnabled: true,
	}
	cams.On("GetOwned", mock.Anything, cam.ID, userID).Return(cam, nil)
	motion.On("Create", mock.Anything, mock.Anything).Return(nil)
	motion.On("AttachRecording", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	rec.On("StartRecording", mock.Anything, mock.Anything).
		Return(&recorder.StartResult{RecordingID: uuid.New()}, nil).Once()

	for i := 0; i < 3; i++ {
		if _, err := c.RecordMotion(context.Background(), cam.ID, userID, time.Now(), 50); err != nil {
			t.Fatalf("report %d: %v", i, err)
		}
	}

	// Only the first report starts a recording; the rest land inside the
	// cooldown window but are still persisted.
	rec.AssertNumberOfCalls(t, "StartRecording", 1)
	motion.AssertNumberOfCalls(t, "Create", 3)
}

func TestRecordMotion_ManualModeNeverTriggers(t *testing.T) {
	c, motion, cams, rec := newTestCorrelator(CorrelatorConfig{})

	userID := uuid.New()
	cam := &data.Camera{ID: uuid.New(), UserID: userID, RecordingMode: data.ModeManual}
	cams.On("GetOwned", mock.Anything, cam.ID, userID).Return(cam, nil)
	motion.On("Create", mock.Anything, mock.Anything).Return(nil)

	if _, err := c.RecordMotion(context.Background(), cam.ID, userID, time.Now(), 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec.AssertNotCalled(t, "StartRecording", mock.Anything, mock.Anything)
}

func TestRecordMotion_ConflictKeepsEvent(t *testing.T) {
	c, motion, cams, rec := newTestCorrelator(CorrelatorConfig{})

	userID := uuid.New()
	cam := &data.Camera{
		ID:               uuid.New(),
		UserID:           userID,
		RecordingMode:    data.ModeMotion,
		RecordingEnabled: true,
	}
	cams.On("GetOwned", mock.Anything, cam.ID, userID).Return(cam, nil)
	motion.On("Create", mock.Anything, mock.Anything).Return(nil)
	rec.On("StartRecording", mock.Anything, mock.Anything).Return(nil, recorder.ErrAlreadyRecording)

	event, err := c.RecordMotion(context.Background(), cam.ID, userID, time.Now(), 95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.RecordingID != nil {
		t.Error("expected no recording link on conflict")
	}
	motion.AssertNotCalled(t, "AttachRecording", mock.Anything, mock.Anything, mock.Anything)
}
