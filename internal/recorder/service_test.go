package recorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/truevault/tv-dvr/internal/data"
	"github.com/truevault/tv-dvr/internal/supervisor"
)

func newTestService(t *testing.T) (*Service, *MockCameraStore, *MockRecordingStore, *MockEncoder, *MockQuota) {
	t.Helper()
	cams := new(MockCameraStore)
	recs := new(MockRecordingStore)
	shares := new(MockShareStore)
	enc := new(MockEncoder)
	quota := new(MockQuota)
	svc := NewService(cams, recs, shares, enc, quota, nil, nil, t.TempDir(), t.TempDir())
	return svc, cams, recs, enc, quota
}

func TestStartRecording_Success(t *testing.T) {
	svc, cams, recs, enc, quota := newTestService(t)

	cameraID := uuid.New()
	userID := uuid.New()
	cam := &data.Camera{ID: cameraID, UserID: userID, Host: "10.0.0.5", RTSPPort: 554, RTSPPath: "/stream"}

	cams.On("GetOwned", mock.Anything, cameraID, userID).Return(cam, nil)
	quota.On("UsedBytes", mock.Anything, userID).Return(int64(0), nil)
	quota.On("MaxBytes").Return(int64(1 << 30))

	recID := uuid.New()
	recs.On("CreateOpen", mock.Anything, mock.MatchedBy(func(r *data.Recording) bool {
		return r.CameraID == cameraID && r.RecordingMode == data.ModeManual && r.Filename != ""
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*data.Recording).ID = recID
	}).Return(nil)

	enc.On("Spawn", mock.Anything, mock.MatchedBy(func(spec supervisor.SpawnSpec) bool {
		return spec.CameraID == cameraID && spec.RecordingID == recID
	})).Return(1234, nil)
	enc.On("CaptureThumbnail", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	res, err := svc.StartRecording(context.Background(), StartRequest{
		CameraID: cameraID,
		UserID:   userID,
		Mode:     data.ModeManual,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RecordingID != recID {
		t.Errorf("expected recording id %s, got %s", recID, res.RecordingID)
	}

	cams.AssertExpectations(t)
	recs.AssertExpectations(t)
	enc.AssertExpectations(t)
}

func TestStartRecording_QuotaExceeded(t *testing.T) {
	svc, cams, recs, _, quota := newTestService(t)

	cameraID := uuid.New()
	userID := uuid.New()
	cams.On("GetOwned", mock.Anything, cameraID, userID).Return(&data.Camera{ID: cameraID, UserID: userID}, nil)
	quota.On("UsedBytes", mock.Anything, userID).Return(int64(1<<30), nil)
	quota.On("MaxBytes").Return(int64(1 << 30))

	_, err := svc.StartRecording(context.Background(), StartRequest{CameraID: cameraID, UserID: userID})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	recs.AssertNotCalled(t, "CreateOpen", mock.Anything, mock.Anything)
}

func TestStartRecording_Conflict(t *testing.T) {
	svc, cams, recs, enc, quota := newTestService(t)

	cameraID := uuid.New()
	userID := uuid.New()
	cams.On("GetOwned", mock.Anything, cameraID, userID).Return(&data.Camera{ID: cameraID, UserID: userID}, nil)
	quota.On("UsedBytes", mock.Anything, userID).Return(int64(0), nil)
	quota.On("MaxBytes").Return(int64(1 << 30))
	recs.On("CreateOpen", mock.Anything, mock.Anything).Return(data.ErrActiveRecordingExists)

	_, err := svc.StartRecording(context.Background(), StartRequest{CameraID: cameraID, UserID: userID})
	if !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("expected ErrAlreadyRecording, got %v", err)
	}
	enc.AssertNotCalled(t, "Spawn", mock.Anything, mock.Anything)
}

func TestStartRecording_SpawnFailureRollsBack(t *testing.T) {
	svc, cams, recs, enc, quota := newTestService(t)

	cameraID := uuid.New()
	userID := uuid.New()
	cams.On("GetOwned", mock.Anything, cameraID, userID).Return(&data.Camera{ID: cameraID, UserID: userID}, nil)
	quota.On("UsedBytes", mock.Anything, userID).Return(int64(0), nil)
	quota.On("MaxBytes").Return(int64(1 << 30))

	recID := uuid.New()
	recs.On("CreateOpen", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*data.Recording).ID = recID
	}).Return(nil)
	enc.On("Spawn", mock.Anything, mock.Anything).Return(0, errors.New("ffmpeg not found"))
	recs.On("Delete", mock.Anything, recID).Return(nil)

	_, err := svc.StartRecording(context.Background(), StartRequest{CameraID: cameraID, UserID: userID})
	if !errors.Is(err, ErrProcessFailure) {
		t.Fatalf("expected ErrProcessFailure, got %v", err)
	}
	recs.AssertCalled(t, "Delete", mock.Anything, recID)
}

func TestStartRecording_UnknownCamera(t *testing.T) {
	svc, cams, _, _, _ := newTestService(t)

	cameraID := uuid.New()
	userID := uuid.New()
	cams.On("GetOwned", mock.Anything, cameraID, userID).Return(nil, data.ErrRecordNotFound)

	_, err := svc.StartRecording(context.Background(), StartRequest{CameraID: cameraID, UserID: userID})
	if !errors.Is(err, ErrCameraNotFound) {
		t.Fatalf("expected ErrCameraNotFound, got %v", err)
	}
}

func TestStopRecording_NotRecording(t *testing.T) {
	svc, _, recs, enc, _ := newTestService(t)

	userID := uuid.New()
	cameraID := uuid.New()
	recs.On("FindActiveOwned", mock.Anything, (*uuid.UUID)(nil), &cameraID, userID).
		Return(nil, data.ErrRecordNotFound)

	_, err := svc.StopRecording(context.Background(), userID, nil, &cameraID)
	if !errors.Is(err, ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording, got %v", err)
	}
	enc.AssertNotCalled(t, "Terminate", mock.Anything, mock.Anything)
}

func TestStopRecording_Finalizes(t *testing.T) {
	svc, _, recs, enc, _ := newTestService(t)

	userID := uuid.New()
	cameraID := uuid.New()
	rec := &data.Recording{
		ID:       uuid.New(),
		CameraID: cameraID,
		UserID:   userID,
		Filename: "clip.mp4",
	}

	recs.On("FindActiveOwned", mock.Anything, (*uuid.UUID)(nil), &cameraID, userID).Return(rec, nil)
	enc.On("Terminate", mock.Anything, cameraID).Return(nil)
	enc.On("ProbeDuration", mock.Anything, mock.Anything).Return(42, nil)
	recs.On("Finalize", mock.Anything, rec.ID, mock.Anything, int64(0), 42).Return(nil)

	summary, err := svc.StopRecording(context.Background(), userID, nil, &cameraID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.DurationSeconds != 42 {
		t.Errorf("expected duration 42, got %d", summary.DurationSeconds)
	}

	recs.AssertExpectations(t)
	enc.AssertExpectations(t)
}

func TestHandleProcessExit_IgnoresStaleRecording(t *testing.T) {
	svc, _, recs, enc, _ := newTestService(t)

	cameraID := uuid.New()
	current := &data.Recording{ID: uuid.New(), CameraID: cameraID}
	recs.On("FindActive", mock.Anything, cameraID).Return(current, nil)

	// Exit notification for an older recording must not touch the current one.
	svc.HandleProcessExit(cameraID, uuid.New())

	recs.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	enc.AssertNotCalled(t, "ProbeDuration", mock.Anything, mock.Anything)
}

func TestHandleProcessExit_FinalizesCurrent(t *testing.T) {
	svc, _, recs, enc, _ := newTestService(t)

	cameraID := uuid.New()
	rec := &data.Recording{ID: uuid.New(), CameraID: cameraID, Filename: "clip.mp4"}
	recs.On("FindActive", mock.Anything, cameraID).Return(rec, nil)
	enc.On("ProbeDuration", mock.Anything, mock.Anything).Return(10, nil)
	recs.On("Finalize", mock.Anything, rec.ID, mock.Anything, int64(0), 10).Return(nil)

	svc.HandleProcessExit(cameraID, rec.ID)

	recs.AssertExpectations(t)
}

func TestStopRecording_ReaperWonTheFinalize(t *testing.T) {
	svc, _, recs, enc, _ := newTestService(t)

	userID := uuid.New()
	cameraID := uuid.New()
	rec := &data.Recording{ID: uuid.New(), CameraID: cameraID, UserID: userID, Filename: "clip.mp4"}

	recs.On("FindActiveOwned", mock.Anything, (*uuid.UUID)(nil), &cameraID, userID).Return(rec, nil)
	enc.On("Terminate", mock.Anything, cameraID).Return(nil)
	enc.On("ProbeDuration", mock.Anything, mock.Anything).Return(0, nil)
	// The exit reaper closed the row between Terminate and our Finalize.
	recs.On("Finalize", mock.Anything, rec.ID, mock.Anything, int64(0), 0).
		Return(data.ErrRecordNotFound)

	end := time.Now().UTC()
	size := int64(4096)
	dur := 17
	recs.On("Get", mock.Anything, rec.ID).Return(&data.Recording{
		ID:              rec.ID,
		CameraID:        cameraID,
		UserID:          userID,
		Filename:        "clip.mp4",
		EndTime:         &end,
		FileSize:        &size,
		DurationSeconds: &dur,
	}, nil)

	summary, err := svc.StopRecording(context.Background(), userID, nil, &cameraID)
	if err != nil {
		t.Fatalf("expected success when the row is already closed, got %v", err)
	}
	if summary.FileSize != size || summary.DurationSeconds != dur {
		t.Errorf("expected closed row's summary, got %+v", summary)
	}

	recs.AssertExpectations(t)
}

func TestPurgeCamera_RemovesRecordingsAndShares(t *testing.T) {
	cams := new(MockCameraStore)
	recs := new(MockRecordingStore)
	shares := new(MockShareStore)
	enc := new(MockEncoder)
	quota := new(MockQuota)
	svc := NewService(cams, recs, shares, enc, quota, nil, nil, t.TempDir(), t.TempDir())

	userID := uuid.New()
	cameraID := uuid.New()
	recA := &data.Recording{ID: uuid.New(), CameraID: cameraID, UserID: userID, Filename: "a.mp4"}
	recB := &data.Recording{ID: uuid.New(), CameraID: cameraID, UserID: userID, Filename: "b.mp4"}

	enc.On("Terminate", mock.Anything, cameraID).Return(nil)
	recs.On("List", mock.Anything, userID, mock.MatchedBy(func(f data.RecordingFilter) bool {
		return f.CameraID != nil && *f.CameraID == cameraID
	}), mock.Anything, 0).Return([]*data.Recording{recA, recB}, 2, nil)

	shares.On("DeleteForRecording", mock.Anything, recA.ID).Return(nil)
	shares.On("DeleteForRecording", mock.Anything, recB.ID).Return(nil)
	recs.On("Delete", mock.Anything, recA.ID).Return(nil)
	recs.On("Delete", mock.Anything, recB.ID).Return(nil)

	if err := svc.PurgeCamera(context.Background(), cameraID, userID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	enc.AssertExpectations(t)
	recs.AssertExpectations(t)
	shares.AssertExpectations(t)
}
