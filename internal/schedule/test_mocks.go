package schedule

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/truevault/tv-dvr/internal/data"
	"github.com/truevault/tv-dvr/internal/recorder"
)

// MockSlotStore
type MockSlotStore struct {
	mock.Mock
}

func (m *MockSlotStore) Replace(ctx context.Context, cameraID uuid.UUID, slots []data.ScheduleSlot) error {
	args := m.Called(ctx, cameraID, slots)
	return args.Error(0)
}

func (m *MockSlotStore) ListByCamera(ctx context.Context, cameraID uuid.UUID) ([]data.ScheduleSlot, error) {
	args := m.Called(ctx, cameraID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]data.ScheduleSlot), args.Error(1)
}

// MockCameraStore
type MockCameraStore struct {
	mock.Mock
}

func (m *MockCameraStore) GetOwned(ctx context.Context, id, userID uuid.UUID) (*data.Camera, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*data.Camera), args.Error(1)
}

func (m *MockCameraStore) ListByMode(ctx context.Context, mode string) ([]*data.Camera, error) {
	args := m.Called(ctx, mode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*data.Camera), args.Error(1)
}

// MockRecorder
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) StartRecording(ctx context.Context, req recorder.StartRequest) (*recorder.StartResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recorder.StartResult), args.Error(1)
}

func (m *MockRecorder) StopRecording(ctx context.Context, userID uuid.UUID, recordingID, cameraID *uuid.UUID) (*recorder.Summary, error) {
	args := m.Called(ctx, userID, recordingID, cameraID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*recorder.Summary), args.Error(1)
}

func (m *MockRecorder) ActiveRecording(ctx context.Context, cameraID uuid.UUID) (*data.Recording, error) {
	args := m.Called(ctx, cameraID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*data.Recording), args.Error(1)
}

// MockMotionStore
type MockMotionStore struct {
	mock.Mock
}

func (m *MockMotionStore) Create(ctx context.Context, e *data.MotionEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockMotionStore) AttachRecording(ctx context.Context, eventID, recordingID uuid.UUID) error {
	args := m.Called(ctx, eventID, recordingID)
	return args.Error(0)
}

func (m *MockMotionStore) ListByCamera(ctx context.Context, cameraID uuid.UUID, limit, offset int) ([]*data.MotionEvent, error) {
	args := m.Called(ctx, cameraID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*data.MotionEvent), args.Error(1)
}

func (m *MockMotionStore) MarkViewed(ctx context.Context, id, userID uuid.UUID) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *MockMotionStore) MarkNotified(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
