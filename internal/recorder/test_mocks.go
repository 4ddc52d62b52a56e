package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/truevault/tv-dvr/internal/data"
	"github.com/truevault/tv-dvr/internal/supervisor"
)

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

// MockRecordingStore
type MockRecordingStore struct {
	mock.Mock
}

func (m *MockRecordingStore) CreateOpen(ctx context.Context, r *data.Recording) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRecordingStore) Get(ctx context.Context, id uuid.UUID) (*data.Recording, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*data.Recording), args.Error(1)
}

func (m *MockRecordingStore) GetOwned(ctx context.Context, id, userID uuid.UUID) (*data.Recording, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*data.Recording), args.Error(1)
}

func (m *MockRecordingStore) FindActive(ctx context.Context, cameraID uuid.UUID) (*data.Recording, error) {
	args := m.Called(ctx, cameraID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*data.Recording), args.Error(1)
}

func (m *MockRecordingStore) FindActiveOwned(ctx context.Context, recordingID, cameraID *uuid.UUID, userID uuid.UUID) (*data.Recording, error) {
	args := m.Called(ctx, recordingID, cameraID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*data.Recording), args.Error(1)
}

func (m *MockRecordingStore) Finalize(ctx context.Context, id uuid.UUID, endTime time.Time, fileSize int64, durationSeconds int) error {
	args := m.Called(ctx, id, endTime, fileSize, durationSeconds)
	return args.Error(0)
}

func (m *MockRecordingStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRecordingStore) List(ctx context.Context, userID uuid.UUID, filter data.RecordingFilter, limit, offset int) ([]*data.Recording, int, error) {
	args := m.Called(ctx, userID, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*data.Recording), args.Int(1), args.Error(2)
}

// MockShareStore
type MockShareStore struct {
	mock.Mock
}

func (m *MockShareStore) DeleteForRecording(ctx context.Context, recordingID uuid.UUID) error {
	args := m.Called(ctx, recordingID)
	return args.Error(0)
}

// MockEncoder
type MockEncoder struct {
	mock.Mock
}

func (m *MockEncoder) Spawn(ctx context.Context, spec supervisor.SpawnSpec) (int, error) {
	args := m.Called(ctx, spec)
	return args.Int(0), args.Error(1)
}

func (m *MockEncoder) Terminate(ctx context.Context, cameraID uuid.UUID) error {
	args := m.Called(ctx, cameraID)
	return args.Error(0)
}

func (m *MockEncoder) ProbeDuration(ctx context.Context, path string) (int, error) {
	args := m.Called(ctx, path)
	return args.Int(0), args.Error(1)
}

func (m *MockEncoder) CaptureThumbnail(ctx context.Context, rtspURL, thumbPath string) error {
	args := m.Called(ctx, rtspURL, thumbPath)
	return args.Error(0)
}

// MockQuota
type MockQuota struct {
	mock.Mock
}

func (m *MockQuota) UsedBytes(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuota) MaxBytes() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}
