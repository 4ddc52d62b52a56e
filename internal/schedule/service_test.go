package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/truevault/tv-dvr/internal/data"
	"github.com/truevault/tv-dvr/internal/recorder"
)

func TestValidateSlot(t *testing.T) {
	cases := []struct {
		name    string
		in      SlotInput
		wantErr bool
	}{
		{"valid", SlotInput{DayOfWeek: 1, StartTime: "08:00", EndTime: "17:00"}, false},
		{"midnight start", SlotInput{DayOfWeek: 0, StartTime: "00:00", EndTime: "23:59"}, false},
		{"day too high", SlotInput{DayOfWeek: 7, StartTime: "08:00", EndTime: "17:00"}, true},
		{"day negative", SlotInput{DayOfWeek: -1, StartTime: "08:00", EndTime: "17:00"}, true},
		{"bad start format", SlotInput{DayOfWeek: 1, StartTime: "8am", EndTime: "17:00"}, true},
		{"bad end format", SlotInput{DayOfWeek: 1, StartTime: "08:00", EndTime: "25:00"}, true},
		{"start equals end", SlotInput{DayOfWeek: 1, StartTime: "08:00", EndTime: "08:00"}, true},
		{"start after end", SlotInput{DayOfWeek: 1, StartTime: "18:00", EndTime: "08:00"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateSlot(tc.in)
			if tc.wantErr && !errors.Is(err, ErrInvalidSlot) {
				t.Errorf("expected ErrInvalidSlot, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestReplace_RejectsInvalidWithoutSaving(t *testing.T) {
	slots := new(MockSlotStore)
	cams := new(MockCameraStore)
	svc := NewService(slots, cams)

	cameraID := uuid.New()
	userID := uuid.New()
	cams.On("GetOwned", mock.Anything, cameraID, userID).Return(&data.Camera{ID: cameraID}, nil)

	_, err := svc.Replace(context.Background(), cameraID, userID, []SlotInput{
		{DayOfWeek: 9, StartTime: "08:00", EndTime: "17:00"},
	})
	if !errors.Is(err, ErrInvalidSlot) {
		t.Fatalf("expected ErrInvalidSlot, got %v", err)
	}
	slots.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
}

func TestReplace_EmptyClearsSchedule(t *testing.T) {
	slots := new(MockSlotStore)
	cams := new(MockCameraStore)
	svc := NewService(slots, cams)

	cameraID := uuid.New()
	userID := uuid.New()
	cams.On("GetOwned", mock.Anything, cameraID, userID).Return(&data.Camera{ID: cameraID}, nil)
	slots.On("Replace", mock.Anything, cameraID, []data.ScheduleSlot{}).Return(nil)
	slots.On("ListByCamera", mock.Anything, cameraID).Return([]data.ScheduleSlot{}, nil)

	got, err := svc.Replace(context.Background(), cameraID, userID, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty schedule, got %d slots", len(got))
	}
	slots.AssertExpectations(t)
}

func TestInSlot(t *testing.T) {
	slot := data.ScheduleSlot{DayOfWeek: 1, StartTime: "08:00", EndTime: "17:00"}

	// 2026-01-05 is a Monday.
	monday := func(h, m int) time.Time {
		return time.Date(2026, 1, 5, h, m, 0, 0, time.UTC)
	}

	if !inSlot(slot, monday(8, 0)) {
		t.Error("start minute should be inside")
	}
	if !inSlot(slot, monday(12, 30)) {
		t.Error("midday should be inside")
	}
	if inSlot(slot, monday(17, 0)) {
		t.Error("end minute is exclusive")
	}
	if inSlot(slot, monday(7, 59)) {
		t.Error("before start should be outside")
	}

	tuesday := time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC)
	if inSlot(slot, tuesday) {
		t.Error("wrong weekday should be outside")
	}
}

func TestEvaluatorTick_StartsInsideSlot(t *testing.T) {
	slots := new(MockSlotStore)
	cams := new(MockCameraStore)
	rec := new(MockRecorder)
	ev := NewEvaluator(EvaluatorConfig{}, cams, slots, rec)

	cam := &data.Camera{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		RecordingMode:    data.ModeScheduled,
		RecordingEnabled: true,
	}
	cams.On("ListByMode", mock.Anything, data.ModeScheduled).Return([]*data.Camera{cam}, nil)
	cams.On("ListByMode", mock.Anything, data.ModeContinuous).Return([]*data.Camera{}, nil)
	slots.On("ListByCamera", mock.Anything, cam.ID).Return([]data.ScheduleSlot{
		{DayOfWeek: 1, StartTime: "08:00", EndTime: "17:00"},
	}, nil)
	rec.On("ActiveRecording", mock.Anything, cam.ID).Return(nil, nil)
	rec.On("StartRecording", mock.Anything, mock.MatchedBy(func(req recorder.StartRequest) bool {
		return req.CameraID == cam.ID && req.Mode == data.ModeScheduled
	})).Return(&recorder.StartResult{RecordingID: uuid.New()}, nil)

	ev.tick(time.Date(2026, 1, 5, 9, 0, 0, 0, time.Local)) // Monday 09:00

	rec.AssertExpectations(t)
}

func TestEvaluatorTick_StopsOutsideSlots(t *testing.T) {
	slots := new(MockSlotStore)
	cams := new(MockCameraStore)
	rec := new(MockRecorder)
	ev := NewEvaluator(EvaluatorConfig{}, cams, slots, rec)

	cam := &data.Camera{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		RecordingMode:    data.ModeScheduled,
		RecordingEnabled: true,
	}
	active := &data.Recording{ID: uuid.New(), CameraID: cam.ID, RecordingMode: data.ModeScheduled}

	cams.On("ListByMode", mock.Anything, data.ModeScheduled).Return([]*data.Camera{cam}, nil)
	cams.On("ListByMode", mock.Anything, data.ModeContinuous).Return([]*data.Camera{}, nil)
	slots.On("ListByCamera", mock.Anything, cam.ID).Return([]data.ScheduleSlot{
		{DayOfWeek: 1, StartTime: "08:00", EndTime: "17:00"},
	}, nil)
	rec.On("ActiveRecording", mock.Anything, cam.ID).Return(active, nil)
	rec.On("StopRecording", mock.Anything, cam.UserID, (*uuid.UUID)(nil), &cam.ID).
		Return(&recorder.Summary{RecordingID: active.ID}, nil)

	ev.tick(time.Date(2026, 1, 5, 20, 0, 0, 0, time.Local)) // Monday 20:00

	rec.AssertExpectations(t)
}
