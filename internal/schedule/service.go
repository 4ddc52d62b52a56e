package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/truevault/tv-dvr/internal/data"
)

var ErrInvalidSlot = errors.New("invalid schedule slot")

type SlotStore interface {
	Replace(ctx context.Context, cameraID uuid.UUID, slots []data.ScheduleSlot) error
	ListByCamera(ctx context.Context, cameraID uuid.UUID) ([]data.ScheduleSlot, error)
}

type CameraStore interface {
	GetOwned(ctx context.Context, id, userID uuid.UUID) (*data.Camera, error)
	ListByMode(ctx context.Context, mode string) ([]*data.Camera, error)
}

// Service owns schedule configuration. Saves are replace-all: the client
// sends the camera's full slot set every time.
type Service struct {
	slots   SlotStore
	cameras CameraStore
}

func NewService(slots SlotStore, cameras CameraStore) *Service {
	return &Service{slots: slots, cameras: cameras}
}

// SlotInput is one slot as submitted by the client.
type SlotInput struct {
	DayOfWeek int    `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func validateSlot(in SlotInput) error {
	if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
		return fmt.Errorf("%w: day %d out of range", ErrInvalidSlot, in.DayOfWeek)
	}
	start, err := parseClock(in.StartTime)
	if err != nil {
		return fmt.Errorf("%w: start_time %q", ErrInvalidSlot, in.StartTime)
	}
	end, err := parseClock(in.EndTime)
	if err != nil {
		return fmt.Errorf("%w: end_time %q", ErrInvalidSlot, in.EndTime)
	}
	if start >= end {
		return fmt.Errorf("%w: start_time must precede end_time", ErrInvalidSlot)
	}
	return nil
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Replace validates and swaps the camera's entire schedule. An empty slot
// list clears it.
func (s *Service) Replace(ctx context.Context, cameraID, userID uuid.UUID, inputs []SlotInput) ([]data.ScheduleSlot, error) {
	if _, err := s.cameras.GetOwned(ctx, cameraID, userID); err != nil {
		return nil, err
	}

	slots := make([]data.ScheduleSlot, 0, len(inputs))
	for _, in := range inputs {
		if err := validateSlot(in); err != nil {
			return nil, err
		}
		slots = append(slots, data.ScheduleSlot{
			CameraID:  cameraID,
			DayOfWeek: in.DayOfWeek,
			StartTime: in.StartTime,
			EndTime:   in.EndTime,
		})
	}

	if err := s.slots.Replace(ctx, cameraID, slots); err != nil {
		return nil, err
	}
	return s.slots.ListByCamera(ctx, cameraID)
}

func (s *Service) ListByCamera(ctx context.Context, cameraID, userID uuid.UUID) ([]data.ScheduleSlot, error) {
	if _, err := s.cameras.GetOwned(ctx, cameraID, userID); err != nil {
		return nil, err
	}
	return s.slots.ListByCamera(ctx, cameraID)
}

// inSlot reports whether the instant falls inside the slot. The end minute
// is exclusive so back-to-back slots do not overlap.
func inSlot(slot data.ScheduleSlot, at time.Time) bool {
	if int(at.Weekday()) != slot.DayOfWeek {
		return false
	}
	start, err := parseClock(slot.StartTime)
	if err != nil {
		return false
	}
	end, err := parseClock(slot.EndTime)
	if err != nil {
		return false
	}
	minute := at.Hour()*60 + at.Minute()
	return minute >= start && minute < end
}

// inAnySlot reports whether the instant falls inside any of the slots.
func inAnySlot(slots []data.ScheduleSlot, at time.Time) bool {
	for _, slot := range slots {
		if inSlot(slot, at) {
			return true
		}
	}
	return false
}
