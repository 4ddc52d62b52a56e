package data

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MotionEvent is an append-only fact reported by an external detector.
// Only the viewed/notified flags are ever mutated.
type MotionEvent struct {
	ID          uuid.UUID  `json:"id"`
	CameraID    uuid.UUID  `json:"camera_id"`
	RecordingID *uuid.UUID `json:"recording_id,omitempty"`
	DetectedAt  time.Time  `json:"detected_at"`
	Confidence  int        `json:"confidence"`
	Viewed      bool       `json:"viewed"`
	Notified    bool       `json:"notified"`
	CreatedAt   time.Time  `json:"created_at"`
}

type MotionModel struct {
	DB DBTX
}

func (m MotionModel) Create(ctx context.Context, e *MotionEvent) error {
	query := `
		INSERT INTO motion_events (camera_id, detected_at, confidence)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	return m.DB.QueryRowContext(ctx, query, e.CameraID, e.DetectedAt, e.Confidence).
		Scan(&e.ID, &e.CreatedAt)
}

// AttachRecording links a detector-triggered recording back onto its event.
func (m MotionModel) AttachRecording(ctx context.Context, eventID, recordingID uuid.UUID) error {
	query := `UPDATE motion_events SET recording_id = $1 WHERE id = $2`
	res, err := m.DB.ExecContext(ctx, query, recordingID, eventID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (m MotionModel) ListByCamera(ctx context.Context, cameraID uuid.UUID, limit, offset int) ([]*MotionEvent, error) {
	query := `
		SELECT id, camera_id, recording_id, detected_at, confidence, viewed, notified, created_at
		FROM motion_events
		WHERE camera_id = $1
		ORDER BY detected_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := m.DB.QueryContext(ctx, query, cameraID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*MotionEvent
	for rows.Next() {
		var e MotionEvent
		if err := rows.Scan(&e.ID, &e.CameraID, &e.RecordingID, &e.DetectedAt, &e.Confidence, &e.Viewed, &e.Notified, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// MarkViewed flags an event as seen. The update is scoped through the
// owning camera so an event id alone never crosses user boundaries.
func (m MotionModel) MarkViewed(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		UPDATE motion_events SET viewed = TRUE
		FROM cameras
		WHERE motion_events.id = $1
		  AND cameras.id = motion_events.camera_id
		  AND cameras.user_id = $2`
	res, err := m.DB.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (m MotionModel) MarkNotified(ctx context.Context, id uuid.UUID) error {
	res, err := m.DB.ExecContext(ctx, `UPDATE motion_events SET notified = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}
