package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ScheduleSlot is one recurring recording window. Slots are pure
// configuration; the schedule evaluator turns them into Start/Stop calls.
type ScheduleSlot struct {
	ID        uuid.UUID `json:"id"`
	CameraID  uuid.UUID `json:"camera_id"`
	DayOfWeek int       `json:"day"`
	StartTime string    `json:"start_time"` // HH:MM
	EndTime   string    `json:"end_time"`   // HH:MM
	CreatedAt time.Time `json:"created_at"`
}

// ScheduleModel holds *sql.DB directly because Replace needs a transaction.
type ScheduleModel struct {
	DB *sql.DB
}

// Replace swaps the camera's full slot set atomically. Partial schedules
// are not supported: saving an empty list clears the schedule.
func (m ScheduleModel) Replace(ctx context.Context, cameraID uuid.UUID, slots []ScheduleSlot) error {
	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_slots WHERE camera_id = $1`, cameraID); err != nil {
		return err
	}

	for _, s := range slots {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO schedule_slots (camera_id, day_of_week, start_time, end_time) VALUES ($1, $2, $3, $4)`,
			cameraID, s.DayOfWeek, s.StartTime, s.EndTime,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (m ScheduleModel) ListByCamera(ctx context.Context, cameraID uuid.UUID) ([]ScheduleSlot, error) {
	query := `
		SELECT id, camera_id, day_of_week, start_time, end_time, created_at
		FROM schedule_slots
		WHERE camera_id = $1
		ORDER BY day_of_week, start_time`

	rows, err := m.DB.QueryContext(ctx, query, cameraID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []ScheduleSlot
	for rows.Next() {
		var s ScheduleSlot
		if err := rows.Scan(&s.ID, &s.CameraID, &s.DayOfWeek, &s.StartTime, &s.EndTime, &s.CreatedAt); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}
