package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Recording is a single capture session. A row with end_time IS NULL is
// the camera's active recording; Finalize sets end_time exactly once.
type Recording struct {
	ID              uuid.UUID  `json:"id"`
	CameraID        uuid.UUID  `json:"camera_id"`
	UserID          uuid.UUID  `json:"user_id"`
	Filename        string     `json:"filename"`
	Thumbnail       string     `json:"thumbnail,omitempty"`
	RecordingMode   string     `json:"recording_mode"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	FileSize        *int64     `json:"file_size,omitempty"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Active reports whether the capture is still in progress.
func (r *Recording) Active() bool { return r.EndTime == nil }

// RecordingFilter narrows List results.
type RecordingFilter struct {
	CameraID *uuid.UUID
	From     *time.Time
	To       *time.Time
	Mode     string
}

// CameraUsage is one camera's slice of a user's storage consumption.
type CameraUsage struct {
	CameraID uuid.UUID `json:"camera_id"`
	Bytes    int64     `json:"bytes"`
	Count    int       `json:"count"`
}

type RecordingModel struct {
	DB DBTX
}

const recordingColumns = `id, camera_id, user_id, filename, thumbnail, recording_mode,
	start_time, end_time, file_size, duration_seconds, created_at`

func scanRecording(row interface{ Scan(...any) error }) (*Recording, error) {
	var r Recording
	err := row.Scan(
		&r.ID, &r.CameraID, &r.UserID, &r.Filename, &r.Thumbnail, &r.RecordingMode,
		&r.StartTime, &r.EndTime, &r.FileSize, &r.DurationSeconds, &r.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &r, nil
}

// CreateOpen inserts a new in-progress recording row. The partial unique
// index rejects a second open row for the same camera; that conflict is
// surfaced as ErrActiveRecordingExists.
func (m RecordingModel) CreateOpen(ctx context.Context, r *Recording) error {
	query := `
		INSERT INTO recordings (camera_id, user_id, filename, thumbnail, recording_mode, start_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := m.DB.QueryRowContext(ctx, query,
		r.CameraID, r.UserID, r.Filename, r.Thumbnail, r.RecordingMode, r.StartTime,
	).Scan(&r.ID, &r.CreatedAt)

	if isUniqueViolation(err) {
		return ErrActiveRecordingExists
	}
	return err
}

// Get fetches a recording without an ownership scope. Callers are the
// share resolver and internal reconciliation; handlers use GetOwned.
func (m RecordingModel) Get(ctx context.Context, id uuid.UUID) (*Recording, error) {
	query := `SELECT ` + recordingColumns + ` FROM recordings WHERE id = $1`
	return scanRecording(m.DB.QueryRowContext(ctx, query, id))
}

func (m RecordingModel) GetOwned(ctx context.Context, id, userID uuid.UUID) (*Recording, error) {
	query := `SELECT ` + recordingColumns + ` FROM recordings WHERE id = $1 AND user_id = $2`
	return scanRecording(m.DB.QueryRowContext(ctx, query, id, userID))
}

// FindActive locates the camera's open recording, if any.
func (m RecordingModel) FindActive(ctx context.Context, cameraID uuid.UUID) (*Recording, error) {
	query := `SELECT ` + recordingColumns + ` FROM recordings WHERE camera_id = $1 AND end_time IS NULL`
	return scanRecording(m.DB.QueryRowContext(ctx, query, cameraID))
}

// FindActiveOwned locates the open recording either by recording id or by
// camera id, scoped to the owner. Exactly one of recordingID/cameraID is set.
func (m RecordingModel) FindActiveOwned(ctx context.Context, recordingID, cameraID *uuid.UUID, userID uuid.UUID) (*Recording, error) {
	if recordingID != nil {
		query := `SELECT ` + recordingColumns + `
			FROM recordings WHERE id = $1 AND user_id = $2 AND end_time IS NULL`
		return scanRecording(m.DB.QueryRowContext(ctx, query, *recordingID, userID))
	}
	query := `SELECT ` + recordingColumns + `
		FROM recordings WHERE camera_id = $1 AND user_id = $2 AND end_time IS NULL`
	return scanRecording(m.DB.QueryRowContext(ctx, query, *cameraID, userID))
}

// Finalize closes an open recording. The end_time IS NULL guard makes a
// second Stop a no-op at the store level.
func (m RecordingModel) Finalize(ctx context.Context, id uuid.UUID, endTime time.Time, fileSize int64, durationSeconds int) error {
	query := `
		UPDATE recordings
		SET end_time = $1, file_size = $2, duration_seconds = $3
		WHERE id = $4 AND end_time IS NULL`
	res, err := m.DB.ExecContext(ctx, query, endTime, fileSize, durationSeconds, id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (m RecordingModel) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := m.DB.ExecContext(ctx, `DELETE FROM recordings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (m RecordingModel) List(ctx context.Context, userID uuid.UUID, filter RecordingFilter, limit, offset int) ([]*Recording, int, error) {
	where := "WHERE user_id = $1"
	args := []any{userID}
	nextArg := 2

	if filter.CameraID != nil {
		where += fmt.Sprintf(" AND camera_id = $%d", nextArg)
		args = append(args, *filter.CameraID)
		nextArg++
	}
	if filter.From != nil {
		where += fmt.Sprintf(" AND start_time >= $%d", nextArg)
		args = append(args, *filter.From)
		nextArg++
	}
	if filter.To != nil {
		where += fmt.Sprintf(" AND start_time <= $%d", nextArg)
		args = append(args, *filter.To)
		nextArg++
	}
	if filter.Mode != "" {
		where += fmt.Sprintf(" AND recording_mode = $%d", nextArg)
		args = append(args, filter.Mode)
		nextArg++
	}

	countQuery := "SELECT count(*) FROM recordings " + where
	var total int
	if err := m.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT `+recordingColumns+`
		FROM recordings
		%s
		ORDER BY start_time DESC
		LIMIT $%d OFFSET $%d`, where, nextArg, nextArg+1)
	args = append(args, limit, offset)

	rows, err := m.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var recs []*Recording
	for rows.Next() {
		r, err := scanRecording(rows)
		if err != nil {
			return nil, 0, err
		}
		recs = append(recs, r)
	}
	return recs, total, rows.Err()
}

// SumCompletedBytes is the user's recorded-byte usage. Open recordings have
// no file_size yet and do not count (soft quota).
func (m RecordingModel) SumCompletedBytes(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COALESCE(SUM(file_size), 0) FROM recordings WHERE user_id = $1 AND end_time IS NOT NULL`
	var total int64
	err := m.DB.QueryRowContext(ctx, query, userID).Scan(&total)
	return total, err
}

func (m RecordingModel) PerCameraUsage(ctx context.Context, userID uuid.UUID) ([]CameraUsage, error) {
	query := `
		SELECT camera_id, COALESCE(SUM(file_size), 0), count(*)
		FROM recordings
		WHERE user_id = $1 AND end_time IS NOT NULL
		GROUP BY camera_id`

	rows, err := m.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usage []CameraUsage
	for rows.Next() {
		var u CameraUsage
		if err := rows.Scan(&u.CameraID, &u.Bytes, &u.Count); err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

// ListCompletedBefore returns completed recordings older than the cutoff,
// the retention sweep's candidate set.
func (m RecordingModel) ListCompletedBefore(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]*Recording, error) {
	query := `SELECT ` + recordingColumns + `
		FROM recordings
		WHERE user_id = $1 AND end_time IS NOT NULL AND end_time < $2`

	rows, err := m.DB.QueryContext(ctx, query, userID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*Recording
	for rows.Next() {
		r, err := scanRecording(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// DistinctUsers lists every user owning at least one recording. The sweeper
// binary iterates this set.
func (m RecordingModel) DistinctUsers(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := m.DB.QueryContext(ctx, `SELECT DISTINCT user_id FROM recordings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
