package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Recording modes supported by a camera.
const (
	ModeManual     = "manual"
	ModeContinuous = "continuous"
	ModeMotion     = "motion"
	ModeScheduled  = "scheduled"
)

// ValidMode reports whether mode is one of the known recording modes.
func ValidMode(mode string) bool {
	switch mode {
	case ModeManual, ModeContinuous, ModeMotion, ModeScheduled:
		return true
	}
	return false
}

// Camera represents a registered home camera and its connection parameters.
type Camera struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	Name             string     `json:"name"`
	Location         string     `json:"location,omitempty"`
	Host             string     `json:"host"`
	RTSPPort         int        `json:"rtsp_port"`
	RTSPPath         string     `json:"rtsp_path"`
	RTSPUsername     string     `json:"-"`
	RTSPPassword     string     `json:"-"`
	RTSPOverrideURL  string     `json:"-"`
	SupportsAudio    bool       `json:"supports_audio"`
	SupportsPTZ      bool       `json:"supports_ptz"`
	SupportsTwoWay   bool       `json:"supports_two_way"`
	RecordingEnabled bool       `json:"recording_enabled"`
	RecordingMode    string     `json:"recording_mode"`
	RetentionDays    int        `json:"retention_days"`
	DisplayOrder     int        `json:"display_order"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
}

// RTSPURL assembles the stream URL the encoder connects to. An explicit
// override URL wins over the host/port/path parts.
func (c *Camera) RTSPURL() string {
	if c.RTSPOverrideURL != "" {
		return c.RTSPOverrideURL
	}
	if c.RTSPUsername != "" {
		return fmt.Sprintf("rtsp://%s:%s@%s:%d%s", c.RTSPUsername, c.RTSPPassword, c.Host, c.RTSPPort, c.RTSPPath)
	}
	return fmt.Sprintf("rtsp://%s:%d%s", c.Host, c.RTSPPort, c.RTSPPath)
}

type CameraModel struct {
	DB DBTX
}

const cameraColumns = `id, user_id, name, location, host, rtsp_port, rtsp_path,
	rtsp_username, rtsp_password, rtsp_url, supports_audio, supports_ptz,
	supports_two_way, recording_enabled, recording_mode, retention_days,
	display_order, created_at, updated_at, deleted_at`

func scanCamera(row interface{ Scan(...any) error }) (*Camera, error) {
	var c Camera
	err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Location, &c.Host, &c.RTSPPort, &c.RTSPPath,
		&c.RTSPUsername, &c.RTSPPassword, &c.RTSPOverrideURL, &c.SupportsAudio, &c.SupportsPTZ,
		&c.SupportsTwoWay, &c.RecordingEnabled, &c.RecordingMode, &c.RetentionDays,
		&c.DisplayOrder, &c.CreatedAt, &c.UpdatedAt, &c.DeletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (m CameraModel) Create(ctx context.Context, c *Camera) error {
	query := `
		INSERT INTO cameras (
			user_id, name, location, host, rtsp_port, rtsp_path,
			rtsp_username, rtsp_password, rtsp_url, supports_audio, supports_ptz,
			supports_two_way, recording_enabled, recording_mode, retention_days, display_order
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`

	return m.DB.QueryRowContext(ctx, query,
		c.UserID, c.Name, c.Location, c.Host, c.RTSPPort, c.RTSPPath,
		c.RTSPUsername, c.RTSPPassword, c.RTSPOverrideURL, c.SupportsAudio, c.SupportsPTZ,
		c.SupportsTwoWay, c.RecordingEnabled, c.RecordingMode, c.RetentionDays, c.DisplayOrder,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// GetOwned retrieves a camera scoped to its owner.
func (m CameraModel) GetOwned(ctx context.Context, id, userID uuid.UUID) (*Camera, error) {
	query := `SELECT ` + cameraColumns + `
		FROM cameras
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
	return scanCamera(m.DB.QueryRowContext(ctx, query, id, userID))
}

func (m CameraModel) Update(ctx context.Context, c *Camera) error {
	query := `
		UPDATE cameras
		SET name = $1, location = $2, host = $3, rtsp_port = $4, rtsp_path = $5,
		    rtsp_username = $6, rtsp_password = $7, rtsp_url = $8,
		    supports_audio = $9, supports_ptz = $10, supports_two_way = $11,
		    recording_enabled = $12, retention_days = $13, display_order = $14,
		    updated_at = NOW()
		WHERE id = $15 AND user_id = $16 AND deleted_at IS NULL
		RETURNING updated_at`

	err := m.DB.QueryRowContext(ctx, query,
		c.Name, c.Location, c.Host, c.RTSPPort, c.RTSPPath,
		c.RTSPUsername, c.RTSPPassword, c.RTSPOverrideURL,
		c.SupportsAudio, c.SupportsPTZ, c.SupportsTwoWay,
		c.RecordingEnabled, c.RetentionDays, c.DisplayOrder,
		c.ID, c.UserID,
	).Scan(&c.UpdatedAt)

	if err == sql.ErrNoRows {
		return ErrRecordNotFound
	}
	return err
}

// SetMode switches the camera's recording mode and enables recording for
// any mode other than manual.
func (m CameraModel) SetMode(ctx context.Context, id, userID uuid.UUID, mode string) error {
	query := `
		UPDATE cameras
		SET recording_mode = $1, recording_enabled = ($1 <> 'manual'), updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND deleted_at IS NULL`
	res, err := m.DB.ExecContext(ctx, query, mode, id, userID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (m CameraModel) SoftDelete(ctx context.Context, id, userID uuid.UUID) error {
	query := `UPDATE cameras SET deleted_at = NOW() WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`
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

func (m CameraModel) List(ctx context.Context, userID uuid.UUID) ([]*Camera, error) {
	query := `SELECT ` + cameraColumns + `
		FROM cameras
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY display_order, created_at`

	rows, err := m.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cams []*Camera
	for rows.Next() {
		c, err := scanCamera(rows)
		if err != nil {
			return nil, err
		}
		cams = append(cams, c)
	}
	return cams, rows.Err()
}

// ListByMode returns all cameras (any owner) with recording enabled in the
// given mode. Used by the schedule evaluator.
func (m CameraModel) ListByMode(ctx context.Context, mode string) ([]*Camera, error) {
	query := `SELECT ` + cameraColumns + `
		FROM cameras
		WHERE recording_mode = $1 AND recording_enabled AND deleted_at IS NULL`

	rows, err := m.DB.QueryContext(ctx, query, mode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cams []*Camera
	for rows.Next() {
		c, err := scanCamera(rows)
		if err != nil {
			return nil, err
		}
		cams = append(cams, c)
	}
	return cams, rows.Err()
}
