package data

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ShareToken grants unauthenticated read access to one recording until
// expires_at. Tokens are never mutated after creation except view_count.
type ShareToken struct {
	ID          uuid.UUID `json:"id"`
	RecordingID uuid.UUID `json:"recording_id"`
	Token       string    `json:"token"`
	CreatedBy   uuid.UUID `json:"created_by"`
	ExpiresAt   time.Time `json:"expires_at"`
	ViewCount   int       `json:"view_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type ShareModel struct {
	DB DBTX
}

func (m ShareModel) Create(ctx context.Context, s *ShareToken) error {
	query := `
		INSERT INTO share_tokens (recording_id, token, created_by, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`
	return m.DB.QueryRowContext(ctx, query, s.RecordingID, s.Token, s.CreatedBy, s.ExpiresAt).
		Scan(&s.ID, &s.CreatedAt)
}

// GetByToken returns the share row regardless of expiry; the caller decides
// between Expired and NotFound.
func (m ShareModel) GetByToken(ctx context.Context, token string) (*ShareToken, error) {
	query := `
		SELECT id, recording_id, token, created_by, expires_at, view_count, created_at
		FROM share_tokens
		WHERE token = $1`

	var s ShareToken
	err := m.DB.QueryRowContext(ctx, query, token).Scan(
		&s.ID, &s.RecordingID, &s.Token, &s.CreatedBy, &s.ExpiresAt, &s.ViewCount, &s.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (m ShareModel) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := m.DB.ExecContext(ctx, `UPDATE share_tokens SET view_count = view_count + 1 WHERE id = $1`, id)
	return err
}

// DeleteForRecording removes all tokens for a recording. The FK cascade
// covers row deletion too; this exists for callers deleting media first.
func (m ShareModel) DeleteForRecording(ctx context.Context, recordingID uuid.UUID) error {
	_, err := m.DB.ExecContext(ctx, `DELETE FROM share_tokens WHERE recording_id = $1`, recordingID)
	return err
}
