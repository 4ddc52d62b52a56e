package supervisor

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Marker is the durable record tying a camera to its running encoder
// process. It lives in redis so a Stop request arriving in a different
// process (or after a restart) can still locate and terminate the encoder.
type Marker struct {
	PID         int
	RecordingID uuid.UUID
	StartedAt   time.Time
}

// Registry stores process markers keyed by camera id.
type Registry struct {
	client *redis.Client
}

func NewRegistry(client *redis.Client) *Registry {
	return &Registry{client: client}
}

func markerKey(cameraID uuid.UUID) string {
	return "dvr:proc:" + cameraID.String()
}

func (r *Registry) Put(ctx context.Context, cameraID uuid.UUID, m Marker) error {
	key := markerKey(cameraID)
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key,
		"pid", m.PID,
		"recording_id", m.RecordingID.String(),
		"started_at", m.StartedAt.Unix(),
	)
	// Markers self-expire long after any plausible recording so a crashed
	// writer cannot leak them forever.
	pipe.Expire(ctx, key, 48*time.Hour)
	_, err := pipe.Exec(ctx)
	return err
}

// Get returns the camera's marker, or nil if none exists.
func (r *Registry) Get(ctx context.Context, cameraID uuid.UUID) (*Marker, error) {
	vals, err := r.client.HGetAll(ctx, markerKey(cameraID)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, nil
	}

	pid, err := strconv.Atoi(vals["pid"])
	if err != nil {
		return nil, err
	}
	recID, err := uuid.Parse(vals["recording_id"])
	if err != nil {
		return nil, err
	}
	startedAt, _ := strconv.ParseInt(vals["started_at"], 10, 64)

	return &Marker{
		PID:         pid,
		RecordingID: recID,
		StartedAt:   time.Unix(startedAt, 0),
	}, nil
}

func (r *Registry) Delete(ctx context.Context, cameraID uuid.UUID) error {
	return r.client.Del(ctx, markerKey(cameraID)).Err()
}
