package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRegistry(client)
}

func TestRegistryRoundTrip(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	cameraID := uuid.New()
	want := Marker{
		PID:         4242,
		RecordingID: uuid.New(),
		StartedAt:   time.Now().Truncate(time.Second),
	}

	if err := reg.Put(ctx, cameraID, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := reg.Get(ctx, cameraID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("expected marker, got nil")
	}
	if got.PID != want.PID {
		t.Errorf("PID: want %d, got %d", want.PID, got.PID)
	}
	if got.RecordingID != want.RecordingID {
		t.Errorf("RecordingID: want %s, got %s", want.RecordingID, got.RecordingID)
	}
	if !got.StartedAt.Equal(want.StartedAt) {
		t.Errorf("StartedAt: want %v, got %v", want.StartedAt, got.StartedAt)
	}
}

func TestRegistryGetMissing(t *testing.T) {
	reg := newTestRegistry(t)

	got, err := reg.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil marker, got %+v", got)
	}
}

func TestRegistryDelete(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	cameraID := uuid.New()
	if err := reg.Put(ctx, cameraID, Marker{PID: 1, RecordingID: uuid.New(), StartedAt: time.Now()}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := reg.Delete(ctx, cameraID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, err := reg.Get(ctx, cameraID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Error("expected marker to be gone")
	}
}

// Terminate with no marker must succeed without signaling anything.
func TestTerminateNoMarker(t *testing.T) {
	reg := newTestRegistry(t)
	sup := New(Config{}, reg)

	if err := sup.Terminate(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
}
