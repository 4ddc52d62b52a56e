package quota

import (
	"context"

	"github.com/google/uuid"
	"github.com/truevault/tv-dvr/internal/data"
)

type UsageStore interface {
	SumCompletedBytes(ctx context.Context, userID uuid.UUID) (int64, error)
	PerCameraUsage(ctx context.Context, userID uuid.UUID) ([]data.CameraUsage, error)
}

// Stats is the storage report surfaced to the dashboard.
type Stats struct {
	UsedBytes   int64              `json:"used_bytes"`
	MaxBytes    int64              `json:"max_bytes"`
	UsedPercent float64            `json:"used_percent"`
	PerCamera   []data.CameraUsage `json:"per_camera"`
}

// Ledger answers storage-usage questions from completed recordings only.
// An in-flight recording has no file_size yet, so usage trails reality by
// one open clip per camera.
type Ledger struct {
	store    UsageStore
	maxBytes int64
}

func NewLedger(store UsageStore, maxBytes int64) *Ledger {
	return &Ledger{store: store, maxBytes: maxBytes}
}

func (l *Ledger) MaxBytes() int64 { return l.maxBytes }

func (l *Ledger) UsedBytes(ctx context.Context, userID uuid.UUID) (int64, error) {
	return l.store.SumCompletedBytes(ctx, userID)
}

func (l *Ledger) Stats(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	used, err := l.store.SumCompletedBytes(ctx, userID)
	if err != nil {
		return nil, err
	}
	perCamera, err := l.store.PerCameraUsage(ctx, userID)
	if err != nil {
		return nil, err
	}

	var pct float64
	if l.maxBytes > 0 {
		pct = float64(used) / float64(l.maxBytes) * 100
		if pct > 100 {
			pct = 100
		}
	}

	return &Stats{
		UsedBytes:   used,
		MaxBytes:    l.maxBytes,
		UsedPercent: pct,
		PerCamera:   perCamera,
	}, nil
}
